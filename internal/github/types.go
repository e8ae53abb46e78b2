// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package github

import (
	"context"
	"errors"
)

// ErrPullRequestNotFound is returned when no open pull request has the requested head commit
var ErrPullRequestNotFound = errors.New("pull request not found")

// APIVersion is the REST API version pinned on raw requests
const APIVersion = "2022-11-28"

// Client interface defines the contract for interacting with GitHub API
type Client interface {
	// FindPullRequest scans open pull requests for the one whose head is the given commit
	FindPullRequest(ctx context.Context, repo Repo, head CommitIdentity) (*PullRequest, error)
	// ListWorkflowRunArtifacts retrieves every artifact produced by a workflow run
	ListWorkflowRunArtifacts(ctx context.Context, repo Repo, runID int64) ([]*Artifact, error)
	// UpdatePullRequestBody replaces the description of a pull request
	UpdatePullRequestBody(ctx context.Context, repo Repo, number int, body string) error
}

// Repo identifies the repository owning the pull requests and workflow runs
type Repo struct {
	Owner string
	Name  string
}

// String returns the owner/name form
func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// CommitIdentity identifies a pushed commit. Branch and RepositoryName may be
// empty when the event did not carry them.
type CommitIdentity struct {
	Branch         string
	RepositoryName string
	SHA            string
}

// HeadFilter returns the "<repository>:<branch>" filter used when listing pull requests.
// An empty string means no filter can be built.
func (c CommitIdentity) HeadFilter() string {
	if c.Branch == "" || c.RepositoryName == "" {
		return ""
	}
	return c.RepositoryName + ":" + c.Branch
}

// PullRequest represents GitHub pull request metadata
type PullRequest struct {
	Number     int
	Title      string
	Body       string
	HeadSHA    string
	HeadBranch string
	State      string
	URL        string
}

// Artifact represents a file bundle produced by a workflow run
type Artifact struct {
	ID          int64
	Name        string
	SizeInBytes int64
	Expired     bool
}
