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

// Package publisher links the first artifact of a completed workflow run from
// the description of the pull request that produced it.
//
// A run goes through four steps:
//   - find the open pull request whose head is the run's commit
//   - stop early when the description already records that commit
//   - pick the first artifact of the run
//   - rewrite the managed section of the description
//
// Every outcome other than success is returned as an error. The sentinel
// errors below let hosts tell "nothing to do" apart from real failures, while
// Message renders all of them for the single failure channel hosts expose.
package publisher

import (
	"context"
	"errors"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/lemlib/artifactlink/internal/github"
	"github.com/lemlib/artifactlink/internal/render"
	"github.com/lemlib/artifactlink/internal/section"
)

// DefaultPurpose tags the managed section written by this tool
const DefaultPurpose = "nightly-link"

var (
	// ErrPullRequestNotFound indicates no open pull request has the run's head commit
	ErrPullRequestNotFound = github.ErrPullRequestNotFound

	// ErrNoArtifacts indicates the run produced no artifacts
	ErrNoArtifacts = errors.New("no artifacts found")

	// ErrAlreadyUpToDate indicates the description already links this commit
	ErrAlreadyUpToDate = errors.New("pull request body already up to date")
)

// Run is the completed workflow run that triggered publishing
type Run struct {
	ID                 int64
	Name               string
	HeadBranch         string
	HeadRepositoryName string
	HeadSHA            string
}

// Head returns the commit identity of the run
func (r Run) Head() github.CommitIdentity {
	return github.CommitIdentity{
		Branch:         r.HeadBranch,
		RepositoryName: r.HeadRepositoryName,
		SHA:            r.HeadSHA,
	}
}

// Result describes a successful update
type Result struct {
	PullRequest int
	Artifact    *github.Artifact
	Body        string
}

// Publisher runs the pipeline against a GitHub client
type Publisher struct {
	client   github.Client
	renderer *render.Renderer
	purpose  string
}

// New creates a Publisher. An empty purpose uses DefaultPurpose.
func New(client github.Client, renderer *render.Renderer, purpose string) *Publisher {
	if purpose == "" {
		purpose = DefaultPurpose
	}
	return &Publisher{
		client:   client,
		renderer: renderer,
		purpose:  purpose,
	}
}

// Publish updates the pull request of run with a link to its first artifact
func (p *Publisher) Publish(ctx context.Context, repo github.Repo, run Run) (*Result, error) {
	logger := log.FromContext(ctx).WithValues("repository", repo.String(), "runID", run.ID)

	pr, err := p.client.FindPullRequest(ctx, repo, run.Head())
	if err != nil {
		return nil, err
	}
	logger.Info("Using pull request", "number", pr.Number, "sha", pr.HeadSHA)

	// Checked before listing artifacts so reruns cost a single listing.
	if recorded, ok := section.CommitSHA(pr.Body); ok && recorded == pr.HeadSHA {
		return nil, ErrAlreadyUpToDate
	}

	artifacts, err := p.client.ListWorkflowRunArtifacts(ctx, repo, run.ID)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, ErrNoArtifacts
	}
	artifact := artifacts[0]
	if len(artifacts) > 1 {
		logger.V(1).Info("Run has several artifacts, using the first", "count", len(artifacts), "artifact", artifact.Name)
	}

	fragment, err := p.renderer.Render(render.Input{
		Repo:         repo,
		RunID:        run.ID,
		WorkflowName: run.Name,
		HeadSHA:      pr.HeadSHA,
		Artifact:     artifact,
	})
	if err != nil {
		return nil, err
	}
	logger.V(1).Info("Review thread message body", "body", fragment)

	body := section.Compose(pr.Body, p.purpose, fragment)
	if err := p.client.UpdatePullRequestBody(ctx, repo, pr.Number, body); err != nil {
		return nil, err
	}

	logger.Info("Updated pull request", "number", pr.Number, "artifact", artifact.Name, "artifactID", artifact.ID)
	return &Result{
		PullRequest: pr.Number,
		Artifact:    artifact,
		Body:        body,
	}, nil
}

// Message renders the failure text reported to the host for err
func Message(err error, run Run) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPullRequestNotFound):
		return fmt.Sprintf("No matching pull request found for commit sha of %s", run.HeadSHA)
	case errors.Is(err, ErrAlreadyUpToDate):
		return "Comment is already up-to-date!"
	case errors.Is(err, ErrNoArtifacts):
		return "No artifacts found, perhaps Build Template was skipped"
	default:
		return fmt.Sprintf("Action failed with error %v", err)
	}
}

// IsUnexpected reports whether err is outside the known outcomes
func IsUnexpected(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrPullRequestNotFound) &&
		!errors.Is(err, ErrAlreadyUpToDate) &&
		!errors.Is(err, ErrNoArtifacts)
}
