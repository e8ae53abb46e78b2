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

// Package event decodes GitHub workflow_run payloads delivered by Actions
// (GITHUB_EVENT_PATH) or by webhook.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/lemlib/artifactlink/internal/github"
	"github.com/lemlib/artifactlink/internal/publisher"
)

// ErrInvalidEvent is returned for payloads without the fields publishing needs
var ErrInvalidEvent = errors.New("invalid workflow_run event")

// WorkflowRunEvent represents a GitHub workflow_run event
type WorkflowRunEvent struct {
	WorkflowRun WorkflowRun `json:"workflow_run"`
	Repository  Repository  `json:"repository"`
	Action      string      `json:"action"`
}

// WorkflowRun contains the run metadata consumed by the publisher
type WorkflowRun struct {
	HeadRepository *Repository `json:"head_repository"`
	Name           string      `json:"name"`
	HeadBranch     string      `json:"head_branch"`
	HeadSHA        string      `json:"head_sha"`
	Conclusion     string      `json:"conclusion"`
	HTMLURL        string      `json:"html_url"`
	ID             int64       `json:"id"`
}

// Repository contains repository metadata
type Repository struct {
	FullName string `json:"full_name"`
	Name     string `json:"name"`
	Owner    Owner  `json:"owner"`
}

// Owner represents the repository owner
type Owner struct {
	Login string `json:"login"`
}

// Parse decodes and validates a workflow_run payload
func Parse(payload []byte) (*WorkflowRunEvent, error) {
	var e WorkflowRunEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if e.WorkflowRun.ID == 0 || e.WorkflowRun.HeadSHA == "" {
		return nil, fmt.Errorf("%w: missing workflow_run id or head_sha", ErrInvalidEvent)
	}
	return &e, nil
}

// Load reads a payload from disk, as written by the Actions runner
func Load(path string) (*WorkflowRunEvent, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}
	return Parse(payload)
}

// Run converts the event to the publisher's view of the run
func (e *WorkflowRunEvent) Run() publisher.Run {
	run := publisher.Run{
		ID:         e.WorkflowRun.ID,
		Name:       e.WorkflowRun.Name,
		HeadBranch: e.WorkflowRun.HeadBranch,
		HeadSHA:    e.WorkflowRun.HeadSHA,
	}
	if e.WorkflowRun.HeadRepository != nil {
		run.HeadRepositoryName = e.WorkflowRun.HeadRepository.Name
	}
	return run
}

// Repo returns the repository the event was delivered for, or false when the
// payload does not name one.
func (e *WorkflowRunEvent) Repo() (github.Repo, bool) {
	if e.Repository.Owner.Login == "" || e.Repository.Name == "" {
		return github.Repo{}, false
	}
	return github.Repo{Owner: e.Repository.Owner.Login, Name: e.Repository.Name}, true
}
