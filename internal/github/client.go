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
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

const perPage = 100

// RetryConfig defines the retry behavior for API calls
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

// DefaultRetryConfig returns the retry settings used by NewClient
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
	}
}

// githubClient implements the Client interface using go-github
type githubClient struct {
	client      *github.Client
	retryConfig *RetryConfig
}

// pullRequestBodyPatch is the payload of the raw pull request update
type pullRequestBodyPatch struct {
	Body string `json:"body"`
}

// NewClient creates a new GitHub client with the provided token.
// An empty token yields an unauthenticated client. apiURL overrides the
// REST endpoint (GitHub Enterprise or tests); empty keeps api.github.com.
func NewClient(ctx context.Context, token, apiURL string) (Client, error) {
	var httpClient *http.Client
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	gh := github.NewClient(httpClient)
	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		base, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", apiURL, err)
		}
		gh.BaseURL = base
	}

	return &githubClient{
		client:      gh,
		retryConfig: DefaultRetryConfig(),
	}, nil
}

// FindPullRequest walks open pull requests, most recently updated first, one
// page at a time and stops at the first one whose head SHA matches.
func (c *githubClient) FindPullRequest(ctx context.Context, repo Repo, head CommitIdentity) (*PullRequest, error) {
	logger := log.FromContext(ctx)

	opts := &github.PullRequestListOptions{
		State:     "open",
		Head:      head.HeadFilter(),
		Sort:      "updated",
		Direction: "desc",
		ListOptions: github.ListOptions{
			PerPage: perPage,
		},
	}

	for {
		var pulls []*github.PullRequest
		var resp *github.Response

		err := c.executeWithRetry(ctx, func() error {
			var err error
			pulls, resp, err = c.client.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests: %w", err)
		}

		logger.V(1).Info("Scanning pull requests", "head", opts.Head, "page", opts.Page, "count", len(pulls))

		for _, pr := range pulls {
			if pr.GetHead().GetSHA() == head.SHA {
				return c.convertPullRequest(pr), nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return nil, fmt.Errorf("%w for commit %s", ErrPullRequestNotFound, head.SHA)
}

// ListWorkflowRunArtifacts retrieves every artifact of a workflow run in API order
func (c *githubClient) ListWorkflowRunArtifacts(ctx context.Context, repo Repo, runID int64) ([]*Artifact, error) {
	artifacts := []*Artifact{}
	opts := &github.ListOptions{
		PerPage: perPage,
	}

	for {
		var list *github.ArtifactList
		var resp *github.Response

		err := c.executeWithRetry(ctx, func() error {
			var err error
			list, resp, err = c.client.Actions.ListWorkflowRunArtifacts(ctx, repo.Owner, repo.Name, runID, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list workflow run artifacts: %w", err)
		}

		if list != nil {
			for _, artifact := range list.Artifacts {
				if artifact == nil {
					continue
				}
				artifacts = append(artifacts, c.convertArtifact(artifact))
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return artifacts, nil
}

// UpdatePullRequestBody overwrites the pull request description with a raw PATCH
func (c *githubClient) UpdatePullRequestBody(ctx context.Context, repo Repo, number int, body string) error {
	path := fmt.Sprintf("repos/%s/%s/pulls/%d", repo.Owner, repo.Name, number)

	err := c.executeWithRetry(ctx, func() error {
		req, err := c.client.NewRequest(http.MethodPatch, path, &pullRequestBodyPatch{Body: body})
		if err != nil {
			return err
		}
		req.Header.Set("X-GitHub-Api-Version", APIVersion)

		_, err = c.client.Do(ctx, req, nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update pull request body: %w", err)
	}

	return nil
}

// executeWithRetry executes an operation with exponential backoff retry
func (c *githubClient) executeWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		if !c.isRetryableError(lastErr) {
			return lastErr
		}

		if attempt == c.retryConfig.MaxRetries {
			break
		}

		backoff := c.calculateBackoff(attempt)
		log.FromContext(ctx).V(1).Info("Retrying GitHub API call", "attempt", attempt+1, "backoff", backoff, "error", lastErr.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", c.retryConfig.MaxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func (c *githubClient) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		case http.StatusForbidden:
			if ghErr.Message == "API rate limit exceeded" {
				return true
			}
		}
	}

	return false
}

// calculateBackoff calculates the backoff duration for a retry attempt
func (c *githubClient) calculateBackoff(attempt int) time.Duration {
	base := float64(c.retryConfig.InitialBackoff) * math.Pow(c.retryConfig.BackoffFactor, float64(attempt))

	// ±20% jitter
	jitter := (rand.Float64() * 0.4) - 0.2
	backoff := time.Duration(base * (1 + jitter))

	if backoff > c.retryConfig.MaxBackoff {
		backoff = c.retryConfig.MaxBackoff
	}

	return backoff
}

// convertPullRequest converts a GitHub PR to our domain model
func (c *githubClient) convertPullRequest(pr *github.PullRequest) *PullRequest {
	if pr == nil {
		return nil
	}

	result := &PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		Body:   pr.GetBody(),
		State:  pr.GetState(),
		URL:    pr.GetHTMLURL(),
	}

	if pr.Head != nil {
		result.HeadSHA = pr.Head.GetSHA()
		result.HeadBranch = pr.Head.GetRef()
	}

	return result
}

// convertArtifact converts a GitHub artifact to our domain model
func (c *githubClient) convertArtifact(artifact *github.Artifact) *Artifact {
	if artifact == nil {
		return nil
	}

	return &Artifact{
		ID:          artifact.GetID(),
		Name:        artifact.GetName(),
		SizeInBytes: artifact.GetSizeInBytes(),
		Expired:     artifact.GetExpired(),
	}
}
