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

// Package github provides GitHub API integration for artifactlink.
//
// This package implements a client for the three REST calls the publisher
// needs: scanning open pull requests for a head commit, listing the artifacts
// of a workflow run, and replacing a pull request description.
//
// Key features:
//   - Lazy page-by-page pull request scan that stops at the first SHA match
//   - Full artifact listing in API order
//   - Raw PATCH of the pull request body with a pinned API version header
//   - Retry logic with exponential backoff
//   - Rate limit handling
//
// Authentication:
//
// The client uses a static OAuth2 token (usually GITHUB_TOKEN) with:
//   - pull-requests: write (for updating the description)
//   - actions: read (for listing artifacts)
//
// Example usage:
//
//	client, err := github.NewClient(ctx, token, "")
//	if err != nil {
//	    return err
//	}
//
//	repo := github.Repo{Owner: "LemLib", Name: "Gamepad"}
//	pr, err := client.FindPullRequest(ctx, repo, github.CommitIdentity{
//	    Branch:         "feature/rumble",
//	    RepositoryName: "Gamepad",
//	    SHA:            "deadbeef",
//	})
//	if errors.Is(err, github.ErrPullRequestNotFound) {
//	    // nothing to annotate
//	}
//
// Retry Logic:
//
// Failed requests are retried with exponential backoff:
//   - Initial backoff: 100 milliseconds
//   - Maximum backoff: 30 seconds
//   - Maximum retries: 3
//   - Backoff factor: 2.0
//
// Retries are performed for rate limits and 502/503/504 responses.
// Client errors (4xx except 429 and rate-limited 403) are not retried.
package github
