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

// Package webhook provides an HTTP server that publishes artifact links in
// response to GitHub workflow_run webhooks.
//
// This package implements:
//   - Receives and validates GitHub webhook events
//   - Runs the publisher for completed workflow runs
//   - Provides per-repository rate limiting
//   - Health check endpoint
//
// Webhook Security:
//
// All webhook requests must include a valid X-Hub-Signature-256 header containing
// an HMAC-SHA256 signature computed with the webhook secret. Requests with invalid
// or missing signatures are rejected with HTTP 401.
//
// Event Handling:
//
// Only workflow_run deliveries with action "completed" are processed; every
// other event (including ping) is acknowledged with HTTP 200. When an
// allowlist of workflow names is configured, runs of other workflows are
// acknowledged and skipped.
//
// Outcomes:
//   - 200: pull request updated, or already up to date
//   - 422: no matching pull request, or the run has no artifacts
//   - 500: any other failure (GitHub API errors, rendering errors)
//
// Rate Limiting:
//
// Requests are rate-limited per repository using a fixed window. The default
// limit is 10 requests per second per repository. Requests exceeding the
// limit receive HTTP 429 Too Many Requests.
//
// Example usage:
//
//	server := webhook.NewServer(
//		"0.0.0.0",
//		8080,
//		publisher.New(client, renderer, ""),
//		"webhook-secret",
//		webhook.WithWorkflows("Build Template"),
//	)
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package webhook
