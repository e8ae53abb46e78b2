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

package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/lemlib/artifactlink/internal/actions"
	"github.com/lemlib/artifactlink/internal/cleanup"
	"github.com/lemlib/artifactlink/internal/event"
	"github.com/lemlib/artifactlink/internal/github"
	"github.com/lemlib/artifactlink/internal/publisher"
)

const (
	// DefaultRateLimit is the number of deliveries accepted per repository per window
	DefaultRateLimit = 10
	// maxPayloadBytes caps webhook bodies; GitHub caps deliveries at 25 MB
	maxPayloadBytes = 25 << 20
)

// Publisher is the part of publisher.Publisher the server drives
type Publisher interface {
	Publish(ctx context.Context, repo github.Repo, run publisher.Run) (*publisher.Result, error)
}

// Server handles GitHub webhook requests
type Server struct {
	addr          string
	port          int
	publisher     Publisher
	webhookSecret string
	server        *http.Server
	rateLimiter   *RateLimiter
	workflows     sets.Set[string]
}

// Option customizes a Server
type Option func(*Server)

// WithWorkflows restricts publishing to runs of the named workflows
func WithWorkflows(names ...string) Option {
	return func(s *Server) {
		s.workflows = sets.New(names...)
	}
}

// WithRateLimit replaces the per-repository limit
func WithRateLimit(limit int, window time.Duration) Option {
	return func(s *Server) {
		s.rateLimiter = NewRateLimiter(limit, window)
	}
}

// RateLimiter provides per-repository rate limiting
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*bucket
	limit    int
	window   time.Duration
}

type bucket struct {
	tokens    int
	lastReset time.Time
}

// NewServer creates a new webhook server
func NewServer(addr string, port int, pub Publisher, webhookSecret string, opts ...Option) *Server {
	s := &Server{
		addr:          addr,
		port:          port,
		publisher:     pub,
		webhookSecret: webhookSecret,
		rateLimiter:   NewRateLimiter(DefaultRateLimit, time.Second),
		workflows:     sets.New[string](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*bucket),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request from the given repository should be allowed
func (rl *RateLimiter) Allow(repo string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, exists := rl.limiters[repo]
	if !exists || now.Sub(b.lastReset) >= rl.window {
		b = &bucket{tokens: rl.limit, lastReset: now}
		rl.limiters[repo] = b
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}

	return false
}

// Prune removes buckets whose window has elapsed and returns how many were dropped
func (rl *RateLimiter) Prune(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for repo, b := range rl.limiters {
		if now.Sub(b.lastReset) >= rl.window {
			delete(rl.limiters, repo)
			removed++
		}
	}
	return removed
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start starts the webhook server and blocks until ctx is done
func (s *Server) Start(ctx context.Context) error {
	logger := log.FromContext(ctx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.addr, s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// In-flight deliveries finish during shutdown, so requests do not inherit ctx's cancellation.
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	go cleanup.NewScheduler(s.rateLimiter, cleanup.DefaultInterval).Start(ctx) //nolint:errcheck

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting webhook server", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.Shutdown(log.IntoContext(shutdownCtx, logger))
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.FromContext(ctx).Info("Shutting down webhook server")
	return s.server.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK")) //nolint:errcheck,gosec
}

// handleWebhook handles GitHub webhook requests
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		logger.Error(err, "Failed to read request body")
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close() //nolint:errcheck

	signature := r.Header.Get("X-Hub-Signature-256")
	if !ValidateSignature(payload, signature, s.webhookSecret) {
		logger.Info("Invalid webhook signature")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	if eventType != "workflow_run" {
		logger.V(1).Info("Ignoring non-workflow_run event", "event", eventType)
		w.WriteHeader(http.StatusOK)
		return
	}

	evt, err := event.Parse(payload)
	if err != nil {
		logger.Error(err, "Failed to parse workflow_run payload")
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	if evt.Action != "completed" {
		logger.V(1).Info("Ignoring workflow_run action", "action", evt.Action)
		w.WriteHeader(http.StatusOK)
		return
	}

	if s.workflows.Len() > 0 && !s.workflows.Has(evt.WorkflowRun.Name) {
		logger.V(1).Info("Ignoring workflow", "workflow", evt.WorkflowRun.Name)
		w.WriteHeader(http.StatusOK)
		return
	}

	repo, ok := evt.Repo()
	if !ok {
		http.Error(w, "Payload has no repository", http.StatusBadRequest)
		return
	}

	if !s.rateLimiter.Allow(repo.String()) {
		logger.Info("Rate limit exceeded", "repository", repo.String())
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	s.publish(w, r, repo, evt.Run())
}

// publish runs the publisher for one delivery and maps the outcome to a status
func (s *Server) publish(w http.ResponseWriter, r *http.Request, repo github.Repo, run publisher.Run) {
	logger := log.FromContext(r.Context()).WithValues("repository", repo.String(), "runID", run.ID)
	ctx := log.IntoContext(r.Context(), logger)

	result, err := s.publisher.Publish(ctx, repo, run)
	actions.Report(actions.NewLogReporter(logger), run, result, err)

	if err != nil {
		http.Error(w, publisher.Message(err, run), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Updated pull request #%d", result.PullRequest) //nolint:errcheck
}

// statusFor maps publisher outcomes to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, publisher.ErrAlreadyUpToDate):
		return http.StatusOK
	case errors.Is(err, publisher.ErrPullRequestNotFound), errors.Is(err, publisher.ErrNoArtifacts):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
