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

// Package actions adapts the publisher to its hosts: the GitHub Actions runner
// (workflow commands on stdout) and long-running servers (structured logs).
package actions

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"github.com/lemlib/artifactlink/internal/github"
	"github.com/lemlib/artifactlink/internal/publisher"
)

// ErrInvalidRepository is returned for repository strings not in owner/name form
var ErrInvalidRepository = errors.New("repository must be in owner/name form")

// Reporter is the user-visible outcome channel of a host
type Reporter interface {
	Info(msg string)
	SetFailed(msg string)
}

// CommandReporter writes GitHub Actions workflow commands
type CommandReporter struct {
	out    io.Writer
	mu     sync.Mutex
	failed bool
}

// NewCommandReporter creates a reporter writing to out (usually stdout)
func NewCommandReporter(out io.Writer) *CommandReporter {
	return &CommandReporter{out: out}
}

// Info prints a plain log line
func (r *CommandReporter) Info(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, msg) //nolint:errcheck
}

// SetFailed emits an error annotation and marks the step as failed
func (r *CommandReporter) SetFailed(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = true
	fmt.Fprintf(r.out, "::error::%s\n", escapeData(msg)) //nolint:errcheck
}

// Failed reports whether SetFailed was called
func (r *CommandReporter) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// LogReporter sends outcomes to a logr logger
type LogReporter struct {
	logger logr.Logger
}

// NewLogReporter creates a reporter backed by logger
func NewLogReporter(logger logr.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Info logs msg at info level
func (r *LogReporter) Info(msg string) {
	r.logger.Info(msg)
}

// SetFailed logs msg as an error
func (r *LogReporter) SetFailed(msg string) {
	r.logger.Error(errors.New(msg), "Publishing failed")
}

// Report sends the outcome of a publish to reporter. Every error, expected or
// not, goes through SetFailed.
func Report(reporter Reporter, run publisher.Run, result *publisher.Result, err error) {
	if err != nil {
		reporter.SetFailed(publisher.Message(err, run))
		return
	}
	reporter.Info(fmt.Sprintf("Linked artifact %s (%d) from pull request #%d", result.Artifact.Name, result.Artifact.ID, result.PullRequest))
}

// ParseRepository splits GITHUB_REPOSITORY style owner/name strings
func ParseRepository(s string) (github.Repo, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return github.Repo{}, fmt.Errorf("%w: %q", ErrInvalidRepository, s)
	}
	return github.Repo{Owner: owner, Name: name}, nil
}

// escapeData encodes characters that would end a workflow command early
func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}
