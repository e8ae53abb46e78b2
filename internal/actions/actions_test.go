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

package actions

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"

	"github.com/lemlib/artifactlink/internal/github"
	"github.com/lemlib/artifactlink/internal/publisher"
)

func TestCommandReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewCommandReporter(&buf)

	r.Info("Using pull request 42")
	if r.Failed() {
		t.Error("Failed() = true after Info")
	}

	r.SetFailed("100% broken\nsecond line")
	if !r.Failed() {
		t.Error("Failed() = false after SetFailed")
	}

	want := "Using pull request 42\n::error::100%25 broken%0Asecond line\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestReport(t *testing.T) {
	run := publisher.Run{ID: 1, HeadSHA: "deadbeef"}

	tests := []struct {
		name       string
		result     *publisher.Result
		err        error
		wantOutput string
		wantFailed bool
	}{
		{
			name:       "success",
			result:     &publisher.Result{PullRequest: 42, Artifact: &github.Artifact{ID: 7, Name: "tpl"}},
			wantOutput: "Linked artifact tpl (7) from pull request #42\n",
		},
		{
			name:       "already up to date is a failure",
			err:        publisher.ErrAlreadyUpToDate,
			wantOutput: "::error::Comment is already up-to-date!\n",
			wantFailed: true,
		},
		{
			name:       "not found",
			err:        publisher.ErrPullRequestNotFound,
			wantOutput: "::error::No matching pull request found for commit sha of deadbeef\n",
			wantFailed: true,
		},
		{
			name:       "unexpected",
			err:        errors.New("dial tcp: timeout"),
			wantOutput: "::error::Action failed with error dial tcp: timeout\n",
			wantFailed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := NewCommandReporter(&buf)

			Report(r, run, tt.result, tt.err)

			if buf.String() != tt.wantOutput {
				t.Errorf("output = %q, want %q", buf.String(), tt.wantOutput)
			}
			if r.Failed() != tt.wantFailed {
				t.Errorf("Failed() = %v, want %v", r.Failed(), tt.wantFailed)
			}
		})
	}
}

func TestLogReporter(t *testing.T) {
	var lines []string
	logger := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{})

	r := NewLogReporter(logger)
	r.Info("hello")
	r.SetFailed("No artifacts found, perhaps Build Template was skipped")

	if len(lines) != 2 {
		t.Fatalf("logged %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[1], "No artifacts found") {
		t.Errorf("error line %q does not carry the message", lines[1])
	}
}

func TestParseRepository(t *testing.T) {
	tests := []struct {
		input   string
		want    github.Repo
		wantErr bool
	}{
		{input: "LemLib/Gamepad", want: github.Repo{Owner: "LemLib", Name: "Gamepad"}},
		{input: " LemLib/Gamepad\n", want: github.Repo{Owner: "LemLib", Name: "Gamepad"}},
		{input: "Gamepad", wantErr: true},
		{input: "/Gamepad", wantErr: true},
		{input: "LemLib/", wantErr: true},
		{input: "a/b/c", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRepository(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRepository) {
					t.Errorf("ParseRepository(%q) error = %v, want ErrInvalidRepository", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRepository(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRepository(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}
