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

// Package render produces the Markdown fragment placed in the managed section
// of a pull request body.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/lemlib/artifactlink/internal/github"
	"github.com/lemlib/artifactlink/internal/section"
)

const (
	// DefaultNightlyBaseURL serves public downloads of workflow artifacts
	DefaultNightlyBaseURL = "https://nightly.link"
	// DefaultServerURL is the GitHub web host used for run links
	DefaultServerURL = "https://github.com"
)

//go:embed default.md.tmpl
var defaultTemplate string

// Options configures a Renderer
type Options struct {
	// TemplatePath replaces the built-in template when set
	TemplatePath   string
	NightlyBaseURL string
	ServerURL      string
}

// Input is what a single rendering needs
type Input struct {
	Repo         github.Repo
	RunID        int64
	WorkflowName string
	HeadSHA      string
	Artifact     *github.Artifact
}

// Data is the value the template executes against
type Data struct {
	CommitSHA    string
	WorkflowName string
	RunURL       string
	DownloadURL  string
	Owner        string
	Repo         string
	Artifact     github.Artifact
}

// Renderer executes the fragment template
type Renderer struct {
	tmpl           *template.Template
	nightlyBaseURL string
	serverURL      string
}

// New parses the configured template
func New(opts Options) (*Renderer, error) {
	text := defaultTemplate
	name := "default"
	if opts.TemplatePath != "" {
		raw, err := os.ReadFile(opts.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read template: %w", err)
		}
		text = string(raw)
		name = opts.TemplatePath
	}

	funcs := sprig.TxtFuncMap()
	funcs["commitSHAComment"] = section.CommitSHAComment

	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	r := &Renderer{
		tmpl:           tmpl,
		nightlyBaseURL: strings.TrimSuffix(opts.NightlyBaseURL, "/"),
		serverURL:      strings.TrimSuffix(opts.ServerURL, "/"),
	}
	if r.nightlyBaseURL == "" {
		r.nightlyBaseURL = DefaultNightlyBaseURL
	}
	if r.serverURL == "" {
		r.serverURL = DefaultServerURL
	}
	return r, nil
}

// DownloadURL is the nightly.link address of an artifact archive
func (r *Renderer) DownloadURL(repo github.Repo, artifactID int64) string {
	return fmt.Sprintf("%s/%s/%s/actions/artifacts/%d.zip", r.nightlyBaseURL, repo.Owner, repo.Name, artifactID)
}

// RunURL is the web address of a workflow run
func (r *Renderer) RunURL(repo github.Repo, runID int64) string {
	return fmt.Sprintf("%s/%s/%s/actions/runs/%d", r.serverURL, repo.Owner, repo.Name, runID)
}

// Render executes the template for one artifact
func (r *Renderer) Render(in Input) (string, error) {
	if in.Artifact == nil {
		return "", fmt.Errorf("render: artifact is required")
	}

	data := Data{
		CommitSHA:    in.HeadSHA,
		WorkflowName: in.WorkflowName,
		RunURL:       r.RunURL(in.Repo, in.RunID),
		DownloadURL:  r.DownloadURL(in.Repo, in.Artifact.ID),
		Owner:        in.Repo.Owner,
		Repo:         in.Repo.Name,
		Artifact:     *in.Artifact,
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}
