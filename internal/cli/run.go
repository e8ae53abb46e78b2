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

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/lemlib/artifactlink/internal/actions"
	"github.com/lemlib/artifactlink/internal/config"
	"github.com/lemlib/artifactlink/internal/event"
)

func (a *app) runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Update the pull request of the workflow_run event in GITHUB_EVENT_PATH",
		Long: "run is meant for a GitHub Actions job triggered by workflow_run. Failures are " +
			"written as ::error:: workflow commands and make the command exit 1.",
		Args: cobra.NoArgs,
		RunE: a.run,
	}
	cobra.CheckErr(config.BindRunFlags(a.v, cmd.Flags()))
	return cmd
}

func (a *app) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := log.FromContext(ctx)

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateRun(); err != nil {
		return usageError(err)
	}

	evt, err := event.Load(cfg.EventPath)
	if err != nil {
		return err
	}

	repo, ok := evt.Repo()
	if cfg.Repository != "" {
		if repo, err = actions.ParseRepository(cfg.Repository); err != nil {
			return usageError(err)
		}
	} else if !ok {
		return usageError(fmt.Errorf("%w: set GITHUB_REPOSITORY or --repository", actions.ErrInvalidRepository))
	}

	pub, err := a.newPublisher(ctx, cfg)
	if err != nil {
		return err
	}

	run := evt.Run()
	logger.Info("Handling workflow run", "repo", repo.String(), "run", run.ID, "workflow", run.Name, "sha", run.HeadSHA)

	reporter := actions.NewCommandReporter(a.stdout)
	result, err := pub.Publish(ctx, repo, run)
	actions.Report(reporter, run, result, err)
	if reporter.Failed() {
		return errReported
	}
	return nil
}
