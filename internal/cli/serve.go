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
	"github.com/spf13/cobra"

	"github.com/lemlib/artifactlink/internal/config"
	"github.com/lemlib/artifactlink/internal/webhook"
)

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive workflow_run webhooks and update pull requests",
		Args:  cobra.NoArgs,
		RunE:  a.serve,
	}
	cobra.CheckErr(config.BindServeFlags(a.v, cmd.Flags()))
	return cmd
}

func (a *app) serve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return usageError(err)
	}

	pub, err := a.newPublisher(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []webhook.Option{webhook.WithRateLimit(cfg.RateLimit, cfg.RateWindow)}
	if len(cfg.Workflows) > 0 {
		opts = append(opts, webhook.WithWorkflows(cfg.Workflows...))
	}

	return webhook.NewServer(cfg.Addr, cfg.Port, pub, cfg.WebhookSecret, opts...).Start(ctx)
}
