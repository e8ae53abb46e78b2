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

// Package cli wires configuration, logging and the publisher into the
// artifactlink command tree.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/lemlib/artifactlink/internal/config"
	"github.com/lemlib/artifactlink/internal/github"
	"github.com/lemlib/artifactlink/internal/publisher"
	"github.com/lemlib/artifactlink/internal/render"
)

// version is overridden at build time with -ldflags "-X ...cli.version=..."
var version = "dev"

// Exit codes
const (
	ExitSuccess    = 0
	ExitFailure    = 1
	ExitUsageError = 2
)

// exitError carries the process exit code of a failed command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: ExitUsageError, err: err}
}

// errReported is returned once a failure has already been written for the user
var errReported = errors.New("failure reported")

type app struct {
	v          *viper.Viper
	configFile string
	zapOpts    zap.Options
	stdout     io.Writer
	stderr     io.Writer
}

// NewRootCommand builds the artifactlink command tree. Workflow commands and
// command output go to stdout, logs to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:       config.New(),
		stdout:  stdout,
		stderr:  stderr,
		zapOpts: zap.Options{Development: true},
	}

	root := &cobra.Command{
		Use:   "artifactlink",
		Short: "Link workflow run artifacts from pull request descriptions",
		Long: "artifactlink finds the pull request of a completed workflow run and keeps a " +
			"bot-managed section of its description pointing at the run's first artifact.",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setupLogging,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	cobra.CheckErr(config.BindFlags(a.v, root.PersistentFlags()))
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "path to a config file (yaml, json or toml)")

	zapFlags := flag.NewFlagSet("zap", flag.ContinueOnError)
	a.zapOpts.BindFlags(zapFlags)
	root.PersistentFlags().AddGoFlagSet(zapFlags)

	root.AddCommand(a.runCommand())
	root.AddCommand(a.serveCommand())
	root.AddCommand(versionCommand())

	return root
}

// Run executes the command line and returns the process exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, NewRootCommand(os.Stdout, os.Stderr), os.Args[1:], os.Stderr)
}

func execute(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	if errors.Is(err, errReported) {
		return ExitFailure
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitFailure
}

func (a *app) setupLogging(cmd *cobra.Command, _ []string) error {
	log.SetLogger(zap.New(zap.UseFlagOptions(&a.zapOpts), zap.WriteTo(a.stderr)))
	cmd.SetContext(log.IntoContext(cmd.Context(), log.Log.WithName("artifactlink")))
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

// newPublisher builds the GitHub client, renderer and publisher from cfg
func (a *app) newPublisher(ctx context.Context, cfg *config.Config) (*publisher.Publisher, error) {
	client, err := github.NewClient(ctx, cfg.Token, cfg.APIURL)
	if err != nil {
		return nil, usageError(err)
	}
	renderer, err := render.New(cfg.RenderOptions())
	if err != nil {
		return nil, usageError(err)
	}
	return publisher.New(client, renderer, cfg.Purpose), nil
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print artifactlink version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "artifactlink version %s\n", version)
		},
	}
}
