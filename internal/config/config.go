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

// Package config loads artifactlink settings from flags, environment
// variables and an optional config file, in that order of precedence.
//
// The GitHub Actions runner variables (GITHUB_TOKEN, GITHUB_REPOSITORY,
// GITHUB_EVENT_PATH, GITHUB_SERVER_URL, GITHUB_API_URL) are read directly;
// every key can also be set with an ARTIFACTLINK_ prefixed variable, e.g.
// ARTIFACTLINK_WEBHOOK_SECRET.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lemlib/artifactlink/internal/actions"
	"github.com/lemlib/artifactlink/internal/publisher"
	"github.com/lemlib/artifactlink/internal/render"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Keys
const (
	KeyToken          = "token"
	KeyRepository     = "repository"
	KeyEventPath      = "event-path"
	KeyServerURL      = "server-url"
	KeyAPIURL         = "api-url"
	KeyPurpose        = "purpose"
	KeyNightlyBaseURL = "nightly-base-url"
	KeyTemplate       = "template"
	KeyWebhookSecret  = "webhook-secret"
	KeyAddr           = "addr"
	KeyPort           = "port"
	KeyWorkflows      = "workflows"
	KeyRateLimit      = "rate-limit"
	KeyRateWindow     = "rate-window"
)

const envPrefix = "ARTIFACTLINK"

// Config holds every setting of both commands
type Config struct {
	Token          string        `mapstructure:"token"`
	Repository     string        `mapstructure:"repository"`
	EventPath      string        `mapstructure:"event-path"`
	ServerURL      string        `mapstructure:"server-url"`
	APIURL         string        `mapstructure:"api-url"`
	Purpose        string        `mapstructure:"purpose"`
	NightlyBaseURL string        `mapstructure:"nightly-base-url"`
	Template       string        `mapstructure:"template"`
	WebhookSecret  string        `mapstructure:"webhook-secret"`
	Addr           string        `mapstructure:"addr"`
	Port           int           `mapstructure:"port"`
	Workflows      []string      `mapstructure:"workflows"`
	RateLimit      int           `mapstructure:"rate-limit"`
	RateWindow     time.Duration `mapstructure:"rate-window"`
}

// RenderOptions returns the renderer settings
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		TemplatePath:   c.Template,
		NightlyBaseURL: c.NightlyBaseURL,
		ServerURL:      c.ServerURL,
	}
}

// New returns a viper instance with defaults and environment bindings
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyServerURL, render.DefaultServerURL)
	v.SetDefault(KeyPurpose, publisher.DefaultPurpose)
	v.SetDefault(KeyNightlyBaseURL, render.DefaultNightlyBaseURL)
	v.SetDefault(KeyAddr, "0.0.0.0")
	v.SetDefault(KeyPort, 8080)
	v.SetDefault(KeyRateLimit, 10)
	v.SetDefault(KeyRateWindow, time.Second)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Runner variables, after the prefixed override
	bindEnv(v, KeyToken, "GITHUB_TOKEN")
	bindEnv(v, KeyRepository, "GITHUB_REPOSITORY")
	bindEnv(v, KeyEventPath, "GITHUB_EVENT_PATH")
	bindEnv(v, KeyServerURL, "GITHUB_SERVER_URL")
	bindEnv(v, KeyAPIURL, "GITHUB_API_URL")

	return v
}

func bindEnv(v *viper.Viper, key, runnerVar string) {
	prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
	_ = v.BindEnv(key, prefixed, runnerVar)
}

// BindFlags registers the shared flags on fs and binds them to v
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String(KeyToken, "", "GitHub token (default $GITHUB_TOKEN)")
	fs.String(KeyRepository, "", "owner/name of the repository (default $GITHUB_REPOSITORY)")
	fs.String(KeyServerURL, "", "GitHub web URL used in run links (default $GITHUB_SERVER_URL)")
	fs.String(KeyAPIURL, "", "GitHub REST API URL (default $GITHUB_API_URL)")
	fs.String(KeyPurpose, "", "tag of the managed section in the pull request body")
	fs.String(KeyNightlyBaseURL, "", "base URL of the artifact download proxy")
	fs.String(KeyTemplate, "", "path to a text/template file replacing the built-in message")

	return v.BindPFlags(fs)
}

// BindRunFlags registers the flags of the run command
func BindRunFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String(KeyEventPath, "", "path to the workflow_run event payload (default $GITHUB_EVENT_PATH)")
	return v.BindPFlags(fs)
}

// BindServeFlags registers the flags of the serve command
func BindServeFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String(KeyWebhookSecret, "", "secret used to verify X-Hub-Signature-256")
	fs.String(KeyAddr, "", "listen address")
	fs.Int(KeyPort, 0, "listen port")
	fs.StringSlice(KeyWorkflows, nil, "only handle runs of these workflow names")
	fs.Int(KeyRateLimit, 0, "deliveries accepted per repository per window")
	fs.Duration(KeyRateWindow, 0, "rate limit window")
	return v.BindPFlags(fs)
}

// Load reads the optional config file and decodes every source into a Config
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return &cfg, nil
}

// ValidateRun checks the settings the run command needs. An empty repository
// is allowed; the run command then takes it from the event payload.
func (c *Config) ValidateRun() error {
	var errs []error
	if c.Repository != "" {
		if _, err := actions.ParseRepository(c.Repository); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
		}
	}
	if c.EventPath == "" {
		errs = append(errs, fmt.Errorf("%w: event path is required (set GITHUB_EVENT_PATH or --event-path)", ErrInvalid))
	}
	return errors.Join(errs...)
}

// ValidateServe checks the settings the serve command needs
func (c *Config) ValidateServe() error {
	var errs []error
	if c.WebhookSecret == "" {
		errs = append(errs, fmt.Errorf("%w: webhook secret is required", ErrInvalid))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: port %d out of range", ErrInvalid, c.Port))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("%w: rate limit must be positive", ErrInvalid))
	}
	if c.RateWindow <= 0 {
		errs = append(errs, fmt.Errorf("%w: rate window must be positive", ErrInvalid))
	}
	return errors.Join(errs...)
}
