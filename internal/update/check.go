// Package update checks GitHub Releases for a newer importguard release.
package update

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/garagon/importguard/internal/logger"
)

const (
	// DefaultBaseURL is the GitHub API base URL.
	DefaultBaseURL = "https://api.github.com"
	// DefaultRepo is the repository releases are published to.
	DefaultRepo    = "garagon/importguard"
	defaultTimeout = 2 * time.Second
)

// Result holds the outcome of a version check.
type Result struct {
	Latest    string // e.g. "v0.4.0"
	Current   string
	UpdateCmd string
}

// NeedsUpdate returns true if Latest differs from Current and Current is not "dev".
func (r *Result) NeedsUpdate() bool {
	return r.Latest != r.Current && r.Current != "dev"
}

// githubRelease is the minimal JSON shape we need from the GitHub API.
type githubRelease struct {
	TagName string `json:"tag_name"`
}

// Options configures a Checker. Zero values select the defaults.
type Options struct {
	BaseURL string
	Repo    string
	Timeout time.Duration
	Logger  hclog.Logger
}

// Checker queries the latest release of one repository.
type Checker struct {
	client *resty.Client
	repo   string
}

// NewChecker creates a Checker.
func NewChecker(opts Options) *Checker {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Repo == "" {
		opts.Repo = DefaultRepo
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/vnd.github+json").
		SetLogger(&restyLogger{log: logger.OrNull(opts.Logger).Named("update")})
	return &Checker{client: client, repo: opts.Repo}
}

// CheckLatest fetches the latest release tag. A "dev" build returns a nil
// Result and no error.
func (c *Checker) CheckLatest(ctx context.Context, current string) (*Result, error) {
	if current == "dev" {
		return nil, nil
	}

	var release githubRelease
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&release).
		Get(fmt.Sprintf("/repos/%s/releases/latest", c.repo))
	if err != nil {
		return nil, fmt.Errorf("querying latest release: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("querying latest release: unexpected status %s", resp.Status())
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("querying latest release: empty tag name")
	}

	return &Result{
		Latest:    release.TagName,
		Current:   current,
		UpdateCmd: fmt.Sprintf("go install github.com/%s/cmd/importguard@latest", c.repo),
	}, nil
}

// restyLogger forwards resty's printf-style logging to hclog.
type restyLogger struct {
	log hclog.Logger
}

func (l *restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...))
}

func (l *restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, v...))
}

func (l *restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...))
}
