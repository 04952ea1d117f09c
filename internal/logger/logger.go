// Package logger builds the hclog.Logger used as the log sink by every
// component.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// EnvLevel overrides the configured log level when set.
const EnvLevel = "IMPORTGUARD_LOG_LEVEL"

// Options configures New.
type Options struct {
	Name       string
	Level      string
	JSONFormat bool
	Output     io.Writer
}

// New creates a new hclog.Logger. The level is taken from the
// IMPORTGUARD_LOG_LEVEL environment variable first, then from opts.Level.
// Output defaults to stderr so formatted results on stdout stay clean.
func New(opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	name := opts.Name
	if name == "" {
		name = "importguard"
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:        name,
		Level:       DetermineLevel(opts.Level),
		JSONFormat:  opts.JSONFormat,
		DisableTime: true,
		Output:      out,
	})
}

// DetermineLevel resolves the effective level from the environment and the
// configured value, defaulting to INFO.
func DetermineLevel(configured string) hclog.Level {
	if env := os.Getenv(EnvLevel); env != "" {
		return ParseLevel(env)
	}
	return ParseLevel(configured)
}

// ParseLevel converts a string level to hclog.Level. Unknown values map to INFO.
func ParseLevel(s string) hclog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "WARN", "WARNING":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	case "OFF":
		return hclog.Off
	default:
		return hclog.Info
	}
}

// OrNull returns l, or a logger that discards everything when l is nil.
func OrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
