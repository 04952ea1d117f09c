package importguard

import "github.com/hashicorp/go-hclog"

// scanConfig holds the resolved configuration for a scan.
type scanConfig struct {
	policyFile     string
	denylist       string
	selfPath       *string
	ignorePatterns []string
	maxDepth       int
	remover        Remover
	progress       func(done, total int, path string)
	logger         hclog.Logger
	category       string // only for ListRules
}

// Option configures a scan operation.
type Option func(*scanConfig)

// WithPolicyFile replaces the built-in policy with a policy file.
func WithPolicyFile(path string) Option {
	return func(c *scanConfig) {
		c.policyFile = path
	}
}

// WithDenylist sets the indicator file, relative to the project root.
func WithDenylist(path string) Option {
	return func(c *scanConfig) {
		c.denylist = path
	}
}

// WithSelfPath overrides the install segment excluded from scanning.
// An empty string disables self-exclusion.
func WithSelfPath(p string) Option {
	return func(c *scanConfig) {
		c.selfPath = &p
	}
}

// WithIgnorePatterns sets artifact path globs that are never classified.
func WithIgnorePatterns(patterns []string) Option {
	return func(c *scanConfig) {
		c.ignorePatterns = patterns
	}
}

// WithMaxDepth bounds nested composite references.
func WithMaxDepth(n int) Option {
	return func(c *scanConfig) {
		c.maxDepth = n
	}
}

// WithRemover sets the action taken on suspicious artifacts.
func WithRemover(r Remover) Option {
	return func(c *scanConfig) {
		c.remover = r
	}
}

// WithProgress installs a callback invoked before each imported path.
func WithProgress(fn func(done, total int, path string)) Option {
	return func(c *scanConfig) {
		c.progress = fn
	}
}

// WithLogger sets the log sink. Logging is discarded by default.
func WithLogger(l hclog.Logger) Option {
	return func(c *scanConfig) {
		c.logger = l
	}
}

// WithCategory filters rules by category (only applies to ListRules).
func WithCategory(cat string) Option {
	return func(c *scanConfig) {
		c.category = cat
	}
}
