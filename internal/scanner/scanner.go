// Package scanner is the import-batch hook: it filters the imported paths,
// classifies each one through a fresh classifier session and hands the
// suspicious ones to a remover.
package scanner

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/garagon/importguard/internal/cache"
	"github.com/garagon/importguard/internal/classifier"
	"github.com/garagon/importguard/internal/engine/composite"
	"github.com/garagon/importguard/internal/logger"
	"github.com/garagon/importguard/internal/project"
	"github.com/garagon/importguard/internal/remediation"
	"github.com/garagon/importguard/internal/rules"
	"github.com/garagon/importguard/internal/types"
)

// DefaultSelfPath is the install location of the scanner inside a project.
// Artifacts under it are never classified.
const DefaultSelfPath = "Packages/com.garagon.importguard"

// ProgressFunc is called before each imported path is considered.
type ProgressFunc func(done, total int, path string)

// Scanner orchestrates one import batch at a time.
type Scanner struct {
	policy         *rules.Policy
	root           project.Root
	selfPath       string
	denylist       string
	ignorePatterns []string
	maxDepth       int
	remover        remediation.Remover
	read           cache.ReadFunc
	loader         composite.GraphLoader
	progress       ProgressFunc
	log            hclog.Logger
}

// New creates a Scanner for the project at root. Suspicious artifacts are
// reported only until SetRemover installs a real action.
func New(policy *rules.Policy, root string) *Scanner {
	return &Scanner{
		policy:   policy,
		root:     project.Root(root),
		selfPath: DefaultSelfPath,
		remover:  remediation.ReportOnly{},
		log:      hclog.NewNullLogger(),
	}
}

// SetSelfPath overrides the self-exclusion segment. Empty disables it.
func (s *Scanner) SetSelfPath(p string) {
	s.selfPath = p
}

// SetDenylist sets the indicator file, relative to the project root.
func (s *Scanner) SetDenylist(p string) {
	s.denylist = p
}

// SetIgnorePatterns sets additional ignore globs from config.
func (s *Scanner) SetIgnorePatterns(patterns []string) {
	s.ignorePatterns = patterns
}

// SetMaxDepth bounds nested composite references.
func (s *Scanner) SetMaxDepth(n int) {
	s.maxDepth = n
}

// SetRemover installs the action taken on suspicious artifacts.
func (s *Scanner) SetRemover(r remediation.Remover) {
	if r == nil {
		r = remediation.ReportOnly{}
	}
	s.remover = r
}

// SetReadFunc replaces the file reader of every batch cache.
func (s *Scanner) SetReadFunc(read cache.ReadFunc) {
	s.read = read
}

// SetLoader replaces the composite graph loader.
func (s *Scanner) SetLoader(l composite.GraphLoader) {
	s.loader = l
}

// SetProgress installs a progress callback.
func (s *Scanner) SetProgress(fn ProgressFunc) {
	s.progress = fn
}

// SetLogger sets the log sink.
func (s *Scanner) SetLogger(l hclog.Logger) {
	s.log = logger.OrNull(l).Named("scanner")
}

// Root returns the project root.
func (s *Scanner) Root() string { return string(s.root) }

// ScanBatch classifies the imported paths of batch. Deleted and moved
// paths are not classified. It never panics: a failure on one path is
// isolated to that path, and an unexpected failure of the batch itself is
// logged and the partial result returned.
func (s *Scanner) ScanBatch(batch types.Batch) (result *types.BatchResult) {
	start := time.Now()
	id := batch.ID
	if id == "" {
		id = uuid.New().String()
	}
	result = &types.BatchResult{BatchID: id, Target: string(s.root)}
	log := s.log.With("batch", id)

	defer func() {
		if r := recover(); r != nil {
			log.Error("batch aborted", "panic", r, "classified", len(result.Verdicts))
		}
		result.Duration = time.Since(start)
	}()

	log.Debug("batch received",
		"imported", len(batch.Imported),
		"deleted", len(batch.Deleted),
		"moved", len(batch.Moved))

	session := classifier.NewSession(s.policy, classifier.Options{
		Root:     s.root,
		Denylist: s.denylist,
		MaxDepth: s.maxDepth,
		Read:     s.read,
		Loader:   s.loader,
		Logger:   log,
	})

	ignore := append(LoadIgnoreFile(string(s.root)), s.ignorePatterns...)
	for i, path := range batch.Imported {
		if s.progress != nil {
			s.progress(i+1, len(batch.Imported), path)
		}
		if s.excluded(path, ignore) {
			log.Trace("skipping excluded path", "path", path)
			result.Excluded = append(result.Excluded, path)
			continue
		}
		if s.isFolder(path) {
			log.Debug("skipping imported folder", "path", path)
			result.Excluded = append(result.Excluded, path)
			continue
		}

		v := s.classify(session, path, log)
		result.Verdicts = append(result.Verdicts, v)
		if !v.Suspicious {
			continue
		}

		log.Error("suspicious asset detected",
			"path", v.Path,
			"reason", v.Reason.String(),
			"evidence", v.Evidence,
			"rule", v.RuleID)
		result.Removals = append(result.Removals, s.remove(path, log))
	}
	return result
}

// isFolder reports whether path names an existing directory. Unity imports
// folders as assets with their own ".meta"; they have no content to classify.
func (s *Scanner) isFolder(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(s.root.Resolve(path))
	return err == nil && info.IsDir()
}

// Scan discovers every artifact under the project root and scans them as
// a single batch.
func (s *Scanner) Scan() (*types.BatchResult, error) {
	discovery := &TargetDiscovery{}
	paths, err := discovery.Discover(string(s.root))
	if err != nil {
		return nil, err
	}
	return s.ScanBatch(types.Batch{Imported: paths}), nil
}

func (s *Scanner) classify(session *classifier.Session, path string, log hclog.Logger) (v types.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("classification panicked", "path", path, "panic", r)
			v = types.Suspicious(path, types.ReasonLoadError, fmt.Sprint(r))
		}
	}()
	return session.Classify(path)
}

func (s *Scanner) remove(path string, log hclog.Logger) (rem types.Removal) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("removal panicked", "path", path, "panic", r)
			rem = types.Removal{Path: path, Action: types.ActionFailed, Error: fmt.Sprint(r)}
		}
	}()

	rem, err := s.remover.Remove(path)
	if rem.Path == "" {
		rem.Path = path
	}
	if err != nil {
		log.Error("removal failed", "path", path, "error", err)
		if rem.Error == "" {
			rem.Error = err.Error()
		}
		return rem
	}
	log.Warn("asset "+string(rem.Action), "path", path, "destination", rem.Destination)
	return rem
}

func (s *Scanner) excluded(path string, ignore []string) bool {
	if s.selfPath != "" && strings.Contains(path, s.selfPath) {
		return true
	}
	for _, pattern := range ignore {
		if matchGlob(pattern, path) {
			return true
		}
	}
	return false
}
