// Package classifier implements the layered decision pipeline that turns an
// artifact path into a verdict. A Session owns all batch-scoped state (read
// cache, denylist snapshot, GUID index) and is discarded with its batch.
package classifier

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/garagon/importguard/internal/cache"
	"github.com/garagon/importguard/internal/engine/composite"
	"github.com/garagon/importguard/internal/engine/denylist"
	"github.com/garagon/importguard/internal/engine/metadata"
	"github.com/garagon/importguard/internal/engine/pattern"
	"github.com/garagon/importguard/internal/logger"
	"github.com/garagon/importguard/internal/project"
	"github.com/garagon/importguard/internal/rules"
	"github.com/garagon/importguard/internal/types"
)

// DefaultMaxDepth bounds nested composite references.
const DefaultMaxDepth = 32

// Options configures a Session.
type Options struct {
	// Root is the project directory relative artifact paths resolve against.
	Root project.Root
	// Denylist is the indicator file, relative to Root. Empty uses
	// denylist.DefaultSource.
	Denylist string
	// MaxDepth bounds composite recursion. Zero uses DefaultMaxDepth.
	MaxDepth int
	// Read replaces os.ReadFile for the batch cache.
	Read cache.ReadFunc
	// Loader replaces the Unity YAML graph loader.
	Loader composite.GraphLoader
	Logger hclog.Logger
}

// Session classifies artifacts for one import batch. It is not safe for
// concurrent use.
type Session struct {
	cache      *cache.Cache
	gate       *metadata.Gate
	patterns   *pattern.Matcher
	composites *composite.Inspector
	denylist   *denylist.Matcher
	maxDepth   int
	log        hclog.Logger
}

// NewSession wires the pipeline stages around a fresh cache.
func NewSession(policy *rules.Policy, opts Options) *Session {
	log := logger.OrNull(opts.Logger)
	c := cache.New(opts.Read)

	loader := opts.Loader
	if loader == nil {
		loader = composite.NewUnityLoader(opts.Root, c)
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	composites := composite.NewInspector(loader, log)
	// Only composite prefab sources can embed scripts.
	composites.FollowSource(func(path string) bool {
		kind, ok := policy.KindOf(project.Ext(path))
		return ok && kind == rules.KindComposite
	})

	return &Session{
		cache:      c,
		gate:       metadata.NewGate(policy, opts.Root, log),
		patterns:   pattern.NewMatcher(policy, c, opts.Root),
		composites: composites,
		denylist:   denylist.NewMatcher(opts.Denylist, c, opts.Root),
		maxDepth:   maxDepth,
		log:        log.Named("classifier"),
	}
}

// Cache exposes the batch cache.
func (s *Session) Cache() *cache.Cache { return s.cache }

// traversal is the visited set of one top-level Classify call.
type traversal struct {
	visited map[string]bool
}

// Classify returns the verdict for path. It never panics and never returns
// an error: every failure is folded into a suspicious verdict.
func (s *Session) Classify(path string) (v types.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("classification panicked", "path", path, "panic", r)
			v = types.Suspicious(path, types.ReasonLoadError, fmt.Sprint(r))
		}
	}()
	t := &traversal{visited: make(map[string]bool)}
	return s.classify(t, path, 0)
}

func (s *Session) classify(t *traversal, path string, depth int) types.Verdict {
	if depth > s.maxDepth {
		s.log.Error("reference chain too deep", "path", path, "depth", depth, "error", composite.ErrMaxDepth)
		return types.Suspicious(path, types.ReasonLoadError, composite.ErrMaxDepth.Error())
	}
	t.visited[path] = true

	adm, reason := s.gate.Admit(path)
	switch reason {
	case types.ReasonNone, types.ReasonOversizedScript:
	case types.ReasonUnknownType:
		return types.Suspicious(path, reason, adm.Ext)
	default:
		return types.Suspicious(path, reason, "")
	}

	switch adm.Kind {
	case rules.KindScript:
		if v, done := s.check(path, types.ReasonReadError, func() (types.Verdict, bool, error) {
			return s.patternCheck(path)
		}); done {
			return v
		}
		if reason == types.ReasonOversizedScript {
			return types.Suspicious(path, reason, fmt.Sprintf("%d bytes", adm.Size))
		}

	case rules.KindComposite:
		if v, done := s.check(path, types.ReasonLoadError, func() (types.Verdict, bool, error) {
			return s.compositeCheck(t, path, depth)
		}); done {
			return v
		}
	}

	if v, done := s.check(path, types.ReasonReadError, func() (types.Verdict, bool, error) {
		return s.denylistCheck(path)
	}); done {
		return v
	}

	return types.Clean(path)
}

// check runs one fallible stage with the fail-closed policy: an error or a
// panic inside fn yields a suspicious verdict tagged errReason. decided is
// true when the pipeline must stop at this stage.
func (s *Session) check(path string, errReason types.Reason, fn func() (types.Verdict, bool, error)) (v types.Verdict, decided bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("check panicked, treating artifact as suspicious", "path", path, "reason", errReason, "panic", r)
			v, decided = types.Suspicious(path, errReason, fmt.Sprint(r)), true
		}
	}()

	v, hit, err := fn()
	if err != nil {
		s.log.Error("check failed, treating artifact as suspicious", "path", path, "reason", errReason, "error", err)
		return types.Suspicious(path, errReason, err.Error()), true
	}
	return v, hit
}

func (s *Session) patternCheck(path string) (types.Verdict, bool, error) {
	hit, err := s.patterns.Match(path)
	if err != nil || hit == nil {
		return types.Verdict{}, false, err
	}
	v := types.Suspicious(path, types.ReasonDangerousPattern, hit.Pattern.Value)
	v.RuleID = hit.Pattern.ID
	v.Line = hit.Line
	return v, true, nil
}

func (s *Session) compositeCheck(t *traversal, path string, depth int) (types.Verdict, bool, error) {
	nested, hit, err := s.composites.HasEmbeddedMaliciousScript(path, func(ref string) types.Verdict {
		if t.visited[ref] {
			// Already decided in this traversal or still on the stack.
			return types.Clean(ref)
		}
		return s.classify(t, ref, depth+1)
	})
	if err != nil || !hit {
		return types.Verdict{}, false, err
	}
	// A nested check failure keeps its reason so the composite reports
	// the same read-error or load-error as the reference.
	reason := types.ReasonEmbeddedScript
	if o := nested.Origin().Reason; o == types.ReasonReadError || o == types.ReasonLoadError {
		reason = o
	}
	v := types.Suspicious(path, reason, nested.Path)
	v.Cause = &nested
	return v, true, nil
}

func (s *Session) denylistCheck(path string) (types.Verdict, bool, error) {
	entry, hit, err := s.denylist.MatchesDenylist(path)
	if err != nil || !hit {
		return types.Verdict{}, false, err
	}
	return types.Suspicious(path, types.ReasonDenylistMatch, entry), true, nil
}
