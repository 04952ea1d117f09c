package composite

import (
	"github.com/hashicorp/go-hclog"

	"github.com/garagon/importguard/internal/logger"
	"github.com/garagon/importguard/internal/types"
)

// ClassifyFunc classifies one referenced artifact. The classifier supplies
// a closure that carries its visited set and depth, so the inspector never
// tracks recursion itself.
type ClassifyFunc func(path string) types.Verdict

// Inspector walks the references of a composite artifact.
type Inspector struct {
	loader       GraphLoader
	followSource func(path string) bool
	log          hclog.Logger
}

// NewInspector creates an Inspector over loader.
func NewInspector(loader GraphLoader, log hclog.Logger) *Inspector {
	return &Inspector{
		loader: loader,
		log:    logger.OrNull(log).Named("composite"),
	}
}

func (i *Inspector) Name() string { return "composite" }

// FollowSource limits which nested prefab sources are classified. A source
// for which fn returns false is skipped like an unresolved reference. With
// no filter every resolved source is followed.
func (i *Inspector) FollowSource(fn func(path string) bool) {
	i.followSource = fn
}

// HasEmbeddedMaliciousScript loads the graph of path and classifies every
// resolved reference, stopping at the first suspicious one. Unresolved
// references are skipped. A load failure of path itself is returned as an
// error.
func (i *Inspector) HasEmbeddedMaliciousScript(path string, classify ClassifyFunc) (types.Verdict, bool, error) {
	graph, err := i.loader.Load(path)
	if err != nil {
		return types.Verdict{}, false, err
	}

	seen := make(map[string]bool)
	for _, ref := range graph.References() {
		if ref.Path == "" {
			i.log.Debug("skipping unresolved reference", "path", path, "kind", ref.Kind, "guid", ref.GUID)
			continue
		}
		if ref.Kind == RefPrefab && i.followSource != nil && !i.followSource(ref.Path) {
			i.log.Debug("skipping non-composite prefab source", "path", path, "source", ref.Path)
			continue
		}
		if seen[ref.Path] {
			continue
		}
		seen[ref.Path] = true

		v := classify(ref.Path)
		if v.Suspicious {
			return v, true, nil
		}
	}
	return types.Verdict{}, false, nil
}
