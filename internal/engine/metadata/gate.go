// Package metadata implements the structural admissibility checks that run
// before any content is read: path, existence, extension and script size.
package metadata

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/garagon/importguard/internal/logger"
	"github.com/garagon/importguard/internal/project"
	"github.com/garagon/importguard/internal/rules"
	"github.com/garagon/importguard/internal/types"
)

// Admission describes an artifact that passed, or was examined by, the gate.
type Admission struct {
	Ext  string
	Kind rules.Kind
	Size int64
}

// Gate applies the metadata checks of the policy.
type Gate struct {
	policy *rules.Policy
	root   project.Root
	stat   func(string) (os.FileInfo, error)
	log    hclog.Logger
}

// NewGate creates a Gate resolving paths against root.
func NewGate(policy *rules.Policy, root project.Root, log hclog.Logger) *Gate {
	return &Gate{
		policy: policy,
		root:   root,
		stat:   os.Stat,
		log:    logger.OrNull(log).Named("gate"),
	}
}

// Admit reports whether path is admissible. When it is not, the returned
// reason tells which check rejected it. The Admission is filled as far as
// the checks got, so an oversized script still carries its kind and size.
func (g *Gate) Admit(path string) (Admission, types.Reason) {
	var adm Admission

	if strings.TrimSpace(path) == "" {
		g.log.Error("artifact path cannot be empty")
		return adm, types.ReasonInvalidPath
	}

	info, err := g.stat(g.root.Resolve(path))
	if err != nil || !info.Mode().IsRegular() {
		g.log.Warn("artifact file not found", "path", path)
		return adm, types.ReasonMissingFile
	}
	adm.Size = info.Size()

	adm.Ext = project.Ext(path)
	kind, ok := g.policy.KindOf(adm.Ext)
	if !ok {
		g.log.Warn("unknown artifact type", "path", path, "ext", adm.Ext)
		return adm, types.ReasonUnknownType
	}
	adm.Kind = kind

	if kind == rules.KindScript && adm.Size > g.policy.MaxScriptSize() {
		g.log.Warn("script exceeds size limit", "path", path, "size", adm.Size, "limit", g.policy.MaxScriptSize())
		return adm, types.ReasonOversizedScript
	}

	return adm, types.ReasonNone
}
