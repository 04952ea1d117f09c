package metadata_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/garagon/importguard/internal/engine/metadata"
	"github.com/garagon/importguard/internal/project"
	"github.com/garagon/importguard/internal/rules"
	"github.com/garagon/importguard/internal/types"
)

func writeFile(t *testing.T, root, rel string, size int) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("a"), size), 0644))
}

func TestAdmit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Assets/ok.png", 10)
	writeFile(t, root, "Assets/Upper.JPG", 10)
	writeFile(t, root, "Assets/small.cs", 100)
	writeFile(t, root, "Assets/huge.cs", 1<<20+1)
	writeFile(t, root, "Assets/exact.cs", 1<<20)
	writeFile(t, root, "Assets/big.png", 1<<20+1)
	writeFile(t, root, "Assets/notes.txt", 10)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Assets", "dir.prefab"), 0755))

	g := metadata.NewGate(rules.MustBuiltin(), project.Root(root), hclog.NewNullLogger())

	tests := []struct {
		path   string
		reason types.Reason
		kind   rules.Kind
	}{
		{"", types.ReasonInvalidPath, ""},
		{"   ", types.ReasonInvalidPath, ""},
		{"Assets/missing.png", types.ReasonMissingFile, ""},
		{"Assets/dir.prefab", types.ReasonMissingFile, ""},
		{"Assets/notes.txt", types.ReasonUnknownType, ""},
		{"Assets/huge.cs", types.ReasonOversizedScript, rules.KindScript},
		{"Assets/exact.cs", types.ReasonNone, rules.KindScript},
		{"Assets/small.cs", types.ReasonNone, rules.KindScript},
		{"Assets/big.png", types.ReasonNone, rules.KindPlain},
		{"Assets/ok.png", types.ReasonNone, rules.KindPlain},
		{"Assets/Upper.JPG", types.ReasonNone, rules.KindPlain},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			adm, reason := g.Admit(tt.path)
			require.Equal(t, tt.reason, reason)
			require.Equal(t, tt.kind, adm.Kind)
		})
	}
}

func TestAdmitOversizedKeepsSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Assets/huge.cs", 1<<20+5)
	g := metadata.NewGate(rules.MustBuiltin(), project.Root(root), nil)

	adm, reason := g.Admit("Assets/huge.cs")
	require.Equal(t, types.ReasonOversizedScript, reason)
	require.Equal(t, int64(1<<20+5), adm.Size)
	require.Equal(t, ".cs", adm.Ext)
}

func TestAdmitLogsRejection(t *testing.T) {
	var buf bytes.Buffer
	log := hclog.New(&hclog.LoggerOptions{Output: &buf, DisableTime: true})
	g := metadata.NewGate(rules.MustBuiltin(), project.Root(t.TempDir()), log)

	_, reason := g.Admit("Assets/gone.cs")
	require.Equal(t, types.ReasonMissingFile, reason)
	require.Contains(t, buf.String(), "artifact file not found")
	require.Contains(t, buf.String(), "path=Assets/gone.cs")
}
