package scanner_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/garagon/importguard/internal/rules"
	"github.com/garagon/importguard/internal/scanner"
	"github.com/garagon/importguard/internal/types"
	"github.com/stretchr/testify/require"
)

func testdataDir(t *testing.T) string {
	t.Helper()
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "testdata")
}

func setupScanner(t *testing.T) *scanner.Scanner {
	t.Helper()
	dir := filepath.Join(testdataDir(t), "project")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("testdata not found")
	}
	return scanner.New(rules.MustBuiltin(), dir)
}

func verdictsByPath(result *types.BatchResult) map[string]types.Verdict {
	m := make(map[string]types.Verdict, len(result.Verdicts))
	for _, v := range result.Verdicts {
		m[v.Path] = v
	}
	return m
}

func TestIntegrationProjectScan(t *testing.T) {
	s := setupScanner(t)
	result, err := s.Scan()
	require.NoError(t, err)

	got := verdictsByPath(result)
	want := map[string]types.Reason{
		"Assets/Docs/readme.txt":             types.ReasonUnknownType,
		"Assets/FreeHacks/icon.png":          types.ReasonDenylistMatch,
		"Assets/Prefabs/Analytics.prefab":    types.ReasonEmbeddedScript,
		"Assets/Prefabs/Bundle.prefab":       types.ReasonEmbeddedScript,
		"Assets/Prefabs/Level.prefab":        types.ReasonNone,
		"Assets/Prefabs/Player.prefab":       types.ReasonNone,
		"Assets/Scripts/PlayerController.cs": types.ReasonNone,
		"Assets/Scripts/Telemetry.cs":        types.ReasonDangerousPattern,
		"Assets/Textures/logo.png":           types.ReasonNone,
	}
	require.Len(t, got, len(want))
	for path, reason := range want {
		v, ok := got[path]
		require.True(t, ok, "missing verdict for %s", path)
		require.Equal(t, reason, v.Reason, path)
		require.Equal(t, reason != types.ReasonNone, v.Suspicious, path)
	}
	require.Len(t, result.Excluded, 2, "own package is never classified")
	require.Len(t, result.Removals, 4)
	for _, r := range result.Removals {
		require.Equal(t, types.ActionReported, r.Action)
	}
}

func TestIntegrationNestedPrefabEvidence(t *testing.T) {
	s := setupScanner(t)
	result := s.ScanBatch(types.Batch{Imported: []string{"Assets/Prefabs/Bundle.prefab"}})

	require.Len(t, result.Verdicts, 1)
	v := result.Verdicts[0]
	require.Equal(t, "Assets/Prefabs/Analytics.prefab", v.Evidence)
	origin := v.Origin()
	require.Equal(t, "Assets/Scripts/Telemetry.cs", origin.Path)
	require.Equal(t, "NETWORK_ACCESS_002", origin.RuleID)
}

func TestIntegrationDeletedAndMovedIgnored(t *testing.T) {
	s := setupScanner(t)
	result := s.ScanBatch(types.Batch{
		Deleted:   []string{"Assets/Scripts/Telemetry.cs"},
		Moved:     []string{"Assets/Docs/readme.txt"},
		MovedFrom: []string{"Assets/readme.txt"},
	})
	require.Empty(t, result.Verdicts)
	require.Empty(t, result.Removals)
}
