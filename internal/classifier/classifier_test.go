package classifier_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/garagon/importguard/internal/classifier"
	"github.com/garagon/importguard/internal/engine/composite"
	"github.com/garagon/importguard/internal/engine/denylist"
	"github.com/garagon/importguard/internal/project"
	"github.com/garagon/importguard/internal/rules"
	"github.com/garagon/importguard/internal/types"
)

// fixture is a throwaway project directory with ".meta" sidecars.
type fixture struct {
	t    *testing.T
	root string
	n    int
}

func newFixture(t *testing.T, indicators string) *fixture {
	f := &fixture{t: t, root: t.TempDir()}
	if indicators != "" {
		f.write(denylist.DefaultSource, indicators)
	}
	return f
}

func (f *fixture) write(rel, content string) {
	f.t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0644))
}

// asset writes rel plus a ".meta" sidecar and returns the GUID.
func (f *fixture) asset(rel, content string) string {
	f.n++
	guid := fmt.Sprintf("%032x", f.n)
	f.write(rel, content)
	f.write(rel+".meta", "fileFormatVersion: 2\nguid: "+guid+"\n")
	return guid
}

func prefab(scriptGUIDs []string, nestedGUIDs ...string) string {
	var b strings.Builder
	b.WriteString("%YAML 1.1\n%TAG !u! tag:unity3d.com,2011:\n--- !u!1 &1\nGameObject:\n  m_Name: Root\n")
	id := 100
	for _, g := range scriptGUIDs {
		id++
		fmt.Fprintf(&b, "--- !u!114 &%d\nMonoBehaviour:\n  m_GameObject: {fileID: 1}\n  m_Script: {fileID: 11500000, guid: %s, type: 3}\n", id, g)
	}
	for _, g := range nestedGUIDs {
		id++
		fmt.Fprintf(&b, "--- !u!1001 &%d\nPrefabInstance:\n  m_SourcePrefab: {fileID: 100100000, guid: %s, type: 3}\n", id, g)
	}
	return b.String()
}

func (f *fixture) session(opts classifier.Options) *classifier.Session {
	opts.Root = project.Root(f.root)
	return classifier.NewSession(rules.MustBuiltin(), opts)
}

const cleanScript = "using UnityEngine;\npublic class Ok : MonoBehaviour { void Start() {} }\n"

func TestClassifyExamples(t *testing.T) {
	f := newFixture(t, "FreeHacks\n")
	f.write("Assets/evil.cs", "class Evil { void Go() { new System.Net.WebClient(); } }")
	f.write("Assets/ok.png", "\x89PNG")
	f.write("Assets/ok.cs", cleanScript)
	f.write("Assets/Shaders/toon.shader", "Shader \"Toon\" {}")
	f.write("Assets/readme.txt", "hello")
	f.write("Assets/FreeHacks/icon.png", "\x89PNG")
	f.write("Assets/UPPER.PNG", "\x89PNG")

	s := f.session(classifier.Options{})

	tests := []struct {
		path       string
		suspicious bool
		reason     types.Reason
		evidence   string
	}{
		{"Assets/evil.cs", true, types.ReasonDangerousPattern, "System.Net"},
		{"Assets/ok.png", false, types.ReasonNone, ""},
		{"Assets/ok.cs", false, types.ReasonNone, ""},
		{"Assets/Shaders/toon.shader", false, types.ReasonNone, ""},
		{"Assets/UPPER.PNG", false, types.ReasonNone, ""},
		{"Assets/readme.txt", true, types.ReasonUnknownType, ".txt"},
		{"Assets/nowhere.cs", true, types.ReasonMissingFile, ""},
		{"", true, types.ReasonInvalidPath, ""},
		{"Assets/FreeHacks/icon.png", true, types.ReasonDenylistMatch, "FreeHacks"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			v := s.Classify(tt.path)
			require.Equal(t, tt.path, v.Path)
			require.Equal(t, tt.suspicious, v.Suspicious)
			require.Equal(t, tt.reason, v.Reason)
			require.Equal(t, tt.evidence, v.Evidence)
		})
	}
}

func TestDangerousPatternRecordsRule(t *testing.T) {
	f := newFixture(t, "nothing-matches\n")
	f.write("Assets/io.cs", "// reads saves\nusing System.IO;")
	v := f.session(classifier.Options{}).Classify("Assets/io.cs")
	require.Equal(t, types.ReasonDangerousPattern, v.Reason)
	require.Equal(t, "FILE_ACCESS_001", v.RuleID)
	require.Equal(t, 2, v.Line)
}

func TestDangerousPatternIndependentOfSize(t *testing.T) {
	f := newFixture(t, "nothing-matches\n")
	big := strings.Repeat("// padding\n", (1<<20)/10)
	f.write("Assets/big_evil.cs", big+"System.Reflection.Assembly.Load(x);\n")
	f.write("Assets/big_clean.cs", big)
	s := f.session(classifier.Options{})

	v := s.Classify("Assets/big_evil.cs")
	require.True(t, v.Suspicious)
	require.Equal(t, types.ReasonDangerousPattern, v.Reason)

	v = s.Classify("Assets/big_clean.cs")
	require.True(t, v.Suspicious)
	require.Equal(t, types.ReasonOversizedScript, v.Reason)
}

func TestDenylistIsCaseSensitive(t *testing.T) {
	f := newFixture(t, "FreeHacks\n")
	f.write("Assets/freehacks/icon.png", "x")
	v := f.session(classifier.Options{}).Classify("Assets/freehacks/icon.png")
	require.False(t, v.Suspicious)
}

func TestUnreadableIndicatorSourceFailsClosed(t *testing.T) {
	f := newFixture(t, "")
	f.write("Assets/ok.png", "x")
	f.write("Assets/ok.cs", cleanScript)

	var buf bytes.Buffer
	log := hclog.New(&hclog.LoggerOptions{Output: &buf, DisableTime: true})
	s := f.session(classifier.Options{Logger: log})

	for _, p := range []string{"Assets/ok.png", "Assets/ok.cs"} {
		v := s.Classify(p)
		require.True(t, v.Suspicious, p)
		require.Equal(t, types.ReasonReadError, v.Reason, p)
		require.Contains(t, v.Evidence, "indicator source")
	}
	require.Equal(t, 2, strings.Count(buf.String(), "check failed, treating artifact as suspicious"))
}

func TestScriptReadErrorFailsClosed(t *testing.T) {
	f := newFixture(t, "nothing\n")
	f.write("Assets/locked.cs", cleanScript)
	scriptPath := filepath.Join(f.root, "Assets", "locked.cs")

	s := f.session(classifier.Options{Read: func(p string) ([]byte, error) {
		if p == scriptPath {
			return nil, errors.New("permission denied")
		}
		return os.ReadFile(p)
	}})
	v := s.Classify("Assets/locked.cs")
	require.True(t, v.Suspicious)
	require.Equal(t, types.ReasonReadError, v.Reason)
	require.Contains(t, v.Evidence, "permission denied")
}

func TestIdempotentWithinBatch(t *testing.T) {
	f := newFixture(t, "nothing\n")
	f.write("Assets/ok.cs", cleanScript)
	f.write("Assets/evil.cs", "using System.Net;")
	s := f.session(classifier.Options{})

	first := s.Classify("Assets/ok.cs")
	firstEvil := s.Classify("Assets/evil.cs")
	reads := s.Cache().Reads()

	require.Equal(t, first, s.Classify("Assets/ok.cs"))
	require.Equal(t, firstEvil, s.Classify("Assets/evil.cs"))
	require.Equal(t, reads, s.Cache().Reads(), "second pass must be served from cache")
}

func TestCompositeWithEmbeddedScripts(t *testing.T) {
	f := newFixture(t, "nothing\n")
	good1 := f.asset("Assets/Scripts/Move.cs", cleanScript)
	good2 := f.asset("Assets/Scripts/Jump.cs", cleanScript)
	bad := f.asset("Assets/Scripts/Steal.cs", "var c = new System.Net.WebClient();")

	f.write("Assets/Clean.prefab", prefab([]string{good1, good2}))
	f.write("Assets/Dirty.prefab", prefab([]string{good1, bad, good2}))
	f.write("Assets/Data/Settings.asset", prefab([]string{bad}))
	s := f.session(classifier.Options{})

	v := s.Classify("Assets/Clean.prefab")
	require.False(t, v.Suspicious)

	v = s.Classify("Assets/Dirty.prefab")
	require.True(t, v.Suspicious)
	require.Equal(t, types.ReasonEmbeddedScript, v.Reason)
	require.Equal(t, "Assets/Scripts/Steal.cs", v.Evidence)
	require.NotNil(t, v.Cause)
	require.Equal(t, types.ReasonDangerousPattern, v.Origin().Reason)

	v = s.Classify("Assets/Data/Settings.asset")
	require.Equal(t, types.ReasonEmbeddedScript, v.Reason)
}

func TestCompositeDenylistedItself(t *testing.T) {
	f := newFixture(t, "Cracked\n")
	good := f.asset("Assets/Scripts/Move.cs", cleanScript)
	f.write("Assets/Cracked/Hero.prefab", prefab([]string{good}))

	v := f.session(classifier.Options{}).Classify("Assets/Cracked/Hero.prefab")
	require.Equal(t, types.ReasonDenylistMatch, v.Reason)
}

func TestCompositeUnresolvedReferencesSkipped(t *testing.T) {
	f := newFixture(t, "nothing\n")
	f.write("Assets/Orphan.prefab", prefab([]string{"deadbeefdeadbeefdeadbeefdeadbeef"}))

	v := f.session(classifier.Options{}).Classify("Assets/Orphan.prefab")
	require.False(t, v.Suspicious)
}

func TestCompositeMissingScriptFileFailsClosed(t *testing.T) {
	f := newFixture(t, "nothing\n")
	guid := f.asset("Assets/Scripts/Gone.cs", cleanScript)
	require.NoError(t, os.Remove(filepath.Join(f.root, "Assets", "Scripts", "Gone.cs")))
	f.write("Assets/Hero.prefab", prefab([]string{guid}))

	v := f.session(classifier.Options{}).Classify("Assets/Hero.prefab")
	require.Equal(t, types.ReasonEmbeddedScript, v.Reason)
	require.Equal(t, types.ReasonMissingFile, v.Origin().Reason)
}

func TestCompositeSkipsModelSource(t *testing.T) {
	f := newFixture(t, "nothing\n")
	good := f.asset("Assets/Scripts/Ok.cs", cleanScript)
	model := f.asset("Assets/Models/Tree.fbx", "Kaydara FBX Binary")
	f.write("Assets/Prefabs/Forest.prefab", prefab([]string{good}, model))

	v := f.session(classifier.Options{}).Classify("Assets/Prefabs/Forest.prefab")
	require.False(t, v.Suspicious, "%+v", v)
}

func TestCompositeFollowsPrefabSourceOnly(t *testing.T) {
	f := newFixture(t, "nothing\n")
	bad := f.asset("Assets/Scripts/Evil.cs", "using System.IO;")
	model := f.asset("Assets/Models/Rock.obj", "v 0 0 0")
	inner := f.asset("Assets/Prefabs/Inner.prefab", prefab([]string{bad}))
	f.write("Assets/Prefabs/Outer.prefab", prefab(nil, model, inner))

	v := f.session(classifier.Options{}).Classify("Assets/Prefabs/Outer.prefab")
	require.Equal(t, types.ReasonEmbeddedScript, v.Reason)
	require.Equal(t, "Assets/Prefabs/Inner.prefab", v.Evidence)
	require.Equal(t, "Assets/Scripts/Evil.cs", v.Origin().Path)
}

func TestCompositeUnreadableIndicatorSourceIsReadError(t *testing.T) {
	f := newFixture(t, "")
	good := f.asset("Assets/Scripts/Ok.cs", cleanScript)
	f.write("Assets/Hero.prefab", prefab([]string{good}))

	v := f.session(classifier.Options{}).Classify("Assets/Hero.prefab")
	require.True(t, v.Suspicious)
	require.Equal(t, types.ReasonReadError, v.Reason)
	require.Equal(t, "Assets/Scripts/Ok.cs", v.Evidence)
	require.Equal(t, types.ReasonReadError, v.Origin().Reason)
}

func TestCompositeUnparseableIsLoadError(t *testing.T) {
	f := newFixture(t, "nothing\n")
	f.write("Assets/Binary.asset", "\x00\x01\x02binary")

	v := f.session(classifier.Options{}).Classify("Assets/Binary.asset")
	require.True(t, v.Suspicious)
	require.Equal(t, types.ReasonLoadError, v.Reason)
}

func TestCompositeCycleTerminates(t *testing.T) {
	f := newFixture(t, "nothing\n")
	good := f.asset("Assets/Scripts/Move.cs", cleanScript)

	// A nests B, B nests A. GUIDs are assigned in call order: A=2, B=3.
	guidA := fmt.Sprintf("%032x", f.n+1)
	guidB := fmt.Sprintf("%032x", f.n+2)
	f.asset("Assets/A.prefab", prefab([]string{good}, guidB))
	f.asset("Assets/B.prefab", prefab([]string{good}, guidA))
	f.asset("Assets/Self.prefab", prefab(nil, fmt.Sprintf("%032x", f.n+1)))

	s := f.session(classifier.Options{})
	require.False(t, s.Classify("Assets/A.prefab").Suspicious)
	require.False(t, s.Classify("Assets/B.prefab").Suspicious)
	require.False(t, s.Classify("Assets/Self.prefab").Suspicious)
}

func TestCompositeCycleWithMaliciousScript(t *testing.T) {
	f := newFixture(t, "nothing\n")
	bad := f.asset("Assets/Scripts/Evil.cs", "System.Diagnostics.Process.Start(\"sh\");")

	guidA := fmt.Sprintf("%032x", f.n+1)
	guidB := fmt.Sprintf("%032x", f.n+2)
	f.asset("Assets/A.prefab", prefab(nil, guidB))
	f.asset("Assets/B.prefab", prefab([]string{bad}, guidA))

	v := f.session(classifier.Options{}).Classify("Assets/A.prefab")
	require.Equal(t, types.ReasonEmbeddedScript, v.Reason)
	require.Equal(t, "Assets/B.prefab", v.Evidence)
	require.Equal(t, "Assets/Scripts/Evil.cs", v.Origin().Path)
}

func TestDepthLimitIsLoadError(t *testing.T) {
	f := newFixture(t, "nothing\n")
	// Chain P0 -> P1 -> P2 -> P3 -> P4.
	const n = 5
	base := f.n
	for i := 0; i < n; i++ {
		var nested []string
		if i < n-1 {
			nested = append(nested, fmt.Sprintf("%032x", base+i+2))
		}
		f.asset(fmt.Sprintf("Assets/P%d.prefab", i), prefab(nil, nested...))
	}

	s := f.session(classifier.Options{MaxDepth: 2})
	v := s.Classify("Assets/P0.prefab")
	require.True(t, v.Suspicious)
	require.Equal(t, types.ReasonLoadError, v.Reason)
	require.Equal(t, "Assets/P1.prefab", v.Evidence)
	require.Equal(t, types.ReasonLoadError, v.Origin().Reason)
	require.Equal(t, composite.ErrMaxDepth.Error(), v.Origin().Evidence)

	deep := f.session(classifier.Options{})
	require.False(t, deep.Classify("Assets/P0.prefab").Suspicious)
}

type stubLoader struct {
	err   error
	panic bool
}

func (l stubLoader) Load(string) (*composite.Graph, error) {
	if l.panic {
		panic("corrupt graph")
	}
	return nil, l.err
}

func TestLoaderFailuresFailClosed(t *testing.T) {
	f := newFixture(t, "nothing\n")
	f.write("Assets/Hero.prefab", "--- !u!1 &1\nGameObject:\n  m_Name: Hero\n")

	v := f.session(classifier.Options{Loader: stubLoader{err: errors.New("truncated")}}).Classify("Assets/Hero.prefab")
	require.Equal(t, types.ReasonLoadError, v.Reason)
	require.Contains(t, v.Evidence, "truncated")

	v = f.session(classifier.Options{Loader: stubLoader{panic: true}}).Classify("Assets/Hero.prefab")
	require.Equal(t, types.ReasonLoadError, v.Reason)
	require.Equal(t, "corrupt graph", v.Evidence)
}
