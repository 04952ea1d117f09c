package composite_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/garagon/importguard/internal/cache"
	"github.com/garagon/importguard/internal/engine/composite"
	"github.com/garagon/importguard/internal/project"
	"github.com/garagon/importguard/internal/types"
)

const scriptGUID = "4f1c2a7be0b34e6c9d2a0e5f7c8b9a10"
const nestedGUID = "9a8b7c6d5e4f30211203948576abcdef"

const prefabYAML = `%YAML 1.1
%TAG !u! tag:unity3d.com,2011:
--- !u!1 &100000
GameObject:
  m_ObjectHideFlags: 0
  m_Name: Player
  m_Component:
  - component: {fileID: 400000}
  - component: {fileID: 11400000}
--- !u!4 &400000
Transform:
  m_LocalPosition: {x: 0, y: 0, z: 0}
--- !u!114 &11400000
MonoBehaviour:
  m_ObjectHideFlags: 0
  m_GameObject: {fileID: 100000}
  m_Enabled: 1
  m_Script: {fileID: 11500000, guid: ` + scriptGUID + `, type: 3}
  m_Name:
  m_EditorClassIdentifier:
--- !u!114 &11400002
MonoBehaviour:
  m_Script: {fileID: 11500000, guid: 00000000000000000000000000000000, type: 0}
--- !u!114 &11400004
MonoBehaviour:
  m_Script: {fileID: 0}
--- !u!1001 &2000000
PrefabInstance:
  m_SourcePrefab: {fileID: 100100000, guid: ` + nestedGUID + `, type: 3}
--- !u!1 &3000000 stripped
GameObject:
  m_CorrespondingSourceObject: {fileID: 100000, guid: ` + nestedGUID + `, type: 3}
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func meta(guid string) string {
	return "fileFormatVersion: 2\nguid: " + guid + "\nMonoImporter:\n  serializedVersion: 2\n"
}

func TestParseDocuments(t *testing.T) {
	objects, err := composite.ParseDocuments(prefabYAML)
	require.NoError(t, err)
	require.Len(t, objects, 7)

	require.Equal(t, 114, objects[2].ClassID)
	require.Equal(t, int64(11400000), objects[2].FileID)
	require.Equal(t, "MonoBehaviour", objects[2].Type)
	require.Len(t, objects[2].Refs, 1)
	require.Equal(t, composite.RefScript, objects[2].Refs[0].Kind)
	require.Equal(t, scriptGUID, objects[2].Refs[0].GUID)

	// zero GUID and zero fileID references are dropped
	require.Empty(t, objects[3].Refs)
	require.Empty(t, objects[4].Refs)

	require.Equal(t, "PrefabInstance", objects[5].Type)
	require.Equal(t, composite.RefPrefab, objects[5].Refs[0].Kind)

	require.True(t, objects[6].Stripped)
	require.Empty(t, objects[6].Refs)
}

func TestParseDocumentsRejectsNonUnityContent(t *testing.T) {
	_, err := composite.ParseDocuments("\x00\x01binary asset\x02")
	require.ErrorIs(t, err, composite.ErrNotComposite)

	_, err = composite.ParseDocuments("%YAML 1.1\n")
	require.ErrorIs(t, err, composite.ErrNotComposite)
}

func TestParseDocumentsMalformedBody(t *testing.T) {
	_, err := composite.ParseDocuments("--- !u!114 &1\nMonoBehaviour:\n  m_Script: {fileID: 1, guid: [unclosed\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "object &1")
}

func TestUnityLoaderResolvesGUIDs(t *testing.T) {
	root := writeProject(t, map[string]string{
		"Assets/Player.prefab":             prefabYAML,
		"Assets/Scripts/Player.cs":         "public class Player {}",
		"Assets/Scripts/Player.cs.meta":    meta(scriptGUID),
		"Assets/Nested/Weapon.prefab":      "--- !u!1 &1\nGameObject:\n  m_Name: Weapon\n",
		"Assets/Nested/Weapon.prefab.meta": meta(nestedGUID),
		"Assets/broken.cs.meta":            "guid: [not closed\n",
	})
	c := cache.New(nil)
	loader := composite.NewUnityLoader(project.Root(root), c)

	graph, err := loader.Load("Assets/Player.prefab")
	require.NoError(t, err)
	refs := graph.References()
	require.Len(t, refs, 2)
	require.Equal(t, "Assets/Scripts/Player.cs", refs[0].Path)
	require.Equal(t, "Assets/Nested/Weapon.prefab", refs[1].Path)
}

func TestUnityLoaderMissingFile(t *testing.T) {
	loader := composite.NewUnityLoader(project.Root(t.TempDir()), cache.New(nil))
	_, err := loader.Load("Assets/none.prefab")
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading Assets/none.prefab")
}

func TestGUIDIndex(t *testing.T) {
	root := writeProject(t, map[string]string{
		"Assets/A.cs.meta":         meta("AAAA0000000000000000000000000001"),
		"Packages/com.x/B.cs.meta": meta("bbbb0000000000000000000000000002"),
		"Library/Cache/C.cs.meta":  meta("cccc0000000000000000000000000003"),
		"Assets/NoGuid.png.meta":   "fileFormatVersion: 2\n",
	})
	idx := composite.NewGUIDIndex(project.Root(root), cache.New(nil))

	p, ok := idx.Lookup("aaaa0000000000000000000000000001")
	require.True(t, ok)
	require.Equal(t, "Assets/A.cs", p)

	p, ok = idx.Lookup("BBBB0000000000000000000000000002")
	require.True(t, ok)
	require.Equal(t, "Packages/com.x/B.cs", p)

	_, ok = idx.Lookup("cccc0000000000000000000000000003")
	require.False(t, ok, "only Assets and Packages are indexed")
	require.Equal(t, 2, idx.Len())
}

type fakeLoader struct {
	graphs map[string]*composite.Graph
}

func (f *fakeLoader) Load(path string) (*composite.Graph, error) {
	g, ok := f.graphs[path]
	if !ok {
		return nil, errors.New("cannot load")
	}
	return g, nil
}

func graphOf(path string, refPaths ...string) *composite.Graph {
	obj := composite.Object{Type: "MonoBehaviour"}
	for _, p := range refPaths {
		obj.Refs = append(obj.Refs, composite.Reference{Kind: composite.RefScript, GUID: "g", FileID: 1, Path: p})
	}
	return &composite.Graph{Path: path, Objects: []composite.Object{obj}}
}

func TestInspectorFirstSuspiciousWins(t *testing.T) {
	loader := &fakeLoader{graphs: map[string]*composite.Graph{
		"a.prefab": graphOf("a.prefab", "", "ok.cs", "ok.cs", "bad.cs", "worse.cs"),
	}}
	insp := composite.NewInspector(loader, hclog.NewNullLogger())

	var calls []string
	v, hit, err := insp.HasEmbeddedMaliciousScript("a.prefab", func(p string) types.Verdict {
		calls = append(calls, p)
		if p == "ok.cs" {
			return types.Clean(p)
		}
		return types.Suspicious(p, types.ReasonDangerousPattern, "System.IO")
	})
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "bad.cs", v.Path)
	require.Equal(t, []string{"ok.cs", "bad.cs"}, calls)
	require.Equal(t, "composite", insp.Name())
}

func TestInspectorAllClean(t *testing.T) {
	loader := &fakeLoader{graphs: map[string]*composite.Graph{
		"a.prefab": graphOf("a.prefab", "x.cs", "y.cs"),
	}}
	insp := composite.NewInspector(loader, nil)

	_, hit, err := insp.HasEmbeddedMaliciousScript("a.prefab", types.Clean)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestInspectorLoadFailure(t *testing.T) {
	insp := composite.NewInspector(&fakeLoader{}, nil)
	_, hit, err := insp.HasEmbeddedMaliciousScript("missing.prefab", types.Clean)
	require.Error(t, err)
	require.False(t, hit)
}
