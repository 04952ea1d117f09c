package composite

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/garagon/importguard/internal/cache"
	"github.com/garagon/importguard/internal/project"
)

// documentHeader matches the header of one serialized object, e.g.
// "--- !u!114 &11400000" or "--- !u!1001 &100100000 stripped".
var documentHeader = regexp.MustCompile(`^--- !u!(\d+) &(-?\d+)( stripped)?\s*$`)

type fileRef struct {
	FileID int64  `yaml:"fileID"`
	GUID   string `yaml:"guid"`
	Type   int    `yaml:"type"`
}

type objectBody struct {
	Script       *fileRef `yaml:"m_Script"`
	SourcePrefab *fileRef `yaml:"m_SourcePrefab"`
}

// UnityLoader loads text-serialized Unity object graphs and resolves the
// GUID references they carry through a GUIDIndex.
type UnityLoader struct {
	root  project.Root
	cache *cache.Cache
	index *GUIDIndex
}

// NewUnityLoader creates a loader for the project at root. Content and
// ".meta" sidecars are read through c.
func NewUnityLoader(root project.Root, c *cache.Cache) *UnityLoader {
	return &UnityLoader{
		root:  root,
		cache: c,
		index: NewGUIDIndex(root, c),
	}
}

// Load parses the artifact at path into a Graph.
func (l *UnityLoader) Load(path string) (*Graph, error) {
	content, err := l.cache.Get(l.root.Resolve(path))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	objects, err := ParseDocuments(content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i := range objects {
		for j := range objects[i].Refs {
			ref := &objects[i].Refs[j]
			if p, ok := l.index.Lookup(ref.GUID); ok {
				ref.Path = p
			}
		}
	}
	return &Graph{Path: path, Objects: objects}, nil
}

// ParseDocuments splits Unity serialized YAML into objects and extracts
// their script and nested-prefab references. References without a GUID
// or with a zero fileID are dropped.
func ParseDocuments(content string) ([]Object, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var (
		objects []Object
		current *Object
		body    []string
	)

	flush := func() error {
		if current == nil {
			return nil
		}
		if err := decodeBody(current, strings.Join(body, "\n")); err != nil {
			return fmt.Errorf("object &%d: %w", current.FileID, err)
		}
		objects = append(objects, *current)
		return nil
	}

	for _, line := range lines {
		if m := documentHeader.FindStringSubmatch(line); m != nil {
			if err := flush(); err != nil {
				return nil, err
			}
			classID, _ := strconv.Atoi(m[1])
			fileID, err := strconv.ParseInt(m[2], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid object header %q: %w", line, err)
			}
			current = &Object{ClassID: classID, FileID: fileID, Stripped: m[3] != ""}
			body = body[:0]
			continue
		}
		if current == nil {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "%") || strings.HasPrefix(trimmed, "#") {
				continue
			}
			return nil, ErrNotComposite
		}
		body = append(body, line)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, ErrNotComposite
	}
	return objects, nil
}

func decodeBody(obj *Object, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var doc map[string]objectBody
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return err
	}
	for typeName, b := range doc {
		obj.Type = typeName
		if ref, ok := toReference(RefScript, b.Script); ok {
			obj.Refs = append(obj.Refs, ref)
		}
		if ref, ok := toReference(RefPrefab, b.SourcePrefab); ok {
			obj.Refs = append(obj.Refs, ref)
		}
	}
	return nil
}

func toReference(kind RefKind, r *fileRef) (Reference, bool) {
	if r == nil || r.FileID == 0 {
		return Reference{}, false
	}
	guid := strings.ToLower(strings.TrimSpace(r.GUID))
	if guid == "" || strings.Trim(guid, "0") == "" {
		return Reference{}, false
	}
	return Reference{Kind: kind, GUID: guid, FileID: r.FileID}, true
}
