package composite

import (
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/garagon/importguard/internal/cache"
	"github.com/garagon/importguard/internal/project"
)

// indexedDirs are the top-level project directories whose artifacts can be
// referenced by GUID.
var indexedDirs = []string{"Assets", "Packages"}

type metaFile struct {
	GUID string `yaml:"guid"`
}

// GUIDIndex maps asset GUIDs to artifact paths by reading the ".meta"
// sidecars under the project root. It is built on first lookup and lives
// as long as the batch that owns it.
type GUIDIndex struct {
	root   project.Root
	cache  *cache.Cache
	byGUID map[string]string
	built  bool
}

// NewGUIDIndex creates an index over root, reading sidecars through c.
func NewGUIDIndex(root project.Root, c *cache.Cache) *GUIDIndex {
	return &GUIDIndex{root: root, cache: c}
}

// Lookup returns the artifact path registered for guid.
func (x *GUIDIndex) Lookup(guid string) (string, bool) {
	if !x.built {
		x.build()
	}
	p, ok := x.byGUID[strings.ToLower(guid)]
	return p, ok
}

// Len returns the number of indexed GUIDs.
func (x *GUIDIndex) Len() int {
	if !x.built {
		x.build()
	}
	return len(x.byGUID)
}

func (x *GUIDIndex) build() {
	x.built = true
	x.byGUID = make(map[string]string)
	for _, dir := range indexedDirs {
		base := x.root.Resolve(dir)
		_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip inaccessible entries
			}
			if d.IsDir() || !strings.HasSuffix(path, ".meta") {
				return nil
			}
			guid := x.readGUID(path)
			if guid == "" {
				return nil
			}
			x.byGUID[guid] = x.root.Rel(strings.TrimSuffix(path, ".meta"))
			return nil
		})
	}
}

func (x *GUIDIndex) readGUID(path string) string {
	content, err := x.cache.Get(path)
	if err != nil {
		return ""
	}
	var m metaFile
	if err := yaml.Unmarshal([]byte(content), &m); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(m.GUID))
}
