// Package composite inspects container artifacts (serialized scenes,
// prefabs and assets) for embedded script references and classifies each
// referenced artifact through a callback.
package composite

import "errors"

var (
	// ErrNotComposite is returned when a file is not a text-serialized
	// object graph, e.g. a binary-serialized asset.
	ErrNotComposite = errors.New("not a text-serialized object graph")

	// ErrMaxDepth is returned when nested references go deeper than the
	// configured limit.
	ErrMaxDepth = errors.New("maximum reference depth exceeded")
)

// RefKind tells what an embedded reference points at.
type RefKind string

const (
	RefScript RefKind = "script" // m_Script of a MonoBehaviour
	RefPrefab RefKind = "prefab" // m_SourcePrefab of a nested prefab instance
)

// Reference is one embedded reference. Path is empty when the GUID could
// not be resolved to an artifact in the project.
type Reference struct {
	Kind   RefKind
	GUID   string
	FileID int64
	Path   string
}

// Object is one serialized document of the graph.
type Object struct {
	ClassID  int
	FileID   int64
	Type     string
	Stripped bool
	Refs     []Reference
}

// Graph is the loaded object graph of a composite artifact.
type Graph struct {
	Path    string
	Objects []Object
}

// References returns every reference of the graph in document order.
func (g *Graph) References() []Reference {
	var refs []Reference
	for _, o := range g.Objects {
		refs = append(refs, o.Refs...)
	}
	return refs
}

// GraphLoader loads the object graph of a composite artifact.
type GraphLoader interface {
	Load(path string) (*Graph, error)
}
