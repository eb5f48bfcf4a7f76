// Package api defines the persisted document schema for sequence bloom
// trees. The document records the tree topology only; each vertex's filter
// lives in its own binary blob next to the document, referenced by
// filename.
package api

// Document is the root wrapper of a persisted tree.
type Document struct {
	// Size is the total vertex count, root included.
	Size int `json:"size"`
	// Root is the tree's root record.
	Root *NodeRecord `json:"root"`
}

// NodeRecord describes one vertex. Internal vertices carry Left (and,
// except for the degenerate one-dataset tree, Right); leaf records carry
// neither and have Children equal to 0. Metadata is the opaque payload a
// leaf returns to callers on match.
type NodeRecord struct {
	// Filename is the path of this vertex's serialized filter blob,
	// conventionally <tag>.<name>.sbt.
	Filename string `json:"filename"`
	// Name is the vertex identity: the dataset name for leaves, or the
	// auto-assigned internal.N name for internal vertices.
	Name string `json:"name"`
	// Children is the vertex's weight counter, restored verbatim on load.
	Children int `json:"children"`

	Metadata any `json:"metadata,omitempty"`

	Left  *NodeRecord `json:"left,omitempty"`
	Right *NodeRecord `json:"right,omitempty"`
}
