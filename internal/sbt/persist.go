package sbt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/sbtree/api"
	"github.com/agentic-research/sbtree/internal/filter"
)

var (
	// ErrDocumentParse is returned when a tree document is missing,
	// malformed, or structurally inconsistent. No partial tree is ever
	// returned alongside it.
	ErrDocumentParse = errors.New("sbt: malformed tree document")

	// ErrFilterLoad is returned when a vertex's filter blob is missing,
	// truncated, or fails to decode.
	ErrFilterLoad = errors.New("sbt: cannot load filter blob")
)

// BlobName returns the conventional filter blob path for a vertex of the
// given name under a run tag.
func BlobName(tag, name string) string {
	return tag + "." + name + ".sbt"
}

// DocumentName returns the conventional tree document path for a run tag.
func DocumentName(tag string) string {
	return tag + ".sbt.json"
}

// Save writes the tree under tag: one filter blob per vertex plus the
// topology document, and returns the document path. The tree must not be
// mutated while a save is in progress.
func Save(fsys billy.Filesystem, t *Tree, tag string) (string, error) {
	rec, err := saveItem(fsys, t.root, tag)
	if err != nil {
		return "", err
	}
	doc := api.Document{Size: t.Size(), Root: rec}
	data, err := oj.Marshal(&doc, 2)
	if err != nil {
		return "", fmt.Errorf("marshal tree document: %w", err)
	}
	path := DocumentName(tag)
	if err := util.WriteFile(fsys, path, data, 0o644); err != nil {
		return "", fmt.Errorf("write tree document %s: %w", path, err)
	}
	return path, nil
}

func saveItem(fsys billy.Filesystem, it Item, tag string) (*api.NodeRecord, error) {
	blob, err := it.Filter().MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("serialize filter for %q: %w", it.Name(), err)
	}
	fname := BlobName(tag, it.Name())
	if err := util.WriteFile(fsys, fname, blob, 0o644); err != nil {
		return nil, fmt.Errorf("write filter blob %s: %w", fname, err)
	}

	rec := &api.NodeRecord{Filename: fname, Name: it.Name(), Children: it.Weight()}
	switch v := it.(type) {
	case *Leaf:
		rec.Metadata = v.metadata
	case *Node:
		for i, c := range v.children {
			child, err := saveItem(fsys, c, tag)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				rec.Left = child
			} else {
				rec.Right = child
			}
		}
	}
	return rec, nil
}

// Load reconstructs a tree from a document written by Save. Only the root
// blob's geometry is needed to rebuild a compatible factory; every vertex's
// filter is then restored from its own blob, and weights and names are
// restored from the document rather than recomputed. The loaded tree is
// isomorphic to the saved one: Find returns the same leaves for the same
// predicates.
func Load(fsys billy.Filesystem, path string) (*Tree, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrDocumentParse, path, err)
	}
	var doc api.Document
	if err := oj.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrDocumentParse, path, err)
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("%w: %s has no root record", ErrDocumentParse, path)
	}

	rootFilt, err := readBlob(fsys, doc.Root.Filename)
	if err != nil {
		return nil, err
	}
	t := New(filter.FactoryOf(rootFilt), nil)
	root, err := t.loadItem(fsys, doc.Root, rootFilt)
	if err != nil {
		return nil, err
	}
	n, ok := root.(*Node)
	if !ok {
		return nil, fmt.Errorf("%w: root record %q is a leaf", ErrDocumentParse, doc.Root.Name)
	}
	t.root = n
	return t, nil
}

// loadItem restores one record. filt is the pre-read root filter on the
// first call and nil below it.
func (t *Tree) loadItem(fsys billy.Filesystem, rec *api.NodeRecord, filt *filter.Filter) (Item, error) {
	if rec.Filename == "" || rec.Name == "" {
		return nil, fmt.Errorf("%w: record %q missing filename or name", ErrDocumentParse, rec.Name)
	}
	if filt == nil {
		var err error
		if filt, err = readBlob(fsys, rec.Filename); err != nil {
			return nil, err
		}
	}
	if !t.factory.Compatible(filt) {
		return nil, fmt.Errorf("blob %s for %q: %w", rec.Filename, rec.Name, filter.ErrStructuralMismatch)
	}

	if rec.Left == nil && rec.Right == nil {
		if rec.Children != 0 {
			return nil, fmt.Errorf("%w: leaf record %q has children %d", ErrDocumentParse, rec.Name, rec.Children)
		}
		return &Leaf{name: rec.Name, metadata: rec.Metadata, filt: filt}, nil
	}
	if rec.Left == nil {
		return nil, fmt.Errorf("%w: record %q has a right child but no left", ErrDocumentParse, rec.Name)
	}

	n := &Node{name: rec.Name, filt: filt, weight: rec.Children}
	t.bumpNameCounter(rec.Name)
	left, err := t.loadItem(fsys, rec.Left, nil)
	if err != nil {
		return nil, err
	}
	n.children = append(n.children, left)
	if rec.Right != nil {
		right, err := t.loadItem(fsys, rec.Right, nil)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, right)
	}
	return n, nil
}

// bumpNameCounter keeps the internal-node name counter ahead of every
// restored internal.N name, so inserting into a loaded tree cannot reuse a
// persisted name.
func (t *Tree) bumpNameCounter(name string) {
	rest, ok := strings.CutPrefix(name, "internal.")
	if !ok {
		return
	}
	if i, err := strconv.Atoi(rest); err == nil && i >= t.nnodes {
		t.nnodes = i + 1
	}
}

func readBlob(fsys billy.Filesystem, path string) (*filter.Filter, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrFilterLoad, path, err)
	}
	f, err := filter.UnmarshalBinary(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrFilterLoad, path, err)
	}
	return f, nil
}
