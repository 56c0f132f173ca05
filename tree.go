// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kestrel-engine/kestrel/math/lin"
)

// tree.go replaces the teacher's Pov/scene pair (pov.go, scene.go) with a
// single hierarchical, attribute-propagating Tree as specified in §4.1.
// Where the teacher kept a flat part/scene slice walked by the frame
// builder, the tree keeps an explicit parent/child Node graph and exposes
// the query/mutation contract the spec names directly (add, add_at_root,
// get_node, join, copy_all_nodes, rebuild_bounds, update).

// Tree is a hierarchical, attribute-propagating spatial index.
type Tree struct {
	root *Node
	seq  uint64 // used to mint unique names when the caller doesn't supply one.
}

// NewTree returns an empty tree with only a root node.
func NewTree() *Tree {
	t := &Tree{}
	t.root = newNode("", Value{Kind: KindEmpty}, NewAttrs())
	return t
}

// Root returns the tree's root node. The root is never released and
// carries no value of its own.
func (t *Tree) Root() *Node { return t.root }

func (t *Tree) nextName() string {
	t.seq++
	return "node" + strconv.FormatUint(t.seq, 10)
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// lookup walks the tree by "/"-joined names, O(depth).
func (t *Tree) lookup(path string) (*Node, bool) {
	segments := splitPath(path)
	n := t.root
	for _, seg := range segments {
		child, ok := n.children[seg]
		if !ok {
			return nil, false
		}
		n = child
	}
	return n, true
}

// GetNode returns the node at path, or false if no such node exists.
func (t *Tree) GetNode(path string) (*Node, bool) { return t.lookup(path) }

// AddAtRoot appends a child to the root and returns the assigned unique
// name. If name is empty, a unique name is minted.
func (t *Tree) AddAtRoot(name string, value Value, attrs Attrs) (string, error) {
	return t.add(t.root, name, value, attrs)
}

// Add inserts a node under parentPath and returns the assigned name.
// Returns ErrNotFound if the parent does not exist, ErrDuplicateName if a
// sibling already uses name.
func (t *Tree) Add(parentPath, name string, value Value, attrs Attrs) (string, error) {
	parent, ok := t.lookup(parentPath)
	if !ok {
		return "", fmt.Errorf("add %q under %q: %w", name, parentPath, ErrNotFound)
	}
	return t.add(parent, name, value, attrs)
}

func (t *Tree) add(parent *Node, name string, value Value, attrs Attrs) (string, error) {
	if name == "" {
		name = t.nextName()
	}
	if _, exists := parent.children[name]; exists {
		return "", fmt.Errorf("add %q: %w", name, ErrDuplicateName)
	}
	if attrs.Transform.Loc == nil || attrs.Transform.Rot == nil {
		identity := NewTransform()
		if attrs.Transform.Loc == nil {
			attrs.Transform.Loc = identity.Loc
		}
		if attrs.Transform.Rot == nil {
			attrs.Transform.Rot = identity.Rot
		}
		if attrs.Transform.Scale == 0 {
			attrs.Transform.Scale = 1
		}
	}
	child := newNode(name, value, attrs)
	parent.addChild(child)
	return name, nil
}

// Release removes the node at path and, transitively, all its
// descendants. Returns ErrNotFound if path does not resolve.
func (t *Tree) Release(path string) error {
	segments := splitPath(path)
	if len(segments) == 0 {
		return fmt.Errorf("release %q: %w", path, ErrNotFound)
	}
	n, ok := t.lookup(path)
	if !ok {
		return fmt.Errorf("release %q: %w", path, ErrNotFound)
	}
	n.parent.removeChild(n.name)
	return nil
}

// Join grafts other's root's children under parentPath in this tree.
// Names colliding with an existing sibling are rewritten by appending a
// numeric suffix until unique; other is left with an empty root.
func (t *Tree) Join(other *Tree, parentPath string) error {
	parent, ok := t.lookup(parentPath)
	if !ok {
		return fmt.Errorf("join under %q: %w", parentPath, ErrNotFound)
	}
	for _, child := range other.root.Children() {
		oldName := child.name
		name := oldName
		for {
			if _, exists := parent.children[name]; !exists {
				break
			}
			name = name + "_" + strconv.FormatUint(t.seq, 10)
			t.seq++
		}
		other.root.removeChild(oldName)
		child.name = name
		parent.addChild(child)
	}
	return nil
}

// CopyAllNodes returns a flat list of snapshots for every node matching
// cmp (nil matches everything). Snapshots exclude children and clear
// pending jobs, per §4.1.
func (t *Tree) CopyAllNodes(cmp *Comparer) []NodeSnapshot {
	var out []NodeSnapshot
	var walk func(n *Node)
	walk = func(n *Node) {
		if n != t.root && cmp.Matches(n) {
			out = append(out, n.snapshot())
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(t.root)
	return out
}

// RebuildBounds recomputes every node's Bound bottom-up: the value's local
// AABB transformed to world space, extended by the union of every child's
// Bound; MaxDrawDistance is set to the resulting box's largest extent.
func (t *Tree) RebuildBounds() { t.rebuildBounds(t.root) }

func (t *Tree) rebuildBounds(n *Node) lin.AABB {
	b := n.Attrs.ValueBound.Transform(&lin.T{Loc: n.Attrs.Transform.Loc, Rot: n.Attrs.Transform.Rot}, n.Attrs.Transform.Scale)
	for _, c := range n.Children() {
		b = b.Union(t.rebuildBounds(c))
	}
	n.Attrs.Bound = b
	n.Attrs.MaxDrawDistance = b.MaxExtent()
	return b
}

// Update drains each node's job queue pre-order (parent before children),
// applying every job to the node's attributes and pushing the propagated
// form of that job onto each child's queue. See job.go for the
// per-job-kind propagation rule.
func (t *Tree) Update() { t.update(t.root) }

func (t *Tree) update(n *Node) {
	jobs := n.jobs
	n.jobs = nil
	children := n.Children()
	for _, j := range jobs {
		child := propagate(&n.Attrs, j)
		for _, c := range children {
			c.jobs = append(c.jobs, child)
		}
	}
	for _, c := range children {
		t.update(c)
	}
}

// CameraAt drives a Camera from the transform of the node at path, which
// must hold a KindCamera value. This is the camera-controller node
// supplement (see SPEC_FULL.md §3): the scene tree stays free of a back
// reference to the Camera it drives, and callers re-fetch the computed
// Camera each frame after Tree.Update.
func (t *Tree) CameraAt(path string, fov, aspect, near, far float64) (*Camera, error) {
	n, ok := t.lookup(path)
	if !ok {
		return nil, fmt.Errorf("camera at %q: %w", path, ErrNotFound)
	}
	if n.Value.Kind != KindCamera {
		return nil, fmt.Errorf("camera at %q: node is not a camera: %w", path, ErrNotFound)
	}
	cam := NewCamera()
	cam.SetPerspective(fov, aspect, near, far)
	cam.Update(n.Attrs.Transform)
	return cam, nil
}
