// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import "github.com/kestrel-engine/kestrel/math/lin"

// node.go is the scene tree's Node type: a named entry holding a typed
// value, propagating attributes, a queue of pending jobs, and an ordered
// mapping of child-name to child-node. See Design Notes: heterogeneous
// node values are a tagged variant matched on, not dispatched through an
// interface, so a tree walk has no indirect calls on the hot path.

// Kind tags the variant held by a Node's Value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindMesh
	KindCamera
	KindPointLight
	KindSpotLight
	KindDirectionalLight
)

// KindSet is a bitset over Kind, used by Comparer to match one of several
// kinds in a single query.
type KindSet uint16

// NewKindSet builds a KindSet matching any of the given kinds.
func NewKindSet(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << uint(k)
	}
	return s
}

// Has reports whether k is a member of the set. An empty set matches
// nothing; Comparer applies its Kinds set only when HasKinds is true.
func (s KindSet) Has(k Kind) bool { return s&(1<<uint(k)) != 0 }

// MeshHandle identifies a mesh and its material as owned by the external
// asset manager (spec §6); the core never dereferences it, only carries
// it through to the forward renderer's draw submission.
type MeshHandle struct {
	Mesh     uint32
	Material uint32
}

// Value is the tagged variant held by a Node. Exactly the fields matching
// Kind are meaningful; others are zero.
type Value struct {
	Kind        Kind
	Mesh        MeshHandle
	Point       PointLight
	Spot        SpotLight
	Directional DirectionalLight
	// Camera nodes carry no payload of their own: CameraAt resolves a
	// Camera by driving it from the node's Attrs.Transform each update.
}

// Transform is a node's world-space placement: translation, quaternion
// rotation, and a uniform scale factor. Node attributes are maintained in
// world space (not parent-relative) so that rendering never needs to walk
// ancestors to resolve a final transform; Tree.Update instead propagates
// jobs explicitly down the hierarchy (see job.go).
type Transform struct {
	Loc   *lin.V3
	Rot   *lin.Q
	Scale float64
}

// NewTransform returns an identity transform at the origin.
func NewTransform() Transform {
	return Transform{Loc: &lin.V3{}, Rot: lin.NewQI(), Scale: 1}
}

// Attrs holds the propagating attributes described in the data model.
type Attrs struct {
	Transform       Transform
	Bound           lin.AABB // union of ValueBound (world) and children's Bound
	ValueBound      lin.AABB // AABB of the value alone, in the value's local space
	MaxDrawDistance float64
	CastShadow      bool
	IsTransparent   bool
	HideInGame      bool
	IsEmissive      bool
}

// NewAttrs returns attrs with an identity transform and empty bounds.
func NewAttrs() Attrs {
	return Attrs{Transform: NewTransform(), Bound: lin.NewAABB(), ValueBound: lin.NewAABB()}
}

// Node is a named entry in the scene tree.
type Node struct {
	name     string
	parent   *Node
	children map[string]*Node
	order    []string // insertion order, for a deterministic child iteration

	Value Value
	Attrs Attrs

	jobs []Job
}

func newNode(name string, value Value, attrs Attrs) *Node {
	return &Node{
		name:     name,
		children: map[string]*Node{},
		order:    []string{},
		Value:    value,
		Attrs:    attrs,
	}
}

// Name returns the node's name, unique among its siblings.
func (n *Node) Name() string { return n.name }

// Path returns the full, "/"-joined path from the tree root to this node.
func (n *Node) Path() string {
	if n.parent == nil {
		return n.name
	}
	segments := []string{n.name}
	for p := n.parent; p != nil && p.parent != nil; p = p.parent {
		segments = append([]string{p.name}, segments...)
	}
	path := segments[0]
	for _, s := range segments[1:] {
		path += "/" + s
	}
	return path
}

// Queue appends a job to the node's pending queue; it is applied and
// propagated on the next Tree.Update.
func (n *Node) Queue(j Job) { n.jobs = append(n.jobs, j) }

// Children returns the node's children in insertion order. The returned
// slice is a copy; mutating it does not affect the tree.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.children[name])
	}
	return out
}

func (n *Node) addChild(c *Node) {
	n.children[c.name] = c
	n.order = append(n.order, c.name)
	c.parent = n
}

func (n *Node) removeChild(name string) {
	delete(n.children, name)
	for i, nm := range n.order {
		if nm == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
}

// snapshot returns a copy of the node's value and attributes, excluding
// children and pending jobs, per copy_all_nodes' contract.
func (n *Node) snapshot() NodeSnapshot {
	loc := *n.Attrs.Transform.Loc
	rot := *n.Attrs.Transform.Rot
	return NodeSnapshot{
		Path:  n.Path(),
		Name:  n.name,
		Value: n.Value,
		Attrs: Attrs{
			Transform:       Transform{Loc: &loc, Rot: &rot, Scale: n.Attrs.Transform.Scale},
			Bound:           n.Attrs.Bound,
			ValueBound:      n.Attrs.ValueBound,
			MaxDrawDistance: n.Attrs.MaxDrawDistance,
			CastShadow:      n.Attrs.CastShadow,
			IsTransparent:   n.Attrs.IsTransparent,
			HideInGame:      n.Attrs.HideInGame,
			IsEmissive:      n.Attrs.IsEmissive,
		},
	}
}

// NodeSnapshot is a value returned by Tree.CopyAllNodes: a flat, detached
// copy of one node's value and attributes.
type NodeSnapshot struct {
	Path  string
	Name  string
	Value Value
	Attrs Attrs
}
