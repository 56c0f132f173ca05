// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import "github.com/kestrel-engine/kestrel/math/lin"

// comparer.go replaces the teacher's radius/facing Cull interface (see
// culler.go in the original) with the data-driven predicate structure the
// spec's scene tree queries require: a Comparer is a set of optional
// predicates, and a node matches iff every predicate that is set passes.

// FrustumTest selects how a Comparer's frustum predicate matches a node.
type FrustumTest uint8

const (
	// FrustumIntersects matches nodes whose world bound at least partially
	// overlaps the frustum.
	FrustumIntersects FrustumTest = iota
	// FrustumContains matches only nodes entirely inside the frustum.
	FrustumContains
)

// ScreenCoverageFilter distance-culls by rejecting nodes whose AABB
// projects to less screen-space extent than Bias, from the camera
// described by ViewProj. A node with an empty bound is always rejected.
type ScreenCoverageFilter struct {
	Bias     float64
	ViewProj *lin.M4
}

// screenCoverage estimates the 2D screen-space size of a world AABB by
// projecting its 8 corners and measuring the resulting NDC bounding
// rectangle's diagonal. Cheap and conservative: enough to reject distant
// or tiny objects without a full silhouette projection.
func screenCoverage(b lin.AABB, viewProj *lin.M4) float64 {
	if b.Empty() {
		return 0
	}
	minX, minY := lin.Large, lin.Large
	maxX, maxY := -lin.Large, -lin.Large
	corners := [8]lin.V3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z}, {X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z}, {X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z}, {X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z}, {X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
	for _, c := range corners {
		clip := (&lin.V4{}).SetS(c.X, c.Y, c.Z, 1)
		clip.MultvM(clip, viewProj)
		if clip.W <= lin.Epsilon {
			continue // behind the eye; ignore for the coverage estimate.
		}
		ndcX, ndcY := clip.X/clip.W, clip.Y/clip.W
		if ndcX < minX {
			minX = ndcX
		}
		if ndcX > maxX {
			maxX = ndcX
		}
		if ndcY < minY {
			minY = ndcY
		}
		if ndcY > maxY {
			maxY = ndcY
		}
	}
	if minX > maxX || minY > maxY {
		return 0
	}
	dx, dy := maxX-minX, maxY-minY
	return (&lin.V3{X: dx, Y: dy}).Len()
}

// Comparer is a structure of optional predicates. A node matches iff
// every predicate that is set (non-nil, for function/pointer fields)
// passes.
type Comparer struct {
	Transform  func(Transform) bool
	AABB       func(lin.AABB) bool
	ValueAABB  func(lin.AABB) bool
	Frustum    *lin.Frustum
	FrustumTest FrustumTest

	Kinds KindSet // zero value means "no kind filter"; use HasKinds.
	HasKinds bool

	CastShadow    *bool
	IsTransparent *bool
	HideInGame    *bool
	IsEmissive    *bool

	ScreenCoverage *ScreenCoverageFilter
}

// Matches reports whether node n satisfies every predicate set on c.
// A nil Comparer matches every node.
func (c *Comparer) Matches(n *Node) bool {
	if c == nil {
		return true
	}
	if c.Transform != nil && !c.Transform(n.Attrs.Transform) {
		return false
	}
	if c.AABB != nil && !c.AABB(n.Attrs.Bound) {
		return false
	}
	if c.ValueAABB != nil && !c.ValueAABB(n.Attrs.ValueBound) {
		return false
	}
	if c.Frustum != nil {
		switch c.FrustumTest {
		case FrustumContains:
			if !c.Frustum.Contains(n.Attrs.Bound) {
				return false
			}
		default:
			if !c.Frustum.Intersects(n.Attrs.Bound) {
				return false
			}
		}
	}
	if c.HasKinds && !c.Kinds.Has(n.Value.Kind) {
		return false
	}
	if c.CastShadow != nil && n.Attrs.CastShadow != *c.CastShadow {
		return false
	}
	if c.IsTransparent != nil && n.Attrs.IsTransparent != *c.IsTransparent {
		return false
	}
	if c.HideInGame != nil && n.Attrs.HideInGame != *c.HideInGame {
		return false
	}
	if c.IsEmissive != nil && n.Attrs.IsEmissive != *c.IsEmissive {
		return false
	}
	if c.ScreenCoverage != nil {
		if n.Attrs.Bound.Empty() || screenCoverage(n.Attrs.Bound, c.ScreenCoverage.ViewProj) < c.ScreenCoverage.Bias {
			return false
		}
	}
	return true
}

// boolPtr is a small helper for building Comparer predicates inline,
// e.g. Comparer{IsTransparent: boolPtr(false)}.
func boolPtr(b bool) *bool { return &b }
