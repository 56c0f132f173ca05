// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

import "math"

// bounds.go adds an axis-aligned-bounding-box type on top of the vector
// library. AABB's are cheap to union and cheap to test, which is what
// the scene tree needs for bound propagation and frustum culling.

// AABB is an axis aligned bounding box expressed as the min and max
// corner in whatever space it was computed (local, world, etc).
type AABB struct {
	Min V3 // smallest x, y, z
	Max V3 // largest x, y, z
}

// NewAABB returns an empty (inverted) box: Union-ing an empty box with
// any point or box yields that point or box unchanged.
func NewAABB() AABB {
	return AABB{
		Min: V3{X: Large, Y: Large, Z: Large},
		Max: V3{X: -Large, Y: -Large, Z: -Large},
	}
}

// AABBFromCenter builds a box from a center point and a half-extent
// radius on each axis.
func AABBFromCenter(cx, cy, cz, rx, ry, rz float64) AABB {
	return AABB{
		Min: V3{X: cx - rx, Y: cy - ry, Z: cz - rz},
		Max: V3{X: cx + rx, Y: cy + ry, Z: cz + rz},
	}
}

// Empty reports whether the box has never been extended by a point.
func (b AABB) Empty() bool { return b.Min.X > b.Max.X }

// Center returns the midpoint of the box.
func (b AABB) Center() V3 {
	return V3{X: (b.Min.X + b.Max.X) * 0.5, Y: (b.Min.Y + b.Max.Y) * 0.5, Z: (b.Min.Z + b.Max.Z) * 0.5}
}

// Extent returns the half-size of the box on each axis.
func (b AABB) Extent() V3 {
	return V3{X: (b.Max.X - b.Min.X) * 0.5, Y: (b.Max.Y - b.Min.Y) * 0.5, Z: (b.Max.Z - b.Min.Z) * 0.5}
}

// MaxExtent returns the largest of the box's three axis extents,
// used as a node's max draw distance.
func (b AABB) MaxExtent() float64 {
	e := b.Extent()
	return Max3(e.X, e.Y, e.Z)
}

// Radius returns the bounding sphere radius of the box.
func (b AABB) Radius() float64 {
	e := b.Extent()
	return math.Sqrt(e.X*e.X + e.Y*e.Y + e.Z*e.Z)
}

// ExtendPoint grows the box, if needed, to include the given point.
func (b AABB) ExtendPoint(x, y, z float64) AABB {
	if x < b.Min.X {
		b.Min.X = x
	}
	if y < b.Min.Y {
		b.Min.Y = y
	}
	if z < b.Min.Z {
		b.Min.Z = z
	}
	if x > b.Max.X {
		b.Max.X = x
	}
	if y > b.Max.Y {
		b.Max.Y = y
	}
	if z > b.Max.Z {
		b.Max.Z = z
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b AABB) Union(o AABB) AABB {
	if o.Empty() {
		return b
	}
	if b.Empty() {
		return o
	}
	b = b.ExtendPoint(o.Min.X, o.Min.Y, o.Min.Z)
	b = b.ExtendPoint(o.Max.X, o.Max.Y, o.Max.Z)
	return b
}

// Transform applies transform t (translation, rotation, uniform scale) to
// the box's 8 corners and returns the new axis-aligned box enclosing them.
// Scale is applied in local space before rotation/translation.
func (b AABB) Transform(t *T, scale float64) AABB {
	if b.Empty() {
		return b
	}
	if scale == 0 {
		scale = 1
	}
	out := NewAABB()
	corners := [8]V3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
	for _, c := range corners {
		wx, wy, wz := t.AppS(c.X*scale, c.Y*scale, c.Z*scale)
		out = out.ExtendPoint(wx, wy, wz)
	}
	return out
}

// IntersectsSphere reports whether the box intersects a sphere at
// (cx, cy, cz) with the given radius. Callers that already have two
// AABBs should use Intersects instead.
func (b AABB) IntersectsSphere(cx, cy, cz, radius float64) bool {
	dx := clampAxis(cx, b.Min.X, b.Max.X) - cx
	dy := clampAxis(cy, b.Min.Y, b.Max.Y) - cy
	dz := clampAxis(cz, b.Min.Z, b.Max.Z) - cz
	return dx*dx+dy*dy+dz*dz <= radius*radius
}

// Intersects reports whether two AABBs overlap on every axis.
func (b AABB) Intersects(o AABB) bool {
	if b.Empty() || o.Empty() {
		return false
	}
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Contains reports whether point (x, y, z) lies within the box.
func (b AABB) Contains(x, y, z float64) bool {
	return x >= b.Min.X && x <= b.Max.X &&
		y >= b.Min.Y && y <= b.Max.Y &&
		z >= b.Min.Z && z <= b.Max.Z
}

func clampAxis(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
