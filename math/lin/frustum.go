// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

import "math"

// frustum.go extracts the 6 clip planes of a view-projection matrix using
// the Gribb/Hartmann method, and provides the containment/intersection
// tests the scene tree comparer and the shadow system need.

// Plane is a plane in Ax+By+Cz+D=0 form with (A,B,C) unit length.
type Plane struct {
	A, B, C, D float64
}

// Distance returns the signed distance from the plane to point (x,y,z).
// Positive means the point is on the side the normal points to.
func (p Plane) Distance(x, y, z float64) float64 {
	return p.A*x + p.B*y + p.C*z + p.D
}

func (p Plane) normalize() Plane {
	mag := math.Sqrt(p.A*p.A + p.B*p.B + p.C*p.C)
	if mag < Epsilon {
		return p
	}
	return Plane{A: p.A / mag, B: p.B / mag, C: p.C / mag, D: p.D / mag}
}

// Frustum is the six clip planes of a view-projection matrix, ordered
// left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromVP extracts a Frustum from a combined view-projection matrix
// using the standard Gribb/Hartmann plane extraction.
func FrustumFromVP(vp *M4) Frustum {
	var f Frustum
	// M4 is applied to row vectors (clip = v*vp), so clip x, y, z and w
	// are dot products of v with vp's columns; each plane is the w column
	// plus or minus another column, per Gribb/Hartmann.
	f.Planes[0] = Plane{A: vp.Xw + vp.Xx, B: vp.Yw + vp.Yx, C: vp.Zw + vp.Zx, D: vp.Ww + vp.Wx}.normalize() // left
	f.Planes[1] = Plane{A: vp.Xw - vp.Xx, B: vp.Yw - vp.Yx, C: vp.Zw - vp.Zx, D: vp.Ww - vp.Wx}.normalize() // right
	f.Planes[2] = Plane{A: vp.Xw + vp.Xy, B: vp.Yw + vp.Yy, C: vp.Zw + vp.Zy, D: vp.Ww + vp.Wy}.normalize() // bottom
	f.Planes[3] = Plane{A: vp.Xw - vp.Xy, B: vp.Yw - vp.Yy, C: vp.Zw - vp.Zy, D: vp.Ww - vp.Wy}.normalize() // top
	f.Planes[4] = Plane{A: vp.Xw + vp.Xz, B: vp.Yw + vp.Yz, C: vp.Zw + vp.Zz, D: vp.Ww + vp.Wz}.normalize() // near
	f.Planes[5] = Plane{A: vp.Xw - vp.Xz, B: vp.Yw - vp.Yz, C: vp.Zw - vp.Zz, D: vp.Ww - vp.Wz}.normalize() // far
	return f
}

// Intersects reports whether the box at least partially overlaps the
// frustum: true unless some plane has the whole box strictly outside it.
func (f Frustum) Intersects(b AABB) bool {
	for _, p := range f.Planes {
		// positive-vertex test: the AABB corner most in the direction
		// of the plane normal. If even that corner is outside, the
		// whole box is outside.
		px, py, pz := b.Min.X, b.Min.Y, b.Min.Z
		if p.A >= 0 {
			px = b.Max.X
		}
		if p.B >= 0 {
			py = b.Max.Y
		}
		if p.C >= 0 {
			pz = b.Max.Z
		}
		if p.Distance(px, py, pz) < 0 {
			return false
		}
	}
	return true
}

// Contains reports whether the box lies entirely within the frustum.
func (f Frustum) Contains(b AABB) bool {
	for _, p := range f.Planes {
		nx, ny, nz := b.Max.X, b.Max.Y, b.Max.Z
		if p.A >= 0 {
			nx = b.Min.X
		}
		if p.B >= 0 {
			ny = b.Min.Y
		}
		if p.C >= 0 {
			nz = b.Min.Z
		}
		if p.Distance(nx, ny, nz) < 0 {
			return false
		}
	}
	return true
}

// Corners computes the 8 world-space corners of the sub-frustum between
// near and far planes given the inverse view-projection matrix. Corners
// are in NDC order: near [bl,br,tl,tr], far [bl,br,tl,tr].
func Corners(invViewProj *M4, nearZ, farZ float64) [8]V3 {
	ndc := [8]V4{
		{X: -1, Y: -1, Z: nearZ, W: 1}, {X: 1, Y: -1, Z: nearZ, W: 1},
		{X: -1, Y: 1, Z: nearZ, W: 1}, {X: 1, Y: 1, Z: nearZ, W: 1},
		{X: -1, Y: -1, Z: farZ, W: 1}, {X: 1, Y: -1, Z: farZ, W: 1},
		{X: -1, Y: 1, Z: farZ, W: 1}, {X: 1, Y: 1, Z: farZ, W: 1},
	}
	var out [8]V3
	for i, c := range ndc {
		w := c
		w.MultvM(&c, invViewProj)
		if w.W != 0 {
			out[i] = V3{X: w.X / w.W, Y: w.Y / w.W, Z: w.Z / w.W}
		} else {
			out[i] = V3{X: w.X, Y: w.Y, Z: w.Z}
		}
	}
	return out
}
