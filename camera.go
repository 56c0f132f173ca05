// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"math"

	"github.com/kestrel-engine/kestrel/math/lin"
)

// camera.go replaces the teacher's multi-view-transform Camera (vp, vo,
// vf, xz_xy in the original camera.go) with the single perspective camera
// §4.2 describes: view, projection, view-projection, a frustum, and
// cascade split helpers for the shadow system. The view transform itself
// is the teacher's vp function, generalized to read from a Transform
// instead of a pov.

// Camera provides view/projection matrices, a frustum and cascade split
// helpers, per §4.2.
type Camera struct {
	fov, aspect, near, far float64

	view     *lin.M4
	proj     *lin.M4
	viewProj *lin.M4
	invVP    *lin.M4
	frustum  lin.Frustum

	loc *lin.V3 // last-updated world position, for cascade fitting.
	rot *lin.Q  // last-updated world orientation.
}

// NewCamera returns a camera at the origin looking down -Z with an
// identity projection; call SetPerspective and Update before use.
func NewCamera() *Camera {
	return &Camera{
		view:     lin.NewM4I(),
		proj:     lin.NewM4I(),
		viewProj: lin.NewM4I(),
		invVP:    lin.NewM4I(),
		loc:      &lin.V3{},
		rot:      lin.NewQI(),
		near:     0.1,
		far:      1000,
		fov:      60,
		aspect:   16.0 / 9.0,
	}
}

// SetPerspective sets the projection's field of view (degrees), aspect
// ratio, and near/far clip distances. The projection is emitted in a clip
// space with Y inverted, so Vulkan shaders consume it unmodified.
func (c *Camera) SetPerspective(fov, aspect, near, far float64) {
	c.fov, c.aspect, c.near, c.far = fov, aspect, near, far
	c.proj.Persp(fov, aspect, near, far)
	c.proj.Yy = -c.proj.Yy // flip Y for Vulkan's top-left clip-space origin.
}

// Update recomputes view, view-projection, and the frustum from transform
// t: view is a translation by -t.Loc followed by the rotation matrix of
// t.Rot (no separate world-up vector), generalizing the teacher's `vp`
// view-transform function to take a Transform instead of a pov.
func (c *Camera) Update(t Transform) {
	c.loc.Set(t.Loc)
	c.rot.Set(t.Rot)

	c.view.SetQ(t.Rot)
	c.view.TranslateTM(-t.Loc.X, -t.Loc.Y, -t.Loc.Z)

	c.viewProj.Mult(c.view, c.proj)
	c.invVP.Inv(c.viewProj)
	c.frustum = lin.FrustumFromVP(c.viewProj)
}

// View returns the current view matrix.
func (c *Camera) View() *lin.M4 { return c.view }

// Projection returns the current projection matrix.
func (c *Camera) Projection() *lin.M4 { return c.proj }

// ViewProjection returns the combined view-projection matrix.
func (c *Camera) ViewProjection() *lin.M4 { return c.viewProj }

// InverseViewProjection returns the inverse of ViewProjection, used to
// reproject frustum corners into world space for cascade fitting.
func (c *Camera) InverseViewProjection() *lin.M4 { return c.invVP }

// Frustum returns the camera's current view frustum.
func (c *Camera) Frustum() lin.Frustum { return c.frustum }

// Location returns the camera's last-updated world position.
func (c *Camera) Location() lin.V3 { return *c.loc }

// Distance returns the squared distance from the camera to a world point,
// used for back-to-front transparent sorting.
func (c *Camera) Distance(x, y, z float64) float64 {
	dx, dy, dz := x-c.loc.X, y-c.loc.Y, z-c.loc.Z
	return dx*dx + dy*dy + dz*dz
}

// CascadeSplit is one cascade's depth range.
type CascadeSplit struct {
	Near, Far float64
}

// cascadeLambda is the practical-split-scheme blend factor fixed by §4.2.
const cascadeLambda = 0.95

// CascadeSplits returns n split depths following the practical split
// scheme depth_i = λ·log_i + (1-λ)·uniform_i, λ = 0.95.
func (c *Camera) CascadeSplits(n int) []CascadeSplit {
	splits := make([]CascadeSplit, n)
	splitNear := c.near
	ratio := c.far / c.near
	for i := 1; i <= n; i++ {
		p := float64(i) / float64(n)
		logSplit := c.near * pow(ratio, p)
		uniformSplit := c.near + (c.far-c.near)*p
		splitFar := cascadeLambda*logSplit + (1-cascadeLambda)*uniformSplit
		splits[i-1] = CascadeSplit{Near: splitNear, Far: splitFar}
		splitNear = splitFar
	}
	return splits
}

func pow(base, exp float64) float64 {
	if base <= 0 {
		return 0
	}
	return math.Pow(base, exp)
}
