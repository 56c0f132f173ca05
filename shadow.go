// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/kestrel-engine/kestrel/math/lin"
)

// shadow.go generalizes the teacher's single-sun shadows type (shadow.go:
// one bias matrix, one light view-projection, one shadowmap texture) into
// the cascaded, atlas-packed shadow system §4.5 describes: many
// directional lights, each with C cascades, sharing one atlas texture.
// The bias matrix itself — mapping clip space [-1,1] into texture space
// [0,1] — is carried unchanged from the teacher's `bm` constant.

// shadowBias is the teacher's bias matrix, unchanged: it maps NDC
// [-1,1]x[-1,1]x[0,1] into the [0,1] texture-space range a shadow sampler
// reads.
var shadowBias = &lin.M4{
	Xx: 0.5, Xy: 0.0, Xz: 0.0, Xw: 0.0,
	Yx: 0.0, Yy: 0.5, Yz: 0.0, Yw: 0.0,
	Zx: 0.0, Zy: 0.0, Zz: 1.0, Zw: 0.0,
	Wx: 0.5, Wy: 0.5, Wz: 0.0, Ww: 1.0,
}

// snapQuantum is the world-unit granularity cascade radii are snapped to,
// reducing shimmer as the camera moves (§4.5).
const snapQuantum = 1.0 / 16.0

// CascadeDescriptor is one directional light's per-cascade render data:
// the light-space MVP, its split's far depth, and its atlas UV region,
// per the §3 Data Model.
type CascadeDescriptor struct {
	MVP        lin.M4
	SplitDepth float64
	UVRegion   [4]float32 // {u0, v0, u1, v1}
}

// AtlasLayout assigns C consecutive cells, in scan order, to each of N
// directional lights within a k x k tiling of the [0,1]^2 atlas, where k
// is the smallest integer with k*k >= N*C (§4.5).
type AtlasLayout struct {
	K         int
	Cascades  int
	cellSize  float32
}

// NewAtlasLayout computes the smallest square tiling holding lights*
// cascades cells.
func NewAtlasLayout(lights, cascades int) AtlasLayout {
	k := atlasK(lights, cascades)
	return AtlasLayout{K: k, Cascades: cascades, cellSize: 1.0 / float32(k)}
}

// Region returns the UV rect for light index lightIdx's cascade cascadeIdx.
func (a AtlasLayout) Region(lightIdx, cascadeIdx int) [4]float32 {
	cell := lightIdx*a.Cascades + cascadeIdx
	col := cell % a.K
	row := cell / a.K
	u0, v0 := float32(col)*a.cellSize, float32(row)*a.cellSize
	return [4]float32{u0, v0, u0 + a.cellSize, v0 + a.cellSize}
}

// FitCascade computes one cascade's orthographic view-projection per
// §4.5: project the camera's frustum corners between the previous and
// current split distances through the inverse view-projection into world
// space, fit a snapped orthographic box around them, then look-at from
// (center - lightDir*radius) to center with depth range [0, 2*radius].
func FitCascade(cam *Camera, lightDir lin.V3, splitNear, splitFar float64) lin.M4 {
	invVP := cam.InverseViewProjection()
	nearZ := remapSplitToNDC(cam, splitNear)
	farZ := remapSplitToNDC(cam, splitFar)
	corners := lin.Corners(invVP, nearZ, farZ)

	center := lin.V3{}
	for _, c := range corners {
		center.X += c.X / 8
		center.Y += c.Y / 8
		center.Z += c.Z / 8
	}

	radius := 0.0
	for _, c := range corners {
		dx, dy, dz := c.X-center.X, c.Y-center.Y, c.Z-center.Z
		d := dx*dx + dy*dy + dz*dz
		if d > radius {
			radius = d
		}
	}
	radius = snap(math.Sqrt(radius), snapQuantum)
	if radius < snapQuantum {
		radius = snapQuantum
	}

	center.X = snap(center.X, snapQuantum)
	center.Y = snap(center.Y, snapQuantum)
	center.Z = snap(center.Z, snapQuantum)

	dir := lightDir
	dir.Unit()
	eye := lin.V3{X: center.X - dir.X*radius, Y: center.Y - dir.Y*radius, Z: center.Z - dir.Z*radius}

	view := lin.NewM4I()
	lookAt(view, eye, center)

	ortho := lin.NewM4I()
	orthoProject(ortho, -radius, radius, -radius, radius, 0, 2*radius)

	var vp lin.M4
	vp.Mult(view, ortho)
	return vp
}

// FitCascadesParallel fits every cascade for every directional light
// concurrently: each (light, cascade) pair is independent of the others,
// so cascade fitting fans out across an errgroup instead of running
// serially before the shadow pass (§4.5's per-cascade fit is the only
// per-frame work proportional to lights*cascades large enough to matter).
// Returns one []lin.M4 of len(cascades) per light, in input order.
func FitCascadesParallel(cam *Camera, lightDirs []lin.V3, splits []CascadeSplit) ([][]lin.M4, error) {
	results := make([][]lin.M4, len(lightDirs))
	var g errgroup.Group
	for li, dir := range lightDirs {
		li, dir := li, dir
		results[li] = make([]lin.M4, len(splits))
		g.Go(func() error {
			for ci, split := range splits {
				results[li][ci] = FitCascade(cam, dir, split.Near, split.Far)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// remapSplitToNDC converts a camera-space split depth into the NDC z
// Camera's inverse view-projection expects, via the same linear-to-NDC
// mapping the cluster grid uses.
func remapSplitToNDC(cam *Camera, depth float64) float64 {
	return 2*viewDepthToNDC(depth, cam.near, cam.far) - 1
}

func snap(v, quantum float64) float64 {
	return math.Round(v/quantum) * quantum
}

// lookAt fills m with a right-handed look-at view matrix from eye toward
// center, world-up (0,1,0), consistent with math/lin's row-vector
// convention.
func lookAt(m *lin.M4, eye, center lin.V3) {
	fwd := lin.V3{X: center.X - eye.X, Y: center.Y - eye.Y, Z: center.Z - eye.Z}
	fwd.Unit()
	up := lin.V3{X: 0, Y: 1, Z: 0}
	if math.Abs(fwd.Y) > 0.999 {
		up = lin.V3{X: 1, Y: 0, Z: 0}
	}
	var right, trueUp lin.V3
	right.Cross(&fwd, &up)
	right.Unit()
	trueUp.Cross(&right, &fwd)

	m.Xx, m.Yx, m.Zx = right.X, right.Y, right.Z
	m.Xy, m.Yy, m.Zy = trueUp.X, trueUp.Y, trueUp.Z
	m.Xz, m.Yz, m.Zz = -fwd.X, -fwd.Y, -fwd.Z
	m.Xw, m.Yw, m.Zw = 0, 0, 0
	m.Wx = -(right.X*eye.X + right.Y*eye.Y + right.Z*eye.Z)
	m.Wy = -(trueUp.X*eye.X + trueUp.Y*eye.Y + trueUp.Z*eye.Z)
	m.Wz = fwd.X*eye.X + fwd.Y*eye.Y + fwd.Z*eye.Z
	m.Ww = 1
}

// orthoProject fills m with a Vulkan-clip (Y-inverted, [0,1] depth)
// orthographic projection for a right-handed view space looking down -Z:
// view depth n maps to 0 and f to 1.
func orthoProject(m *lin.M4, l, r, b, t, n, f float64) {
	m.Set(lin.M4I)
	m.Xx = 2 / (r - l)
	m.Yy = -2 / (t - b) // inverted for Vulkan's top-left clip origin.
	m.Zz = -1 / (f - n)
	m.Wx = -(r + l) / (r - l)
	m.Wy = (t + b) / (t - b)
	m.Wz = -n / (f - n)
	m.Ww = 1
}

// ShadowBiasMatrix returns the shared bias matrix applied after a
// cascade's MVP to map clip space into the atlas texture's [0,1] sample
// space.
func ShadowBiasMatrix() lin.M4 { return *shadowBias }

// BuildDirectionalLight assembles a DirectionalLight shader struct for a
// light casting cascades cascades, given the already-fitted per-cascade
// view-projections, their split depths, and their atlas regions.
func BuildDirectionalLight(base DirectionalLight, cascades []lin.M4, splits []CascadeSplit, regions [4][4]float32) DirectionalLight {
	d := base
	for i := range cascades {
		if i >= 4 {
			break
		}
		var biased lin.M4
		biased.Mult(&cascades[i], shadowBias)
		d.LightSpace[i] = m4ToArray(biased)
		d.ShadowDepths[i] = float32(splits[i].Far)
		d.ShadowRegion[i] = regions[i]
	}
	return d
}

func m4ToArray(m lin.M4) [16]float32 {
	return [16]float32{
		float32(m.Xx), float32(m.Xy), float32(m.Xz), float32(m.Xw),
		float32(m.Yx), float32(m.Yy), float32(m.Yz), float32(m.Yw),
		float32(m.Zx), float32(m.Zy), float32(m.Zz), float32(m.Zw),
		float32(m.Wx), float32(m.Wy), float32(m.Wz), float32(m.Ww),
	}
}

