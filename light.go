// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import "github.com/kestrel-engine/kestrel/math/lin"

// light.go generalizes the teacher's single-color Light (R,G,B attached to
// a Pov) into the three shader-ready light structs §6 names, plus the
// per-frame gather procedure of §4.4. Where the teacher let a Pov carry one
// Light value directly, a light here is scene-tree data (Value.Point /
// Value.Spot / Value.Directional) snapshotted into these structs by
// GatherLights.

// PointLight is the shader-ready layout for an omnidirectional light.
type PointLight struct {
	Color     [3]float32
	Location  [3]float32
	Intensity float32
	Radius    float32
}

// SpotLight is the shader-ready layout for a cone light.
type SpotLight struct {
	Color     [3]float32
	Direction [3]float32
	Location  [3]float32
	Intensity float32
	Radius    float32
	CosOuter  float32
	CosInner  float32
}

// DirectionalLight is the shader-ready layout for a cascaded directional
// light. ShadowRegion holds one atlas UV rect {u0,v0,u1,v1} per cascade;
// ShadowDepths holds each cascade's far split depth; LightSpace holds each
// cascade's view-projection matrix multiplied by the shadow bias matrix
// (see BuildDirectionalLight), row-major to match math/lin's M4.
type DirectionalLight struct {
	ShadowRegion [4][4]float32
	ShadowDepths [4]float32
	LightSpace   [4][16]float32
	Color        [3]float32
	Direction    [3]float32
	Intensity    float32
	PoissonSpread float32
	PCFSamples   int32
}

// LightCount is the uniform paired with the three per-frame light arrays.
type LightCount struct {
	Points       uint32
	Directionals uint32
	Spots        uint32
}

// SetColor is a convenience setter mirroring the teacher's Light.SetColor,
// kept for callers building lights from raw components instead of through
// the scene tree.
func (p *PointLight) SetColor(r, g, b float64) {
	p.Color = [3]float32{float32(r), float32(g), float32(b)}
}

func (s *SpotLight) SetColor(r, g, b float64) {
	s.Color = [3]float32{float32(r), float32(g), float32(b)}
}

func (d *DirectionalLight) SetColor(r, g, b float64) {
	d.Color = [3]float32{float32(r), float32(g), float32(b)}
}

// LightBounds returns a point or spot light's world-space AABB, radius
// centered on its location, for cluster-membership testing (§4.4).
func (p PointLight) LightBounds() lin.AABB {
	r := float64(p.Radius)
	return lin.AABBFromCenter(float64(p.Location[0]), float64(p.Location[1]), float64(p.Location[2]), r, r, r)
}

func (s SpotLight) LightBounds() lin.AABB {
	r := float64(s.Radius)
	return lin.AABBFromCenter(float64(s.Location[0]), float64(s.Location[1]), float64(s.Location[2]), r, r, r)
}

// GatheredLights is the snapshot produced by GatherLights, step 1-3 of
// §4.4: lights visible this frame plus the count uniform the shaders read
// alongside the three arrays.
type GatheredLights struct {
	Points       []PointLight
	Spots        []SpotLight
	Directionals []DirectionalLight
	Count        LightCount
}

// GatherLights queries the tree for point/spot lights inside cam's frustum
// with screen coverage at or above coverageBias, and all directional lights
// unconditionally, converting each into its shader-ready struct. Point and
// spot counts are capped at maxPoint/maxSpot (§6 settings), directionals at
// maxDirectional.
func GatherLights(t *Tree, cam *Camera, coverageBias float64, maxPoint, maxSpot, maxDirectional int) GatheredLights {
	frustum := cam.Frustum()
	viewProj := cam.ViewProjection()

	visible := &Comparer{
		Frustum:     &frustum,
		FrustumTest: FrustumIntersects,
		ScreenCoverage: &ScreenCoverageFilter{
			Bias:     coverageBias,
			ViewProj: viewProj,
		},
	}

	var out GatheredLights

	pointCmp := *visible
	pointCmp.Kinds = NewKindSet(KindPointLight)
	pointCmp.HasKinds = true
	for _, n := range t.CopyAllNodes(&pointCmp) {
		if len(out.Points) >= maxPoint {
			break
		}
		pl := n.Value.Point
		pl.Location = [3]float32{float32(n.Attrs.Transform.Loc.X), float32(n.Attrs.Transform.Loc.Y), float32(n.Attrs.Transform.Loc.Z)}
		out.Points = append(out.Points, pl)
	}

	spotCmp := *visible
	spotCmp.Kinds = NewKindSet(KindSpotLight)
	spotCmp.HasKinds = true
	for _, n := range t.CopyAllNodes(&spotCmp) {
		if len(out.Spots) >= maxSpot {
			break
		}
		sl := n.Value.Spot
		sl.Location = [3]float32{float32(n.Attrs.Transform.Loc.X), float32(n.Attrs.Transform.Loc.Y), float32(n.Attrs.Transform.Loc.Z)}
		out.Spots = append(out.Spots, sl)
	}

	dirCmp := &Comparer{Kinds: NewKindSet(KindDirectionalLight), HasKinds: true}
	for _, n := range t.CopyAllNodes(dirCmp) {
		if len(out.Directionals) >= maxDirectional {
			break
		}
		dl := n.Value.Directional
		fx, fy, fz := lin.MultSQ(0, 0, -1, n.Attrs.Transform.Rot)
		dl.Direction = [3]float32{float32(fx), float32(fy), float32(fz)}
		out.Directionals = append(out.Directionals, dl)
	}

	out.Count = LightCount{
		Points:       uint32(len(out.Points)),
		Spots:        uint32(len(out.Spots)),
		Directionals: uint32(len(out.Directionals)),
	}
	return out
}
