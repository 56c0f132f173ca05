// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import "github.com/kestrel-engine/kestrel/math/lin"

// cluster.go implements the process-wide light-cluster grid described in
// §3/§4.4, grounded on original_source/light_culling_system.rs's
// PreDpethSystem: that code heap-allocates a [[[Cluster; 8]; 16]; 16]
// buffer of {point_light_count, spot_light_count, light_indices[1024]}
// and fills it by testing each light's world AABB against a cluster's
// sub-frustum. This package owns the CPU-side equivalent of that buffer
// and its fill pass; the compute-shader dispatch itself is an external
// collaborator (the GPU), not reproduced here. The spec's own Data Model
// fixes the grid at [32 x 16 x 32], superseding the original's [16 x 16 x 8].

const (
	ClusterX = 32
	ClusterY = 16
	ClusterZ = 32

	maxLightsPerBucket = 512
	clusterIndexCount  = 1024 // 0..511 points, 512..1023 spots
)

// Cluster is one voxel's light-index bucket: point indices occupy
// Indices[0:PointCount], spot indices occupy Indices[512:512+SpotCount].
type Cluster struct {
	PointCount int32
	SpotCount  int32
	Indices    [clusterIndexCount]int32
}

// ClusterGrid is the process-wide [32x16x32] buffer of Cluster entries,
// bound read-only to forward-shading material descriptors for the frame
// that filled it (§4.4).
type ClusterGrid struct {
	clusters [ClusterX * ClusterY * ClusterZ]Cluster
}

// NewClusterGrid returns an empty grid. The grid lives for the lifetime
// of the light system (§3 Lifecycles), so one instance is reused frame
// to frame: Reset clears it before each fill.
func NewClusterGrid() *ClusterGrid { return &ClusterGrid{} }

func (g *ClusterGrid) index(x, y, z int) int { return (z*ClusterY+y)*ClusterX + x }

// At returns the cluster at grid coordinate (x, y, z).
func (g *ClusterGrid) At(x, y, z int) Cluster { return g.clusters[g.index(x, y, z)] }

// Reset clears every cluster's counts and indices.
func (g *ClusterGrid) Reset() {
	for i := range g.clusters {
		g.clusters[i] = Cluster{}
	}
}

// clusterBounds returns the world-space AABB of the sub-frustum owned by
// grid cell (x,y,z): the cell's eight corners, evenly spaced in NDC X and
// Y and exponentially spaced in view depth, are unprojected through
// invViewProj and enclosed in a box.
func clusterBounds(invViewProj *lin.M4, near, far float64, x, y, z int) lin.AABB {
	u0, u1 := float64(x)/ClusterX, float64(x+1)/ClusterX
	v0, v1 := float64(y)/ClusterY, float64(y+1)/ClusterY

	// exponential depth slicing keeps near clusters thin and far ones
	// coarse, matching how clustered shading papers slice view depth.
	d0 := near * pow(far/near, float64(z)/ClusterZ)
	d1 := near * pow(far/near, float64(z+1)/ClusterZ)

	b := lin.NewAABB()
	for _, depth := range []float64{d0, d1} {
		ndcZ := viewDepthToNDC(depth, near, far)
		for _, ndcY := range []float64{v0*2 - 1, v1*2 - 1} {
			for _, ndcX := range []float64{u0*2 - 1, u1*2 - 1} {
				clip := (&lin.V4{}).SetS(ndcX, ndcY, ndcZ, 1)
				clip.MultvM(clip, invViewProj)
				if clip.W == 0 {
					continue
				}
				wx, wy, wz := clip.X/clip.W, clip.Y/clip.W, clip.Z/clip.W
				b = b.ExtendPoint(wx, wy, wz)
			}
		}
	}
	return b
}

// viewDepthToNDC converts a linear view-space depth into Vulkan's [0,1]
// NDC depth range for a standard perspective projection.
func viewDepthToNDC(depth, near, far float64) float64 {
	return far / (far - near) * (1 - near/depth)
}

// Fill dispatches the cluster-assignment pass described in §4.4: for
// every cluster, test each point and spot light's world AABB against the
// cluster's world-space sub-frustum (via clusterBounds), appending the
// light's index into the cluster's point or spot bucket. Excess lights
// beyond maxLightsPerBucket are dropped in insertion order, matching the
// original's static 512-light cap per bucket.
func (g *ClusterGrid) Fill(lights GatheredLights, invViewProj *lin.M4, near, far float64) {
	g.Reset()
	for z := 0; z < ClusterZ; z++ {
		for y := 0; y < ClusterY; y++ {
			for x := 0; x < ClusterX; x++ {
				cellBounds := clusterBounds(invViewProj, near, far, x, y, z)
				c := &g.clusters[g.index(x, y, z)]
				for i, p := range lights.Points {
					if c.PointCount >= maxLightsPerBucket {
						break
					}
					if cellBounds.Intersects(p.LightBounds()) {
						c.Indices[c.PointCount] = int32(i)
						c.PointCount++
					}
				}
				for i, s := range lights.Spots {
					if c.SpotCount >= maxLightsPerBucket {
						break
					}
					if cellBounds.Intersects(s.LightBounds()) {
						c.Indices[512+c.SpotCount] = int32(i)
						c.SpotCount++
					}
				}
			}
		}
	}
}
