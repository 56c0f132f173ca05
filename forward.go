// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"sort"

	vk "github.com/vulkan-go/vulkan"

	"github.com/kestrel-engine/kestrel/vkgpu"
)

// forward.go generalizes the teacher's draws/Packet pair (render/draw.go's
// sort.Interface bucket+distance ordering, render/packet.go's GetPacket
// pool-reuse pattern) into the forward renderer §4.6 describes: partition
// visible nodes into opaque/transparent sets, sort transparents
// back-to-front on a worker goroutine overlapping opaque recording, then
// record one indexed draw per mesh against its material's four descriptor
// sets.

// DrawItem is one mesh's draw submission, reused frame to frame like the
// teacher's Packet.
type DrawItem struct {
	Mesh      MeshHandle
	MVP       [16]float32
	Distance  float64 // squared distance to camera, used for transparent sort.
	Transparent bool
}

// Reset clears d for reuse, mirroring Packet.Reset's keep-capacity style.
func (d *DrawItem) Reset() { *d = DrawItem{} }

// PartitionVisible splits the tree's nodes into opaque and transparent
// draw lists using copy_all_nodes with the comparers §4.6 names: value
// kind mesh, inside the camera frustum, cull-distance 0.1 screen
// coverage, and opacity flag opposite.
func PartitionVisible(t *Tree, cam *Camera) (opaque, transparent []DrawItem) {
	frustum := cam.Frustum()
	viewProj := cam.ViewProjection()

	base := Comparer{
		Kinds:       NewKindSet(KindMesh),
		HasKinds:    true,
		Frustum:     &frustum,
		FrustumTest: FrustumIntersects,
		ScreenCoverage: &ScreenCoverageFilter{Bias: 0.1, ViewProj: viewProj},
	}

	opaqueCmp := base
	opaqueCmp.IsTransparent = boolPtr(false)
	for _, n := range t.CopyAllNodes(&opaqueCmp) {
		opaque = append(opaque, toDrawItem(n, cam, false))
	}

	transparentCmp := base
	transparentCmp.IsTransparent = boolPtr(true)
	for _, n := range t.CopyAllNodes(&transparentCmp) {
		transparent = append(transparent, toDrawItem(n, cam, true))
	}
	return opaque, transparent
}

func toDrawItem(n NodeSnapshot, cam *Camera, transparent bool) DrawItem {
	loc := n.Attrs.Transform.Loc
	return DrawItem{
		Mesh:        n.Value.Mesh,
		Distance:    cam.Distance(loc.X, loc.Y, loc.Z),
		Transparent: transparent,
	}
}

// byDistanceDesc sorts DrawItems back-to-front: farthest (largest squared
// distance) first, matching the original draws type's sort.Interface.
type byDistanceDesc []DrawItem

func (d byDistanceDesc) Len() int           { return len(d) }
func (d byDistanceDesc) Less(i, j int) bool { return d[i].Distance > d[j].Distance }
func (d byDistanceDesc) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }

// SortTransparentAsync sorts transparent back-to-front on its own
// goroutine and delivers the result over a single-shot channel (§4.6,
// §5): the caller records opaque draws while this runs, overlapping CPU
// work.
func SortTransparentAsync(transparent []DrawItem) <-chan []DrawItem {
	done := make(chan []DrawItem, 1)
	go func() {
		sort.Sort(byDistanceDesc(transparent))
		done <- transparent
	}()
	return done
}

// MaterialPipeline resolves a mesh's graphics pipeline and its four
// descriptor sets (camera+model data, material textures, material
// factors, cluster+lights+shadow-atlas), supplied by the asset/material
// manager external collaborator (§6).
type MaterialPipeline interface {
	Pipeline(material uint32, key PipelineKey) (*vkgpu.Pipeline, error)
	DescriptorSets(material uint32) [4]vkgpu.DescriptorSet
}

// RecordForward submits one indexed draw per item in draws, fetching each
// mesh's pipeline and four descriptor sets from mats and recording
// through fs (which enforces the §4.3 "wrong stage is a no-op" rule).
// opaque items are expected first, transparent after, matching "materials
// with transparent blending participate after opaque materials within the
// same forward subpass" (§4.6).
func RecordForward(fs *FrameSystem, mats MaterialPipeline, draws []DrawItem, indexCounts []uint32) error {
	for i, d := range draws {
		blend := BlendOpaque
		if d.Transparent {
			blend = BlendAlpha
		}
		pipe, err := mats.Pipeline(d.Mesh.Material, PipelineKey{Blend: blend, Cull: CullBack, Pass: PassObject, ShaderSet: "forward"})
		if err != nil {
			return err
		}
		sets := mats.DescriptorSets(d.Mesh.Material)
		indexCount := uint32(0)
		if i < len(indexCounts) {
			indexCount = indexCounts[i]
		}
		fs.RecordDraw(StageForward, func(cmd vk.CommandBuffer) {
			vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, pipe.Handle)
			handles := make([]vk.DescriptorSet, len(sets))
			for i, s := range sets {
				handles[i] = s.Handle
			}
			vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, pipe.Layout, 0, uint32(len(handles)), handles, 0, nil)
			vk.CmdDrawIndexed(cmd, indexCount, 1, 0, 0, 0)
		})
	}
	return nil
}
