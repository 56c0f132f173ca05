// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-engine/kestrel/math/lin"
	"github.com/kestrel-engine/kestrel/vkgpu"
)

func meshAttrs(x, y, z float64, transparent bool) Attrs {
	a := NewAttrs()
	a.Bound = lin.AABBFromCenter(x, y, z, 0.5, 0.5, 0.5)
	a.ValueBound = a.Bound
	a.Transform.Loc.X, a.Transform.Loc.Y, a.Transform.Loc.Z = x, y, z
	a.IsTransparent = transparent
	return a
}

func TestPartitionVisibleSplitsByTransparency(t *testing.T) {
	tr := NewTree()
	_, err := tr.AddAtRoot("opaque1", Value{Kind: KindMesh}, meshAttrs(0, 0, -5, false))
	require.NoError(t, err)
	_, err = tr.AddAtRoot("glass1", Value{Kind: KindMesh}, meshAttrs(0, 0, -6, true))
	require.NoError(t, err)

	cam := newCameraLookingForward()
	opaque, transparent := PartitionVisible(tr, cam)

	assert.Len(t, opaque, 1)
	assert.Len(t, transparent, 1)
	assert.False(t, opaque[0].Transparent)
	assert.True(t, transparent[0].Transparent)
}

func TestPartitionVisibleExcludesNonMeshKinds(t *testing.T) {
	tr := NewTree()
	_, err := tr.AddAtRoot("cam1", Value{Kind: KindCamera}, meshAttrs(0, 0, -5, false))
	require.NoError(t, err)

	cam := newCameraLookingForward()
	opaque, transparent := PartitionVisible(tr, cam)
	assert.Empty(t, opaque)
	assert.Empty(t, transparent)
}

func TestByDistanceDescSortsFarthestFirst(t *testing.T) {
	items := byDistanceDesc{
		{Distance: 1},
		{Distance: 100},
		{Distance: 50},
	}
	assert.True(t, items.Less(1, 0))
	items.Swap(0, 1)
	assert.Equal(t, 1.0, items[1].Distance)
}

func TestSortTransparentAsyncDeliversSortedResult(t *testing.T) {
	items := []DrawItem{{Distance: 1}, {Distance: 100}, {Distance: 50}}
	got := <-SortTransparentAsync(items)

	require.Len(t, got, 3)
	assert.Equal(t, 100.0, got[0].Distance)
	assert.Equal(t, 50.0, got[1].Distance)
	assert.Equal(t, 1.0, got[2].Distance)
}

func TestDrawItemResetClearsAllFields(t *testing.T) {
	d := DrawItem{Mesh: MeshHandle{Mesh: 1}, Distance: 5, Transparent: true}
	d.Reset()
	assert.Equal(t, DrawItem{}, d)
}

type fakeMaterials struct {
	err error
}

func (f *fakeMaterials) Pipeline(material uint32, key PipelineKey) (*vkgpu.Pipeline, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &vkgpu.Pipeline{}, nil
}

func (f *fakeMaterials) DescriptorSets(material uint32) [4]vkgpu.DescriptorSet {
	return [4]vkgpu.DescriptorSet{}
}

func TestRecordForwardPropagatesPipelineError(t *testing.T) {
	fs := NewFrameSystem(nil, nil, nil)
	fs.stage = StageForward
	mats := &fakeMaterials{err: errors.New("no pipeline")}

	err := RecordForward(fs, mats, []DrawItem{{Mesh: MeshHandle{Material: 1}}}, nil)
	assert.Error(t, err)
}

func TestRecordForwardSkipsDrawWhenStageMismatched(t *testing.T) {
	fs := NewFrameSystem(nil, nil, nil)
	fs.stage = StageShadow // wrong stage: RecordDraw's callback must never run vk calls.
	mats := &fakeMaterials{}

	err := RecordForward(fs, mats, []DrawItem{{Mesh: MeshHandle{Material: 1}}}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, fs.Stats().DrawCalls)
}
