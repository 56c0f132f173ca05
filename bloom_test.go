// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-engine/kestrel/vkgpu"
)

func newTestBloomChain(t *testing.T) (*BloomChain, *GBuffer) {
	g, err := NewGBuffer(nil, vk.FormatB8g8r8a8Unorm)
	require.NoError(t, err)
	g.Resize(vk.Extent2D{Width: 256, Height: 256}, 4)
	return NewBloomChain(g, BloomSettings{Levels: 4, FirstBloomLevel: 1, Scale: 1, Strength: 0.5}), g
}

func TestBloomDownsampleBlitsOncePerLevel(t *testing.T) {
	b, g := newTestBloomChain(t)
	var srcs, dsts []vkgpu.Image
	b.Downsample(vk.CommandBuffer(nil), func(_ vk.CommandBuffer, src, dst vkgpu.Image) {
		srcs = append(srcs, src)
		dsts = append(dsts, dst)
	})

	require.Len(t, dsts, 4)
	assert.Equal(t, g.HDRFragments().Extent, srcs[0].Extent)
	for i := 0; i < 4; i++ {
		assert.Equal(t, g.BloomLevel(i).Extent, dsts[i].Extent)
	}
	assert.Equal(t, dsts[0].Extent, srcs[1].Extent) // chained: level i feeds level i+1's source.
}

func TestBloomCombineWalksFromSmallestToFirstLevel(t *testing.T) {
	b, g := newTestBloomChain(t)
	var srcLevels, dstLevels []vkgpu.Image
	result := b.Combine(vk.CommandBuffer(nil), func(_ vk.CommandBuffer, src, dst vkgpu.Image, strength float64) {
		srcLevels = append(srcLevels, src)
		dstLevels = append(dstLevels, dst)
		assert.Equal(t, 0.5, strength)
	})

	require.Len(t, srcLevels, 2) // levels 3->2, 2->1 (first=1: level 1 is the last destination).
	assert.Equal(t, g.BloomLevel(3).Extent, srcLevels[0].Extent)
	assert.Equal(t, g.BloomLevel(2).Extent, dstLevels[0].Extent)
	assert.Equal(t, g.BloomLevel(1).Extent, result.Extent)
}

func TestBloomBlurLevelSkipsVerticalWhenStageUnchanged(t *testing.T) {
	b, _ := newTestBloomChain(t)
	fs := NewFrameSystem(nil, nil, nil)
	fs.stage = StageBlurH

	var h, v bool
	b.BlurLevel(fs, 0,
		func(vk.CommandBuffer, vkgpu.Image) { h = true },
		func(vk.CommandBuffer, vkgpu.Image) { v = true },
	)
	assert.True(t, h)
	assert.False(t, v) // fs.stage never advanced to StageBlurV within this call.
}
