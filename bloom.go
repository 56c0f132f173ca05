// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/kestrel-engine/kestrel/vkgpu"
)

// bloom.go implements the bloom pyramid described in §4.7: starting from
// the HDR-fragments image, blit-downsample into B storage images, blur
// each level separably in place, then up-combine from the smallest level
// to the configured "first bloom level". The dispatch calls themselves
// are GPU compute/blit work issued against gbuffer's bloom pyramid
// images; this type sequences that work through the frame state
// machine's BlurH/BlurV stages.

// BloomChain drives the bloom pyramid's downsample/blur/combine passes.
type BloomChain struct {
	gbuffer *GBuffer
	levels  int
	first   int
	scale   float64
	strength float64
}

// NewBloomChain returns a chain driven by settings s's bloom config.
func NewBloomChain(gbuffer *GBuffer, s BloomSettings) *BloomChain {
	return &BloomChain{gbuffer: gbuffer, levels: s.Levels, first: s.FirstBloomLevel, scale: s.Scale, strength: s.Strength}
}

// Levels returns the number of pyramid levels this chain drives.
func (b *BloomChain) Levels() int { return b.levels }

// Downsample blits the HDR-fragments image into each pyramid level,
// halving resolution at each step. blit is the caller-supplied blit
// command, parameterized by source/destination image so this stays
// independent of the exact vk.CmdBlitImage call shape.
func (b *BloomChain) Downsample(cmd vk.CommandBuffer, blit func(cmd vk.CommandBuffer, src, dst vkgpu.Image)) {
	src := b.gbuffer.HDRFragments()
	for i := 0; i < b.levels; i++ {
		dst := b.gbuffer.BloomLevel(i)
		blit(cmd, src, dst)
		src = dst
	}
}

// BlurLevel runs the separable blur (horizontal then vertical) on
// pyramid level i in place, through the frame state machine's BlurH/BlurV
// stages.
func (b *BloomChain) BlurLevel(fs *FrameSystem, i int, horizontal func(vk.CommandBuffer, vkgpu.Image), vertical func(vk.CommandBuffer, vkgpu.Image)) {
	lvl := b.gbuffer.BloomLevel(i)
	fs.RecordDraw(StageBlurH, func(cmd vk.CommandBuffer) { horizontal(cmd, lvl) })
	fs.RecordDraw(StageBlurV, func(cmd vk.CommandBuffer) { vertical(cmd, lvl) })
}

// Combine adds each blurred level into the next-larger one, from the
// smallest level up to FirstBloomLevel, returning the resulting image to
// sample in Assemble.
func (b *BloomChain) Combine(cmd vk.CommandBuffer, add func(cmd vk.CommandBuffer, src, dst vkgpu.Image, strength float64)) vkgpu.Image {
	for i := b.levels - 1; i > b.first; i-- {
		add(cmd, b.gbuffer.BloomLevel(i), b.gbuffer.BloomLevel(i-1), b.strength)
	}
	return b.gbuffer.BloomLevel(b.first)
}
