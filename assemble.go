// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"encoding/binary"
	"math"

	vk "github.com/vulkan-go/vulkan"

	"github.com/kestrel-engine/kestrel/vkgpu"
)

// assemble.go implements the Assemble pass (§4.7): a full-screen draw
// sampling the LDR color, the final bloom image, the 1x1 luminance, the
// directional shadow atlas, and the forward depth attachment, writing the
// tone-mapped gamma-corrected frame into the swapchain image.

// AssembleInputs names the five images Assemble samples.
type AssembleInputs struct {
	LDRColor     vkgpu.Image
	Bloom        vkgpu.Image
	Luminance    vkgpu.Image
	ShadowAtlas  vkgpu.Image
	ForwardDepth vkgpu.Image
}

// RecordAssemble records the full-screen assemble draw through fs, using
// exposure as the constant exposure when auto-exposure is disabled (its
// Update already enforces that by clamping Current to the minimum).
func RecordAssemble(fs *FrameSystem, pipe *vkgpu.Pipeline, sets []vkgpu.DescriptorSet, inputs AssembleInputs, gamma float64, exposure float64) {
	fs.RecordDraw(StageAssemble, func(cmd vk.CommandBuffer) {
		vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, pipe.Handle)
		handles := make([]vk.DescriptorSet, len(sets))
		for i, s := range sets {
			handles[i] = s.Handle
		}
		vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, pipe.Layout, 0, uint32(len(handles)), handles, 0, nil)
		pushConstants := assemblePushConstants(gamma, exposure)
		vk.CmdPushConstants(cmd, pipe.Layout, vk.ShaderStageFlags(vk.ShaderStageFragmentBit), 0, uint32(len(pushConstants)), pushConstants)
		vk.CmdDraw(cmd, 3, 1, 0, 0) // full-screen triangle, no vertex buffer.
	})
}

// assemblePushConstants packs {gamma, exposure} as little-endian float32
// bytes for the assemble fragment shader's push-constant block.
func assemblePushConstants(gamma, exposure float64) []byte {
	buf := make([]byte, 8)
	putF32(buf[0:], float32(gamma))
	putF32(buf[4:], float32(exposure))
	return buf
}

func putF32(buf []byte, f float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
}
