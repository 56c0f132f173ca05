// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package vkgpu is a thin Vulkan resource vocabulary: image, render pass,
// framebuffer, pipeline, descriptor set, and command buffer handles, built
// on github.com/vulkan-go/vulkan. It supplies the types the frame state
// machine and GBuffer express attachments and passes in terms of; device
// and instance selection is an external collaborator represented only by
// the Device interface, grounded on cogentcore-core/egpu's ImageResources
// wrapper (vk.Image/vk.ImageView/vk.Framebuffer handles grouped by
// resource, one small struct per concern rather than a monolithic
// context object).
package vkgpu

import vk "github.com/vulkan-go/vulkan"

// Device is the external collaborator boundary for physical/logical
// device selection, queue retrieval, and memory allocation. Production
// code supplies a Device backed by a real vk.Device/vk.PhysicalDevice
// pair; tests supply a fake.
type Device interface {
	Handle() vk.Device
	PhysicalDevice() vk.PhysicalDevice
	GraphicsQueue() vk.Queue
	GraphicsQueueFamily() uint32
	MemoryProperties() vk.PhysicalDeviceMemoryProperties
}

// Image wraps an attachment image and its view, matching the field
// grouping in egpu.ImageResources.
type Image struct {
	Handle vk.Image
	View   vk.ImageView
	Memory vk.DeviceMemory
	Format vk.Format
	Extent vk.Extent2D
	Layers uint32
}

// Destroy releases the image's GPU resources.
func (img *Image) Destroy(dev Device) {
	if img.View != vk.NullImageView {
		vk.DestroyImageView(dev.Handle(), img.View, nil)
	}
	if img.Handle != vk.NullImage {
		vk.DestroyImage(dev.Handle(), img.Handle, nil)
	}
	if img.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(dev.Handle(), img.Memory, nil)
	}
	*img = Image{}
}

// RenderPass wraps a render pass handle and the attachment formats it was
// built from, so a Framebuffer builder can validate compatibility.
type RenderPass struct {
	Handle      vk.RenderPass
	Attachments []vk.Format
	Subpasses   int
}

// Destroy releases the render pass.
func (rp *RenderPass) Destroy(dev Device) {
	if rp.Handle != vk.NullRenderPass {
		vk.DestroyRenderPass(dev.Handle(), rp.Handle, nil)
	}
	*rp = RenderPass{}
}

// Framebuffer wraps a framebuffer handle and its backing image views, so
// GBuffer can destroy and rebuild it atomically on resize.
type Framebuffer struct {
	Handle vk.Framebuffer
	Views  []vk.ImageView
	Extent vk.Extent2D
}

// Destroy releases the framebuffer (not its backing images/views).
func (fb *Framebuffer) Destroy(dev Device) {
	if fb.Handle != vk.NullFramebuffer {
		vk.DestroyFramebuffer(dev.Handle(), fb.Handle, nil)
	}
	*fb = Framebuffer{}
}

// Pipeline wraps a graphics or compute pipeline and its layout, keyed by
// PipelineRegistry on (blend, cull, render pass, shader set).
type Pipeline struct {
	Handle vk.Pipeline
	Layout vk.PipelineLayout
}

// Destroy releases the pipeline and its layout.
func (p *Pipeline) Destroy(dev Device) {
	if p.Handle != vk.NullPipeline {
		vk.DestroyPipeline(dev.Handle(), p.Handle, nil)
	}
	if p.Layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(dev.Handle(), p.Layout, nil)
	}
	*p = Pipeline{}
}

// DescriptorSet wraps an allocated descriptor set and the layout it was
// allocated against, matching the spec's four-set forward-draw contract
// (camera+model, material textures, material factors, cluster+lights+
// shadow-atlas).
type DescriptorSet struct {
	Handle vk.DescriptorSet
	Layout vk.DescriptorSetLayout
}

// CommandBuffer wraps a primary command buffer together with the pool it
// was allocated from, so frame.go's recorder can free it without holding
// a separate pool reference per frame.
type CommandBuffer struct {
	Handle vk.CommandBuffer
	Pool   vk.CommandPool
}

// Begin starts primary one-time-submit recording.
func (cb CommandBuffer) Begin() error {
	info := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if ret := vk.BeginCommandBuffer(cb.Handle, &info); ret != vk.Success {
		return Result(ret)
	}
	return nil
}

// End finishes recording.
func (cb CommandBuffer) End() error {
	if ret := vk.EndCommandBuffer(cb.Handle); ret != vk.Success {
		return Result(ret)
	}
	return nil
}

// Free releases the command buffer back to its pool.
func (cb CommandBuffer) Free(dev Device) {
	vk.FreeCommandBuffers(dev.Handle(), cb.Pool, 1, []vk.CommandBuffer{cb.Handle})
}

// Result adapts a raw vk.Result into an error, so callers can use
// errors.Is against the sentinel errors in the root package.
type Result vk.Result

func (r Result) Error() string {
	switch vk.Result(r) {
	case vk.ErrorOutOfDateKhr:
		return "vkgpu: swapchain out of date"
	case vk.ErrorSurfaceLostKhr:
		return "vkgpu: surface lost"
	case vk.Suboptimal:
		return "vkgpu: suboptimal swapchain"
	default:
		return "vkgpu: vulkan call failed"
	}
}
