// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"fmt"
	"log/slog"

	vk "github.com/vulkan-go/vulkan"

	"github.com/kestrel-engine/kestrel/vkgpu"
)

// frame.go generalizes the teacher's FrameStage/FrameSystem pair
// (original_source frame_system.rs) from its fixed three-state
// Forward/Postprogress/Finished enum into the nine ordered states §4.3
// names. The contract's shape survives unchanged: new_frame binds
// framebuffers and starts recording, next_pass is the sole transition
// function (ending the current render pass and beginning the next with
// the right clear values), and finish_frame only succeeds in the last
// state.

// FrameStage is one of the nine strictly ordered render-pass stages.
type FrameStage uint8

const (
	StageLightCompute FrameStage = iota
	StageShadow
	StageForward
	StageHdrSort
	StageBlurH
	StageBlurV
	StageComputeLuminosity
	StageAssemble
	StageFinished
)

func (s FrameStage) String() string {
	switch s {
	case StageLightCompute:
		return "LightCompute"
	case StageShadow:
		return "Shadow"
	case StageForward:
		return "Forward"
	case StageHdrSort:
		return "HdrSort"
	case StageBlurH:
		return "BlurH"
	case StageBlurV:
		return "BlurV"
	case StageComputeLuminosity:
		return "ComputeLuminosity"
	case StageAssemble:
		return "Assemble"
	case StageFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// clearValue is the clear color/depth a stage's render pass begins with.
type clearValue struct {
	color [4]float32
	depth float32
}

var stageClears = map[FrameStage]clearValue{
	StageShadow:            {depth: 1.0},
	StageForward:           {color: [4]float32{0, 0, 0, 1}, depth: 1.0},
	StageHdrSort:           {color: [4]float32{0, 0, 0, 0}},
	StageBlurH:             {color: [4]float32{0, 0, 0, 0}},
	StageBlurV:             {color: [4]float32{0, 0, 0, 0}},
	StageComputeLuminosity: {color: [4]float32{0, 0, 0, 0}},
	StageAssemble:          {color: [4]float32{0, 0, 0, 0}},
}

// stageRenderPass maps stages that record inside a vkgpu render pass to
// the GBuffer pass they belong to. Compute-only stages (LightCompute,
// ComputeLuminosity) bind no render pass.
var stageRenderPass = map[FrameStage]RenderPassKind{
	StageShadow:  PassShadow,
	StageForward: PassObject,
	StageHdrSort: PassObject, // subpass 2 of Object: the resolve subpass.
	StageBlurH:   PassBlur,
	StageBlurV:   PassBlur,
	StageAssemble: PassAssemble,
}

// FrameStats is a debug-overlay snapshot (supplemented feature, see
// SPEC_FULL.md): draw calls, vertices, and lights culled this frame,
// mirroring the original's render_builder.rs draw-call/vertex counters.
type FrameStats struct {
	DrawCalls    int
	Vertices     int
	LightsCulled int
}

// FrameSystem owns the in-progress command recorder and drives it through
// the nine-stage pipeline. One FrameSystem is reused across frames; each
// new_frame call resets its stats and starts a fresh recording.
type FrameSystem struct {
	dev     vkgpu.Device
	gbuffer *GBuffer
	cmd     vkgpu.CommandBuffer
	target  vk.ImageView // swapchain image view, bound by the Assemble framebuffer.

	stage FrameStage
	stats FrameStats

	log *slog.Logger
}

// NewFrameSystem returns a frame system bound to dev and gbuffer.
func NewFrameSystem(dev vkgpu.Device, gbuffer *GBuffer, log *slog.Logger) *FrameSystem {
	if log == nil {
		log = slog.Default()
	}
	return &FrameSystem{dev: dev, gbuffer: gbuffer, stage: StageFinished, log: log}
}

// Stage returns the machine's current stage.
func (f *FrameSystem) Stage() FrameStage { return f.stage }

// Stats returns the current frame's draw/vertex/light counters.
func (f *FrameSystem) Stats() FrameStats { return f.stats }

// NewFrame begins recording cmd, resets the frame stats and starts state
// LightCompute. It does not bind any framebuffer itself: NextPass fetches
// each pass's framebuffer from the GBuffer (built on first use and cached
// there) as it begins that pass. targetImage is the acquired swapchain
// image view, passed to GBuffer.Framebuffer, which uses it only for the
// Assemble pass.
func (f *FrameSystem) NewFrame(cmd vkgpu.CommandBuffer, targetImage vk.ImageView) error {
	if err := cmd.Begin(); err != nil {
		return fmt.Errorf("new frame: %w", err)
	}
	f.cmd = cmd
	f.stage = StageLightCompute
	f.stats = FrameStats{}
	f.target = targetImage
	return nil
}

// NextPass is the sole transition function (§4.3): it ends the current
// render pass if one is bound, begins the next with the correct clear
// values, and returns the new stage. Calling NextPass in StageFinished is
// a no-op that returns StageFinished, matching the original's
// "already at the last pass" branch.
func (f *FrameSystem) NextPass(state FrameStage) FrameStage {
	if state == StageFinished {
		return StageFinished
	}

	if _, hadPass := stageRenderPass[state]; hadPass {
		if state != StageForward { // Forward -> HdrSort is a subpass change, not a pass end.
			vk.CmdEndRenderPass(f.cmd.Handle)
		}
	}

	next := state + 1
	f.beginStage(next)
	f.stage = next
	return next
}

func (f *FrameSystem) beginStage(stage FrameStage) {
	kind, hasPass := stageRenderPass[stage]
	if !hasPass {
		return // LightCompute / ComputeLuminosity are compute dispatches, no render pass.
	}
	if stage == StageHdrSort {
		vk.CmdNextSubpass(f.cmd.Handle, vk.SubpassContentsInline)
		return
	}
	clear := stageClears[stage]
	key := FramebufferKey{Pass: kind}
	fb := f.gbuffer.Framebuffer(key, f.target)
	info := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  f.gbuffer.RenderPass(kind).Handle,
		Framebuffer: fb.Handle,
		RenderArea:  vk.Rect2D{Extent: fb.Extent},
		ClearValueCount: 2,
		PClearValues: []vk.ClearValue{
			vk.NewClearValue([]float32{clear.color[0], clear.color[1], clear.color[2], clear.color[3]}),
			vk.NewClearDepthStencil(clear.depth, 0),
		},
	}
	vk.CmdBeginRenderPass(f.cmd.Handle, &info, vk.SubpassContentsInline)
}

// FinishFrame is legal only in StageFinished; it returns the recorded
// command buffer ready for submission, or ErrWrongStage otherwise (§4.3,
// §7).
func (f *FrameSystem) FinishFrame(state FrameStage) (vkgpu.CommandBuffer, error) {
	if state != StageFinished {
		f.log.Warn("finish_frame called outside Finished stage", "stage", state.String())
		return vkgpu.CommandBuffer{}, fmt.Errorf("finish frame at %s: %w", state, ErrWrongStage)
	}
	if err := f.cmd.End(); err != nil {
		return vkgpu.CommandBuffer{}, fmt.Errorf("finish frame: %w", err)
	}
	return f.cmd, nil
}

// RecordDraw calls draw with the frame's command buffer and counts one
// draw call when the current stage equals expected; otherwise it is a
// logged no-op (§7: "submitting a draw in the wrong state is a logged
// no-op; it does not corrupt the recorder"). draw is any caller-supplied
// recording: forward draws, a blur half, or the assemble pass.
func (f *FrameSystem) RecordDraw(expected FrameStage, draw func(vk.CommandBuffer)) {
	if f.stage != expected {
		f.log.Warn("draw submitted in wrong stage", "expected", expected.String(), "actual", f.stage.String())
		return
	}
	draw(f.cmd.Handle)
	f.stats.DrawCalls++
}

// AddVertices accrues this frame's vertex count, used for the debug
// overlay (FrameStats).
func (f *FrameSystem) AddVertices(n int) { f.stats.Vertices += n }

// SetLightsCulled records the light system's per-frame culled-light
// count for the debug overlay.
func (f *FrameSystem) SetLightsCulled(n int) { f.stats.LightsCulled = n }
