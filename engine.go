// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	vk "github.com/vulkan-go/vulkan"

	"github.com/kestrel-engine/kestrel/asset"
	"github.com/kestrel-engine/kestrel/device"
	"github.com/kestrel-engine/kestrel/math/lin"
	"github.com/kestrel-engine/kestrel/vkgpu"
)

// engine.go generalizes the teacher's engine (eng.go: a fixed-timestep
// update/render loop driven by Engine.Action, delegating input capture to
// device.Device.Update and rendering to a stage manager) into the
// three-thread model §5 describes: a main/render thread owning the frame
// state machine and GPU submissions, an input thread polling independently
// through a mutex-protected key-map, and a per-frame sort worker the
// forward renderer spins up for transparent ordering. Where the teacher's
// Action loop reads input synchronously each update tick, Engine here
// reads the latest KeyMap snapshot instead, since the input thread runs
// unsynchronized at its own max rate (§5).

// Director is the application callback, mirroring the teacher's Director:
// update state, then decide what gets drawn.
type Director interface {
	// Update is called once per render loop iteration with the elapsed
	// time in seconds and the latest input snapshot.
	Update(dt float64, input device.Snapshot)
}

// RenderHooks bundles the GPU-call seams renderFrame sequences but does
// not own. Resolving a mesh's pipeline/descriptor sets, blitting and
// blurring the bloom pyramid, sampling the 1x1 luminance image, and
// building the assemble pass's descriptor sets all depend on shader and
// asset loading this package never performs itself (§6); the caller
// supplies them here the same way SetPipelineBuilder supplies a
// PipelineBuilder. A nil hook is skipped: renderFrame still advances the
// frame state machine, it just records nothing for that seam.
type RenderHooks struct {
	// Materials resolves a mesh's pipeline and descriptor sets for the
	// forward pass (§4.6).
	Materials MaterialPipeline
	// Meshes resolves a mesh's GPU index count for the forward pass's
	// indexed draw calls.
	Meshes asset.MeshProvider

	// BlitDownsample blits src into dst for one bloom pyramid level.
	BlitDownsample func(cmd vk.CommandBuffer, src, dst vkgpu.Image)
	// BlurHorizontal and BlurVertical run the separable blur passes.
	BlurHorizontal func(cmd vk.CommandBuffer, level vkgpu.Image)
	BlurVertical   func(cmd vk.CommandBuffer, level vkgpu.Image)
	// CombineAdd adds a blurred bloom level into the next-larger one.
	CombineAdd func(cmd vk.CommandBuffer, src, dst vkgpu.Image, strength float64)

	// SampleLuminance reads back the luminance chain's 1x1 image, sampled
	// on the GPU by a compute shader external to this package (§4.7).
	SampleLuminance func() float64

	// AssemblePipeline and AssembleSets drive the final tone-map draw.
	AssemblePipeline *vkgpu.Pipeline
	AssembleSets     []vkgpu.DescriptorSet
}

// lightCoverageBias is the minimum screen-space coverage a point or spot
// light must clear to be gathered this frame (§4.4).
const lightCoverageBias = 0.1

// Engine is the top of the frame orchestration pipeline: it owns the
// scene tree, the frame state machine, settings, and the three worker
// threads described in §5.
type Engine struct {
	settings Settings
	tree     *Tree
	fs       *FrameSystem
	gbuffer  *GBuffer
	dev      vkgpu.Device
	surface  device.Surface
	log      *slog.Logger

	keys *device.KeyMap
	end  *device.EndFlag

	app Director

	pipelines *PipelineRegistry
	exposure  *Exposure
	bloom     *BloomChain
	clusters  *ClusterGrid
	render    RenderHooks

	cameraPath string
	extent     vk.Extent2D

	maxFPS float64
}

// New builds an Engine from settings against an already-opened GPU device
// and window surface, mirroring the teacher's New(title, x, y, w, h):
// subsystems are initialized here; Action starts the loop.
func New(settings Settings, dev vkgpu.Device, surface device.Surface, swapchainFormat vk.Format, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	settings.Freeze()

	gbuffer, err := NewGBuffer(dev, swapchainFormat)
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	extent := surface.Extent()
	vkExtent := vk.Extent2D{Width: uint32(extent.Width), Height: uint32(extent.Height)}
	gbuffer.Resize(vkExtent, settings.Render.Bloom.Levels)
	maxLights := settings.MaxLights()
	gbuffer.RebuildShadowAtlas(maxLights.Directional.ShadowMapResolution, maxLights.MaxDirectional, maxLights.Directional.NumCascades)

	e := &Engine{
		settings:  settings,
		tree:      NewTree(),
		fs:        NewFrameSystem(dev, gbuffer, log),
		gbuffer:   gbuffer,
		dev:       dev,
		surface:   surface,
		log:       log,
		keys:      device.NewKeyMap(),
		end:       &device.EndFlag{},
		pipelines: NewPipelineRegistry(nil),
		exposure:  NewExposure(settings.Render.Exposure),
		bloom:     NewBloomChain(gbuffer, settings.Render.Bloom),
		clusters:  NewClusterGrid(),
		extent:    vkExtent,
		maxFPS:    settings.MaxFPS,
	}
	return e, nil
}

// SetDirector registers the application update callback.
func (e *Engine) SetDirector(d Director) { e.app = d }

// Tree returns the engine's scene tree.
func (e *Engine) Tree() *Tree { return e.tree }

// Settings returns a copy of the engine's settings. New has already frozen
// the light-count maximums, so MaxLights on the copy reports the values in
// effect since New.
func (e *Engine) Settings() Settings { return e.settings }

// SetPipelineBuilder installs the builder used to lazily construct
// pipelines keyed by (blend, cull, pass, shader set); see pipeline.go.
func (e *Engine) SetPipelineBuilder(build PipelineBuilder) {
	e.pipelines = NewPipelineRegistry(build)
}

// SetRenderHooks installs the GPU-call seams renderFrame drives the
// forward, bloom, luminance and assemble passes through.
func (e *Engine) SetRenderHooks(h RenderHooks) { e.render = h }

// SetActiveCamera names the scene-tree node renderFrame drives its Camera
// from each frame (via Tree.CameraAt). The node must hold a KindCamera
// value.
func (e *Engine) SetActiveCamera(path string) { e.cameraPath = path }

// RunInput starts the input thread (§5): it must run on its own goroutine
// for the lifetime of the engine, independent of the render loop's rate.
func (e *Engine) RunInput(src device.Poller) {
	go device.RunInputLoop(src, e.keys, e.end)
}

// RequestShutdown asks the input thread to stop at its next poll; the
// render loop stops once that thread has exited and marked the flag
// Ended. Mirrors the teacher's dev.IsAlive() loop guard, but
// cooperative rather than polling OS window state directly.
func (e *Engine) RequestShutdown() { e.end.RequestEnd() }

// Action runs the fixed-timestep render loop until the end flag reports
// Ended or a frame fails with a *FatalError. Ended is set by the input
// thread started with RunInput when it exits after RequestShutdown; the
// loop does not check ShouldEnd itself. On a FatalError it logs at Error,
// asks the input thread to end, and returns. It generalizes the teacher's
// Action loop (eng.go) from a synchronous device.Update() each tick to
// reading the latest input-thread KeyMap snapshot instead.
func (e *Engine) Action(acquire func() (vkgpu.CommandBuffer, vk.ImageView, error), submit func(vkgpu.CommandBuffer) error) {
	const capTime = 0.2
	minFrameTime := 0.0
	if e.maxFPS > 0 {
		minFrameTime = 1.0 / e.maxFPS
	}
	last := time.Now()

	for !e.end.Ended() {
		elapsed := time.Since(last).Seconds()
		last = time.Now()
		if elapsed > capTime {
			elapsed = capTime
		}
		if minFrameTime > 0 && elapsed < minFrameTime {
			time.Sleep(time.Duration((minFrameTime - elapsed) * float64(time.Second)))
		}

		input := e.keys.Snapshot()
		if e.app != nil {
			e.app.Update(elapsed, input)
		}
		e.tree.Update()

		if err := e.renderFrame(elapsed, acquire, submit); err != nil {
			var fatal *FatalError
			if errors.As(err, &fatal) {
				e.log.Error("render loop stopped", "err", err)
				e.end.RequestEnd()
				return
			}
			e.log.Warn("frame dropped", "err", err)
		}
	}
}

// activeCamera resolves the camera named by SetActiveCamera against the
// current surface aspect ratio and the frozen camera settings.
func (e *Engine) activeCamera() (*Camera, error) {
	if e.cameraPath == "" {
		return nil, fmt.Errorf("render frame: %w", ErrNotFound)
	}
	aspect := 16.0 / 9.0
	if e.extent.Height > 0 {
		aspect = float64(e.extent.Width) / float64(e.extent.Height)
	}
	cam, err := e.tree.CameraAt(e.cameraPath, e.settings.Camera.FOV, aspect, e.settings.Camera.Near, e.settings.Camera.Far)
	if err != nil {
		return nil, fmt.Errorf("active camera %q: %w", e.cameraPath, err)
	}
	return cam, nil
}

// renderFrame drives one pass through the frame state machine (§4.3),
// invoking each rendering subsystem at the stage that owns it: gather and
// cluster the light set, fit shadow cascades, partition and record the
// forward pass, downsample/blur/combine the bloom pyramid, update
// auto-exposure, and assemble the tone-mapped frame. It recovers
// swapchain/surface errors per §7 and propagates driver failures on
// required submissions as fatal.
func (e *Engine) renderFrame(dt float64, acquire func() (vkgpu.CommandBuffer, vk.ImageView, error), submit func(vkgpu.CommandBuffer) error) error {
	cmd, target, err := acquire()
	if err != nil {
		switch {
		case isRecoverable(err):
			return nil // skip this frame, retry next loop iteration.
		default:
			return &FatalError{Op: "acquire", Err: err}
		}
	}

	if err := e.fs.NewFrame(cmd, target); err != nil {
		return fmt.Errorf("new frame: %w", err)
	}

	cam, err := e.activeCamera()
	if err != nil {
		return err
	}

	maxLights := e.settings.MaxLights()
	lights := GatherLights(e.tree, cam, lightCoverageBias, maxLights.MaxPoint, maxLights.MaxSpot, maxLights.MaxDirectional)

	for stage := e.fs.Stage(); stage != StageFinished; stage = e.fs.NextPass(stage) {
		switch stage {
		case StageLightCompute:
			e.clusters.Fill(lights, cam.InverseViewProjection(), e.settings.Camera.Near, e.settings.Camera.Far)

		case StageShadow:
			lights.Directionals = e.fitShadowCascades(cam, lights.Directionals, maxLights.Directional.NumCascades)

		case StageForward:
			e.recordForwardPass(cam)

		case StageHdrSort:
			if e.render.BlitDownsample != nil {
				e.bloom.Downsample(cmd.Handle, e.render.BlitDownsample)
			}

		case StageBlurH, StageBlurV:
			// BlurLevel records into whichever of StageBlurH/StageBlurV is
			// currently active and no-ops the other half (§7's "wrong
			// stage is a logged no-op"), so calling it once per stage here
			// records both halves across the two iterations.
			if e.render.BlurHorizontal != nil && e.render.BlurVertical != nil {
				for i := 0; i < e.bloom.Levels(); i++ {
					e.bloom.BlurLevel(e.fs, i, e.render.BlurHorizontal, e.render.BlurVertical)
				}
			}

		case StageComputeLuminosity:
			sampled := e.settings.Render.Exposure.Target
			if e.render.SampleLuminance != nil {
				sampled = e.render.SampleLuminance()
			}
			e.exposure.Update(sampled, dt)

		case StageAssemble:
			e.recordAssemble(cmd)
		}
	}

	if _, err := e.fs.FinishFrame(e.fs.Stage()); err != nil {
		return fmt.Errorf("finish frame: %w", err)
	}

	if err := submit(cmd); err != nil {
		return &FatalError{Op: "vkQueueSubmit", Err: err}
	}
	return nil
}

// fitShadowCascades fits a cascaded view-projection per directional light
// and stamps each light's atlas regions and light-space matrices, per
// §4.5: cascade splits from the camera, parallel per-(light,cascade)
// fitting, then an atlas layout shared across every light this frame.
func (e *Engine) fitShadowCascades(cam *Camera, directionals []DirectionalLight, numCascades int) []DirectionalLight {
	if len(directionals) == 0 || numCascades < 1 {
		return directionals
	}

	splits := cam.CascadeSplits(numCascades)
	lightDirs := make([]lin.V3, len(directionals))
	for i, d := range directionals {
		lightDirs[i] = lin.V3{X: float64(d.Direction[0]), Y: float64(d.Direction[1]), Z: float64(d.Direction[2])}
	}

	cascades, err := FitCascadesParallel(cam, lightDirs, splits)
	if err != nil {
		e.log.Warn("fit shadow cascades", "err", err)
		return directionals
	}

	atlas := NewAtlasLayout(len(directionals), numCascades)
	for i, d := range directionals {
		var regions [4][4]float32
		for c := 0; c < numCascades; c++ {
			regions[c] = atlas.Region(i, c)
		}
		directionals[i] = BuildDirectionalLight(d, cascades[i], splits, regions)
	}
	return directionals
}

// recordForwardPass partitions visible nodes, sorts transparents on their
// own goroutine while opaque draws record, then records the sorted
// transparents into the same forward subpass (§4.6: "materials with
// transparent blending participate after opaque materials within the
// same forward subpass").
func (e *Engine) recordForwardPass(cam *Camera) {
	opaque, transparent := PartitionVisible(e.tree, cam)
	sorted := SortTransparentAsync(transparent)

	if e.render.Materials == nil {
		<-sorted
		return
	}
	if err := RecordForward(e.fs, e.render.Materials, opaque, e.indexCounts(opaque)); err != nil {
		e.log.Warn("record forward opaque", "err", err)
	}
	ordered := <-sorted
	if err := RecordForward(e.fs, e.render.Materials, ordered, e.indexCounts(ordered)); err != nil {
		e.log.Warn("record forward transparent", "err", err)
	}
}

// indexCounts resolves each draw item's mesh index count through the
// mesh provider hook, in draws order, matching RecordForward's parallel
// indexCounts parameter.
func (e *Engine) indexCounts(draws []DrawItem) []uint32 {
	if e.render.Meshes == nil {
		return nil
	}
	counts := make([]uint32, len(draws))
	for i, d := range draws {
		buf, err := e.render.Meshes.Mesh(asset.MeshID(d.Mesh.Mesh))
		if err != nil {
			e.log.Warn("resolve mesh", "mesh", d.Mesh.Mesh, "err", err)
			continue
		}
		counts[i] = buf.IndexCount
	}
	return counts
}

// recordAssemble combines the bloom pyramid down to its first level, then
// records the full-screen tone-map draw sampling every gbuffer input.
func (e *Engine) recordAssemble(cmd vkgpu.CommandBuffer) {
	bloomImage := e.gbuffer.BloomLevel(0)
	if e.render.CombineAdd != nil {
		bloomImage = e.bloom.Combine(cmd.Handle, e.render.CombineAdd)
	}
	if e.render.AssemblePipeline == nil {
		return
	}

	chain := e.gbuffer.LuminanceChain()
	var luminance vkgpu.Image
	if len(chain) > 0 {
		luminance = chain[len(chain)-1]
	}

	inputs := AssembleInputs{
		LDRColor:     e.gbuffer.LDRColor(),
		Bloom:        bloomImage,
		Luminance:    luminance,
		ShadowAtlas:  e.gbuffer.ShadowAtlas(),
		ForwardDepth: e.gbuffer.Depth(),
	}
	RecordAssemble(e.fs, e.render.AssemblePipeline, e.render.AssembleSets, inputs, e.settings.Render.Gamma, e.exposure.Current)
}

// isRecoverable reports whether err is one of the §7 recoverable
// presentation errors (swapchain out of date, surface lost).
func isRecoverable(err error) bool {
	return errors.Is(err, ErrSwapchainOutOfDate) || errors.Is(err, ErrSurfaceLost)
}

// Resize rebuilds the gbuffer's dimension-dependent attachments for a new
// surface extent, mirroring the teacher's Engine.Resize delegating to the
// graphics layer's Viewport call.
func (e *Engine) Resize(width, height int) {
	e.extent = vk.Extent2D{Width: uint32(width), Height: uint32(height)}
	e.gbuffer.Resize(e.extent, e.settings.Render.Bloom.Levels)
}

// Shutdown releases every GPU resource the engine owns, mirroring the
// teacher's Shutdown: dispose the stage, then the device.
func (e *Engine) Shutdown() {
	if e.gbuffer != nil {
		e.gbuffer.Destroy()
		e.gbuffer = nil
	}
}
