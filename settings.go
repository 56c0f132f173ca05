// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

// settings.go replaces the teacher's functional-options Config (config.go)
// with the YAML-backed Settings struct §6 specifies. The teacher's
// clamp-at-set-time policy (see config.go's Size/Background option
// functions) is kept: LoadSettings clamps or ignores invalid numeric
// fields at load time rather than deferring validation to point of use.
// YAML decoding follows the same library the teacher uses to describe
// shader metadata (load/shd.go): gopkg.in/yaml.v3.

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BuildMode selects the engine's validation/debug posture.
type BuildMode string

const (
	BuildDebug             BuildMode = "Debug"
	BuildRelease           BuildMode = "Release"
	BuildReleaseWithDebug  BuildMode = "ReleaseWithDebug"
)

// WindowSettings describes the application window.
type WindowSettings struct {
	Dimensions    [2]int `yaml:"dimensions,flow"`
	Fullscreen    bool   `yaml:"fullscreen"`
	Monitor       int    `yaml:"monitor"`
	CursorVisible bool   `yaml:"cursor_visible"`
	CursorGrabbed bool   `yaml:"cursor_grabbed"`
}

// Width returns the window's configured width.
func (w WindowSettings) Width() int { return w.Dimensions[0] }

// Height returns the window's configured height.
func (w WindowSettings) Height() int { return w.Dimensions[1] }

// ExposureSettings configures auto-exposure.
type ExposureSettings struct {
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	UpSpeed   float64 `yaml:"up_speed"`
	DownSpeed float64 `yaml:"down_speed"`
	Target    float64 `yaml:"target"`
	UseAuto   bool    `yaml:"use_auto"`
}

// BloomSettings configures the separable-blur bloom pyramid.
type BloomSettings struct {
	Levels          int     `yaml:"levels"`
	FirstBloomLevel int     `yaml:"first_bloom_level"`
	Scale           float64 `yaml:"scale"`
	Strength        float64 `yaml:"strength"`
}

// DebugSettings configures optional overlay/debug rendering.
type DebugSettings struct {
	DrawBounds    bool `yaml:"draw_bounds"`
	LdrDebugLevel int  `yaml:"ldr_debug_level"`
	DebugView     int  `yaml:"debug_view"`
}

// DirectionalLightSettings configures cascaded shadow quality.
type DirectionalLightSettings struct {
	ShadowMapResolution int `yaml:"shadow_map_resolution"`
	NumCascades         int `yaml:"num_cascades"`
	PCFSamples          int `yaml:"pcf_samples"`
}

// LightSettings bounds the per-frame light counts. Max-light values
// freeze on first read (specialization-constant contract): see
// Settings.Freeze.
type LightSettings struct {
	MaxPoint       int                      `yaml:"max_point"`
	MaxDirectional int                      `yaml:"max_directional"`
	MaxSpot        int                      `yaml:"max_spot"`
	Directional    DirectionalLightSettings `yaml:"directional"`
}

// RenderSettings configures the rendering pipeline.
type RenderSettings struct {
	MSAA        int              `yaml:"msaa"`
	Anisotropy  int              `yaml:"anisotropy"`
	Vsync       bool             `yaml:"vsync"`
	Gamma       float64          `yaml:"gamma"`
	Exposure    ExposureSettings `yaml:"exposure"`
	Bloom       BloomSettings    `yaml:"bloom"`
	Debug       DebugSettings    `yaml:"debug"`
	Lights      LightSettings    `yaml:"lights"`
}

// CameraSettings bounds the near/far clip planes and the default vertical
// field of view used to drive the active camera (§4.2).
type CameraSettings struct {
	FOV  float64 `yaml:"fov"`
	Near float64 `yaml:"near"`
	Far  float64 `yaml:"far"`
}

// Settings is the engine-wide configuration object (§6). It is read
// through an exclusive lock by Engine; readers clone the subset they
// need and release the lock before GPU work (§9 Design Notes).
type Settings struct {
	Window       WindowSettings `yaml:"window"`
	BuildMode    BuildMode      `yaml:"build_mode"`
	CaptureFrame bool           `yaml:"capture_frame"`
	Render       RenderSettings `yaml:"render"`
	Camera       CameraSettings `yaml:"camera"`
	MaxInputHz   float64        `yaml:"max_input_speed_hz"`
	MaxFPS       float64        `yaml:"max_fps"`

	lightsFrozen bool
	frozenLights LightSettings
}

// DefaultSettings returns reasonable defaults so the engine runs even if
// no settings file is supplied, mirroring the teacher's configDefaults.
func DefaultSettings() Settings {
	return Settings{
		Window: WindowSettings{Dimensions: [2]int{1600, 900}, CursorVisible: true},
		BuildMode: BuildRelease,
		Render: RenderSettings{
			MSAA:       4,
			Anisotropy: 4,
			Vsync:      true,
			Gamma:      2.2,
			Exposure:   ExposureSettings{Min: 0.1, Max: 8, UpSpeed: 2, DownSpeed: 1, Target: 0.5},
			Bloom:      BloomSettings{Levels: 5, FirstBloomLevel: 1, Scale: 1, Strength: 0.6},
			Lights: LightSettings{
				MaxPoint: 512, MaxDirectional: 4, MaxSpot: 256,
				Directional: DirectionalLightSettings{ShadowMapResolution: 2048, NumCascades: 4, PCFSamples: 2},
			},
		},
		Camera:     CameraSettings{FOV: 60, Near: 0.1, Far: 1000},
		MaxInputHz: 250,
		MaxFPS:     144,
	}
}

// LoadSettings reads YAML from path into a Settings value starting from
// DefaultSettings, then clamps or ignores invalid numeric fields.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("load settings %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %q: %w", path, err)
	}
	s.clamp()
	return s, nil
}

// Save writes s to path as YAML.
func (s Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// clamp applies the same clamp-at-set-time policy the teacher's
// config.go Size/Background options apply: out-of-range or
// non-power-of-two numeric fields are clamped or ignored, never left to
// fail later at point of use.
func (s *Settings) clamp() {
	s.Render.MSAA = clampPow2(s.Render.MSAA, 1, 16, 1)
	s.Render.Anisotropy = clampPow2(s.Render.Anisotropy, 1, 16, 1)
	if s.Render.Bloom.Levels < 1 {
		s.Render.Bloom.Levels = 1
	}
	if s.Render.Bloom.FirstBloomLevel < 0 {
		s.Render.Bloom.FirstBloomLevel = 0
	}
	if s.Render.Bloom.FirstBloomLevel >= s.Render.Bloom.Levels {
		s.Render.Bloom.FirstBloomLevel = s.Render.Bloom.Levels - 1
	}
	if s.Render.Lights.Directional.NumCascades < 1 {
		s.Render.Lights.Directional.NumCascades = 1
	}
	if s.Render.Lights.Directional.NumCascades > 4 {
		s.Render.Lights.Directional.NumCascades = 4
	}
	if s.Camera.Near <= 0 {
		s.Camera.Near = 0.1
	}
	if s.Camera.Far <= s.Camera.Near {
		s.Camera.Far = s.Camera.Near + 1
	}
	if s.Camera.FOV <= 0 || s.Camera.FOV >= 180 {
		s.Camera.FOV = 60
	}
}

// clampPow2 rounds v down to the nearest power of two within [lo, hi],
// falling back to def if v is non-positive.
func clampPow2(v, lo, hi, def int) int {
	if v <= 0 {
		v = def
	}
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	p := 1
	for p*2 <= v {
		p *= 2
	}
	return p
}

// Freeze locks the current light-count maximums in place. Per §6, these
// values are specialization constants baked into the light/cluster
// compute shaders at pipeline-build time: changing them after the first
// read would require rebuilding pipelines the frame is already using, so
// MaxLights returns the frozen snapshot from here on.
func (s *Settings) Freeze() {
	if s.lightsFrozen {
		return
	}
	s.frozenLights = s.Render.Lights
	s.lightsFrozen = true
}

// MaxLights returns the frozen light-count maximums, freezing them on
// first call if Freeze hasn't been called explicitly.
func (s *Settings) MaxLights() LightSettings {
	if !s.lightsFrozen {
		s.Freeze()
	}
	return s.frozenLights
}
