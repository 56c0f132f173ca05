// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import "math"

// luminance.go implements auto-exposure (§4.7): blit-downsample the LDR
// image through a chain ending in a 1x1 image; a compute shader samples
// that pixel and updates a device-local {current, previous} luminosity
// buffer using new = clamp(ramp(prev -> target/sampled), min, max), where
// the ramp rate differs scaling up vs down.

// Exposure tracks the {current, previous} luminosity state across frames.
type Exposure struct {
	Current  float64
	previous float64
	settings ExposureSettings
}

// NewExposure returns exposure state seeded at settings' minimum.
func NewExposure(s ExposureSettings) *Exposure {
	return &Exposure{Current: s.Min, previous: s.Min, settings: s}
}

// Update advances exposure for one frame given the sampled 1x1 luminance
// value, per the §4.7 ramp formula. If auto-exposure is disabled, Current
// is held at the configured minimum (used as the constant exposure by
// Assemble).
func (e *Exposure) Update(sampledLuminance, dt float64) float64 {
	if !e.settings.UseAuto {
		e.Current = e.settings.Min
		return e.Current
	}
	if sampledLuminance <= 0 {
		sampledLuminance = 1e-4
	}
	target := e.settings.Target / sampledLuminance

	rate := e.settings.UpSpeed
	if target < e.previous {
		rate = e.settings.DownSpeed
	}
	ramped := ramp(e.previous, target, rate, dt)

	e.previous = e.Current
	e.Current = clampf(ramped, e.settings.Min, e.settings.Max)
	return e.Current
}

// ramp moves value exponentially toward target at the given rate over dt
// seconds: a higher rate converges faster.
func ramp(value, target, rate, dt float64) float64 {
	t := 1 - math.Exp(-rate*dt)
	return value + (target-value)*t
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
