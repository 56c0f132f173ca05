// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExposureHoldsMinimumWhenAutoDisabled(t *testing.T) {
	s := ExposureSettings{Min: 0.2, Max: 4, UpSpeed: 2, DownSpeed: 1, Target: 0.5, UseAuto: false}
	e := NewExposure(s)
	got := e.Update(10, 1.0/60)
	assert.Equal(t, 0.2, got)
	assert.Equal(t, 0.2, e.Current)
}

func TestExposureRampsTowardTarget(t *testing.T) {
	s := ExposureSettings{Min: 0.1, Max: 8, UpSpeed: 10, DownSpeed: 10, Target: 1, UseAuto: true}
	e := NewExposure(s)
	prev := e.Current
	got := e.Update(1, 1.0/60)
	assert.Greater(t, got, prev)
}

func TestExposureClampsToBounds(t *testing.T) {
	s := ExposureSettings{Min: 0.1, Max: 1, UpSpeed: 1000, DownSpeed: 1000, Target: 1, UseAuto: true}
	e := NewExposure(s)
	got := e.Update(1e-6, 10) // huge dt, huge target: should clamp at Max.
	assert.LessOrEqual(t, got, s.Max)
}

func TestClampf(t *testing.T) {
	assert.Equal(t, 0.0, clampf(-1, 0, 1))
	assert.Equal(t, 1.0, clampf(2, 0, 1))
	assert.Equal(t, 0.5, clampf(0.5, 0, 1))
}

func TestRamp(t *testing.T) {
	assert.Equal(t, 0.0, ramp(0, 0, 5, 1))
	assert.InDelta(t, 1, ramp(0, 1, 1000, 1), 0.01)
}
