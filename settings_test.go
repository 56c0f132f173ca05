// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettingsClampedAlready(t *testing.T) {
	s := DefaultSettings()
	before := s
	s.clamp()
	assert.Equal(t, before.Render.MSAA, s.Render.MSAA)
	assert.Equal(t, before.Render.Anisotropy, s.Render.Anisotropy)
}

func TestClampPow2(t *testing.T) {
	assert.Equal(t, 1, clampPow2(0, 1, 16, 1))
	assert.Equal(t, 4, clampPow2(4, 1, 16, 1))
	assert.Equal(t, 4, clampPow2(5, 1, 16, 1))
	assert.Equal(t, 16, clampPow2(32, 1, 16, 1))
}

func TestClampBloomFirstLevel(t *testing.T) {
	s := DefaultSettings()
	s.Render.Bloom.Levels = 3
	s.Render.Bloom.FirstBloomLevel = 9
	s.clamp()
	assert.Equal(t, 2, s.Render.Bloom.FirstBloomLevel)
}

func TestClampCascadeCount(t *testing.T) {
	s := DefaultSettings()
	s.Render.Lights.Directional.NumCascades = 0
	s.clamp()
	assert.Equal(t, 1, s.Render.Lights.Directional.NumCascades)

	s.Render.Lights.Directional.NumCascades = 9
	s.clamp()
	assert.Equal(t, 4, s.Render.Lights.Directional.NumCascades)
}

func TestClampCameraPlanes(t *testing.T) {
	s := DefaultSettings()
	s.Camera.Near = -1
	s.Camera.Far = -1
	s.clamp()
	assert.Equal(t, 0.1, s.Camera.Near)
	assert.Greater(t, s.Camera.Far, s.Camera.Near)
}

func TestLoadSaveSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	want := DefaultSettings()
	want.Render.MSAA = 8
	require.NoError(t, want.Save(path))

	got, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, want.Render.MSAA, got.Render.MSAA)
	assert.Equal(t, want.Window.Width(), got.Window.Width())
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestFreezeLightsOnFirstRead(t *testing.T) {
	s := DefaultSettings()
	first := s.MaxLights()
	s.Render.Lights.MaxPoint = 1 // mutate after the freeze-on-read.
	second := s.MaxLights()
	assert.Equal(t, first, second)
	assert.NotEqual(t, 1, second.MaxPoint)
}

func TestFreezeIsIdempotent(t *testing.T) {
	s := DefaultSettings()
	s.Freeze()
	frozen := s.MaxLights()
	s.Freeze() // second call must not reset the snapshot.
	assert.Equal(t, frozen, s.MaxLights())
}

