// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kestrel-engine/kestrel/vkgpu"
)

func TestAssemblePushConstantsPacksGammaAndExposure(t *testing.T) {
	buf := assemblePushConstants(2.2, 1.5)
	require := assert.New(t)
	require.Len(buf, 8)

	gamma := math.Float32frombits(binary.LittleEndian.Uint32(buf[0:]))
	exposure := math.Float32frombits(binary.LittleEndian.Uint32(buf[4:]))
	require.InDelta(float64(gamma), 2.2, 1e-6)
	require.InDelta(float64(exposure), 1.5, 1e-6)
}

func TestRecordAssembleSkipsWhenStageMismatched(t *testing.T) {
	fs := NewFrameSystem(nil, nil, nil)
	fs.stage = StageForward // assemble expects StageAssemble.

	RecordAssemble(fs, &vkgpu.Pipeline{}, nil, AssembleInputs{}, 2.2, 1.0)
	assert.Equal(t, 0, fs.Stats().DrawCalls)
}
