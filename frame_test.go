// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"errors"
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/stretchr/testify/assert"
)

func TestFrameStageStringCoversEveryStage(t *testing.T) {
	stages := []FrameStage{
		StageLightCompute, StageShadow, StageForward, StageHdrSort,
		StageBlurH, StageBlurV, StageComputeLuminosity, StageAssemble, StageFinished,
	}
	for _, s := range stages {
		assert.NotEqual(t, "Unknown", s.String())
	}
	assert.Equal(t, "Unknown", FrameStage(99).String())
}

func TestStageRenderPassOmitsComputeOnlyStages(t *testing.T) {
	_, ok := stageRenderPass[StageLightCompute]
	assert.False(t, ok)
	_, ok = stageRenderPass[StageComputeLuminosity]
	assert.False(t, ok)

	_, ok = stageRenderPass[StageForward]
	assert.True(t, ok)
	_, ok = stageRenderPass[StageShadow]
	assert.True(t, ok)
}

func TestNewFrameSystemStartsFinished(t *testing.T) {
	fs := NewFrameSystem(nil, nil, nil)
	assert.Equal(t, StageFinished, fs.Stage())
	assert.Equal(t, FrameStats{}, fs.Stats())
}

func TestNextPassAtFinishedIsNoOp(t *testing.T) {
	fs := NewFrameSystem(nil, nil, nil)
	next := fs.NextPass(StageFinished)
	assert.Equal(t, StageFinished, next)
}

func TestFinishFrameOutsideFinishedReturnsWrongStage(t *testing.T) {
	fs := NewFrameSystem(nil, nil, nil)
	fs.stage = StageForward
	_, err := fs.FinishFrame(StageForward)
	assert.True(t, errors.Is(err, ErrWrongStage))
}

func TestRecordDrawSkipsWhenStageMismatched(t *testing.T) {
	fs := NewFrameSystem(nil, nil, nil)
	fs.stage = StageShadow
	called := false
	fs.RecordDraw(StageForward, func(vk.CommandBuffer) { called = true })
	assert.False(t, called)
	assert.Equal(t, 0, fs.Stats().DrawCalls)
}

func TestAddVerticesAndSetLightsCulledAccrue(t *testing.T) {
	fs := NewFrameSystem(nil, nil, nil)
	fs.AddVertices(10)
	fs.AddVertices(5)
	fs.SetLightsCulled(3)
	assert.Equal(t, 15, fs.Stats().Vertices)
	assert.Equal(t, 3, fs.Stats().LightsCulled)
}
