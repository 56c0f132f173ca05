// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kestrel-engine/kestrel/math/lin"
)

func TestPropagateMoveTranslatesAndPropagatesUnchanged(t *testing.T) {
	a := &Attrs{Transform: NewTransform()}
	out := propagate(a, Move(1, 2, 3))

	assert.Equal(t, 1.0, a.Transform.Loc.X)
	assert.Equal(t, 2.0, a.Transform.Loc.Y)
	assert.Equal(t, 3.0, a.Transform.Loc.Z)
	assert.Equal(t, JobMove, out.Kind)
	assert.Equal(t, lin.V3{X: 1, Y: 2, Z: 3}, out.Vec)
}

func TestPropagateRotateEmitsRotateAroundPivot(t *testing.T) {
	a := &Attrs{Transform: NewTransform()}
	a.Transform.Loc = &lin.V3{X: 5, Y: 0, Z: 0}
	out := propagate(a, Rotate(0, 90, 0))

	assert.Equal(t, JobRotateAroundPoint, out.Kind)
	assert.Equal(t, lin.V3{X: 5, Y: 0, Z: 0}, out.Pivot)
}

func TestPropagateScaleAveragesAxesIntoUniformFactor(t *testing.T) {
	a := &Attrs{Transform: NewTransform()}
	propagate(a, Scale(2, 4, 6))
	assert.InDelta(t, 4.0, a.Transform.Scale, 1e-9) // (2+4+6)/3 = 4
}

func TestPropagateScaleZeroAverageIsNoOp(t *testing.T) {
	a := &Attrs{Transform: NewTransform()}
	propagate(a, Scale(1, -1, 0))
	assert.InDelta(t, 1.0, a.Transform.Scale, 1e-9) // original scale preserved.
}

func TestRevolveAroundPivotKeepsDistanceFromPivot(t *testing.T) {
	a := &Attrs{Transform: NewTransform()}
	a.Transform.Loc = &lin.V3{X: 1, Y: 0, Z: 0}
	pivot := lin.V3{X: 0, Y: 0, Z: 0}

	revolveAroundPivot(a, lin.V3{X: 0, Y: 90, Z: 0}, pivot)

	dist := a.Transform.Loc.X*a.Transform.Loc.X + a.Transform.Loc.Y*a.Transform.Loc.Y + a.Transform.Loc.Z*a.Transform.Loc.Z
	assert.InDelta(t, 1.0, dist, 1e-6)
}
