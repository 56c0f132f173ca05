// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package device

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct {
	extent    Extent
	immediate bool
}

func (f fakeSurface) Extent() Extent                          { return f.extent }
func (f fakeSurface) SupportsPresentMode(m PresentMode) bool   { return m == PresentImmediate && f.immediate }
func (f fakeSurface) Formats() []uint32                        { return []uint32{1} }

func TestChoosePresentModePrefersFIFOWhenVsyncOn(t *testing.T) {
	s := fakeSurface{immediate: true}
	mode, ok := ChoosePresentMode(s, true)
	assert.Equal(t, PresentFIFO, mode)
	assert.True(t, ok)
}

func TestChoosePresentModeFallsBackToImmediate(t *testing.T) {
	s := fakeSurface{immediate: true}
	mode, ok := ChoosePresentMode(s, false)
	assert.Equal(t, PresentImmediate, mode)
	assert.True(t, ok)
}

func TestChoosePresentModeWarnsWhenImmediateUnsupported(t *testing.T) {
	s := fakeSurface{immediate: false}
	mode, ok := ChoosePresentMode(s, false)
	assert.Equal(t, PresentFIFO, mode)
	assert.False(t, ok)
}

func TestKeyMapSnapshotIsDetachedCopy(t *testing.T) {
	k := NewKeyMap()
	k.Set(42, 3)
	k.SetMouse(10, 20, -1)
	k.SetFocus(true, false)

	snap := k.Snapshot()
	assert.Equal(t, 3, snap.Down[42])
	assert.Equal(t, 10, snap.Mx)
	assert.True(t, snap.Focus)

	k.Set(42, 99)
	assert.Equal(t, 3, snap.Down[42]) // earlier snapshot unaffected by later writes.
}

func TestEndFlagRequestAndMark(t *testing.T) {
	e := &EndFlag{}
	assert.False(t, e.ShouldEnd())
	e.RequestEnd()
	assert.True(t, e.ShouldEnd())

	assert.False(t, e.Ended())
	e.MarkEnded()
	assert.True(t, e.Ended())
}

type countingPoller struct {
	calls int32
	stopAfter int32
	end   *EndFlag
}

func (p *countingPoller) Poll() Snapshot {
	n := atomic.AddInt32(&p.calls, 1)
	if n >= p.stopAfter {
		p.end.RequestEnd()
	}
	return Snapshot{Mx: int(n)}
}

func (p *countingPoller) MaxRateHz() float64 { return 1000 }

func TestRunInputLoopWritesSnapshotsUntilEndRequested(t *testing.T) {
	end := &EndFlag{}
	poller := &countingPoller{stopAfter: 5, end: end}
	keys := NewKeyMap()

	done := make(chan struct{})
	go func() {
		RunInputLoop(poller, keys, end)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunInputLoop did not return after end was requested")
	}

	require.True(t, end.Ended())
	assert.GreaterOrEqual(t, int(atomic.LoadInt32(&poller.calls)), 5)
}
