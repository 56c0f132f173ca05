// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package device provides the window-surface and input-thread contracts
// that are external collaborators per spec §1: a Surface interface for
// native window/presentation queries, and a mutex-protected KeyMap polled
// by an input thread per §5. Generalized from the teacher's device.New /
// Device interface (device/device.go), which wraps OS window and input
// polling behind one small interface with an Update-returns-Pressed loop;
// this package splits that into the surface query contract the render
// thread needs and the polling loop/key-map the input thread owns.
package device

import (
	"sync"
	"time"
)

// Extent is a window's usable drawing size, analogous to the teacher's
// Device.Size() excluding window trim.
type Extent struct {
	Width, Height int
}

// PresentMode selects how the swapchain presents images.
type PresentMode uint8

const (
	PresentFIFO PresentMode = iota
	PresentImmediate
)

// Surface is the external collaborator boundary for window/presentation
// queries (§6): extent, supported present modes, supported formats.
// Production code supplies a Surface backed by the native windowing
// layer; tests supply a fake.
type Surface interface {
	Extent() Extent
	SupportsPresentMode(mode PresentMode) bool
	Formats() []uint32 // native format enums, opaque to this package.
}

// ChoosePresentMode implements §6's request policy: FIFO when vsync is
// on, otherwise Immediate if the surface supports it, falling back to
// FIFO with the returned ok=false warning flag.
func ChoosePresentMode(s Surface, vsync bool) (mode PresentMode, ok bool) {
	if vsync {
		return PresentFIFO, true
	}
	if s.SupportsPresentMode(PresentImmediate) {
		return PresentImmediate, true
	}
	return PresentFIFO, false
}

// KeyMap is the mutex-protected shared key-state the input thread writes
// and the main loop reads, per §5. A positive value is how many polls
// the key has been held; a negative value marks a release event, mirroring
// the teacher's Pressed.Down duration convention.
type KeyMap struct {
	mu      sync.Mutex
	down    map[int]int
	mx, my  int
	scroll  int
	focus   bool
	resized bool
}

// NewKeyMap returns an empty key-map.
func NewKeyMap() *KeyMap {
	return &KeyMap{down: map[int]int{}}
}

// Set records a key transition; called only by the input thread.
func (k *KeyMap) Set(key, duration int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.down[key] = duration
}

// SetMouse records the current mouse location and scroll delta.
func (k *KeyMap) SetMouse(x, y, scroll int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.mx, k.my, k.scroll = x, y, scroll
}

// SetFocus records window focus/resize flags.
func (k *KeyMap) SetFocus(focus, resized bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.focus, k.resized = focus, resized
}

// Snapshot clones the current key-state for a reader (§5: "readers
// always clone-out the needed subset to release the lock before GPU
// work").
type Snapshot struct {
	Down           map[int]int
	Mx, My, Scroll int
	Focus, Resized bool
}

// Snapshot returns a detached copy of the current state.
func (k *KeyMap) Snapshot() Snapshot {
	k.mu.Lock()
	defer k.mu.Unlock()
	down := make(map[int]int, len(k.down))
	for key, dur := range k.down {
		down[key] = dur
	}
	return Snapshot{Down: down, Mx: k.mx, My: k.my, Scroll: k.scroll, Focus: k.focus, Resized: k.resized}
}

// EndFlag is the shared ShouldEnd/Ended pair §5 describes: the input
// thread observes ShouldEnd at the top of each poll; the render loop
// polls Ended and returns on it.
type EndFlag struct {
	mu      sync.Mutex
	should  bool
	ended   bool
}

// RequestEnd sets ShouldEnd, observed by the input thread's next poll.
func (e *EndFlag) RequestEnd() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.should = true
}

// ShouldEnd reports whether RequestEnd has been called.
func (e *EndFlag) ShouldEnd() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.should
}

// MarkEnded is called once by the input thread after it exits its poll
// loop, signalling the render loop to stop.
func (e *EndFlag) MarkEnded() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ended = true
}

// Ended reports whether the input thread has shut down.
func (e *EndFlag) Ended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ended
}

// Poller is the native per-OS event source the input thread drains each
// iteration; analogous to the teacher's Device.Update(), but split out so
// this package stays free of platform build tags.
type Poller interface {
	Poll() Snapshot
	MaxRateHz() float64
}

// RunInputLoop polls src at up to its MaxRateHz, writing results into keys
// until end.ShouldEnd() is observed, then marks end.Ended and returns.
// Intended to run on its own goroutine (§5's input thread).
func RunInputLoop(src Poller, keys *KeyMap, end *EndFlag) {
	defer end.MarkEnded()
	var last time.Time
	for !end.ShouldEnd() {
		if hz := src.MaxRateHz(); hz > 0 {
			period := time.Duration(float64(time.Second) / hz)
			if !last.IsZero() {
				if wait := period - time.Since(last); wait > 0 {
					time.Sleep(wait)
				}
			}
			last = time.Now()
		}

		snap := src.Poll()
		keys.mu.Lock()
		keys.down = snap.Down
		keys.mx, keys.my, keys.scroll = snap.Mx, snap.My, snap.Scroll
		keys.focus, keys.resized = snap.Focus, snap.Resized
		keys.mu.Unlock()
	}
}
