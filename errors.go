// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import "errors"

// errors.go defines the sentinel and typed errors returned by the core,
// following the frame orchestration error-handling design: GPU-recoverable
// conditions are distinguished from caller-visible scene-tree errors and
// from fatal driver failures.

// Sentinel errors. Use errors.Is to test for these; operations that wrap
// additional context do so with fmt.Errorf("...: %w", err).
var (
	// ErrNotFound is returned when a scene tree lookup (get_node, add's
	// parent lookup, release) cannot find the named node.
	ErrNotFound = errors.New("kestrel: node not found")

	// ErrDuplicateName is returned by add/add_at_root when a sibling
	// with the requested name already exists.
	ErrDuplicateName = errors.New("kestrel: duplicate sibling name")

	// ErrWrongStage is returned by frame state machine operations invoked
	// outside the stage that permits them (finish_frame outside Finished).
	// A draw submitted in the wrong stage is logged and skipped by
	// RecordDraw instead.
	ErrWrongStage = errors.New("kestrel: frame state machine in wrong stage")

	// ErrSwapchainOutOfDate means the swapchain no longer matches the
	// surface extent. Recovered by rebuilding the swapchain and skipping
	// the current frame.
	ErrSwapchainOutOfDate = errors.New("kestrel: swapchain out of date")

	// ErrSurfaceLost means the presentation surface became invalid.
	// Recovered by aborting the frame and retrying on the next loop
	// iteration.
	ErrSurfaceLost = errors.New("kestrel: surface lost")

	// ErrResourceAllocationFailure means a descriptor or buffer pool could
	// not satisfy an allocation this frame. The frame is dropped; the
	// next frame retries.
	ErrResourceAllocationFailure = errors.New("kestrel: resource allocation failure")
)

// FatalError wraps a driver-level error from a required GPU submission.
// Fatal errors terminate the render loop; they are never recovered.
type FatalError struct {
	Op  string // the submission that failed, e.g. "vkQueueSubmit"
	Err error
}

func (e *FatalError) Error() string { return "kestrel: fatal: " + e.Op + ": " + e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }
