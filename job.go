// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import "github.com/kestrel-engine/kestrel/math/lin"

// job.go describes queued scene-tree mutations. Jobs are data, not calls:
// they queue on a node and are drained by Tree.Update, which applies each
// job to the node's attributes and produces a propagated job pushed onto
// every child's queue. See Tree.Update for the propagation rules.

// JobKind identifies the operation a Job performs.
type JobKind uint8

const (
	JobMove JobKind = iota
	JobRotate
	JobRotateAroundPoint
	JobScale
)

// Job is a single queued transform mutation.
//   - Move:              Vec is a world-space translation delta.
//   - Rotate:             Vec is euler degrees about X, Y, Z.
//   - RotateAroundPoint:  Vec is euler degrees, Pivot is the world point
//     to revolve around.
//   - Scale:              Vec is a per-axis scale multiplier; the node's
//     single uniform scale factor is updated by the average of the three
//     components (see DESIGN.md for why Job.Scale carries a vec3 against
//     an attribute documented as a uniform scalar).
type Job struct {
	Kind  JobKind
	Vec   lin.V3
	Pivot lin.V3
}

// Move queues a world-space translation.
func Move(x, y, z float64) Job { return Job{Kind: JobMove, Vec: lin.V3{X: x, Y: y, Z: z}} }

// Rotate queues a rotation, in euler degrees, about the node's own
// position. Descendants revolve around that position (see
// RotateAroundPoint propagation).
func Rotate(x, y, z float64) Job { return Job{Kind: JobRotate, Vec: lin.V3{X: x, Y: y, Z: z}} }

// RotateAroundPoint queues a rotation, in euler degrees, about an
// arbitrary world-space pivot.
func RotateAroundPoint(x, y, z, px, py, pz float64) Job {
	return Job{Kind: JobRotateAroundPoint, Vec: lin.V3{X: x, Y: y, Z: z}, Pivot: lin.V3{X: px, Y: py, Z: pz}}
}

// Scale queues a per-axis scale multiplier.
func Scale(x, y, z float64) Job { return Job{Kind: JobScale, Vec: lin.V3{X: x, Y: y, Z: z}} }

// propagate applies job to attrs in place and returns the job pushed onto
// each child's queue, following the §4.1 propagation rules:
//
//	Move(t)              -> children receive Move(t)
//	Rotate(r) at p        -> children receive RotateAroundPoint(r, p)
//	RotateAroundPoint(r,q) -> children receive the same
//	Scale(s)              -> children receive Scale(s)
func propagate(a *Attrs, j Job) Job {
	switch j.Kind {
	case JobMove:
		a.Transform.Loc.X += j.Vec.X
		a.Transform.Loc.Y += j.Vec.Y
		a.Transform.Loc.Z += j.Vec.Z
		return j

	case JobRotate:
		pivot := lin.V3{X: a.Transform.Loc.X, Y: a.Transform.Loc.Y, Z: a.Transform.Loc.Z}
		spinRot(a, j.Vec)
		return Job{Kind: JobRotateAroundPoint, Vec: j.Vec, Pivot: pivot}

	case JobRotateAroundPoint:
		revolveAroundPivot(a, j.Vec, j.Pivot)
		return j

	case JobScale:
		avg := (j.Vec.X + j.Vec.Y + j.Vec.Z) / 3
		if avg == 0 {
			avg = 1
		}
		a.Transform.Scale *= avg
		return j

	default:
		return j
	}
}

// spinRot rotates a node's own orientation in place by euler degrees r,
// leaving its world location unchanged.
func spinRot(a *Attrs, r lin.V3) {
	q := a.Transform.Rot
	if r.X != 0 {
		rot := lin.NewQ().SetAa(1, 0, 0, lin.Rad(r.X))
		q.Mult(rot, q)
	}
	if r.Y != 0 {
		rot := lin.NewQ().SetAa(0, 1, 0, lin.Rad(r.Y))
		q.Mult(rot, q)
	}
	if r.Z != 0 {
		rot := lin.NewQ().SetAa(0, 0, 1, lin.Rad(r.Z))
		q.Mult(rot, q)
	}
}

// revolveAroundPivot rotates a node's world location around an external
// pivot by euler degrees r, and spins its own orientation by the same r.
func revolveAroundPivot(a *Attrs, r, pivot lin.V3) {
	ox := a.Transform.Loc.X - pivot.X
	oy := a.Transform.Loc.Y - pivot.Y
	oz := a.Transform.Loc.Z - pivot.Z

	rot := lin.NewQI()
	if r.X != 0 {
		rot.Mult(lin.NewQ().SetAa(1, 0, 0, lin.Rad(r.X)), rot)
	}
	if r.Y != 0 {
		rot.Mult(lin.NewQ().SetAa(0, 1, 0, lin.Rad(r.Y)), rot)
	}
	if r.Z != 0 {
		rot.Mult(lin.NewQ().SetAa(0, 0, 1, lin.Rad(r.Z)), rot)
	}

	nx, ny, nz := lin.MultSQ(ox, oy, oz, rot)
	a.Transform.Loc.X = pivot.X + nx
	a.Transform.Loc.Y = pivot.Y + ny
	a.Transform.Loc.Z = pivot.Z + nz
	a.Transform.Rot.Mult(rot, a.Transform.Rot)
}
