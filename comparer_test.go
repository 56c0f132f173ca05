// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kestrel-engine/kestrel/math/lin"
)

func TestNilComparerMatchesEverything(t *testing.T) {
	var c *Comparer
	n := &Node{Attrs: Attrs{Transform: NewTransform()}}
	assert.True(t, c.Matches(n))
}

func TestComparerKindFilter(t *testing.T) {
	n := &Node{Attrs: Attrs{Transform: NewTransform()}, Value: Value{Kind: KindMesh}}
	c := &Comparer{Kinds: NewKindSet(KindMesh), HasKinds: true}
	assert.True(t, c.Matches(n))

	c2 := &Comparer{Kinds: NewKindSet(KindCamera), HasKinds: true}
	assert.False(t, c2.Matches(n))
}

func TestComparerBoolFlags(t *testing.T) {
	n := &Node{Attrs: Attrs{Transform: NewTransform(), IsTransparent: true, HideInGame: false}}
	assert.True(t, (&Comparer{IsTransparent: boolPtr(true)}).Matches(n))
	assert.False(t, (&Comparer{IsTransparent: boolPtr(false)}).Matches(n))
	assert.True(t, (&Comparer{HideInGame: boolPtr(false)}).Matches(n))
}

func TestComparerCombinesAllSetPredicates(t *testing.T) {
	n := &Node{Attrs: Attrs{Transform: NewTransform(), IsEmissive: true}, Value: Value{Kind: KindPointLight}}
	c := &Comparer{
		Kinds:      NewKindSet(KindPointLight),
		HasKinds:   true,
		IsEmissive: boolPtr(true),
	}
	assert.True(t, c.Matches(n))

	c.IsEmissive = boolPtr(false)
	assert.False(t, c.Matches(n))
}

func TestScreenCoverageRejectsEmptyBounds(t *testing.T) {
	n := &Node{Attrs: Attrs{Transform: NewTransform(), Bound: lin.NewAABB()}}
	c := &Comparer{ScreenCoverage: &ScreenCoverageFilter{Bias: 0, ViewProj: lin.NewM4I()}}
	assert.False(t, c.Matches(n))
}

func TestScreenCoverageAcceptsLargeBoundsAtZeroBias(t *testing.T) {
	n := &Node{Attrs: Attrs{Transform: NewTransform(), Bound: lin.AABBFromCenter(0, 0, 0.5, 0.2, 0.2, 0.2)}}
	c := &Comparer{ScreenCoverage: &ScreenCoverageFilter{Bias: 0, ViewProj: lin.NewM4I()}}
	assert.True(t, c.Matches(n))
}
