// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

package kestrel

import (
	"strconv"
	"testing"
)

// buildBenchTree populates a flat tree of n nodes cycling through every
// Kind, alternating transparency and shadow-casting, exercising
// copy_all_nodes over a range of comparer combinations the way the
// original's scene_tree_performance example benchmarked it.
func buildBenchTree(n int) *Tree {
	tr := NewTree()
	kinds := []Kind{KindMesh, KindCamera, KindPointLight, KindSpotLight, KindDirectionalLight}
	for i := 0; i < n; i++ {
		attrs := NewAttrs()
		attrs.IsTransparent = i%2 == 0
		attrs.CastShadow = i%3 == 0
		_, _ = tr.AddAtRoot("n"+strconv.Itoa(i), Value{Kind: kinds[i%len(kinds)]}, attrs)
	}
	return tr
}

func BenchmarkCopyAllNodesNoComparer(b *testing.B) {
	tr := buildBenchTree(10000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tr.CopyAllNodes(nil)
	}
}

func BenchmarkCopyAllNodesKindFilter(b *testing.B) {
	tr := buildBenchTree(10000)
	cmp := &Comparer{Kinds: NewKindSet(KindMesh), HasKinds: true}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tr.CopyAllNodes(cmp)
	}
}

func BenchmarkCopyAllNodesKindAndTransparencyFilter(b *testing.B) {
	tr := buildBenchTree(10000)
	transparent := true
	cmp := &Comparer{Kinds: NewKindSet(KindMesh), HasKinds: true, IsTransparent: &transparent}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tr.CopyAllNodes(cmp)
	}
}

func BenchmarkCopyAllNodesMultiKindAndShadowFilter(b *testing.B) {
	tr := buildBenchTree(10000)
	castShadow := true
	cmp := &Comparer{
		Kinds:      NewKindSet(KindPointLight, KindSpotLight, KindDirectionalLight),
		HasKinds:   true,
		CastShadow: &castShadow,
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tr.CopyAllNodes(cmp)
	}
}

func BenchmarkRebuildBoundsLargeFlatTree(b *testing.B) {
	tr := buildBenchTree(10000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.RebuildBounds()
	}
}
