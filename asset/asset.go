// Copyright © 2024 Kestrel Project Contributors.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package asset specifies the external mesh/material/texture/scene
// provider contracts the core consumes but never implements (spec §6):
// loading, caching, and decoding assets (glTF import, texture decode,
// shader compilation) stay an external collaborator, the same way the
// teacher's assets type mediates between vu/load and the render/audio
// subsystems (asset.go's assets struct) without the engine core ever
// touching a file on disk itself.
package asset

import "github.com/kestrel-engine/kestrel/vkgpu"

// MeshID and MaterialID are opaque handles the core carries through to
// draw submission without dereferencing, mirroring the teacher's pattern
// of caching loaded resources behind a depot and handing callers a
// reference rather than the data itself (asset.go's asset/depot pair).
type MeshID uint32
type MaterialID uint32

// MeshBuffers is the GPU-resident vertex/index buffer pair for a loaded
// mesh, in the fixed interleaved layout vertex.go encodes.
type MeshBuffers struct {
	VertexBuffer vkgpu.Image // placeholder for a vk.Buffer-backed resource.
	IndexBuffer  vkgpu.Image
	IndexCount   uint32
}

// MeshProvider resolves a MeshID to its GPU buffers, loading and caching
// on first request.
type MeshProvider interface {
	Mesh(id MeshID) (MeshBuffers, error)
}

// MaterialProvider resolves a MaterialID to its texture descriptor set
// and factor descriptor set (§4.6's "material textures" and "material
// factors" descriptor sets), loading and caching on first request.
type MaterialProvider interface {
	Textures(id MaterialID) (vkgpu.DescriptorSet, error)
	Factors(id MaterialID) (vkgpu.DescriptorSet, error)
	// Transparent reports whether id's material uses alpha blending,
	// the opacity flag §4.6's opaque/transparent partition reads.
	Transparent(id MaterialID) bool
}

// SceneLoader populates a scene tree from an external description (level
// file, glTF document). The core only consumes the result: nodes, their
// kind, transform and mesh/light payload; it never parses a file format
// itself.
type SceneLoader interface {
	// Load reads the scene at path and returns one entry per node to add,
	// in parent-before-child order, ready for Tree.Add.
	Load(path string) ([]SceneNode, error)
}

// SceneNode is one entry a SceneLoader produces: enough to drive a single
// Tree.Add or Tree.AddAtRoot call.
type SceneNode struct {
	ParentPath string
	Name       string
	Kind       uint8 // mirrors kestrel.Kind; kept untyped here to avoid an import cycle.
	Mesh       MeshID
	Material   MaterialID
}
