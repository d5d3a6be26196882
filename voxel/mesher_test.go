package voxel

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidBlocks(id BlockID) []BlockID {
	blocks := make([]BlockID, BlocksPerChunk)
	for i := range blocks {
		blocks[i] = id
	}
	return blocks
}

func TestMeshBlocks_EmptyChunkProducesNoGeometry(t *testing.T) {
	var buf MeshBuffer
	MeshBlocks(make([]BlockID, BlocksPerChunk), mgl32.Vec3{}, &buf)
	assert.Empty(t, buf.Vertices)
	assert.Empty(t, buf.Indices)
}

func TestMeshBlocks_SolidChunkProducesExactlySixFaces(t *testing.T) {
	var buf MeshBuffer
	MeshBlocks(solidBlocks(1), mgl32.Vec3{}, &buf)

	// A fully solid chunk surrounded by "off-chunk air" exposes exactly
	// its six outer faces, each as one maximal CHUNK_SIZE x CHUNK_SIZE
	// quad: 6 quads * 4 vertices, 6 * 2 triangles.
	assert.Len(t, buf.Vertices, 6*4)
	assert.Len(t, buf.Indices, 6*6)
}

func TestMeshBlocks_Totality(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	blocks := make([]BlockID, BlocksPerChunk)
	for i := range blocks {
		blocks[i] = BlockID(rng.IntN(3))
	}

	var buf MeshBuffer
	MeshBlocks(blocks, mgl32.Vec3{}, &buf)

	require.Equal(t, 0, len(buf.Indices)%6, "indices must come in whole quads of 2 triangles")
	k := len(buf.Indices) / 6
	for _, idx := range buf.Indices {
		assert.Less(t, idx, uint32(4*k))
	}
}

func TestMeshBlocks_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 99))
	blocks := make([]BlockID, BlocksPerChunk)
	for i := range blocks {
		blocks[i] = BlockID(rng.IntN(5))
	}

	var a, b MeshBuffer
	MeshBlocks(blocks, mgl32.Vec3{1, 2, 3}, &a)
	MeshBlocks(blocks, mgl32.Vec3{1, 2, 3}, &b)

	require.Equal(t, len(a.Vertices), len(b.Vertices))
	for i := range a.Vertices {
		assert.Equal(t, a.Vertices[i], b.Vertices[i])
	}
	assert.Equal(t, a.Indices, b.Indices)
}

func TestMeshBlocks_TwoAdjacentBlocksShareNoFace(t *testing.T) {
	blocks := make([]BlockID, BlocksPerChunk)
	blocks[BlockIndex(0, 0, 0)] = 1
	blocks[BlockIndex(1, 0, 0)] = 1

	var buf MeshBuffer
	MeshBlocks(blocks, mgl32.Vec3{}, &buf)

	// Two touching solid blocks of the same ID never emit a face at
	// their shared interior interface; only their outer faces appear.
	for _, v := range buf.Vertices {
		id, _ := UnpackVertexAttrs(v.Packed)
		assert.Equal(t, BlockID(1), id)
	}
}
