package worldgen

import (
	"path/filepath"
	"testing"

	"github.com/ridgeline-games/voxelstream/region"
	"github.com/ridgeline-games/voxelstream/voxel"
	"github.com/ridgeline-games/voxelstream/worldgen/noise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constantNoise struct{ v float64 }

func (c constantNoise) Sample2D(x, z float64) float64 { return c.v }

func TestTerrainFor_HighestBandWins(t *testing.T) {
	bands := []AltitudeBand{
		{StartingHeight: 0, Block: 1},
		{StartingHeight: 10, Block: 2},
		{StartingHeight: 20, Block: 3},
	}
	g := NewGenerator(4, constantNoise{}, bands, 0, 16)

	assert.Equal(t, voxel.BlockID(1), terrainFor(g.Bands, 0))
	assert.Equal(t, voxel.BlockID(1), terrainFor(g.Bands, 9))
	assert.Equal(t, voxel.BlockID(2), terrainFor(g.Bands, 10))
	assert.Equal(t, voxel.BlockID(2), terrainFor(g.Bands, 19))
	assert.Equal(t, voxel.BlockID(3), terrainFor(g.Bands, 20))
	assert.Equal(t, voxel.Air, terrainFor(g.Bands, -1))
}

func TestMapValue_RemapsRange(t *testing.T) {
	assert.Equal(t, int32(0), mapValue(-1, 0, 16))
	assert.Equal(t, int32(16), mapValue(1, 0, 16))
}

func TestBuildChunk_ConstantHeightProducesFlatTerrain(t *testing.T) {
	g := NewGenerator(1, constantNoise{v: 0}, []AltitudeBand{{StartingHeight: 0, Block: 1}}, 16, 16)
	// constant noise sample 0 maps to height mapValue(0,16,16)=16
	data := g.BuildChunk(voxel.Pos{X: 0, Y: 0, Z: 0})

	// Row at y=0 should be solid (below height 16); at y=31 should be Air
	// (above height 16, since BuildChunk's chunk-local y IS world y here).
	// Every row is one full-length run, so row (y, x) is the pair at
	// byte offset (y*ChunkSize+x)*2.
	assert.NotEmpty(t, data)
	require.Len(t, data, voxel.ChunkSize*voxel.ChunkSize*2)
	assert.Equal(t, []byte{1, voxel.ChunkSize}, data[0:2])
	rowY31 := 31 * voxel.ChunkSize * 2
	assert.Equal(t, []byte{byte(voxel.Air), voxel.ChunkSize}, data[rowY31:rowY31+2])
}

func TestGenerator_GenerateWorldWritesReadableRegions(t *testing.T) {
	root := t.TempDir()
	g := NewGenerator(2, constantNoise{v: 1}, []AltitudeBand{{StartingHeight: 0, Block: 7}}, 0, 100)

	require.NoError(t, g.GenerateWorld(root, "Seeded"))

	dir := filepath.Join(root, "Seeded")
	assert.FileExists(t, filepath.Join(dir, region.WorldInfoFile))
	assert.FileExists(t, filepath.Join(dir, "x0y0z0.vgr"))

	rf, err := region.Open(filepath.Join(dir, "x0y0z0.vgr"))
	require.NoError(t, err)
	defer rf.Close()

	length, offset := rf.Locate(voxel.Pos{X: 0, Y: 0, Z: 0})
	require.Greater(t, length, uint32(0))
	out := make([]byte, length)
	require.True(t, rf.ReadStream(offset, out))
}
