package region

import (
	"path/filepath"
	"testing"

	"github.com/ridgeline-games/voxelstream/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *RegionFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "x0y0z0.vgr")
	rf, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { rf.Close() })
	return rf
}

func bytesOf(n int, fill byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = fill
	}
	return b
}

func TestRegionFile_FreshChunkIsAbsent(t *testing.T) {
	rf := openTemp(t)
	length, _ := rf.Locate(voxel.Pos{X: 0, Y: 0, Z: 0})
	assert.Equal(t, uint32(0), length)
}

func TestRegionFile_WriteAndReadBack(t *testing.T) {
	rf := openTemp(t)
	pos := voxel.Pos{X: 1, Y: 2, Z: 3}
	data := bytesOf(100, 0xAB)

	rf.WriteStream(pos, data)

	length, offset := rf.Locate(pos)
	require.Equal(t, uint32(len(data)), length)

	out := make([]byte, length)
	require.True(t, rf.ReadStream(offset, out))
	assert.Equal(t, data, out)
}

func TestRegionFile_InPlaceOverwriteSameSectorCount(t *testing.T) {
	rf := openTemp(t)
	pos := voxel.Pos{X: 0, Y: 0, Z: 0}

	rf.WriteStream(pos, bytesOf(100, 1))
	_, offset1 := rf.Locate(pos)

	rf.WriteStream(pos, bytesOf(200, 2))
	length2, offset2 := rf.Locate(pos)

	assert.Equal(t, offset1, offset2, "in-place write must not move the chunk's sector")
	out := make([]byte, length2)
	require.True(t, rf.ReadStream(offset2, out))
	assert.Equal(t, bytesOf(200, 2), out)
}

func TestRegionFile_RelocatePreservesOtherChunks(t *testing.T) {
	rf := openTemp(t)

	posA := voxel.Pos{X: 0, Y: 0, Z: 0}
	posB := voxel.Pos{X: 0, Y: 0, Z: 1}

	rf.WriteStream(posA, bytesOf(100, 0xAA)) // 1 sector
	rf.WriteStream(posB, bytesOf(100, 0xBB)) // 1 sector

	// Force A to outgrow its single sector, triggering a relocate.
	bigData := bytesOf(5000, 0xCC) // needs 2 sectors
	rf.WriteStream(posA, bigData)

	lenB, offB := rf.Locate(posB)
	require.Equal(t, uint32(100), lenB)
	outB := make([]byte, lenB)
	require.True(t, rf.ReadStream(offB, outB))
	assert.Equal(t, bytesOf(100, 0xBB), outB, "relocation must not corrupt other chunks")

	lenA, offA := rf.Locate(posA)
	require.Equal(t, uint32(len(bigData)), lenA)
	outA := make([]byte, lenA)
	require.True(t, rf.ReadStream(offA, outA))
	assert.Equal(t, bigData, outA)
}

func TestRegionFile_ReopenPreservesTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x0y0z0.vgr")

	rf, err := Open(path)
	require.NoError(t, err)
	pos := voxel.Pos{X: 5, Y: 5, Z: 5}
	rf.WriteStream(pos, bytesOf(42, 0x7))
	require.NoError(t, rf.Close())

	rf2, err := Open(path)
	require.NoError(t, err)
	defer rf2.Close()

	length, offset := rf2.Locate(pos)
	require.Equal(t, uint32(42), length)
	out := make([]byte, length)
	require.True(t, rf2.ReadStream(offset, out))
	assert.Equal(t, bytesOf(42, 0x7), out)
}
