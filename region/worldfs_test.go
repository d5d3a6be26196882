package region

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ridgeline-games/voxelstream/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedWorld(t *testing.T, root, name string, size uint32) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, WriteWorldInfo(dir, size))
}

func TestWorldFileSystem_SetWorldReadsSize(t *testing.T) {
	root := t.TempDir()
	seedWorld(t, root, "Alpha", 64)

	wfs := NewWorldFileSystem(root)
	size, err := wfs.SetWorld("Alpha")
	require.NoError(t, err)
	assert.Equal(t, uint32(64), size)

	assert.DirExists(t, filepath.Join(root, tempWorldDir))
}

func TestWorldFileSystem_SetWorldTwiceWithoutSaveErrors(t *testing.T) {
	root := t.TempDir()
	seedWorld(t, root, "Alpha", 64)

	wfs := NewWorldFileSystem(root)
	_, err := wfs.SetWorld("Alpha")
	require.NoError(t, err)

	_, err = wfs.SetWorld("Alpha")
	assert.Error(t, err)
}

func TestWorldFileSystem_EditsInvisibleUntilSave(t *testing.T) {
	root := t.TempDir()
	seedWorld(t, root, "Alpha", 8)

	wfs := NewWorldFileSystem(root)
	_, err := wfs.SetWorld("Alpha")
	require.NoError(t, err)

	pos := voxel.Pos{X: 0, Y: 0, Z: 0}
	require.NoError(t, wfs.AddRegionFileReference(pos))
	wfs.WriteChunkData(pos, []byte{1, 32})
	require.NoError(t, wfs.RemoveRegionFileReference(pos))

	// The saved world tree has no region file yet — only the temp tree does.
	assert.NoFileExists(t, filepath.Join(root, "Alpha", regionFileName(0, 0, 0)))

	require.NoError(t, wfs.SaveWorld())
	assert.FileExists(t, filepath.Join(root, "Alpha", regionFileName(0, 0, 0)))
	assert.NoDirExists(t, filepath.Join(root, tempWorldDir))
}

func TestWorldFileSystem_DiscardLeavesSavedWorldUntouched(t *testing.T) {
	root := t.TempDir()
	seedWorld(t, root, "Alpha", 8)

	wfs := NewWorldFileSystem(root)
	_, err := wfs.SetWorld("Alpha")
	require.NoError(t, err)

	pos := voxel.Pos{X: 0, Y: 0, Z: 0}
	require.NoError(t, wfs.AddRegionFileReference(pos))
	wfs.WriteChunkData(pos, []byte{1, 32})
	require.NoError(t, wfs.RemoveRegionFileReference(pos))

	require.NoError(t, wfs.Discard())
	assert.NoFileExists(t, filepath.Join(root, "Alpha", regionFileName(0, 0, 0)))
	assert.NoDirExists(t, filepath.Join(root, tempWorldDir))
}

func TestWorldFileSystem_RefCountingSharesOneRegionFile(t *testing.T) {
	root := t.TempDir()
	seedWorld(t, root, "Alpha", 8)

	wfs := NewWorldFileSystem(root)
	_, err := wfs.SetWorld("Alpha")
	require.NoError(t, err)

	a := voxel.Pos{X: 0, Y: 0, Z: 0}
	b := voxel.Pos{X: 1, Y: 0, Z: 0} // same region as a

	require.NoError(t, wfs.AddRegionFileReference(a))
	require.NoError(t, wfs.AddRegionFileReference(b))

	assert.Len(t, wfs.regions, 1, "both chunks share one resident region file")

	require.NoError(t, wfs.RemoveRegionFileReference(a))
	assert.Len(t, wfs.regions, 1, "region stays resident while b still references it")

	require.NoError(t, wfs.RemoveRegionFileReference(b))
	assert.Len(t, wfs.regions, 0, "region closes once its last reference drops")
}

func TestRegionCoord_HandlesNegativeChunkCoords(t *testing.T) {
	rc := regionCoord(voxel.Pos{X: -1, Y: 0, Z: 0})
	assert.Equal(t, int32(-1), rc.X)

	local := regionLocalCoord(voxel.Pos{X: -1, Y: 0, Z: 0}, rc)
	assert.Equal(t, int32(RegionSize-1), local.X)
}
