package chunkmgr

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/ridgeline-games/voxelstream/region"
	"github.com/ridgeline-games/voxelstream/streamio"
	"github.com/ridgeline-games/voxelstream/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	adds, removes int
}

func (s *fakeSink) Add(voxel.ColliderHandle)    { s.adds++ }
func (s *fakeSink) Remove(voxel.ColliderHandle) { s.removes++ }

type alwaysVisibleFrustum struct{}

func (alwaysVisibleFrustum) IsUnitAABBVisible(mgl32.Vec3, float32) bool { return true }

type fakeCamera struct {
	pos mgl32.Vec3
}

func (c fakeCamera) Position() mgl32.Vec3       { return c.pos }
func (c fakeCamera) Frustum() streamio.Frustum { return alwaysVisibleFrustum{} }

func uniformRLE(id voxel.BlockID) []byte {
	out := make([]byte, 0, voxel.ChunkSize*voxel.ChunkSize*2)
	for y := int32(0); y < voxel.ChunkSize; y++ {
		for x := int32(0); x < voxel.ChunkSize; x++ {
			out = append(out, byte(id), byte(voxel.ChunkSize))
		}
	}
	return out
}

// seedWorld writes a worldSize³-chunk world (in chunks) under root/name,
// every chunk uniformly id, plus its WorldInfo sidecar.
func seedWorld(t *testing.T, root, name string, worldSize uint32, id voxel.BlockID) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, region.WriteWorldInfo(dir, worldSize))

	rle := uniformRLE(id)
	opened := map[voxel.Pos]*region.RegionFile{}
	for x := int32(0); x < int32(worldSize); x++ {
		for y := int32(0); y < int32(worldSize); y++ {
			for z := int32(0); z < int32(worldSize); z++ {
				rc := voxel.Pos{X: x / region.RegionSize, Y: y / region.RegionSize, Z: z / region.RegionSize}
				rf, ok := opened[rc]
				if !ok {
					var err error
					rf, err = region.Open(filepath.Join(dir, "x0y0z0.vgr"))
					require.NoError(t, err)
					opened[rc] = rf
				}
				local := voxel.Pos{X: x % region.RegionSize, Y: y % region.RegionSize, Z: z % region.RegionSize}
				rf.WriteStream(local, rle)
			}
		}
	}
	for _, rf := range opened {
		require.NoError(t, rf.Close())
	}
}

func newTestManager(t *testing.T, worldsRoot string, v int32) *Manager {
	t.Helper()
	fs := region.NewWorldFileSystem(worldsRoot)
	m := New(Config{
		FS:           fs,
		Sink:         &fakeSink{},
		PoolCapacity: 4096,
		ViewDistance: v,
	})
	t.Cleanup(func() {
		if m.running.Load() {
			m.drainAndStop()
		}
	})
	return m
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.Fail(t, "condition not met within timeout")
}

func TestManager_SlotIndexingDimensions(t *testing.T) {
	m := newTestManager(t, t.TempDir(), 2)
	h := int32(2*2 + 1)
	u := int32(2 + 1)
	assert.Equal(t, int(h*h*u), len(m.chunks))
	assert.Equal(t, h, m.dimH)
	assert.Equal(t, u, m.dimU)
}

func TestManager_WorkingSetBoundingHolds(t *testing.T) {
	m := newTestManager(t, t.TempDir(), 3)
	loaded := 0
	for _, c := range m.chunks {
		if c.IsLoaded() {
			loaded++
		}
	}
	max := (2*3 + 1) * (2*3 + 1) * (3 + 1)
	assert.LessOrEqual(t, loaded, max)
}

func TestManager_LoadEditSaveReload(t *testing.T) {
	root := t.TempDir()
	seedWorld(t, root, "Fresh", 4, 1) // block id 1 everywhere

	m := newTestManager(t, root, 2)
	require.NoError(t, m.LoadWorld("Fresh"))

	cam := fakeCamera{pos: mgl32.Vec3{16, 16, 16}}
	waitFor(t, 5*time.Second, func() bool {
		m.Update(cam)
		return m.GetBlock(voxel.Pos{X: 0, Y: 0, Z: 0}) == voxel.BlockID(1)
	})

	m.SetBlock(voxel.Pos{X: 0, Y: 31, Z: 0}, voxel.BlockID(9))
	assert.Equal(t, voxel.BlockID(9), m.GetBlock(voxel.Pos{X: 0, Y: 31, Z: 0}))

	require.NoError(t, m.SaveWorld())

	m2 := newTestManager(t, root, 2)
	require.NoError(t, m2.LoadWorld("Fresh"))
	waitFor(t, 5*time.Second, func() bool {
		m2.Update(cam)
		return m2.GetBlock(voxel.Pos{X: 0, Y: 31, Z: 0}) == voxel.BlockID(9)
	})
}

func TestManager_SetBlockDedupsRebuildQueue(t *testing.T) {
	root := t.TempDir()
	seedWorld(t, root, "Fresh", 4, 0)

	m := newTestManager(t, root, 2)
	require.NoError(t, m.LoadWorld("Fresh"))

	cam := fakeCamera{pos: mgl32.Vec3{16, 16, 16}}
	waitFor(t, 5*time.Second, func() bool {
		m.Update(cam)
		_, _, _, ok := m.resolveSlot(voxel.Pos{X: 0, Y: 0, Z: 0})
		return ok
	})

	for i := 0; i < 100; i++ {
		m.SetBlock(voxel.Pos{X: 0, Y: 0, Z: 0}, voxel.BlockID(i%5+1))
	}

	m.rebuildQ.mu.Lock()
	count := len(m.rebuildQ.items)
	m.rebuildQ.mu.Unlock()
	assert.LessOrEqual(t, count, 1)
}

func TestManager_EmptyChunkNeverRegistersCollider(t *testing.T) {
	root := t.TempDir()
	seedWorld(t, root, "Fresh", 2, 0) // all air

	sink := &fakeSink{}
	fs := region.NewWorldFileSystem(root)
	m := New(Config{FS: fs, Sink: sink, PoolCapacity: 4096, ViewDistance: 1})
	t.Cleanup(func() {
		if m.running.Load() {
			m.drainAndStop()
		}
	})
	require.NoError(t, m.LoadWorld("Fresh"))

	cam := fakeCamera{pos: mgl32.Vec3{16, 16, 16}}
	waitFor(t, 5*time.Second, func() bool {
		m.Update(cam)
		_, _, _, ok := m.resolveSlot(voxel.Pos{X: 0, Y: 0, Z: 0})
		return ok
	})
	assert.Equal(t, 0, sink.adds)

	m.SetBlock(voxel.Pos{X: 0, Y: 0, Z: 0}, voxel.BlockID(1))
	waitFor(t, 5*time.Second, func() bool {
		m.Update(cam)
		return sink.adds == 1
	})
}

func TestFloorMod_HandlesNegatives(t *testing.T) {
	assert.Equal(t, int32(4), floorMod(-1, 5))
	assert.Equal(t, int32(0), floorMod(-5, 5))
	assert.Equal(t, int32(3), floorMod(3, 5))
}
