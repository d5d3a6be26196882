package chunkmgr

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ridgeline-games/voxelstream/streamio"
	"github.com/ridgeline-games/voxelstream/voxel"
)

// LoadWorld stops the worker, stages name via the world file system, resets
// the working set to all-empty, and restarts the worker. Per spec.md
// §4.6.2.
func (m *Manager) LoadWorld(name string) error {
	m.drainAndStop()

	size, err := m.fs.SetWorld(name)
	if err != nil {
		return err
	}

	m.stateMu.Lock()
	m.worldLoaded = true
	m.worldSizeChunks = size
	for i := range m.positions {
		m.positions[i] = emptySlot
	}
	m.haveLastCameraChunk = false
	m.stateMu.Unlock()

	m.loadQ.reset(nil)
	m.rebuildQ.clear()
	m.swapQ.drainAll()

	m.startWorker()
	return nil
}

// SaveWorld stops the worker (writing every loaded chunk back to its
// region and clearing every region reference), asks the file system to
// commit the staged world tree, and restarts the worker.
func (m *Manager) SaveWorld() error {
	if !m.worldLoaded {
		return ErrNoWorldLoaded
	}
	m.drainAndStop()
	if err := m.fs.SaveWorld(); err != nil {
		return err
	}
	m.startWorker()
	return nil
}

// SetViewDistance stops the worker, resizes the working set for V', and
// restarts the worker. A V' that would produce a non-positive dimension
// is a no-op, per spec.md §7.
func (m *Manager) SetViewDistance(v int32) error {
	if v < 0 {
		m.logger.Warnf("chunkmgr: rejected SetViewDistance(%d): %v", v, ErrInvalidViewDistance)
		return ErrInvalidViewDistance
	}

	wasRunning := m.running.Load()
	if wasRunning {
		m.drainAndStop()
	}

	m.stateMu.Lock()
	m.resizeWorkingSet(v)
	m.stateMu.Unlock()

	if wasRunning {
		m.startWorker()
	}
	return nil
}

// drainAndStop signals the worker to stop after its current iteration,
// waits for it, then drains every pending swap (so positions[] reflects
// reality) and unloads every still-loaded slot, writing its block data
// back to its region and releasing the region reference. Shared by
// LoadWorld, SaveWorld, and SetViewDistance (SPEC_FULL.md §10).
func (m *Manager) drainAndStop() {
	if m.running.Load() {
		close(m.shutdownCh)
		<-m.workerDone
		m.running.Store(false)
	}

	for _, entry := range m.swapQ.drainAll() {
		m.applySwap(entry)
	}

	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	for slot, chunk := range m.chunks {
		if !chunk.IsLoaded() {
			continue
		}
		pos := m.positions[slot]
		rle := chunk.Unload(nil)
		m.fs.WriteChunkData(pos, rle)
		if err := m.fs.RemoveRegionFileReference(pos); err != nil {
			m.logger.Errorf("chunkmgr: remove region ref for %+v during shutdown: %v", pos, err)
		}
		m.positions[slot] = emptySlot
	}
}

func (m *Manager) applySwap(entry swapEntry) {
	chunk := m.chunks[entry.slot]
	chunk.SwapBuffers(m.sink)

	m.stateMu.Lock()
	m.positions[entry.slot] = entry.pos
	m.stateMu.Unlock()
}

// Update samples camera's chunk cell; if it differs from the last
// observed one, the worker is signaled to refresh the working set. It
// then drains up to MeshSwapsPerFrame entries from the swap queue.
func (m *Manager) Update(camera streamio.Camera) {
	camChunk := worldToChunk(camera.Position())

	m.stateMu.Lock()
	changed := !m.haveLastCameraChunk || camChunk != m.lastCameraChunk
	if changed {
		m.lastCameraChunk = camChunk
		m.haveLastCameraChunk = true
	}
	m.stateMu.Unlock()

	if changed {
		m.refresh.Store(true)
		m.notify()
	}

	for i := 0; i < m.meshSwapsPerFrame; i++ {
		entry, ok := m.swapQ.popFront()
		if !ok {
			break
		}
		m.applySwap(entry)
	}
}

func worldToChunk(p mgl32.Vec3) voxel.Pos {
	return voxel.Pos{
		X: floorDivF(p[0]),
		Y: floorDivF(p[1]),
		Z: floorDivF(p[2]),
	}
}

func floorDivF(v float32) int32 {
	c := int32(v) / voxel.ChunkSize
	if v < 0 && int32(v)%voxel.ChunkSize != 0 {
		c--
	}
	return c
}

func (m *Manager) inWorldBounds(p voxel.Pos) bool {
	if m.worldSizeChunks == 0 {
		return true
	}
	bound := int32(m.worldSizeChunks)
	return p.X >= 0 && p.X < bound &&
		p.Y >= 0 && p.Y < bound &&
		p.Z >= 0 && p.Z < bound
}

// resolveSlot returns the chunk at world-space position pos's containing
// chunk slot, but only if that slot currently stores exactly that chunk
// coordinate — per spec.md §4.6.2, a mismatch (including an
// out-of-bounds position) means the operation is a no-op.
func (m *Manager) resolveSlot(pos voxel.Pos) (*voxel.Chunk, voxel.Pos, int32, bool) {
	chunkPos := pos.ToChunk()

	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	bound := int32(0)
	if m.worldSizeChunks > 0 {
		bound = int32(m.worldSizeChunks) * voxel.ChunkSize
	}
	if bound > 0 && !pos.InBounds(bound) {
		return nil, voxel.Pos{}, 0, false
	}

	slot := m.slot(chunkPos)
	if m.positions[slot] != chunkPos {
		return nil, voxel.Pos{}, 0, false
	}
	return m.chunks[slot], chunkPos, slot, true
}

// GetBlock reads the block at world-space position pos, returning Air if
// the owning chunk is not currently resident.
func (m *Manager) GetBlock(pos voxel.Pos) voxel.BlockID {
	chunk, chunkPos, _, ok := m.resolveSlot(pos)
	if !ok {
		return voxel.Air
	}
	return chunk.GetBlock(pos.Sub(chunkPos.Scale(voxel.ChunkSize)))
}

// SetBlock writes id at world-space position pos, a no-op if the owning
// chunk is not resident. On success, enqueues the chunk's slot for
// rebuild (deduplicated) and fires the block-set listeners.
func (m *Manager) SetBlock(pos voxel.Pos, id voxel.BlockID) {
	chunk, chunkPos, slot, ok := m.resolveSlot(pos)
	if !ok {
		return
	}
	local := pos.Sub(chunkPos.Scale(voxel.ChunkSize))
	chunk.SetBlock(local, id)
	m.rebuildQ.push(slot)
	m.notify()
	m.fireBlockSet(pos, id)
}

// DestroyBlock sets world-space position pos to Air, a no-op if the
// owning chunk is not resident. Returns the block ID that was there. On
// success, enqueues a rebuild and fires the block-destroy listeners.
func (m *Manager) DestroyBlock(pos voxel.Pos) voxel.BlockID {
	chunk, chunkPos, slot, ok := m.resolveSlot(pos)
	if !ok {
		return voxel.Air
	}
	local := pos.Sub(chunkPos.Scale(voxel.ChunkSize))
	id := chunk.DestroyBlock(local)
	m.rebuildQ.push(slot)
	m.notify()
	m.fireBlockDestroy(pos, id)
	return id
}

// Render rebuilds the render list from camera's frustum intersected with
// every loaded, non-empty chunk, handing each one's front mesh to sink.
// The frustum test runs in chunk-space: each chunk is treated as a unit
// cube centered on its stored position (spec.md §4.6.4).
func (m *Manager) Render(camera streamio.Camera, sink streamio.DrawSink) {
	frustum := camera.Frustum()

	m.stateMu.Lock()
	type visible struct {
		mesh   *voxel.MeshBuffer
		origin mgl32.Vec3
	}
	var toDraw []visible
	for slot, chunk := range m.chunks {
		pos := m.positions[slot]
		if pos == emptySlot || !chunk.IsLoaded() || chunk.IsEmpty() {
			continue
		}
		center := pos.Vec3()
		if !frustum.IsUnitAABBVisible(center, 1.0) {
			continue
		}
		toDraw = append(toDraw, visible{mesh: chunk.Mesh().Front(), origin: chunkOrigin(pos)})
	}
	m.stateMu.Unlock()

	for _, v := range toDraw {
		sink.Draw(v.mesh, v.origin)
	}
}
