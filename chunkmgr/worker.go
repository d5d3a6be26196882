package chunkmgr

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ridgeline-games/voxelstream/voxel"
)

// startWorker launches the background loader goroutine. The caller must
// not already have a worker running.
func (m *Manager) startWorker() {
	m.shutdownCh = make(chan struct{})
	m.workerDone = make(chan struct{})
	m.running.Store(true)
	go m.runWorker()
}

// runWorker is the worker loop from spec.md §4.6.3: drain rebuilds and
// loads until a refresh is requested, then recompute the visible set.
func (m *Manager) runWorker() {
	defer close(m.workerDone)

	for {
		select {
		case <-m.shutdownCh:
			return
		default:
		}

		if m.drainRebuildQueue() {
			continue
		}
		if m.drainLoadQueue() {
			continue
		}
		if m.refresh.Load() {
			m.refresh.Store(false)
			m.recomputeVisiblePositions()
			continue
		}

		// Suspension point: nothing to do until a push or a refresh
		// request wakes us, or shutdown is requested (spec.md §5: the
		// worker is parked by lock/signal, never polls).
		select {
		case <-m.wake:
		case <-m.shutdownCh:
			return
		}
	}
}

// drainRebuildQueue pops one slot and rebuilds its mesh. Returns whether
// it found work to do. Rebuilds always run before loads inside a single
// worker iteration (spec.md §4.6.3: "rebuild queue first").
func (m *Manager) drainRebuildQueue() bool {
	slot, ok := m.rebuildQ.pop()
	if !ok {
		return false
	}
	m.rebuildOne(slot)
	return true
}

func (m *Manager) rebuildOne(slot int32) {
	// A forthcoming rebuild supersedes any swap already queued for this
	// slot's stored position (spec.md §4.6.3).
	m.swapQ.takeForSlot(slot)

	m.stateMu.Lock()
	pos := m.positions[slot]
	chunk := m.chunks[slot]
	m.stateMu.Unlock()

	if pos == emptySlot || !chunk.IsLoaded() {
		return
	}

	chunk.RebuildMesh(chunkOrigin(pos))
	m.swapQ.push(slot, pos)
}

// drainLoadQueue processes at most chunksToLoadPerIteration positions
// from the load queue. Returns whether it found work to do.
func (m *Manager) drainLoadQueue() bool {
	did := false
	for i := 0; i < m.chunksToLoadPerIteration; i++ {
		pos, ok := m.loadQ.pop()
		if !ok {
			break
		}
		m.loadOne(pos)
		did = true
	}
	return did
}

func (m *Manager) loadOne(p voxel.Pos) {
	slot := m.slot(p)

	m.stateMu.Lock()
	chunk := m.chunks[slot]
	resident := m.positions[slot]
	m.stateMu.Unlock()

	// The open question in spec.md §9 / SPEC_FULL.md §10: a pending swap
	// entry for this slot, if any, names the position whose blocks the
	// slot holds. Because this function writes positions[slot] when a
	// load finishes (below), that entry normally matches positions[slot].
	if pendingPos, ok := m.swapQ.takeForSlot(slot); ok {
		resident = pendingPos
	}

	if chunk.IsLoaded() {
		rle := chunk.Unload(nil)
		m.fs.WriteChunkData(resident, rle)
		if err := m.fs.RemoveRegionFileReference(resident); err != nil {
			m.logger.Errorf("chunkmgr: remove region ref for %+v: %v", resident, err)
		}
	}

	if err := m.fs.AddRegionFileReference(p); err != nil {
		m.logger.Errorf("chunkmgr: add region ref for %+v: %v", p, err)
		return
	}

	rle, _ := m.fs.GetChunkData(p)
	allAir := chunk.Load(rle)
	if !allAir {
		chunk.RebuildMesh(chunkOrigin(p))
	}

	m.stateMu.Lock()
	m.positions[slot] = p
	m.stateMu.Unlock()

	m.swapQ.push(slot, p)
}

// recomputeVisiblePositions rebuilds the load queue from scratch with
// every world-chunk position that should be resident around the last
// observed camera chunk, in the layering order spec.md §4.6.3 specifies:
// the camera's own XZ plane first, then planes at increasing ±v offsets.
// Positions whose slot already stores them are skipped.
func (m *Manager) recomputeVisiblePositions() {
	m.stateMu.Lock()
	if !m.haveLastCameraChunk {
		m.stateMu.Unlock()
		return
	}
	cam := m.lastCameraChunk
	v := m.viewDistance
	positions := m.positions
	m.stateMu.Unlock()

	var wanted []voxel.Pos
	appendPlane := func(y int32) {
		for x := cam.X - v; x <= cam.X+v; x++ {
			for z := cam.Z - v; z <= cam.Z+v; z++ {
				wanted = append(wanted, voxel.Pos{X: x, Y: y, Z: z})
			}
		}
	}

	appendPlane(cam.Y)
	for dv := int32(1); dv <= v/2; dv++ {
		appendPlane(cam.Y + dv)
		appendPlane(cam.Y - dv)
	}

	var toLoad []voxel.Pos
	m.stateMu.Lock()
	for _, p := range wanted {
		if !m.inWorldBounds(p) {
			continue
		}
		slot := m.slot(p)
		if positions[slot] == p {
			continue
		}
		toLoad = append(toLoad, p)
	}
	m.stateMu.Unlock()

	m.loadQ.reset(toLoad)
}

func chunkOrigin(chunkPos voxel.Pos) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(chunkPos.X) * voxel.ChunkSize,
		float32(chunkPos.Y) * voxel.ChunkSize,
		float32(chunkPos.Z) * voxel.ChunkSize,
	}
}
