// Package chunkmgr implements the scheduler at the heart of the chunk
// streaming subsystem: the working set, the background loader/rebuild
// worker, and the swap-queue drain that publishes finished meshes to the
// main goroutine, per spec.md §4.6 and §5.
package chunkmgr

import (
	"math"
	"sync"
	"sync/atomic"

	voxelstream "github.com/ridgeline-games/voxelstream"
	"github.com/ridgeline-games/voxelstream/region"
	"github.com/ridgeline-games/voxelstream/streamio"
	"github.com/ridgeline-games/voxelstream/voxel"
)

// Default tuning constants, per spec.md §3 and §4.6.
const (
	DefaultViewDistance             = 14
	DefaultMeshSwapsPerFrame        = 25
	DefaultChunksToLoadPerIteration = 8
)

const sentinelCoord = math.MinInt32

// emptySlot is the chunk_positions sentinel meaning "this slot does not
// currently represent any world chunk."
var emptySlot = voxel.Pos{X: sentinelCoord, Y: sentinelCoord, Z: sentinelCoord}

// Config bundles the Manager's static dependencies and tuning knobs.
type Config struct {
	FS     *region.WorldFileSystem
	Sink   streamio.ColliderSink
	Logger voxelstream.Logger

	// PoolCapacity sizes the shared block/mesh/collision pools. Must be
	// >= the largest working set any ViewDistance passed to
	// SetViewDistance will require; voxel.PoolSize is a sane default.
	PoolCapacity int

	ViewDistance             int32
	MeshSwapsPerFrame        int
	ChunksToLoadPerIteration int
}

// Manager is the scheduler: it owns the working set, runs the background
// loader, drains the rebuild and swap queues, and answers world-space
// block reads/writes. One Manager owns one loaded world at a time.
type Manager struct {
	fs     *region.WorldFileSystem
	sink   streamio.ColliderSink
	logger voxelstream.Logger
	pools  *voxel.Pools

	meshSwapsPerFrame        int
	chunksToLoadPerIteration int

	// stateMu guards everything below that is read/written outside the
	// worker's own queues: view distance, working-set arrays, and the
	// last-observed camera chunk. The working set is only resized or
	// reset while the worker is stopped (drainAndStop); positions and
	// the last camera chunk change while it runs, under this lock.
	stateMu sync.Mutex

	viewDistance int32
	dimH, dimU   int32 // H = 2V+1, U = V+1

	chunks    []*voxel.Chunk
	positions []voxel.Pos

	worldLoaded     bool
	worldSizeChunks uint32

	lastCameraChunk     voxel.Pos
	haveLastCameraChunk bool

	loadQ    *loadQueue
	rebuildQ *rebuildQueue
	swapQ    *swapQueue

	refresh    atomic.Bool
	wake       chan struct{}
	shutdownCh chan struct{}
	workerDone chan struct{}
	running    atomic.Bool

	listenerMu        sync.Mutex
	blockSetListeners []func(world voxel.Pos, id voxel.BlockID)
	blockDestroyListeners []func(world voxel.Pos, id voxel.BlockID)
}

// New builds a Manager from cfg. No world is loaded yet; call LoadWorld
// before Update.
func New(cfg Config) *Manager {
	if cfg.PoolCapacity == 0 {
		cfg.PoolCapacity = voxel.PoolSize
	}
	if cfg.MeshSwapsPerFrame == 0 {
		cfg.MeshSwapsPerFrame = DefaultMeshSwapsPerFrame
	}
	if cfg.ChunksToLoadPerIteration == 0 {
		cfg.ChunksToLoadPerIteration = DefaultChunksToLoadPerIteration
	}
	if cfg.ViewDistance == 0 {
		cfg.ViewDistance = DefaultViewDistance
	}
	if cfg.Logger == nil {
		cfg.Logger = voxelstream.NewNopLogger()
	}

	m := &Manager{
		fs:                       cfg.FS,
		sink:                     cfg.Sink,
		logger:                   cfg.Logger,
		pools:                    voxel.NewPools(cfg.PoolCapacity),
		meshSwapsPerFrame:        cfg.MeshSwapsPerFrame,
		chunksToLoadPerIteration: cfg.ChunksToLoadPerIteration,
		loadQ:                    &loadQueue{},
		rebuildQ:                 newRebuildQueue(),
		swapQ:                    &swapQueue{},
		wake:                     make(chan struct{}, 1),
	}
	m.resizeWorkingSet(cfg.ViewDistance)
	return m
}

// slot computes the working-set index for world-chunk position p, per
// spec.md §4.6.1: H = 2V+1, U = V+1,
// slot(P) = (P.x mod H)*H + (P.y mod U)*H*H + (P.z mod H).
func (m *Manager) slot(p voxel.Pos) int32 {
	return floorMod(p.X, m.dimH)*m.dimH +
		floorMod(p.Y, m.dimU)*m.dimH*m.dimH +
		floorMod(p.Z, m.dimH)
}

func floorMod(a, b int32) int32 {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

// resizeWorkingSet tears down any existing chunk slots (returning their
// pool memory) and allocates a fresh working set sized for V. Caller
// must hold stateMu and must have already stopped the worker.
func (m *Manager) resizeWorkingSet(v int32) {
	for _, c := range m.chunks {
		if c.IsLoaded() {
			c.Unload(nil)
		}
		c.Shutdown(m.sink)
		c.Free()
	}

	h := 2*v + 1
	u := v + 1
	total := int(h) * int(h) * int(u)

	m.pools.AssertSufficient(total)

	m.viewDistance = v
	m.dimH, m.dimU = h, u
	m.chunks = make([]*voxel.Chunk, total)
	m.positions = make([]voxel.Pos, total)
	for i := range m.chunks {
		m.chunks[i] = voxel.NewChunk(m.pools)
		m.positions[i] = emptySlot
	}

	m.loadQ.reset(nil)
	m.rebuildQ.clear()
	m.swapQ.drainAll()
	m.haveLastCameraChunk = false
}

// AddBlockSetListener registers a callback invoked synchronously, on the
// calling goroutine, every time SetBlock successfully mutates a resident
// chunk (spec.md §6, SPEC_FULL.md §10: synchronous multicast).
func (m *Manager) AddBlockSetListener(fn func(world voxel.Pos, id voxel.BlockID)) {
	m.listenerMu.Lock()
	m.blockSetListeners = append(m.blockSetListeners, fn)
	m.listenerMu.Unlock()
}

// AddBlockDestroyListener registers a callback invoked synchronously
// every time DestroyBlock successfully mutates a resident chunk.
func (m *Manager) AddBlockDestroyListener(fn func(world voxel.Pos, id voxel.BlockID)) {
	m.listenerMu.Lock()
	m.blockDestroyListeners = append(m.blockDestroyListeners, fn)
	m.listenerMu.Unlock()
}

// notify wakes the worker if it is blocked waiting for work. A no-op if
// a wake is already pending (the worker only needs to know "something
// changed," not how many times).
func (m *Manager) notify() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) fireBlockSet(world voxel.Pos, id voxel.BlockID) {
	m.listenerMu.Lock()
	listeners := append([]func(voxel.Pos, voxel.BlockID){}, m.blockSetListeners...)
	m.listenerMu.Unlock()
	for _, fn := range listeners {
		fn(world, id)
	}
}

func (m *Manager) fireBlockDestroy(world voxel.Pos, id voxel.BlockID) {
	m.listenerMu.Lock()
	listeners := append([]func(voxel.Pos, voxel.BlockID){}, m.blockDestroyListeners...)
	m.listenerMu.Unlock()
	for _, fn := range listeners {
		fn(world, id)
	}
}
