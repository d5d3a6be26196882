package voxel

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// FaceDir is one of the six axis-aligned face directions a mesh quad can
// be emitted for.
type FaceDir uint8

const (
	East FaceDir = iota
	West
	Top
	Bottom
	North
	South
)

// Vertex is a single emitted mesh vertex: a world-space position plus a
// packed block ID and face direction, matching the compressed on-GPU
// vertex layout spec.md §3 describes (position as 3×f32, block ID and
// face normal packed into a single u32).
type Vertex struct {
	Position mgl32.Vec3
	Packed   uint32
}

// PackVertexAttrs packs a block ID and face direction into the u32 a
// Vertex carries alongside its position.
func PackVertexAttrs(id BlockID, face FaceDir) uint32 {
	return uint32(id) | uint32(face)<<8
}

// UnpackVertexAttrs reverses PackVertexAttrs.
func UnpackVertexAttrs(packed uint32) (BlockID, FaceDir) {
	return BlockID(packed & 0xFF), FaceDir((packed >> 8) & 0x7)
}

// MeshBuffer is one of a ChunkMesh's two vertex/index slots.
type MeshBuffer struct {
	Vertices []Vertex
	Indices  []uint32
}

func (b *MeshBuffer) reset() {
	b.Vertices = b.Vertices[:0]
	b.Indices = b.Indices[:0]
}

// ChunkMesh is the double-buffered vertex/index pair a chunk owns. The
// worker writes the back buffer; a synchronized swap, performed only on
// the goroutine that owns the chunk manager's main-loop side, publishes
// it as the front buffer for the renderer and collider. The worker never
// advances the selector — see spec.md §5's swap contract.
type ChunkMesh struct {
	buffers [2]MeshBuffer
	front   atomic.Bool // false selects buffers[0] as front, true selects buffers[1]
	swapMu  sync.Mutex
}

// NewChunkMesh returns an empty, front-buffer-at-zero mesh.
func NewChunkMesh() *ChunkMesh {
	return &ChunkMesh{}
}

func (m *ChunkMesh) frontIndex() int {
	if m.front.Load() {
		return 1
	}
	return 0
}

func (m *ChunkMesh) backIndex() int {
	return 1 - m.frontIndex()
}

// Back returns the buffer the worker should write the next mesh into.
func (m *ChunkMesh) Back() *MeshBuffer { return &m.buffers[m.backIndex()] }

// Front returns the buffer currently published for reading by the
// renderer and collider.
func (m *ChunkMesh) Front() *MeshBuffer { return &m.buffers[m.frontIndex()] }

// FrontIndexCount reports the front buffer's index count without
// allocating — used to decide emptiness (spec.md §3: empty = front mesh
// has zero indices).
func (m *ChunkMesh) FrontIndexCount() int { return len(m.Front().Indices) }

// Swap flips the front/back selector under a short-lived lock shared
// only with concurrent callers of Swap itself (the worker never calls
// this). It returns the index count the front buffer held immediately
// before the flip, so callers can compare against the count after.
func (m *ChunkMesh) Swap() (prevFrontIndexCount int) {
	m.swapMu.Lock()
	defer m.swapMu.Unlock()

	prevFrontIndexCount = m.FrontIndexCount()
	m.front.Store(!m.front.Load())
	return prevFrontIndexCount
}

// ClearBack empties the buffer that is now the back buffer (the one the
// worker will write into next). Its slices are truncated, not released,
// so the next rebuild reuses their capacity.
func (m *ChunkMesh) ClearBack() {
	m.Back().reset()
}

// CollisionMesh is the physics-facing counterpart to ChunkMesh: one
// ColliderHandle per mesh slot plus which slot is active. It holds no
// triangle or BVH data; the surrounding physics engine keys its own
// per-chunk collision shape on the handle passed to the ColliderSink.
type CollisionMesh struct {
	Handles [2]ColliderHandle
	active  atomic.Bool
}

// ColliderHandle is an opaque identifier the physics/collider layer uses
// to key its own per-chunk collision shape. The core never interprets
// it beyond minting one per mesh slot and handing it to the ColliderSink.
type ColliderHandle struct {
	id uuid.UUID
}

// NewColliderHandle mints a fresh, process-unique handle. Called once per
// mesh slot when a chunk slot is constructed (working-set allocation),
// not on every load — handles outlive individual chunk occupants the way
// the slot's mesh/collision pool memory does.
func NewColliderHandle() ColliderHandle {
	return ColliderHandle{id: uuid.New()}
}

// IsZero reports whether h was never assigned.
func (h ColliderHandle) IsZero() bool { return h.id == uuid.Nil }

// String returns the handle's canonical UUID text form, useful for log
// lines and DrawSink/ColliderSink implementations that want a stable key.
func (h ColliderHandle) String() string { return h.id.String() }

// ActiveSlot returns 0 or 1, always the same parity as the mesh's front
// buffer (spec.md §3 invariant (b)).
func (c *CollisionMesh) ActiveSlot() int {
	if c.active.Load() {
		return 1
	}
	return 0
}

// Flip toggles the active slot, keeping it in sync with a ChunkMesh swap.
func (c *CollisionMesh) Flip() {
	c.active.Store(!c.active.Load())
}

// Active returns the handle for the currently active collision slot.
func (c *CollisionMesh) Active() ColliderHandle {
	return c.Handles[c.ActiveSlot()]
}
