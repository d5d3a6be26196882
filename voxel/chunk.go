package voxel

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/ridgeline-games/voxelstream/pool"
)

// Pools are the fixed-capacity arenas every chunk slot's block array,
// mesh, and collision record are drawn from. PoolSize must equal or
// exceed (2V+1)²(V+1) for the largest view distance the game supports;
// Pools.AssertSufficient enforces that at startup rather than depending
// on run-time discovery (spec.md §9, Pool sizing).
type Pools struct {
	Blocks     *pool.Allocator[[BlocksPerChunk]BlockID]
	Meshes     *pool.Allocator[ChunkMesh]
	Collisions *pool.Allocator[CollisionMesh]
}

// PoolSize is the default capacity used for each pool: enough for the
// maximum working set at the maximum supported view distance.
const PoolSize = 30000

// NewPools builds the three pools at the given capacity.
func NewPools(capacity int) *Pools {
	return &Pools{
		Blocks:     pool.New[[BlocksPerChunk]BlockID](capacity),
		Meshes:     pool.New[ChunkMesh](capacity),
		Collisions: pool.New[CollisionMesh](capacity),
	}
}

// AssertSufficient panics if capacity is too small for the given working
// set size, per spec.md's pool-sizing note.
func (p *Pools) AssertSufficient(workingSetSize int) {
	if p.Blocks.Cap() < workingSetSize || p.Meshes.Cap() < workingSetSize || p.Collisions.Cap() < workingSetSize {
		panic("voxel: pool capacity insufficient for requested working set size")
	}
}

// Chunk is the voxel payload plus its mesh and collision handles for one
// working-set slot. A slot's Chunk is constructed once (when the working
// set is allocated) and reused across many load/unload cycles without
// returning its pool memory — only Free returns it to the pools.
type Chunk struct {
	pools *Pools

	blockIdx int32
	meshIdx  int32
	collIdx  int32

	blocks *[BlocksPerChunk]BlockID
	mesh   *ChunkMesh
	coll   *CollisionMesh

	isLoaded atomic.Bool
	isEmpty  atomic.Bool
}

// NewChunk allocates a chunk slot's block, mesh, and collision memory
// from pools. The slot starts unloaded and empty.
func NewChunk(pools *Pools) *Chunk {
	c := &Chunk{pools: pools}

	c.blocks, c.blockIdx = pools.Blocks.Allocate()
	c.mesh, c.meshIdx = pools.Meshes.Allocate()
	c.coll, c.collIdx = pools.Collisions.Allocate()

	c.coll.Handles[0] = NewColliderHandle()
	c.coll.Handles[1] = NewColliderHandle()

	c.isEmpty.Store(true)
	return c
}

// IsLoaded reports whether the chunk currently holds live block data.
func (c *Chunk) IsLoaded() bool { return c.isLoaded.Load() }

// IsEmpty reports whether the chunk's front mesh has zero indices
// (spec.md §3: empty = front mesh has zero indices).
func (c *Chunk) IsEmpty() bool { return c.isEmpty.Load() }

// Mesh returns the chunk's double-buffered mesh.
func (c *Chunk) Mesh() *ChunkMesh { return c.mesh }

// Collision returns the chunk's double-buffered collision record.
func (c *Chunk) Collision() *CollisionMesh { return c.coll }

// Load decodes an RLE block stream into the chunk's block array. Pre:
// !IsLoaded(). Post: IsLoaded(). Returns true if every decoded block was
// Air, letting the caller skip a mesh rebuild for an all-air chunk.
func (c *Chunk) Load(rle []byte) bool {
	if c.isLoaded.Load() {
		panic("voxel: Load called on an already-loaded chunk")
	}

	// Clear the previous occupant's blocks so that an empty or short
	// stream decodes to Air rather than stale data.
	*c.blocks = [BlocksPerChunk]BlockID{}

	allAir := true
	typeIdx := 0

	for y := int32(0); y < ChunkSize && typeIdx < len(rle); y++ {
		for x := int32(0); x < ChunkSize; x++ {
			base := BlockIndex(x, y, 0)
			for z := int32(0); z < ChunkSize; {
				id := BlockID(rle[typeIdx])
				run := int32(rle[typeIdx+1])

				if id != Air {
					allAir = false
				}

				for k := int32(0); k < run; k++ {
					c.blocks[base+z+k] = id
				}

				z += run
				typeIdx += 2
			}
		}
	}

	c.isLoaded.Store(true)
	return allAir
}

// Unload encodes the chunk's block array back to RLE, appending it to
// out, and marks the chunk unloaded. Mesh and collision memory are left
// intact — they are reclaimed by the next rebuild+swap or by Shutdown,
// never here, since the slot may be reused without returning pool
// memory. Pre: IsLoaded(). Post: !IsLoaded().
func (c *Chunk) Unload(out []byte) []byte {
	if !c.isLoaded.Load() {
		panic("voxel: Unload called on a chunk that is not loaded")
	}
	c.isLoaded.Store(false)

	for y := int32(0); y < ChunkSize; y++ {
		for x := int32(0); x < ChunkSize; x++ {
			for z := int32(0); z < ChunkSize; {
				idx := BlockIndex(x, y, z)
				id := c.blocks[idx]

				var length int32 = 1
				for z+length < ChunkSize && c.blocks[idx+length] == id {
					length++
				}

				out = append(out, byte(id), byte(length))
				z += length
			}
		}
	}

	return out
}

// RebuildMesh runs the greedy mesher over the chunk's current block
// array and writes the result into the mesh's back buffer. The collision
// record is not written here; SwapBuffers flips its active slot.
// Must not run concurrently with a read of the front buffer for this
// chunk — the chunk manager guarantees this by construction (spec.md §5).
func (c *Chunk) RebuildMesh(worldOrigin mgl32.Vec3) {
	back := c.mesh.Back()
	back.reset()
	MeshBlocks(c.blocks[:], worldOrigin, back)
}

// SwapBuffers atomically publishes the back mesh buffer as the new
// front, then clears the (now) back buffer and updates collider
// registration through sink according to the transition in emptiness,
// per spec.md §4.5. Must run on the single goroutine that owns buffer
// swaps (the chunk manager's main-loop side).
func (c *Chunk) SwapBuffers(sink ColliderSink) {
	prevIndexCount := c.mesh.Swap()
	c.mesh.ClearBack()

	wasEmpty := prevIndexCount == 0
	nowEmpty := c.mesh.FrontIndexCount() == 0
	c.isEmpty.Store(nowEmpty)

	c.coll.Flip()

	switch {
	case wasEmpty && !nowEmpty:
		sink.Add(c.coll.Active())
	case !wasEmpty && nowEmpty:
		sink.Remove(c.coll.Active())
	default:
		// Same emptiness on both sides: if non-empty, the shape moved to
		// the new front slot but membership with the sink is unchanged.
	}
}

// Shutdown deregisters the chunk from the collider sink if it was
// registered and clears its back mesh buffer. Does not free pool memory
// — that is the working set's responsibility when the chunk slot itself
// is destroyed.
func (c *Chunk) Shutdown(sink ColliderSink) {
	if !c.isEmpty.Load() {
		sink.Remove(c.coll.Active())
	}
	c.mesh.ClearBack()
}

// Free returns the chunk's block, mesh, and collision memory to the
// pools it was allocated from. Called when the working-set slot itself
// is torn down (manager destruction or resize), never on a plain
// unload.
func (c *Chunk) Free() {
	c.pools.Blocks.Free(c.blockIdx)
	c.pools.Meshes.Free(c.meshIdx)
	c.pools.Collisions.Free(c.collIdx)
}

// SetBlock writes a single block at a chunk-local position.
func (c *Chunk) SetBlock(local Pos, id BlockID) {
	c.blocks[BlockIndex(local.X, local.Y, local.Z)] = id
}

// GetBlock reads a single block at a chunk-local position.
func (c *Chunk) GetBlock(local Pos) BlockID {
	return c.blocks[BlockIndex(local.X, local.Y, local.Z)]
}

// DestroyBlock sets a chunk-local position to Air and returns the block
// ID that was there.
func (c *Chunk) DestroyBlock(local Pos) BlockID {
	idx := BlockIndex(local.X, local.Y, local.Z)
	id := c.blocks[idx]
	c.blocks[idx] = Air
	return id
}

// ColliderSink is the external collaborator the chunk manager registers
// and deregisters non-empty chunk colliders with. Implemented by the
// surrounding physics engine; opaque to the core.
type ColliderSink interface {
	Add(handle ColliderHandle)
	Remove(handle ColliderHandle)
}
