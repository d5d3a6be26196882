package voxel

import "github.com/go-gl/mathgl/mgl32"

// ChunkSize is the cubic edge length of a chunk, in blocks.
const ChunkSize = 32

// BlocksPerChunk is the total number of blocks a chunk holds.
const BlocksPerChunk = ChunkSize * ChunkSize * ChunkSize

// Pos is an integer 3D coordinate, used both for world-space block
// positions and chunk-space chunk positions depending on context.
type Pos struct {
	X, Y, Z int32
}

// Add returns the component-wise sum of p and o.
func (p Pos) Add(o Pos) Pos {
	return Pos{p.X + o.X, p.Y + o.Y, p.Z + o.Z}
}

// Sub returns the component-wise difference of p and o.
func (p Pos) Sub(o Pos) Pos {
	return Pos{p.X - o.X, p.Y - o.Y, p.Z - o.Z}
}

// Scale returns p with every component multiplied by s.
func (p Pos) Scale(s int32) Pos {
	return Pos{p.X * s, p.Y * s, p.Z * s}
}

// ToChunk converts a world-space block position to the chunk position
// that contains it, using floor division (world coordinates are never
// negative in this system, so plain integer division is exact).
func (p Pos) ToChunk() Pos {
	return Pos{p.X / ChunkSize, p.Y / ChunkSize, p.Z / ChunkSize}
}

// Local returns p's position local to its containing chunk, in
// [0, ChunkSize) on each axis.
func (p Pos) Local() Pos {
	return Pos{p.X % ChunkSize, p.Y % ChunkSize, p.Z % ChunkSize}
}

// InBounds reports whether every component of p lies in [0, bound).
func (p Pos) InBounds(bound int32) bool {
	return p.X >= 0 && p.X < bound &&
		p.Y >= 0 && p.Y < bound &&
		p.Z >= 0 && p.Z < bound
}

// Vec3 converts p to a mgl32.Vec3, for use in mesh and frustum math.
func (p Pos) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
}

// BlockIndex returns the index into a chunk's flat block array for the
// local position (x, y, z), each expected to be in [0, ChunkSize).
func BlockIndex(x, y, z int32) int32 {
	return x*ChunkSize + y*ChunkSize*ChunkSize + z
}
