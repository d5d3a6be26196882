// Package streamio names the small set of interfaces the chunk streaming
// core consumes from (and hands results to) the surrounding engine:
// camera/frustum, the physics collider sink, and the renderer's draw
// sink. None of these are implemented here — the core is a caller of
// these contracts, never a provider, per spec.md §6.
package streamio

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ridgeline-games/voxelstream/voxel"
)

// Frustum is a culling predicate derived from a Camera's pose and
// projection. IsUnitAABBVisible reports whether an axis-aligned cube of
// the given width centered at center intersects the frustum.
type Frustum interface {
	IsUnitAABBVisible(center mgl32.Vec3, width float32) bool
}

// Camera supplies the pose the chunk manager samples once per Update
// call and the frustum used to build the render list.
type Camera interface {
	Position() mgl32.Vec3
	Frustum() Frustum
}

// ColliderSink is the physics layer's registration point for chunk
// collision shapes. Defined canonically on voxel.Chunk's SwapBuffers
// contract; re-exported here so callers outside the voxel package can
// depend on the narrower streamio surface instead of all of voxel.
type ColliderSink = voxel.ColliderSink

// DrawSink receives one front mesh buffer per visible, non-empty chunk
// during Manager.Render, along with the chunk's world-space origin.
type DrawSink interface {
	Draw(front *voxel.MeshBuffer, worldOrigin mgl32.Vec3)
}
