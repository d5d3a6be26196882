package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/ridgeline-games/voxelstream/streamio"
	"github.com/ridgeline-games/voxelstream/voxel"
)

// flyingCamera is a yaw/pitch controlled free camera, its yaw/pitch math
// ported from the teacher's flying-camera module (DESIGN.md's
// cmd/voxelsrv entry): WASD+Space/Ctrl for movement in camera-local axes, mouse
// delta for look, pitch clamped to ±89° to avoid gimbal flip.
type flyingCamera struct {
	Pos         mgl32.Vec3
	Yaw, Pitch  float32
	Speed       float32
	Sensitivity float32
	Fov, Aspect float32
	Near, Far   float32
}

func newFlyingCamera(aspect float32) *flyingCamera {
	return &flyingCamera{
		Pos:         mgl32.Vec3{0, 80, 0},
		Speed:       20,
		Sensitivity: 0.1,
		Fov:         mgl32.DegToRad(70),
		Aspect:      aspect,
		Near:        0.1,
		Far:         1000,
	}
}

func (c *flyingCamera) forward() mgl32.Vec3 {
	yawRad := mgl32.DegToRad(c.Yaw)
	pitchRad := mgl32.DegToRad(c.Pitch)
	return mgl32.Vec3{
		float32(math.Sin(float64(yawRad)) * math.Cos(float64(pitchRad))),
		float32(math.Sin(float64(pitchRad))),
		float32(-math.Cos(float64(yawRad)) * math.Cos(float64(pitchRad))),
	}.Normalize()
}

// Look applies a raw mouse delta, scaled here by Sensitivity, to
// yaw/pitch, clamping pitch to ±89°.
func (c *flyingCamera) Look(dx, dy float32) {
	c.Yaw += dx * c.Sensitivity
	c.Pitch -= dy * c.Sensitivity
	if c.Pitch > 89 {
		c.Pitch = 89
	}
	if c.Pitch < -89 {
		c.Pitch = -89
	}
}

// Move advances the camera dt seconds along move (x=right, y=up,
// z=forward, each in [-1, 1]), in camera-local axes.
func (c *flyingCamera) Move(move mgl32.Vec3, dt float32) {
	forward := c.forward()
	right := forward.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	up := mgl32.Vec3{0, 1, 0}

	dir := right.Mul(move[0]).Add(up.Mul(move[1])).Add(forward.Mul(move[2]))
	if dir.Len() > 0 {
		c.Pos = c.Pos.Add(dir.Normalize().Mul(c.Speed * dt))
	}
}

func (c *flyingCamera) viewProj() mgl32.Mat4 {
	view := mgl32.LookAtRH(c.Pos, c.Pos.Add(c.forward()), mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(c.Fov, c.Aspect, c.Near, c.Far)
	return proj.Mul4(view)
}

// Position implements streamio.Camera.
func (c *flyingCamera) Position() mgl32.Vec3 { return c.Pos }

// Frustum implements streamio.Camera, building a fresh plane set from
// the camera's current view-projection matrix.
func (c *flyingCamera) Frustum() streamio.Frustum { return newPlaneFrustum(c.viewProj()) }

var _ streamio.Camera = (*flyingCamera)(nil)

// planeFrustum is six Gribb-Hartmann clip-space planes (Ax+By+Cz+D>=0
// inside), extracted from a combined view-projection matrix.
type planeFrustum struct {
	planes [6]mgl32.Vec4
}

func newPlaneFrustum(vp mgl32.Mat4) planeFrustum {
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(i, 0), vp.At(i, 1), vp.At(i, 2), vp.At(i, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	var f planeFrustum
	f.planes[0] = r3.Add(r0) // left
	f.planes[1] = r3.Sub(r0) // right
	f.planes[2] = r3.Add(r1) // bottom
	f.planes[3] = r3.Sub(r1) // top
	f.planes[4] = r3.Add(r2) // near
	f.planes[5] = r3.Sub(r2) // far
	for i, p := range f.planes {
		n := mgl32.Vec3{p[0], p[1], p[2]}.Len()
		if n > 0 {
			f.planes[i] = p.Mul(1 / n)
		}
	}
	return f
}

// IsUnitAABBVisible implements streamio.Frustum. chunkmgr.Manager.Render
// calls this with center already in chunk-space coordinates (one chunk
// = one unit) and width=1.0, so the test here shifts center by half a
// chunk and scales center and width up into world space before checking
// against the world-space frustum planes — matching the "render uses a
// frustum transformed into chunk coordinates" contract (DESIGN.md,
// "Frustum transform responsibility").
func (f planeFrustum) IsUnitAABBVisible(center mgl32.Vec3, width float32) bool {
	worldCenter := center.Add(mgl32.Vec3{0.5, 0.5, 0.5}).Mul(voxel.ChunkSize)
	worldHalf := width * voxel.ChunkSize / 2

	for _, p := range f.planes {
		normal := mgl32.Vec3{p[0], p[1], p[2]}
		radius := worldHalf*absf(normal[0]) + worldHalf*absf(normal[1]) + worldHalf*absf(normal[2])
		distance := normal.Dot(worldCenter) + p[3]
		if distance+radius < 0 {
			return false
		}
	}
	return true
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

var _ streamio.Frustum = planeFrustum{}
