package voxel

import "github.com/go-gl/mathgl/mgl32"

// faceForAxis maps a sweep axis and facing (back-face or not) to the
// FaceDir recorded on emitted vertices, mirroring the original's
// NormalID table (X -> East/West, Y -> Top/Bottom, Z -> North/South).
func faceForAxis(axis int, backFace bool) FaceDir {
	switch axis {
	case 0:
		if backFace {
			return West
		}
		return East
	case 1:
		if backFace {
			return Bottom
		}
		return Top
	default:
		if backFace {
			return South
		}
		return North
	}
}

// MeshBlocks runs the greedy-meshing sweep (algorithm by Mikola Lysenko,
// http://0fps.net/2012/06/30/meshing-in-a-minecraft-game/) over a
// chunk-sized block array and appends the resulting quads into dst. dst's
// prior contents are not cleared — callers pass a freshly reset
// MeshBuffer (the chunk's mesh back buffer).
//
// MeshBlocks is a pure function of (blocks, worldOrigin): scan order is
// always (axis, facing, slab, v, u), so the emitted vertex sequence is
// deterministic for a given input.
func MeshBlocks(blocks []BlockID, worldOrigin mgl32.Vec3, dst *MeshBuffer) {
	if len(blocks) != BlocksPerChunk {
		panic("voxel: MeshBlocks requires exactly BlocksPerChunk blocks")
	}

	var mask [ChunkSize * ChunkSize]BlockID

	at := func(x, y, z int32) BlockID {
		return blocks[BlockIndex(x, y, z)]
	}

	for axis := 0; axis < 3; axis++ {
		for _, backFace := range [2]bool{true, false} {
			u := (axis + 1) % 3
			v := (axis + 2) % 3

			var x [3]int32
			var q [3]int32
			q[axis] = 1

			face := faceForAxis(axis, backFace)

			for x[axis] = -1; x[axis] < ChunkSize; {
				n := 0
				for x[v] = 0; x[v] < ChunkSize; x[v]++ {
					for x[u] = 0; x[u] < ChunkSize; x[u]++ {
						var voxel1, voxel2 BlockID
						if x[axis] >= 0 {
							voxel1 = at(x[0], x[1], x[2])
						}
						if x[axis] < ChunkSize-1 {
							voxel2 = at(x[0]+q[0], x[1]+q[1], x[2]+q[2])
						}

						switch {
						case voxel1 == voxel2:
							mask[n] = Air
						case backFace:
							mask[n] = voxel2
						default:
							mask[n] = voxel1
						}
						n++
					}
				}

				x[axis]++

				n = 0
				for j := int32(0); j < ChunkSize; j++ {
					for i := int32(0); i < ChunkSize; {
						id := mask[n]
						if id == Air {
							i++
							n++
							continue
						}

						var width int32
						for width = 1; i+width < ChunkSize && mask[n+int(width)] == id; width++ {
						}

						var height int32
						done := false
						for height = 1; j+height < ChunkSize; height++ {
							for k := int32(0); k < width; k++ {
								if mask[n+int(k)+int(height)*ChunkSize] != id {
									done = true
									break
								}
							}
							if done {
								break
							}
						}

						x[u] = i
						x[v] = j

						var du, dv [3]int32
						du[u] = width
						dv[v] = height

						bl := addVec3(x, [3]int32{0, 0, 0})
						tl := addVec3(x, du)
						tr := addVec3(x, [3]int32{du[0] + dv[0], du[1] + dv[1], du[2] + dv[2]})
						br := addVec3(x, dv)

						appendQuad(dst, worldOrigin, bl, tl, tr, br, backFace, face, id)

						for h := int32(0); h < height; h++ {
							for k := int32(0); k < width; k++ {
								mask[n+int(k)+int(h)*ChunkSize] = Air
							}
						}

						i += width
						n += int(width)
					}
				}
			}
		}
	}
}

func addVec3(base, delta [3]int32) [3]int32 {
	return [3]int32{base[0] + delta[0], base[1] + delta[1], base[2] + delta[2]}
}

// appendQuad emits one quad (4 vertices, 2 triangles) into dst, winding
// the triangles so the face normal points outward depending on backFace,
// exactly as the original's AddQuad.
func appendQuad(dst *MeshBuffer, origin mgl32.Vec3, bl, tl, tr, br [3]int32, backFace bool, face FaceDir, id BlockID) {
	base := uint32(len(dst.Vertices))
	packed := PackVertexAttrs(id, face)

	toVec := func(c [3]int32) mgl32.Vec3 {
		return origin.Add(mgl32.Vec3{float32(c[0]), float32(c[1]), float32(c[2])})
	}

	dst.Vertices = append(dst.Vertices,
		Vertex{Position: toVec(bl), Packed: packed}, // 0: bottom-left
		Vertex{Position: toVec(br), Packed: packed}, // 1: bottom-right
		Vertex{Position: toVec(tr), Packed: packed}, // 2: top-right
		Vertex{Position: toVec(tl), Packed: packed}, // 3: top-left
	)

	if backFace {
		dst.Indices = append(dst.Indices, base+0, base+1, base+2, base+2, base+3, base+0)
	} else {
		dst.Indices = append(dst.Indices, base+0, base+3, base+2, base+0, base+2, base+1)
	}
}
