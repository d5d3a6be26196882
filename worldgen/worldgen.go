// Package worldgen is the offline world generator: it samples a
// coherent-noise heightfield and writes RLE chunk streams directly into
// region files, seeding a world directory before the streaming core ever
// opens it. Per spec.md §4.7, it never runs concurrently with a
// chunkmgr.Manager.
package worldgen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ridgeline-games/voxelstream/region"
	"github.com/ridgeline-games/voxelstream/voxel"
	"github.com/ridgeline-games/voxelstream/worldgen/noise"
)

// AltitudeBand maps a starting world-Y height to the terrain block ID
// used for solid blocks from that height up to the next band's start.
// terrainFor ports the original's "highest band whose start <= y wins"
// rule (SPEC_FULL.md §10).
type AltitudeBand struct {
	StartingHeight int32
	Block          voxel.BlockID
}

// Generator produces region files for a cubic world of WorldSizeChunks
// chunks on a side, sampling Noise for a 2D heightfield remapped into
// [MinHeight, MaxHeight].
type Generator struct {
	WorldSizeChunks uint32
	Noise           noise.Source
	Bands           []AltitudeBand // must be sorted descending by StartingHeight
	MinHeight       int32
	MaxHeight       int32
}

// NewGenerator sorts bands descending by StartingHeight (BuildChunk's
// scan requires this) and returns a ready-to-use Generator.
func NewGenerator(worldSizeChunks uint32, source noise.Source, bands []AltitudeBand, minHeight, maxHeight int32) *Generator {
	sorted := append([]AltitudeBand(nil), bands...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartingHeight > sorted[j].StartingHeight })
	return &Generator{
		WorldSizeChunks: worldSizeChunks,
		Noise:           source,
		Bands:           sorted,
		MinHeight:       minHeight,
		MaxHeight:       maxHeight,
	}
}

// mapValue linearly remaps v from [-1, 1] into [lo, hi], ported from the
// original's FMath::MapValue (SPEC_FULL.md §10).
func mapValue(v float64, lo, hi int32) int32 {
	t := (v + 1) / 2
	return lo + int32(t*float64(hi-lo))
}

// terrainFor returns the highest band whose StartingHeight is <= y, or
// Air if y is above every band (bands must already be sorted descending).
func terrainFor(bands []AltitudeBand, y int32) voxel.BlockID {
	for _, b := range bands {
		if b.StartingHeight <= y {
			return b.Block
		}
	}
	return voxel.Air
}

func (g *Generator) heightAt(worldX, worldZ int32) int32 {
	sample := g.Noise.Sample2D(float64(worldX), float64(worldZ))
	return mapValue(sample, g.MinHeight, g.MaxHeight)
}

// BuildChunk encodes the RLE block stream for the chunk at chunkPos,
// walking rows in the order spec.md §6 requires: for y in 0..S: for x in
// 0..S: for z in 0..S, emitting (id, run) pairs.
func (g *Generator) BuildChunk(chunkPos voxel.Pos) []byte {
	out := make([]byte, 0, voxel.ChunkSize*voxel.ChunkSize*2)

	originX := chunkPos.X * voxel.ChunkSize
	originY := chunkPos.Y * voxel.ChunkSize
	originZ := chunkPos.Z * voxel.ChunkSize

	for ly := int32(0); ly < voxel.ChunkSize; ly++ {
		worldY := originY + ly
		for lx := int32(0); lx < voxel.ChunkSize; lx++ {
			worldX := originX + lx

			lz := int32(0)
			for lz < voxel.ChunkSize {
				worldZ := originZ + lz
				h := g.heightAt(worldX, worldZ)
				id := voxel.Air
				if worldY < h {
					id = terrainFor(g.Bands, worldY)
				}

				run := int32(1)
				for lz+run < voxel.ChunkSize {
					nextWorldZ := originZ + lz + run
					nextH := g.heightAt(worldX, nextWorldZ)
					nextID := voxel.Air
					if worldY < nextH {
						nextID = terrainFor(g.Bands, worldY)
					}
					if nextID != id {
						break
					}
					run++
				}

				out = append(out, byte(id), byte(run))
				lz += run
			}
		}
	}
	return out
}

// GenerateWorld creates (overwriting any existing contents) the world
// directory worldsRoot/name, writes every occupied region file, and
// writes the WorldInfo sidecar. Per spec.md §4.7: CREATE_ALWAYS region
// semantics.
func (g *Generator) GenerateWorld(worldsRoot, name string) error {
	dir := filepath.Join(worldsRoot, name)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("worldgen: clear %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("worldgen: create %s: %w", dir, err)
	}

	regionsPerAxis := (int32(g.WorldSizeChunks) + region.RegionSize - 1) / region.RegionSize
	worldBound := int32(g.WorldSizeChunks)

	for rx := int32(0); rx < regionsPerAxis; rx++ {
		for ry := int32(0); ry < regionsPerAxis; ry++ {
			for rz := int32(0); rz < regionsPerAxis; rz++ {
				if err := g.generateRegion(dir, rx, ry, rz, worldBound); err != nil {
					return err
				}
			}
		}
	}

	return region.WriteWorldInfo(dir, g.WorldSizeChunks)
}

func (g *Generator) generateRegion(dir string, rx, ry, rz, worldBound int32) error {
	path := filepath.Join(dir, fmt.Sprintf("x%dy%dz%d.vgr", rx, ry, rz))

	rf, err := region.Open(path)
	if err != nil {
		return fmt.Errorf("worldgen: open region %s: %w", path, err)
	}
	defer rf.Close()

	for lx := int32(0); lx < region.RegionSize; lx++ {
		cx := rx*region.RegionSize + lx
		if cx >= worldBound {
			continue
		}
		for ly := int32(0); ly < region.RegionSize; ly++ {
			cy := ry*region.RegionSize + ly
			if cy >= worldBound {
				continue
			}
			for lz := int32(0); lz < region.RegionSize; lz++ {
				cz := rz*region.RegionSize + lz
				if cz >= worldBound {
					continue
				}

				chunkPos := voxel.Pos{X: cx, Y: cy, Z: cz}
				data := g.BuildChunk(chunkPos)
				rf.WriteStream(voxel.Pos{X: lx, Y: ly, Z: lz}, data)
			}
		}
	}
	return nil
}
