// Command voxelgen offline-generates a world directory: a heightfield
// sampled from coherent noise, written directly into region files plus a
// WorldInfo sidecar, ready for chunkmgr.Manager.LoadWorld to stream.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ridgeline-games/voxelstream/voxel"
	"github.com/ridgeline-games/voxelstream/worldgen"
	"github.com/ridgeline-games/voxelstream/worldgen/noise"
)

func main() {
	worldsRoot := flag.String("worlds", "Worlds", "worlds root directory")
	name := flag.String("name", "Generated", "world name (subdirectory under -worlds)")
	size := flag.Uint("size", 8, "world size in chunks, per axis")
	seed := flag.Uint64("seed", 1, "noise permutation seed")
	octaves := flag.Int("octaves", 4, "ridged-multifractal octave count")
	lacunarity := flag.Float64("lacunarity", 2.0, "ridged-multifractal lacunarity")
	gain := flag.Float64("gain", 0.5, "ridged-multifractal gain")
	minHeight := flag.Int("min-height", 0, "lowest world-Y the heightfield can reach")
	maxHeight := flag.Int("max-height", 128, "highest world-Y the heightfield can reach")
	flag.Parse()

	base := noise.NewPerlin2D(*seed)
	source := noise.NewRidgedMulti2D(base, *octaves, *lacunarity, *gain)

	bands := []worldgen.AltitudeBand{
		{StartingHeight: 0, Block: voxel.BlockID(1)},   // stone, from the bottom up to the dirt band
		{StartingHeight: 60, Block: voxel.BlockID(2)},  // dirt
		{StartingHeight: 64, Block: voxel.BlockID(3)},  // grass, the topsoil band
		{StartingHeight: 110, Block: voxel.BlockID(4)}, // snow cap
	}

	gen := worldgen.NewGenerator(uint32(*size), source, bands, int32(*minHeight), int32(*maxHeight))

	if err := gen.GenerateWorld(*worldsRoot, *name); err != nil {
		fmt.Fprintf(os.Stderr, "voxelgen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("voxelgen: wrote %q (%d^3 chunks) under %q\n", *name, *size, *worldsRoot)
}
