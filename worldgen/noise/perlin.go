// Package noise implements a small coherent-noise source for terrain
// generation. No third-party noise library appears anywhere in the
// example corpus, so this is built on the standard library's
// math/rand/v2 for permutation-table seeding — see DESIGN.md's
// ambient-stack entry for worldgen.
package noise

import (
	"math"
	"math/rand/v2"
)

// Source produces a 2D coherent noise sample in [-1, 1] for any (x, z).
type Source interface {
	Sample2D(x, z float64) float64
}

// Perlin2D is a classic gradient-noise source (Ken Perlin's algorithm,
// with the quintic fade curve of his 2002 improved noise), seeded once
// at construction.
type Perlin2D struct {
	perm [512]int
}

// NewPerlin2D builds a permutation table deterministically from seed.
func NewPerlin2D(seed uint64) *Perlin2D {
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))

	var p [256]int
	for i := range p {
		p[i] = i
	}
	rng.Shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })

	n := &Perlin2D{}
	for i := 0; i < 512; i++ {
		n.perm[i] = p[i%256]
	}
	return n
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad2(hash int, x, z float64) float64 {
	switch hash & 3 {
	case 0:
		return x + z
	case 1:
		return -x + z
	case 2:
		return x - z
	default:
		return -x - z
	}
}

// Sample2D returns a coherent noise value in [-1, 1] for (x, z).
func (n *Perlin2D) Sample2D(x, z float64) float64 {
	xi := int(math.Floor(x)) & 255
	zi := int(math.Floor(z)) & 255
	xf := x - math.Floor(x)
	zf := z - math.Floor(z)

	u := fade(xf)
	v := fade(zf)

	aa := n.perm[n.perm[xi]+zi]
	ab := n.perm[n.perm[xi]+zi+1]
	ba := n.perm[n.perm[xi+1]+zi]
	bb := n.perm[n.perm[xi+1]+zi+1]

	x1 := lerp(u, grad2(aa, xf, zf), grad2(ba, xf-1, zf))
	x2 := lerp(u, grad2(ab, xf, zf-1), grad2(bb, xf-1, zf-1))
	return lerp(v, x1, x2)
}

// RidgedMulti2D layers octaves of Perlin2D into a ridged-multifractal
// signal (sharper ridgelines than plain Perlin), matching the shape of
// the two-module noise tree (Perlin + RidgedMulti) the original terrain
// generator combined — see SPEC_FULL.md §9.
type RidgedMulti2D struct {
	base       *Perlin2D
	octaves    int
	lacunarity float64
	gain       float64
}

// NewRidgedMulti2D builds a ridged-multifractal source over octaves
// layers of base, each successive octave at lacunarity× the frequency
// and gain× the amplitude of the last.
func NewRidgedMulti2D(base *Perlin2D, octaves int, lacunarity, gain float64) *RidgedMulti2D {
	return &RidgedMulti2D{base: base, octaves: octaves, lacunarity: lacunarity, gain: gain}
}

func (r *RidgedMulti2D) Sample2D(x, z float64) float64 {
	var sum, amplitude, frequency = 0.0, 1.0, 1.0
	var norm float64
	for i := 0; i < r.octaves; i++ {
		sample := r.base.Sample2D(x*frequency, z*frequency)
		ridge := 1 - math.Abs(sample)
		sum += ridge * ridge * amplitude
		norm += amplitude
		amplitude *= r.gain
		frequency *= r.lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum/norm*2 - 1
}
