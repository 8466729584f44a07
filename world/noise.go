package world

import (
	"math"
	"math/rand"
)

// terrainNoise is a seeded 2D gradient-noise generator backing the ground
// height field. The kinematic backend only ever samples the horizontal
// plane, so the lattice is a square rather than a cube.
type terrainNoise struct {
	perm [512]int
}

func newTerrainNoise(seed int64) *terrainNoise {
	n := &terrainNoise{}
	rng := rand.New(rand.NewSource(seed))

	var perm [256]int
	for i := range perm {
		perm[i] = i
	}
	rng.Shuffle(len(perm), func(i, j int) {
		perm[i], perm[j] = perm[j], perm[i]
	})

	// Doubled so lattice hashes never need wrapping.
	for i, v := range perm {
		n.perm[i] = v
		n.perm[i+256] = v
	}
	return n
}

// Sample returns a coherent noise value at (x, y). Values are zero on
// lattice points and vary smoothly between them.
func (n *terrainNoise) Sample(x, y float64) float64 {
	xi := int(math.Floor(x)) & 255
	yi := int(math.Floor(y)) & 255
	x -= math.Floor(x)
	y -= math.Floor(y)

	u := fade(x)
	v := fade(y)

	a := n.perm[xi] + yi
	b := n.perm[xi+1] + yi

	return lerp(v,
		lerp(u, gradient(n.perm[a], x, y), gradient(n.perm[b], x-1, y)),
		lerp(u, gradient(n.perm[a+1], x, y-1), gradient(n.perm[b+1], x-1, y-1)))
}

// fade is the quintic smoothstep, zero first and second derivatives at the
// lattice points.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

// gradient projects the offset onto one of eight lattice directions picked
// by the hash: the four diagonals and the four axes.
func gradient(hash int, x, y float64) float64 {
	switch hash & 7 {
	case 0:
		return x + y
	case 1:
		return x - y
	case 2:
		return -x + y
	case 3:
		return -x - y
	case 4:
		return x
	case 5:
		return -x
	case 6:
		return y
	default:
		return -y
	}
}
