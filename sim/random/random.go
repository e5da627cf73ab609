// Package random provides the seedable variate generator that arrival and
// service processes sample from.
package random

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidParameter reports a distribution parameter out of its domain.
var ErrInvalidParameter = errors.New("random: invalid distribution parameter")

// A Generator draws exponential and uniform variates from one PCG stream.
// The same seed always yields the same sequence. A Generator is owned by a
// single run and is not safe for concurrent use.
type Generator struct {
	src     *rand.PCGSource
	rng     *rand.Rand
	uniform distuv.Uniform
}

// New creates a Generator seeded with seed.
func New(seed uint64) *Generator {
	src := &rand.PCGSource{}
	src.Seed(seed)

	return &Generator{
		src:     src,
		rng:     rand.New(src),
		uniform: distuv.Uniform{Min: 0, Max: 1, Src: src},
	}
}

// Seed resets the stream. The variates that follow are identical to those
// of a fresh Generator with the same seed.
func (g *Generator) Seed(seed uint64) {
	g.src.Seed(seed)
}

// Exponential returns a sample of an exponential distribution with the
// given mean.
func (g *Generator) Exponential(mean float64) (float64, error) {
	if !(mean > 0) || math.IsInf(mean, 1) {
		return 0, fmt.Errorf("%w: exponential mean %v", ErrInvalidParameter, mean)
	}

	d := distuv.Exponential{Rate: 1 / mean, Src: g.src}

	return d.Rand(), nil
}

// Uniform01 returns a sample in [0, 1).
func (g *Generator) Uniform01() float64 {
	return g.uniform.Rand()
}

// Intn returns a uniform integer in [0, n). It panics if n <= 0.
func (g *Generator) Intn(n int) int {
	return g.rng.Intn(n)
}
