package synthesis

import (
	"fmt"
	"math/rand/v2"
)

// Source supplies the noise injected per sample during resynthesis
type Source interface {
	// Uniform returns the next noise value; bounded sources stay within [-1, 1]
	Uniform() float64
}

// Noise modes understood by NewSource
const (
	NoiseUniform  = "uniform"
	NoiseGaussian = "gaussian"
)

type uniformSource struct {
	rng *rand.Rand
}

// NewUniformSource returns a seeded source of values uniformly distributed in [-1, 1)
func NewUniformSource(seed uint64) Source {
	return &uniformSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *uniformSource) Uniform() float64 {
	return s.rng.Float64()*2 - 1
}

type gaussianSource struct {
	rng *rand.Rand
}

// NewGaussianSource returns a seeded standard-normal source. It is unbounded.
func NewGaussianSource(seed uint64) Source {
	return &gaussianSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *gaussianSource) Uniform() float64 {
	return s.rng.NormFloat64()
}

// NewSource builds the source for a named noise mode
func NewSource(mode string, seed uint64) (Source, error) {
	switch mode {
	case NoiseUniform, "":
		return NewUniformSource(seed), nil
	case NoiseGaussian:
		return NewGaussianSource(seed), nil
	default:
		return nil, fmt.Errorf("unknown noise mode: %s", mode)
	}
}
