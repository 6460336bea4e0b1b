// Power-of-two multiresolution pyramid shared by analysis and synthesis
package pyramid

import (
	"errors"
	"fmt"
)

// Channels is the number of interleaved samples per pixel (RGBA)
const Channels = 4

// Opaque is the alpha value written by every synthesis path
const Opaque = 255.0

var (
	// ErrInvalidConfiguration is returned when a base resolution is not a positive power of two
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidImageDimensions is returned when a pixel buffer does not hold 4*R*R samples
	ErrInvalidImageDimensions = errors.New("invalid image dimensions")
)

// Field is one statistical channel (color or delta) at one level
type Field struct {
	Samples []float64
	Mean    [Channels]float64
	Std     [Channels]float64
}

// Level is one resolution tier of a pyramid
type Level struct {
	N     int
	Res   int
	Color Field
	Delta Field
}

// Pyramid holds levels 0..log2(Res), level 0 being the 1x1 root
type Pyramid struct {
	Res    int
	Levels []Level
}

// Defaults are the flat-start statistics of a synthesis pyramid
type Defaults struct {
	Mean     float64
	DeltaStd float64
}

// DefaultStart returns the flat gray start used before any image is handled
func DefaultStart() Defaults {
	return Defaults{Mean: 128, DeltaStd: 30}
}

// IsPowerOfTwo reports whether n is a positive power of two
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Log2 returns the exponent of a power of two
func Log2(n int) int {
	k := 0
	for n > 1 {
		n >>= 1
		k++
	}
	return k
}

// NearestIndex maps index i at resolution fromRes to its nearest-neighbour index at toRes.
// Used for parent lookups (toRes < fromRes) and for upsampling (toRes > fromRes).
func NearestIndex(i, fromRes, toRes int) int {
	return i * toRes / fromRes
}

// New builds a zero-valued pyramid for a base resolution
func New(res int) (*Pyramid, error) {
	if !IsPowerOfTwo(res) {
		return nil, fmt.Errorf("%w: base resolution %d is not a power of two", ErrInvalidConfiguration, res)
	}

	p := &Pyramid{
		Res:    res,
		Levels: make([]Level, Log2(res)+1),
	}
	for n := range p.Levels {
		levelRes := 1 << n
		p.Levels[n] = Level{
			N:     n,
			Res:   levelRes,
			Color: Field{Samples: make([]float64, Channels*levelRes*levelRes)},
			Delta: Field{Samples: make([]float64, Channels*levelRes*levelRes)},
		}
	}
	return p, nil
}

// NewSynthesis builds a pyramid in the flat-start state: every color sample holds
// the default mean with opaque alpha, and every delta std holds the default spread.
func NewSynthesis(res int, d Defaults) (*Pyramid, error) {
	p, err := New(res)
	if err != nil {
		return nil, err
	}

	for n := range p.Levels {
		level := &p.Levels[n]
		for c := 0; c < Channels; c++ {
			level.Color.Mean[c] = d.Mean
			level.Delta.Std[c] = d.DeltaStd
		}
		fillFlat(level.Color.Samples, level.Color.Mean)
	}
	return p, nil
}

// fillFlat writes mean into every pixel of samples with alpha forced opaque
func fillFlat(samples []float64, mean [Channels]float64) {
	for i := 0; i < len(samples); i += Channels {
		samples[i] = mean[0]
		samples[i+1] = mean[1]
		samples[i+2] = mean[2]
		samples[i+3] = Opaque
	}
}

// NumLevels returns the number of levels in the pyramid
func (p *Pyramid) NumLevels() int {
	return len(p.Levels)
}

// Base returns the full-resolution level
func (p *Pyramid) Base() *Level {
	return &p.Levels[len(p.Levels)-1]
}

// Clone returns a deep copy
func (p *Pyramid) Clone() *Pyramid {
	out := &Pyramid{
		Res:    p.Res,
		Levels: make([]Level, len(p.Levels)),
	}
	for n, level := range p.Levels {
		out.Levels[n] = Level{
			N:     level.N,
			Res:   level.Res,
			Color: level.Color.clone(),
			Delta: level.Delta.clone(),
		}
	}
	return out
}

func (f Field) clone() Field {
	samples := make([]float64, len(f.Samples))
	copy(samples, f.Samples)
	return Field{Samples: samples, Mean: f.Mean, Std: f.Std}
}

// Index returns the offset of channel c of pixel (i, j) in a level's sample arrays
func (l *Level) Index(i, j, c int) int {
	return (i*l.Res+j)*Channels + c
}

// Pixel returns the color sample at (i, j)
func (l *Level) Pixel(i, j int) [Channels]float64 {
	var px [Channels]float64
	copy(px[:], l.Color.Samples[l.Index(i, j, 0):l.Index(i, j, 0)+Channels])
	return px
}

// ValidateBuffer checks that a buffer of length n holds a res x res RGBA image
func ValidateBuffer(n, res int) error {
	if !IsPowerOfTwo(res) {
		return fmt.Errorf("%w: resolution %d is not a power of two", ErrInvalidImageDimensions, res)
	}
	if n != Channels*res*res {
		return fmt.Errorf("%w: got %d samples, want %d for %dx%d RGBA",
			ErrInvalidImageDimensions, n, Channels*res*res, res, res)
	}
	return nil
}
