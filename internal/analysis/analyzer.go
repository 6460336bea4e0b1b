// Hierarchical color/delta decomposition of a square RGBA image
package analysis

import (
	"math"

	"photosynthesis/internal/pyramid"
)

// Sample is any pixel component type accepted by the analyzer
type Sample interface {
	~uint8 | ~float32 | ~float64
}

// Region is the base-resolution rectangle [I0, I1) x [J0, J1) covered by one level pixel
type Region struct {
	I0, J0, I1, J1 int
}

// Area returns the number of base pixels in the region
func (r Region) Area() int {
	return (r.I1 - r.I0) * (r.J1 - r.J0)
}

// LevelRegion maps level pixel (i, j) at resolution levelRes to its base rectangle
func LevelRegion(i, j, levelRes, baseRes int) Region {
	return Region{
		I0: i * baseRes / levelRes,
		J0: j * baseRes / levelRes,
		I1: (i + 1) * baseRes / levelRes,
		J1: (j + 1) * baseRes / levelRes,
	}
}

// Analyze decomposes a res x res RGBA buffer into a freshly allocated pyramid.
//
// Every level's color mean is the global image mean, and the color std is taken
// around that global mean. The delta mean is the global mean at level 0 and zero
// elsewhere; the delta std is taken around the delta mean.
func Analyze[T Sample](pixels []T, res int) (*pyramid.Pyramid, error) {
	if err := pyramid.ValidateBuffer(len(pixels), res); err != nil {
		return nil, err
	}

	p, err := pyramid.New(res)
	if err != nil {
		return nil, err
	}

	sat := NewSummedAreaTable(pixels, res)

	var globalMean [pyramid.Channels]float64
	for c := range globalMean {
		globalMean[c] = sat.Total(c) / float64(res*res)
	}

	for n := range p.Levels {
		level := &p.Levels[n]
		level.Color.Mean = globalMean
		if n == 0 {
			level.Delta.Mean = globalMean
		}

		var parent *pyramid.Level
		if n > 0 {
			parent = &p.Levels[n-1]
		}

		var colorSq, deltaSq [pyramid.Channels]float64
		for i := 0; i < level.Res; i++ {
			for j := 0; j < level.Res; j++ {
				region := LevelRegion(i, j, level.Res, res)
				area := float64(region.Area())

				for c := 0; c < pyramid.Channels; c++ {
					index := level.Index(i, j, c)
					color := sat.RegionSum(c, region.I0, region.J0, region.I1, region.J1) / area
					level.Color.Samples[index] = color

					delta := color
					if parent != nil {
						pi := pyramid.NearestIndex(i, level.Res, parent.Res)
						pj := pyramid.NearestIndex(j, level.Res, parent.Res)
						delta = color - parent.Color.Samples[parent.Index(pi, pj, c)]
					}
					level.Delta.Samples[index] = delta

					dc := color - level.Color.Mean[c]
					dd := delta - level.Delta.Mean[c]
					colorSq[c] += dc * dc
					deltaSq[c] += dd * dd
				}
			}
		}

		for c := 0; c < pyramid.Channels; c++ {
			level.Color.Std[c] = sampleStd(colorSq[c], level.Res)
			level.Delta.Std[c] = sampleStd(deltaSq[c], level.Res)
		}
	}

	return p, nil
}

// sampleStd finishes a sum of squared deviations over an L x L level (divisor L^2-1)
func sampleStd(sumSq float64, levelRes int) float64 {
	count := levelRes * levelRes
	if count <= 1 {
		return 0
	}
	return math.Sqrt(sumSq / float64(count-1))
}
