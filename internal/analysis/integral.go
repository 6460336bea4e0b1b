package analysis

import "photosynthesis/internal/pyramid"

// SummedAreaTable holds per-channel prefix sums over an R x R RGBA grid
type SummedAreaTable struct {
	res   int
	table []float64
}

// NewSummedAreaTable builds the table in a single inclusion-exclusion pass.
// pixels must already be validated to hold 4*res*res samples.
func NewSummedAreaTable[T Sample](pixels []T, res int) *SummedAreaTable {
	sat := &SummedAreaTable{
		res:   res,
		table: make([]float64, len(pixels)),
	}

	for c := 0; c < pyramid.Channels; c++ {
		for i := 0; i < res; i++ {
			for j := 0; j < res; j++ {
				index := sat.index(i, j, c)
				sum := float64(pixels[index])
				if i > 0 {
					sum += sat.table[sat.index(i-1, j, c)]
				}
				if j > 0 {
					sum += sat.table[sat.index(i, j-1, c)]
				}
				if i > 0 && j > 0 {
					sum -= sat.table[sat.index(i-1, j-1, c)]
				}
				sat.table[index] = sum
			}
		}
	}

	return sat
}

func (s *SummedAreaTable) index(i, j, c int) int {
	return (i*s.res+j)*pyramid.Channels + c
}

// RegionSum returns the sum of channel c over rows [i0, i1) and columns [j0, j1)
func (s *SummedAreaTable) RegionSum(c, i0, j0, i1, j1 int) float64 {
	if i1 <= i0 || j1 <= j0 {
		return 0
	}

	sum := s.table[s.index(i1-1, j1-1, c)]
	if i0 > 0 {
		sum -= s.table[s.index(i0-1, j1-1, c)]
	}
	if j0 > 0 {
		sum -= s.table[s.index(i1-1, j0-1, c)]
	}
	if i0 > 0 && j0 > 0 {
		sum += s.table[s.index(i0-1, j0-1, c)]
	}
	return sum
}

// Total returns the sum of channel c over the whole image
func (s *SummedAreaTable) Total(c int) float64 {
	return s.table[s.index(s.res-1, s.res-1, c)]
}

// Res returns the grid resolution
func (s *SummedAreaTable) Res() int {
	return s.res
}
