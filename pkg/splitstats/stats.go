// Package splitstats accumulates, per mixture component, the chi-squared
// discrepancy diagnostic spec.md §4.5 uses to decide which lobes are too
// coarse a model for the samples assigned to them, and implements the
// split itself.
package splitstats

import "math"

// MaxComponents mirrors mixture.MaxComponents.
const MaxComponents = 32

// chi2Epsilon guards the chi-squared accumulator's denominator.
const chi2Epsilon = 1e-8

// Cov6 is a symmetric 3x3 matrix stored as its six distinct entries in the
// order (xx, xy, xz, yy, yz, zz), the weighted angular covariance
// accumulator the splitter power-iterates to find a split axis.
type Cov6 [6]float64

// AddOuter adds weight * (d (x) d) to the accumulator, where d is a
// direction offset (not necessarily unit length).
func (c *Cov6) AddOuter(d [3]float64, weight float64) {
	c[0] += weight * d[0] * d[0]
	c[1] += weight * d[0] * d[1]
	c[2] += weight * d[0] * d[2]
	c[3] += weight * d[1] * d[1]
	c[4] += weight * d[1] * d[2]
	c[5] += weight * d[2] * d[2]
}

// Mul returns c*v for the symmetric matrix c.
func (c Cov6) Mul(v [3]float64) [3]float64 {
	return [3]float64{
		c[0]*v[0] + c[1]*v[1] + c[2]*v[2],
		c[1]*v[0] + c[3]*v[1] + c[4]*v[2],
		c[2]*v[0] + c[4]*v[1] + c[5]*v[2],
	}
}

// Statistics is the per-component split diagnostic of spec.md §4.5/§4.3.
type Statistics struct {
	K int

	// Chi2[k] accumulates S_k, the unnormalized chi-squared discrepancy.
	Chi2 [MaxComponents]float64
	// Covariance[k] accumulates the weighted angular-covariance outer
	// product of samples assigned to component k, used to find the
	// split axis by power iteration.
	Covariance [MaxComponents]Cov6
	// SampleCount[k] counts samples with non-negligible responsibility
	// for component k.
	SampleCount [MaxComponents]uint64

	// SinceLastSplit is a monotone count of samples folded in since the
	// last split pass; reset to 0 by the orchestrator after each pass.
	SinceLastSplit uint64
}

// Reset zeroes all accumulators and sets the component count to k. The
// since-last-split counter is preserved; callers that want it cleared do
// so explicitly (the orchestrator resets it only after actually running a
// split pass, per spec.md §4.7).
func (s *Statistics) Reset(k int) {
	since := s.SinceLastSplit
	*s = Statistics{K: k, SinceLastSplit: since}
}

// SetNumComponents grows or shrinks the active component count, zeroing
// newly exposed slots.
func (s *Statistics) SetNumComponents(k int) {
	if k > s.K {
		for i := s.K; i < k; i++ {
			s.Chi2[i] = 0
			s.Covariance[i] = Cov6{}
			s.SampleCount[i] = 0
		}
	}
	s.K = k
}

// ResetComponent zeroes the accumulator for a single component, used when
// a split or merge vacates or repurposes a slot.
func (s *Statistics) ResetComponent(k int) {
	s.Chi2[k] = 0
	s.Covariance[k] = Cov6{}
	s.SampleCount[k] = 0
}

// Valid reports whether every accumulated sum is finite.
func (s *Statistics) Valid() bool {
	if s.K < 0 || s.K > MaxComponents {
		return false
	}
	for k := 0; k < s.K; k++ {
		if math.IsNaN(s.Chi2[k]) || math.IsInf(s.Chi2[k], 0) {
			return false
		}
		for _, c := range s.Covariance[k] {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return false
			}
		}
	}
	return true
}
