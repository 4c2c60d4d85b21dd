// Package suffstats holds the per-component running moments that let the
// weighted EM factory resume fitting across batches without re-reading
// past samples: responsibility mass, vector moment and inverse-distance
// moment, each decayable and serializable.
package suffstats

import "math"

// MaxComponents mirrors mixture.MaxComponents; duplicated here (rather
// than imported) because suffstats has no dependency on mixture or vmf —
// it is a pure accumulator package the EM factory drives.
const MaxComponents = 32

// Moment3 is a running first-moment vector sum. It deliberately does not
// depend on vmf.Vec3 so this package stays free of the geometry layer;
// callers convert at the boundary.
type Moment3 [3]float64

// Add returns m + q.
func (m Moment3) Add(q Moment3) Moment3 {
	return Moment3{m[0] + q[0], m[1] + q[1], m[2] + q[2]}
}

// Scale returns m scaled by f.
func (m Moment3) Scale(f float64) Moment3 {
	return Moment3{m[0] * f, m[1] * f, m[2] * f}
}

// Norm returns the Euclidean length of m.
func (m Moment3) Norm() float64 {
	return math.Sqrt(m[0]*m[0] + m[1]*m[1] + m[2]*m[2])
}

// Statistics is the per-component sufficient-statistics accumulator of
// spec.md §4.3. All sums are kept in float64 regardless of the mixture's
// parameter precision, per spec.md §9's "nested scalar floats" note.
type Statistics struct {
	K int

	// GammaSum[k] accumulates sum_i what_i*gamma_ik (a_k in spec.md §4.4).
	GammaSum [MaxComponents]float64
	// VectorMoment[k] accumulates sum_i what_i*gamma_ik*omega_i (v_k).
	VectorMoment [MaxComponents]Moment3
	// InvDistMoment[k] accumulates sum_i what_i*gamma_ik/distance_i, used
	// to derive the harmonic-mean pivot distance d_k = a_k/InvDistMoment[k].
	InvDistMoment [MaxComponents]float64

	// TotalResponsibility accumulates sum_i gamma_i across components and
	// samples (Sigma gamma_i in spec.md §4.3).
	TotalResponsibility float64
	// TotalWeight accumulates sum_i what_i, used in the Monte-Carlo
	// estimate M = TotalWeight/N that the splitter normalizes chi^2 by.
	TotalWeight float64
	// N is the number of samples folded into these statistics, monotonic
	// except across an explicit Clear.
	N uint64
	// B is the number of batches folded in.
	B uint64
}

// Clear zeroes all sums and sets the component count to k.
func (s *Statistics) Clear(k int) {
	*s = Statistics{K: k}
}

// SetNumComponents grows or shrinks the active component count. New slots
// (when growing) are zero-initialized; shrinking simply stops reading the
// tail slots (their accumulated values are left in place in case of a
// later re-grow, mirroring how a merge's compaction reuses the vacated
// slot rather than erasing it ahead of time).
func (s *Statistics) SetNumComponents(k int) {
	if k > s.K {
		for i := s.K; i < k; i++ {
			s.GammaSum[i] = 0
			s.VectorMoment[i] = Moment3{}
			s.InvDistMoment[i] = 0
		}
	}
	s.K = k
}

// Decay multiplies every sum, including N, B and the totals, by alpha.
// decay(1.0) is a no-op; decay(a) then decay(b) equals decay(a*b).
func (s *Statistics) Decay(alpha float64) {
	for k := 0; k < s.K; k++ {
		s.GammaSum[k] *= alpha
		s.VectorMoment[k] = s.VectorMoment[k].Scale(alpha)
		s.InvDistMoment[k] *= alpha
	}
	s.TotalResponsibility *= alpha
	s.TotalWeight *= alpha
	s.N = uint64(float64(s.N) * alpha)
	s.B = uint64(float64(s.B) * alpha)
}

// MaskedReplace overwrites component k's moments with other's wherever
// mask[k] is true, leaving the rest of s unchanged. Used after a split so
// the parent and child components can be refit in isolation and then
// folded back into the persistent statistics.
func (s *Statistics) MaskedReplace(mask []bool, other *Statistics) {
	for k := 0; k < s.K && k < len(mask); k++ {
		if !mask[k] {
			continue
		}
		s.GammaSum[k] = other.GammaSum[k]
		s.VectorMoment[k] = other.VectorMoment[k]
		s.InvDistMoment[k] = other.InvDistMoment[k]
	}
}

// Accumulate folds one sample's responsibility for component k into the
// running moments: weightedGamma is what_i*gamma_ik, omega the sample
// direction, distance the sample distance.
func (s *Statistics) Accumulate(k int, weightedGamma float64, omega Moment3, distance float64) {
	s.GammaSum[k] += weightedGamma
	s.VectorMoment[k] = s.VectorMoment[k].Add(omega.Scale(weightedGamma))
	if distance > 0 {
		s.InvDistMoment[k] += weightedGamma / distance
	}
}

// AddSample records one sample's contribution to the batch-wide totals.
// Call once per sample, independent of how many components it has
// nonzero responsibility for.
func (s *Statistics) AddSample(directionalWeight, responsibilitySum float64) {
	s.TotalWeight += directionalWeight
	s.TotalResponsibility += responsibilitySum
	s.N++
}

// EndBatch increments the batch counter.
func (s *Statistics) EndBatch() {
	s.B++
}

// PivotDistance returns the harmonic-mean pivot distance for component k:
// GammaSum[k]/InvDistMoment[k]. Returns the fallback when the component
// carries no mass yet.
func (s *Statistics) PivotDistance(k int, fallback float64) float64 {
	if s.InvDistMoment[k] <= 0 || s.GammaSum[k] <= 0 {
		return fallback
	}
	return s.GammaSum[k] / s.InvDistMoment[k]
}

// Valid reports whether every accumulated sum is finite and the component
// count is in range.
func (s *Statistics) Valid() bool {
	if s.K < 0 || s.K > MaxComponents {
		return false
	}
	if math.IsNaN(s.TotalResponsibility) || math.IsInf(s.TotalResponsibility, 0) {
		return false
	}
	if math.IsNaN(s.TotalWeight) || math.IsInf(s.TotalWeight, 0) {
		return false
	}
	for k := 0; k < s.K; k++ {
		if math.IsNaN(s.GammaSum[k]) || math.IsInf(s.GammaSum[k], 0) {
			return false
		}
		if math.IsNaN(s.InvDistMoment[k]) || math.IsInf(s.InvDistMoment[k], 0) {
			return false
		}
		for _, c := range s.VectorMoment[k] {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return false
			}
		}
	}
	return true
}
