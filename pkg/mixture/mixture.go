// Package mixture implements the fixed-capacity mixture of weighted vMF
// lobes with a parallax pivot that the fitter trains and the renderer
// queries.
package mixture

import (
	"fmt"
	"math"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
)

// MaxComponents is the compile-time bound K_max on the number of lobes a
// Mixture can hold. spec.md §9 requires K_max >= 8 and recommends 32.
const MaxComponents = 32

const weightSumTolerance = 1e-5

// Mixture is an ordered sequence of at most MaxComponents weighted vMF
// lobes sharing one pivot position. It is a plain value type: copying a
// Mixture copies its entire (small, fixed-size) state, which is how the
// parallax-compensated "working" copy used at query time is produced
// without touching the persistent, trained Mixture.
type Mixture struct {
	K              int
	Weights        [MaxComponents]float64
	Lobes          [MaxComponents]vmf.Lobe
	PivotDistances [MaxComponents]float64
	Pivot          vmf.Vec3
}

// New returns a Mixture with k uniform-weight, uniform-direction lobes
// centered at pivot, ready to be trained. k must be in [1, MaxComponents].
func New(k int, pivot vmf.Vec3) (*Mixture, error) {
	if k < 1 || k > MaxComponents {
		return nil, fmt.Errorf("mixture: component count %d out of range [1,%d]", k, MaxComponents)
	}
	m := &Mixture{K: k, Pivot: pivot}
	dirs := lowDiscrepancyDirections(k)
	for i := 0; i < k; i++ {
		m.Weights[i] = 1 / float64(k)
		m.Lobes[i] = vmf.Lobe{Mu: dirs[i], Kappa: 5.0}
		m.PivotDistances[i] = 1
	}
	return m, nil
}

// Clear reverts the mixture to a uniform single lobe, per spec.md §6.
func (m *Mixture) Clear() {
	*m = Mixture{K: 1}
	m.Weights[0] = 1
	m.Lobes[0] = vmf.Lobe{Mu: vmf.Vec3{0, 0, 1}, Kappa: 0}
	m.PivotDistances[0] = 1
}

// PDF evaluates the mixture density at omega.
func (m *Mixture) PDF(omega vmf.Vec3) float64 {
	var p float64
	for k := 0; k < m.K; k++ {
		p += m.Weights[k] * vmf.Eval(m.Lobes[k], omega)
	}
	return p
}

// Sample draws a direction by discrete-selecting a component via the CDF
// over weights using u1, rescaling u1 within the selected component's
// weight interval so it remains uniform, then sampling that lobe. It
// returns the direction and the full mixture pdf at that direction.
func (m *Mixture) Sample(u1, u2 float64) (vmf.Vec3, float64) {
	k, uLocal := m.selectComponent(u1)
	omega := vmf.Sample(m.Lobes[k], uLocal, u2)
	return omega, m.PDF(omega)
}

// SamplePDF is an alias for Sample kept to mirror spec.md §6's combined
// sample+pdf entry point; callers that need only one or the other should
// prefer Sample or PDF directly.
func (m *Mixture) SamplePDF(u1, u2 float64) (vmf.Vec3, float64) {
	return m.Sample(u1, u2)
}

// selectComponent picks a component index by scanning the CDF over
// weights and returns it along with u1 rescaled to [0,1) within that
// component's weight interval.
func (m *Mixture) selectComponent(u1 float64) (int, float64) {
	var cdf float64
	for k := 0; k < m.K-1; k++ {
		next := cdf + m.Weights[k]
		if u1 < next {
			if m.Weights[k] <= 0 {
				return k, 0.5
			}
			return k, (u1 - cdf) / m.Weights[k]
		}
		cdf = next
	}
	last := m.K - 1
	w := m.Weights[last]
	if w <= 0 {
		return last, 0.5
	}
	local := (u1 - cdf) / w
	if local < 0 {
		local = 0
	} else if local > 1 {
		local = 1
	}
	return last, local
}

// SupportsApplyCosineProduct reports whether ApplyCosineProduct is
// implemented analytically for this mixture's lobe kernel. vMF supports
// it, so this is always true; it exists so callers never have to special
// case the capability (spec.md §9's open question: the source discarded
// this bit, this implementation propagates it).
func (m *Mixture) SupportsApplyCosineProduct() bool {
	return true
}

// ApplyCosineProduct replaces each lobe with the normalized analytic
// product of the lobe and the clamped-cosine lobe at n, then renormalizes
// weights.
func (m *Mixture) ApplyCosineProduct(n vmf.Vec3) {
	var total float64
	newWeights := [MaxComponents]float64{}
	for k := 0; k < m.K; k++ {
		mu, kappa, scale := vmf.ProductWithCosineLobe(m.Lobes[k], n)
		m.Lobes[k] = vmf.Lobe{Mu: mu, Kappa: kappa}
		newWeights[k] = m.Weights[k] * scale
		total += newWeights[k]
	}
	if total <= 0 {
		// Degenerate: every lobe faced away from n. Fall back to a
		// uniform distribution over the existing directions rather than
		// dividing by zero.
		for k := 0; k < m.K; k++ {
			m.Weights[k] = 1 / float64(m.K)
		}
		return
	}
	for k := 0; k < m.K; k++ {
		m.Weights[k] = newWeights[k] / total
	}
}

// Parallax returns a copy of m with each lobe's mean direction redirected
// to point from query toward the same virtual source implied by the
// lobe's stored pivot distance: mu' = normalize(pivot + d_k*mu_k -
// query). Weights and concentrations are unchanged. The receiver is not
// modified; this is the "lazy parallax compensation" of spec.md §4.2,
// applied once per query rather than stored.
func (m *Mixture) Parallax(query vmf.Vec3) Mixture {
	out := *m
	if query == m.Pivot {
		return out
	}
	for k := 0; k < m.K; k++ {
		source := m.Pivot.Add(m.Lobes[k].Mu.Scale(m.PivotDistances[k]))
		dir := source.Sub(query)
		if dir.Norm() < 1e-12 {
			continue
		}
		out.Lobes[k].Mu = dir.Normalize()
	}
	return out
}

// Validate checks the invariants of spec.md §8 (1)-(3): weights sum to 1
// within tolerance and are non-negative, every mu is a finite unit
// vector, every kappa is within [0, KappaMax], and every pivot distance
// is finite and positive.
func (m *Mixture) Validate() bool {
	if m.K < 1 || m.K > MaxComponents {
		return false
	}
	var sum float64
	for k := 0; k < m.K; k++ {
		w := m.Weights[k]
		if math.IsNaN(w) || w < 0 {
			return false
		}
		sum += w
		l := m.Lobes[k]
		if !l.Mu.IsFinite() || math.Abs(l.Mu.Norm()-1) > 1e-6 {
			return false
		}
		if math.IsNaN(l.Kappa) || l.Kappa < 0 || l.Kappa > vmf.KappaMax {
			return false
		}
		d := m.PivotDistances[k]
		if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
			return false
		}
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return false
	}
	return !math.IsNaN(m.Pivot[0]) && m.Pivot.IsFinite()
}

// IsAllZeroWeight reports whether every component has zero weight, the
// condition under which spec.md §6's InitSurfaceSamplingDistribution
// must report failure.
func (m *Mixture) IsAllZeroWeight() bool {
	for k := 0; k < m.K; k++ {
		if m.Weights[k] > 0 {
			return false
		}
	}
	return true
}
