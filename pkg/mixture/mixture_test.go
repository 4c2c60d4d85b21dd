package mixture

import (
	"math"
	"math/rand"
	"testing"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func TestNewValidatesComponentCount(t *testing.T) {
	if _, err := New(0, vmf.Vec3{}); err == nil {
		t.Error("New(0, ...) expected error")
	}
	if _, err := New(MaxComponents+1, vmf.Vec3{}); err == nil {
		t.Error("New(MaxComponents+1, ...) expected error")
	}
	m, err := New(4, vmf.Vec3{})
	if err != nil {
		t.Fatalf("New(4, ...): %v", err)
	}
	if !m.Validate() {
		t.Fatalf("freshly constructed mixture should validate")
	}
}

func TestLowDiscrepancyDirectionsAreUnitAndDistinct(t *testing.T) {
	m, _ := New(8, vmf.Vec3{})
	for i := 0; i < m.K; i++ {
		if !almostEqual(m.Lobes[i].Mu.Norm(), 1, 1e-9) {
			t.Errorf("direction %d not unit length: %v", i, m.Lobes[i].Mu)
		}
		for j := i + 1; j < m.K; j++ {
			if almostEqual(m.Lobes[i].Mu.Dot(m.Lobes[j].Mu), 1, 1e-6) {
				t.Errorf("directions %d and %d coincide", i, j)
			}
		}
	}
}

func TestClearProducesUniformSingleLobe(t *testing.T) {
	m, _ := New(5, vmf.Vec3{1, 2, 3})
	m.Clear()
	if m.K != 1 {
		t.Fatalf("Clear: K = %d, want 1", m.K)
	}
	if !almostEqual(m.Weights[0], 1, 1e-12) {
		t.Fatalf("Clear: weight = %v, want 1", m.Weights[0])
	}
	if !m.Validate() {
		t.Fatalf("cleared mixture should validate")
	}
}

func TestWeightsSumToOne(t *testing.T) {
	m, _ := New(6, vmf.Vec3{})
	var sum float64
	for i := 0; i < m.K; i++ {
		sum += m.Weights[i]
	}
	if !almostEqual(sum, 1, 1e-9) {
		t.Fatalf("weights sum to %v, want 1", sum)
	}
}

func TestPDFNonNegativeAndFinite(t *testing.T) {
	m, _ := New(4, vmf.Vec3{})
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		omega := vmf.Sample(vmf.Lobe{Mu: vmf.Vec3{0, 0, 1}, Kappa: 0}, r.Float64(), r.Float64())
		p := m.PDF(omega)
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			t.Fatalf("PDF(%v) = %v, want finite non-negative", omega, p)
		}
	}
}

func TestSampleThenPDF(t *testing.T) {
	m, _ := New(3, vmf.Vec3{})
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		omega, pdf := m.Sample(r.Float64(), r.Float64())
		if !almostEqual(omega.Norm(), 1, 1e-6) {
			t.Fatalf("Sample returned non-unit direction %v", omega)
		}
		if pdf < 0 || math.IsNaN(pdf) || math.IsInf(pdf, 0) {
			t.Fatalf("Sample pdf = %v, want finite non-negative", pdf)
		}
		if got := m.PDF(omega); math.Abs(got-pdf) > 1e-9 {
			t.Fatalf("Sample pdf %v disagrees with PDF() %v", pdf, got)
		}
	}
}

func TestEmpiricalDensityConvergesToPDF(t *testing.T) {
	m := &Mixture{K: 1}
	m.Weights[0] = 1
	m.Lobes[0] = vmf.Lobe{Mu: vmf.Vec3{0, 0, 1}, Kappa: 20}
	m.PivotDistances[0] = 1

	omega := vmf.Vec3{0, 0, 1}
	want := m.PDF(omega)

	r := rand.New(rand.NewSource(3))
	const n = 200000
	const solidAngle = 0.02 // small cap around omega
	count := 0
	for i := 0; i < n; i++ {
		s, _ := m.Sample(r.Float64(), r.Float64())
		if s.Dot(omega) > 1-solidAngle/(2*math.Pi) {
			count++
		}
	}
	empirical := float64(count) / float64(n) / (solidAngle)
	if math.Abs(empirical-want)/want > 0.35 {
		t.Errorf("empirical density %v, want close to analytic %v", empirical, want)
	}
}

func TestApplyCosineProductPreservesInvariants(t *testing.T) {
	m, _ := New(4, vmf.Vec3{})
	m.ApplyCosineProduct(vmf.Vec3{0, 0, 1})
	if !m.Validate() {
		t.Fatalf("mixture invalid after ApplyCosineProduct")
	}
	if !m.SupportsApplyCosineProduct() {
		t.Fatalf("vMF mixture should support ApplyCosineProduct")
	}
}

func TestApplyCosineProductNearUnchangedForSharpAlignedLobe(t *testing.T) {
	n := vmf.Vec3{0, 0, 1}
	m := &Mixture{K: 1}
	m.Weights[0] = 1
	m.Lobes[0] = vmf.Lobe{Mu: n, Kappa: 500}
	m.PivotDistances[0] = 1

	before := m.Lobes[0].Kappa
	m.ApplyCosineProduct(n)
	after := m.Lobes[0].Kappa
	if after == 0 {
		t.Fatalf("kappa collapsed to 0")
	}
	if rel := math.Abs(after-before) / before; rel > 0.3 {
		t.Errorf("relative kappa change %v too large for aligned sharp lobe", rel)
	}
}

func TestParallaxRedirectsTowardVirtualSource(t *testing.T) {
	m := &Mixture{K: 1, Pivot: vmf.Vec3{0, 0, 0}}
	m.Weights[0] = 1
	m.Lobes[0] = vmf.Lobe{Mu: vmf.Vec3{0, 0, 1}, Kappa: 20}
	m.PivotDistances[0] = 10

	working := m.Parallax(vmf.Vec3{5, 0, 0})
	if working.Lobes[0].Mu[0] >= -0.3 {
		t.Errorf("parallax-corrected direction x-component = %v, want < -0.3", working.Lobes[0].Mu[0])
	}
	if !almostEqual(working.Lobes[0].Mu.Norm(), 1, 1e-6) {
		t.Errorf("parallax-corrected direction not unit length: %v", working.Lobes[0].Mu)
	}
	// Original mixture is untouched.
	if m.Lobes[0].Mu != (vmf.Vec3{0, 0, 1}) {
		t.Errorf("Parallax mutated receiver: %v", m.Lobes[0].Mu)
	}
}

func TestParallaxNoOpAtPivot(t *testing.T) {
	m := &Mixture{K: 1, Pivot: vmf.Vec3{1, 2, 3}}
	m.Weights[0] = 1
	m.Lobes[0] = vmf.Lobe{Mu: vmf.Vec3{0, 1, 0}, Kappa: 5}
	m.PivotDistances[0] = 3

	working := m.Parallax(vmf.Vec3{1, 2, 3})
	if working.Lobes[0].Mu != m.Lobes[0].Mu {
		t.Errorf("Parallax at pivot changed direction: got %v want %v", working.Lobes[0].Mu, m.Lobes[0].Mu)
	}
}

func TestIsAllZeroWeight(t *testing.T) {
	m := &Mixture{K: 2}
	if !m.IsAllZeroWeight() {
		t.Errorf("zero-initialized weights should report all-zero")
	}
	m.Weights[0] = 1
	if m.IsAllZeroWeight() {
		t.Errorf("non-zero weight should not report all-zero")
	}
}
