package vmf

import (
	"math"
	"math/rand"
	"testing"
)

const epsTest = 1e-6

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func TestEvalNonNegative(t *testing.T) {
	tests := []struct {
		name  string
		kappa float64
		omega Vec3
	}{
		{"aligned", 20, Vec3{0, 0, 1}},
		{"opposite", 20, Vec3{0, 0, -1}},
		{"orthogonal", 5, Vec3{1, 0, 0}},
		{"uniform", 0, Vec3{0, 1, 0}},
	}

	l := Lobe{Mu: Vec3{0, 0, 1}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l.Kappa = tt.kappa
			f := Eval(l, tt.omega)
			if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
				t.Fatalf("Eval(%v, %v) = %v, want finite non-negative", l, tt.omega, f)
			}
		})
	}
}

func TestEvalPeaksAtMean(t *testing.T) {
	l := Lobe{Mu: Vec3{0, 0, 1}, Kappa: 20}
	peak := Eval(l, l.Mu)
	off := Eval(l, Vec3{1, 0, 0})
	if peak <= off {
		t.Fatalf("Eval at mean direction = %v, want greater than off-axis %v", peak, off)
	}
}

func TestSampleReturnsUnitVector(t *testing.T) {
	l := Lobe{Mu: Vec3{0, 0, 1}, Kappa: 15}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		omega := Sample(l, r.Float64(), r.Float64())
		if !almostEqual(omega.Norm(), 1, epsTest) {
			t.Fatalf("Sample returned non-unit vector %v (norm %v)", omega, omega.Norm())
		}
	}
}

func TestSampleConcentratesNearMean(t *testing.T) {
	l := Lobe{Mu: Vec3{0, 0, 1}, Kappa: 50}
	r := rand.New(rand.NewSource(2))
	var meanCos float64
	const n = 5000
	for i := 0; i < n; i++ {
		omega := Sample(l, r.Float64(), r.Float64())
		meanCos += omega.Dot(l.Mu)
	}
	meanCos /= n
	if meanCos < 0.9 {
		t.Fatalf("mean cosine of samples = %v, want > 0.9 for kappa=50", meanCos)
	}
}

func TestMeanCosineMonotonic(t *testing.T) {
	prev := -1.0
	for _, k := range []float64{0, 1e-4, 1e-3, 0.1, 1, 5, 20, 100, 1000} {
		r := MeanCosine(k)
		if r < prev {
			t.Fatalf("MeanCosine(%v) = %v, not monotonic (prev %v)", k, r, prev)
		}
		if r < 0 || r > 1 {
			t.Fatalf("MeanCosine(%v) = %v out of [0,1]", k, r)
		}
		prev = r
	}
}

func TestKappaFromMeanCosineRoundTrip(t *testing.T) {
	for _, k := range []float64{0.5, 1, 5, 10, 50, 200} {
		r := MeanCosine(k)
		kk := KappaFromMeanCosine(r)
		if math.Abs(kk-k)/k > 0.1 {
			t.Errorf("round trip kappa=%v -> r=%v -> kappa=%v, relative error too large", k, r, kk)
		}
	}
}

func TestKappaFromMeanCosineClampsToRange(t *testing.T) {
	if k := KappaFromMeanCosine(-1); k < 0 {
		t.Errorf("KappaFromMeanCosine(-1) = %v, want >= 0", k)
	}
	if k := KappaFromMeanCosine(1); k > KappaMax {
		t.Errorf("KappaFromMeanCosine(1) = %v, want <= KappaMax", k)
	}
	if k := KappaFromMeanCosine(0); k != 0 {
		t.Errorf("KappaFromMeanCosine(0) = %v, want 0", k)
	}
}

func TestOrthonormalBasis(t *testing.T) {
	dirs := []Vec3{{0, 0, 1}, {0, 0, -1}, {1, 0, 0}, {0.3, 0.4, math.Sqrt(1 - 0.09 - 0.16)}}
	for _, n := range dirs {
		tt, b := orthonormalBasis(n)
		if !almostEqual(tt.Norm(), 1, epsTest) || !almostEqual(b.Norm(), 1, epsTest) {
			t.Fatalf("basis vectors not unit length for n=%v: t=%v b=%v", n, tt, b)
		}
		if !almostEqual(tt.Dot(b), 0, epsTest) || !almostEqual(tt.Dot(n), 0, epsTest) || !almostEqual(b.Dot(n), 0, epsTest) {
			t.Fatalf("basis not orthogonal for n=%v: t=%v b=%v", n, tt, b)
		}
	}
}

func TestProductWithCosineLobeNearUnchangedForAlignedSharpLobe(t *testing.T) {
	n := Vec3{0, 0, 1}
	l := Lobe{Mu: n, Kappa: 500}
	_, kappa, _ := ProductWithCosineLobe(l, n)
	if kappa == 0 {
		t.Fatalf("ProductWithCosineLobe degenerated to kappa=0")
	}
	rel := math.Abs(kappa-l.Kappa) / l.Kappa
	if rel > 0.3 {
		t.Errorf("relative kappa change = %v, want small for aligned sharp lobe", rel)
	}
}
