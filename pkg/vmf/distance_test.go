package vmf

import (
	"math"
	"testing"
)

func TestDissimilarityZeroForIdenticalLobes(t *testing.T) {
	l := Lobe{Mu: Vec3{0, 0, 1}, Kappa: 12}
	d := Dissimilarity(l, l)
	if d > 1e-6 {
		t.Errorf("Dissimilarity(l,l) = %v, want ~0", d)
	}
}

func TestDissimilarityIncreasesWithSeparation(t *testing.T) {
	a := Lobe{Mu: Vec3{0, 0, 1}, Kappa: 20}
	near := Lobe{Mu: Vec3{0.05, 0, 1}.Normalize(), Kappa: 20}
	far := Lobe{Mu: Vec3{0, 1, 0}, Kappa: 20}

	dNear := Dissimilarity(a, near)
	dFar := Dissimilarity(a, far)
	if dNear >= dFar {
		t.Errorf("Dissimilarity(near) = %v, want < Dissimilarity(far) = %v", dNear, dFar)
	}
}

func TestDissimilarityBounded(t *testing.T) {
	a := Lobe{Mu: Vec3{1, 0, 0}, Kappa: 5}
	b := Lobe{Mu: Vec3{-1, 0, 0}, Kappa: 5}
	d := Dissimilarity(a, b)
	if d < 0 || d > 1 || math.IsNaN(d) {
		t.Errorf("Dissimilarity out of [0,1]: %v", d)
	}
}
