// Package vmf implements the von Mises-Fisher lobe kernel: evaluation,
// sampling and the mean-cosine/kappa inversion used throughout the mixture
// fitter.
package vmf

import "math"

// Vec3 is a point or direction in R^3. Directions are expected to be unit
// length; positions carry no such constraint.
type Vec3 [3]float64

// Add returns the vector sum of p and q.
func (p Vec3) Add(q Vec3) Vec3 {
	return Vec3{p[0] + q[0], p[1] + q[1], p[2] + q[2]}
}

// Sub returns the vector difference p - q.
func (p Vec3) Sub(q Vec3) Vec3 {
	return Vec3{p[0] - q[0], p[1] - q[1], p[2] - q[2]}
}

// Scale returns p scaled by f.
func (p Vec3) Scale(f float64) Vec3 {
	return Vec3{p[0] * f, p[1] * f, p[2] * f}
}

// Dot returns the dot product of p and q.
func (p Vec3) Dot(q Vec3) float64 {
	return p[0]*q[0] + p[1]*q[1] + p[2]*q[2]
}

// Norm returns the Euclidean length of p.
func (p Vec3) Norm() float64 {
	return math.Sqrt(p.Dot(p))
}

// Normalize returns p scaled to unit length. The zero vector is returned
// unchanged.
func (p Vec3) Normalize() Vec3 {
	n := p.Norm()
	if n == 0 {
		return p
	}
	return p.Scale(1 / n)
}

// IsFinite reports whether every component of p is finite (no NaN or Inf).
func (p Vec3) IsFinite() bool {
	for _, c := range p {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Cross returns the cross product p x q.
func (p Vec3) Cross(q Vec3) Vec3 {
	return Vec3{
		p[1]*q[2] - p[2]*q[1],
		p[2]*q[0] - p[0]*q[2],
		p[0]*q[1] - p[1]*q[0],
	}
}

// orthonormalBasis returns two unit vectors (t, b) such that (t, b, n) form
// a right-handed orthonormal frame, given a unit vector n. Uses the
// branch-free construction from Duff et al. to avoid a degenerate cross
// product near the poles.
func orthonormalBasis(n Vec3) (t, b Vec3) {
	sign := math.Copysign(1, n[2])
	a := -1 / (sign + n[2])
	c := n[0] * n[1] * a
	t = Vec3{1 + sign*n[0]*n[0]*a, sign * c, -sign * n[0]}
	b = Vec3{c, sign + n[1]*n[1]*a, -n[1]}
	return t, b
}
