package vmf

import "math"

// BhattacharyyaCoefficient returns the product-integral overlap of two vMF
// lobes, integral_{S^2} sqrt(f_a * f_b) domega, in closed form. Writing
// sqrt(f_a*f_b) as n(ka)^.5*n(kb)^.5*exp(0.5*ka*(mua.omega-1) +
// 0.5*kb*(mub.omega-1)) and recognising the exponent's linear-in-omega part
// as an unnormalized vMF density with combined natural parameter
// c = 0.5*ka*mua + 0.5*kb*mub, the integral over the sphere of that
// exponential is 1/n(kappa_c) where kappa_c = ||c||; what remains is the
// constant term pulled out of the exponent.
func BhattacharyyaCoefficient(a, b Lobe) float64 {
	c := a.Mu.Scale(0.5 * a.Kappa).Add(b.Mu.Scale(0.5 * b.Kappa))
	kappaC := c.Norm()
	return math.Sqrt(normalization(a.Kappa)*normalization(b.Kappa)) *
		math.Exp(kappaC-0.5*(a.Kappa+b.Kappa)) / normalization(kappaC)
}

// Dissimilarity returns the product-integral divergence D(a,b) = 1 -
// BhattacharyyaCoefficient(a,b), clamped to [0,1] to absorb floating-point
// overshoot at D=0 (identical lobes).
func Dissimilarity(a, b Lobe) float64 {
	d := 1 - BhattacharyyaCoefficient(a, b)
	return clamp(d, 0, 1)
}
