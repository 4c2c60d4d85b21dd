// Package query implements the sampling-query façade of spec.md §6: the
// read-only surface a renderer drives at shading time, separate from the
// training surface in pkg/asm. A Distribution wraps one parallax-resolved
// working copy of a mixture so repeated Sample/PDF calls against the same
// shading point never re-run the parallax projection.
package query

import (
	"github.com/therealutkarshpriyadarshi/guiding/pkg/field"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/mixture"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
)

// Distribution is the renderer-facing sampling distribution for one
// shading point. It holds a parallax-compensated working copy; the
// region's trained Mixture is never mutated by query-side calls.
type Distribution struct {
	working mixture.Mixture
}

// InitSurfaceSamplingDistribution resolves a sampling distribution for a
// shading position against a region: it picks a candidate mixture (using
// u, which is consumed only when the region holds more than one
// candidate, and otherwise left untouched so the caller can reuse it for
// the subsequent Sample call), applies parallax compensation for pos, and
// reports false iff the resulting mixture is degenerate (all-zero
// weight), per spec.md §6.
func InitSurfaceSamplingDistribution(d *Distribution, r *field.Region, pos vmf.Vec3, u *float64) bool {
	mix, _, remainder, err := r.Candidate(*u)
	if err != nil || mix == nil {
		return false
	}
	*u = remainder

	d.working = mix.Parallax(pos)
	return !d.working.IsAllZeroWeight()
}

// Sample draws a direction from the working distribution.
func (d *Distribution) Sample(u1, u2 float64) vmf.Vec3 {
	omega, _ := d.working.Sample(u1, u2)
	return omega
}

// PDF evaluates the working distribution's density at omega.
func (d *Distribution) PDF(omega vmf.Vec3) float64 {
	return d.working.PDF(omega)
}

// SamplePDF draws a direction and returns it together with its density in
// one call, per spec.md §6's combined sample+pdf entry point.
func (d *Distribution) SamplePDF(u1, u2 float64) (vmf.Vec3, float64) {
	return d.working.SamplePDF(u1, u2)
}

// SupportsApplyCosineProduct reports whether ApplyCosineProduct has an
// analytic implementation for the underlying lobe kernel.
func (d *Distribution) SupportsApplyCosineProduct() bool {
	return d.working.SupportsApplyCosineProduct()
}

// ApplyCosineProduct folds a clamped-cosine lobe at the shading normal n
// into the working distribution, in place.
func (d *Distribution) ApplyCosineProduct(n vmf.Vec3) {
	d.working.ApplyCosineProduct(n)
}

// Validate reports whether the working distribution currently satisfies
// spec.md §8's invariants (1)-(3).
func (d *Distribution) Validate() bool {
	return d.working.Validate()
}

// Clear reverts the working distribution to a uniform single lobe.
func (d *Distribution) Clear() {
	d.working.Clear()
}
