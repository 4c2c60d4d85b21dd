// Package sample defines the directional radiance sample record streamed
// from the path tracer into the guiding fitter, and its binary batch
// encoding.
package sample

import (
	"math"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
)

// Flag is a bit in a Sample's flag field.
type Flag uint32

const (
	// Splatted marks a sample as synthetic (splatted into a neighboring
	// region rather than recorded at its true hit point).
	Splatted Flag = 1 << 0
	// InsideVolume marks a sample taken inside a participating medium.
	InsideVolume Flag = 1 << 1
)

// Sample is an immutable directional radiance sample.
type Sample struct {
	Position  vmf.Vec3
	Direction vmf.Vec3
	Weight    float64
	PDF       float64
	Distance  float64
	Flags     Flag
}

// Has reports whether f is set on the sample.
func (s Sample) Has(f Flag) bool {
	return s.Flags&f != 0
}

// Valid reports whether every field of s is finite and within its required
// domain: weight >= 0, pdf > 0, distance > 0, direction and position
// finite.
func (s Sample) Valid() bool {
	if !s.Position.IsFinite() || !s.Direction.IsFinite() {
		return false
	}
	if math.IsNaN(s.Weight) || math.IsInf(s.Weight, 0) || s.Weight < 0 {
		return false
	}
	if math.IsNaN(s.PDF) || math.IsInf(s.PDF, 0) || s.PDF <= 0 {
		return false
	}
	if math.IsNaN(s.Distance) || math.IsInf(s.Distance, 0) || s.Distance <= 0 {
		return false
	}
	return true
}

// DirectionalWeight returns sample.Weight / sample.PDF, the per-sample
// contribution used throughout the weighted EM update.
func (s Sample) DirectionalWeight() float64 {
	return s.Weight / s.PDF
}
