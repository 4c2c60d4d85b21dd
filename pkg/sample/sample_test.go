package sample

import (
	"math"
	"testing"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
)

func validSample() Sample {
	return Sample{
		Position:  vmf.Vec3{0, 0, 0},
		Direction: vmf.Vec3{0, 0, 1},
		Weight:    1,
		PDF:       1,
		Distance:  1,
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		mod  func(s Sample) Sample
		want bool
	}{
		{"baseline", func(s Sample) Sample { return s }, true},
		{"nan direction", func(s Sample) Sample { s.Direction[0] = math.NaN(); return s }, false},
		{"negative weight", func(s Sample) Sample { s.Weight = -1; return s }, false},
		{"zero pdf", func(s Sample) Sample { s.PDF = 0; return s }, false},
		{"negative pdf", func(s Sample) Sample { s.PDF = -1; return s }, false},
		{"zero distance", func(s Sample) Sample { s.Distance = 0; return s }, false},
		{"inf weight", func(s Sample) Sample { s.Weight = math.Inf(1); return s }, false},
		{"zero weight ok", func(s Sample) Sample { s.Weight = 0; return s }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.mod(validSample()).Valid()
			if got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlags(t *testing.T) {
	s := validSample()
	s.Flags = Splatted | InsideVolume
	if !s.Has(Splatted) || !s.Has(InsideVolume) {
		t.Fatalf("expected both flags set")
	}
	s.Flags = Splatted
	if s.Has(InsideVolume) {
		t.Fatalf("InsideVolume should not be set")
	}
}

func TestDirectionalWeight(t *testing.T) {
	s := validSample()
	s.Weight = 2
	s.PDF = 4
	if got := s.DirectionalWeight(); got != 0.5 {
		t.Errorf("DirectionalWeight() = %v, want 0.5", got)
	}
}
