package suffstats

import (
	"bytes"
	"math"
	"testing"
)

func TestClearZeroesState(t *testing.T) {
	s := &Statistics{}
	s.Accumulate(0, 1, Moment3{0, 0, 1}, 2)
	s.AddSample(1, 1)
	s.Clear(3)
	if s.K != 3 {
		t.Fatalf("Clear: K = %d, want 3", s.K)
	}
	if s.GammaSum[0] != 0 || s.TotalWeight != 0 || s.N != 0 {
		t.Fatalf("Clear left non-zero state: %+v", s)
	}
}

func TestDecayNoOpAtOne(t *testing.T) {
	s := &Statistics{K: 2}
	s.Accumulate(0, 3, Moment3{1, 2, 3}, 2)
	s.AddSample(1, 1)
	before := *s
	s.Decay(1.0)
	if *s != before {
		t.Fatalf("Decay(1.0) changed state: before=%+v after=%+v", before, s)
	}
}

func TestDecayComposes(t *testing.T) {
	mk := func() *Statistics {
		s := &Statistics{K: 2}
		s.Accumulate(0, 5, Moment3{1, 0, 0}, 2)
		s.Accumulate(1, 3, Moment3{0, 1, 0}, 4)
		s.AddSample(2, 1)
		s.N = 100
		s.B = 10
		return s
	}
	a, b := 0.7, 0.4
	s1 := mk()
	s1.Decay(a)
	s1.Decay(b)

	s2 := mk()
	s2.Decay(a * b)

	if math.Abs(s1.GammaSum[0]-s2.GammaSum[0]) > 1e-9 {
		t.Errorf("decay(a)*decay(b) GammaSum[0] = %v, decay(a*b) = %v", s1.GammaSum[0], s2.GammaSum[0])
	}
	if math.Abs(s1.TotalWeight-s2.TotalWeight) > 1e-9 {
		t.Errorf("decay(a)*decay(b) TotalWeight = %v, decay(a*b) = %v", s1.TotalWeight, s2.TotalWeight)
	}
}

func TestMaskedReplace(t *testing.T) {
	s := &Statistics{K: 2}
	s.Accumulate(0, 1, Moment3{1, 0, 0}, 1)
	s.Accumulate(1, 2, Moment3{0, 1, 0}, 1)

	other := &Statistics{K: 2}
	other.Accumulate(0, 99, Moment3{0, 0, 1}, 1)
	other.Accumulate(1, 50, Moment3{1, 1, 1}, 1)

	s.MaskedReplace([]bool{true, false}, other)
	if s.GammaSum[0] != 99 {
		t.Errorf("masked component GammaSum = %v, want 99", s.GammaSum[0])
	}
	if s.GammaSum[1] != 2 {
		t.Errorf("unmasked component GammaSum changed: %v, want 2", s.GammaSum[1])
	}
}

func TestSetNumComponentsGrowZeroesNewSlots(t *testing.T) {
	s := &Statistics{K: 1}
	s.Accumulate(0, 1, Moment3{1, 0, 0}, 1)
	s.SetNumComponents(3)
	if s.K != 3 {
		t.Fatalf("SetNumComponents: K = %d, want 3", s.K)
	}
	if s.GammaSum[1] != 0 || s.GammaSum[2] != 0 {
		t.Errorf("new slots not zeroed: %v", s.GammaSum)
	}
}

func TestPivotDistanceHarmonicMean(t *testing.T) {
	s := &Statistics{K: 1}
	// Two samples with distance 2 and 4, equal responsibility weight 1.
	s.Accumulate(0, 1, Moment3{0, 0, 1}, 2)
	s.Accumulate(0, 1, Moment3{0, 0, 1}, 4)
	got := s.PivotDistance(0, 1)
	want := 2.0 / (1.0/2 + 1.0/4) // harmonic mean of {2,4}
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("PivotDistance = %v, want %v", got, want)
	}
}

func TestPivotDistanceFallbackWhenEmpty(t *testing.T) {
	s := &Statistics{K: 1}
	if got := s.PivotDistance(0, 7); got != 7 {
		t.Errorf("PivotDistance on empty component = %v, want fallback 7", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := &Statistics{K: 2}
	s.Accumulate(0, 1.5, Moment3{0.1, 0.2, 0.3}, 2)
	s.Accumulate(1, 2.5, Moment3{-0.1, 0, 1}, 5)
	s.AddSample(1, 1)
	s.N = 1234
	s.B = 5

	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if *got != *s {
		t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", got, s)
	}
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF}) // bogus version
	buf.Write([]byte{0, 0, 0, 0})             // K=0
	if _, err := Decode(&buf); err == nil {
		t.Fatal("Decode: expected error for bad version")
	}
}

func TestValid(t *testing.T) {
	s := &Statistics{K: 1}
	if !s.Valid() {
		t.Fatal("zero-valued Statistics should be valid")
	}
	s.GammaSum[0] = math.NaN()
	if s.Valid() {
		t.Fatal("NaN GammaSum should be invalid")
	}
}
