package field

import (
	"math/rand"
	"testing"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/asm"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/observability"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/sample"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
)

func drawSamples(n int, lobe vmf.Lobe, r *rand.Rand) []sample.Sample {
	out := make([]sample.Sample, n)
	for i := range out {
		out[i] = sample.Sample{
			Direction: vmf.Sample(lobe, r.Float64(), r.Float64()),
			Weight:    1,
			PDF:       1,
			Distance:  1,
		}
	}
	return out
}

func TestFieldNearestPicksClosestAnchor(t *testing.T) {
	f := New()
	f.AddRegion(vmf.Vec3{0, 0, 0})
	f.AddRegion(vmf.Vec3{10, 0, 0})
	f.AddRegion(vmf.Vec3{0, 10, 0})

	nearest := f.Nearest(vmf.Vec3{9, 1, 0})
	if nearest == nil {
		t.Fatal("Nearest returned nil")
	}
	if nearest.Anchor != (vmf.Vec3{10, 0, 0}) {
		t.Errorf("Nearest anchor = %v, want {10,0,0}", nearest.Anchor)
	}
}

func TestFieldNearestEmpty(t *testing.T) {
	f := New()
	if got := f.Nearest(vmf.Vec3{0, 0, 0}); got != nil {
		t.Errorf("Nearest on empty field = %v, want nil", got)
	}
}

func TestRegionCandidateSingleMixtureIgnoresU(t *testing.T) {
	r := NewRegion(vmf.Vec3{0, 0, 0})
	r.AddMixture(nil, nil)

	mix, stats, remainder, err := r.Candidate(0.37)
	if err != nil {
		t.Fatalf("Candidate: %v", err)
	}
	if mix != nil || stats != nil {
		t.Errorf("expected the single nil candidate to be returned unchanged")
	}
	if remainder != 0.37 {
		t.Errorf("remainder = %v, want u unchanged (0.37) for a single candidate", remainder)
	}
}

func TestRegionCandidateEmptyErrors(t *testing.T) {
	r := NewRegion(vmf.Vec3{0, 0, 0})
	if _, _, _, err := r.Candidate(0.5); err == nil {
		t.Fatal("expected error for a region with no candidates")
	}
}

func TestRegionCandidateMultiplePicksInRange(t *testing.T) {
	r := NewRegion(vmf.Vec3{0, 0, 0})
	for i := 0; i < 4; i++ {
		r.AddMixture(nil, nil)
	}
	// u near 1 should select the last candidate deterministically.
	_, _, remainder, err := r.Candidate(0.999)
	if err != nil {
		t.Fatalf("Candidate: %v", err)
	}
	if remainder < 0 || remainder > 1 {
		t.Errorf("remainder = %v, want in [0,1]", remainder)
	}
}

func TestRegionFitAndUpdate(t *testing.T) {
	r := NewRegion(vmf.Vec3{0, 0, 0})
	cfg := asm.DefaultConfiguration()
	fitStats := &asm.FittingStatistics{}
	rnd := rand.New(rand.NewSource(7))

	target := vmf.Lobe{Mu: vmf.Vec3{0, 0, 1}, Kappa: 15}
	if err := r.Fit(4, drawSamples(8000, target, rnd), cfg, fitStats, observability.NoopSink{}, "test-region"); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 after first Fit", r.Count())
	}

	moved := vmf.Lobe{Mu: vmf.Vec3{0, 1, 0}, Kappa: 15}
	if err := r.Update(drawSamples(8000, moved, rnd), cfg, fitStats, observability.NoopSink{}, "test-region"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	mix, _, _, err := r.Candidate(0.1)
	if err != nil {
		t.Fatalf("Candidate: %v", err)
	}
	if !mix.Validate() {
		t.Errorf("mixture invalid after Fit+Update")
	}
}
