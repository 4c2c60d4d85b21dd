package splitstats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/em"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/mixture"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/sample"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/suffstats"
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

// drawBimodalSamples draws half the batch from each of two well-separated
// lobes, the scenario under which a single fitted component should show a
// large chi-squared discrepancy and qualify for splitting.
func drawBimodalSamples(n int, a, b vmf.Lobe, r *rand.Rand) []sample.Sample {
	out := make([]sample.Sample, n)
	for i := range out {
		lobe := a
		if i%2 == 1 {
			lobe = b
		}
		out[i] = sample.Sample{
			Direction: vmf.Sample(lobe, r.Float64(), r.Float64()),
			Weight:    1,
			PDF:       1,
			Distance:  1,
		}
	}
	return out
}

func TestUpdateSplitStatisticsGrowsWithMixture(t *testing.T) {
	mix, err := mixture.New(2, vmf.Vec3{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	suff := &suffstats.Statistics{K: 2}
	suff.Accumulate(0, 1, suffstats.Moment3{0, 0, 1}, 1)
	suff.Accumulate(1, 1, suffstats.Moment3{0, 0, 1}, 1)

	s := &Statistics{}
	r := rand.New(rand.NewSource(1))
	samples := drawSamples(200, mix.Lobes[0], r)
	UpdateSplitStatistics(s, mix, suff, samples)

	if s.K != mix.K {
		t.Fatalf("s.K = %d, want %d", s.K, mix.K)
	}
	if s.SinceLastSplit == 0 {
		t.Errorf("SinceLastSplit not incremented")
	}
}

func TestScoreZeroWithoutMass(t *testing.T) {
	s := &Statistics{K: 1}
	suff := &suffstats.Statistics{K: 1}
	if got := Score(s, suff, 0); got != 0 {
		t.Errorf("Score with zero mass = %v, want 0", got)
	}
}

// TestDetectAndSplitBimodalComponent grounds spec.md's "two-lobe split"
// scenario: a single component fit to a bimodal mixture should score above
// threshold, and splitting it should produce two children whose directions
// separate toward the two true modes once refit.
func TestDetectAndSplitBimodalComponent(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	modeA := vmf.Lobe{Mu: vmf.Vec3{1, 0, 0}, Kappa: 40}
	modeB := vmf.Lobe{Mu: vmf.Vec3{-1, 0, 0}, Kappa: 40}
	samples := drawBimodalSamples(8000, modeA, modeB, r)

	mix, err := mixture.New(1, vmf.Vec3{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	suff := &suffstats.Statistics{}
	emCfg := em.Config{MaxIterations: 30, Threshold: 1e-5}
	if _, err := em.FitMixture(mix, 1, suff, samples, emCfg); err != nil {
		t.Fatalf("FitMixture: %v", err)
	}

	s := &Statistics{}
	UpdateSplitStatistics(s, mix, suff, samples)
	candidates := DetectCandidates(s, suff, 0.1)
	if len(candidates) == 0 {
		t.Fatalf("expected the bimodal-fit component to be flagged for splitting")
	}

	if err := SplitComponent(mix, suff, s, candidates[0]); err != nil {
		t.Fatalf("SplitComponent: %v", err)
	}
	if mix.K != 2 {
		t.Fatalf("mix.K after split = %d, want 2", mix.K)
	}
	if !mix.Validate() {
		t.Fatalf("mixture invalid after split")
	}

	if _, err := em.Refit(mix, suff, samples, emCfg); err != nil {
		t.Fatalf("Refit: %v", err)
	}
	if !mix.Validate() {
		t.Fatalf("mixture invalid after post-split refit")
	}

	dot := mix.Lobes[0].Mu.Dot(mix.Lobes[1].Mu)
	if dot > 0 {
		t.Errorf("children not separated after refit: dot = %v, want < 0", dot)
	}
}

func TestSplitComponentRefusesPastCapacity(t *testing.T) {
	mix := &mixture.Mixture{K: mixture.MaxComponents}
	for k := 0; k < mix.K; k++ {
		mix.Weights[k] = 1 / float64(mix.K)
		mix.Lobes[k] = vmf.Lobe{Mu: vmf.Vec3{0, 0, 1}, Kappa: 5}
		mix.PivotDistances[k] = 1
	}
	suff := &suffstats.Statistics{K: mix.K}
	s := &Statistics{K: mix.K}

	if err := SplitComponent(mix, suff, s, 0); err != ErrCapacityExceeded {
		t.Fatalf("SplitComponent at capacity error = %v, want ErrCapacityExceeded", err)
	}
	if mix.K != mixture.MaxComponents {
		t.Errorf("mix.K changed on a refused split: %d", mix.K)
	}
}

func TestPerformRecursiveSplittingStopsWithoutCandidates(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	lobe := vmf.Lobe{Mu: vmf.Vec3{0, 0, 1}, Kappa: 30}
	samples := drawSamples(4000, lobe, r)

	mix, err := mixture.New(1, vmf.Vec3{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	suff := &suffstats.Statistics{}
	emCfg := em.Config{MaxIterations: 30, Threshold: 1e-5}
	if _, err := em.FitMixture(mix, 1, suff, samples, emCfg); err != nil {
		t.Fatalf("FitMixture: %v", err)
	}

	s := &Statistics{}
	splits, err := PerformRecursiveSplitting(mix, suff, s, samples, 0.75, 5, emCfg)
	if err != nil {
		t.Fatalf("PerformRecursiveSplitting: %v", err)
	}
	if splits != 0 {
		t.Errorf("splits = %d on a well-fit unimodal component, want 0", splits)
	}
	if mix.K != 1 {
		t.Errorf("mix.K = %d, want unchanged 1", mix.K)
	}
}

func TestPerformRecursiveSplittingSeparatesBimodal(t *testing.T) {
	r := rand.New(rand.NewSource(17))
	modeA := vmf.Lobe{Mu: vmf.Vec3{0, 0, 1}, Kappa: 50}
	modeB := vmf.Lobe{Mu: vmf.Vec3{0, 0, -1}, Kappa: 50}
	samples := drawBimodalSamples(8000, modeA, modeB, r)

	mix, err := mixture.New(1, vmf.Vec3{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	suff := &suffstats.Statistics{}
	emCfg := em.Config{MaxIterations: 30, Threshold: 1e-5}
	if _, err := em.FitMixture(mix, 1, suff, samples, emCfg); err != nil {
		t.Fatalf("FitMixture: %v", err)
	}

	s := &Statistics{}
	splits, err := PerformRecursiveSplitting(mix, suff, s, samples, 0.1, 5, emCfg)
	if err != nil {
		t.Fatalf("PerformRecursiveSplitting: %v", err)
	}
	if splits == 0 {
		t.Fatalf("expected at least one split on a strongly bimodal batch")
	}
	if mix.K < 2 {
		t.Fatalf("mix.K = %d, want >= 2", mix.K)
	}
	if !mix.Validate() {
		t.Fatalf("mixture invalid after recursive splitting")
	}
}

func TestPrincipalAxisIsUnit(t *testing.T) {
	c := Cov6{}
	c.AddOuter([3]float64{1, 0, 0}, 1)
	c.AddOuter([3]float64{-1, 0, 0}, 1)
	axis := principalAxis(c, vmf.Vec3{0, 1, 0})
	if math.Abs(axis.Norm()-1) > 1e-6 {
		t.Errorf("principalAxis norm = %v, want 1", axis.Norm())
	}
}

func TestRotateAroundAxisPreservesUnitLength(t *testing.T) {
	v := vmf.Vec3{0, 0, 1}
	axis := vmf.Vec3{0, 1, 0}
	out := rotateAroundAxis(v, axis, math.Pi/4)
	if math.Abs(out.Norm()-1) > 1e-9 {
		t.Errorf("rotated vector norm = %v, want 1", out.Norm())
	}
}
