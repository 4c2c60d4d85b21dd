package merge

import (
	"testing"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/mixture"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/splitstats"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/suffstats"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
)

func twoNearIdenticalLobes() (*mixture.Mixture, *suffstats.Statistics, *splitstats.Statistics) {
	mix := &mixture.Mixture{K: 2}
	mix.Weights[0] = 0.5
	mix.Weights[1] = 0.5
	mix.Lobes[0] = vmf.Lobe{Mu: vmf.Vec3{0, 0, 1}, Kappa: 20}
	mix.Lobes[1] = vmf.Lobe{Mu: vmf.Vec3{0.01, 0, 1}.Normalize(), Kappa: 20}
	mix.PivotDistances[0] = 1
	mix.PivotDistances[1] = 1

	suff := &suffstats.Statistics{K: 2}
	suff.Accumulate(0, 10, suffstats.Moment3{0, 0, 1}, 1)
	suff.Accumulate(1, 10, suffstats.Moment3{0, 0, 1}, 1)

	s := &splitstats.Statistics{K: 2}
	return mix, suff, s
}

func TestPerformMergingMergesNearIdenticalLobes(t *testing.T) {
	mix, suff, s := twoNearIdenticalLobes()
	merges := PerformMerging(mix, suff, s, 0.00625)
	if merges != 1 {
		t.Fatalf("merges = %d, want 1", merges)
	}
	if mix.K != 1 {
		t.Fatalf("mix.K = %d, want 1", mix.K)
	}
	if !mix.Validate() {
		t.Fatalf("mixture invalid after merge")
	}
	if suff.K != 1 || s.K != 1 {
		t.Fatalf("component counts out of sync: suff.K=%d s.K=%d", suff.K, s.K)
	}
	if suff.GammaSum[0] != 20 {
		t.Errorf("merged GammaSum = %v, want 20", suff.GammaSum[0])
	}
}

func TestPerformMergingRefusesDissimilarLobes(t *testing.T) {
	mix := &mixture.Mixture{K: 2}
	mix.Weights[0] = 0.5
	mix.Weights[1] = 0.5
	mix.Lobes[0] = vmf.Lobe{Mu: vmf.Vec3{1, 0, 0}, Kappa: 30}
	mix.Lobes[1] = vmf.Lobe{Mu: vmf.Vec3{-1, 0, 0}, Kappa: 30}
	mix.PivotDistances[0] = 1
	mix.PivotDistances[1] = 1

	suff := &suffstats.Statistics{K: 2}
	s := &splitstats.Statistics{K: 2}

	merges := PerformMerging(mix, suff, s, 0.00625)
	if merges != 0 {
		t.Fatalf("merges = %d, want 0 for well-separated lobes", merges)
	}
	if mix.K != 2 {
		t.Fatalf("mix.K = %d, want unchanged 2", mix.K)
	}
}

func TestPerformMergingStopsAtSingleComponent(t *testing.T) {
	mix := &mixture.Mixture{K: 1}
	mix.Weights[0] = 1
	mix.Lobes[0] = vmf.Lobe{Mu: vmf.Vec3{0, 0, 1}, Kappa: 10}
	mix.PivotDistances[0] = 1
	suff := &suffstats.Statistics{K: 1}
	s := &splitstats.Statistics{K: 1}

	if merges := PerformMerging(mix, suff, s, 1); merges != 0 {
		t.Fatalf("merges = %d on single-component mixture, want 0", merges)
	}
}

func TestMergePairCompactsVacatedSlot(t *testing.T) {
	mix := &mixture.Mixture{K: 3}
	mix.Weights = [mixture.MaxComponents]float64{0.4, 0.4, 0.2}
	mix.Lobes[0] = vmf.Lobe{Mu: vmf.Vec3{0, 0, 1}, Kappa: 20}
	mix.Lobes[1] = vmf.Lobe{Mu: vmf.Vec3{0.02, 0, 1}.Normalize(), Kappa: 20}
	mix.Lobes[2] = vmf.Lobe{Mu: vmf.Vec3{0, 1, 0}, Kappa: 20}
	mix.PivotDistances[0], mix.PivotDistances[1], mix.PivotDistances[2] = 1, 1, 1

	suff := &suffstats.Statistics{K: 3}
	s := &splitstats.Statistics{K: 3}

	mergePair(mix, suff, s, 0, 1)
	if mix.K != 2 {
		t.Fatalf("mix.K = %d, want 2", mix.K)
	}
	// The surviving second slot should now hold what was component 2.
	if mix.Lobes[1].Mu != (vmf.Vec3{0, 1, 0}) {
		t.Errorf("vacated slot not compacted with former last component: %v", mix.Lobes[1])
	}
}
