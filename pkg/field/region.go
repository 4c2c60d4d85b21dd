// Package field owns the spatial index of trained mixtures: one Region
// per scene location, each holding a small pool of candidate mixtures a
// renderer can resample, and a Field that maps a shading position to its
// nearest Region. Unlike the teacher's pkg/hnsw, this is not an
// approximate-nearest-neighbor graph — the scene-spatial structure that
// would partition regions (an octree/BVH analogue) is out of this
// module's scope per spec.md's Non-goals, so Nearest is a linear scan
// over anchors. The concurrency discipline is the part that is grounded
// on the teacher: a per-region sync.RWMutex guarding mutation the way
// pkg/hnsw.Index guards its node map.
package field

import (
	"fmt"
	"sync"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/asm"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/mixture"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/observability"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/sample"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
)

// Region holds every candidate mixture trained for one spatial cell,
// along with each mixture's ASM statistics. A Region with more than one
// candidate represents parallax- or lighting-regime variation the fitter
// has not yet merged away; Candidate lets a caller stochastically resample
// one instead of always taking the first.
type Region struct {
	mu sync.RWMutex

	Anchor    vmf.Vec3
	Mixtures  []*mixture.Mixture
	Stats     []*asm.Statistics
}

// NewRegion returns an empty Region anchored at the given position.
func NewRegion(anchor vmf.Vec3) *Region {
	return &Region{Anchor: anchor}
}

// AddMixture appends a trained mixture and its statistics as a new
// candidate. It is the caller's responsibility to keep mix and stats
// paired at the same index.
func (r *Region) AddMixture(mix *mixture.Mixture, stats *asm.Statistics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Mixtures = append(r.Mixtures, mix)
	r.Stats = append(r.Stats, stats)
}

// Count returns the number of candidate mixtures held by the region.
func (r *Region) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Mixtures)
}

// Candidate returns one (mixture, statistics) pair for sampling. With a
// single candidate it is returned directly without consuming u, per
// spec.md §6's "consumes u to optionally resample a stochastic candidate
// mixture when the Field stores several nearby" — u is only spent when
// there is an actual choice to make. The selection is uniform over the
// stored candidates; a caller wanting weight- or recency-biased resampling
// composes that in the Field layer, not here.
func (r *Region) Candidate(u float64) (*mixture.Mixture, *asm.Statistics, float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.Mixtures)
	if n == 0 {
		return nil, nil, u, fmt.Errorf("field: region has no trained mixtures")
	}
	if n == 1 {
		return r.Mixtures[0], r.Stats[0], u, nil
	}

	idx := int(u * float64(n))
	if idx >= n {
		idx = n - 1
	}
	remainder := u*float64(n) - float64(idx)
	return r.Mixtures[idx], r.Stats[idx], remainder, nil
}

// Fit replaces candidate 0's mixture with a freshly cold-started fit,
// growing the Mixtures/Stats slices if the region was empty. It exists so
// pkg/query and the service layer never reach into asm.Fit directly while
// holding a region's lock themselves — Region owns that. tracer and
// regionID are forwarded to asm.Fit unchanged so split/merge/degeneracy
// events trace under the caller's region identifier regardless of whether
// the caller is the gRPC service or a direct in-process collaborator; pass
// observability.NoopSink{} and "" if tracing is not wanted.
func (r *Region) Fit(k int, samples []sample.Sample, cfg asm.Configuration, fitStats *asm.FittingStatistics, tracer observability.TracingSink, regionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fitLocked(0, k, samples, cfg, fitStats, tracer, regionID)
}

func (r *Region) fitLocked(slot, k int, samples []sample.Sample, cfg asm.Configuration, fitStats *asm.FittingStatistics, tracer observability.TracingSink, regionID string) error {
	if slot >= len(r.Mixtures) {
		r.Mixtures = append(r.Mixtures, &mixture.Mixture{})
		r.Stats = append(r.Stats, &asm.Statistics{})
	}
	return asm.Fit(r.Mixtures[slot], k, r.Stats[slot], samples, cfg, fitStats, tracer, regionID)
}

// Update runs the steady-state ASM step against candidate 0.
func (r *Region) Update(samples []sample.Sample, cfg asm.Configuration, fitStats *asm.FittingStatistics, tracer observability.TracingSink, regionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Mixtures) == 0 {
		return fmt.Errorf("field: region has no mixture to update")
	}
	return asm.Update(r.Mixtures[0], r.Stats[0], samples, cfg, fitStats, tracer, regionID)
}
