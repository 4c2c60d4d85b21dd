package field

import (
	"sync"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
)

// Field is the top-level spatial index mapping a shading position to the
// Region that should guide sampling there. Partitioning scene space into
// Regions (an octree, a BVH leaf split, a voxel grid) is the caller's job
// per spec.md's Non-goals; Field only stores what has already been
// created and finds the closest one by anchor distance.
type Field struct {
	mu      sync.RWMutex
	regions []*Region
}

// New returns an empty Field.
func New() *Field {
	return &Field{}
}

// AddRegion registers a new region, anchored at the given position, and
// returns it.
func (f *Field) AddRegion(anchor vmf.Vec3) *Region {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := NewRegion(anchor)
	f.regions = append(f.regions, r)
	return r
}

// Len returns the number of regions in the field.
func (f *Field) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.regions)
}

// Nearest returns the region whose anchor is closest to position, or nil
// if the field holds no regions. The scan is linear: an ANN index over
// region anchors would give this sublinear lookup, but building one is
// out of this module's scope (spec.md's Field is an external collaborator,
// not a component this spec owns).
func (f *Field) Nearest(position vmf.Vec3) *Region {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var best *Region
	bestDist := 0.0
	for _, r := range f.regions {
		d := r.Anchor.Sub(position).Dot(r.Anchor.Sub(position))
		if best == nil || d < bestDist {
			best = r
			bestDist = d
		}
	}
	return best
}
