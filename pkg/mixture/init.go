package mixture

import (
	"math"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/vmf"
)

// goldenAngle is the angle (in radians) between successive points of a
// Fibonacci spiral on the sphere, used as a cheap low-discrepancy
// initialization pattern for a mixture's mean directions.
const goldenAngle = math.Pi * (3 - 2.2360679774997896 /* sqrt(5) */)

// lowDiscrepancyDirections returns k roughly evenly spaced unit vectors on
// S^2 via a Fibonacci spiral, used to seed a cold-start Mixture so its
// initial lobes do not overlap.
func lowDiscrepancyDirections(k int) []vmf.Vec3 {
	dirs := make([]vmf.Vec3, k)
	if k == 1 {
		dirs[0] = vmf.Vec3{0, 0, 1}
		return dirs
	}
	for i := 0; i < k; i++ {
		z := 1 - 2*(float64(i)+0.5)/float64(k)
		r := math.Sqrt(math.Max(0, 1-z*z))
		theta := goldenAngle * float64(i)
		dirs[i] = vmf.Vec3{r * math.Cos(theta), r * math.Sin(theta), z}
	}
	return dirs
}
