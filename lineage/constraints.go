package lineage

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Constraints are the geometric-continuity gates a successor candidate must pass.
type Constraints struct {
	// Centroid displacement must be strictly below this value (pixels)
	SearchRadius float64
	// Bounds on successor area / predecessor area, inclusive
	AreaRatio Range
	// Bounds on successor orientation - predecessor orientation (radians), inclusive
	OrientationDif Range
}

// DefaultConstraints returns the gates used by the lab pipeline: radius 10,
// area ratio [0.95, 1.1], orientation difference [-0.1, 0.1]
func DefaultConstraints() Constraints {
	return Constraints{
		SearchRadius:   10.0,
		AreaRatio:      NewRange(0.95, 1.1),
		OrientationDif: NewRange(-0.1, 0.1),
	}
}

// Validate checks that the radius is positive and both ranges are ordered
func (c Constraints) Validate() error {
	if math.IsNaN(c.SearchRadius) || math.IsInf(c.SearchRadius, 0) || c.SearchRadius <= 0 {
		return errors.Wrapf(ErrInvalidConstraints, "search radius must be positive, got %v", c.SearchRadius)
	}
	if !c.AreaRatio.Valid() {
		return errors.Wrapf(ErrInvalidConstraints, "area ratio bounds [%v, %v]", c.AreaRatio.Low, c.AreaRatio.High)
	}
	if !c.OrientationDif.Valid() {
		return errors.Wrapf(ErrInvalidConstraints, "orientation difference bounds [%v, %v]", c.OrientationDif.Low, c.OrientationDif.High)
	}
	return nil
}

func (c Constraints) String() string {
	return fmt.Sprintf("radius=%g area_ratio=[%g,%g] orientation_dif=[%g,%g]",
		c.SearchRadius, c.AreaRatio.Low, c.AreaRatio.High, c.OrientationDif.Low, c.OrientationDif.High)
}

// admits evaluates all three gates for predecessor o and candidate c.
// Returns the centroid distance and whether c is feasible.
func (c Constraints) admits(o, cand *Object) (float64, bool) {
	dist := euclideanDistance(o.Centroid, cand.Centroid)
	if !(dist < c.SearchRadius) {
		return dist, false
	}
	if !c.AreaRatio.Contains(cand.Area / o.Area) {
		return dist, false
	}
	if !c.OrientationDif.Contains(cand.Orientation - o.Orientation) {
		return dist, false
	}
	return dist, true
}
