package prediction

import (
	"fmt"
	"log"
	"math"
)

// LaneFeatures summarises one candidate lane sequence relative to the
// obstacle's current pose into exactly budget values (normally
// LaneFeatureSize). budget bounds the walk over the candidate's nested
// geometry and must be a positive multiple of ValuesPerLanePoint.
//
// Each lane point contributes four values: the sine of the bearing from
// the obstacle to the point relative to the obstacle's heading, the
// point's lateral offset, its heading, and its heading difference to the
// path tangent. Long candidates are truncated at the budget; short ones
// are padded by tiling the last emitted 4-tuple, so the vector reads as
// the obstacle persisting at the path's final relative state.
func LaneFeatures(latest *MotionSample, useTracked bool, seq *LaneSequence, budget int) ([]float64, error) {
	if budget <= 0 || budget%ValuesPerLanePoint != 0 {
		return nil, fmt.Errorf("lane feature budget %d is not a positive multiple of %d", budget, ValuesPerLanePoint)
	}
	if latest == nil {
		return nil, ErrNoHistory
	}
	if latest.Position == nil {
		return nil, ErrNoPosition
	}
	heading := latest.Heading
	if useTracked {
		heading = latest.TrackedHeading
	}

	vals := make([]float64, 0, budget)
	for si := range seq.Segments {
		if len(vals) >= budget {
			break
		}
		points := seq.Segments[si].Points
		for pi := range points {
			if len(vals) >= budget {
				break
			}
			p := &points[pi]
			if p.Position == nil {
				log.Printf("[prediction] lane point %d/%d has no position", si, pi)
				continue
			}
			dx := p.Position.X - latest.Position.X
			dy := p.Position.Y - latest.Position.Y
			// Bearing measured from the +Y axis to match the heading
			// convention, hence atan2(dx, dy).
			bearing := math.Atan2(dx, dy)
			vals = append(vals,
				math.Sin(bearing-heading),
				p.RelativeL,
				p.Heading,
				p.AngleDiff,
			)
		}
	}

	// Tile the last 4-tuple out to the budget.
	for n := len(vals); n >= ValuesPerLanePoint && n < budget; n = len(vals) {
		vals = append(vals, vals[n-4], vals[n-3], vals[n-2], vals[n-1])
	}
	if len(vals) != budget {
		return nil, ErrNoLanePoints
	}
	return vals, nil
}
