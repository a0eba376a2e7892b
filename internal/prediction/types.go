// Package prediction scores how likely a tracked obstacle is to follow
// each of its candidate lane sequences. It turns the obstacle's recent
// motion history and the candidate's geometry into a fixed-length feature
// vector and evaluates it through an externally trained network
// (internal/mlp).
package prediction

// Feature vector sizing. The model's input dimensionality is the two
// summaries concatenated.
const (
	// ObstacleFeatureSize is the length of the obstacle-only motion summary.
	ObstacleFeatureSize = 14

	// LaneFeatureSize is the length of the per-candidate geometry summary.
	// Must be a multiple of ValuesPerLanePoint.
	LaneFeatureSize = 40

	// ValuesPerLanePoint is the number of feature values emitted per lane point.
	ValuesPerLanePoint = 4
)

// TurnType tags the turn direction of the lane a sample was matched to.
type TurnType int

const (
	TurnNone TurnType = iota
	TurnLeft
	TurnRight
	TurnU
)

// Point is a 2D position in the world frame (metres).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LaneObservation holds the lane-relative measurements of one motion
// sample: where the obstacle sat within its matched lane at that instant.
type LaneObservation struct {
	AngleDiff           float64  `json:"angle_diff"`             // heading difference to the lane tangent (rad)
	LaneL               float64  `json:"lane_l"`                 // lateral offset within the lane (m)
	DistToLeftBoundary  float64  `json:"dist_to_left_boundary"`  // metres
	DistToRightBoundary float64  `json:"dist_to_right_boundary"` // metres
	TurnType            TurnType `json:"turn_type"`
}

// MotionSample is one historical observation of an obstacle. Optional
// fields are pointers; a nil Lane means the sample was off the lane graph
// and a nil Timestamp means the observation time is unknown.
type MotionSample struct {
	Timestamp      *float64         `json:"timestamp,omitempty"` // seconds since epoch
	Heading        float64          `json:"heading"`             // raw heading (rad, 0 = +Y axis)
	TrackedHeading float64          `json:"tracked_heading"`     // filter-smoothed heading
	Speed          float64          `json:"speed"`               // raw scalar speed (m/s)
	TrackedSpeed   float64          `json:"tracked_speed"`       // filter-smoothed speed
	Position       *Point           `json:"position,omitempty"`
	Lane           *LaneObservation `json:"lane,omitempty"`
}

// ObstacleTrack is an obstacle's observation history, ordered newest
// first. Timestamps are monotonically non-increasing along History.
type ObstacleTrack struct {
	ID      int64          `json:"id"`
	History []MotionSample `json:"history"`
}

// Latest returns the most recent sample, or nil for an empty track.
func (t *ObstacleTrack) Latest() *MotionSample {
	if t == nil || len(t.History) == 0 {
		return nil
	}
	return &t.History[0]
}

// LanePoint is a geometric sample along a candidate path.
type LanePoint struct {
	Position  *Point  `json:"position,omitempty"`
	RelativeL float64 `json:"relative_l"` // lateral offset relative to the path (m)
	Heading   float64 `json:"heading"`    // path heading at this point (rad)
	AngleDiff float64 `json:"angle_diff"` // heading difference to the path tangent (rad)
}

// LaneSegment is an ordered run of lane points belonging to one lane.
type LaneSegment struct {
	LaneID string      `json:"lane_id,omitempty"`
	Points []LanePoint `json:"points"`
}

// LaneSequence is one full candidate path for an obstacle. Probability is
// written back by the Evaluator once the candidate has been scored.
type LaneSequence struct {
	Segments    []LaneSegment `json:"segments"`
	Probability float64       `json:"probability"`
}

// CandidateScore is one scored candidate, identified by the obstacle and
// the candidate's index within the pass.
type CandidateScore struct {
	ObstacleID  int64
	Candidate   int
	Probability float64
}
