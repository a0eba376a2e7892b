package prediction

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	// minLateralSpeed is the near-zero guard below which time-to-boundary
	// estimates switch to the saturated form.
	minLateralSpeed = 0.05

	// saturatedTimeFactor caps the time-to-boundary estimate when the
	// lateral speed is near zero, instead of dividing by it.
	saturatedTimeFactor = 20.0
)

// Missing-data conditions. These degrade to "skip this candidate" in the
// Evaluator rather than failing a whole pass.
var (
	ErrNoHistory           = errors.New("obstacle has no timestamped history")
	ErrNoQualifyingSamples = errors.New("no lane-matched samples inside the history window")
	ErrNoPosition          = errors.New("latest sample has no position")
	ErrNoLanePoints        = errors.New("candidate has no lane points with positions")
)

// ObstacleFeatures summarises the track's recent motion into exactly
// ObstacleFeatureSize values, independent of any candidate path.
//
// The walk runs newest-first and stops at the first sample more than
// window before the most recent timestamp. Samples without lane-relative
// measurements are skipped. When useTracked is set, the filter-smoothed
// speed is collected instead of the raw one.
func ObstacleFeatures(track *ObstacleTrack, window time.Duration, useTracked bool) ([]float64, error) {
	latestTS := math.NaN()
	for i := range track.History {
		if ts := track.History[i].Timestamp; ts != nil {
			latestTS = *ts
			break
		}
	}
	if math.IsNaN(latestTS) {
		return nil, ErrNoHistory
	}
	cutoff := latestTS - window.Seconds()

	var (
		thetas     []float64
		laneLs     []float64
		distLBs    []float64
		distRBs    []float64
		speeds     []float64
		timestamps []float64
	)
	for i := range track.History {
		s := &track.History[i]
		if s.Timestamp == nil {
			continue
		}
		if *s.Timestamp < cutoff {
			break
		}
		if s.Lane == nil {
			continue
		}
		thetas = append(thetas, s.Lane.AngleDiff)
		laneLs = append(laneLs, s.Lane.LaneL)
		distLBs = append(distLBs, s.Lane.DistToLeftBoundary)
		distRBs = append(distRBs, s.Lane.DistToRightBoundary)
		timestamps = append(timestamps, *s.Timestamp)
		if useTracked {
			speeds = append(speeds, s.TrackedSpeed)
		} else {
			speeds = append(speeds, s.Speed)
		}
	}
	if len(thetas) == 0 {
		return nil, ErrNoQualifyingSamples
	}

	thetaMean := stat.Mean(thetas, nil)
	thetaFiltered := thetas[0]
	if len(thetas) > 1 {
		thetaFiltered = (thetas[0] + thetas[1]) / 2
	}
	thetaDelta := thetas[0]
	if len(thetas) > 1 {
		thetaDelta = thetas[0] - thetas[1]
	}
	laneLMean := stat.Mean(laneLs, nil)
	laneLFiltered := laneLs[0]
	if len(laneLs) > 1 {
		laneLFiltered = (laneLs[0] + laneLs[1]) / 2
	}
	speedMean := stat.Mean(speeds, nil)

	// Lateral speed toward the lane boundary. Sign is non-strict: an
	// exactly-zero lateral speed counts as negative.
	speedLateral := math.Sin(thetaFiltered) * speedMean
	speedSign := -1.0
	if speedLateral > 0 {
		speedSign = 1.0
	}
	var timeToLB, timeToRB float64
	if math.Abs(speedLateral) > minLateralSpeed {
		timeToLB = distLBs[0] / speedLateral
		timeToRB = -distRBs[0] / speedLateral
	} else {
		timeToLB = saturatedTimeFactor * distLBs[0] * speedSign
		timeToRB = -saturatedTimeFactor * distRBs[0] * speedSign
	}

	timeDiff := timestamps[0] - timestamps[len(timestamps)-1]
	var distLBRate, distRBRate float64
	if len(timestamps) > 1 {
		distLBRate = (distLBs[0] - distLBs[len(distLBs)-1]) / timeDiff
		distRBRate = (distRBs[0] - distRBs[len(distRBs)-1]) / timeDiff
	}

	// Lane turn-type one-hot features are not part of the current model
	// input.
	return []float64{
		thetaFiltered,
		thetaMean,
		thetaFiltered - thetaMean,
		thetaDelta,
		laneLFiltered,
		laneLMean,
		laneLFiltered - laneLMean,
		speedMean,
		distLBs[0],
		distLBRate,
		timeToLB,
		distRBs[0],
		distRBRate,
		timeToRB,
	}, nil
}
