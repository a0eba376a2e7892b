package prediction

import (
	"log"
	"time"

	"github.com/banshee-data/laneprob/internal/mlp"
)

// Evaluator scores an obstacle's candidate lane sequences against a
// loaded model. It owns a per-pass cache of the obstacle-only feature
// vector so the candidates of one obstacle share a single extraction.
//
// An Evaluator is not safe for concurrent use; workers scoring different
// obstacles in parallel must each own their own instance, since the cache
// is mutated in place.
type Evaluator struct {
	model      *mlp.Model
	window     time.Duration
	useTracked bool
	laneBudget int

	// obstacleFeatures maps obstacle ID to its cached summary for the
	// current pass only. Cleared at the start of each Evaluate call.
	obstacleFeatures map[int64][]float64

	obstacleExtractions int
}

// NewEvaluator builds an Evaluator over a loaded model. window is the
// history recency cutoff; useTracked selects the filter-smoothed speed
// and heading fields over the raw ones.
func NewEvaluator(model *mlp.Model, window time.Duration, useTracked bool) *Evaluator {
	return &Evaluator{
		model:            model,
		window:           window,
		useTracked:       useTracked,
		laneBudget:       LaneFeatureSize,
		obstacleFeatures: make(map[int64][]float64),
	}
}

// Evaluate scores every candidate lane sequence for one obstacle. Each
// scored candidate has its Probability set in place and appears in the
// returned slice. Candidates whose sub-extraction or evaluation fails are
// skipped with a log line; a failed candidate never aborts the pass.
func (e *Evaluator) Evaluate(track *ObstacleTrack, candidates []*LaneSequence) []CandidateScore {
	clear(e.obstacleFeatures)

	if e.model == nil {
		log.Printf("[prediction] no model loaded, nothing scored")
		return nil
	}
	if track == nil || len(track.History) == 0 {
		log.Printf("[prediction] obstacle has no history, nothing scored")
		return nil
	}
	if len(candidates) == 0 {
		log.Printf("[prediction] obstacle %d has no candidate lane sequences", track.ID)
		return nil
	}

	scores := make([]CandidateScore, 0, len(candidates))
	for i, seq := range candidates {
		p, err := e.scoreCandidate(track, seq)
		if err != nil {
			log.Printf("[prediction] obstacle %d candidate %d skipped: %v", track.ID, i, err)
			continue
		}
		seq.Probability = p
		scores = append(scores, CandidateScore{
			ObstacleID:  track.ID,
			Candidate:   i,
			Probability: p,
		})
	}
	return scores
}

func (e *Evaluator) scoreCandidate(track *ObstacleTrack, seq *LaneSequence) (float64, error) {
	obsVals, ok := e.obstacleFeatures[track.ID]
	if !ok {
		var err error
		obsVals, err = ObstacleFeatures(track, e.window, e.useTracked)
		if err != nil {
			return 0, err
		}
		e.obstacleExtractions++
		e.obstacleFeatures[track.ID] = obsVals
	}

	laneVals, err := LaneFeatures(track.Latest(), e.useTracked, seq, e.laneBudget)
	if err != nil {
		return 0, err
	}

	input := make([]float64, 0, len(obsVals)+len(laneVals))
	input = append(input, obsVals...)
	input = append(input, laneVals...)
	return e.model.Run(input)
}

// ObstacleExtractions reports how many times the obstacle summary was
// actually computed, as opposed to served from the per-pass cache.
func (e *Evaluator) ObstacleExtractions() int {
	return e.obstacleExtractions
}
