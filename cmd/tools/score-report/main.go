// Command score-report renders an HTML scatter of stored lane-sequence
// probabilities so a run can be eyeballed without the database tooling.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/laneprob/internal/db"
)

var (
	dbPath  = flag.String("db", "lane_scores.db", "Path to score database")
	runID   = flag.String("run", "", "Scoring run to plot (default: most recent scores)")
	limit   = flag.Int("limit", 2000, "Maximum number of scores to plot")
	outPath = flag.String("out", "score_report.html", "Output HTML file")
)

func main() {
	flag.Parse()

	scoreDB, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open score database: %v", err)
	}
	defer scoreDB.Close()

	var records []db.ScoreRecord
	if *runID != "" {
		records, err = scoreDB.ScoresForRun(*runID)
	} else {
		records, err = scoreDB.RecentScores(*limit)
	}
	if err != nil {
		log.Fatalf("failed to read scores: %v", err)
	}
	if len(records) == 0 {
		log.Fatal("no scores found")
	}

	data := make([]opts.ScatterData, 0, len(records))
	for _, r := range records {
		// x = obstacle, y = probability, colour = candidate index
		data = append(data, opts.ScatterData{
			Value: []interface{}{r.ObstacleID, r.Probability, r.CandidateIndex},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Lane Sequence Scores", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Lane sequence probabilities", Subtitle: fmt.Sprintf("scores=%d", len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Obstacle ID", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "Probability", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("scores", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	defer f.Close()
	if err := scatter.Render(f); err != nil {
		log.Fatalf("failed to render chart: %v", err)
	}
	log.Printf("wrote %s (%d scores)", *outPath, len(data))
}
