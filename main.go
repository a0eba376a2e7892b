package main

import (
	"flag"
	"log"

	"github.com/google/uuid"

	"github.com/banshee-data/laneprob/internal/config"
	"github.com/banshee-data/laneprob/internal/db"
	"github.com/banshee-data/laneprob/internal/mlp"
	"github.com/banshee-data/laneprob/internal/prediction"
)

var (
	configPath    = flag.String("config", "", "Path to tuning config JSON (optional)")
	modelPath     = flag.String("model", "", "Path to model file (overrides config)")
	dbPath        = flag.String("db", "", "Path to score database (overrides config)")
	snapshotPath  = flag.String("snapshot", "", "Path to obstacle snapshot JSON")
	migrationsDir = flag.String("migrations", "internal/db/migrations", "Path to schema migrations")
	runMigrations = flag.Bool("migrate", false, "Apply pending schema migrations and exit")
)

func main() {
	flag.Parse()

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *modelPath == "" {
		*modelPath = cfg.GetModelPath()
	}
	if *dbPath == "" {
		*dbPath = cfg.GetDatabasePath()
	}

	scoreDB, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open score database: %v", err)
	}
	defer scoreDB.Close()

	if *runMigrations {
		if err := scoreDB.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("Migrations failed: %v", err)
		}
		version, dirty, err := scoreDB.MigrateVersion(*migrationsDir)
		if err != nil {
			log.Fatalf("Failed to read migration version: %v", err)
		}
		log.Printf("Database at migration version %d (dirty=%v)", version, dirty)
		return
	}

	if *snapshotPath == "" {
		log.Fatal("Snapshot path is required (-snapshot)")
	}

	model, err := mlp.Load(*modelPath)
	if err != nil {
		log.Fatalf("Failed to load model %s: %v", *modelPath, err)
	}

	snapshot, err := prediction.LoadSnapshot(*snapshotPath)
	if err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}

	evaluator := prediction.NewEvaluator(model, cfg.GetHistoryWindow(), cfg.GetUseTrackedMotion())

	runID := uuid.NewString()
	if err := scoreDB.RecordRun(runID, *snapshotPath, *modelPath); err != nil {
		log.Fatalf("Failed to record scoring run: %v", err)
	}

	var records []db.ScoreRecord
	for i := range snapshot.Obstacles {
		obs := &snapshot.Obstacles[i]
		scores := evaluator.Evaluate(&obs.Track, obs.Candidates)
		for _, s := range scores {
			log.Printf("Obstacle %d candidate %d: probability %.4f", s.ObstacleID, s.Candidate, s.Probability)
			records = append(records, db.ScoreRecord{
				RunID:          runID,
				ObstacleID:     s.ObstacleID,
				CandidateIndex: s.Candidate,
				Probability:    s.Probability,
			})
		}
	}

	if len(records) == 0 {
		log.Printf("Run %s produced no scores", runID)
		return
	}
	if err := scoreDB.RecordScores(records); err != nil {
		log.Fatalf("Failed to record scores: %v", err)
	}
	log.Printf("Run %s: recorded %d scores for %d obstacles", runID, len(records), len(snapshot.Obstacles))
}
