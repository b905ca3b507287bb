package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-planner/internal/config"
	"github.com/stemsi/exstem-planner/internal/database"
	"github.com/stemsi/exstem-planner/internal/logger"
	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/repository"
	"github.com/stemsi/exstem-planner/internal/sampling"
	"github.com/stemsi/exstem-planner/internal/service"
)

const (
	demoFormation     = "F-DEMO"
	demoCertification = "C-DEMO"
)

// perOwner is how many questions of each difficulty every module and chapter gets.
var perOwner = map[sampling.Difficulty]int{
	sampling.DifficultyEasy:   12,
	sampling.DifficultyMedium: 8,
	sampling.DifficultyHard:   5,
}

type unit struct {
	key   string
	title string
}

var modules = []unit{
	{"demo-networking", "Dasar Jaringan Komputer"},
	{"demo-routing", "Routing dan Switching"},
	{"demo-security", "Keamanan Jaringan"},
}

var chapters = []unit{
	{"demo-ch-linux", "Administrasi Linux"},
	{"demo-ch-cloud", "Layanan Cloud"},
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	catalogService := service.NewCatalogService(repository.NewCatalogRepository(pool), log)
	questionService := service.NewQuestionService(repository.NewQuestionRepository(pool), log)
	configService := service.NewConfigurationService(repository.NewConfigurationRepository(pool), catalogService, log)

	fmt.Println("=== Seeding demo catalog ===")
	if err := upsertUnits(ctx, pool, "modules", "formation_id", demoFormation, modules); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed modules")
	}
	if err := upsertUnits(ctx, pool, "chapters", "certification_id", demoCertification, chapters); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed chapters")
	}

	fmt.Println("=== Seeding questions ===")
	total := 0
	for _, u := range append(append([]unit{}, modules...), chapters...) {
		questions := demoQuestions(u)
		if err := questionService.ReplaceAll(ctx, u.key, questions); err != nil {
			log.Fatal().Err(err).Str("owner_key", u.key).Msg("Failed to seed questions")
		}
		total += len(questions)
		fmt.Printf("%-18s %d questions\n", u.key, len(questions))
	}

	fmt.Println("=== Seeding demo configuration ===")
	id, err := configService.Save(ctx, sampling.Configuration{
		Name:                   "Ujian Akhir Jaringan (demo)",
		TotalQuestions:         30,
		DifficultyDistribution: sampling.DistributionMap{"easy": 50, "medium": 30, "hard": 20},
		OwnerDistribution:      sampling.DistributionMap{"demo-networking": 40, "demo-routing": 30, "demo-security": 30},
		PassingScore:           70,
		Scope:                  sampling.Scope{Kind: sampling.ScopeFormation, ID: demoFormation},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to save demo configuration")
	}

	fmt.Printf("\nSeed completed! %d questions, configuration %s\n", total, id)
}

// upsertUnits inserts or renames the catalog rows of one formation or certification.
func upsertUnits(ctx context.Context, pool *pgxpool.Pool, table, parentColumn, parentID string, units []unit) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (%s, key, title, position) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET title = EXCLUDED.title, position = EXCLUDED.position`,
		table, parentColumn,
	)
	for i, u := range units {
		if _, err := pool.Exec(ctx, query, parentID, u.key, u.title, i+1); err != nil {
			return fmt.Errorf("upsert %s %s: %w", table, u.key, err)
		}
	}
	return nil
}

func demoQuestions(u unit) []model.Question {
	var questions []model.Question
	for _, d := range sampling.Difficulties {
		for i := range perOwner[d] {
			questions = append(questions, model.Question{
				QuestionText: fmt.Sprintf("[%s] Soal %s nomor %d", u.title, d, i+1),
				Difficulty:   d,
				Points:       pointsFor(d),
			})
		}
	}
	return questions
}

func pointsFor(d sampling.Difficulty) int {
	switch d {
	case sampling.DifficultyHard:
		return 5
	case sampling.DifficultyMedium:
		return 3
	default:
		return 1
	}
}
