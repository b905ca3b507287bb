package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/sampling"
)

// ConfigurationRepository stores sampling configurations in Postgres.
type ConfigurationRepository struct {
	pool *pgxpool.Pool
}

// NewConfigurationRepository creates a new ConfigurationRepository.
func NewConfigurationRepository(pool *pgxpool.Pool) *ConfigurationRepository {
	return &ConfigurationRepository{pool: pool}
}

// Create inserts cfg at version 1.
func (r *ConfigurationRepository) Create(ctx context.Context, cfg sampling.Configuration) error {
	id, err := uuid.Parse(cfg.ID)
	if err != nil {
		return fmt.Errorf("create configuration: %w", err)
	}
	diff, owners, err := marshalDistributions(cfg)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO sampling_configurations
		    (id, name, total_questions, difficulty_distribution, owner_distribution,
		     passing_score, time_limit_minutes, scope_kind, scope_id, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)`,
		id, cfg.Name, cfg.TotalQuestions, diff, owners,
		cfg.PassingScore, cfg.TimeLimitMinutes, string(cfg.Scope.Kind), cfg.Scope.ID,
	)
	if err != nil {
		return fmt.Errorf("create configuration: %w", err)
	}
	return nil
}

// Update overwrites cfg when the stored version equals cfg.Version and
// returns the new version.
func (r *ConfigurationRepository) Update(ctx context.Context, cfg sampling.Configuration) (int, error) {
	id, err := uuid.Parse(cfg.ID)
	if err != nil {
		return 0, ErrNotFound
	}
	diff, owners, err := marshalDistributions(cfg)
	if err != nil {
		return 0, err
	}

	var version int
	err = r.pool.QueryRow(ctx,
		`UPDATE sampling_configurations
		 SET name = $3, total_questions = $4, difficulty_distribution = $5, owner_distribution = $6,
		     passing_score = $7, time_limit_minutes = $8, scope_kind = $9, scope_id = $10,
		     version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND version = $2
		 RETURNING version`,
		id, cfg.Version, cfg.Name, cfg.TotalQuestions, diff, owners,
		cfg.PassingScore, cfg.TimeLimitMinutes, string(cfg.Scope.Kind), cfg.Scope.ID,
	).Scan(&version)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("update configuration: %w", err)
	}

	// Nothing matched: either the row is gone or the version moved on.
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sampling_configurations WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("update configuration: %w", err)
	}
	if !exists {
		return 0, ErrNotFound
	}
	return 0, ErrVersionConflict
}

// Get retrieves a configuration by id.
func (r *ConfigurationRepository) Get(ctx context.Context, id string) (sampling.Configuration, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return sampling.Configuration{}, ErrNotFound
	}

	var (
		cfg          sampling.Configuration
		kind         string
		diff, owners []byte
	)
	err = r.pool.QueryRow(ctx,
		`SELECT id::text, name, total_questions, difficulty_distribution, owner_distribution,
		        passing_score, time_limit_minutes, scope_kind, scope_id, version
		 FROM sampling_configurations WHERE id = $1`, uid,
	).Scan(&cfg.ID, &cfg.Name, &cfg.TotalQuestions, &diff, &owners,
		&cfg.PassingScore, &cfg.TimeLimitMinutes, &kind, &cfg.Scope.ID, &cfg.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return sampling.Configuration{}, ErrNotFound
	}
	if err != nil {
		return sampling.Configuration{}, fmt.Errorf("get configuration: %w", err)
	}

	cfg.Scope.Kind = sampling.ScopeKind(kind)
	if err := unmarshalDistributions(&cfg, diff, owners); err != nil {
		return sampling.Configuration{}, fmt.Errorf("get configuration: %w", err)
	}
	return cfg, nil
}

// List retrieves configuration summaries, most recently updated first.
func (r *ConfigurationRepository) List(ctx context.Context, limit, offset int) ([]model.ConfigurationSummary, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sampling_configurations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count configurations: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id::text, name, total_questions, scope_kind, scope_id, version, updated_at
		 FROM sampling_configurations
		 ORDER BY updated_at DESC, id
		 LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list configurations: %w", err)
	}
	defer rows.Close()

	var out []model.ConfigurationSummary
	for rows.Next() {
		var s model.ConfigurationSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.TotalQuestions, &s.ScopeKind, &s.ScopeID, &s.Version, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// Delete removes a configuration and, by cascade, its persisted plans.
func (r *ConfigurationRepository) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM sampling_configurations WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete configuration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalDistributions(cfg sampling.Configuration) (diff, owners []byte, err error) {
	diff, err = json.Marshal(nonNil(cfg.DifficultyDistribution))
	if err != nil {
		return nil, nil, fmt.Errorf("encode difficulty distribution: %w", err)
	}
	owners, err = json.Marshal(nonNil(cfg.OwnerDistribution))
	if err != nil {
		return nil, nil, fmt.Errorf("encode owner distribution: %w", err)
	}
	return diff, owners, nil
}

func unmarshalDistributions(cfg *sampling.Configuration, diff, owners []byte) error {
	if err := json.Unmarshal(diff, &cfg.DifficultyDistribution); err != nil {
		return fmt.Errorf("decode difficulty distribution: %w", err)
	}
	if err := json.Unmarshal(owners, &cfg.OwnerDistribution); err != nil {
		return fmt.Errorf("decode owner distribution: %w", err)
	}
	return nil
}

func nonNil(d sampling.DistributionMap) sampling.DistributionMap {
	if d == nil {
		return sampling.DistributionMap{}
	}
	return d
}
