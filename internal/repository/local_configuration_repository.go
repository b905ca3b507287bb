package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stemsi/exstem-planner/internal/model"
	"github.com/stemsi/exstem-planner/internal/sampling"
)

// LocalConfigurationRepository stores sampling configurations in a local
// sqlite database for the offline CLI.
type LocalConfigurationRepository struct {
	db *sql.DB
}

// NewLocalConfigurationRepository creates a new LocalConfigurationRepository.
func NewLocalConfigurationRepository(db *sql.DB) *LocalConfigurationRepository {
	return &LocalConfigurationRepository{db: db}
}

// Create inserts cfg at version 1.
func (r *LocalConfigurationRepository) Create(ctx context.Context, cfg sampling.Configuration) error {
	diff, owners, err := marshalDistributions(cfg)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sampling_configurations
		    (id, name, total_questions, difficulty_distribution, owner_distribution,
		     passing_score, time_limit_minutes, scope_kind, scope_id, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		cfg.ID, cfg.Name, cfg.TotalQuestions, string(diff), string(owners),
		cfg.PassingScore, nullInt(cfg.TimeLimitMinutes), string(cfg.Scope.Kind), cfg.Scope.ID, now, now,
	)
	if err != nil {
		return fmt.Errorf("create configuration: %w", err)
	}
	return nil
}

// Update overwrites cfg when the stored version equals cfg.Version and
// returns the new version.
func (r *LocalConfigurationRepository) Update(ctx context.Context, cfg sampling.Configuration) (int, error) {
	diff, owners, err := marshalDistributions(cfg)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE sampling_configurations
		 SET name = ?, total_questions = ?, difficulty_distribution = ?, owner_distribution = ?,
		     passing_score = ?, time_limit_minutes = ?, scope_kind = ?, scope_id = ?,
		     version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		cfg.Name, cfg.TotalQuestions, string(diff), string(owners),
		cfg.PassingScore, nullInt(cfg.TimeLimitMinutes), string(cfg.Scope.Kind), cfg.Scope.ID,
		time.Now().Unix(), cfg.ID, cfg.Version,
	)
	if err != nil {
		return 0, fmt.Errorf("update configuration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update configuration: %w", err)
	}
	if n == 1 {
		return cfg.Version + 1, nil
	}

	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM sampling_configurations WHERE id = ?`, cfg.ID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("update configuration: %w", err)
	}
	return 0, ErrVersionConflict
}

// Get retrieves a configuration by id.
func (r *LocalConfigurationRepository) Get(ctx context.Context, id string) (sampling.Configuration, error) {
	var (
		cfg          sampling.Configuration
		kind         string
		diff, owners string
		limit        sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, total_questions, difficulty_distribution, owner_distribution,
		        passing_score, time_limit_minutes, scope_kind, scope_id, version
		 FROM sampling_configurations WHERE id = ?`, id,
	).Scan(&cfg.ID, &cfg.Name, &cfg.TotalQuestions, &diff, &owners,
		&cfg.PassingScore, &limit, &kind, &cfg.Scope.ID, &cfg.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return sampling.Configuration{}, ErrNotFound
	}
	if err != nil {
		return sampling.Configuration{}, fmt.Errorf("get configuration: %w", err)
	}

	cfg.Scope.Kind = sampling.ScopeKind(kind)
	if limit.Valid {
		minutes := int(limit.Int64)
		cfg.TimeLimitMinutes = &minutes
	}
	if err := unmarshalDistributions(&cfg, []byte(diff), []byte(owners)); err != nil {
		return sampling.Configuration{}, fmt.Errorf("get configuration: %w", err)
	}
	return cfg, nil
}

// List retrieves configuration summaries, most recently updated first.
func (r *LocalConfigurationRepository) List(ctx context.Context, limit, offset int) ([]model.ConfigurationSummary, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sampling_configurations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count configurations: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, total_questions, scope_kind, scope_id, version, updated_at
		 FROM sampling_configurations
		 ORDER BY updated_at DESC, id
		 LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list configurations: %w", err)
	}
	defer rows.Close()

	var out []model.ConfigurationSummary
	for rows.Next() {
		var (
			s       model.ConfigurationSummary
			kind    string
			updated int64
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.TotalQuestions, &kind, &s.ScopeID, &s.Version, &updated); err != nil {
			return nil, 0, err
		}
		s.ScopeKind = sampling.ScopeKind(kind)
		s.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// Delete removes a configuration.
func (r *LocalConfigurationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sampling_configurations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete configuration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete configuration: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
