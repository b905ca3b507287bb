package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-planner/internal/model"
)

// PlanRepository reads plans persisted by the plan worker.
type PlanRepository struct {
	pool *pgxpool.Pool
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

// ListByConfiguration retrieves the most recent plans drawn for a configuration.
func (r *PlanRepository) ListByConfiguration(ctx context.Context, configurationID string, limit int) ([]model.PlanRecord, error) {
	id, err := uuid.Parse(configurationID)
	if err != nil {
		return nil, ErrNotFound
	}

	rows, err := r.pool.Query(ctx,
		`SELECT configuration_id::text, configuration_version, seed, status, requested,
		        question_ids, buckets, shortfalls, created_at
		 FROM sampling_plans
		 WHERE configuration_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, id, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []model.PlanRecord
	for rows.Next() {
		var (
			p                        model.PlanRecord
			ids, buckets, shortfalls []byte
		)
		if err := rows.Scan(&p.ConfigurationID, &p.ConfigurationVersion, &p.Seed, &p.Status, &p.Requested,
			&ids, &buckets, &shortfalls, &p.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(ids, &p.QuestionIDs); err != nil {
			return nil, fmt.Errorf("decode question ids: %w", err)
		}
		if err := json.Unmarshal(buckets, &p.Buckets); err != nil {
			return nil, fmt.Errorf("decode buckets: %w", err)
		}
		if err := json.Unmarshal(shortfalls, &p.Shortfalls); err != nil {
			return nil, fmt.Errorf("decode shortfalls: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}
