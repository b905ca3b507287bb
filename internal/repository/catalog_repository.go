package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-planner/internal/model"
)

// CatalogRepository reads the modules of formations and chapters of certifications.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListModules retrieves the modules of a formation with their question counts.
func (r *CatalogRepository) ListModules(ctx context.Context, formationID string) ([]model.Module, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.id, m.formation_id, m.key, m.title, m.position,
		        (SELECT COUNT(*) FROM questions q WHERE q.owner_key = m.key) AS question_count
		 FROM modules m
		 WHERE m.formation_id = $1
		 ORDER BY m.position, m.id`, formationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	var modules []model.Module
	for rows.Next() {
		var m model.Module
		if err := rows.Scan(&m.ID, &m.FormationID, &m.Key, &m.Title, &m.Position, &m.QuestionCount); err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// ListChapters retrieves the chapters of a certification with their question counts.
func (r *CatalogRepository) ListChapters(ctx context.Context, certificationID string) ([]model.Chapter, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.certification_id, c.key, c.title, c.position,
		        (SELECT COUNT(*) FROM questions q WHERE q.owner_key = c.key) AS question_count
		 FROM chapters c
		 WHERE c.certification_id = $1
		 ORDER BY c.position, c.id`, certificationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []model.Chapter
	for rows.Next() {
		var ch model.Chapter
		if err := rows.Scan(&ch.ID, &ch.CertificationID, &ch.Key, &ch.Title, &ch.Position, &ch.QuestionCount); err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}
	return chapters, rows.Err()
}
