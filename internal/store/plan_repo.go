package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aquaplan/aquaplan/internal/domain"
)

// PlanRepo handles persistence for generated plan documents.
type PlanRepo struct{}

// Save inserts or replaces a plan by its ID. The full JSON document is
// kept so the schedule command can run against a bare plan ID.
func (r *PlanRepo) Save(ctx context.Context, db *sql.DB, p *domain.Plan) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	const q = `INSERT OR REPLACE INTO plans (plan_id, generated_at, engine_version, plan_json, created_at)
VALUES (?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, q,
		p.Meta.PlanID,
		p.Meta.GeneratedAt,
		p.Meta.EngineVersion,
		string(data),
		time.Now().Unix(),
	)
	if err != nil {
		return domain.WrapEngineError(domain.ErrStoreWrite.Code, "save plan", err)
	}
	return nil
}

// GetByID retrieves a plan document by its ID.
func (r *PlanRepo) GetByID(ctx context.Context, db *sql.DB, planID string) (*domain.Plan, error) {
	const q = `SELECT plan_json FROM plans WHERE plan_id = ?`

	var data string
	err := db.QueryRowContext(ctx, q, planID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewEngineError(domain.ErrPlanNotFound.Code, fmt.Sprintf("no plan with id %q", planID))
	}
	if err != nil {
		return nil, domain.WrapEngineError(domain.ErrStoreQuery.Code, "get plan", err)
	}

	var p domain.Plan
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode stored plan: %w", err)
	}
	return &p, nil
}

// List returns plan IDs and generation timestamps, newest first.
func (r *PlanRepo) List(ctx context.Context, db *sql.DB) ([]domain.PlanMeta, error) {
	const q = `SELECT plan_id, generated_at, engine_version FROM plans ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, domain.WrapEngineError(domain.ErrStoreQuery.Code, "list plans", err)
	}
	defer rows.Close()

	var out []domain.PlanMeta
	for rows.Next() {
		var m domain.PlanMeta
		if err := rows.Scan(&m.PlanID, &m.GeneratedAt, &m.EngineVersion); err != nil {
			return nil, fmt.Errorf("scan plan row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
