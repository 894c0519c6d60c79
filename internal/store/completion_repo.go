package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aquaplan/aquaplan/internal/domain"
)

// Completion is one recorded task completion.
type Completion struct {
	TaskID      string
	CompletedAt string // ISO-8601
	DateKey     string // YYYY-MM-DD in the task's timezone
}

// CompletionRepo handles persistence for task completion history.
type CompletionRepo struct{}

// Record appends a completion for a task.
func (r *CompletionRepo) Record(ctx context.Context, db *sql.DB, c Completion) error {
	const q = `INSERT INTO task_completions (task_id, completed_at, date_key, created_at)
VALUES (?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q, c.TaskID, c.CompletedAt, c.DateKey, time.Now().Unix())
	if err != nil {
		return domain.WrapEngineError(domain.ErrStoreWrite.Code, "record completion", err)
	}
	return nil
}

// LastByTask returns the most recent completion date key per task.
func (r *CompletionRepo) LastByTask(ctx context.Context, db *sql.DB) (map[string]string, error) {
	const q = `SELECT task_id, MAX(date_key) FROM task_completions GROUP BY task_id`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, domain.WrapEngineError(domain.ErrStoreQuery.Code, "load completions", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var taskID, dateKey string
		if err := rows.Scan(&taskID, &dateKey); err != nil {
			return nil, fmt.Errorf("scan completion row: %w", err)
		}
		out[taskID] = dateKey
	}
	return out, rows.Err()
}

// History returns every completion for one task, oldest first.
func (r *CompletionRepo) History(ctx context.Context, db *sql.DB, taskID string) ([]Completion, error) {
	const q = `SELECT task_id, completed_at, date_key FROM task_completions
WHERE task_id = ? ORDER BY date_key ASC, id ASC`

	rows, err := db.QueryContext(ctx, q, taskID)
	if err != nil {
		return nil, domain.WrapEngineError(domain.ErrStoreQuery.Code, "load history", err)
	}
	defer rows.Close()

	var out []Completion
	for rows.Next() {
		var c Completion
		if err := rows.Scan(&c.TaskID, &c.CompletedAt, &c.DateKey); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
