package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the audit trail.
type Repository interface {
	Timeline(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Entry, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository backed by the pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Timeline(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Entry, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if filters.Entity != "" {
		conditions = append(conditions, fmt.Sprintf("entity = $%d", argPos))
		args = append(args, filters.Entity)
		argPos++
	}
	if filters.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argPos))
		args = append(args, filters.Action)
		argPos++
	}
	if filters.ActorID != nil {
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", argPos))
		args = append(args, *filters.ActorID)
		argPos++
	}
	if filters.From != nil {
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d", argPos))
		args = append(args, *filters.From)
		argPos++
	}
	if filters.To != nil {
		conditions = append(conditions, fmt.Sprintf("occurred_at <= $%d", argPos))
		args = append(args, *filters.To)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, actor_id, action, entity, entity_id, meta, occurred_at
		FROM audit_logs %s
		ORDER BY occurred_at DESC, id DESC
		OFFSET $%d LIMIT $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, offset, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &metaJSON, &e.OccurredAt); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &e.Meta); err != nil {
				return nil, fmt.Errorf("decode audit meta: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
