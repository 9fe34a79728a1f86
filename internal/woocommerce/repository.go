package woocommerce

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Africamobilier/erp/internal/shared"
)

// ConfigRepository persists the single integration config.
type ConfigRepository interface {
	GetActive(ctx context.Context) (*Config, error)
	Save(ctx context.Context, cfg Config) (*Config, error)
	TouchDerniereSync(ctx context.Context, id int64) error
}

// SyncLogRepository appends and lists sync run records.
type SyncLogRepository interface {
	Insert(ctx context.Context, log SyncLog) error
	List(ctx context.Context, limit int) ([]SyncLog, error)
}

type configRepository struct {
	pool *pgxpool.Pool
}

// NewConfigRepository builds a ConfigRepository backed by the pool.
func NewConfigRepository(pool *pgxpool.Pool) ConfigRepository {
	return &configRepository{pool: pool}
}

func (r *configRepository) GetActive(ctx context.Context) (*Config, error) {
	var cfg Config
	err := r.pool.QueryRow(ctx, `
		SELECT id, site_url, consumer_key, consumer_secret, actif, derniere_sync, created_at, updated_at
		FROM woocommerce_config WHERE actif = TRUE ORDER BY id LIMIT 1
	`).Scan(&cfg.ID, &cfg.SiteURL, &cfg.ConsumerKey, &cfg.ConsumerSecret, &cfg.Actif,
		&cfg.DerniereSync, &cfg.CreatedAt, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save upserts the config; one row per shop, replaced in place.
func (r *configRepository) Save(ctx context.Context, cfg Config) (*Config, error) {
	var saved Config
	err := r.pool.QueryRow(ctx, `
		INSERT INTO woocommerce_config (site_url, consumer_key, consumer_secret, actif)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (site_url)
		DO UPDATE SET consumer_key = EXCLUDED.consumer_key,
		              consumer_secret = EXCLUDED.consumer_secret,
		              actif = EXCLUDED.actif,
		              updated_at = NOW()
		RETURNING id, site_url, consumer_key, consumer_secret, actif, derniere_sync, created_at, updated_at
	`, cfg.SiteURL, cfg.ConsumerKey, cfg.ConsumerSecret, cfg.Actif).Scan(
		&saved.ID, &saved.SiteURL, &saved.ConsumerKey, &saved.ConsumerSecret, &saved.Actif,
		&saved.DerniereSync, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *configRepository) TouchDerniereSync(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE woocommerce_config SET derniere_sync = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

type syncLogRepository struct {
	pool *pgxpool.Pool
}

// NewSyncLogRepository builds a SyncLogRepository backed by the pool.
func NewSyncLogRepository(pool *pgxpool.Pool) SyncLogRepository {
	return &syncLogRepository{pool: pool}
}

func (r *syncLogRepository) Insert(ctx context.Context, log SyncLog) error {
	at := log.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sync_logs (type_sync, statut, message, created_at) VALUES ($1, $2, $3, $4)`,
		log.TypeSync, log.Statut, log.Message, at)
	return err
}

func (r *syncLogRepository) List(ctx context.Context, limit int) ([]SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, type_sync, statut, message, created_at
		FROM sync_logs ORDER BY created_at DESC, id DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SyncLog
	for rows.Next() {
		var l SyncLog
		if err := rows.Scan(&l.ID, &l.TypeSync, &l.Statut, &l.Message, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
