package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Africamobilier/erp/internal/platform/db"
	"github.com/Africamobilier/erp/internal/shared"
)

// Repository provides persistence for clients.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Client, error)
	GetByWoocommerceID(ctx context.Context, wcID int64) (*Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
	Create(ctx context.Context, c Client) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	UpsertExterne(ctx context.Context, req UpsertExterneRequest) (int64, bool, error)
	Promouvoir(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository builds a Repository backed by the pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const clientColumns = `id, code_client, type, raison_sociale, nom_contact, email, telephone, mobile,
	adresse, ville, code_postal, ice, rc, patente, source, woocommerce_id,
	date_derniere_commande, notes, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Client, error) {
	row := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	return scanClient(row)
}

func (r *repository) GetByWoocommerceID(ctx context.Context, wcID int64) (*Client, error) {
	row := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE woocommerce_id = $1`, wcID)
	return scanClient(row)
}

func (r *repository) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, *req.Type)
		argPos++
	}
	if req.Source != nil {
		conditions = append(conditions, fmt.Sprintf("source = $%d", argPos))
		args = append(args, *req.Source)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(raison_sociale ILIKE $%d OR code_client ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM clients "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM clients %s ORDER BY raison_sociale LIMIT $%d OFFSET $%d",
		clientColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClientRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Client) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO clients (code_client, type, raison_sociale, nom_contact, email, telephone, mobile,
			adresse, ville, code_postal, ice, rc, patente, source, woocommerce_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`, c.CodeClient, c.Type, c.RaisonSociale, c.NomContact, c.Email, c.Telephone, c.Mobile,
		c.Adresse, c.Ville, c.CodePostal, c.ICE, c.RC, c.Patente, c.Source, c.WoocommerceID, c.Notes).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, "clients_woocommerce_id_key") {
			return 0, fmt.Errorf("client woocommerce_id already used: %w", shared.ErrValidation)
		}
		return 0, err
	}
	return id, nil
}

var updatableColumns = map[string]struct{}{
	"type": {}, "raison_sociale": {}, "nom_contact": {}, "email": {}, "telephone": {},
	"mobile": {}, "adresse": {}, "ville": {}, "code_postal": {}, "ice": {}, "rc": {},
	"patente": {}, "notes": {}, "date_derniere_commande": {},
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE clients SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for col, v := range updates {
		if _, ok := updatableColumns[col]; !ok {
			return fmt.Errorf("clients: column %q not updatable", col)
		}
		query += fmt.Sprintf(", %s = $%d", col, argPos)
		args = append(args, v)
		argPos++
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpsertExterne inserts or updates a client keyed by woocommerce_id. New rows
// enter as prospects sourced from the e-commerce platform. Returns the local
// id and whether a row was created.
func (r *repository) UpsertExterne(ctx context.Context, req UpsertExterneRequest) (int64, bool, error) {
	existing, err := r.GetByWoocommerceID(ctx, req.WoocommerceID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return 0, false, err
	}

	if existing != nil {
		err := r.Update(ctx, existing.ID, map[string]interface{}{
			"raison_sociale": req.RaisonSociale,
			"nom_contact":    req.NomContact,
			"email":          req.Email,
			"telephone":      req.Telephone,
			"adresse":        req.Adresse,
			"ville":          req.Ville,
			"code_postal":    req.CodePostal,
		})
		return existing.ID, false, err
	}

	wcID := req.WoocommerceID
	id, err := r.Create(ctx, Client{
		CodeClient:    fmt.Sprintf("WC-%d", req.WoocommerceID),
		Type:          TypeProspect,
		RaisonSociale: req.RaisonSociale,
		NomContact:    req.NomContact,
		Email:         req.Email,
		Telephone:     req.Telephone,
		Adresse:       req.Adresse,
		Ville:         req.Ville,
		CodePostal:    req.CodePostal,
		Source:        SourceWooCommerce,
		WoocommerceID: &wcID,
	})
	return id, err == nil, err
}

// Promouvoir turns a prospect into a confirmed client and stamps the date of
// its latest order.
func (r *repository) Promouvoir(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE clients SET type = $1, date_derniere_commande = NOW(), updated_at = NOW()
		WHERE id = $2
	`, TypeClient, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.CodeClient, &c.Type, &c.RaisonSociale, &c.NomContact, &c.Email,
		&c.Telephone, &c.Mobile, &c.Adresse, &c.Ville, &c.CodePostal, &c.ICE, &c.RC, &c.Patente,
		&c.Source, &c.WoocommerceID, &c.DateDerniereCommande, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanClientRow(rows pgx.Rows) (*Client, error) {
	var c Client
	err := rows.Scan(&c.ID, &c.CodeClient, &c.Type, &c.RaisonSociale, &c.NomContact, &c.Email,
		&c.Telephone, &c.Mobile, &c.Adresse, &c.Ville, &c.CodePostal, &c.ICE, &c.RC, &c.Patente,
		&c.Source, &c.WoocommerceID, &c.DateDerniereCommande, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
