package produits

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Africamobilier/erp/internal/shared"
)

// Repository provides persistence for products.
type Repository interface {
	Get(ctx context.Context, id int64) (*Produit, error)
	GetByWoocommerceID(ctx context.Context, wcID int64) (*Produit, error)
	List(ctx context.Context, req ListProduitsRequest) ([]Produit, int, error)
	Create(ctx context.Context, p Produit) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	UpsertExterne(ctx context.Context, req UpsertExterneRequest) (int64, bool, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository backed by the pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const produitColumns = `id, code_produit, designation, description, categorie, prix_unitaire_ht,
	unite, stock_disponible, stock_alerte, woocommerce_id, image_url, actif, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Produit, error) {
	return scanProduit(r.pool.QueryRow(ctx, `SELECT `+produitColumns+` FROM produits WHERE id = $1`, id))
}

func (r *repository) GetByWoocommerceID(ctx context.Context, wcID int64) (*Produit, error) {
	return scanProduit(r.pool.QueryRow(ctx, `SELECT `+produitColumns+` FROM produits WHERE woocommerce_id = $1`, wcID))
}

func (r *repository) List(ctx context.Context, req ListProduitsRequest) ([]Produit, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Categorie != nil {
		conditions = append(conditions, fmt.Sprintf("categorie = $%d", argPos))
		args = append(args, *req.Categorie)
		argPos++
	}
	if req.Actif != nil {
		conditions = append(conditions, fmt.Sprintf("actif = $%d", argPos))
		args = append(args, *req.Actif)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(designation ILIKE $%d OR code_produit ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}
	if req.StockFaible {
		conditions = append(conditions, "stock_disponible <= stock_alerte")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM produits "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM produits %s ORDER BY designation LIMIT $%d OFFSET $%d",
		produitColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Produit
	for rows.Next() {
		var p Produit
		if err := rows.Scan(&p.ID, &p.CodeProduit, &p.Designation, &p.Description, &p.Categorie,
			&p.PrixUnitaireHT, &p.Unite, &p.StockDisponible, &p.StockAlerte, &p.WoocommerceID,
			&p.ImageURL, &p.Actif, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Produit) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO produits (code_produit, designation, description, categorie, prix_unitaire_ht,
			unite, stock_disponible, stock_alerte, woocommerce_id, image_url, actif)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, p.CodeProduit, p.Designation, p.Description, p.Categorie, p.PrixUnitaireHT,
		p.Unite, p.StockDisponible, p.StockAlerte, p.WoocommerceID, p.ImageURL, p.Actif).Scan(&id)
	return id, err
}

var updatableColumns = map[string]struct{}{
	"designation": {}, "description": {}, "categorie": {}, "prix_unitaire_ht": {}, "unite": {},
	"stock_disponible": {}, "stock_alerte": {}, "image_url": {}, "actif": {},
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE produits SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for col, v := range updates {
		if _, ok := updatableColumns[col]; !ok {
			return fmt.Errorf("produits: column %q not updatable", col)
		}
		query += fmt.Sprintf(", %s = $%d", col, argPos)
		args = append(args, v)
		argPos++
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpsertExterne inserts or updates a product keyed by woocommerce_id.
// Returns the local id and whether a row was created.
func (r *repository) UpsertExterne(ctx context.Context, req UpsertExterneRequest) (int64, bool, error) {
	existing, err := r.GetByWoocommerceID(ctx, req.WoocommerceID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return 0, false, err
	}

	if existing != nil {
		err := r.Update(ctx, existing.ID, map[string]interface{}{
			"designation":      req.Designation,
			"description":      req.Description,
			"categorie":        req.Categorie,
			"prix_unitaire_ht": req.PrixUnitaireHT,
			"stock_disponible": req.StockDisponible,
			"image_url":        req.ImageURL,
		})
		return existing.ID, false, err
	}

	wcID := req.WoocommerceID
	id, err := r.Create(ctx, Produit{
		CodeProduit:     req.CodeProduit,
		Designation:     req.Designation,
		Description:     req.Description,
		Categorie:       req.Categorie,
		PrixUnitaireHT:  req.PrixUnitaireHT,
		Unite:           "unité",
		StockDisponible: req.StockDisponible,
		WoocommerceID:   &wcID,
		ImageURL:        req.ImageURL,
		Actif:           true,
	})
	return id, err == nil, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM produits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanProduit(row pgx.Row) (*Produit, error) {
	var p Produit
	err := row.Scan(&p.ID, &p.CodeProduit, &p.Designation, &p.Description, &p.Categorie,
		&p.PrixUnitaireHT, &p.Unite, &p.StockDisponible, &p.StockAlerte, &p.WoocommerceID,
		&p.ImageURL, &p.Actif, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
