package livraison

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

// Repository provides persistence for delivery notes. UpdateCommandeStatut is
// the cross-table statement used when a note is issued inside a transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*BonLivraison, error)
	List(ctx context.Context, req ListBLRequest) ([]BLWithClient, int, error)
	Create(ctx context.Context, bl BonLivraison) (int64, error)
	UpdateStatut(ctx context.Context, id int64, statut Statut) error
	UpdateQuantiteLivree(ctx context.Context, ligneID int64, quantite float64) error
	InsertLigne(ctx context.Context, l LigneBL) (int64, error)
	Delete(ctx context.Context, id int64) error
	UpdateCommandeStatut(ctx context.Context, commandeID int64, statut string) error
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

const blColumns = `id, numero_bl, commande_id, client_id, date_livraison, statut,
	adresse_livraison, transporteur, notes, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*BonLivraison, error) {
	bl, err := scanBL(r.db.QueryRow(ctx, `SELECT `+blColumns+` FROM bons_livraison WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	bl.Lignes, err = r.lignes(ctx, bl.ID)
	return bl, err
}

func (r *repository) List(ctx context.Context, req ListBLRequest) ([]BLWithClient, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("bl.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.CommandeID != nil {
		conditions = append(conditions, fmt.Sprintf("bl.commande_id = $%d", argPos))
		args = append(args, *req.CommandeID)
		argPos++
	}
	if req.Statut != nil {
		conditions = append(conditions, fmt.Sprintf("bl.statut = $%d", argPos))
		args = append(args, *req.Statut)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("bl.date_livraison >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("bl.date_livraison <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM bons_livraison bl "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT bl.id, bl.numero_bl, bl.commande_id, bl.client_id, bl.date_livraison, bl.statut,
		       bl.adresse_livraison, bl.transporteur, bl.notes, bl.created_at, bl.updated_at,
		       c.raison_sociale, c.code_client
		FROM bons_livraison bl
		JOIN clients c ON bl.client_id = c.id
		%s
		ORDER BY bl.date_livraison DESC, bl.id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []BLWithClient
	for rows.Next() {
		var bl BLWithClient
		if err := rows.Scan(&bl.ID, &bl.NumeroBL, &bl.CommandeID, &bl.ClientID, &bl.DateLivraison,
			&bl.Statut, &bl.AdresseLivraison, &bl.Transporteur, &bl.Notes,
			&bl.CreatedAt, &bl.UpdatedAt, &bl.RaisonSociale, &bl.CodeClient); err != nil {
			return nil, 0, err
		}
		out = append(out, bl)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, bl BonLivraison) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO bons_livraison (numero_bl, commande_id, client_id, date_livraison, statut,
			adresse_livraison, transporteur, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, bl.NumeroBL, bl.CommandeID, bl.ClientID, bl.DateLivraison, bl.Statut,
		bl.AdresseLivraison, bl.Transporteur, bl.Notes).Scan(&id)
	return id, err
}

func (r *repository) UpdateStatut(ctx context.Context, id int64, statut Statut) error {
	tag, err := r.db.Exec(ctx, `UPDATE bons_livraison SET statut = $1, updated_at = NOW() WHERE id = $2`, statut, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateQuantiteLivree(ctx context.Context, ligneID int64, quantite float64) error {
	tag, err := r.db.Exec(ctx, `UPDATE lignes_bl SET quantite_livree = $1 WHERE id = $2`, quantite, ligneID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertLigne(ctx context.Context, l LigneBL) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO lignes_bl (bl_id, produit_id, designation, quantite_commandee, quantite_livree, ordre)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, l.BLID, l.ProduitID, l.Designation, l.QuantiteCommandee, l.QuantiteLivree, l.Ordre).Scan(&id)
	return id, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM lignes_bl WHERE bl_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM bons_livraison WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateCommandeStatut moves the source order when a note is issued, inside
// the same transaction as the note itself.
func (r *repository) UpdateCommandeStatut(ctx context.Context, commandeID int64, statut string) error {
	tag, err := r.db.Exec(ctx, `UPDATE commandes SET statut = $1, updated_at = NOW() WHERE id = $2`, statut, commandeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) lignes(ctx context.Context, blID int64) ([]LigneBL, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, bl_id, produit_id, designation, quantite_commandee, quantite_livree, ordre
		FROM lignes_bl WHERE bl_id = $1 ORDER BY ordre, id
	`, blID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LigneBL
	for rows.Next() {
		var l LigneBL
		if err := rows.Scan(&l.ID, &l.BLID, &l.ProduitID, &l.Designation,
			&l.QuantiteCommandee, &l.QuantiteLivree, &l.Ordre); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanBL(row pgx.Row) (*BonLivraison, error) {
	var bl BonLivraison
	err := row.Scan(&bl.ID, &bl.NumeroBL, &bl.CommandeID, &bl.ClientID, &bl.DateLivraison,
		&bl.Statut, &bl.AdresseLivraison, &bl.Transporteur, &bl.Notes,
		&bl.CreatedAt, &bl.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bl, nil
}
