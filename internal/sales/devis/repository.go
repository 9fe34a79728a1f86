package devis

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

// Repository provides persistence for quotes and their lines.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Devis, error)
	GetByWoocommerceQuoteID(ctx context.Context, wcQuoteID int64) (*Devis, error)
	List(ctx context.Context, req ListDevisRequest) ([]DevisWithClient, int, error)
	Create(ctx context.Context, d Devis) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatut(ctx context.Context, id int64, statut Statut) error
	InsertLigne(ctx context.Context, l LigneDevis) (int64, error)
	DeleteLignes(ctx context.Context, devisID int64) error
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

const devisColumns = `id, numero_devis, client_id, date_devis, date_validite, statut,
	montant_ht, montant_tva, montant_ttc, taux_remise, remise_montant,
	conditions_paiement, delai_livraison, notes, woocommerce_quote_id, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Devis, error) {
	d, err := scanDevis(r.db.QueryRow(ctx, `SELECT `+devisColumns+` FROM devis WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	d.Lignes, err = r.lignes(ctx, d.ID)
	return d, err
}

func (r *repository) GetByWoocommerceQuoteID(ctx context.Context, wcQuoteID int64) (*Devis, error) {
	d, err := scanDevis(r.db.QueryRow(ctx, `SELECT `+devisColumns+` FROM devis WHERE woocommerce_quote_id = $1`, wcQuoteID))
	if err != nil {
		return nil, err
	}
	d.Lignes, err = r.lignes(ctx, d.ID)
	return d, err
}

func (r *repository) List(ctx context.Context, req ListDevisRequest) ([]DevisWithClient, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("d.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Statut != nil {
		conditions = append(conditions, fmt.Sprintf("d.statut = $%d", argPos))
		args = append(args, *req.Statut)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("d.date_devis >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("d.date_devis <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM devis d "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT d.id, d.numero_devis, d.client_id, d.date_devis, d.date_validite, d.statut,
		       d.montant_ht, d.montant_tva, d.montant_ttc, d.taux_remise, d.remise_montant,
		       d.conditions_paiement, d.delai_livraison, d.notes, d.woocommerce_quote_id,
		       d.created_at, d.updated_at,
		       c.raison_sociale, c.code_client
		FROM devis d
		JOIN clients c ON d.client_id = c.id
		%s
		ORDER BY d.date_devis DESC, d.id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []DevisWithClient
	for rows.Next() {
		var d DevisWithClient
		if err := rows.Scan(&d.ID, &d.NumeroDevis, &d.ClientID, &d.DateDevis, &d.DateValidite,
			&d.Statut, &d.MontantHT, &d.MontantTVA, &d.MontantTTC, &d.TauxRemise, &d.RemiseMontant,
			&d.ConditionsPaiement, &d.DelaiLivraison, &d.Notes, &d.WoocommerceQuoteID,
			&d.CreatedAt, &d.UpdatedAt, &d.RaisonSociale, &d.CodeClient); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, d Devis) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO devis (numero_devis, client_id, date_devis, date_validite, statut,
			montant_ht, montant_tva, montant_ttc, taux_remise, remise_montant,
			conditions_paiement, delai_livraison, notes, woocommerce_quote_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, d.NumeroDevis, d.ClientID, d.DateDevis, d.DateValidite, d.Statut,
		d.MontantHT, d.MontantTVA, d.MontantTTC, d.TauxRemise, d.RemiseMontant,
		d.ConditionsPaiement, d.DelaiLivraison, d.Notes, d.WoocommerceQuoteID).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, "devis_woocommerce_quote_id_key") {
			return 0, fmt.Errorf("devis woocommerce_quote_id already imported: %w", shared.ErrValidation)
		}
		return 0, err
	}
	return id, nil
}

var updatableColumns = map[string]struct{}{
	"date_devis": {}, "date_validite": {}, "taux_remise": {}, "remise_montant": {},
	"conditions_paiement": {}, "delai_livraison": {}, "notes": {},
	"montant_ht": {}, "montant_tva": {}, "montant_ttc": {},
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE devis SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for col, v := range updates {
		if _, ok := updatableColumns[col]; !ok {
			return fmt.Errorf("devis: column %q not updatable", col)
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

func (r *repository) UpdateStatut(ctx context.Context, id int64, statut Statut) error {
	tag, err := r.db.Exec(ctx, `UPDATE devis SET statut = $1, updated_at = NOW() WHERE id = $2`, statut, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertLigne(ctx context.Context, l LigneDevis) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO lignes_devis (devis_id, produit_id, designation, description, quantite,
			prix_unitaire_ht, remise_pourcentage, montant_ht, tva_pourcentage, montant_tva,
			montant_ttc, ordre)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, l.DevisID, l.ProduitID, l.Designation, l.Description, l.Quantite,
		l.PrixUnitaireHT, l.RemisePourcentage, l.MontantHT, l.TVAPourcentage, l.MontantTVA,
		l.MontantTTC, l.Ordre).Scan(&id)
	return id, err
}

func (r *repository) DeleteLignes(ctx context.Context, devisID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM lignes_devis WHERE devis_id = $1`, devisID)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM devis WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) lignes(ctx context.Context, devisID int64) ([]LigneDevis, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, devis_id, produit_id, designation, description, quantite, prix_unitaire_ht,
		       remise_pourcentage, montant_ht, tva_pourcentage, montant_tva, montant_ttc, ordre
		FROM lignes_devis WHERE devis_id = $1 ORDER BY ordre, id
	`, devisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LigneDevis
	for rows.Next() {
		var l LigneDevis
		if err := rows.Scan(&l.ID, &l.DevisID, &l.ProduitID, &l.Designation, &l.Description,
			&l.Quantite, &l.PrixUnitaireHT, &l.RemisePourcentage, &l.MontantHT,
			&l.TVAPourcentage, &l.MontantTVA, &l.MontantTTC, &l.Ordre); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanDevis(row pgx.Row) (*Devis, error) {
	var d Devis
	err := row.Scan(&d.ID, &d.NumeroDevis, &d.ClientID, &d.DateDevis, &d.DateValidite, &d.Statut,
		&d.MontantHT, &d.MontantTVA, &d.MontantTTC, &d.TauxRemise, &d.RemiseMontant,
		&d.ConditionsPaiement, &d.DelaiLivraison, &d.Notes, &d.WoocommerceQuoteID,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
