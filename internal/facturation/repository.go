package facturation

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

// Repository provides persistence for invoices and payments. ApplyPaiement is
// a compare-and-set update so two concurrent payments can never overdraw the
// balance; the cross-table statements let invoicing commit as one
// transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Facture, error)
	List(ctx context.Context, req ListFacturesRequest) ([]FactureWithClient, int, error)
	Create(ctx context.Context, f Facture) (int64, error)
	UpdateStatut(ctx context.Context, id int64, statut Statut) error
	InsertLigne(ctx context.Context, l LigneFacture) (int64, error)
	InsertPaiement(ctx context.Context, p Paiement) (int64, error)
	ApplyPaiement(ctx context.Context, factureID int64, montant float64) (Statut, error)
	Paiements(ctx context.Context, factureID int64) ([]Paiement, error)
	MarquerEnRetard(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
	UpdateBLStatut(ctx context.Context, blID int64, statut string) error
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

const factureColumns = `id, numero_facture, commande_id, bl_id, client_id, date_facture, date_echeance,
	statut, montant_ht, montant_tva, montant_ttc, montant_paye, solde_restant,
	conditions_paiement, notes, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Facture, error) {
	f, err := scanFacture(r.db.QueryRow(ctx, `SELECT `+factureColumns+` FROM factures WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if f.Lignes, err = r.lignes(ctx, f.ID); err != nil {
		return nil, err
	}
	f.Paiements, err = r.Paiements(ctx, f.ID)
	return f, err
}

func (r *repository) List(ctx context.Context, req ListFacturesRequest) ([]FactureWithClient, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("f.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Statut != nil {
		conditions = append(conditions, fmt.Sprintf("f.statut = $%d", argPos))
		args = append(args, *req.Statut)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("f.date_facture >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("f.date_facture <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM factures f "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT f.id, f.numero_facture, f.commande_id, f.bl_id, f.client_id, f.date_facture,
		       f.date_echeance, f.statut, f.montant_ht, f.montant_tva, f.montant_ttc,
		       f.montant_paye, f.solde_restant, f.conditions_paiement, f.notes,
		       f.created_at, f.updated_at,
		       c.raison_sociale, c.code_client
		FROM factures f
		JOIN clients c ON f.client_id = c.id
		%s
		ORDER BY f.date_facture DESC, f.id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []FactureWithClient
	for rows.Next() {
		var f FactureWithClient
		if err := rows.Scan(&f.ID, &f.NumeroFacture, &f.CommandeID, &f.BLID, &f.ClientID,
			&f.DateFacture, &f.DateEcheance, &f.Statut, &f.MontantHT, &f.MontantTVA, &f.MontantTTC,
			&f.MontantPaye, &f.SoldeRestant, &f.ConditionsPaiement, &f.Notes,
			&f.CreatedAt, &f.UpdatedAt, &f.RaisonSociale, &f.CodeClient); err != nil {
			return nil, 0, err
		}
		out = append(out, f)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, f Facture) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO factures (numero_facture, commande_id, bl_id, client_id, date_facture,
			date_echeance, statut, montant_ht, montant_tva, montant_ttc, montant_paye,
			solde_restant, conditions_paiement, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, f.NumeroFacture, f.CommandeID, f.BLID, f.ClientID, f.DateFacture,
		f.DateEcheance, f.Statut, f.MontantHT, f.MontantTVA, f.MontantTTC, f.MontantPaye,
		f.SoldeRestant, f.ConditionsPaiement, f.Notes).Scan(&id)
	return id, err
}

func (r *repository) UpdateStatut(ctx context.Context, id int64, statut Statut) error {
	tag, err := r.db.Exec(ctx, `UPDATE factures SET statut = $1, updated_at = NOW() WHERE id = $2`, statut, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertLigne(ctx context.Context, l LigneFacture) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO lignes_factures (facture_id, produit_id, designation, description, quantite,
			prix_unitaire_ht, remise_pourcentage, montant_ht, tva_pourcentage, montant_tva,
			montant_ttc, ordre)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, l.FactureID, l.ProduitID, l.Designation, l.Description, l.Quantite,
		l.PrixUnitaireHT, l.RemisePourcentage, l.MontantHT, l.TVAPourcentage, l.MontantTVA,
		l.MontantTTC, l.Ordre).Scan(&id)
	return id, err
}

func (r *repository) InsertPaiement(ctx context.Context, p Paiement) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO paiements (facture_id, montant, date_paiement, mode_paiement, reference, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, p.FactureID, p.Montant, p.DatePaiement, p.ModePaiement, p.Reference, p.Notes).Scan(&id)
	return id, err
}

// ApplyPaiement adds montant to the paid total and rederives balance and
// status in one statement. The WHERE clause rejects the update when the
// invoice is not payable or the amount exceeds the remaining balance, so two
// racing payments cannot both pass the check.
func (r *repository) ApplyPaiement(ctx context.Context, factureID int64, montant float64) (Statut, error) {
	var statut Statut
	err := r.db.QueryRow(ctx, `
		UPDATE factures
		SET montant_paye = montant_paye + $1,
		    solde_restant = montant_ttc - (montant_paye + $1),
		    statut = CASE WHEN montant_ttc - (montant_paye + $1) <= 0.005
		                  THEN 'payée' ELSE 'partiellement_payée' END,
		    updated_at = NOW()
		WHERE id = $2
		  AND statut IN ('émise', 'partiellement_payée', 'en_retard')
		  AND montant_ttc - montant_paye >= $1 - 0.005
		RETURNING statut
	`, montant, factureID).Scan(&statut)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("paiement refusé (solde insuffisant ou facture non payable): %w", shared.ErrValidation)
	}
	return statut, err
}

func (r *repository) Paiements(ctx context.Context, factureID int64) ([]Paiement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, facture_id, montant, date_paiement, mode_paiement, reference, notes, created_at
		FROM paiements WHERE facture_id = $1 ORDER BY date_paiement, id
	`, factureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Paiement
	for rows.Next() {
		var p Paiement
		if err := rows.Scan(&p.ID, &p.FactureID, &p.Montant, &p.DatePaiement,
			&p.ModePaiement, &p.Reference, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarquerEnRetard flips every overdue open invoice to "en_retard" and
// returns the count. Run periodically by the worker.
func (r *repository) MarquerEnRetard(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE factures
		SET statut = 'en_retard', updated_at = NOW()
		WHERE statut IN ('émise', 'partiellement_payée') AND date_echeance < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM lignes_factures WHERE facture_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM factures WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateBLStatut moves the source delivery note during invoicing, inside the
// same transaction as the invoice itself.
func (r *repository) UpdateBLStatut(ctx context.Context, blID int64, statut string) error {
	tag, err := r.db.Exec(ctx, `UPDATE bons_livraison SET statut = $1, updated_at = NOW() WHERE id = $2`, statut, blID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateCommandeStatut closes the originating order during invoicing.
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

func (r *repository) lignes(ctx context.Context, factureID int64) ([]LigneFacture, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, facture_id, produit_id, designation, description, quantite, prix_unitaire_ht,
		       remise_pourcentage, montant_ht, tva_pourcentage, montant_tva, montant_ttc, ordre
		FROM lignes_factures WHERE facture_id = $1 ORDER BY ordre, id
	`, factureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LigneFacture
	for rows.Next() {
		var l LigneFacture
		if err := rows.Scan(&l.ID, &l.FactureID, &l.ProduitID, &l.Designation, &l.Description,
			&l.Quantite, &l.PrixUnitaireHT, &l.RemisePourcentage, &l.MontantHT,
			&l.TVAPourcentage, &l.MontantTVA, &l.MontantTTC, &l.Ordre); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanFacture(row pgx.Row) (*Facture, error) {
	var f Facture
	err := row.Scan(&f.ID, &f.NumeroFacture, &f.CommandeID, &f.BLID, &f.ClientID,
		&f.DateFacture, &f.DateEcheance, &f.Statut, &f.MontantHT, &f.MontantTVA, &f.MontantTTC,
		&f.MontantPaye, &f.SoldeRestant, &f.ConditionsPaiement, &f.Notes,
		&f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
