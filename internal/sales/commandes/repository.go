package commandes

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

// Repository provides persistence for orders and their lines. The two
// cross-table statements (MarquerDevisConverti, PromouvoirProspect) exist so
// quote conversion commits as one transaction through WithTx.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Commande, error)
	List(ctx context.Context, req ListCommandesRequest) ([]CommandeWithClient, int, error)
	Create(ctx context.Context, c Commande) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatut(ctx context.Context, id int64, statut Statut) error
	InsertLigne(ctx context.Context, l LigneCommande) (int64, error)
	DeleteLignes(ctx context.Context, commandeID int64) error
	Delete(ctx context.Context, id int64) error
	MarquerDevisConverti(ctx context.Context, devisID int64) error
	PromouvoirProspect(ctx context.Context, clientID int64) error
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

const commandeColumns = `id, numero_commande, devis_id, client_id, date_commande, date_livraison_prevue,
	statut, montant_ht, montant_tva, montant_ttc, taux_remise, remise_montant,
	conditions_paiement, notes, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Commande, error) {
	c, err := scanCommande(r.db.QueryRow(ctx, `SELECT `+commandeColumns+` FROM commandes WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	c.Lignes, err = r.lignes(ctx, c.ID)
	return c, err
}

func (r *repository) List(ctx context.Context, req ListCommandesRequest) ([]CommandeWithClient, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("co.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Statut != nil {
		conditions = append(conditions, fmt.Sprintf("co.statut = $%d", argPos))
		args = append(args, *req.Statut)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("co.date_commande >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("co.date_commande <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM commandes co "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT co.id, co.numero_commande, co.devis_id, co.client_id, co.date_commande,
		       co.date_livraison_prevue, co.statut, co.montant_ht, co.montant_tva, co.montant_ttc,
		       co.taux_remise, co.remise_montant, co.conditions_paiement, co.notes,
		       co.created_at, co.updated_at,
		       c.raison_sociale, c.code_client
		FROM commandes co
		JOIN clients c ON co.client_id = c.id
		%s
		ORDER BY co.date_commande DESC, co.id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []CommandeWithClient
	for rows.Next() {
		var c CommandeWithClient
		if err := rows.Scan(&c.ID, &c.NumeroCommande, &c.DevisID, &c.ClientID, &c.DateCommande,
			&c.DateLivraisonPrevue, &c.Statut, &c.MontantHT, &c.MontantTVA, &c.MontantTTC,
			&c.TauxRemise, &c.RemiseMontant, &c.ConditionsPaiement, &c.Notes,
			&c.CreatedAt, &c.UpdatedAt, &c.RaisonSociale, &c.CodeClient); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Commande) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO commandes (numero_commande, devis_id, client_id, date_commande,
			date_livraison_prevue, statut, montant_ht, montant_tva, montant_ttc,
			taux_remise, remise_montant, conditions_paiement, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, c.NumeroCommande, c.DevisID, c.ClientID, c.DateCommande,
		c.DateLivraisonPrevue, c.Statut, c.MontantHT, c.MontantTVA, c.MontantTTC,
		c.TauxRemise, c.RemiseMontant, c.ConditionsPaiement, c.Notes).Scan(&id)
	return id, err
}

var updatableColumns = map[string]struct{}{
	"date_commande": {}, "date_livraison_prevue": {}, "taux_remise": {}, "remise_montant": {},
	"conditions_paiement": {}, "notes": {},
	"montant_ht": {}, "montant_tva": {}, "montant_ttc": {},
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE commandes SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for col, v := range updates {
		if _, ok := updatableColumns[col]; !ok {
			return fmt.Errorf("commandes: column %q not updatable", col)
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
	tag, err := r.db.Exec(ctx, `UPDATE commandes SET statut = $1, updated_at = NOW() WHERE id = $2`, statut, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertLigne(ctx context.Context, l LigneCommande) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO lignes_commandes (commande_id, produit_id, designation, description, quantite,
			prix_unitaire_ht, remise_pourcentage, montant_ht, tva_pourcentage, montant_tva,
			montant_ttc, ordre)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, l.CommandeID, l.ProduitID, l.Designation, l.Description, l.Quantite,
		l.PrixUnitaireHT, l.RemisePourcentage, l.MontantHT, l.TVAPourcentage, l.MontantTVA,
		l.MontantTTC, l.Ordre).Scan(&id)
	return id, err
}

func (r *repository) DeleteLignes(ctx context.Context, commandeID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM lignes_commandes WHERE commande_id = $1`, commandeID)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM commandes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarquerDevisConverti flips the source quote to "converti". The status guard
// in the WHERE clause makes the conversion fail if another request already
// converted the quote.
func (r *repository) MarquerDevisConverti(ctx context.Context, devisID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE devis SET statut = 'converti', updated_at = NOW() WHERE id = $1 AND statut = 'accepté'`,
		devisID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("devis %d non accepté ou déjà converti: %w", devisID, shared.ErrInvalidStatus)
	}
	return nil
}

// PromouvoirProspect turns a prospect into a client and stamps the last-order
// date. A no-op for clients already promoted.
func (r *repository) PromouvoirProspect(ctx context.Context, clientID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE clients
		SET type = 'client', date_derniere_commande = NOW(), updated_at = NOW()
		WHERE id = $1 AND type = 'prospect'
	`, clientID)
	return err
}

func (r *repository) lignes(ctx context.Context, commandeID int64) ([]LigneCommande, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, commande_id, produit_id, designation, description, quantite, prix_unitaire_ht,
		       remise_pourcentage, montant_ht, tva_pourcentage, montant_tva, montant_ttc, ordre
		FROM lignes_commandes WHERE commande_id = $1 ORDER BY ordre, id
	`, commandeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LigneCommande
	for rows.Next() {
		var l LigneCommande
		if err := rows.Scan(&l.ID, &l.CommandeID, &l.ProduitID, &l.Designation, &l.Description,
			&l.Quantite, &l.PrixUnitaireHT, &l.RemisePourcentage, &l.MontantHT,
			&l.TVAPourcentage, &l.MontantTVA, &l.MontantTTC, &l.Ordre); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanCommande(row pgx.Row) (*Commande, error) {
	var c Commande
	err := row.Scan(&c.ID, &c.NumeroCommande, &c.DevisID, &c.ClientID, &c.DateCommande,
		&c.DateLivraisonPrevue, &c.Statut, &c.MontantHT, &c.MontantTVA, &c.MontantTTC,
		&c.TauxRemise, &c.RemiseMontant, &c.ConditionsPaiement, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
