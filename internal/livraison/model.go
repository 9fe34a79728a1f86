// Package livraison manages delivery notes issued from confirmed orders.
package livraison

import "time"

// Statut enumerates the delivery note lifecycle.
type Statut string

const (
	StatutPrepare  Statut = "préparé"
	StatutExpedie  Statut = "expédié"
	StatutLivre    Statut = "livré"
	StatutRetourne Statut = "retourné"
	StatutFacture  Statut = "facturé"
)

// transitions is the authoritative lifecycle table. "facturé" is only reached
// through invoicing, never by a direct status call.
var transitions = map[Statut][]Statut{
	StatutPrepare: {StatutExpedie},
	StatutExpedie: {StatutLivre},
	StatutLivre:   {StatutRetourne},
}

// CanTransition reports whether moving from s to target is allowed.
func (s Statut) CanTransition(target Statut) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition exists from s.
func (s Statut) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// BonLivraison is a delivery note. CommandeID links back to the order the
// note was issued from.
type BonLivraison struct {
	ID               int64     `json:"id" db:"id"`
	NumeroBL         string    `json:"numero_bl" db:"numero_bl"`
	CommandeID       *int64    `json:"commande_id,omitempty" db:"commande_id"`
	ClientID         int64     `json:"client_id" db:"client_id"`
	DateLivraison    time.Time `json:"date_livraison" db:"date_livraison"`
	Statut           Statut    `json:"statut" db:"statut"`
	AdresseLivraison *string   `json:"adresse_livraison,omitempty" db:"adresse_livraison"`
	Transporteur     *string   `json:"transporteur,omitempty" db:"transporteur"`
	Notes            *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
	Lignes           []LigneBL `json:"lignes,omitempty" db:"-"`
}

// LigneBL is one line of a delivery note. Ordered and delivered quantities
// may diverge on partial deliveries.
type LigneBL struct {
	ID                int64   `json:"id" db:"id"`
	BLID              int64   `json:"bl_id" db:"bl_id"`
	ProduitID         *int64  `json:"produit_id,omitempty" db:"produit_id"`
	Designation       string  `json:"designation" db:"designation"`
	QuantiteCommandee float64 `json:"quantite_commandee" db:"quantite_commandee"`
	QuantiteLivree    float64 `json:"quantite_livree" db:"quantite_livree"`
	Ordre             int     `json:"ordre" db:"ordre"`
}
