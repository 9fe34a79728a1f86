// Package devis manages quotes and their lifecycle.
package devis

import "time"

// Statut enumerates the quote lifecycle.
type Statut string

const (
	StatutBrouillon Statut = "brouillon"
	StatutEnvoye    Statut = "envoyé"
	StatutAccepte   Statut = "accepté"
	StatutRefuse    Statut = "refusé"
	StatutExpire    Statut = "expiré"
	StatutConverti  Statut = "converti"
)

// transitions is the single authoritative lifecycle table. The legacy system
// disagreed with itself on whether a converted quote stayed "accepté"; here
// conversion always lands on "converti".
var transitions = map[Statut][]Statut{
	StatutBrouillon: {StatutEnvoye},
	StatutEnvoye:    {StatutAccepte, StatutRefuse, StatutExpire},
	StatutAccepte:   {StatutConverti},
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

// Devis is a quote. WoocommerceQuoteID reconciles imported quote requests and
// is unique when present.
type Devis struct {
	ID                 int64        `json:"id" db:"id"`
	NumeroDevis        string       `json:"numero_devis" db:"numero_devis"`
	ClientID           int64        `json:"client_id" db:"client_id"`
	DateDevis          time.Time    `json:"date_devis" db:"date_devis"`
	DateValidite       *time.Time   `json:"date_validite,omitempty" db:"date_validite"`
	Statut             Statut       `json:"statut" db:"statut"`
	MontantHT          float64      `json:"montant_ht" db:"montant_ht"`
	MontantTVA         float64      `json:"montant_tva" db:"montant_tva"`
	MontantTTC         float64      `json:"montant_ttc" db:"montant_ttc"`
	TauxRemise         float64      `json:"taux_remise" db:"taux_remise"`
	RemiseMontant      float64      `json:"remise_montant" db:"remise_montant"`
	ConditionsPaiement *string      `json:"conditions_paiement,omitempty" db:"conditions_paiement"`
	DelaiLivraison     *string      `json:"delai_livraison,omitempty" db:"delai_livraison"`
	Notes              *string      `json:"notes,omitempty" db:"notes"`
	WoocommerceQuoteID *int64       `json:"woocommerce_quote_id,omitempty" db:"woocommerce_quote_id"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" db:"updated_at"`
	Lignes             []LigneDevis `json:"lignes,omitempty" db:"-"`
}

// LigneDevis is one line of a quote. Lines are owned exclusively by their
// quote and are fully replaced on edit.
type LigneDevis struct {
	ID                int64   `json:"id" db:"id"`
	DevisID           int64   `json:"devis_id" db:"devis_id"`
	ProduitID         *int64  `json:"produit_id,omitempty" db:"produit_id"`
	Designation       string  `json:"designation" db:"designation"`
	Description       *string `json:"description,omitempty" db:"description"`
	Quantite          float64 `json:"quantite" db:"quantite"`
	PrixUnitaireHT    float64 `json:"prix_unitaire_ht" db:"prix_unitaire_ht"`
	RemisePourcentage float64 `json:"remise_pourcentage" db:"remise_pourcentage"`
	MontantHT         float64 `json:"montant_ht" db:"montant_ht"`
	TVAPourcentage    float64 `json:"tva_pourcentage" db:"tva_pourcentage"`
	MontantTVA        float64 `json:"montant_tva" db:"montant_tva"`
	MontantTTC        float64 `json:"montant_ttc" db:"montant_ttc"`
	Ordre             int     `json:"ordre" db:"ordre"`
}
