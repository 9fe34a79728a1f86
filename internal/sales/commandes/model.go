// Package commandes manages sales orders, created manually or by converting
// an accepted quote.
package commandes

import "time"

// Statut enumerates the order lifecycle.
type Statut string

const (
	StatutEnAttente    Statut = "en_attente"
	StatutConfirmee    Statut = "confirmée"
	StatutEnProduction Statut = "en_production"
	StatutPrete        Statut = "prête"
	StatutEnLivraison  Statut = "en_livraison"
	StatutLivree       Statut = "livrée"
	StatutAnnulee      Statut = "annulée"
)

// transitions is the authoritative lifecycle table. The legacy system mixed
// "livrée" and "en_livraison" when a delivery note was issued; here the note
// moves the order to "en_livraison" and only invoicing closes it as "livrée".
// A delivery note may be issued from confirmée, en_production or prête, so
// each of those reaches en_livraison directly. Cancellation is allowed from
// any non-terminal status.
var transitions = map[Statut][]Statut{
	StatutEnAttente:    {StatutConfirmee, StatutAnnulee},
	StatutConfirmee:    {StatutEnProduction, StatutPrete, StatutEnLivraison, StatutAnnulee},
	StatutEnProduction: {StatutPrete, StatutEnLivraison, StatutAnnulee},
	StatutPrete:        {StatutEnLivraison, StatutAnnulee},
	StatutEnLivraison:  {StatutLivree, StatutAnnulee},
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

// livrableStatuts are the statuses from which a delivery note may be issued.
var livrableStatuts = map[Statut]bool{
	StatutConfirmee:    true,
	StatutEnProduction: true,
	StatutPrete:        true,
}

// CanCreerBL reports whether a delivery note may be created from s.
func (s Statut) CanCreerBL() bool {
	return livrableStatuts[s]
}

// Commande is a sales order. DevisID back-references the originating quote
// when the order came from a conversion.
type Commande struct {
	ID                  int64           `json:"id" db:"id"`
	NumeroCommande      string          `json:"numero_commande" db:"numero_commande"`
	DevisID             *int64          `json:"devis_id,omitempty" db:"devis_id"`
	ClientID            int64           `json:"client_id" db:"client_id"`
	DateCommande        time.Time       `json:"date_commande" db:"date_commande"`
	DateLivraisonPrevue *time.Time      `json:"date_livraison_prevue,omitempty" db:"date_livraison_prevue"`
	Statut              Statut          `json:"statut" db:"statut"`
	MontantHT           float64         `json:"montant_ht" db:"montant_ht"`
	MontantTVA          float64         `json:"montant_tva" db:"montant_tva"`
	MontantTTC          float64         `json:"montant_ttc" db:"montant_ttc"`
	TauxRemise          float64         `json:"taux_remise" db:"taux_remise"`
	RemiseMontant       float64         `json:"remise_montant" db:"remise_montant"`
	ConditionsPaiement  *string         `json:"conditions_paiement,omitempty" db:"conditions_paiement"`
	Notes               *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
	Lignes              []LigneCommande `json:"lignes,omitempty" db:"-"`
}

// LigneCommande is one line of an order.
type LigneCommande struct {
	ID                int64   `json:"id" db:"id"`
	CommandeID        int64   `json:"commande_id" db:"commande_id"`
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
