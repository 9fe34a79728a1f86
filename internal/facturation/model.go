// Package facturation manages invoices and their payments.
package facturation

import "time"

// Statut enumerates the invoice lifecycle. The payment statuses (payée,
// partiellement_payée) are derived atomically by payment registration, not
// set by direct status calls.
type Statut string

const (
	StatutBrouillon           Statut = "brouillon"
	StatutEmise               Statut = "émise"
	StatutPayee               Statut = "payée"
	StatutPartiellementPayee  Statut = "partiellement_payée"
	StatutEnRetard            Statut = "en_retard"
	StatutAnnulee             Statut = "annulée"
)

// transitions covers the manually reachable statuses only.
var transitions = map[Statut][]Statut{
	StatutBrouillon:          {StatutEmise, StatutAnnulee},
	StatutEmise:              {StatutEnRetard, StatutAnnulee},
	StatutPartiellementPayee: {StatutEnRetard},
	StatutEnRetard:           {StatutAnnulee},
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

// payableStatuts are the statuses accepting a payment.
var payableStatuts = map[Statut]bool{
	StatutEmise:              true,
	StatutPartiellementPayee: true,
	StatutEnRetard:           true,
}

// IsPayable reports whether a payment may be registered against s.
func (s Statut) IsPayable() bool {
	return payableStatuts[s]
}

// Facture is an invoice. Invariant: SoldeRestant = MontantTTC - MontantPaye,
// never negative, maintained atomically with every payment.
type Facture struct {
	ID                 int64          `json:"id" db:"id"`
	NumeroFacture      string         `json:"numero_facture" db:"numero_facture"`
	CommandeID         *int64         `json:"commande_id,omitempty" db:"commande_id"`
	BLID               *int64         `json:"bl_id,omitempty" db:"bl_id"`
	ClientID           int64          `json:"client_id" db:"client_id"`
	DateFacture        time.Time      `json:"date_facture" db:"date_facture"`
	DateEcheance       time.Time      `json:"date_echeance" db:"date_echeance"`
	Statut             Statut         `json:"statut" db:"statut"`
	MontantHT          float64        `json:"montant_ht" db:"montant_ht"`
	MontantTVA         float64        `json:"montant_tva" db:"montant_tva"`
	MontantTTC         float64        `json:"montant_ttc" db:"montant_ttc"`
	MontantPaye        float64        `json:"montant_paye" db:"montant_paye"`
	SoldeRestant       float64        `json:"solde_restant" db:"solde_restant"`
	ConditionsPaiement *string        `json:"conditions_paiement,omitempty" db:"conditions_paiement"`
	Notes              *string        `json:"notes,omitempty" db:"notes"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
	Lignes             []LigneFacture `json:"lignes,omitempty" db:"-"`
	Paiements          []Paiement     `json:"paiements,omitempty" db:"-"`
}

// LigneFacture is one line of an invoice.
type LigneFacture struct {
	ID                int64   `json:"id" db:"id"`
	FactureID         int64   `json:"facture_id" db:"facture_id"`
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

// ModePaiement enumerates the manual payment channels.
type ModePaiement string

const (
	ModeVirement ModePaiement = "virement"
	ModeCheque   ModePaiement = "chèque"
	ModeEspeces  ModePaiement = "espèces"
	ModeCarte    ModePaiement = "carte"
)

// Paiement is immutable once created.
type Paiement struct {
	ID            int64        `json:"id" db:"id"`
	FactureID     int64        `json:"facture_id" db:"facture_id"`
	Montant       float64      `json:"montant" db:"montant"`
	DatePaiement  time.Time    `json:"date_paiement" db:"date_paiement"`
	ModePaiement  ModePaiement `json:"mode_paiement" db:"mode_paiement"`
	Reference     *string      `json:"reference,omitempty" db:"reference"`
	Notes         *string      `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}
