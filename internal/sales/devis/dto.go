package devis

import "time"

type CreateDevisRequest struct {
	ClientID           int64            `json:"client_id" validate:"required,gt=0"`
	DateDevis          time.Time        `json:"date_devis" validate:"required"`
	DateValidite       *time.Time       `json:"date_validite,omitempty"`
	TauxRemise         float64          `json:"taux_remise" validate:"gte=0,lte=100"`
	ConditionsPaiement *string          `json:"conditions_paiement,omitempty"`
	DelaiLivraison     *string          `json:"delai_livraison,omitempty"`
	Notes              *string          `json:"notes,omitempty"`
	Lignes             []CreateLigneReq `json:"lignes" validate:"required,min=1,dive"`
}

type CreateLigneReq struct {
	ProduitID         *int64  `json:"produit_id,omitempty"`
	Designation       string  `json:"designation" validate:"required,max=300"`
	Description       *string `json:"description,omitempty"`
	Quantite          float64 `json:"quantite" validate:"required,gt=0"`
	PrixUnitaireHT    float64 `json:"prix_unitaire_ht" validate:"gte=0"`
	RemisePourcentage float64 `json:"remise_pourcentage" validate:"gte=0,lte=100"`
	TVAPourcentage    float64 `json:"tva_pourcentage" validate:"gte=0,lte=100"`
	Ordre             int     `json:"ordre" validate:"gte=0"`
}

type UpdateDevisRequest struct {
	DateDevis          *time.Time        `json:"date_devis,omitempty"`
	DateValidite       *time.Time        `json:"date_validite,omitempty"`
	TauxRemise         *float64          `json:"taux_remise,omitempty" validate:"omitempty,gte=0,lte=100"`
	ConditionsPaiement *string           `json:"conditions_paiement,omitempty"`
	DelaiLivraison     *string           `json:"delai_livraison,omitempty"`
	Notes              *string           `json:"notes,omitempty"`
	Lignes             *[]CreateLigneReq `json:"lignes,omitempty" validate:"omitempty,min=1,dive"`
}

type ListDevisRequest struct {
	ClientID *int64     `json:"client_id,omitempty"`
	Statut   *Statut    `json:"statut,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Limit    int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int        `json:"offset" validate:"gte=0"`
}

// DevisWithClient includes joined display data.
type DevisWithClient struct {
	Devis
	RaisonSociale string `json:"raison_sociale" db:"raison_sociale"`
	CodeClient    string `json:"code_client" db:"code_client"`
}
