package livraison

import "time"

// CreerDepuisCommandeRequest carries the optional delivery details captured
// when issuing a note from an order.
type CreerDepuisCommandeRequest struct {
	DateLivraison    *time.Time `json:"date_livraison,omitempty"`
	AdresseLivraison *string    `json:"adresse_livraison,omitempty"`
	Transporteur     *string    `json:"transporteur,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

// UpdateQuantitesRequest adjusts delivered quantities before shipment.
type UpdateQuantitesRequest struct {
	Lignes []QuantiteLigneReq `json:"lignes" validate:"required,min=1,dive"`
}

type QuantiteLigneReq struct {
	LigneID        int64   `json:"ligne_id" validate:"required,gt=0"`
	QuantiteLivree float64 `json:"quantite_livree" validate:"gte=0"`
}

type ListBLRequest struct {
	ClientID   *int64     `json:"client_id,omitempty"`
	CommandeID *int64     `json:"commande_id,omitempty"`
	Statut     *Statut    `json:"statut,omitempty"`
	DateFrom   *time.Time `json:"date_from,omitempty"`
	DateTo     *time.Time `json:"date_to,omitempty"`
	Limit      int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int        `json:"offset" validate:"gte=0"`
}

// BLWithClient includes joined display data.
type BLWithClient struct {
	BonLivraison
	RaisonSociale string `json:"raison_sociale" db:"raison_sociale"`
	CodeClient    string `json:"code_client" db:"code_client"`
}
