package facturation

import "time"

// CreerDepuisBLRequest carries optional overrides when invoicing a delivered
// note.
type CreerDepuisBLRequest struct {
	DateFacture  *time.Time `json:"date_facture,omitempty"`
	DateEcheance *time.Time `json:"date_echeance,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

// PaiementRequest registers one payment against an invoice.
type PaiementRequest struct {
	Montant      float64      `json:"montant" validate:"required,gt=0"`
	DatePaiement *time.Time   `json:"date_paiement,omitempty"`
	ModePaiement ModePaiement `json:"mode_paiement" validate:"required,oneof=virement chèque espèces carte"`
	Reference    *string      `json:"reference,omitempty"`
	Notes        *string      `json:"notes,omitempty"`
}

type ListFacturesRequest struct {
	ClientID *int64     `json:"client_id,omitempty"`
	Statut   *Statut    `json:"statut,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Limit    int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int        `json:"offset" validate:"gte=0"`
}

// FactureWithClient includes joined display data.
type FactureWithClient struct {
	Facture
	RaisonSociale string `json:"raison_sociale" db:"raison_sociale"`
	CodeClient    string `json:"code_client" db:"code_client"`
}
