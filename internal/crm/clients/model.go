// Package clients manages prospects and confirmed customers.
package clients

import "time"

// Type distinguishes a lead from a confirmed buying customer.
type Type string

const (
	TypeProspect Type = "prospect"
	TypeClient   Type = "client"
)

// Source records how the contact entered the system.
type Source string

const (
	SourceManuel      Source = "manuel"
	SourceTelephone   Source = "telephone"
	SourceEmail       Source = "email"
	SourceVisite      Source = "visite"
	SourceWooCommerce Source = "woocommerce"
)

// Client represents a prospect or customer. WoocommerceID links the record to
// its counterpart on the e-commerce platform and is unique when present.
type Client struct {
	ID                   int64      `json:"id" db:"id"`
	CodeClient           string     `json:"code_client" db:"code_client"`
	Type                 Type       `json:"type" db:"type"`
	RaisonSociale        string     `json:"raison_sociale" db:"raison_sociale"`
	NomContact           *string    `json:"nom_contact,omitempty" db:"nom_contact"`
	Email                *string    `json:"email,omitempty" db:"email"`
	Telephone            *string    `json:"telephone,omitempty" db:"telephone"`
	Mobile               *string    `json:"mobile,omitempty" db:"mobile"`
	Adresse              *string    `json:"adresse,omitempty" db:"adresse"`
	Ville                *string    `json:"ville,omitempty" db:"ville"`
	CodePostal           *string    `json:"code_postal,omitempty" db:"code_postal"`
	ICE                  *string    `json:"ice,omitempty" db:"ice"`
	RC                   *string    `json:"rc,omitempty" db:"rc"`
	Patente              *string    `json:"patente,omitempty" db:"patente"`
	Source               Source     `json:"source" db:"source"`
	WoocommerceID        *int64     `json:"woocommerce_id,omitempty" db:"woocommerce_id"`
	DateDerniereCommande *time.Time `json:"date_derniere_commande,omitempty" db:"date_derniere_commande"`
	Notes                *string    `json:"notes,omitempty" db:"notes"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}
