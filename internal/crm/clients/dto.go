package clients

type CreateClientRequest struct {
	Type          Type    `json:"type" validate:"required,oneof=prospect client"`
	RaisonSociale string  `json:"raison_sociale" validate:"required,max=200"`
	NomContact    *string `json:"nom_contact,omitempty" validate:"omitempty,max=200"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Telephone     *string `json:"telephone,omitempty" validate:"omitempty,max=50"`
	Mobile        *string `json:"mobile,omitempty" validate:"omitempty,max=50"`
	Adresse       *string `json:"adresse,omitempty" validate:"omitempty,max=500"`
	Ville         *string `json:"ville,omitempty" validate:"omitempty,max=100"`
	CodePostal    *string `json:"code_postal,omitempty" validate:"omitempty,max=20"`
	ICE           *string `json:"ice,omitempty" validate:"omitempty,max=50"`
	RC            *string `json:"rc,omitempty" validate:"omitempty,max=50"`
	Patente       *string `json:"patente,omitempty" validate:"omitempty,max=50"`
	Source        Source  `json:"source" validate:"required,oneof=manuel telephone email visite woocommerce"`
	Notes         *string `json:"notes,omitempty"`
}

type UpdateClientRequest struct {
	RaisonSociale *string `json:"raison_sociale,omitempty" validate:"omitempty,max=200"`
	NomContact    *string `json:"nom_contact,omitempty" validate:"omitempty,max=200"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Telephone     *string `json:"telephone,omitempty" validate:"omitempty,max=50"`
	Mobile        *string `json:"mobile,omitempty" validate:"omitempty,max=50"`
	Adresse       *string `json:"adresse,omitempty" validate:"omitempty,max=500"`
	Ville         *string `json:"ville,omitempty" validate:"omitempty,max=100"`
	CodePostal    *string `json:"code_postal,omitempty" validate:"omitempty,max=20"`
	ICE           *string `json:"ice,omitempty" validate:"omitempty,max=50"`
	RC            *string `json:"rc,omitempty" validate:"omitempty,max=50"`
	Patente       *string `json:"patente,omitempty" validate:"omitempty,max=50"`
	Notes         *string `json:"notes,omitempty"`
}

type ListClientsRequest struct {
	Type   *Type   `json:"type,omitempty"`
	Source *Source `json:"source,omitempty"`
	Search *string `json:"search,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset int     `json:"offset" validate:"gte=0"`
}

// UpsertExterneRequest carries the fields updated by the WooCommerce sync.
// Reconciliation is keyed on WoocommerceID.
type UpsertExterneRequest struct {
	WoocommerceID int64
	RaisonSociale string
	NomContact    *string
	Email         *string
	Telephone     *string
	Adresse       *string
	Ville         *string
	CodePostal    *string
}
