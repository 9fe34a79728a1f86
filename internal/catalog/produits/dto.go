package produits

type CreateProduitRequest struct {
	CodeProduit     string  `json:"code_produit" validate:"required,max=50"`
	Designation     string  `json:"designation" validate:"required,max=300"`
	Description     *string `json:"description,omitempty"`
	Categorie       *string `json:"categorie,omitempty" validate:"omitempty,max=100"`
	PrixUnitaireHT  float64 `json:"prix_unitaire_ht" validate:"gte=0"`
	Unite           string  `json:"unite" validate:"required,max=20"`
	StockDisponible int     `json:"stock_disponible" validate:"gte=0"`
	StockAlerte     int     `json:"stock_alerte" validate:"gte=0"`
}

type UpdateProduitRequest struct {
	Designation     *string  `json:"designation,omitempty" validate:"omitempty,max=300"`
	Description     *string  `json:"description,omitempty"`
	Categorie       *string  `json:"categorie,omitempty" validate:"omitempty,max=100"`
	PrixUnitaireHT  *float64 `json:"prix_unitaire_ht,omitempty" validate:"omitempty,gte=0"`
	Unite           *string  `json:"unite,omitempty" validate:"omitempty,max=20"`
	StockDisponible *int     `json:"stock_disponible,omitempty" validate:"omitempty,gte=0"`
	StockAlerte     *int     `json:"stock_alerte,omitempty" validate:"omitempty,gte=0"`
	Actif           *bool    `json:"actif,omitempty"`
}

type ListProduitsRequest struct {
	Categorie   *string `json:"categorie,omitempty"`
	Actif       *bool   `json:"actif,omitempty"`
	Search      *string `json:"search,omitempty"`
	StockFaible bool    `json:"stock_faible,omitempty"`
	Limit       int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset      int     `json:"offset" validate:"gte=0"`
}

// UpsertExterneRequest carries the fields updated by the WooCommerce sync for
// one remote product or one product variation, keyed on WoocommerceID.
type UpsertExterneRequest struct {
	WoocommerceID   int64
	CodeProduit     string
	Designation     string
	Description     *string
	Categorie       *string
	PrixUnitaireHT  float64
	StockDisponible int
	ImageURL        *string
}
