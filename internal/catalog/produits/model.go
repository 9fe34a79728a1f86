// Package produits manages the product catalog.
package produits

import "time"

// Produit is a catalog entry. WoocommerceID identifies either a simple remote
// product or a single product variation, never the parent of a variable
// product; it is unique when present.
type Produit struct {
	ID              int64     `json:"id" db:"id"`
	CodeProduit     string    `json:"code_produit" db:"code_produit"`
	Designation     string    `json:"designation" db:"designation"`
	Description     *string   `json:"description,omitempty" db:"description"`
	Categorie       *string   `json:"categorie,omitempty" db:"categorie"`
	PrixUnitaireHT  float64   `json:"prix_unitaire_ht" db:"prix_unitaire_ht"`
	Unite           string    `json:"unite" db:"unite"`
	StockDisponible int       `json:"stock_disponible" db:"stock_disponible"`
	StockAlerte     int       `json:"stock_alerte" db:"stock_alerte"`
	WoocommerceID   *int64    `json:"woocommerce_id,omitempty" db:"woocommerce_id"`
	ImageURL        *string   `json:"image_url,omitempty" db:"image_url"`
	Actif           bool      `json:"actif" db:"actif"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
