// Package woocommerce imports remote customers, products and quote requests
// into local records, keyed on their remote ids.
package woocommerce

import "time"

// Config holds the connection settings of the remote shop. It is loaded once
// per sync run and discarded afterwards.
type Config struct {
	ID             int64      `json:"id" db:"id"`
	SiteURL        string     `json:"site_url" db:"site_url"`
	ConsumerKey    string     `json:"consumer_key" db:"consumer_key"`
	ConsumerSecret string     `json:"-" db:"consumer_secret"`
	Actif          bool       `json:"actif" db:"actif"`
	DerniereSync   *time.Time `json:"derniere_sync,omitempty" db:"derniere_sync"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// SyncLog is an append-only record of one sync run.
type SyncLog struct {
	ID        int64     `json:"id" db:"id"`
	TypeSync  string    `json:"type_sync" db:"type_sync"`
	Statut    string    `json:"statut" db:"statut"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const (
	SyncStatutOK    = "success"
	SyncStatutError = "error"
)

// SyncResult counts the records imported by one full run.
type SyncResult struct {
	Customers int `json:"customers"`
	Products  int `json:"products"`
	Orders    int `json:"orders"`
}

// Remote entities, shaped after the wc/v3 REST payloads. Only the consumed
// fields are declared.

type Billing struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type Customer struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Billing   Billing `json:"billing"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Image struct {
	Src string `json:"src"`
}

type Product struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	SKU           string     `json:"sku"`
	Price         string     `json:"price"`
	RegularPrice  string     `json:"regular_price"`
	Description   string     `json:"description"`
	StockQuantity *int       `json:"stock_quantity"`
	Categories    []Category `json:"categories"`
	Images        []Image    `json:"images"`
}

type Attribute struct {
	Name   string `json:"name"`
	Option string `json:"option"`
}

// Variation is one sellable variation of a variable product. The variation
// id, not the parent's, is the reconciliation key.
type Variation struct {
	ID            int64       `json:"id"`
	SKU           string      `json:"sku"`
	Price         string      `json:"price"`
	RegularPrice  string      `json:"regular_price"`
	StockQuantity *int        `json:"stock_quantity"`
	Attributes    []Attribute `json:"attributes"`
	Image         *Image      `json:"image"`
}

type LineItem struct {
	ProductID   int64   `json:"product_id"`
	VariationID int64   `json:"variation_id"`
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Total       string  `json:"total"`
}

type Order struct {
	ID                 int64      `json:"id"`
	Status             string     `json:"status"`
	CustomerID         int64      `json:"customer_id"`
	DateCreated        string     `json:"date_created"`
	Total              string     `json:"total"`
	PaymentMethodTitle string     `json:"payment_method_title"`
	Billing            Billing    `json:"billing"`
	LineItems          []LineItem `json:"line_items"`
}
