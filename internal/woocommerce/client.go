package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Africamobilier/erp/internal/shared"
)

const perPage = 100

// API is the remote surface consumed by the sync engine.
type API interface {
	Customers(ctx context.Context) ([]Customer, error)
	Products(ctx context.Context) ([]Product, error)
	Variations(ctx context.Context, productID int64) ([]Variation, error)
	Orders(ctx context.Context, status string) ([]Order, error)
	TestConnection(ctx context.Context) error
}

// Client talks to the wc/v3 REST API with Basic auth and page-walks every
// collection.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	secret     string
}

// NewClient builds an API client from the stored config.
func NewClient(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(cfg.SiteURL, "/"),
		key:        cfg.ConsumerKey,
		secret:     cfg.ConsumerSecret,
	}
}

func (c *Client) Customers(ctx context.Context) ([]Customer, error) {
	var out []Customer
	err := c.paginate(ctx, "/wp-json/wc/v3/customers", nil, func(data []byte) (int, error) {
		var page []Customer
		if err := json.Unmarshal(data, &page); err != nil {
			return 0, err
		}
		out = append(out, page...)
		return len(page), nil
	})
	return out, err
}

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var out []Product
	err := c.paginate(ctx, "/wp-json/wc/v3/products", nil, func(data []byte) (int, error) {
		var page []Product
		if err := json.Unmarshal(data, &page); err != nil {
			return 0, err
		}
		out = append(out, page...)
		return len(page), nil
	})
	return out, err
}

func (c *Client) Variations(ctx context.Context, productID int64) ([]Variation, error) {
	var out []Variation
	path := fmt.Sprintf("/wp-json/wc/v3/products/%d/variations", productID)
	err := c.paginate(ctx, path, nil, func(data []byte) (int, error) {
		var page []Variation
		if err := json.Unmarshal(data, &page); err != nil {
			return 0, err
		}
		out = append(out, page...)
		return len(page), nil
	})
	return out, err
}

func (c *Client) Orders(ctx context.Context, status string) ([]Order, error) {
	var out []Order
	query := url.Values{"status": {status}}
	err := c.paginate(ctx, "/wp-json/wc/v3/orders", query, func(data []byte) (int, error) {
		var page []Order
		if err := json.Unmarshal(data, &page); err != nil {
			return 0, err
		}
		out = append(out, page...)
		return len(page), nil
	})
	return out, err
}

// paginate walks pages until a short one, handing each raw body to consume.
func (c *Client) paginate(ctx context.Context, path string, query url.Values, consume func([]byte) (int, error)) error {
	for page := 1; ; page++ {
		q := url.Values{}
		for k, vs := range query {
			q[k] = vs
		}
		q.Set("per_page", strconv.Itoa(perPage))
		q.Set("page", strconv.Itoa(page))

		data, err := c.get(ctx, path+"?"+q.Encode())
		if err != nil {
			return err
		}
		n, err := consume(data)
		if err != nil {
			return fmt.Errorf("woocommerce: decode %s: %w", path, err)
		}
		if n < perPage {
			return nil
		}
	}
}

// TestConnection checks the stored credentials against the system status
// route without touching any collection.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.get(ctx, "/wp-json/wc/v3/system_status")
	return err
}

func (c *Client) get(ctx context.Context, pathAndQuery string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.key, c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: %s: %w: %w", pathAndQuery, shared.ErrIntegration, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: read %s: %w", pathAndQuery, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("woocommerce: %s: statut HTTP %d: %w", pathAndQuery, resp.StatusCode, shared.ErrIntegration)
	}
	return body, nil
}
