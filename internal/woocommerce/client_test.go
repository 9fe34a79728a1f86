package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Africamobilier/erp/internal/shared"
)

func testConfig(url string) Config {
	return Config{SiteURL: url + "/", ConsumerKey: "ck_test", ConsumerSecret: "cs_test", Actif: true}
}

func TestClientSendsBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		json.NewEncoder(w).Encode([]Customer{})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.Customers(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ck_test", gotUser)
	require.Equal(t, "cs_test", gotPass)
}

func TestClientPaginatesUntilShortPage(t *testing.T) {
	var pages []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wc/v3/customers", r.URL.Path)
		require.Equal(t, strconv.Itoa(perPage), r.URL.Query().Get("per_page"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pages = append(pages, page)

		count := perPage
		if page == 2 {
			count = 3
		}
		out := make([]Customer, count)
		for i := range out {
			out[i] = Customer{ID: int64((page-1)*perPage + i + 1)}
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	customers, err := c.Customers(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, perPage+3)
	require.Equal(t, []int{1, 2}, pages)
	require.Equal(t, int64(1), customers[0].ID)
	require.Equal(t, int64(perPage+3), customers[perPage+2].ID)
}

func TestClientOrdersFiltersByStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "quote-requested", r.URL.Query().Get("status"))
		json.NewEncoder(w).Encode([]Order{{ID: 7, Status: "quote-requested"}})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	orders, err := c.Orders(context.Background(), "quote-requested")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, int64(7), orders[0].ID)
}

func TestClientVariationsPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wc/v3/products/42/variations", r.URL.Path)
		json.NewEncoder(w).Encode([]Variation{{ID: 421}})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	variations, err := c.Variations(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, variations, 1)
}

func TestClientTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wc/v3/system_status", r.URL.Path)
		w.Write([]byte(`{"environment":{}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	require.NoError(t, c.TestConnection(context.Background()))
}

func TestClientWrapsHTTPFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"woocommerce_rest_cannot_view"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.Customers(context.Background())
	require.ErrorIs(t, err, shared.ErrIntegration)
	require.Contains(t, err.Error(), fmt.Sprint(http.StatusUnauthorized))
}
