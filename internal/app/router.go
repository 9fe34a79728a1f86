package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Africamobilier/erp/internal/audit"
	"github.com/Africamobilier/erp/internal/catalog/produits"
	"github.com/Africamobilier/erp/internal/crm/clients"
	"github.com/Africamobilier/erp/internal/facturation"
	"github.com/Africamobilier/erp/internal/livraison"
	"github.com/Africamobilier/erp/internal/sales/commandes"
	"github.com/Africamobilier/erp/internal/sales/devis"
	"github.com/Africamobilier/erp/internal/users"
	"github.com/Africamobilier/erp/internal/woocommerce"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	Authenticator Authenticator

	ClientsHandler     *clients.Handler
	ProduitsHandler    *produits.Handler
	DevisHandler       *devis.Handler
	CommandesHandler   *commandes.Handler
	LivraisonHandler   *livraison.Handler
	FacturationHandler *facturation.Handler
	WoocommerceHandler *woocommerce.Handler
	UsersHandler       *users.Handler
	AuditHandler       *audit.Handler
}

// NewRouter constructs the chi.Router serving the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(params.Logger, params.Authenticator))

		r.Route("/clients", params.ClientsHandler.MountRoutes)
		r.Route("/produits", params.ProduitsHandler.MountRoutes)
		r.Route("/devis", params.DevisHandler.MountRoutes)
		r.Route("/commandes", params.CommandesHandler.MountRoutes)
		r.Route("/bons-livraison", params.LivraisonHandler.MountRoutes)
		r.Route("/factures", params.FacturationHandler.MountRoutes)
		r.Route("/woocommerce", params.WoocommerceHandler.MountRoutes)
		r.Route("/utilisateurs", params.UsersHandler.MountRoutes)
		r.Route("/audit", params.AuditHandler.MountRoutes)
	})

	return r
}
