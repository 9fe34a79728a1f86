package woocommerce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Africamobilier/erp/internal/crm/clients"
	"github.com/Africamobilier/erp/internal/catalog/produits"
	"github.com/Africamobilier/erp/internal/numbering"
	"github.com/Africamobilier/erp/internal/sales/devis"
	calc "github.com/Africamobilier/erp/internal/sales/shared"
	"github.com/Africamobilier/erp/internal/shared"
)

// orderStatuses are the remote order states imported as quotes: quote
// requests plus orders awaiting payment or review.
var orderStatuses = []string{"pending", "quote-requested", "on-hold"}

// validiteJours is the validity window stamped on imported quotes.
const validiteJours = 30

// Service reconciles remote customers, products and orders into local
// records. Runs against one config are serialized through a redis lock.
type Service struct {
	logger      *slog.Logger
	configs     ConfigRepository
	syncLogs    SyncLogRepository
	clientRepo  clients.Repository
	produitRepo produits.Repository
	devisRepo   devis.Repository
	numbers     numbering.Allocator
	redis       *redis.Client
	newAPI      func(Config) API
	lockTTL     time.Duration
}

func NewService(logger *slog.Logger, configs ConfigRepository, syncLogs SyncLogRepository, clientRepo clients.Repository, produitRepo produits.Repository, devisRepo devis.Repository, numbers numbering.Allocator, rdb *redis.Client) *Service {
	return &Service{
		logger:      logger,
		configs:     configs,
		syncLogs:    syncLogs,
		clientRepo:  clientRepo,
		produitRepo: produitRepo,
		devisRepo:   devisRepo,
		numbers:     numbers,
		redis:       rdb,
		newAPI:      func(cfg Config) API { return NewClient(cfg) },
		lockTTL:     15 * time.Minute,
	}
}

// SyncAll runs the three sub-syncs sequentially under the per-config lock and
// stamps derniere_sync on completion. A missing or inactive config aborts the
// whole run with a single failure log.
func (s *Service) SyncAll(ctx context.Context) (SyncResult, error) {
	var result SyncResult

	cfg, err := s.configs.GetActive(ctx)
	if err != nil {
		s.log(ctx, "all", SyncStatutError, "configuration WooCommerce absente ou inactive")
		return result, fmt.Errorf("load config woocommerce: %w", err)
	}

	lock := shared.NewLock(s.redis, shared.SyncLockKey(cfg.ID), s.lockTTL)
	if err := lock.Acquire(ctx); err != nil {
		if errors.Is(err, shared.ErrLockHeld) {
			s.log(ctx, "all", SyncStatutError, "synchronisation déjà en cours")
		}
		return result, err
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			s.logger.Error("release sync lock", slog.Any("error", err))
		}
	}()

	api := s.newAPI(*cfg)

	if result.Customers, err = s.SyncCustomers(ctx, api); err != nil {
		return result, err
	}
	if result.Products, err = s.SyncProducts(ctx, api); err != nil {
		return result, err
	}
	if result.Orders, err = s.SyncOrders(ctx, api); err != nil {
		return result, err
	}

	if err := s.configs.TouchDerniereSync(ctx, cfg.ID); err != nil {
		return result, fmt.Errorf("update derniere_sync: %w", err)
	}
	return result, nil
}

// TestConnection verifies the active config can reach the remote API.
func (s *Service) TestConnection(ctx context.Context) error {
	cfg, err := s.configs.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("load config woocommerce: %w", err)
	}
	return s.newAPI(*cfg).TestConnection(ctx)
}

// SyncCustomers upserts every remote customer as a prospect keyed on its
// remote id. Running it twice with the same remote data changes nothing.
func (s *Service) SyncCustomers(ctx context.Context, api API) (int, error) {
	customers, err := api.Customers(ctx)
	if err != nil {
		s.log(ctx, "customers", SyncStatutError, err.Error())
		return 0, err
	}

	synced := 0
	for _, customer := range customers {
		req := clients.UpsertExterneRequest{
			WoocommerceID: customer.ID,
			RaisonSociale: raisonSociale(customer.Billing, customer.FirstName, customer.LastName),
			NomContact:    optional(strings.TrimSpace(customer.FirstName + " " + customer.LastName)),
			Email:         optional(customer.Email),
			Telephone:     optional(customer.Billing.Phone),
			Adresse:       optional(strings.TrimSpace(customer.Billing.Address1 + " " + customer.Billing.Address2)),
			Ville:         optional(customer.Billing.City),
			CodePostal:    optional(customer.Billing.Postcode),
		}
		if _, _, err := s.clientRepo.UpsertExterne(ctx, req); err != nil {
			s.log(ctx, "customers", SyncStatutError, err.Error())
			return synced, fmt.Errorf("upsert client wc %d: %w", customer.ID, err)
		}
		synced++
	}

	s.log(ctx, "customers", SyncStatutOK, fmt.Sprintf("%d clients synchronisés", synced))
	return synced, nil
}

// SyncProducts upserts every sellable remote product. A variable product is
// expanded into its variations, one local product per variation; the parent
// itself is never imported. Remote prices are stored as HT unchanged.
func (s *Service) SyncProducts(ctx context.Context, api API) (int, error) {
	products, err := api.Products(ctx)
	if err != nil {
		s.log(ctx, "products", SyncStatutError, err.Error())
		return 0, err
	}

	synced := 0
	for _, product := range products {
		if product.Type == "variable" {
			variations, err := api.Variations(ctx, product.ID)
			if err != nil {
				s.log(ctx, "products", SyncStatutError, err.Error())
				return synced, err
			}
			for _, v := range variations {
				if err := s.upsertVariation(ctx, product, v); err != nil {
					s.log(ctx, "products", SyncStatutError, err.Error())
					return synced, err
				}
				synced++
			}
			continue
		}

		if err := s.upsertProduit(ctx, product); err != nil {
			s.log(ctx, "products", SyncStatutError, err.Error())
			return synced, err
		}
		synced++
	}

	s.log(ctx, "products", SyncStatutOK, fmt.Sprintf("%d produits synchronisés", synced))
	return synced, nil
}

func (s *Service) upsertProduit(ctx context.Context, p Product) error {
	code := p.SKU
	if code == "" {
		code = fmt.Sprintf("WC-%d", p.ID)
	}
	req := produits.UpsertExterneRequest{
		WoocommerceID:   p.ID,
		CodeProduit:     code,
		Designation:     p.Name,
		Description:     optional(p.Description),
		PrixUnitaireHT:  parsePrix(p.Price, p.RegularPrice),
		StockDisponible: stock(p.StockQuantity),
	}
	if len(p.Categories) > 0 {
		req.Categorie = optional(p.Categories[0].Name)
	}
	if len(p.Images) > 0 {
		req.ImageURL = optional(p.Images[0].Src)
	}
	_, _, err := s.produitRepo.UpsertExterne(ctx, req)
	if err != nil {
		return fmt.Errorf("upsert produit wc %d: %w", p.ID, err)
	}
	return nil
}

func (s *Service) upsertVariation(ctx context.Context, parent Product, v Variation) error {
	code := v.SKU
	if code == "" {
		code = fmt.Sprintf("WC-%d", v.ID)
	}
	req := produits.UpsertExterneRequest{
		WoocommerceID:   v.ID,
		CodeProduit:     code,
		Designation:     variationDesignation(parent.Name, v.Attributes),
		PrixUnitaireHT:  parsePrix(v.Price, v.RegularPrice),
		StockDisponible: stock(v.StockQuantity),
	}
	if len(parent.Categories) > 0 {
		req.Categorie = optional(parent.Categories[0].Name)
	}
	if v.Image != nil {
		req.ImageURL = optional(v.Image.Src)
	} else if len(parent.Images) > 0 {
		req.ImageURL = optional(parent.Images[0].Src)
	}
	_, _, err := s.produitRepo.UpsertExterne(ctx, req)
	if err != nil {
		return fmt.Errorf("upsert variation wc %d: %w", v.ID, err)
	}
	return nil
}

// SyncOrders imports each remote order or quote request as exactly one local
// quote, keyed on the remote order id. A failing status page is logged and
// skipped; the remaining statuses still run.
func (s *Service) SyncOrders(ctx context.Context, api API) (int, error) {
	synced := 0
	for _, status := range orderStatuses {
		orders, err := api.Orders(ctx, status)
		if err != nil {
			s.logger.Warn("sync orders: statut ignoré",
				slog.String("status", status), slog.Any("error", err))
			s.log(ctx, "orders", SyncStatutError, fmt.Sprintf("statut %s: %s", status, err.Error()))
			continue
		}
		for _, order := range orders {
			imported, err := s.importOrder(ctx, order)
			if err != nil {
				s.log(ctx, "orders", SyncStatutError, err.Error())
				return synced, err
			}
			if imported {
				synced++
			}
		}
	}

	s.log(ctx, "orders", SyncStatutOK, fmt.Sprintf("%d demandes de devis synchronisées", synced))
	return synced, nil
}

// importOrder creates one local quote for the remote order unless it was
// already imported. Returns whether a quote was created.
func (s *Service) importOrder(ctx context.Context, order Order) (bool, error) {
	if _, err := s.devisRepo.GetByWoocommerceQuoteID(ctx, order.ID); err == nil {
		return false, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}

	clientID, err := s.resolveOrderClient(ctx, order)
	if err != nil {
		return false, err
	}

	numero, err := s.numbers.Next(ctx, numbering.DocDevis)
	if err != nil {
		return false, fmt.Errorf("generate numero devis: %w", err)
	}

	dateDevis := parseDate(order.DateCreated)
	dateValidite := dateDevis.AddDate(0, 0, validiteJours)
	// Remote amounts are HT; the flat TVA is added on top.
	montantHT := parseMontant(order.Total)
	montantTVA := montantHT * calc.TauxTVADefaut / 100
	montantTTC := montantHT + montantTVA

	wcQuoteID := order.ID
	notes := fmt.Sprintf("Importé depuis WooCommerce - Commande #%d\nStatut WC: %s", order.ID, order.Status)
	d := devis.Devis{
		NumeroDevis:        numero,
		ClientID:           clientID,
		DateDevis:          dateDevis,
		DateValidite:       &dateValidite,
		Statut:             devis.StatutEnvoye,
		MontantHT:          montantHT,
		MontantTVA:         montantTVA,
		MontantTTC:         montantTTC,
		ConditionsPaiement: optional(order.PaymentMethodTitle),
		Notes:              &notes,
		WoocommerceQuoteID: &wcQuoteID,
	}

	err = s.devisRepo.WithTx(ctx, func(ctx context.Context, repo devis.Repository) error {
		devisID, err := repo.Create(ctx, d)
		if err != nil {
			return err
		}
		for i, item := range order.LineItems {
			ligne := devis.LigneDevis{
				DevisID:        devisID,
				ProduitID:      s.lookupProduit(ctx, item),
				Designation:    item.Name,
				Quantite:       item.Quantity,
				PrixUnitaireHT: item.Price,
				TVAPourcentage: calc.TauxTVADefaut,
				Ordre:          i + 1,
			}
			ligne.MontantHT = parseMontant(item.Total)
			ligne.MontantTVA = ligne.MontantHT * calc.TauxTVADefaut / 100
			ligne.MontantTTC = ligne.MontantHT + ligne.MontantTVA
			if _, err := repo.InsertLigne(ctx, ligne); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// a concurrent run imported the same order first
		if errors.Is(err, shared.ErrValidation) {
			return false, nil
		}
		return false, fmt.Errorf("import devis wc %d: %w", order.ID, err)
	}
	return true, nil
}

// resolveOrderClient finds the local client for the order's customer,
// creating a prospect on the fly. Guest orders get their own client without a
// remote id.
func (s *Service) resolveOrderClient(ctx context.Context, order Order) (int64, error) {
	if order.CustomerID > 0 {
		id, _, err := s.clientRepo.UpsertExterne(ctx, clients.UpsertExterneRequest{
			WoocommerceID: order.CustomerID,
			RaisonSociale: raisonSociale(order.Billing, order.Billing.FirstName, order.Billing.LastName),
			NomContact:    optional(strings.TrimSpace(order.Billing.FirstName + " " + order.Billing.LastName)),
			Email:         optional(order.Billing.Email),
			Telephone:     optional(order.Billing.Phone),
			Adresse:       optional(strings.TrimSpace(order.Billing.Address1 + " " + order.Billing.Address2)),
			Ville:         optional(order.Billing.City),
			CodePostal:    optional(order.Billing.Postcode),
		})
		if err != nil {
			return 0, fmt.Errorf("resolve client wc %d: %w", order.CustomerID, err)
		}
		return id, nil
	}

	code, err := s.numbers.Next(ctx, numbering.DocClient)
	if err != nil {
		return 0, fmt.Errorf("generate code client: %w", err)
	}
	notes := fmt.Sprintf("Client invité WooCommerce - Commande #%d", order.ID)
	id, err := s.clientRepo.Create(ctx, clients.Client{
		CodeClient:    code,
		Type:          clients.TypeProspect,
		RaisonSociale: raisonSociale(order.Billing, order.Billing.FirstName, order.Billing.LastName),
		NomContact:    optional(strings.TrimSpace(order.Billing.FirstName + " " + order.Billing.LastName)),
		Email:         optional(order.Billing.Email),
		Telephone:     optional(order.Billing.Phone),
		Adresse:       optional(strings.TrimSpace(order.Billing.Address1 + " " + order.Billing.Address2)),
		Ville:         optional(order.Billing.City),
		CodePostal:    optional(order.Billing.Postcode),
		Source:        clients.SourceWooCommerce,
		Notes:         &notes,
	})
	if err != nil {
		return 0, fmt.Errorf("create client invité: %w", err)
	}
	return id, nil
}

func (s *Service) lookupProduit(ctx context.Context, item LineItem) *int64 {
	wcID := item.VariationID
	if wcID == 0 {
		wcID = item.ProductID
	}
	if wcID == 0 {
		return nil
	}
	p, err := s.produitRepo.GetByWoocommerceID(ctx, wcID)
	if err != nil {
		return nil
	}
	return &p.ID
}

func (s *Service) log(ctx context.Context, typeSync, statut, message string) {
	err := s.syncLogs.Insert(ctx, SyncLog{TypeSync: typeSync, Statut: statut, Message: message})
	if err != nil {
		s.logger.Error("insert sync log", slog.Any("error", err))
	}
}

func stock(quantity *int) int {
	if quantity == nil || *quantity < 0 {
		return 0
	}
	return *quantity
}

func parsePrix(price, regularPrice string) float64 {
	if v := parseMontant(price); v > 0 {
		return v
	}
	return parseMontant(regularPrice)
}

func parseMontant(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}

func raisonSociale(b Billing, firstName, lastName string) string {
	if b.Company != "" {
		return b.Company
	}
	return strings.TrimSpace(firstName + " " + lastName)
}

// variationDesignation names a variation after its parent and attributes,
// e.g. "Canapé Orion - Couleur: Gris, Taille: 3 places".
func variationDesignation(parentName string, attrs []Attribute) string {
	if len(attrs) == 0 {
		return parentName
	}
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Name, a.Option))
	}
	return parentName + " - " + strings.Join(parts, ", ")
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
