package produits

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Africamobilier/erp/internal/platform/httpx"
	"github.com/Africamobilier/erp/internal/rbac"
)

// Handler manages product catalog endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validate, rbac: rbac}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.ModuleProduits, rbac.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.ModuleProduits, rbac.ActionCreate))
		r.Post("/", h.create)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.ModuleProduits, rbac.ActionUpdate))
		r.Put("/{id}", h.update)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.ModuleProduits, rbac.ActionDelete))
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListProduitsRequest{Limit: 20}
	if s := q.Get("categorie"); s != "" {
		req.Categorie = &s
	}
	if s := q.Get("actif"); s != "" {
		actif := s == "true" || s == "1"
		req.Actif = &actif
	}
	if s := q.Get("search"); s != "" {
		req.Search = &s
	}
	// stock_faible=1 restreint aux produits sous leur seuil d'alerte
	if s := q.Get("stock_faible"); s == "true" || s == "1" {
		req.StockFaible = true
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		req.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		req.Offset = v
	}

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list produits", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant produit invalide")
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateProduitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", err.Error())
		return
	}
	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create produit", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant produit invalide")
		return
	}
	var req UpdateProduitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", err.Error())
		return
	}
	p, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update produit", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant produit invalide")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete produit", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
