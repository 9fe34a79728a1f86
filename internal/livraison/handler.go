package livraison

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Africamobilier/erp/internal/platform/httpx"
	"github.com/Africamobilier/erp/internal/rbac"
)

// Handler manages bon de livraison endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validate, rbac: rbac}
}

// MountRoutes registers delivery note routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.ModuleLivraisons, rbac.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.ModuleLivraisons, rbac.ActionCreate))
		r.Post("/depuis-commande/{commandeID}", h.creerDepuisCommande)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.ModuleLivraisons, rbac.ActionUpdate))
		r.Post("/{id}/statut", h.changerStatut)
		r.Put("/{id}/quantites", h.updateQuantites)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.ModuleLivraisons, rbac.ActionDelete))
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListBLRequest{Limit: 20}
	if s := q.Get("statut"); s != "" {
		statut := Statut(s)
		req.Statut = &statut
	}
	if v, err := strconv.ParseInt(q.Get("client_id"), 10, 64); err == nil {
		req.ClientID = &v
	}
	if v, err := strconv.ParseInt(q.Get("commande_id"), 10, 64); err == nil {
		req.CommandeID = &v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		req.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		req.Offset = v
	}

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list bons de livraison", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant bon de livraison invalide")
		return
	}
	bl, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bl)
}

func (h *Handler) creerDepuisCommande(w http.ResponseWriter, r *http.Request) {
	commandeID, err := strconv.ParseInt(chi.URLParam(r, "commandeID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant commande invalide")
		return
	}
	var req CreerDepuisCommandeRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Requête invalide", err.Error())
			return
		}
	}
	bl, err := h.service.CreerDepuisCommande(r.Context(), commandeID, req)
	if err != nil {
		h.logger.Error("creer bl depuis commande", slog.Any("error", err), slog.Int64("commande_id", commandeID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, bl)
}

func (h *Handler) changerStatut(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant bon de livraison invalide")
		return
	}
	var req struct {
		Statut Statut `json:"statut" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", err.Error())
		return
	}
	bl, err := h.service.ChangerStatut(r.Context(), id, req.Statut)
	if err != nil {
		h.logger.Error("changer statut bl", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bl)
}

func (h *Handler) updateQuantites(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant bon de livraison invalide")
		return
	}
	var req UpdateQuantitesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", err.Error())
		return
	}
	bl, err := h.service.UpdateQuantites(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update quantites bl", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bl)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant bon de livraison invalide")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete bl", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
