package facturation

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Africamobilier/erp/internal/platform/httpx"
	"github.com/Africamobilier/erp/internal/rbac"
)

// Handler manages facture endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validate, rbac: rbac}
}

// MountRoutes registers facture routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.ModuleFacturation, rbac.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/paiements", h.listPaiements)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.ModuleFacturation, rbac.ActionCreate))
		r.Post("/depuis-bl/{blID}", h.creerDepuisBL)
		r.Post("/depuis-commande/{commandeID}", h.creerDepuisCommande)
		r.Post("/{id}/paiements", h.enregistrerPaiement)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.ModuleFacturation, rbac.ActionUpdate))
		r.Post("/{id}/statut", h.changerStatut)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.ModuleFacturation, rbac.ActionDelete))
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListFacturesRequest{Limit: 20}
	if s := q.Get("statut"); s != "" {
		statut := Statut(s)
		req.Statut = &statut
	}
	if v, err := strconv.ParseInt(q.Get("client_id"), 10, 64); err == nil {
		req.ClientID = &v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		req.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		req.Offset = v
	}

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list factures", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant facture invalide")
		return
	}
	f, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, f)
}

func (h *Handler) listPaiements(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant facture invalide")
		return
	}
	paiements, err := h.service.Paiements(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": paiements, "total": len(paiements)})
}

func (h *Handler) creerDepuisBL(w http.ResponseWriter, r *http.Request) {
	blID, err := strconv.ParseInt(chi.URLParam(r, "blID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant bon de livraison invalide")
		return
	}
	var req CreerDepuisBLRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Requête invalide", err.Error())
			return
		}
	}
	f, err := h.service.CreerDepuisBL(r.Context(), blID, req)
	if err != nil {
		h.logger.Error("creer facture depuis bl", slog.Any("error", err), slog.Int64("bl_id", blID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, f)
}

func (h *Handler) creerDepuisCommande(w http.ResponseWriter, r *http.Request) {
	commandeID, err := strconv.ParseInt(chi.URLParam(r, "commandeID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant commande invalide")
		return
	}
	f, err := h.service.CreerDepuisCommande(r.Context(), commandeID)
	if err != nil {
		h.logger.Error("creer facture depuis commande", slog.Any("error", err), slog.Int64("commande_id", commandeID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, f)
}

func (h *Handler) enregistrerPaiement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant facture invalide")
		return
	}
	var req PaiementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", err.Error())
		return
	}
	f, err := h.service.EnregistrerPaiement(r.Context(), id, req)
	if err != nil {
		h.logger.Error("enregistrer paiement", slog.Any("error", err), slog.Int64("facture_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, f)
}

func (h *Handler) changerStatut(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant facture invalide")
		return
	}
	var req struct {
		Statut Statut `json:"statut" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", err.Error())
		return
	}
	f, err := h.service.ChangerStatut(r.Context(), id, req.Statut)
	if err != nil {
		h.logger.Error("changer statut facture", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, f)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", "identifiant facture invalide")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete facture", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
