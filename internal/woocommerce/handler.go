package woocommerce

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Africamobilier/erp/internal/platform/httpx"
	"github.com/Africamobilier/erp/internal/rbac"
)

// Handler manages the integration endpoints. All of them are restricted to
// admin and directeur général regardless of module permissions.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	configs  ConfigRepository
	syncLogs SyncLogRepository
	validate *validator.Validate
	rbac     rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, configs ConfigRepository, syncLogs SyncLogRepository, validate *validator.Validate, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, configs: configs, syncLogs: syncLogs, validate: validate, rbac: rbac}
}

// MountRoutes registers integration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(rbac.RoleAdmin, rbac.RoleDirecteurGeneral))
		r.Get("/config", h.getConfig)
		r.Put("/config", h.saveConfig)
		r.Post("/config/test", h.testConnection)
		r.Post("/sync", h.sync)
		r.Get("/logs", h.listLogs)
	})
}

func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.GetActive(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

// SaveConfigRequest carries the shop connection settings. The secret is
// accepted on write but never echoed back.
type SaveConfigRequest struct {
	SiteURL        string `json:"site_url" validate:"required,url"`
	ConsumerKey    string `json:"consumer_key" validate:"required"`
	ConsumerSecret string `json:"consumer_secret" validate:"required"`
	Actif          bool   `json:"actif"`
}

func (h *Handler) saveConfig(w http.ResponseWriter, r *http.Request) {
	var req SaveConfigRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Requête invalide", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation échouée", err.Error())
		return
	}

	cfg, err := h.configs.Save(r.Context(), Config{
		SiteURL:        req.SiteURL,
		ConsumerKey:    req.ConsumerKey,
		ConsumerSecret: req.ConsumerSecret,
		Actif:          req.Actif,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

func (h *Handler) testConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.service.TestConnection(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SyncAll(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	logs, err := h.syncLogs.List(r.Context(), limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}
