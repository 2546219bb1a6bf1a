package paymentterms

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/methods", h.ListMethods)
	r.Get("/templates", h.ListTemplates)
	r.Get("/templates/{id}", h.ShowTemplate)
	r.Post("/templates", h.CreateTemplate)
	r.Put("/templates/{id}", h.UpdateTemplate)
	r.Delete("/templates/{id}", h.DeactivateTemplate)
}

func (h *Handler) ListMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.service.ListMethods(r.Context())
	if err != nil {
		h.logger.Error("list payment methods failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"methods": methods})
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	templates, err := h.service.ListTemplates(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("list payment terms failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"templates": templates})
}

func (h *Handler) ShowTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid template id")
		return
	}
	tpl, err := h.service.GetTemplate(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tpl)
}

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var tpl Template
	if err := httpx.DecodeJSON(r, &tpl); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return
	}
	created, err := h.service.CreateTemplate(r.Context(), tpl)
	if err != nil {
		h.logger.Error("create payment terms failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid template id")
		return
	}
	var tpl Template
	if err := httpx.DecodeJSON(r, &tpl); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return
	}
	updated, err := h.service.UpdateTemplate(r.Context(), id, tpl)
	if err != nil {
		h.logger.Error("update payment terms failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) DeactivateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid template id")
		return
	}
	if err := h.service.DeactivateTemplate(r.Context(), id); err != nil {
		h.logger.Error("deactivate payment terms failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
