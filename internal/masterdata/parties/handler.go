package parties

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/shared"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/parties", h.List)
	r.Get("/parties/{id}", h.Show)
	r.Get("/parties/{id}/lookup", h.Lookup)
	r.Post("/parties", h.Create)
	r.Put("/parties/{id}", h.Update)
	r.Delete("/parties/{id}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = shared.DefaultPage
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = shared.DefaultLimit
	}

	filters := shared.ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  r.URL.Query().Get("search"),
		SortDir: r.URL.Query().Get("dir"),
		Kind:    r.URL.Query().Get("kind"),
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		b := v == "true"
		filters.IsActive = &b
	}

	result, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list parties failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"parties": result,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid party id")
		return
	}
	party, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, party)
}

// Lookup returns the counterparty shape consumed by the note header form.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid party id")
		return
	}
	result, err := h.service.Lookup(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePartyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, validationErrors(err))
		return
	}
	party, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create party failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, party)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid party id")
		return
	}
	var req UpdatePartyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, validationErrors(err))
		return
	}
	party, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update party failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, party)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid party id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete party failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validationErrors(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return httpx.ErrValidation
	}
	var out httpx.FieldErrors
	for _, fe := range verrs {
		out = append(out, httpx.NewFieldError(fe.Field(), "failed on "+fe.Tag()))
	}
	return out
}
