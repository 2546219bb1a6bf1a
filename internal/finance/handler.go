package finance

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

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
	r.Get("/installments", h.List)
	r.Get("/installments/{id}", h.Show)
	r.Post("/installments/{id}/settle", h.Settle)
	r.Post("/installments/{id}/reopen", h.Reopen)
	r.Get("/aging", h.Aging)
	r.Get("/aging/overview", h.AgingOverview)
	r.Get("/overdue", h.Overdue)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	counterpartyID, _ := strconv.ParseInt(q.Get("counterparty_id"), 10, 64)
	noteID, _ := strconv.ParseInt(q.Get("note_id"), 10, 64)

	filters := ListFilters{
		Page:           page,
		Limit:          limit,
		Kind:           InstallmentKind(q.Get("kind")),
		Status:         InstallmentStatus(q.Get("status")),
		CounterpartyID: counterpartyID,
		NoteID:         noteID,
	}
	if raw := q.Get("due_before"); raw != "" {
		due, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "due_before must be YYYY-MM-DD")
			return
		}
		filters.DueBefore = &due
	}

	installments, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list installments failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"installments": installments,
		"total":        total,
		"page":         filters.Page,
		"limit":        filters.PageLimit(),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid installment id")
		return
	}
	inst, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inst)
}

type settleRequest struct {
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid installment id")
		return
	}
	var req settleRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
			return
		}
	}
	paidAt := time.Time{}
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	inst, err := h.service.Settle(r.Context(), id, paidAt)
	if err != nil {
		h.logger.Error("settle installment failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inst)
}

func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid installment id")
		return
	}
	inst, err := h.service.Reopen(r.Context(), id)
	if err != nil {
		h.logger.Error("reopen installment failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inst)
}

func (h *Handler) Aging(w http.ResponseWriter, r *http.Request) {
	kind := InstallmentKind(r.URL.Query().Get("kind"))
	asOf := time.Time{}
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}
	report, err := h.service.Aging(r.Context(), kind, asOf)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) AgingOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.AgingOverview(r.Context(), time.Time{})
	if err != nil {
		h.logger.Error("aging overview failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) Overdue(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.Overdue(r.Context(), time.Time{})
	if err != nil {
		h.logger.Error("overdue summary failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"overdue": summaries})
}
