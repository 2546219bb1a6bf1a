package notes

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/post", h.Post)
	r.Post("/{id}/cancel", h.Cancel)
	r.Get("/{id}/schedule", h.Schedule)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	counterpartyID, _ := strconv.ParseInt(q.Get("counterparty_id"), 10, 64)

	filters := ListNoteFilters{
		Page:           page,
		Limit:          limit,
		Kind:           Kind(q.Get("kind")),
		Status:         Status(q.Get("status")),
		CounterpartyID: counterpartyID,
	}
	notes, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list notes failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"notes": notes,
		"total": total,
		"page":  filters.Page,
		"limit": filters.PageLimit(),
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid note id")
		return
	}
	note, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, note)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, requestErrors(err))
		return
	}
	note, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create note failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, note)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid note id")
		return
	}
	var req UpdateNoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, requestErrors(err))
		return
	}
	note, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update note failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, note)
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid note id")
		return
	}
	note, err := h.service.Post(r.Context(), id)
	if err != nil {
		h.logger.Error("post note failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, note)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid note id")
		return
	}
	note, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		h.logger.Error("cancel note failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, note)
}

func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid note id")
		return
	}
	installments, err := h.service.Schedule(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"installments": installments})
}

func noteID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func requestErrors(err error) error {
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
