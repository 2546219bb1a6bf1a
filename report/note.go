package report

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mercantil-erp/mercantil-erp/internal/notes"
	"github.com/mercantil-erp/mercantil-erp/internal/notes/composer"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

// NoteSource supplies the note and its derived schedule for printing.
type NoteSource interface {
	Get(ctx context.Context, id int64) (notes.Note, error)
	Schedule(ctx context.Context, id int64) ([]composer.Installment, error)
}

// Handler renders note printouts.
type Handler struct {
	client *Client
	source NoteSource
	logger *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, source NoteSource, logger *slog.Logger) *Handler {
	return &Handler{client: client, source: source, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/notes/{id}.pdf", h.notePDF)
	r.Get("/notes/{id}.html", h.noteHTML)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) noteHTML(w http.ResponseWriter, r *http.Request) {
	html, _, ok := h.render(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (h *Handler) notePDF(w http.ResponseWriter, r *http.Request) {
	html, note, ok := h.render(w, r)
	if !ok {
		return
	}
	pdf, err := h.client.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render note pdf", slog.Any("error", err), slog.Int64("note_id", note.ID))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=nota-"+strconv.FormatInt(note.ID, 10)+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request) (string, notes.Note, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid note id")
		return "", notes.Note{}, false
	}
	note, err := h.source.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return "", notes.Note{}, false
	}

	// The schedule is optional on the printout: drafts without a terms
	// template still print.
	schedule, err := h.source.Schedule(r.Context(), id)
	if err != nil {
		schedule = nil
	}

	html, err := RenderNoteHTML(note, schedule, time.Now())
	if err != nil {
		h.logger.Error("render note html", slog.Any("error", err), slog.Int64("note_id", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return "", notes.Note{}, false
	}
	return html, note, true
}

var noteTemplate = template.Must(template.New("note").Funcs(template.FuncMap{
	"money": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("02/01/2006")
	},
	"dateptr": func(t *time.Time) string {
		if t == nil {
			return "a definir"
		}
		return t.Format("02/01/2006")
	},
}).Parse(noteTemplateHTML))

// RenderNoteHTML builds the printable representation of a note.
func RenderNoteHTML(note notes.Note, schedule []composer.Installment, generatedAt time.Time) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Note        notes.Note
		Schedule    []composer.Installment
		GeneratedAt time.Time
		Title       string
	}{Note: note, Schedule: schedule, GeneratedAt: generatedAt, Title: noteTitle(note.Kind)}
	if err := noteTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func noteTitle(kind notes.Kind) string {
	if kind == notes.KindEntry {
		return "Nota de Entrada"
	}
	return "Nota de Saída"
}

const noteTemplateHTML = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>{{.Title}} {{.Note.Number}}</title>
<style>
body { font-family: sans-serif; font-size: 12px; margin: 24px; }
h1 { font-size: 16px; }
table { border-collapse: collapse; width: 100%; margin-top: 12px; }
th, td { border: 1px solid #444; padding: 4px 6px; text-align: left; }
td.num, th.num { text-align: right; }
.meta { margin-top: 8px; }
.totals { margin-top: 12px; text-align: right; }
.footer { margin-top: 24px; font-size: 10px; color: #666; }
</style>
</head>
<body>
<h1>{{.Title}} nº {{.Note.Number}} · modelo {{.Note.Model}} · série {{.Note.Series}}</h1>
<div class="meta">
Emissão: {{date .Note.IssueDate}} · Entrada/Saída: {{date .Note.ArrivalDate}} · Situação: {{.Note.Status}}<br>
Frete: {{.Note.FreightMode}}
</div>
<table>
<thead>
<tr><th>Código</th><th>Descrição</th><th>UN</th><th class="num">Qtde</th><th class="num">Preço</th><th class="num">Desconto</th><th class="num">Total</th></tr>
</thead>
<tbody>
{{range .Note.Lines}}
<tr><td>{{.Code}}</td><td>{{.Name}}</td><td>{{.UnitCode}}</td><td class="num">{{money .Quantity}}</td><td class="num">{{money .UnitPrice}}</td><td class="num">{{money .Discount}}</td><td class="num">{{money .Total}}</td></tr>
{{end}}
</tbody>
</table>
<div class="totals">
Total dos itens: {{money .Note.LinesTotal}}<br>
{{if ne .Note.FreightMode "NONE"}}Frete: {{money .Note.FreightAmount}} · Seguro: {{money .Note.InsuranceAmount}} · Outras despesas: {{money .Note.OtherExpensesAmount}}<br>{{end}}
<strong>Total da nota: {{money .Note.GrandTotal}}</strong>
</div>
{{if .Schedule}}
<table>
<thead><tr><th>Parcela</th><th class="num">%</th><th class="num">Valor</th><th>Vencimento</th></tr></thead>
<tbody>
{{range .Schedule}}
<tr><td>{{.Sequence}}</td><td class="num">{{money .Percentage}}</td><td class="num">{{money .Amount}}</td><td>{{dateptr .DueDate}}</td></tr>
{{end}}
</tbody>
</table>
{{end}}
<div class="footer">Gerado em {{.GeneratedAt.Format "02/01/2006 15:04"}}</div>
</body>
</html>`
