package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mercantil-erp/mercantil-erp/internal/finance"
	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/brands"
	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/categories"
	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/parties"
	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/products"
	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/units"
	"github.com/mercantil-erp/mercantil-erp/internal/notes"
	"github.com/mercantil-erp/mercantil-erp/internal/observability"
	"github.com/mercantil-erp/mercantil-erp/internal/paymentterms"
	"github.com/mercantil-erp/mercantil-erp/jobs"
	"github.com/mercantil-erp/mercantil-erp/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	PartiesHandler      *parties.Handler
	ProductsHandler     *products.Handler
	UnitsHandler        *units.Handler
	BrandsHandler       *brands.Handler
	CategoriesHandler   *categories.Handler
	PaymentTermsHandler *paymentterms.Handler
	NotesHandler        *notes.Handler
	FinanceHandler      *finance.Handler
	JobHandler          *jobs.Handler
	ReportHandler       *report.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with Mercantil defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/masterdata", func(r chi.Router) {
		if params.PartiesHandler != nil {
			r.Route("/parties", params.PartiesHandler.MountRoutes)
		}
		if params.ProductsHandler != nil {
			r.Route("/products", params.ProductsHandler.MountRoutes)
		}
		if params.UnitsHandler != nil {
			r.Route("/units", params.UnitsHandler.MountRoutes)
		}
		if params.BrandsHandler != nil {
			r.Route("/brands", params.BrandsHandler.MountRoutes)
		}
		if params.CategoriesHandler != nil {
			r.Route("/categories", params.CategoriesHandler.MountRoutes)
		}
	})

	if params.PaymentTermsHandler != nil {
		r.Route("/paymentterms", params.PaymentTermsHandler.MountRoutes)
	}
	if params.NotesHandler != nil {
		r.Route("/notes", params.NotesHandler.MountRoutes)
	}
	if params.FinanceHandler != nil {
		r.Route("/finance", params.FinanceHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
