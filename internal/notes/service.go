package notes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/products"
	"github.com/mercantil-erp/mercantil-erp/internal/notes/composer"
	"github.com/mercantil-erp/mercantil-erp/internal/observability"
	"github.com/mercantil-erp/mercantil-erp/internal/paymentterms"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

// Catalog resolves the product snapshot captured on each committed line.
type Catalog interface {
	Lookup(ctx context.Context, id int64) (products.LookupResult, error)
}

// TermsProvider resolves payment-terms templates for schedule derivation.
type TermsProvider interface {
	GetTemplate(ctx context.Context, id int64) (paymentterms.Template, error)
}

// Scheduler hands posted notes to the finance pipeline and withdraws
// cancelled ones.
type Scheduler interface {
	EnqueueSchedule(ctx context.Context, noteID int64) error
	CancelSchedule(ctx context.Context, noteID int64) error
}

// Service owns the note lifecycle. Every write path rebuilds the document
// through the composer, so stored totals always come from the same
// derivations the entry form runs.
type Service struct {
	repo      Repository
	catalog   Catalog
	terms     TermsProvider
	scheduler Scheduler
	metrics   *observability.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, catalog Catalog, terms TermsProvider, scheduler Scheduler, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		terms:     terms,
		scheduler: scheduler,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (Note, error) {
	if id <= 0 {
		return Note{}, fmt.Errorf("%w: invalid note id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters ListNoteFilters) ([]Note, int, error) {
	if filters.Kind != "" && !filters.Kind.Valid() {
		return nil, 0, httpx.NewFieldError("kind", "kind must be ENTRY or EXIT")
	}
	return s.repo.List(ctx, filters)
}

func (s *Service) Create(ctx context.Context, req CreateNoteRequest) (Note, error) {
	if !req.Kind.Valid() {
		return Note{}, httpx.NewFieldError("kind", "kind must be ENTRY or EXIT")
	}

	doc, err := s.compose(ctx, composeInput(req))
	if err != nil {
		return Note{}, err
	}

	note := noteFromDocument(doc)
	note.Kind = req.Kind
	note.Status = StatusDraft

	id, err := s.repo.Create(ctx, note)
	if err != nil {
		return Note{}, fmt.Errorf("create note: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateNoteRequest) (Note, error) {
	if id <= 0 {
		return Note{}, fmt.Errorf("%w: invalid note id", httpx.ErrValidation)
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if existing.Status != StatusDraft {
		return Note{}, fmt.Errorf("%w: only draft notes can be edited", httpx.ErrInvalidStatus)
	}

	doc, err := s.compose(ctx, composeInput(CreateNoteRequest{
		Kind:                existing.Kind,
		Number:              req.Number,
		Model:               req.Model,
		Series:              req.Series,
		CounterpartyID:      req.CounterpartyID,
		IssueDate:           req.IssueDate,
		ArrivalDate:         req.ArrivalDate,
		FreightMode:         req.FreightMode,
		FreightAmount:       req.FreightAmount,
		InsuranceAmount:     req.InsuranceAmount,
		OtherExpensesAmount: req.OtherExpensesAmount,
		PaymentTermsID:      req.PaymentTermsID,
		Notes:               req.Notes,
		Lines:               req.Lines,
	}))
	if err != nil {
		return Note{}, err
	}

	note := noteFromDocument(doc)
	if err := s.repo.Replace(ctx, id, note); err != nil {
		return Note{}, fmt.Errorf("update note: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Post freezes a draft note and hands it to the finance pipeline. A posted
// note needs a payment-terms template so the installment schedule can be
// materialized.
func (s *Service) Post(ctx context.Context, id int64) (Note, error) {
	note, err := s.Get(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if note.Status != StatusDraft {
		return Note{}, fmt.Errorf("%w: note is %s", httpx.ErrInvalidStatus, note.Status)
	}
	if note.PaymentTermsID <= 0 {
		return Note{}, httpx.NewFieldError("payment_terms_id", "a payment-terms template is required to post")
	}
	if err := composer.Validate(note.Composed(), s.now()); err != nil {
		return Note{}, err
	}
	if _, err := s.terms.GetTemplate(ctx, note.PaymentTermsID); err != nil {
		return Note{}, fmt.Errorf("resolve payment terms: %w", err)
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusDraft, StatusPosted); err != nil {
		return Note{}, err
	}
	if s.metrics != nil {
		s.metrics.NotePosted(string(note.Kind))
	}
	if err := s.scheduler.EnqueueSchedule(ctx, id); err != nil {
		// The overdue scan worker retries schedule generation for posted
		// notes that have none, so a lost enqueue is recoverable.
		s.logger.Warn("enqueue schedule generation", slog.Int64("note_id", id), slog.Any("error", err))
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Cancel(ctx context.Context, id int64) (Note, error) {
	note, err := s.Get(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if note.Status == StatusCancelled {
		return Note{}, fmt.Errorf("%w: note is already cancelled", httpx.ErrInvalidStatus)
	}

	if err := s.repo.UpdateStatus(ctx, id, note.Status, StatusCancelled); err != nil {
		return Note{}, err
	}
	if note.Status == StatusPosted {
		if err := s.scheduler.CancelSchedule(ctx, id); err != nil {
			s.logger.Warn("cancel installment schedule", slog.Int64("note_id", id), slog.Any("error", err))
		}
	}
	return s.repo.Get(ctx, id)
}

// Schedule projects the note's payment-terms template onto its stored totals.
// The result is derived on every call and never persisted here.
func (s *Service) Schedule(ctx context.Context, id int64) ([]composer.Installment, error) {
	note, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.PaymentTermsID <= 0 {
		return nil, httpx.NewFieldError("payment_terms_id", "note has no payment-terms template")
	}
	tpl, err := s.terms.GetTemplate(ctx, note.PaymentTermsID)
	if err != nil {
		return nil, fmt.Errorf("resolve payment terms: %w", err)
	}
	return composer.DeriveInstallments(note.Composed(), tpl.Installments), nil
}

type composeRequest struct {
	header         composer.Header
	freightMode    composer.FreightMode
	freight        float64
	insurance      float64
	other          float64
	paymentTermsID int64
	notes          string
	lines          []LineRequest
}

func composeInput(req CreateNoteRequest) composeRequest {
	mode := composer.FreightMode(req.FreightMode)
	if req.FreightMode == "" {
		mode = composer.FreightNone
	}
	return composeRequest{
		header: composer.Header{
			Number:         req.Number,
			Model:          req.Model,
			Series:         req.Series,
			CounterpartyID: req.CounterpartyID,
			IssueDate:      req.IssueDate,
			ArrivalDate:    req.ArrivalDate,
		},
		freightMode:    mode,
		freight:        req.FreightAmount,
		insurance:      req.InsuranceAmount,
		other:          req.OtherExpensesAmount,
		paymentTermsID: req.PaymentTermsID,
		notes:          req.Notes,
		lines:          req.Lines,
	}
}

// compose replays the submission through the document transitions: header,
// then each line (merging duplicates and clamping discounts), then freight.
func (s *Service) compose(ctx context.Context, in composeRequest) (composer.Document, error) {
	doc := composer.ApplyHeader(composer.NewDocument(), in.header)

	for _, line := range in.lines {
		item, err := s.catalog.Lookup(ctx, line.ProductID)
		if err != nil {
			return composer.Document{}, fmt.Errorf("resolve product %d: %w", line.ProductID, err)
		}
		doc, err = composer.CommitLine(doc, composer.StagedLine{
			ProductID: item.ID,
			Code:      item.Code,
			Name:      item.Name,
			UnitCode:  item.UnitCode,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Discount:  line.Discount,
		})
		if err != nil {
			return composer.Document{}, err
		}
	}

	if in.freightMode != composer.FreightNone {
		var err error
		doc, err = composer.SetFreightMode(doc, in.freightMode)
		if err != nil {
			return composer.Document{}, err
		}
		doc, err = composer.SetFreightAmounts(doc, in.freight, in.insurance, in.other)
		if err != nil {
			return composer.Document{}, err
		}
	}

	doc = composer.SetPaymentTerms(doc, in.paymentTermsID)
	doc = composer.SetNotes(doc, in.notes)

	if err := composer.Validate(doc, s.now()); err != nil {
		return composer.Document{}, err
	}
	return doc, nil
}

func noteFromDocument(doc composer.Document) Note {
	note := Note{
		Number:              doc.Header.Number,
		Model:               doc.Header.Model,
		Series:              doc.Header.Series,
		CounterpartyID:      doc.Header.CounterpartyID,
		IssueDate:           doc.Header.IssueDate,
		ArrivalDate:         doc.Header.ArrivalDate,
		FreightMode:         doc.FreightMode,
		FreightAmount:       doc.FreightAmount,
		InsuranceAmount:     doc.InsuranceAmount,
		OtherExpensesAmount: doc.OtherExpensesAmount,
		PaymentTermsID:      doc.PaymentTermsID,
		LinesTotal:          composer.LinesTotal(doc),
		GrandTotal:          composer.GrandTotal(doc),
		Notes:               doc.Notes,
	}
	for _, line := range doc.Lines {
		note.Lines = append(note.Lines, NoteLine{
			LineUID:   line.ID,
			ProductID: line.ProductID,
			Code:      line.Code,
			Name:      line.Name,
			UnitCode:  line.UnitCode,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Discount:  line.Discount,
			Total:     line.Total,
		})
	}
	return note
}
