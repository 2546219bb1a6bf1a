package finance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mercantil-erp/mercantil-erp/internal/notes"
	"github.com/mercantil-erp/mercantil-erp/internal/notes/composer"
	"github.com/mercantil-erp/mercantil-erp/internal/paymentterms"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

// NoteSource supplies the posted notes schedules are generated from.
type NoteSource interface {
	Get(ctx context.Context, id int64) (notes.Note, error)
}

// TermsProvider resolves payment-terms templates.
type TermsProvider interface {
	GetTemplate(ctx context.Context, id int64) (paymentterms.Template, error)
}

// Service materializes and settles the payable/receivable ledger.
type Service struct {
	repo   Repository
	notes  NoteSource
	terms  TermsProvider
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, noteSource NoteSource, terms TermsProvider, logger *slog.Logger) *Service {
	return &Service{repo: repo, notes: noteSource, terms: terms, logger: logger, now: time.Now}
}

// GenerateSchedule materializes the installment schedule of a posted note.
// Entry notes produce payables, exit notes receivables. Generation is
// idempotent: a note that already has installments is left alone, so task
// retries and the backfill scan cannot double-book.
func (s *Service) GenerateSchedule(ctx context.Context, noteID int64) error {
	note, err := s.notes.Get(ctx, noteID)
	if err != nil {
		return fmt.Errorf("load note %d: %w", noteID, err)
	}
	if note.Status != notes.StatusPosted {
		return fmt.Errorf("%w: note %d is %s", httpx.ErrInvalidStatus, noteID, note.Status)
	}

	exists, err := s.repo.ExistsForNote(ctx, noteID)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Debug("schedule already generated", slog.Int64("note_id", noteID))
		return nil
	}

	tpl, err := s.terms.GetTemplate(ctx, note.PaymentTermsID)
	if err != nil {
		return fmt.Errorf("resolve payment terms %d: %w", note.PaymentTermsID, err)
	}

	kind := KindReceivable
	if note.Kind == notes.KindEntry {
		kind = KindPayable
	}

	derived := composer.DeriveInstallments(note.Composed(), tpl.Installments)
	installments := make([]Installment, 0, len(derived))
	for _, d := range derived {
		installments = append(installments, Installment{
			NoteID:          noteID,
			Kind:            kind,
			CounterpartyID:  note.CounterpartyID,
			Sequence:        d.Sequence,
			Amount:          d.Amount,
			DueDate:         d.DueDate,
			PaymentMethodID: d.PaymentMethodID,
			Status:          StatusOpen,
		})
	}
	if err := s.repo.CreateBatch(ctx, installments); err != nil {
		return fmt.Errorf("store schedule for note %d: %w", noteID, err)
	}
	s.logger.Info("installment schedule generated",
		slog.Int64("note_id", noteID),
		slog.String("kind", string(kind)),
		slog.Int("installments", len(installments)))
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (Installment, error) {
	if id <= 0 {
		return Installment{}, fmt.Errorf("%w: invalid installment id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Installment, int, error) {
	if filters.Kind != "" && !filters.Kind.Valid() {
		return nil, 0, httpx.NewFieldError("kind", "kind must be PAYABLE or RECEIVABLE")
	}
	return s.repo.List(ctx, filters)
}

// Settle marks an open installment paid.
func (s *Service) Settle(ctx context.Context, id int64, paidAt time.Time) (Installment, error) {
	if id <= 0 {
		return Installment{}, fmt.Errorf("%w: invalid installment id", httpx.ErrValidation)
	}
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	if err := s.repo.Settle(ctx, id, paidAt); err != nil {
		return Installment{}, err
	}
	return s.repo.Get(ctx, id)
}

// Reopen reverts a settlement recorded by mistake.
func (s *Service) Reopen(ctx context.Context, id int64) (Installment, error) {
	if id <= 0 {
		return Installment{}, fmt.Errorf("%w: invalid installment id", httpx.ErrValidation)
	}
	if err := s.repo.Reopen(ctx, id); err != nil {
		return Installment{}, err
	}
	return s.repo.Get(ctx, id)
}

// CancelForNote withdraws every open installment of a cancelled note. Paid
// installments stay paid; money already settled is not un-settled here.
func (s *Service) CancelForNote(ctx context.Context, noteID int64) error {
	if noteID <= 0 {
		return fmt.Errorf("%w: invalid note id", httpx.ErrValidation)
	}
	cancelled, err := s.repo.CancelForNote(ctx, noteID)
	if err != nil {
		return err
	}
	s.logger.Info("installments cancelled", slog.Int64("note_id", noteID), slog.Int64("count", cancelled))
	return nil
}

// Aging groups open installments by days past due, as of the given date.
func (s *Service) Aging(ctx context.Context, kind InstallmentKind, asOf time.Time) (AgingReport, error) {
	if !kind.Valid() {
		return AgingReport{}, httpx.NewFieldError("kind", "kind must be PAYABLE or RECEIVABLE")
	}
	outstanding, err := s.repo.ListOutstanding(ctx, kind)
	if err != nil {
		return AgingReport{}, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}

	var report AgingReport
	for _, inst := range outstanding {
		if inst.DueDate == nil {
			report.Undetermined += inst.Amount
			continue
		}
		days := int(asOf.Sub(*inst.DueDate).Hours() / 24)
		switch {
		case days <= 0:
			report.Current += inst.Amount
		case days <= 30:
			report.Bucket30 += inst.Amount
		case days <= 60:
			report.Bucket60 += inst.Amount
		case days <= 90:
			report.Bucket90 += inst.Amount
		default:
			report.Bucket120 += inst.Amount
		}
	}
	return report, nil
}

// AgingOverview assembles both ledgers' aging reports concurrently.
func (s *Service) AgingOverview(ctx context.Context, asOf time.Time) (AgingOverview, error) {
	var overview AgingOverview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report, err := s.Aging(ctx, KindPayable, asOf)
		overview.Payables = report
		return err
	})
	g.Go(func() error {
		report, err := s.Aging(ctx, KindReceivable, asOf)
		overview.Receivables = report
		return err
	})
	if err := g.Wait(); err != nil {
		return AgingOverview{}, err
	}
	return overview, nil
}

// Overdue reports per-counterparty totals of open installments past due.
func (s *Service) Overdue(ctx context.Context, asOf time.Time) ([]OverdueSummary, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	return s.repo.OverdueSummaries(ctx, asOf)
}

// OverdueScan is the daily worker entry point: it backfills schedules for
// posted notes that lost their enqueue, then logs the overdue picture.
func (s *Service) OverdueScan(ctx context.Context) error {
	missing, err := s.repo.PostedNotesWithoutSchedule(ctx)
	if err != nil {
		return fmt.Errorf("find notes without schedule: %w", err)
	}
	for _, noteID := range missing {
		if err := s.GenerateSchedule(ctx, noteID); err != nil {
			s.logger.Error("backfill schedule", slog.Int64("note_id", noteID), slog.Any("error", err))
		}
	}

	summaries, err := s.Overdue(ctx, s.now())
	if err != nil {
		return err
	}
	for _, summary := range summaries {
		s.logger.Warn("overdue installments",
			slog.Int64("counterparty_id", summary.CounterpartyID),
			slog.String("kind", string(summary.Kind)),
			slog.Int("count", summary.Count),
			slog.Float64("total", summary.Total))
	}
	return nil
}
