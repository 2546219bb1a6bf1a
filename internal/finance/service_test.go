package finance

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercantil-erp/mercantil-erp/internal/notes"
	"github.com/mercantil-erp/mercantil-erp/internal/paymentterms"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
	_ "github.com/mercantil-erp/mercantil-erp/testing"
)

type mockFinanceRepo struct {
	installments map[int64]Installment
	nextID       int64
	unscheduled  []int64
	failBatch    error
}

func newMockFinanceRepo() *mockFinanceRepo {
	return &mockFinanceRepo{installments: make(map[int64]Installment), nextID: 1}
}

func (m *mockFinanceRepo) CreateBatch(ctx context.Context, installments []Installment) error {
	if m.failBatch != nil {
		return m.failBatch
	}
	for _, inst := range installments {
		inst.ID = m.nextID
		m.nextID++
		inst.CreatedAt = time.Now()
		inst.UpdatedAt = inst.CreatedAt
		m.installments[inst.ID] = inst
	}
	return nil
}

func (m *mockFinanceRepo) ExistsForNote(ctx context.Context, noteID int64) (bool, error) {
	for _, inst := range m.installments {
		if inst.NoteID == noteID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockFinanceRepo) Get(ctx context.Context, id int64) (Installment, error) {
	inst, ok := m.installments[id]
	if !ok {
		return Installment{}, httpx.ErrNotFound
	}
	return inst, nil
}

func (m *mockFinanceRepo) List(ctx context.Context, filters ListFilters) ([]Installment, int, error) {
	var out []Installment
	for _, inst := range m.installments {
		if filters.Kind != "" && inst.Kind != filters.Kind {
			continue
		}
		if filters.Status != "" && inst.Status != filters.Status {
			continue
		}
		if filters.NoteID > 0 && inst.NoteID != filters.NoteID {
			continue
		}
		out = append(out, inst)
	}
	return out, len(out), nil
}

func (m *mockFinanceRepo) ListOutstanding(ctx context.Context, kind InstallmentKind) ([]Installment, error) {
	var out []Installment
	for _, inst := range m.installments {
		if inst.Status == StatusOpen && inst.Kind == kind {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (m *mockFinanceRepo) Settle(ctx context.Context, id int64, paidAt time.Time) error {
	inst, ok := m.installments[id]
	if !ok {
		return httpx.ErrNotFound
	}
	if inst.Status != StatusOpen {
		return httpx.ErrInvalidStatus
	}
	inst.Status = StatusPaid
	inst.PaidAt = &paidAt
	m.installments[id] = inst
	return nil
}

func (m *mockFinanceRepo) Reopen(ctx context.Context, id int64) error {
	inst, ok := m.installments[id]
	if !ok {
		return httpx.ErrNotFound
	}
	if inst.Status != StatusPaid {
		return httpx.ErrInvalidStatus
	}
	inst.Status = StatusOpen
	inst.PaidAt = nil
	m.installments[id] = inst
	return nil
}

func (m *mockFinanceRepo) CancelForNote(ctx context.Context, noteID int64) (int64, error) {
	var count int64
	for id, inst := range m.installments {
		if inst.NoteID == noteID && inst.Status == StatusOpen {
			inst.Status = StatusCancelled
			m.installments[id] = inst
			count++
		}
	}
	return count, nil
}

func (m *mockFinanceRepo) OverdueSummaries(ctx context.Context, asOf time.Time) ([]OverdueSummary, error) {
	byKey := make(map[int64]*OverdueSummary)
	for _, inst := range m.installments {
		if inst.Status != StatusOpen || inst.DueDate == nil || !inst.DueDate.Before(asOf) {
			continue
		}
		s, ok := byKey[inst.CounterpartyID]
		if !ok {
			s = &OverdueSummary{CounterpartyID: inst.CounterpartyID, Kind: inst.Kind}
			byKey[inst.CounterpartyID] = s
		}
		s.Count++
		s.Total += inst.Amount
	}
	var out []OverdueSummary
	for _, s := range byKey {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockFinanceRepo) PostedNotesWithoutSchedule(ctx context.Context) ([]int64, error) {
	return m.unscheduled, nil
}

type mockNoteSource struct {
	notes map[int64]notes.Note
}

func (m *mockNoteSource) Get(ctx context.Context, id int64) (notes.Note, error) {
	n, ok := m.notes[id]
	if !ok {
		return notes.Note{}, httpx.ErrNotFound
	}
	return n, nil
}

type mockTermsSource struct {
	templates map[int64]paymentterms.Template
}

func (m *mockTermsSource) GetTemplate(ctx context.Context, id int64) (paymentterms.Template, error) {
	tpl, ok := m.templates[id]
	if !ok {
		return paymentterms.Template{}, httpx.ErrNotFound
	}
	return tpl, nil
}

func offsetDays(n int) *int { return &n }

func postedNote(id int64, kind notes.Kind) notes.Note {
	return notes.Note{
		ID:             id,
		Kind:           kind,
		Status:         notes.StatusPosted,
		Number:         "1042",
		Model:          "55",
		Series:         "1",
		CounterpartyID: 7,
		IssueDate:      time.Date(2024, time.January, 10, 0, 0, 0, 0, time.Local),
		ArrivalDate:    time.Date(2024, time.January, 12, 0, 0, 0, 0, time.Local),
		PaymentTermsID: 10,
		Lines: []notes.NoteLine{
			{LineUID: "a", ProductID: 1, Quantity: 2, UnitPrice: 100, Total: 200},
		},
		LinesTotal: 200,
		GrandTotal: 200,
	}
}

type financeFixture struct {
	svc  *Service
	repo *mockFinanceRepo
	src  *mockNoteSource
}

func newFinanceFixture(t *testing.T) financeFixture {
	t.Helper()
	repo := newMockFinanceRepo()
	src := &mockNoteSource{notes: map[int64]notes.Note{
		1: postedNote(1, notes.KindEntry),
		2: postedNote(2, notes.KindExit),
	}}
	terms := &mockTermsSource{templates: map[int64]paymentterms.Template{
		10: {ID: 10, Name: "50/50", Installments: []paymentterms.InstallmentDef{
			{Sequence: 1, Percentage: 50, DayOffset: offsetDays(0), PaymentMethodID: 1},
			{Sequence: 2, Percentage: 50, DayOffset: offsetDays(30), PaymentMethodID: 1},
		}},
	}}
	svc := NewService(repo, src, terms, slog.Default())
	svc.now = func() time.Time { return time.Date(2024, time.March, 1, 0, 0, 0, 0, time.Local) }
	return financeFixture{svc: svc, repo: repo, src: src}
}

func TestGenerateScheduleForEntryNote(t *testing.T) {
	f := newFinanceFixture(t)

	require.NoError(t, f.svc.GenerateSchedule(context.Background(), 1))

	insts, _, err := f.svc.List(context.Background(), ListFilters{NoteID: 1})
	require.NoError(t, err)
	require.Len(t, insts, 2)
	for _, inst := range insts {
		assert.Equal(t, KindPayable, inst.Kind)
		assert.Equal(t, StatusOpen, inst.Status)
		assert.Equal(t, 100.0, inst.Amount)
		assert.Equal(t, int64(7), inst.CounterpartyID)
		require.NotNil(t, inst.DueDate)
	}
}

func TestGenerateScheduleForExitNote(t *testing.T) {
	f := newFinanceFixture(t)

	require.NoError(t, f.svc.GenerateSchedule(context.Background(), 2))

	insts, _, err := f.svc.List(context.Background(), ListFilters{NoteID: 2})
	require.NoError(t, err)
	require.Len(t, insts, 2)
	assert.Equal(t, KindReceivable, insts[0].Kind)
}

func TestGenerateScheduleIsIdempotent(t *testing.T) {
	f := newFinanceFixture(t)

	require.NoError(t, f.svc.GenerateSchedule(context.Background(), 1))
	require.NoError(t, f.svc.GenerateSchedule(context.Background(), 1))

	insts, _, err := f.svc.List(context.Background(), ListFilters{NoteID: 1})
	require.NoError(t, err)
	assert.Len(t, insts, 2)
}

func TestGenerateScheduleRejectsDrafts(t *testing.T) {
	f := newFinanceFixture(t)
	draft := postedNote(3, notes.KindEntry)
	draft.Status = notes.StatusDraft
	f.src.notes[3] = draft

	err := f.svc.GenerateSchedule(context.Background(), 3)
	assert.ErrorIs(t, err, httpx.ErrInvalidStatus)
}

func TestSettleAndReopen(t *testing.T) {
	f := newFinanceFixture(t)
	require.NoError(t, f.svc.GenerateSchedule(context.Background(), 1))

	paid, err := f.svc.Settle(context.Background(), 1, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = f.svc.Settle(context.Background(), 1, time.Time{})
	assert.ErrorIs(t, err, httpx.ErrInvalidStatus)

	reopened, err := f.svc.Reopen(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, reopened.Status)
	assert.Nil(t, reopened.PaidAt)
}

func TestCancelForNoteLeavesPaidAlone(t *testing.T) {
	f := newFinanceFixture(t)
	require.NoError(t, f.svc.GenerateSchedule(context.Background(), 1))

	_, err := f.svc.Settle(context.Background(), 1, time.Time{})
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelForNote(context.Background(), 1))

	first, err := f.svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, first.Status)

	second, err := f.svc.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, second.Status)
}

func TestAgingBucketsByDaysPastDue(t *testing.T) {
	f := newFinanceFixture(t)
	due := func(d time.Time) *time.Time { return &d }

	require.NoError(t, f.repo.CreateBatch(context.Background(), []Installment{
		{NoteID: 1, Kind: KindReceivable, Status: StatusOpen, Amount: 10,
			DueDate: due(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.Local))},
		{NoteID: 1, Kind: KindReceivable, Status: StatusOpen, Amount: 20,
			DueDate: due(time.Date(2024, time.February, 10, 0, 0, 0, 0, time.Local))},
		{NoteID: 1, Kind: KindReceivable, Status: StatusOpen, Amount: 30,
			DueDate: due(time.Date(2023, time.October, 1, 0, 0, 0, 0, time.Local))},
		{NoteID: 1, Kind: KindReceivable, Status: StatusOpen, Amount: 40, DueDate: nil},
	}))

	report, err := f.svc.Aging(context.Background(), KindReceivable, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 10.0, report.Current)
	assert.Equal(t, 20.0, report.Bucket30)
	assert.Equal(t, 30.0, report.Bucket120)
	assert.Equal(t, 40.0, report.Undetermined)
}

func TestAgingOverviewCoversBothLedgers(t *testing.T) {
	f := newFinanceFixture(t)
	require.NoError(t, f.svc.GenerateSchedule(context.Background(), 1))
	require.NoError(t, f.svc.GenerateSchedule(context.Background(), 2))

	overview, err := f.svc.AgingOverview(context.Background(), time.Time{})
	require.NoError(t, err)
	// Both notes' installments are past due at the fixture's as-of date.
	assert.Equal(t, 200.0, overview.Payables.Bucket30+overview.Payables.Bucket60+overview.Payables.Bucket120+overview.Payables.Current)
	assert.Equal(t, 200.0, overview.Receivables.Bucket30+overview.Receivables.Bucket60+overview.Receivables.Bucket120+overview.Receivables.Current)
}

func TestAgingRejectsUnknownKind(t *testing.T) {
	f := newFinanceFixture(t)
	_, err := f.svc.Aging(context.Background(), InstallmentKind("BOTH"), time.Time{})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestOverdueScanBackfillsMissingSchedules(t *testing.T) {
	f := newFinanceFixture(t)
	f.repo.unscheduled = []int64{1}

	require.NoError(t, f.svc.OverdueScan(context.Background()))

	insts, _, err := f.svc.List(context.Background(), ListFilters{NoteID: 1})
	require.NoError(t, err)
	assert.Len(t, insts, 2)
}

func TestOverdueSummaries(t *testing.T) {
	f := newFinanceFixture(t)
	require.NoError(t, f.svc.GenerateSchedule(context.Background(), 1))

	// Both installments (due Jan 10 and Feb 9) are past the fixture's
	// as-of date of Mar 1.
	summaries, err := f.svc.Overdue(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(7), summaries[0].CounterpartyID)
	assert.Equal(t, 2, summaries[0].Count)
	assert.Equal(t, 200.0, summaries[0].Total)
}

func TestGenerateScheduleUnknownNote(t *testing.T) {
	f := newFinanceFixture(t)
	err := f.svc.GenerateSchedule(context.Background(), 99)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}
