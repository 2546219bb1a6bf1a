package notes

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/products"
	"github.com/mercantil-erp/mercantil-erp/internal/paymentterms"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
	_ "github.com/mercantil-erp/mercantil-erp/testing"
)

type mockNoteRepo struct {
	notes       map[int64]Note
	nextID      int64
	failCreate  error
	failReplace error
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{notes: make(map[int64]Note), nextID: 1}
}

func (m *mockNoteRepo) Create(ctx context.Context, note Note) (int64, error) {
	if m.failCreate != nil {
		return 0, m.failCreate
	}
	id := m.nextID
	m.nextID++
	note.ID = id
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	m.notes[id] = note
	return id, nil
}

func (m *mockNoteRepo) Replace(ctx context.Context, id int64, note Note) error {
	if m.failReplace != nil {
		return m.failReplace
	}
	existing, ok := m.notes[id]
	if !ok || existing.Status != StatusDraft {
		return httpx.ErrNotFound
	}
	note.ID = id
	note.Kind = existing.Kind
	note.Status = existing.Status
	note.UpdatedAt = time.Now()
	m.notes[id] = note
	return nil
}

func (m *mockNoteRepo) Get(ctx context.Context, id int64) (Note, error) {
	note, ok := m.notes[id]
	if !ok {
		return Note{}, httpx.ErrNotFound
	}
	return note, nil
}

func (m *mockNoteRepo) List(ctx context.Context, filters ListNoteFilters) ([]Note, int, error) {
	var out []Note
	for _, n := range m.notes {
		if filters.Kind != "" && n.Kind != filters.Kind {
			continue
		}
		if filters.Status != "" && n.Status != filters.Status {
			continue
		}
		out = append(out, n)
	}
	return out, len(out), nil
}

func (m *mockNoteRepo) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	note, ok := m.notes[id]
	if !ok {
		return httpx.ErrNotFound
	}
	if note.Status != from {
		return httpx.ErrInvalidStatus
	}
	note.Status = to
	if to == StatusPosted {
		now := time.Now()
		note.PostedAt = &now
	}
	m.notes[id] = note
	return nil
}

type mockCatalog struct {
	items map[int64]products.LookupResult
}

func (m *mockCatalog) Lookup(ctx context.Context, id int64) (products.LookupResult, error) {
	item, ok := m.items[id]
	if !ok {
		return products.LookupResult{}, httpx.ErrNotFound
	}
	return item, nil
}

type mockTerms struct {
	templates map[int64]paymentterms.Template
}

func (m *mockTerms) GetTemplate(ctx context.Context, id int64) (paymentterms.Template, error) {
	tpl, ok := m.templates[id]
	if !ok {
		return paymentterms.Template{}, httpx.ErrNotFound
	}
	return tpl, nil
}

type mockScheduler struct {
	enqueued  []int64
	cancelled []int64
	failNext  error
}

func (m *mockScheduler) EnqueueSchedule(ctx context.Context, noteID int64) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.enqueued = append(m.enqueued, noteID)
	return nil
}

func (m *mockScheduler) CancelSchedule(ctx context.Context, noteID int64) error {
	m.cancelled = append(m.cancelled, noteID)
	return nil
}

func dayOffset(n int) *int { return &n }

type noteFixture struct {
	svc       *Service
	repo      *mockNoteRepo
	scheduler *mockScheduler
}

func newNoteFixture(t *testing.T) noteFixture {
	t.Helper()
	repo := newMockNoteRepo()
	catalog := &mockCatalog{items: map[int64]products.LookupResult{
		1: {ID: 1, Code: "P-001", Name: "Parafuso 5mm", UnitCode: "CX", SalePrice: 19.9},
		2: {ID: 2, Code: "P-002", Name: "Porca 5mm", UnitCode: "UN", SalePrice: 0.5},
	}}
	terms := &mockTerms{templates: map[int64]paymentterms.Template{
		10: {ID: 10, Name: "50/50", IsActive: true, Installments: []paymentterms.InstallmentDef{
			{Sequence: 1, Percentage: 50, DayOffset: dayOffset(0), PaymentMethodID: 1},
			{Sequence: 2, Percentage: 50, DayOffset: dayOffset(30), PaymentMethodID: 1},
		}},
	}}
	scheduler := &mockScheduler{}
	svc := NewService(repo, catalog, terms, scheduler, nil, slog.Default())
	svc.now = func() time.Time { return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.Local) }
	return noteFixture{svc: svc, repo: repo, scheduler: scheduler}
}

func validCreateRequest() CreateNoteRequest {
	return CreateNoteRequest{
		Kind:           KindEntry,
		Number:         "1042",
		Model:          "55",
		Series:         "1",
		CounterpartyID: 7,
		IssueDate:      time.Date(2024, time.January, 10, 0, 0, 0, 0, time.Local),
		ArrivalDate:    time.Date(2024, time.January, 12, 0, 0, 0, 0, time.Local),
		PaymentTermsID: 10,
		Lines: []LineRequest{
			{ProductID: 1, Quantity: 2, UnitPrice: 100},
		},
	}
}

func TestCreateNoteRecomputesTotals(t *testing.T) {
	f := newNoteFixture(t)

	req := validCreateRequest()
	req.Lines = []LineRequest{
		{ProductID: 1, Quantity: 3, UnitPrice: 19.9, Discount: 5},
		{ProductID: 2, Quantity: 10, UnitPrice: 0.5},
	}
	note, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, note.Status)
	assert.InDelta(t, 59.70, note.LinesTotal, 0.001)
	assert.InDelta(t, 59.70, note.GrandTotal, 0.001)
	require.Len(t, note.Lines, 2)
	assert.Equal(t, "Parafuso 5mm", note.Lines[0].Name)
	assert.NotEmpty(t, note.Lines[0].LineUID)
}

func TestCreateNoteMergesDuplicateProducts(t *testing.T) {
	f := newNoteFixture(t)

	req := validCreateRequest()
	req.Lines = []LineRequest{
		{ProductID: 1, Quantity: 2, UnitPrice: 10, Discount: 1},
		{ProductID: 1, Quantity: 3, UnitPrice: 10, Discount: 4},
	}
	note, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, note.Lines, 1)
	assert.Equal(t, 5.0, note.Lines[0].Quantity)
	assert.Equal(t, 4.0, note.Lines[0].Discount)
	assert.Equal(t, 46.0, note.Lines[0].Total)
}

func TestCreateNoteWithFreight(t *testing.T) {
	f := newNoteFixture(t)

	req := validCreateRequest()
	req.FreightMode = "CIF"
	req.FreightAmount = 15
	req.InsuranceAmount = 4
	req.OtherExpensesAmount = 1
	note, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 200.0, note.LinesTotal)
	assert.Equal(t, 220.0, note.GrandTotal)
}

func TestCreateNoteIgnoresFreightAmountsWithoutMode(t *testing.T) {
	f := newNoteFixture(t)

	req := validCreateRequest()
	req.FreightAmount = 99
	note, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Zero(t, note.FreightAmount)
	assert.Equal(t, 200.0, note.GrandTotal)
}

func TestCreateNoteRejectsUnknownProduct(t *testing.T) {
	f := newNoteFixture(t)

	req := validCreateRequest()
	req.Lines = []LineRequest{{ProductID: 99, Quantity: 1, UnitPrice: 10}}
	_, err := f.svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
	assert.Empty(t, f.repo.notes, "a failed submission must not persist anything")
}

func TestCreateNoteRejectsBadDates(t *testing.T) {
	f := newNoteFixture(t)

	req := validCreateRequest()
	req.ArrivalDate = req.IssueDate.AddDate(0, 0, -1)
	_, err := f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	req = validCreateRequest()
	req.IssueDate = time.Date(2024, time.June, 2, 0, 0, 0, 0, time.Local)
	req.ArrivalDate = req.IssueDate
	_, err = f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateNoteOnlyDrafts(t *testing.T) {
	f := newNoteFixture(t)

	created, err := f.svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	_, err = f.svc.Post(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), created.ID, UpdateNoteRequest{
		Number: "2000", Model: "55", Series: "1", CounterpartyID: 7,
		IssueDate:   created.IssueDate,
		ArrivalDate: created.ArrivalDate,
		Lines:       []LineRequest{{ProductID: 1, Quantity: 1, UnitPrice: 10}},
	})
	assert.ErrorIs(t, err, httpx.ErrInvalidStatus)
}

func TestPostNoteEnqueuesSchedule(t *testing.T) {
	f := newNoteFixture(t)

	created, err := f.svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	posted, err := f.svc.Post(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, posted.Status)
	assert.NotNil(t, posted.PostedAt)
	assert.Equal(t, []int64{created.ID}, f.scheduler.enqueued)

	_, err = f.svc.Post(context.Background(), created.ID)
	assert.ErrorIs(t, err, httpx.ErrInvalidStatus)
}

func TestPostNoteRequiresPaymentTerms(t *testing.T) {
	f := newNoteFixture(t)

	req := validCreateRequest()
	req.PaymentTermsID = 0
	created, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.Post(context.Background(), created.ID)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestPostNoteSurvivesEnqueueFailure(t *testing.T) {
	f := newNoteFixture(t)

	created, err := f.svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	f.scheduler.failNext = errors.New("redis down")
	posted, err := f.svc.Post(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, posted.Status)
	assert.Empty(t, f.scheduler.enqueued)
}

func TestCancelPostedNoteWithdrawsSchedule(t *testing.T) {
	f := newNoteFixture(t)

	created, err := f.svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	_, err = f.svc.Post(context.Background(), created.ID)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, []int64{created.ID}, f.scheduler.cancelled)

	_, err = f.svc.Cancel(context.Background(), created.ID)
	assert.ErrorIs(t, err, httpx.ErrInvalidStatus)
}

func TestCancelDraftSkipsScheduleWithdrawal(t *testing.T) {
	f := newNoteFixture(t)

	created, err := f.svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, f.scheduler.cancelled)
}

func TestSchedulePreview(t *testing.T) {
	f := newNoteFixture(t)

	created, err := f.svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	require.Equal(t, 200.0, created.GrandTotal)

	insts, err := f.svc.Schedule(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, insts, 2)
	assert.Equal(t, 100.0, insts[0].Amount)
	require.NotNil(t, insts[1].DueDate)
	assert.Equal(t, time.Date(2024, time.February, 9, 0, 0, 0, 0, time.Local), *insts[1].DueDate)
}
