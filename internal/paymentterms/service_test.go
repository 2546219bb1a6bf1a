package paymentterms

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

type mockTermsRepo struct {
	templates map[int64]Template
	nextID    int64
	getCalls  int
	failGet   error
}

func newMockTermsRepo() *mockTermsRepo {
	return &mockTermsRepo{templates: make(map[int64]Template), nextID: 1}
}

func (m *mockTermsRepo) ListMethods(ctx context.Context) ([]PaymentMethod, error) {
	return []PaymentMethod{{ID: 1, Code: "BOLETO", Name: "Boleto"}}, nil
}

func (m *mockTermsRepo) ListTemplates(ctx context.Context, activeOnly bool) ([]Template, error) {
	var out []Template
	for _, t := range m.templates {
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTermsRepo) GetTemplate(ctx context.Context, id int64) (Template, error) {
	m.getCalls++
	if m.failGet != nil {
		return Template{}, m.failGet
	}
	t, ok := m.templates[id]
	if !ok {
		return Template{}, httpx.ErrNotFound
	}
	return t, nil
}

func (m *mockTermsRepo) CreateTemplate(ctx context.Context, t Template) (int64, error) {
	id := m.nextID
	m.nextID++
	t.ID = id
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.templates[id] = t
	return id, nil
}

func (m *mockTermsRepo) ReplaceTemplate(ctx context.Context, id int64, t Template) error {
	if _, ok := m.templates[id]; !ok {
		return httpx.ErrNotFound
	}
	t.ID = id
	t.UpdatedAt = time.Now()
	m.templates[id] = t
	return nil
}

func (m *mockTermsRepo) DeactivateTemplate(ctx context.Context, id int64) error {
	t, ok := m.templates[id]
	if !ok {
		return httpx.ErrNotFound
	}
	t.IsActive = false
	m.templates[id] = t
	return nil
}

func offset(d int) *int { return &d }

func newTestService(t *testing.T) (*Service, *mockTermsRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMockTermsRepo()
	svc := NewService(repo, NewCache(client, time.Minute), slog.Default())
	return svc, repo, mr
}

func TestCreateTemplateRejectsBadPercentSum(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateTemplate(context.Background(), Template{
		Name: "60/30",
		Installments: []InstallmentDef{
			{Sequence: 1, Percentage: 60, DayOffset: offset(0), PaymentMethodID: 1},
			{Sequence: 2, Percentage: 30, DayOffset: offset(30), PaymentMethodID: 1},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestCreateTemplateRejectsDuplicateSequence(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateTemplate(context.Background(), Template{
		Name: "dup",
		Installments: []InstallmentDef{
			{Sequence: 1, Percentage: 50, DayOffset: offset(0), PaymentMethodID: 1},
			{Sequence: 1, Percentage: 50, DayOffset: offset(30), PaymentMethodID: 1},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestCreateTemplateRequiresName(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateTemplate(context.Background(), Template{
		Name: "  ",
		Installments: []InstallmentDef{
			{Sequence: 1, Percentage: 100, DayOffset: offset(0), PaymentMethodID: 1},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestCreateTemplateRoundTrip(t *testing.T) {
	svc, repo, _ := newTestService(t)

	created, err := svc.CreateTemplate(context.Background(), Template{
		Name: "Entrada + 30",
		Installments: []InstallmentDef{
			{Sequence: 1, Percentage: 50, DayOffset: offset(0), PaymentMethodID: 1},
			{Sequence: 2, Percentage: 50, DayOffset: offset(30), PaymentMethodID: 1},
		},
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.Len(t, created.Installments, 2)
	assert.Len(t, repo.templates, 1)
}

func TestCreateTemplateAcceptsToleranceSplit(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateTemplate(context.Background(), Template{
		Name: "3x sem juros",
		Installments: []InstallmentDef{
			{Sequence: 1, Percentage: 33.33, DayOffset: offset(0), PaymentMethodID: 1},
			{Sequence: 2, Percentage: 33.33, DayOffset: offset(30), PaymentMethodID: 1},
			{Sequence: 3, Percentage: 33.34, DayOffset: offset(60), PaymentMethodID: 1},
		},
	})
	require.NoError(t, err)
}

func TestGetTemplateReadsThroughCache(t *testing.T) {
	svc, repo, _ := newTestService(t)

	created, err := svc.CreateTemplate(context.Background(), Template{
		Name: "A vista",
		Installments: []InstallmentDef{
			{Sequence: 1, Percentage: 100, DayOffset: offset(0), PaymentMethodID: 1},
		},
	})
	require.NoError(t, err)

	callsAfterCreate := repo.getCalls

	first, err := svc.GetTemplate(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, first.Name)

	second, err := svc.GetTemplate(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Second read must come from Redis, not the repository.
	assert.Equal(t, callsAfterCreate+1, repo.getCalls)
}

func TestUpdateTemplateBumpsCacheVersion(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.CreateTemplate(context.Background(), Template{
		Name: "A vista",
		Installments: []InstallmentDef{
			{Sequence: 1, Percentage: 100, DayOffset: offset(0), PaymentMethodID: 1},
		},
	})
	require.NoError(t, err)

	_, err = svc.GetTemplate(context.Background(), created.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateTemplate(context.Background(), created.ID, Template{
		Name:     "A vista revisada",
		IsActive: true,
		Installments: []InstallmentDef{
			{Sequence: 1, Percentage: 100, DayOffset: offset(0), PaymentMethodID: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "A vista revisada", updated.Name)

	fresh, err := svc.GetTemplate(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A vista revisada", fresh.Name)
}

func TestGetTemplateNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetTemplate(context.Background(), 99)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestDeactivateTemplate(t *testing.T) {
	svc, repo, _ := newTestService(t)

	created, err := svc.CreateTemplate(context.Background(), Template{
		Name: "Obsoleta",
		Installments: []InstallmentDef{
			{Sequence: 1, Percentage: 100, DayOffset: offset(0), PaymentMethodID: 1},
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateTemplate(context.Background(), created.ID))
	assert.False(t, repo.templates[created.ID].IsActive)

	active, err := svc.ListTemplates(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, active)
}
