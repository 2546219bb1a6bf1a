package composer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func readyDocument() Document {
	return ApplyHeader(NewDocument(), Header{
		Number:         "1042",
		Model:          "55",
		Series:         "1",
		CounterpartyID: 7,
		IssueDate:      date(2024, time.January, 10),
		ArrivalDate:    date(2024, time.January, 12),
	})
}

func TestCommitLineRequiresCompleteHeader(t *testing.T) {
	d := NewDocument()

	_, err := CommitLine(d, StagedLine{ProductID: 1, Quantity: 1, UnitPrice: 10})
	assert.ErrorIs(t, err, ErrHeaderIncomplete)

	partial := ApplyHeader(d, Header{Number: "1", Model: "55", Series: "1"})
	assert.False(t, partial.HeaderComplete())
	_, err = CommitLine(partial, StagedLine{ProductID: 1, Quantity: 1, UnitPrice: 10})
	assert.ErrorIs(t, err, ErrHeaderIncomplete)

	assert.True(t, readyDocument().HeaderComplete())
}

func TestCommitLineValidatesInputs(t *testing.T) {
	d := readyDocument()

	_, err := CommitLine(d, StagedLine{ProductID: 0, Quantity: 1, UnitPrice: 10})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = CommitLine(d, StagedLine{ProductID: 1, Quantity: 0, UnitPrice: 10})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = CommitLine(d, StagedLine{ProductID: 1, Quantity: 1, UnitPrice: 0})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCommitLineComputesTotal(t *testing.T) {
	d := readyDocument()

	d, err := CommitLine(d, StagedLine{
		ProductID: 1, Code: "P-001", Name: "Parafuso", UnitCode: "CX",
		Quantity: 3, UnitPrice: 19.9, Discount: 5,
	})
	require.NoError(t, err)
	require.Len(t, d.Lines, 1)

	line := d.Lines[0]
	assert.NotEmpty(t, line.ID)
	assert.InDelta(t, 54.70, line.Total, 0.001)
	assert.LessOrEqual(t, line.Discount, line.Quantity*line.UnitPrice)
}

func TestCommitLineClampsDiscount(t *testing.T) {
	d := readyDocument()

	// Discount above the subtotal is silently reduced, never retained.
	d, err := CommitLine(d, StagedLine{ProductID: 1, Quantity: 2, UnitPrice: 10, Discount: 35})
	require.NoError(t, err)
	assert.Equal(t, 20.0, d.Lines[0].Discount)
	assert.Equal(t, 0.0, d.Lines[0].Total)

	d, err = CommitLine(d, StagedLine{ProductID: 2, Quantity: 1, UnitPrice: 10, Discount: -3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, d.Lines[1].Discount)
}

func TestCommitLineMergesSameProduct(t *testing.T) {
	d := readyDocument()

	d, err := CommitLine(d, StagedLine{ProductID: 1, Code: "P-001", Quantity: 2, UnitPrice: 10, Discount: 4})
	require.NoError(t, err)

	d, err = CommitLine(d, StagedLine{ProductID: 1, Code: "P-001", Quantity: 3, UnitPrice: 10, Discount: 7})
	require.NoError(t, err)

	require.Len(t, d.Lines, 1, "same product must merge, not duplicate")
	line := d.Lines[0]
	assert.Equal(t, 5.0, line.Quantity)
	assert.Equal(t, 7.0, line.Discount, "discount is replaced, not added")
	assert.Equal(t, 43.0, line.Total)
}

func TestCommitLineDoesNotMutatePrior(t *testing.T) {
	before := readyDocument()
	before, err := CommitLine(before, StagedLine{ProductID: 1, Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)

	after, err := CommitLine(before, StagedLine{ProductID: 2, Quantity: 1, UnitPrice: 5})
	require.NoError(t, err)

	assert.Len(t, before.Lines, 1)
	assert.Len(t, after.Lines, 2)

	merged, err := CommitLine(after, StagedLine{ProductID: 1, Quantity: 4, UnitPrice: 10})
	require.NoError(t, err)
	assert.Equal(t, 1.0, after.Lines[0].Quantity)
	assert.Equal(t, 5.0, merged.Lines[0].Quantity)
}

func TestRemoveLine(t *testing.T) {
	d := readyDocument()
	d, err := CommitLine(d, StagedLine{ProductID: 1, Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)
	d, err = CommitLine(d, StagedLine{ProductID: 2, Quantity: 2, UnitPrice: 5})
	require.NoError(t, err)

	removed, err := RemoveLine(d, d.Lines[0].ID)
	require.NoError(t, err)
	require.Len(t, removed.Lines, 1)
	assert.Equal(t, int64(2), removed.Lines[0].ProductID)

	_, err = RemoveLine(d, "no-such-line")
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestFreightRequiresLines(t *testing.T) {
	d := readyDocument()
	assert.False(t, d.HasLines())

	_, err := SetFreightMode(d, FreightCIF)
	assert.ErrorIs(t, err, ErrNoLines)
	_, err = SetFreightAmounts(d, 10, 0, 0)
	assert.ErrorIs(t, err, ErrNoLines)

	d, err = CommitLine(d, StagedLine{ProductID: 1, Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)
	assert.True(t, d.HasLines())

	d, err = SetFreightMode(d, FreightCIF)
	require.NoError(t, err)
	_, err = SetFreightAmounts(d, 10, 2, 1)
	require.NoError(t, err)
}

func TestSetFreightModeNoneZeroesAmounts(t *testing.T) {
	d := readyDocument()
	d, err := CommitLine(d, StagedLine{ProductID: 1, Quantity: 1, UnitPrice: 100})
	require.NoError(t, err)

	d, err = SetFreightMode(d, FreightFOB)
	require.NoError(t, err)
	d, err = SetFreightAmounts(d, 12.5, 3, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 117.0, GrandTotal(d))

	d, err = SetFreightMode(d, FreightNone)
	require.NoError(t, err)
	assert.Zero(t, d.FreightAmount)
	assert.Zero(t, d.InsuranceAmount)
	assert.Zero(t, d.OtherExpensesAmount)
	assert.Equal(t, 100.0, GrandTotal(d))
}

func TestSetFreightModeRejectsUnknown(t *testing.T) {
	d := readyDocument()
	d, err := CommitLine(d, StagedLine{ProductID: 1, Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)

	_, err = SetFreightMode(d, FreightMode("EXW"))
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSetFreightAmountsRejectsNegative(t *testing.T) {
	d := readyDocument()
	d, err := CommitLine(d, StagedLine{ProductID: 1, Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)

	_, err = SetFreightAmounts(d, -1, 0, 0)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestValidateReportsAllViolations(t *testing.T) {
	now := date(2024, time.June, 1)

	err := Validate(NewDocument(), now)
	require.Error(t, err)
	var fieldErrs httpx.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	fields := fieldErrs.Map()
	for _, f := range []string{"number", "model", "series", "counterparty_id", "issue_date", "arrival_date", "lines"} {
		assert.Contains(t, fields, f)
	}
}

func TestValidateDateOrdering(t *testing.T) {
	now := date(2024, time.June, 1)

	d := readyDocument()
	d, err := CommitLine(d, StagedLine{ProductID: 1, Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)
	assert.NoError(t, Validate(d, now))

	future := ApplyHeader(d, Header{
		Number: "1", Model: "55", Series: "1", CounterpartyID: 7,
		IssueDate:   date(2024, time.June, 2),
		ArrivalDate: date(2024, time.June, 3),
	})
	err = Validate(future, now)
	require.Error(t, err)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	inverted := ApplyHeader(d, Header{
		Number: "1", Model: "55", Series: "1", CounterpartyID: 7,
		IssueDate:   date(2024, time.March, 10),
		ArrivalDate: date(2024, time.March, 9),
	})
	err = Validate(inverted, now)
	require.Error(t, err)
	var fieldErrs httpx.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs.Map(), "arrival_date")
}

func TestClampDiscount(t *testing.T) {
	assert.Equal(t, 0.0, ClampDiscount(-5, 2, 10))
	assert.Equal(t, 20.0, ClampDiscount(25, 2, 10))
	assert.Equal(t, 15.0, ClampDiscount(15, 2, 10))
}
