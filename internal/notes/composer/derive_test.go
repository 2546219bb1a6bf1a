package composer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercantil-erp/mercantil-erp/internal/paymentterms"
)

func days(n int) *int { return &n }

func TestLinesTotalSumsCommittedLines(t *testing.T) {
	d := readyDocument()
	assert.Equal(t, 0.0, LinesTotal(d))

	d, err := CommitLine(d, StagedLine{ProductID: 1, Quantity: 3, UnitPrice: 19.9, Discount: 5})
	require.NoError(t, err)
	d, err = CommitLine(d, StagedLine{ProductID: 2, Quantity: 2, UnitPrice: 7.25})
	require.NoError(t, err)

	assert.InDelta(t, 69.20, LinesTotal(d), 0.001)
}

func TestGrandTotalCountsFreightOnlyOutsideNone(t *testing.T) {
	d := readyDocument()
	d, err := CommitLine(d, StagedLine{ProductID: 1, Quantity: 10, UnitPrice: 10})
	require.NoError(t, err)

	// Amounts are ignored while the mode is NONE.
	assert.Equal(t, FreightNone, d.FreightMode)
	assert.Equal(t, 100.0, GrandTotal(d))

	d, err = SetFreightMode(d, FreightCIF)
	require.NoError(t, err)
	d, err = SetFreightAmounts(d, 15, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, 120.0, GrandTotal(d))
}

func TestDeriveInstallmentsFiftyFifty(t *testing.T) {
	d := readyDocument()
	d.Header.IssueDate = time.Date(2024, time.January, 10, 0, 0, 0, 0, time.Local)
	d, err := CommitLine(d, StagedLine{ProductID: 1, Quantity: 2, UnitPrice: 100})
	require.NoError(t, err)
	require.Equal(t, 200.0, GrandTotal(d))

	defs := []paymentterms.InstallmentDef{
		{Sequence: 1, Percentage: 50, DayOffset: days(0), PaymentMethodID: 1},
		{Sequence: 2, Percentage: 50, DayOffset: days(30), PaymentMethodID: 2},
	}
	insts := DeriveInstallments(d, defs)
	require.Len(t, insts, 2)

	assert.Equal(t, 100.0, insts[0].Amount)
	require.NotNil(t, insts[0].DueDate)
	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.Local), *insts[0].DueDate)

	assert.Equal(t, 100.0, insts[1].Amount)
	require.NotNil(t, insts[1].DueDate)
	assert.Equal(t, time.Date(2024, time.February, 9, 0, 0, 0, 0, time.Local), *insts[1].DueDate)
	assert.Equal(t, int64(2), insts[1].PaymentMethodID)
}

func TestDeriveInstallmentsRoundsAmounts(t *testing.T) {
	d := readyDocument()
	d, err := CommitLine(d, StagedLine{ProductID: 1, Quantity: 1, UnitPrice: 100})
	require.NoError(t, err)

	defs := []paymentterms.InstallmentDef{
		{Sequence: 1, Percentage: 33.33, DayOffset: days(0), PaymentMethodID: 1},
		{Sequence: 2, Percentage: 33.33, DayOffset: days(30), PaymentMethodID: 1},
		{Sequence: 3, Percentage: 33.34, DayOffset: days(60), PaymentMethodID: 1},
	}
	insts := DeriveInstallments(d, defs)
	require.Len(t, insts, 3)
	assert.InDelta(t, 33.33, insts[0].Amount, 0.0001)
	assert.InDelta(t, 33.33, insts[1].Amount, 0.0001)
	assert.InDelta(t, 33.34, insts[2].Amount, 0.0001)
}

func TestDeriveInstallmentsToBeDetermined(t *testing.T) {
	d := readyDocument()
	d, err := CommitLine(d, StagedLine{ProductID: 1, Quantity: 1, UnitPrice: 50})
	require.NoError(t, err)

	// Missing day offset: the amount is still computed, the date is not.
	insts := DeriveInstallments(d, []paymentterms.InstallmentDef{
		{Sequence: 1, Percentage: 100, DayOffset: nil, PaymentMethodID: 1},
	})
	require.Len(t, insts, 1)
	assert.Equal(t, 50.0, insts[0].Amount)
	assert.Nil(t, insts[0].DueDate)

	// Missing issue date behaves the same way.
	d.Header.IssueDate = time.Time{}
	insts = DeriveInstallments(d, []paymentterms.InstallmentDef{
		{Sequence: 1, Percentage: 100, DayOffset: days(10), PaymentMethodID: 1},
	})
	require.Len(t, insts, 1)
	assert.Nil(t, insts[0].DueDate)
}

func TestDeriveInstallmentsNormalizesIssueTime(t *testing.T) {
	d := readyDocument()
	// Late-evening timestamp must not shift the due date across midnight.
	d.Header.IssueDate = time.Date(2024, time.January, 10, 23, 45, 0, 0, time.Local)
	d, err := CommitLine(d, StagedLine{ProductID: 1, Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)

	insts := DeriveInstallments(d, []paymentterms.InstallmentDef{
		{Sequence: 1, Percentage: 100, DayOffset: days(1), PaymentMethodID: 1},
	})
	require.NotNil(t, insts[0].DueDate)
	assert.Equal(t, time.Date(2024, time.January, 11, 0, 0, 0, 0, time.Local), *insts[0].DueDate)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 54.7, Round2(54.699999999999996))
	assert.Equal(t, 2.34, Round2(2.344))
	assert.Equal(t, 2.35, Round2(2.346))
	assert.Equal(t, -2.5, Round2(-2.499))
}
