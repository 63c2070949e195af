package recon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func entry(serial, name string, net float64) PurchaseEntry {
	return PurchaseEntry{SerialNo: serial, Name: name, OriginalNetAmount: net}
}

func TestResolveEntrySimplePayment(t *testing.T) {
	e := entry("S001", "Ram Kumar", 1000)
	pays := NormalizePayments([]Payment{
		{ID: "P1", ReceiptType: ReceiptCash, PaidFor: []Allocation{{SerialNo: "S001", Amount: 400}}},
		{ID: "P2", ReceiptType: ReceiptRTGS, PaidFor: []Allocation{{SerialNo: "S001", Amount: 350}}},
	})

	res := ResolveEntry(e, pays)
	require.Equal(t, 750.0, res.Paid)
	require.Equal(t, 400.0, res.CashPaid)
	require.Equal(t, 350.0, res.RTGSPaid)
	require.Equal(t, 1000.0, res.AdjustedOriginal)
	require.Equal(t, 250.0, res.Outstanding)
}

func TestResolveEntryLegacyCDDistribution(t *testing.T) {
	// One legacy payment with a payment-level discount split 100/300
	// across two entries: the discount distributes proportionally.
	pays := NormalizePayments([]Payment{{
		ID: "P1", ReceiptType: ReceiptCash, TotalCD: 40,
		PaidFor: []Allocation{
			{SerialNo: "S001", Amount: 100},
			{SerialNo: "S002", Amount: 300},
		},
	}})

	a := ResolveEntry(entry("S001", "Ram", 100), pays)
	b := ResolveEntry(entry("S002", "Ram", 300), pays)
	require.Equal(t, 10.0, a.CD)
	require.Equal(t, 30.0, b.CD)
	// Conservation: shares add back up to the payment-level discount.
	require.InDelta(t, 40.0, a.CD+b.CD, 0.02)
}

func TestResolveEntryDirectCDWins(t *testing.T) {
	// Both schemas populated on the same allocation: the per-allocation
	// field wins and the legacy discount is ignored for it.
	pays := NormalizePayments([]Payment{{
		ID: "P1", ReceiptType: ReceiptCash, TotalCD: 99,
		PaidFor: []Allocation{{SerialNo: "S001", Amount: 500, CDAmount: fp(12.5)}},
	}})

	res := ResolveEntry(entry("S001", "Ram", 1000), pays)
	require.Equal(t, 12.5, res.CD)
}

func TestResolveEntryGovExtraAmountAccumulates(t *testing.T) {
	e := entry("S001", "Ram", 1000)
	pays := NormalizePayments([]Payment{
		{ID: "G1", ReceiptType: ReceiptGov, PaidFor: []Allocation{{SerialNo: "S001", Amount: 0, ExtraAmount: fp(50)}}},
		{ID: "G2", ReceiptType: ReceiptGov, PaidFor: []Allocation{{SerialNo: "S001", Amount: 0, ExtraAmount: fp(50)}}},
	})

	res := ResolveEntry(e, pays)
	require.Equal(t, 1100.0, res.AdjustedOriginal)
	require.Equal(t, 1100.0, res.Outstanding)
}

func TestResolveEntryAdjustedOriginalReplaces(t *testing.T) {
	e := entry("S001", "Ram", 1000)
	pays := NormalizePayments([]Payment{
		{ID: "G1", ReceiptType: ReceiptGov, PaidFor: []Allocation{{SerialNo: "S001", Amount: 0, AdjustedOriginal: fp(1200)}}},
		{ID: "G2", ReceiptType: ReceiptGov, PaidFor: []Allocation{{SerialNo: "S001", Amount: 0, AdjustedOriginal: fp(1250)}}},
	})

	// Latest write wins, the two are not summed.
	res := ResolveEntry(e, pays)
	require.Equal(t, 1250.0, res.AdjustedOriginal)
}

func TestResolveEntryUntaggedGovFallback(t *testing.T) {
	// Legacy record without the receipt type tag still counts as Gov
	// because it carries a Gov-only field.
	e := entry("S001", "Ram", 1000)
	pays := NormalizePayments([]Payment{
		{ID: "G1", ReceiptType: ReceiptCash, PaidFor: []Allocation{{SerialNo: "S001", Amount: 100, ExtraAmount: fp(75)}}},
	})

	res := ResolveEntry(e, pays)
	require.Equal(t, 1075.0, res.AdjustedOriginal)
	require.Equal(t, 100.0, res.GovPaid)
}

func TestResolveEntryGovExcludedFromCashRTGSSplit(t *testing.T) {
	e := entry("S001", "Ram", 1000)
	pays := NormalizePayments([]Payment{
		{ID: "G1", ReceiptType: ReceiptGov, PaidFor: []Allocation{{SerialNo: "S001", Amount: 200, ExtraAmount: fp(0)}}},
	})

	res := ResolveEntry(e, pays)
	require.Equal(t, 200.0, res.Paid, "gov amounts count toward paid")
	require.Equal(t, 0.0, res.CashPaid)
	require.Equal(t, 0.0, res.RTGSPaid)
}

func TestResolveEntryIgnoresUnrelatedPayments(t *testing.T) {
	e := entry("S001", "Ram", 500)
	pays := NormalizePayments([]Payment{
		{ID: "P1", ReceiptType: ReceiptCash, PaidFor: []Allocation{{SerialNo: "S999", Amount: 400}}},
	})

	res := ResolveEntry(e, pays)
	require.Equal(t, 0.0, res.Paid)
	require.Equal(t, 500.0, res.Outstanding)
}

func TestResolveEntryZeroAllocationSumNoDistribution(t *testing.T) {
	pays := NormalizePayments([]Payment{{
		ID: "P1", ReceiptType: ReceiptCash, TotalCD: 25,
		PaidFor: []Allocation{{SerialNo: "S001", Amount: 0}},
	}})

	res := ResolveEntry(entry("S001", "Ram", 100), pays)
	require.Equal(t, 0.0, res.CD)
}
