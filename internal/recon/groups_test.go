package recon

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLedger() ([]PurchaseEntry, []Payment) {
	entries := []PurchaseEntry{
		{SerialNo: "S001", Name: "Ram Kumar", FatherOrSpouseName: "Shyam Lal", Address: "Rampur",
			OriginalNetAmount: 1000, Rate: 10, NetWeight: 2, Variety: "1121"},
		{SerialNo: "S002", Name: "RAM  KUMAR", FatherOrSpouseName: "Shyam Lal", Address: "Rampur",
			OriginalNetAmount: 2000, Rate: 20, NetWeight: 8, Variety: "PB1"},
		{SerialNo: "S003", Name: "Mohan Singh", FatherOrSpouseName: "Des Raj", Address: "Karnal",
			OriginalNetAmount: 500, Rate: 15, NetWeight: 4, Variety: "1121"},
	}
	payments := []Payment{
		// One payment settling both of Ram Kumar's entries.
		{ID: "P1", ReceiptType: ReceiptRTGS, TotalCD: 30, PaidFor: []Allocation{
			{SerialNo: "S001", Amount: 600},
			{SerialNo: "S002", Amount: 900},
		}},
		{ID: "P2", ReceiptType: ReceiptCash, PaidFor: []Allocation{
			{SerialNo: "S003", Amount: 200, CDAmount: fp(5)},
		}},
		// Orphan allocation: no entry carries S999.
		{ID: "P3", ReceiptType: ReceiptCash, PaidFor: []Allocation{
			{SerialNo: "S999", Amount: 123},
		}},
	}
	return entries, payments
}

func TestReconcileGroupsFuzzyDuplicates(t *testing.T) {
	entries, payments := testLedger()
	result := Reconcile(entries, payments)

	// Ram Kumar's two spellings collapse into one group; Mohan Singh and
	// the overview make three keys total.
	require.Len(t, result, 3)

	ram := result["ram kumar|shyam lal|rampur"]
	require.NotNil(t, ram)
	require.Equal(t, 2, ram.EntryCount)
	require.Equal(t, []string{"S001", "S002"}, []string{ram.AllTransactions[0].SerialNo, ram.AllTransactions[1].SerialNo})
}

func TestReconcileReconciliationIdentity(t *testing.T) {
	entries, payments := testLedger()
	for key, s := range Reconcile(entries, payments) {
		want := Round2(s.TotalAdjustedOriginal - s.TotalPaid - s.TotalCD)
		require.Equalf(t, want, s.TotalOutstanding, "group %s", key)
	}
}

func TestReconcileGroupTotals(t *testing.T) {
	entries, payments := testLedger()
	result := Reconcile(entries, payments)
	ram := result["ram kumar|shyam lal|rampur"]

	require.Equal(t, 1500.0, ram.TotalPaid)
	require.Equal(t, 30.0, ram.TotalCD) // 12 + 18, conserved across the split
	require.Equal(t, 3000.0, ram.TotalAdjustedOriginal)
	require.Equal(t, 1470.0, ram.TotalOutstanding)
	require.Equal(t, 0.0, ram.TotalCashPaid)
	require.Equal(t, 1500.0, ram.TotalRTGSPaid)

	// The shared payment appears once, not once per settled entry.
	require.Len(t, ram.AllPayments, 1)
	require.Equal(t, "P1", ram.AllPayments[0].ID)
	require.Equal(t, []string{"S001", "S002"}, ram.OutstandingEntryIDs)
}

func TestReconcileWeightedAverageRate(t *testing.T) {
	entries, payments := testLedger()
	ram := Reconcile(entries, payments)["ram kumar|shyam lal|rampur"]

	// (10*2 + 20*8) / 10 = 18, not the arithmetic mean 15.
	require.Equal(t, 18.0, ram.AverageRate)
	require.Equal(t, 10.0, ram.MinRate)
	require.Equal(t, 20.0, ram.MaxRate)
}

func TestReconcileMillOverviewCrossCheck(t *testing.T) {
	entries, payments := testLedger()
	result := Reconcile(entries, payments)

	mill := result[MillOverviewKey]
	require.NotNil(t, mill)
	require.Equal(t, len(entries), mill.EntryCount)

	var groupSum float64
	for key, s := range result {
		if key == MillOverviewKey {
			continue
		}
		groupSum += s.TotalOutstanding
	}
	require.InDelta(t, groupSum, mill.TotalOutstanding, 0.01)

	// Orphan payment is invisible to totals but kept for audit.
	ids := make([]string, 0, len(mill.AllPayments))
	for _, p := range mill.AllPayments {
		ids = append(ids, p.ID)
	}
	require.Contains(t, ids, "P3")
}

func TestReconcileOverviewAverageFromFlatList(t *testing.T) {
	entries, payments := testLedger()
	mill := Reconcile(entries, payments)[MillOverviewKey]

	// (10*2 + 20*8 + 15*4) / 14, derived from the flat entry list rather
	// than averaged per-group averages.
	require.Equal(t, Round2(240.0/14.0), mill.AverageRate)
	require.Equal(t, 10.0, mill.MinRate)
	require.Equal(t, 20.0, mill.MaxRate)
}

func TestReconcileIdempotent(t *testing.T) {
	entries, payments := testLedger()
	first := Reconcile(entries, payments)
	second := Reconcile(entries, payments)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs must produce identical output maps")
	}
}

func TestReconcileEmptyInputs(t *testing.T) {
	result := Reconcile(nil, nil)
	require.Len(t, result, 1)
	mill := result[MillOverviewKey]
	require.NotNil(t, mill)
	require.Equal(t, 0.0, mill.TotalOutstanding)
}

func TestReconcileBlankProfilesStaySeparate(t *testing.T) {
	entries := []PurchaseEntry{
		{SerialNo: "S001", OriginalNetAmount: 100},
		{SerialNo: "S002", OriginalNetAmount: 200},
	}
	result := Reconcile(entries, nil)

	// Fully blank identities fall back to ordinal keys, one group each.
	require.NotNil(t, result["profile-0"])
	require.NotNil(t, result["profile-1"])
}

func TestReconcileGreedyBestMatchWins(t *testing.T) {
	entries := []PurchaseEntry{
		{SerialNo: "S001", Name: "Ram Kumar", FatherOrSpouseName: "Shyam Lal"},
		{SerialNo: "S002", Name: "Ram Kumari", FatherOrSpouseName: "Shyam Lal"},
		// Exact duplicate of the first: both groups may match, the
		// closer (zero-difference) one must win.
		{SerialNo: "S003", Name: "Ram Kumar", FatherOrSpouseName: "Shyam Lal"},
	}
	result := Reconcile(entries, nil)
	ram := result["ram kumar|shyam lal|"]
	require.NotNil(t, ram)
	require.GreaterOrEqual(t, ram.EntryCount, 2)
	serials := make([]string, 0, ram.EntryCount)
	for _, e := range ram.AllTransactions {
		serials = append(serials, e.SerialNo)
	}
	require.Contains(t, serials, "S001")
	require.Contains(t, serials, "S003")
}
