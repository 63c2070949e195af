package recon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2025, time.November, d, 0, 0, 0, 0, time.UTC)
}

func seasonLedger() ([]PurchaseEntry, []Payment) {
	entries := []PurchaseEntry{
		{SerialNo: "S001", Name: "Ram Kumar", Date: day(1), Variety: "1121",
			OriginalNetAmount: 1000, Rate: 10, NetWeight: 2},
		{SerialNo: "S002", Name: "Ram Kumar", Date: day(10), Variety: "PB1",
			OriginalNetAmount: 2000, Rate: 20, NetWeight: 8},
		{SerialNo: "S003", Name: "Ram Kumar", Date: day(20), Variety: "1121",
			OriginalNetAmount: 1500, Rate: 30, NetWeight: 5},
	}
	payments := []Payment{
		{ID: "P1", Date: day(2), ReceiptType: ReceiptCash, PaidFor: []Allocation{
			{SerialNo: "S001", Amount: 500},
		}},
		{ID: "P2", Date: day(12), ReceiptType: ReceiptRTGS, TotalCD: 20, PaidFor: []Allocation{
			{SerialNo: "S002", Amount: 700},
			{SerialNo: "S003", Amount: 300},
		}},
		{ID: "P3", Date: day(25), ReceiptType: ReceiptCash, PaidFor: []Allocation{
			{SerialNo: "S003", Amount: 400, CDAmount: fp(10)},
		}},
	}
	return entries, payments
}

func ramGroup(t *testing.T) *GroupSummary {
	t.Helper()
	entries, payments := seasonLedger()
	g := Reconcile(entries, payments)["ram kumar||"]
	require.NotNil(t, g)
	return g
}

// Filtering a group and recomputing must equal a from-scratch run over the
// pre-filtered entry and payment lists.
func TestFilterCommutesWithAggregation(t *testing.T) {
	g := ramGroup(t)
	opts := FilterOptions{Start: day(5), End: day(15)}

	filtered := Filter(g, opts)

	entries, payments := seasonLedger()
	var subsetEntries []PurchaseEntry
	for _, e := range entries {
		if opts.matchEntry(e) {
			subsetEntries = append(subsetEntries, e)
		}
	}
	var subsetPayments []Payment
	for _, p := range payments {
		if opts.inRange(p.Date) {
			subsetPayments = append(subsetPayments, p)
		}
	}
	scratch := summarize(g.GroupKey, subsetEntries, NormalizePayments(subsetPayments))

	require.Equal(t, scratch.TotalPaid, filtered.TotalPaid)
	require.Equal(t, scratch.TotalCD, filtered.TotalCD)
	require.Equal(t, scratch.TotalOutstanding, filtered.TotalOutstanding)
	require.Equal(t, scratch.TotalCashPaid, filtered.TotalCashPaid)
	require.Equal(t, scratch.TotalRTGSPaid, filtered.TotalRTGSPaid)
	require.Equal(t, scratch.AverageRate, filtered.AverageRate)
}

func TestFilterByDateRange(t *testing.T) {
	filtered := Filter(ramGroup(t), FilterOptions{Start: day(5), End: day(15)})

	require.Equal(t, 1, filtered.EntryCount)
	require.Equal(t, "S002", filtered.AllTransactions[0].SerialNo)
	// Only P2 falls in range; its S003 allocation belongs to an entry
	// outside the subset so paid covers S002 alone.
	require.Equal(t, 700.0, filtered.TotalPaid)
	require.Equal(t, 14.0, filtered.TotalCD) // 20 * 700/1000
}

func TestFilterByVariety(t *testing.T) {
	filtered := Filter(ramGroup(t), FilterOptions{Variety: "1121"})

	require.Equal(t, 2, filtered.EntryCount)
	require.Equal(t, 1200.0, filtered.TotalPaid) // 500 + 300 + 400
	// Average recomputed over filtered weights: (10*2 + 30*5) / 7.
	require.Equal(t, Round2(170.0/7.0), filtered.AverageRate)
}

func TestFilterBySerialSelection(t *testing.T) {
	filtered := Filter(ramGroup(t), FilterOptions{SerialNos: []string{"S003"}})

	require.Equal(t, 1, filtered.EntryCount)
	require.Equal(t, 700.0, filtered.TotalPaid)
	require.Equal(t, 16.0, filtered.TotalCD) // 20*300/1000 + 10
}

func TestFilterUndatedEntryNeverMatchesRange(t *testing.T) {
	entries := []PurchaseEntry{
		{SerialNo: "S001", Name: "Ram Kumar", OriginalNetAmount: 100},
	}
	g := Reconcile(entries, nil)["ram kumar||"]
	require.NotNil(t, g)

	filtered := Filter(g, FilterOptions{Start: day(1), End: day(30)})
	require.Equal(t, 0, filtered.EntryCount)
}

func TestFilterInactiveReturnsGroupUnchanged(t *testing.T) {
	g := ramGroup(t)
	require.Same(t, g, Filter(g, FilterOptions{}))
}
