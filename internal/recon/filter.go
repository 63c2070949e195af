package recon

import "time"

// FilterOptions narrows a group's transactions and payments before
// re-aggregation. Zero-valued fields are inactive. Entries without a date
// never match an active date range.
type FilterOptions struct {
	Start   time.Time
	End     time.Time
	Variety string
	// SerialNos, when non-empty, restricts to an explicit selection.
	SerialNos []string
}

func (o FilterOptions) active() bool {
	return !o.Start.IsZero() || !o.End.IsZero() || o.Variety != "" || len(o.SerialNos) > 0
}

func (o FilterOptions) matchEntry(e PurchaseEntry) bool {
	if !o.inRange(e.Date) {
		return false
	}
	if o.Variety != "" && NormalizeIdentity(e.Variety) != NormalizeIdentity(o.Variety) {
		return false
	}
	if len(o.SerialNos) > 0 {
		found := false
		for _, sn := range o.SerialNos {
			if sn == e.SerialNo {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (o FilterOptions) inRange(t time.Time) bool {
	if o.Start.IsZero() && o.End.IsZero() {
		return true
	}
	if t.IsZero() {
		return false
	}
	if !o.Start.IsZero() && t.Before(o.Start) {
		return false
	}
	if !o.End.IsZero() && t.After(o.End) {
		return false
	}
	return true
}

// Filter re-slices one group under the given options and recomputes every
// total with the same rules as a from-scratch run over the subset. Weighted
// averages are recomputed over the filtered weights, never reused.
func Filter(g *GroupSummary, opts FilterOptions) *GroupSummary {
	if g == nil {
		return nil
	}
	if !opts.active() {
		return g
	}

	entries := make([]PurchaseEntry, 0, len(g.AllTransactions))
	for _, e := range g.AllTransactions {
		if opts.matchEntry(e) {
			entries = append(entries, e)
		}
	}

	payments := make([]Payment, 0, len(g.AllPayments))
	for _, p := range g.AllPayments {
		if opts.inRange(p.Date) {
			payments = append(payments, p)
		}
	}

	out := summarize(g.GroupKey, entries, payments)
	if len(entries) == 0 {
		out.Name = g.Name
		out.FatherOrSpouseName = g.FatherOrSpouseName
		out.Address = g.Address
		out.Contact = g.Contact
	}
	return out
}
