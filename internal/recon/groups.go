package recon

import (
	"fmt"
	"strings"
)

// group is one arena slot during clustering. The first entry's identity
// tuple represents the whole group for subsequent comparisons.
type group struct {
	key     string
	tuple   IdentityTuple
	entries []PurchaseEntry
}

// Reconcile runs the whole engine: cluster entries into partner groups,
// merge each group's settlement figures, and attach the mill-wide overview
// under MillOverviewKey. It never fails; data anomalies degrade to zeroes.
func Reconcile(entries []PurchaseEntry, payments []Payment) map[string]*GroupSummary {
	pays := NormalizePayments(payments)
	groups := buildGroups(entries)

	out := make(map[string]*GroupSummary, len(groups)+1)
	merged := make([]*GroupSummary, 0, len(groups))
	for _, g := range groups {
		s := summarize(g.key, g.entries, pays)
		out[g.key] = s
		merged = append(merged, s)
	}
	out[MillOverviewKey] = overview(merged, entries, pays)
	return out
}

// buildGroups assigns entries to partner groups greedily, preserving the
// input scan order exactly. Among all matching groups the one with the
// lowest total difference wins; ties keep the earliest group. This is a
// deliberate order-dependent policy and downstream balances depend on it.
func buildGroups(entries []PurchaseEntry) []*group {
	var groups []*group
	taken := make(map[string]int)

	for _, e := range entries {
		tuple := Identity(e)

		best := -1
		bestDiff := 0.0
		if !tuple.Empty() {
			for i, g := range groups {
				m := MatchIdentity(tuple, g.tuple)
				if !m.IsMatch {
					continue
				}
				if best == -1 || m.TotalDifference < bestDiff {
					best = i
					bestDiff = m.TotalDifference
				}
			}
		}

		if best >= 0 {
			groups[best].entries = append(groups[best].entries, e)
			continue
		}

		key := groupKey(tuple, len(groups))
		if n, dup := taken[key]; dup {
			taken[key] = n + 1
			key = fmt.Sprintf("%s#%d", key, n+1)
		} else {
			taken[key] = 1
		}
		groups = append(groups, &group{key: key, tuple: tuple, entries: []PurchaseEntry{e}})
	}
	return groups
}

// groupKey derives a stable key from the discriminating identity fields,
// falling back to an ordinal for fully blank profiles.
func groupKey(t IdentityTuple, ordinal int) string {
	if t.Name == "" && t.FatherOrSpouseName == "" && t.Address == "" {
		return fmt.Sprintf("profile-%d", ordinal)
	}
	return strings.Join([]string{t.Name, t.FatherOrSpouseName, t.Address}, "|")
}

// summarize merges one group's entries against the full payment list.
// payments must already be normalized.
func summarize(key string, entries []PurchaseEntry, payments []Payment) *GroupSummary {
	s := &GroupSummary{GroupKey: key}
	if len(entries) > 0 {
		first := entries[0]
		s.Name = first.Name
		s.FatherOrSpouseName = first.FatherOrSpouseName
		s.Address = first.Address
		s.Contact = first.Contact
	}

	serials := make(map[string]struct{}, len(entries))
	var (
		original, adjusted, paid, cd, gov float64
		rateWeight, weight                float64
	)
	for _, e := range entries {
		if e.SerialNo != "" {
			serials[e.SerialNo] = struct{}{}
		}
		res := ResolveEntry(e, payments)

		original += finite(e.OriginalNetAmount)
		adjusted += res.AdjustedOriginal
		paid += res.Paid
		cd += res.CD
		gov += res.GovPaid

		s.TotalNetWeight += finite(e.NetWeight)
		s.TotalFinalWeight += finite(e.FinalWeight)
		s.TotalKartaWeight += finite(e.KartaWeight)

		rate := finite(e.Rate)
		nw := finite(e.NetWeight)
		rateWeight += rate * nw
		weight += nw
		trackRate(s, rate)

		if res.Outstanding > OutstandingEpsilon {
			s.OutstandingEntryIDs = append(s.OutstandingEntryIDs, e.SerialNo)
		}
		s.AllTransactions = append(s.AllTransactions, e)
	}

	s.EntryCount = len(entries)
	s.AllPayments = uniquePaymentsFor(serials, payments)

	// Cash and RTGS splits come from the de-duplicated payment list so a
	// payment covering several entries in the group counts once per
	// allocation, never once per entry.
	for _, p := range s.AllPayments {
		if p.ReceiptType != ReceiptCash && p.ReceiptType != ReceiptRTGS {
			continue
		}
		for _, a := range p.PaidFor {
			if _, ok := serials[a.SerialNo]; !ok {
				continue
			}
			if p.ReceiptType == ReceiptCash {
				s.TotalCashPaid += a.Amount
			} else {
				s.TotalRTGSPaid += a.Amount
			}
		}
	}
	s.TotalCashPaid = Round2(s.TotalCashPaid)
	s.TotalRTGSPaid = Round2(s.TotalRTGSPaid)

	s.TotalOriginal = Round2(original)
	s.TotalAdjustedOriginal = Round2(adjusted)
	// TotalPaid is the sum of per-entry settlement figures, not
	// cash + RTGS: the allocation amount is authoritative even when a
	// separate RTGS instrument amount exists for bank display.
	s.TotalPaid = Round2(paid)
	s.TotalCD = Round2(cd)
	s.TotalGovPaid = Round2(gov)
	s.TotalOutstanding = Round2(s.TotalAdjustedOriginal - s.TotalPaid - s.TotalCD)

	if weight > 0 {
		s.AverageRate = Round2(rateWeight / weight)
	}
	return s
}

// trackRate folds one entry's rate into the min/max, ignoring blanks.
func trackRate(s *GroupSummary, rate float64) {
	if rate <= 0 {
		return
	}
	if s.MinRate == 0 || rate < s.MinRate {
		s.MinRate = rate
	}
	if rate > s.MaxRate {
		s.MaxRate = rate
	}
}

// uniquePaymentsFor collects, in first-seen order, every payment that
// allocates to one of the given serials. Payments carrying allocations to
// serials outside the set stay visible for audit; only their foreign
// allocations are excluded from totals elsewhere.
func uniquePaymentsFor(serials map[string]struct{}, payments []Payment) []Payment {
	var out []Payment
	seen := make(map[string]struct{})
	for _, p := range payments {
		touches := false
		for _, a := range p.PaidFor {
			if _, ok := serials[a.SerialNo]; ok {
				touches = true
				break
			}
		}
		if !touches {
			continue
		}
		if p.ID != "" {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
		}
		out = append(out, p)
	}
	return out
}
