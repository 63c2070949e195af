package recon

// overview rolls every group into the synthetic whole-book profile. Scalar
// totals are cheap sums over the finished group summaries, but outstanding,
// the weighted average rate and the min/max rates are re-derived from the
// flat entry list: averaging per-group averages would be wrong, and the
// independent derivation doubles as a cross-check against the group sums.
func overview(groups []*GroupSummary, entries []PurchaseEntry, payments []Payment) *GroupSummary {
	s := &GroupSummary{GroupKey: MillOverviewKey, Name: "Mill Overview"}

	var sums GroupSummary
	for _, merged := range groups {
		sums.TotalOriginal += merged.TotalOriginal
		sums.TotalCD += merged.TotalCD
		sums.TotalCashPaid += merged.TotalCashPaid
		sums.TotalRTGSPaid += merged.TotalRTGSPaid
		sums.TotalGovPaid += merged.TotalGovPaid
		sums.TotalNetWeight += merged.TotalNetWeight
		sums.TotalFinalWeight += merged.TotalFinalWeight
		sums.TotalKartaWeight += merged.TotalKartaWeight
	}
	s.TotalOriginal = Round2(sums.TotalOriginal)
	s.TotalCashPaid = Round2(sums.TotalCashPaid)
	s.TotalRTGSPaid = Round2(sums.TotalRTGSPaid)
	s.TotalGovPaid = Round2(sums.TotalGovPaid)
	s.TotalNetWeight = sums.TotalNetWeight
	s.TotalFinalWeight = sums.TotalFinalWeight
	s.TotalKartaWeight = sums.TotalKartaWeight

	var (
		adjusted, paid, cd float64
		rateWeight, weight float64
	)
	for _, e := range entries {
		res := ResolveEntry(e, payments)
		adjusted += res.AdjustedOriginal
		paid += res.Paid
		cd += res.CD

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
	s.TotalAdjustedOriginal = Round2(adjusted)
	s.TotalPaid = Round2(paid)
	s.TotalCD = Round2(cd)
	s.TotalOutstanding = Round2(s.TotalAdjustedOriginal - s.TotalPaid - s.TotalCD)
	if weight > 0 {
		s.AverageRate = Round2(rateWeight / weight)
	}

	s.AllPayments = uniquePayments(payments)
	return s
}

// uniquePayments de-duplicates by payment ID while preserving input order.
// Orphan payments that allocate to no known entry stay visible here.
func uniquePayments(payments []Payment) []Payment {
	var out []Payment
	seen := make(map[string]struct{}, len(payments))
	for _, p := range payments {
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
