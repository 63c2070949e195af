package recon

// classifyAllocation decides which historical schema an allocation uses.
// Gov fields beat the direct CD field: a Gov top-up record from before the
// receipt type tag existed is still a Gov allocation.
func classifyAllocation(a Allocation) AllocationKind {
	if a.ExtraAmount != nil || a.AdjustedOriginal != nil {
		return AllocGov
	}
	if a.CDAmount != nil {
		return AllocDirect
	}
	return AllocLegacy
}

// NormalizePayments sanitizes a raw payment list once at ingestion: every
// amount passes through the numeric normalizer and every allocation gets
// its schema kind tagged. The input slice is not mutated.
func NormalizePayments(payments []Payment) []Payment {
	out := make([]Payment, len(payments))
	for i, p := range payments {
		np := p
		np.TotalCD = finite(p.TotalCD)
		np.PaidFor = make([]Allocation, len(p.PaidFor))
		for j, a := range p.PaidFor {
			na := a
			na.Amount = finite(a.Amount)
			if a.CDAmount != nil {
				v := finite(*a.CDAmount)
				na.CDAmount = &v
			}
			if a.ExtraAmount != nil {
				v := finite(*a.ExtraAmount)
				na.ExtraAmount = &v
			}
			if a.AdjustedOriginal != nil {
				v := finite(*a.AdjustedOriginal)
				na.AdjustedOriginal = &v
			}
			na.Kind = classifyAllocation(na)
			np.PaidFor[j] = na
		}
		out[i] = np
	}
	return out
}

// govQualifies reports whether a payment acts as a government settlement
// for the given allocation. Legacy records may lack the receipt type tag,
// so the presence of a Gov-only field is accepted as fallback evidence.
func govQualifies(p Payment, a Allocation) bool {
	return p.ReceiptType == ReceiptGov || a.Kind == AllocGov
}

// ResolveEntry folds the full payment list into one entry's settlement
// figures. Payments are scanned in input order; an explicit adjusted
// original replaces any earlier one (latest write wins) while extra
// amounts accumulate across separate Gov top-ups.
func ResolveEntry(e PurchaseEntry, payments []Payment) EntryResolution {
	res := EntryResolution{SerialNo: e.SerialNo}

	original := finite(e.OriginalNetAmount)
	var extraSum float64
	var explicitAdjusted *float64

	for _, p := range payments {
		alloc, ok := findAllocation(p, e.SerialNo)
		if !ok {
			continue
		}

		res.Paid += alloc.Amount
		res.CD += allocationCD(p, alloc)

		switch p.ReceiptType {
		case ReceiptCash:
			res.CashPaid += alloc.Amount
		case ReceiptRTGS:
			res.RTGSPaid += alloc.Amount
		}

		if govQualifies(p, alloc) {
			res.GovPaid += alloc.Amount
			if alloc.AdjustedOriginal != nil {
				v := *alloc.AdjustedOriginal
				explicitAdjusted = &v
			} else if alloc.ExtraAmount != nil {
				extraSum += *alloc.ExtraAmount
			}
		}
	}

	res.AdjustedOriginal = Round2(original + extraSum)
	if explicitAdjusted != nil {
		res.AdjustedOriginal = Round2(*explicitAdjusted)
	}

	res.Paid = Round2(res.Paid)
	res.CD = Round2(res.CD)
	res.CashPaid = Round2(res.CashPaid)
	res.RTGSPaid = Round2(res.RTGSPaid)
	res.GovPaid = Round2(res.GovPaid)
	res.Outstanding = Round2(res.AdjustedOriginal - res.Paid - res.CD)
	return res
}

// findAllocation locates the allocation covering a serial number within a
// payment. Degenerate legacy vouchers can repeat a serial; the first one
// is authoritative.
func findAllocation(p Payment, serialNo string) (Allocation, bool) {
	if serialNo == "" {
		return Allocation{}, false
	}
	for _, a := range p.PaidFor {
		if a.SerialNo == serialNo {
			return a, true
		}
	}
	return Allocation{}, false
}

// allocationCD resolves the cash discount one allocation contributes. The
// new per-allocation field wins outright; only when it is absent does the
// legacy payment-level discount get distributed proportionally across the
// payment's allocation amounts. Never both.
func allocationCD(p Payment, a Allocation) float64 {
	if a.CDAmount != nil {
		return *a.CDAmount
	}
	if p.TotalCD <= 0 {
		return 0
	}
	var sum float64
	for _, each := range p.PaidFor {
		sum += each.Amount
	}
	if sum <= 0 {
		return 0
	}
	return Round2(p.TotalCD * a.Amount / sum)
}
