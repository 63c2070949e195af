// Package recon implements the payment reconciliation and summary
// aggregation engine for the mill trade ledger. It is a pure computation:
// given an immutable snapshot of purchase entries and payments it produces
// per-partner summaries plus a mill-wide overview, with no I/O and no
// shared state. Callers re-invoke Reconcile whenever the ledger changes.
package recon

import "time"

// ReceiptType classifies a settlement payment.
type ReceiptType string

const (
	ReceiptCash ReceiptType = "CASH"
	ReceiptRTGS ReceiptType = "RTGS"
	ReceiptGov  ReceiptType = "GOV"
)

// MillOverviewKey is the reserved group key holding the whole-book rollup.
const MillOverviewKey = "__mill_overview__"

// OutstandingEpsilon absorbs rounding noise when flagging unpaid entries.
const OutstandingEpsilon = 0.01

// PurchaseEntry is one weighed and purchased lot.
type PurchaseEntry struct {
	SerialNo string `json:"serialNo"`

	Name               string `json:"name"`
	FatherOrSpouseName string `json:"fatherOrSpouseName"`
	Address            string `json:"address"`
	Contact            string `json:"contact"`

	// Date of the lot; zero means unknown, and date filters then never match.
	Date    time.Time `json:"date"`
	Variety string    `json:"variety"`

	GrossWeight float64 `json:"grossWeight"`
	TareWeight  float64 `json:"tareWeight"`
	FinalWeight float64 `json:"finalWeight"`
	KartaWeight float64 `json:"kartaWeight"`
	NetWeight   float64 `json:"netWeight"`

	Rate              float64 `json:"rate"`
	Amount            float64 `json:"amount"`
	KartaAmount       float64 `json:"kartaAmount"`
	LabourAmount      float64 `json:"labourAmount"`
	KantaAmount       float64 `json:"kantaAmount"`
	BrokerageRate     float64 `json:"brokerageRate"`
	BrokerageAmount   float64 `json:"brokerageAmount"`
	BrokerageIncluded bool    `json:"brokerageIncluded"`
	OtherCharges      float64 `json:"otherCharges"`

	// OriginalNetAmount is the payable fixed at weighing time. Government
	// incentives never mutate it; top-ups live on the payment allocations.
	OriginalNetAmount float64 `json:"originalNetAmount"`
}

// AllocationKind tags which historical schema an allocation was stored in.
// The kind is decided once at ingestion and never re-sniffed.
type AllocationKind int

const (
	// AllocLegacy carries no per-allocation discount; the payment-level
	// TotalCD is distributed proportionally across allocations.
	AllocLegacy AllocationKind = iota
	// AllocDirect carries its own CDAmount (new format).
	AllocDirect
	// AllocGov carries a government top-up (ExtraAmount) or an explicit
	// replacement payable (AdjustedOriginal).
	AllocGov
)

// Allocation is the portion of one payment attributed to one purchase entry.
type Allocation struct {
	SerialNo string         `json:"serialNo"`
	Amount   float64        `json:"amount"`
	Kind     AllocationKind `json:"kind"`

	CDAmount         *float64 `json:"cdAmount,omitempty"`
	ExtraAmount      *float64 `json:"extraAmount,omitempty"`
	AdjustedOriginal *float64 `json:"adjustedOriginal,omitempty"`
}

// Payment is one settlement transaction, possibly covering several entries.
type Payment struct {
	ID          string      `json:"id"`
	Date        time.Time   `json:"date"`
	ReceiptType ReceiptType `json:"receiptType"`
	// TotalCD is the legacy payment-level cash discount. Ignored for
	// allocations that carry their own CDAmount.
	TotalCD float64      `json:"totalCdAmount"`
	PaidFor []Allocation `json:"paidFor"`
}

// EntryResolution is the immutable per-entry fold result of the resolver.
type EntryResolution struct {
	SerialNo         string  `json:"serialNo"`
	Paid             float64 `json:"paid"`
	CD               float64 `json:"cdAmount"`
	CashPaid         float64 `json:"cashPaid"`
	RTGSPaid         float64 `json:"rtgsPaid"`
	GovPaid          float64 `json:"govPaid"`
	AdjustedOriginal float64 `json:"adjustedOriginal"`
	Outstanding      float64 `json:"outstanding"`
}

// GroupSummary aggregates one partner profile (or, under MillOverviewKey,
// the whole book).
type GroupSummary struct {
	GroupKey string `json:"groupKey"`

	Name               string `json:"name"`
	FatherOrSpouseName string `json:"fatherOrSpouseName"`
	Address            string `json:"address"`
	Contact            string `json:"contact"`

	EntryCount int `json:"entryCount"`

	TotalOriginal         float64 `json:"totalOriginal"`
	TotalAdjustedOriginal float64 `json:"totalAdjustedOriginal"`
	TotalPaid             float64 `json:"totalPaid"`
	TotalCD               float64 `json:"totalCdAmount"`
	TotalCashPaid         float64 `json:"totalCashPaid"`
	TotalRTGSPaid         float64 `json:"totalRtgsPaid"`
	TotalGovPaid          float64 `json:"totalGovPaid"`
	TotalOutstanding      float64 `json:"totalOutstanding"`

	TotalNetWeight   float64 `json:"totalNetWeight"`
	TotalFinalWeight float64 `json:"totalFinalWeight"`
	TotalKartaWeight float64 `json:"totalKartaWeight"`

	AverageRate float64 `json:"averageRate"`
	MinRate     float64 `json:"minRate"`
	MaxRate     float64 `json:"maxRate"`

	AllTransactions     []PurchaseEntry `json:"allTransactions"`
	AllPayments         []Payment       `json:"allPayments"`
	OutstandingEntryIDs []string        `json:"outstandingEntryIds"`
}
