// Package ledger persists purchase entries and settlement payments and
// serves the reconciliation summaries computed by internal/recon.
package ledger

import (
	"encoding/json"
	"time"

	"github.com/milltrade-erp/milltrade-erp/internal/recon"
)

// PurchaseEntry is one stored weighbridge lot.
type PurchaseEntry struct {
	ID       int64
	SerialNo string

	Name               string
	FatherOrSpouseName string
	Address            string
	Contact            string

	EntryDate time.Time
	Variety   string

	GrossWeight float64
	TareWeight  float64
	FinalWeight float64
	KartaWeight float64
	NetWeight   float64

	Rate              float64
	Amount            float64
	KartaAmount       float64
	LabourAmount      float64
	KantaAmount       float64
	BrokerageRate     float64
	BrokerageAmount   float64
	BrokerageIncluded bool
	OtherCharges      float64

	OriginalNetAmount float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recon converts the stored row into the engine's input shape.
func (e PurchaseEntry) Recon() recon.PurchaseEntry {
	return recon.PurchaseEntry{
		SerialNo:           e.SerialNo,
		Name:               e.Name,
		FatherOrSpouseName: e.FatherOrSpouseName,
		Address:            e.Address,
		Contact:            e.Contact,
		Date:               e.EntryDate,
		Variety:            e.Variety,
		GrossWeight:        e.GrossWeight,
		TareWeight:         e.TareWeight,
		FinalWeight:        e.FinalWeight,
		KartaWeight:        e.KartaWeight,
		NetWeight:          e.NetWeight,
		Rate:               e.Rate,
		Amount:             e.Amount,
		KartaAmount:        e.KartaAmount,
		LabourAmount:       e.LabourAmount,
		KantaAmount:        e.KantaAmount,
		BrokerageRate:      e.BrokerageRate,
		BrokerageAmount:    e.BrokerageAmount,
		BrokerageIncluded:  e.BrokerageIncluded,
		OtherCharges:       e.OtherCharges,
		OriginalNetAmount:  e.OriginalNetAmount,
	}
}

// Payment is one stored settlement voucher. Allocations live as JSONB on
// the row because vouchers arrive whole and are never updated piecemeal.
type Payment struct {
	ID          string
	PaymentDate time.Time
	ReceiptType recon.ReceiptType
	TotalCD     float64
	PaidFor     []AllocationRecord
	Note        string
	CreatedAt   time.Time
}

// Recon converts the stored voucher into the engine's input shape.
func (p Payment) Recon() recon.Payment {
	out := recon.Payment{
		ID:          p.ID,
		Date:        p.PaymentDate,
		ReceiptType: p.ReceiptType,
		TotalCD:     p.TotalCD,
		PaidFor:     make([]recon.Allocation, len(p.PaidFor)),
	}
	for i, a := range p.PaidFor {
		out.PaidFor[i] = recon.Allocation{
			SerialNo:         a.SerialNo,
			Amount:           float64(a.Amount),
			CDAmount:         a.CDAmount.ptr(),
			ExtraAmount:      a.ExtraAmount.ptr(),
			AdjustedOriginal: a.AdjustedOriginal.ptr(),
		}
	}
	return out
}

// AllocationRecord is the JSONB form of one allocation. Numeric fields use
// FlexNumber because two historical schemas stored amounts either as JSON
// numbers or as strings.
type AllocationRecord struct {
	SerialNo         string      `json:"serialNo"`
	Amount           FlexNumber  `json:"amount"`
	CDAmount         *FlexNumber `json:"cdAmount,omitempty"`
	ExtraAmount      *FlexNumber `json:"extraAmount,omitempty"`
	AdjustedOriginal *FlexNumber `json:"adjustedOriginal,omitempty"`
}

// FlexNumber decodes any historical representation of an amount. Garbage
// degrades to zero instead of failing the row.
type FlexNumber float64

// UnmarshalJSON accepts numbers, numeric strings, and null.
func (n *FlexNumber) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		*n = 0
		return nil
	}
	*n = FlexNumber(recon.ToNumber(v))
	return nil
}

// MarshalJSON writes the canonical numeric form.
func (n FlexNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(n))
}

func (n *FlexNumber) ptr() *float64 {
	if n == nil {
		return nil
	}
	v := float64(*n)
	return &v
}
