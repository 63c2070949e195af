package ledger

import "time"

// CreateEntryInput is the payload for registering a purchase entry.
type CreateEntryInput struct {
	SerialNo string `json:"serial_no" validate:"required,max=32"`

	Name               string `json:"name" validate:"max=120"`
	FatherOrSpouseName string `json:"father_or_spouse_name" validate:"max=120"`
	Address            string `json:"address" validate:"max=240"`
	Contact            string `json:"contact" validate:"max=40"`

	EntryDate time.Time `json:"entry_date"`
	Variety   string    `json:"variety" validate:"max=60"`

	GrossWeight float64 `json:"gross_weight" validate:"gte=0"`
	TareWeight  float64 `json:"tare_weight" validate:"gte=0"`
	FinalWeight float64 `json:"final_weight" validate:"gte=0"`
	KartaWeight float64 `json:"karta_weight" validate:"gte=0"`
	NetWeight   float64 `json:"net_weight" validate:"gte=0"`

	Rate              float64 `json:"rate" validate:"gte=0"`
	Amount            float64 `json:"amount" validate:"gte=0"`
	KartaAmount       float64 `json:"karta_amount" validate:"gte=0"`
	LabourAmount      float64 `json:"labour_amount" validate:"gte=0"`
	KantaAmount       float64 `json:"kanta_amount" validate:"gte=0"`
	BrokerageRate     float64 `json:"brokerage_rate" validate:"gte=0"`
	BrokerageAmount   float64 `json:"brokerage_amount" validate:"gte=0"`
	BrokerageIncluded bool    `json:"brokerage_included"`
	OtherCharges      float64 `json:"other_charges" validate:"gte=0"`

	OriginalNetAmount float64 `json:"original_net_amount" validate:"gte=0"`
}

// AllocationInput is one paid-for line on a payment voucher.
type AllocationInput struct {
	SerialNo         string   `json:"serial_no" validate:"required,max=32"`
	Amount           float64  `json:"amount" validate:"gte=0"`
	CDAmount         *float64 `json:"cd_amount,omitempty" validate:"omitempty,gte=0"`
	ExtraAmount      *float64 `json:"extra_amount,omitempty" validate:"omitempty,gte=0"`
	AdjustedOriginal *float64 `json:"adjusted_original,omitempty" validate:"omitempty,gte=0"`
}

// CreatePaymentInput is the payload for recording a settlement voucher.
type CreatePaymentInput struct {
	ID          string            `json:"id" validate:"max=64"`
	PaymentDate time.Time         `json:"payment_date"`
	ReceiptType string            `json:"receipt_type" validate:"required,oneof=CASH RTGS GOV"`
	FaceValue   float64           `json:"face_value" validate:"gte=0"`
	TotalCD     float64           `json:"total_cd" validate:"gte=0"`
	PaidFor     []AllocationInput `json:"paid_for" validate:"required,min=1,dive"`
	Note        string            `json:"note" validate:"max=240"`
}

// ListOptions control paging on list endpoints.
type ListOptions struct {
	Page    int
	PerPage int
}
