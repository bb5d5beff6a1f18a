package domain

import "time"

// Payment statuses for a bill.
const (
	PaymentUnpaid  = "Unpaid"
	PaymentPaid    = "Paid"
	PaymentOverdue = "Overdue"
)

// Billing is a stored bill for a consumer and meter over a billing period.
// TotalAmount is fixed at write time as BaseAmount + TaxAmount; no
// computation engine exists.
type Billing struct {
	ID                 int64      `json:"id"`
	ConsumerID         int64      `json:"consumer_id"`
	MeterSerialNo      string     `json:"meter_serial_no"`
	PeriodStart        time.Time  `json:"period_start"`
	PeriodEnd          time.Time  `json:"period_end"`
	TotalUnitsConsumed float64    `json:"total_units_consumed"`
	BaseAmount         float64    `json:"base_amount"`
	TaxAmount          float64    `json:"tax_amount"`
	TotalAmount        float64    `json:"total_amount"`
	GeneratedAt        time.Time  `json:"generated_at"`
	DueDate            time.Time  `json:"due_date"`
	PaidDate           *time.Time `json:"paid_date,omitempty"`
	PaymentStatus      string     `json:"payment_status"`
	DisconnectionDate  *time.Time `json:"disconnection_date,omitempty"`
	Revision           int64      `json:"-"`
}

// Arrear statuses.
const (
	ArrearPending = "Pending"
	ArrearPaid    = "Paid"
)

// Arrear is an outstanding amount carried over from a bill.
type Arrear struct {
	ID         int64     `json:"id"`
	ConsumerID int64     `json:"consumer_id"`
	BillID     int64     `json:"bill_id"`
	ArrearType string    `json:"arrear_type"`
	PaidStatus string    `json:"paid_status"`
	Amount     float64   `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}
