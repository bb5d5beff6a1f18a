package domain

import "time"

// Tariff is a rate plan. EffectiveTo is zero for open-ended tariffs.
type Tariff struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	EffectiveFrom time.Time `json:"effective_from"`
	EffectiveTo   time.Time `json:"effective_to,omitempty"`
	BaseRate      float64   `json:"base_rate"`
	TaxRate       float64   `json:"tax_rate"`
}

// TodRule is a time-of-day rate override belonging to a tariff.
type TodRule struct {
	ID         int64   `json:"id"`
	TariffID   int64   `json:"tariff_id"`
	Name       string  `json:"name"`
	StartTime  string  `json:"start_time"` // "HH:MM:SS"
	EndTime    string  `json:"end_time"`
	RatePerKwh float64 `json:"rate_per_kwh"`
	Deleted    bool    `json:"-"`
}

// TariffSlab is a consumption band with its own rate.
type TariffSlab struct {
	ID         int64   `json:"id"`
	TariffID   int64   `json:"tariff_id"`
	FromKwh    float64 `json:"from_kwh"`
	ToKwh      float64 `json:"to_kwh"`
	RatePerKwh float64 `json:"rate_per_kwh"`
	Deleted    bool    `json:"-"`
}
