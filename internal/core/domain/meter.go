package domain

import "time"

// Meter statuses.
const (
	MeterActive   = "Active"
	MeterInactive = "Inactive"
)

// Meter is a metering device installed at a consumer's premises. The serial
// number is the natural key.
type Meter struct {
	SerialNo     string    `json:"serial_no"`
	IPAddress    string    `json:"ip_address"`
	ICCID        string    `json:"iccid"`
	IMSI         string    `json:"imsi"`
	Manufacturer string    `json:"manufacturer"`
	Firmware     string    `json:"firmware,omitempty"`
	Category     string    `json:"category"`
	InstallTsUtc time.Time `json:"install_ts_utc"`
	Status       string    `json:"status"`
	ConsumerID   int64     `json:"consumer_id"`
	Revision     int64     `json:"-"`
}

// MeterReading is a daily energy reading reported by a meter. At most one
// reading exists per (meter, date).
type MeterReading struct {
	ID             int64     `json:"id"`
	ReadingDate    time.Time `json:"reading_date"`
	EnergyConsumed float64   `json:"energy_consumed"`
	MeterSerialNo  string    `json:"meter_serial_no"`
	Current        float64   `json:"current,omitempty"`
	Voltage        float64   `json:"voltage,omitempty"`
}
