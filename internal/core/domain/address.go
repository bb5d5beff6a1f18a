package domain

import "time"

// Address is a supply address attached to a consumer.
type Address struct {
	ID          int64     `json:"id"`
	HouseNumber string    `json:"house_number"`
	Locality    string    `json:"locality"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Pincode     string    `json:"pincode"`
	ConsumerID  int64     `json:"consumer_id"`
	CreatedAt   time.Time `json:"created_at"`
}
