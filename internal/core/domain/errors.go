package domain

import "errors"

// Authentication and authorization errors. ErrInvalidCredentials is returned
// for both an unknown identity and a wrong password so callers cannot tell
// which part failed.
var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrDuplicateIdentity      = errors.New("identity already registered")
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrForbidden              = errors.New("access forbidden")
	ErrConcurrentModification = errors.New("record was modified concurrently")
)

// Not-found sentinels, one per aggregate.
var (
	ErrOperatorNotFound = errors.New("operator not found")
	ErrConsumerNotFound = errors.New("consumer not found")
	ErrOrgUnitNotFound  = errors.New("org unit not found")
	ErrMeterNotFound    = errors.New("meter not found")
	ErrReadingNotFound  = errors.New("meter reading not found")
	ErrTariffNotFound   = errors.New("tariff not found")
	ErrTodRuleNotFound  = errors.New("tod rule not found")
	ErrSlabNotFound     = errors.New("tariff slab not found")
	ErrBillNotFound     = errors.New("bill not found")
	ErrArrearNotFound   = errors.New("arrear not found")
	ErrAddressNotFound  = errors.New("address not found")
)

var (
	ErrDuplicateReading = errors.New("reading already recorded for meter and date")
	ErrOrgUnitInUse     = errors.New("org unit has children or consumers attached")
)

// ErrValidation marks malformed input. Wrap it with a short human-readable
// reason: fmt.Errorf("%w: passwords do not match", ErrValidation).
var ErrValidation = errors.New("validation failed")
