package pricing

import "errors"

var (
	// ErrEmptyLedger is returned when no purchase rows survived loading.
	ErrEmptyLedger = errors.New("pricing: empty purchase ledger")
	// ErrInvalidPurchase is returned for a purchase without a date or a
	// positive unit price.
	ErrInvalidPurchase = errors.New("pricing: invalid purchase record")
	// ErrInvalidMode is returned for an unknown pricing mode.
	ErrInvalidMode = errors.New("pricing: invalid pricing mode")
	// ErrNilLedger is returned when the attributor is built without a ledger.
	ErrNilLedger = errors.New("pricing: nil ledger")
)
