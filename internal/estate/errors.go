package estate

import "errors"

var (
	ErrNotFound     = errors.New("estate: not found")
	ErrConflict     = errors.New("estate: conflict")
	ErrInvalidInput = errors.New("estate: invalid input")
	ErrForbidden    = errors.New("estate: forbidden")

	// ErrReceiptTaken signals a receipt number collision; callers retry with
	// a fresh number.
	ErrReceiptTaken = errors.New("estate: receipt number already used")
)
