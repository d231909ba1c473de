package catalog

import "errors"

// Sentinel errors shared by every store implementation. Services compare
// with errors.Is and the HTTP layer maps them onto status codes.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrValidation = errors.New("invalid input")
)
