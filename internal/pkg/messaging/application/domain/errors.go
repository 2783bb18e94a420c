package messaging

import "errors"

// Error taxonomy shared by use cases and adapters. Callers match with
// errors.Is; adapters wrap backend failures in ErrTransport so transport
// problems stay distinguishable from domain outcomes.
var (
	ErrValidation = errors.New("messaging: validation failed")
	ErrNotFound   = errors.New("messaging: not found")
	ErrPermission = errors.New("messaging: not permitted")
	ErrTransport  = errors.New("messaging: backend unavailable")
)
