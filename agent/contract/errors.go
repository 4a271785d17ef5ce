package contract

import (
	"errors"

	catalogx "github.com/thanarat/shopagent/agent/catalog"
)

// Catalog errors are re-exported so callers match one taxonomy regardless of
// which layer produced the failure.
var (
	ErrNotFound          = catalogx.ErrNotFound
	ErrInsufficientStock = catalogx.ErrInsufficientStock

	ErrInvalidCriteria   = errors.New("invalid filter criteria")
	ErrUnknownTool       = errors.New("unknown tool requested")
	ErrUpstreamTimeout   = errors.New("reasoning engine timed out")
	ErrUpstreamError     = errors.New("reasoning engine call failed")
	ErrLoopLimitExceeded = errors.New("tool round-trip limit exceeded")
	ErrValidation        = errors.New("validation failed")
)
