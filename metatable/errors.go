package metatable

import "errors"

var (
	// ErrNotFound indicates a column, pool, or table that does not exist.
	ErrNotFound = errors.New("metatable: not found")

	// ErrEmptyPool indicates a pool whose sample sets are both empty.
	ErrEmptyPool = errors.New("metatable: pool has no samples")

	// ErrPermissionDenied indicates the gate refused the operation before
	// any data was touched.
	ErrPermissionDenied = errors.New("metatable: permission denied")

	// ErrValidationFailure indicates a structural constraint violation,
	// e.g. overlapping pool sample sets or out-of-range indices.
	ErrValidationFailure = errors.New("metatable: validation failure")
)

// Fallback cell values for samples no modifier or default covers.
const (
	NotAvailable  = "not available"
	NotApplicable = "not applicable"
)
