package scanner

// This package re-exports types from internal/types for convenience.
// The canonical types live in internal/types to avoid import cycles.

import "github.com/garagon/importguard/internal/types"

type (
	Batch       = types.Batch
	BatchResult = types.BatchResult
	Verdict     = types.Verdict
	Removal     = types.Removal
)
