// Package errors provides the structured error type shared by every lifescope
// package. Each failure carries a machine-readable ErrorCode so callers can
// branch with errors.Is against the exported sentinels:
//
//	if errors.Is(err, lserrors.ErrScopeDisposed) {
//	    // scope already torn down
//	}
package errors
