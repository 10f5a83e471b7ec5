package interfaces

import (
	"context"
	"fmt"
	"strings"
)

// Helper is one priority-tagged provider in the resolution chain, capable of
// attempting load and store for some subset of asset types and possibly backed
// by multiple stores of its own.
type Helper interface {
	// CanProvide reports whether the helper applies to the asset type at all.
	// A false return lets the coordinator skip the helper without I/O and
	// without recording an error.
	CanProvide(assetType AssetType) bool

	// Load attempts to produce the asset. (nil, nil) means checked and not
	// present; the chain advances silently. An error is recorded by the caller
	// and the chain advances.
	Load(ctx context.Context, assetType AssetType, id AssetID, format DataFormat) (*Asset, error)

	// Store writes the payload through the best-matching registered store.
	Store(ctx context.Context, req StoreRequest) (*StoreResult, error)
}

// AggregateError carries every error recorded across an exhausted fallback
// chain, in attempt order. It is surfaced only when no candidate succeeded.
type AggregateError struct {
	Op   string
	Ref  string
	Errs []error
}

// Error joins the recorded failures in attempt order.
func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%s %s: %d candidate(s) failed: %s", e.Op, e.Ref, len(e.Errs), strings.Join(msgs, "; "))
}

// Unwrap exposes the recorded errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errs
}
