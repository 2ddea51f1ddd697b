package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and provider clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store or at the provider
// - ErrConflict: another write already holds the row
// - ErrStale: the incoming snapshot is older than the persisted one
// - ErrUnavailable: provider or resource temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrStale       = errors.New("stale")
	ErrUnavailable = errors.New("unavailable")
)
