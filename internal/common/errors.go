// Package common defines shared constants and sentinel errors used across
// the sync engine. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound = errors.New("not found")

	// Sync-level errors.
	ErrNoAssetList     = errors.New("no asset list available")
	ErrFlushInProgress = errors.New("flush already in progress")

	// Mapping errors (bad payload shape or missing identity field).
	ErrMalformedResponse = errors.New("malformed response")
)
