// Package services implements the room history use cases: resolving the
// pagination request, reading the index page (through the page cache when
// eligible) and assembling display items from the per-type content tables.
//
// This file centralizes the service-level error values. Handlers translate
// them into HTTP results; wrapped causes are for logs only.
package services

import "errors"

var (
	// ErrInvalidArgument is returned when the request parameters cannot be
	// normalized (missing or non-positive room id, malformed numbers). It is
	// raised before any store access.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDependencyUnavailable is returned when the store or the cache fails.
	// The whole request fails; nothing is retried.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
