// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Generic codes mirror HTTP status semantics, domain codes
// name the operation that failed.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "bad_request",
//	  "message": "room_id must be a positive integer"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error" // also written by middleware.Recovery

	// Written by middleware.RateLimiter, which cannot import this package.
	ErrCodeRateLimited = "rate_limited"

	// Domain-specific:
	ErrCodeHistoryFailed = "history_failed"
	ErrCodeRoomsFailed   = "rooms_failed"
)
