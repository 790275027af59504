// Package handlers implements the HTTP endpoints of the room history API.
//
// Two envelopes are in use. Successful history pages keep the shape room
// clients already parse:
//
//	{ "code": 1, "data": { "per_page": 20, ... }, "msg": "success" }
//
// Every failure, on any route, is an ErrorResponse with a stable code:
//
//	{ "request_id": "123e4567-...", "code": "bad_request", "message": "room_id must be a positive integer" }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/room-history/internal/http/middleware"
)

// ErrorResponse is the error envelope of all endpoints.
type ErrorResponse struct {
	// Echo of X-Request-ID, for matching client reports to server logs
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"bad_request"`
	// Safe to show to users; never carries internal causes
	Message string `json:"message" example:"room_id must be a positive integer"`
}

// SuccessResponse is the envelope of the history endpoint. Code is always 1
// and Msg always "success".
type SuccessResponse struct {
	Code int    `json:"code" example:"1"`
	Data any    `json:"data"`
	Msg  string `json:"msg"  example:"success"`
}

// fail aborts with an ErrorResponse. 5xx are logged with the request-scoped
// logger; error responses are always no-store.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	middleware.NoStore(c)
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is fail for the router's NoRoute and NoMethod handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes body as JSON without an envelope.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// success writes data inside the SuccessResponse envelope with HTTP 200.
func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, SuccessResponse{Code: 1, Data: data, Msg: "success"})
}
