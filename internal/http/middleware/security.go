// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides response hardening for the history API:
//
//   - SecurityHeaders attaches baseline security headers, optional HSTS and
//     browser feature policies, and marks every response as not cacheable.
//   - CacheablePages relaxes the cache policy for history pages requested
//     with a cursor. Those pages never change once the index rows exist, so
//     browsers and proxies may keep them for maxAge. First pages follow the
//     live feed and stay no-store.
//
// Error responses reset the policy to no-store (see handlers.fail).
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
//
// EnableHSTS emits Strict-Transport-Security for HTTPS requests (never for
// plain HTTP). Only enable when traffic is HTTPS end-to-end.
//
// HSTSMaxAge defaults to 180 days when not positive.
//
// EnablePolicy sends Permissions-Policy and
// X-Permitted-Cross-Domain-Policies.
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration
	EnablePolicy bool
}

// SecurityHeaders returns a Gin middleware that sets:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: no-referrer
//	Cache-Control: no-store (plus legacy Pragma/Expires)
//
// and, when enabled, the feature policies and HSTS. X-Request-ID is added to
// Access-Control-Expose-Headers so browser clients can report it.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int64(opt.HSTSMaxAge / time.Second)
	if maxAge <= 0 {
		maxAge = int64(180 * 24 * time.Hour / time.Second)
	}
	hsts := "max-age=" + strconv.FormatInt(maxAge, 10) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		NoStore(c)

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if rid := h.Get("X-Request-ID"); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			cur := h.Get(hdr)
			if cur == "" {
				h.Set(hdr, "X-Request-ID")
			} else if !strings.Contains(cur, "X-Request-ID") {
				h.Set(hdr, cur+", X-Request-ID")
			}
		}

		c.Next()
	}
}

// NoStore marks the response as not cacheable.
func NoStore(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}

// CacheablePages lets shared caches keep history pages that were requested
// with a cursor (last_time > 0) for maxAge. A non-positive maxAge disables
// it. Unparsable cursors are left alone; the handler rejects them and
// resets the policy.
func CacheablePages(maxAge time.Duration) gin.HandlerFunc {
	secs := int64(maxAge / time.Second)
	policy := "public, max-age=" + strconv.FormatInt(secs, 10)

	return func(c *gin.Context) {
		if secs > 0 && hasCursor(c) {
			h := c.Writer.Header()
			h.Set("Cache-Control", policy)
			h.Del("Pragma")
			h.Del("Expires")
		}
		c.Next()
	}
}

func hasCursor(c *gin.Context) bool {
	v, err := strconv.ParseInt(strings.TrimSpace(c.Query("last_time")), 10, 64)
	return err == nil && v > 0
}

// isHTTPS reports whether the request used HTTPS directly or via a reverse
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
