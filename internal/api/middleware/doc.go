// Package middleware provides gin middleware for CORS, per-IP rate limiting
// and request ids.
package middleware
