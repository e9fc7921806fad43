// Package webhook delivers session events to configured HTTP endpoints.
//
// A Conductor subscribes one listener per webhook to a session's event
// source. Deliveries run in the background, are signed with HMAC-SHA512 when
// a key is configured, are retried with the webhook's retry policy and pass
// through a per-URL circuit breaker.
package webhook
