// Package types provides shared data structures for the chatgate backend.
//
// This package defines the session-facing types used across the manager,
// engines, webhook delivery and the HTTP surface.
//
// Core Types:
//   - SessionStatus: Lifecycle state reported by an engine
//   - SessionConfig: Per-session configuration (debug, webhooks, proxy, engine passthrough)
//   - SessionDTO, SessionInfo: Snapshots returned to API consumers
//   - Event: A session/engine event delivered to webhooks
//
// Request Types:
//   - StartRequest, StopRequest, LogoutRequest: Lifecycle operations
//
// Example Usage:
//
//	dto, err := manager.Start(ctx, types.StartRequest{
//	    Name:   "default",
//	    Config: &types.SessionConfig{Debug: true},
//	})
package types
