// Package ws streams session events to API clients over WebSocket.
//
// Clients connect to GET /api/sessions/:session/events, optionally filtering
// with ?events=message,state.change; session.status events are always sent.
// Each event is one JSON text frame. A client "ping" text frame is answered
// with {"type":"pong"}. The stream closes once the session reports STOPPED.
package ws
