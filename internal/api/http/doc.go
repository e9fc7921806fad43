// Package http exposes the session manager over a JSON API.
//
// Routes:
//   - GET  /health
//   - POST /api/sessions/start
//   - POST /api/sessions/stop
//   - POST /api/sessions/logout
//   - GET  /api/sessions?all=true
//   - GET  /api/sessions/:session
//   - GET  /api/sessions/:session/me
//
// Errors are returned as {"success": false, "error": "..."} with a status
// derived from the error class.
package http
