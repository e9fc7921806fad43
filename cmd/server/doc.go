// Package main is the entry point for the chatgate session service.
//
// The service owns one messaging session, driven by an external engine
// worker (WEBJS, NOWEB or VENOM), and exposes its lifecycle over HTTP.
//
// Configuration:
//   - .env file, when present (does not override the real environment)
//   - Environment variables (12-factor), see internal/infrastructure/config
//   - -dev flag for colored debug logs
//
// Usage:
//
//	SESSION_ENGINE=NOWEB ENGINE_ENDPOINT=http://worker:3001 ./server
//	./server -env /etc/chatgate.env -dev
//
// Signals:
//   - SIGINT, SIGTERM: stop the session keeping credentials, then exit
package main
