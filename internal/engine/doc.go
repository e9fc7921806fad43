// Package engine defines the contract between the session manager and the
// automation engines that drive a messaging-platform connection.
//
// Components:
//   - Engine: the session contract every adapter satisfies
//   - Base: status bookkeeping and the event bus shared by adapters
//   - Remote: adapter for an external engine worker (WEBJS, NOWEB, VENOM)
//   - Select: maps an engine identifier to its constructor
//
// Worker protocol (per engine kind and session name):
//
//	POST {endpoint}/{kind}/sessions/{name}/start   start connecting (config, proxy, stored credentials)
//	GET  {endpoint}/{kind}/sessions/{name}/events  websocket stream of {"event", "payload"} frames
//	POST {endpoint}/{kind}/sessions/{name}/stop    tear down
//	GET  {endpoint}/{kind}/sessions/{name}/me      account identity, 204 when not paired
//	GET  {endpoint}/{kind}/sessions/{name}/info    engine metadata
//
// Frames named "state" drive status transitions, "auth.update" frames persist
// credentials, everything else is published to subscribers (webhooks).
package engine
