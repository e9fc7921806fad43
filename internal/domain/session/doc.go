// Package session orchestrates the lifecycle of the single messaging session
// served by this process.
//
// Components:
//   - Manager: start, stop and logout, plus session queries
//   - ResolveProxy: effective proxy for a start request
//
// Start sequence:
//  1. Reject names other than the reserved session name
//  2. Initialize credential and config storage
//  3. Resolve proxy and merged webhook list
//  4. Construct media manager, webhook conductor and engine
//  5. Register the engine, configure webhooks, then start the engine
//
// Logout wipes stored credentials and tears the engine down in the
// background; the caller waits only for the credential cleanup. A later
// Start waits for that teardown before claiming the engine worker again.
//
// Example Usage:
//
//	mgr := session.NewManager(session.Config{Name: "default", Engine: "WEBJS", ...})
//	dto, err := mgr.Start(ctx, types.StartRequest{Name: "default"})
//	infos := mgr.GetSessions(ctx, true)
//	err = mgr.Stop(ctx, types.StopRequest{Name: "default"})
package session
