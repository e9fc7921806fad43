// Package server is the composition root: it wires the session store,
// repositories, selected engine, session manager and HTTP router.
package server
