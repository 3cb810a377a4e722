// Package api provides the HTTP REST API and WebSocket server for
// Taskforge.
//
// It exposes the account lifecycle (signup, login, refresh, logout),
// task CRUD with collaborator management, and the optional Google
// Calendar passthrough. A WebSocket feed broadcasts task change events
// to connected clients.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
