// Package client talks to the group and account services.
//
// Executor sends group service requests over HTTP and classifies their
// outcome: 200 yields the body, 401 common.ErrUnauthorized, 409 a
// *ConflictError (only for requests with AllowConflict set), anything else a
// *StatusError and transport failures a *NetworkError. The typed errors
// match the common sentinels with errors.Is.
//
// GRPCClient implements Client for the account service (register, login,
// profiles) and authenticates with account Basic auth once logged in.
//
// InitDatabase opens the local SQLite database and applies the embedded
// goose migrations.
package client
