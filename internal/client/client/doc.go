// Package client talks to the gophchat backend.
//
// # Overview
//
// The package provides:
//  1. Capability interfaces used by the rest of the client: Auth for the
//     account, Documents for folders, conversations and messages, and
//     Objects for attachment bytes.
//  2. GRPCClient, which implements all of them over the ChatService. It
//     injects the access token through an interceptor, refreshes an expired
//     token once and retries, and keeps the refresh token in a TokenStore so
//     a later run can restore the session.
//  3. Local database bootstrap (InitDatabase, RunMigrations) applying the
//     embedded goose migrations to SQLite.
//
// # Error Handling
//
// Every RPC failure wraps common.ErrBackend together with the sentinel of
// its status code (common.ErrNotFound, common.ErrValidation,
// common.ErrTokenExpired and so on), so both can be matched with errors.Is.
//
// GRPCClient is safe for concurrent use.
package client
