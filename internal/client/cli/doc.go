// Package cli provides the interactive gophchat command-line client.
//
// It wires configuration, the local session database, the gRPC backend and
// the auth gate, then runs a REPL over the signed in user's sidebar: folders,
// conversations grouped by date, and the transcript of the open chat.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher and runREPL for details.
package cli
