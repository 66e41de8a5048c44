// Package cli provides the interactive TailorCV command-line client.
//
// It wires configuration, session persistence, the backend API client, and
// an interactive REPL whose screens mirror the product's pages: home,
// sign-in, resume generation, premium upgrade, and the dashboard. Every
// navigation command passes through the route gate, so protected screens
// redirect to sign-in when no session is active and entry screens redirect
// signed-in users to their landing page.
//
// Typical flow: restore and verify a persisted session on startup, then
// execute user commands until exit. The REPL is started via App.Run(ctx),
// which blocks until the user exits.
package cli
