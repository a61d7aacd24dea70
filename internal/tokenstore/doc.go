// Package tokenstore provides the local persistent copy of the marketplace access token.
//
// Every backend holds exactly one value under a single key (DefaultKey). Backends differ in
// durability and deployment tradeoffs:
//   - Memory: process-local, lost on exit (tests, the frontend server's request scope)
//   - File: local filesystem storage with atomic writes and secure permissions
//   - SQLite: key/value table, useful when several tools share one state database
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Env: read-only environment variable access (requires external secret management)
//
// An absent token is not an error: Read returns the empty string. Writes overwrite
// unconditionally, so the most recent Write wins.
package tokenstore
