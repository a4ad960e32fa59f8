// Package authkit is the authentication and account-security engine for a
// personal budgeting application: PIN credentials, brute-force lockout, a
// time-windowed one-time-code second factor, opaque session tokens with
// idle-timeout tracking, and a bounded security audit log.
//
// The package is the public surface. It exposes [Engine], [Builder],
// [Config], the [Directory] collaborator interface, and value types
// (Credential, LoginResult, SecurityEvent). Supporting primitives live in
// the pin, token, and storage subpackages; per-user lockout state and the
// shared digest primitive are internal.
//
// # Architecture boundaries
//
// The engine never touches raw user storage: every credential read and
// write goes through the host-supplied [Directory]. Durable state outside
// the directory (the audit snapshot, the remembered session token, and
// pending second-factor challenges) goes through a [storage.Store], which
// defaults to an in-process store and can be pointed at Redis.
//
// # Concurrency
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Mutations to a user's credential
// and lockout state are serialized inside the engine; the idle timer is the
// only background activity and is cancelled on logout.
package authkit
