// Package token issues and verifies the opaque session tokens used by the
// authentication engine.
//
// A token is three fields joined by ".": the user ID, a hex-encoded
// HMAC-SHA256 integrity tag, and the issue time in epoch milliseconds.
// The tag is computed over the user ID, the currently stored PIN hash, and
// the issue time, so rotating a user's PIN implicitly invalidates every
// token issued before the rotation. Verification is stateless: no token
// table is kept, at the cost of not being able to revoke one of several
// outstanding tokens for the same user.
package token
