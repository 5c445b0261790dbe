// Package revocation tracks explicitly invalidated tokens until their
// natural expiry. The registry is keyed by a stable hash of the token's
// exact wire form. Two implementations are provided: Memory for
// single-process and test use, Redis for multi-process deployments.
package revocation
