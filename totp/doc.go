// Package totp provides the second authentication factor: time-based
// one-time-password enrollment and verification plus single-use backup
// codes. Code verification tolerates a configurable number of adjacent
// 30-second steps to absorb clock drift between the server and the
// authenticator device.
package totp
