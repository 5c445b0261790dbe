// Package password implements credential policy enforcement and adaptive
// hashing for the authentication core.
//
// Policy collects every composition violation in one pass so callers can
// present the complete list, and scores candidates for strength meters.
// Hasher wraps Argon2id with PHC string encoding, constant-time
// verification, upgrade detection, and bounded reuse-history checking.
package password
