// Package authcore is the authentication and session-security core for
// CropLink services: password policy and Argon2id hashing, JWT
// access/refresh token issuance and verification, token revocation,
// failed-attempt lockout, password-reset tickets, and TOTP-based MFA
// with single-use backup codes.
//
// The package is transport-agnostic. Hosts supply a PrincipalStore and a
// Sender, wire an optional Redis client for shared state, and call the
// Engine from their own handlers:
//
//	engine, err := authcore.New().
//		WithConfig(cfg).
//		WithPrincipalStore(store).
//		WithSender(mailer).
//		WithRedis(rdb).
//		Build()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Close()
//
//	pair, err := engine.Authenticate(ctx, "ana@example.com", password, "")
//
// Without Redis every stateful component runs on in-memory
// implementations suitable for single-process deployments and tests.
package authcore
