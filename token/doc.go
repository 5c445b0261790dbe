// Package token issues and verifies the signed credential tokens minted
// by the authentication core. Tokens are HS256-signed JWS strings whose
// claim set carries the principal, role, kind (access or refresh), and
// validity window. Verification consults an injected revocation checker
// and reports each failure mode as a distinct sentinel error.
package token
