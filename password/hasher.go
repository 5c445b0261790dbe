package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// HistoryLimit bounds how many prior credential hashes are retained and
// checked for reuse.
const HistoryLimit = 5

const phcAlgorithm = "argon2id"

// Parameter floors. Anything weaker is a misconfiguration, not a tuning
// choice.
const (
	minMemoryKB    uint32 = 8 * 1024
	minTime        uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
)

// HasherConfig holds the Argon2id work parameters.
type HasherConfig struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHasherConfig returns interactive-login parameters: 64 MiB,
// 3 passes, 2 lanes.
func DefaultHasherConfig() HasherConfig {
	return HasherConfig{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher derives and verifies Argon2id credential hashes in PHC string
// format ($argon2id$v=19$m=...,t=...,p=...$salt$hash). It is safe for
// concurrent use.
type Hasher struct {
	cfg HasherConfig
}

// NewHasher validates cfg against the parameter floors and returns a
// ready Hasher.
func NewHasher(cfg HasherConfig) (*Hasher, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, fmt.Errorf("argon2 memory below %d KiB floor", minMemoryKB)
	case cfg.Time < minTime:
		return nil, errors.New("argon2 time cost must be at least 1")
	case cfg.Parallelism < minParallelism:
		return nil, errors.New("argon2 parallelism must be at least 1")
	case cfg.SaltLength < minSaltLength:
		return nil, fmt.Errorf("argon2 salt length below %d byte floor", minSaltLength)
	case cfg.KeyLength < minKeyLength:
		return nil, fmt.Errorf("argon2 key length below %d byte floor", minKeyLength)
	}
	return &Hasher{cfg: cfg}, nil
}

// Hash derives a fresh salted hash of password and encodes it as a PHC
// string. The password bytes are used exactly as provided; no Unicode
// normalization is applied.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.cfg.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, h.cfg.Time, h.cfg.Memory, h.cfg.Parallelism, h.cfg.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcAlgorithm,
		argon2.Version,
		h.cfg.Memory,
		h.cfg.Time,
		h.cfg.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. The comparison of the
// derived key against the stored key is constant-time.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	params, salt, key, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}

	derived := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(derived, key) == 1, nil
}

// NeedsRehash reports whether encoded was produced with weaker parameters
// than the hasher's current configuration. Callers re-hash on the next
// successful verification.
func (h *Hasher) NeedsRehash(encoded string) (bool, error) {
	params, _, key, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}
	if params.Memory < h.cfg.Memory || params.Time < h.cfg.Time || params.Parallelism < h.cfg.Parallelism {
		return true, nil
	}
	if uint32(len(key)) != h.cfg.KeyLength {
		return true, nil
	}
	return false, nil
}

// CheckHistory reports whether newPassword verifies against any of the
// retained prior hashes. Only the most recent HistoryLimit entries are
// considered. Undecodable history entries are skipped rather than
// surfaced: a corrupt legacy hash must not block a password change.
func (h *Hasher) CheckHistory(newPassword string, priorHashes []string) bool {
	if len(priorHashes) > HistoryLimit {
		priorHashes = priorHashes[len(priorHashes)-HistoryLimit:]
	}
	for _, prior := range priorHashes {
		match, err := h.Verify(newPassword, prior)
		if err != nil {
			continue
		}
		if match {
			return true
		}
	}
	return false
}

func decodePHC(encoded string) (HasherConfig, []byte, []byte, error) {
	var params HasherConfig

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return params, nil, nil, errors.New("malformed PHC hash")
	}
	if parts[1] != phcAlgorithm {
		return params, nil, nil, fmt.Errorf("unsupported hash algorithm %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, errors.New("malformed argon2 version")
	}
	if version != argon2.Version {
		return params, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Parallelism); err != nil {
		return params, nil, nil, errors.New("malformed argon2 parameters")
	}
	if params.Memory == 0 || params.Time == 0 || params.Parallelism == 0 {
		return params, nil, nil, errors.New("invalid argon2 parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return params, nil, nil, errors.New("malformed salt")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, errors.New("malformed key")
	}

	return params, salt, key, nil
}
