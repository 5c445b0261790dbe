package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"math/big"
	"strings"
)

// backupAlphabet avoids characters principals commonly mistranscribe
// (0/O, 1/I/L, 8/B).
const backupAlphabet = "ACDEFGHJKMNPQRTVWXYZ234679"

// BackupCode is the persisted form of a single-use fallback code: the
// SHA-256 of the normalized plaintext plus a used flag. Each code is
// consumed exactly once; the flag is what prevents replay.
type BackupCode struct {
	Hash [32]byte
	Used bool
}

// HashBackupCode normalizes (trim, uppercase) and hashes a plaintext
// backup code.
func HashBackupCode(code string) [32]byte {
	return sha256.Sum256([]byte(strings.ToUpper(strings.TrimSpace(code))))
}

// GenerateBackupCodes returns count plaintext codes of the given length
// together with their storage records.
func GenerateBackupCodes(count, length int) ([]string, []BackupCode, error) {
	codes := make([]string, 0, count)
	records := make([]BackupCode, 0, count)

	max := big.NewInt(int64(len(backupAlphabet)))
	for i := 0; i < count; i++ {
		var b strings.Builder
		b.Grow(length)
		for j := 0; j < length; j++ {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return nil, nil, err
			}
			b.WriteByte(backupAlphabet[n.Int64()])
		}
		code := b.String()
		codes = append(codes, code)
		records = append(records, BackupCode{Hash: HashBackupCode(code)})
	}
	return codes, records, nil
}

// ConsumeBackupCode finds an unused record matching code and marks it
// used, returning true on a match. The scan always touches every record
// and compares in constant time, and the membership check and the flag
// flip happen in the same pass; the caller serializes calls for one
// principal and persists the mutated slice.
func ConsumeBackupCode(records []BackupCode, code string) bool {
	hash := HashBackupCode(code)
	matched := -1
	for i := range records {
		equal := subtle.ConstantTimeCompare(records[i].Hash[:], hash[:]) == 1
		if equal && !records[i].Used && matched == -1 {
			matched = i
		}
	}
	if matched == -1 {
		return false
	}
	records[matched].Used = true
	return true
}

// RemainingBackupCodes counts the unused records.
func RemainingBackupCodes(records []BackupCode) int {
	n := 0
	for _, r := range records {
		if !r.Used {
			n++
		}
	}
	return n
}
