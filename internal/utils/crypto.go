// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	UnlockCodeCount = 12
	unlockCodeMin   = 100000
	unlockCodeMax   = 999999
)

// GenerateUnlockCodes produces a set of distinct 6-digit numeric codes
// using a cryptographically secure source. Collisions within the set are
// retried.
func GenerateUnlockCodes(count int) ([]string, error) {
	span := big.NewInt(unlockCodeMax - unlockCodeMin + 1)
	seen := make(map[string]bool, count)
	codes := make([]string, 0, count)

	for len(codes) < count {
		n, err := rand.Int(rand.Reader, span)
		if err != nil {
			return nil, fmt.Errorf("failed to generate unlock code: %w", err)
		}

		code := fmt.Sprintf("%06d", n.Int64()+unlockCodeMin)
		if seen[code] {
			continue
		}

		seen[code] = true
		codes = append(codes, code)
	}

	return codes, nil
}
