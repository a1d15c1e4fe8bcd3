// Package accountid generates the 3-digit account identifiers used as the
// secondary key of every account record.
package accountid

import (
	"math/rand"

	"github.com/passbook-dev/passbook/internal/model"
)

// maxAttempts bounds the random search. The valid space holds at most 648
// ids (9 * 9 * 8 three-digit strings with pairwise-distinct digits), so an
// exhausted bound means the space is nearly full and registration must fail
// rather than loop forever.
const maxAttempts = 1000

// Allocate returns a fresh id in 100-999 whose digits are pairwise distinct
// and which is not present in existing. It returns
// model.ErrIDSpaceExhausted once maxAttempts random draws have failed;
// callers must treat that as a hard registration failure.
func Allocate(existing map[string]struct{}) (string, error) {
	return allocate(existing, rand.Intn)
}

// allocate is the testable core; intn is the random source.
func allocate(existing map[string]struct{}, intn func(int) int) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		n := intn(900) + 100
		id := itoa3(n)
		if !distinctDigits(id) {
			continue
		}
		if _, taken := existing[id]; taken {
			continue
		}
		return id, nil
	}
	return "", model.ErrIDSpaceExhausted
}

func itoa3(n int) string {
	return string([]byte{
		byte('0' + n/100),
		byte('0' + n/10%10),
		byte('0' + n%10),
	})
}

func distinctDigits(id string) bool {
	return id[0] != id[1] && id[0] != id[2] && id[1] != id[2]
}

// Valid reports whether id is a well-formed account identifier: exactly
// 3 digits, first digit nonzero, all digits pairwise distinct.
func Valid(id string) bool {
	if len(id) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return id[0] != '0' && distinctDigits(id)
}
