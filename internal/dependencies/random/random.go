package random

import (
	"math/rand/v2"
)

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// String generates a random string of the given length from the given alphabet
	String(length int, alphabet string) string
}

// PRNG implements Random using math/rand/v2. It is not suitable for secrets;
// shuffles and join codes have no stakes that need a cryptographic source.
type PRNG struct{}

// New creates a new PRNG
func New() *PRNG {
	return &PRNG{}
}

// Intn returns a pseudo-random int in [0, n)
func (r *PRNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.IntN(n)
}

// String generates a random string of the given length from the given alphabet
func (r *PRNG) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 {
		return ""
	}
	result := make([]byte, length)
	for i := range result {
		result[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(result)
}

// Shuffle permutes n elements in place with a Fisher-Yates pass driven by r
func Shuffle(r Random, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		swap(i, j)
	}
}
