package ulid

import (
	"io"
	"math/rand"
	"regexp"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     io.Reader
	entropyOnce sync.Once
	generator   = DefaultGenerator
)

// DefaultEntropy returns a reader that generates ULID entropy.
// The reader is monotonic so IDs generated within the same
// millisecond still sort in generation order.
func DefaultEntropy() io.Reader {
	entropyOnce.Do(func() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		entropy = &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rng, 0),
		}
	})
	return entropy
}

// Crockford's Base32 excludes I, L, O, and U to avoid confusion.
var ulidRe = regexp.MustCompile(`^[0123456789ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)

// ValidID checks if the given id is a valid block identifier.
func ValidID(id string) bool {
	_, err := ulid.Parse(id)

	return err == nil && ulidRe.MatchString(id)
}

// GenerateID generates a new universal ID.
func GenerateID() string {
	return generator()
}

func DefaultGenerator() string {
	entropy := DefaultEntropy()
	ts := ulid.Timestamp(time.Now())
	return ulid.MustNew(ts, entropy).String()
}

func ResetGenerator() {
	generator = DefaultGenerator
}

// MockGenerator makes GenerateID return mockValue until ResetGenerator
// is called. Tests use it to obtain stable IDs.
func MockGenerator(mockValue string) {
	generator = func() string {
		return mockValue
	}
}
