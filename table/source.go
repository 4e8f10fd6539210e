package table

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Source supplies the non-deterministic inputs of a table: player
// identities, the first dealer and timestamps. Tests swap in a fixed one.
type Source interface {
	PlayerID() string
	Intn(n int) int
	Now() time.Time
}

type randomSource struct {
	rng *rand.Rand
}

// NewSource returns the production Source. A zero seed is replaced by the
// current time. The result is not safe for concurrent use; the registry
// only touches it from one action at a time.
func NewSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &randomSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *randomSource) PlayerID() string { return uuid.NewString() }

func (s *randomSource) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return s.rng.Intn(n)
}

func (s *randomSource) Now() time.Time { return time.Now() }
