package keyword

import (
	"time"

	"github.com/google/uuid"
)

// TermValidator judges whether a normalized term is well-formed. A false
// return is a normal rejection; a non-nil error is a validator fault and is
// isolated to the offending item by the cleaning stage.
type TermValidator interface {
	Validate(term string) (bool, error)
}

// Scorer computes a score and a human-readable justification for one keyword.
// Implementations must be deterministic and must not mutate the input.
type Scorer interface {
	Score(k Keyword) (score float64, justification string, err error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs for audit correlation.
type IDGenerator interface {
	NewRawID() (uuid.UUID, error)
}
