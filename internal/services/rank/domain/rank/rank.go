// Package rank models leaderboard scores and the drift report used by
// reconciliation.
//
// Scores live in two places: the durable snapshot derived from the score
// event ledger, and the cache-resident ranking mirror. The types here are
// shared by both sides so that reconciliation can compare them directly.
package rank

import (
	"fmt"
	"math"
	"strings"

	apperrors "github.com/kevinchn/rankboard/internal/platform/errors"
)

// MaxReasonLength bounds the free-text reason stored with each score event.
const MaxReasonLength = 100

// MaxUsernameLength bounds member usernames.
const MaxUsernameLength = 50

// Entry is one (member, score) pair in a ranking, ordered by score descending.
// Entries are read-model values constructed fresh per query; they are never
// persisted.
type Entry struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// Drift reports one member whose durable and cached scores disagree beyond
// the reconciliation tolerance. Delta is cache minus durable, so a negative
// delta means the cache is behind the ledger.
type Drift struct {
	Member     string  `json:"member"`
	DBScore    float64 `json:"db"`
	CacheScore float64 `json:"cache"`
	Delta      float64 `json:"delta"`
}

// ValidateDelta rejects non-finite score deltas before any write occurs.
func ValidateDelta(delta float64) error {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return apperrors.New(apperrors.CodeScoreDeltaNotFinite, "delta must be a finite number")
	}
	return nil
}

// ValidateMember rejects empty or oversized member names.
func ValidateMember(member string) error {
	trimmed := strings.TrimSpace(member)
	if trimmed == "" {
		return apperrors.New(apperrors.CodeScoreMemberEmpty, "member is required")
	}
	if len(trimmed) > MaxUsernameLength {
		return apperrors.WithMetadata(apperrors.CodeUserUsernameTooLong,
			fmt.Sprintf("member exceeds %d bytes", MaxUsernameLength),
			map[string]string{"limit": fmt.Sprintf("%d", MaxUsernameLength)})
	}
	return nil
}

// ValidateReason rejects reasons longer than the ledger column allows.
func ValidateReason(reason string) error {
	if len(reason) > MaxReasonLength {
		return apperrors.WithMetadata(apperrors.CodeScoreReasonTooLong,
			fmt.Sprintf("reason exceeds %d bytes", MaxReasonLength),
			map[string]string{"limit": fmt.Sprintf("%d", MaxReasonLength)})
	}
	return nil
}
