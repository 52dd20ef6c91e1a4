// Package workflow defines the closed set of capability workflows the
// supervisor can dispatch, and the executor contract they implement.
package workflow

import (
	"fmt"
)

// Kind identifies a capability workflow.
type Kind string

const (
	// KindInformationRetrieval answers factual questions from the user's
	// uploaded documents.
	KindInformationRetrieval Kind = "information_retrieval"

	// KindStrategy produces guidance for multi-step questions that go
	// beyond a single document lookup.
	KindStrategy Kind = "strategy"
)

// Canonical returns the fixed priority order used for both execution and
// presentation. Information retrieval always runs before strategy so that
// guidance can assume lookups have already happened.
func Canonical() []Kind {
	return []Kind{KindInformationRetrieval, KindStrategy}
}

// DefaultKind is the fallback when classification fails.
const DefaultKind = KindInformationRetrieval

// ParseKind maps a wire name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindInformationRetrieval, KindStrategy:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown workflow kind: %q", s)
	}
}

// SortCanonical orders kinds by the canonical priority list. Kinds outside
// the canonical list keep their encounter order after the canonical ones.
// Duplicates collapse. The input slice is not modified.
func SortCanonical(kinds []Kind) []Kind {
	seen := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		seen[k] = true
	}

	ordered := make([]Kind, 0, len(kinds))
	for _, k := range Canonical() {
		if seen[k] {
			ordered = append(ordered, k)
			seen[k] = false
		}
	}
	for _, k := range kinds {
		if seen[k] {
			ordered = append(ordered, k)
			seen[k] = false
		}
	}
	return ordered
}
