package rules

import (
	"errors"
	"math/rand"
)

// ErrNoResponses is returned when a selector is handed an empty response set.
// Tables built by NewTable never contain one.
var ErrNoResponses = errors.New("rules: empty response set")

// Source yields random ints in [0, n). It must be safe for concurrent use.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.Intn(n) }

// Selector picks one reply out of a rule's response set.
type Selector struct {
	src Source
}

// NewSelector returns a Selector drawing from src, or from the process-wide
// generator when src is nil.
func NewSelector(src Source) *Selector {
	if src == nil {
		src = globalSource{}
	}
	return &Selector{src: src}
}

// Select returns the only response of a single-response set, or a uniformly
// random one otherwise.
func (s *Selector) Select(responses []string) (string, error) {
	switch len(responses) {
	case 0:
		return "", ErrNoResponses
	case 1:
		return responses[0], nil
	default:
		return responses[s.src.IntN(len(responses))], nil
	}
}
