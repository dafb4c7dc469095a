// Package verification scores how well a selfie matches the uploaded document
// photo. Only stub scorers exist; real biometric matching is out of scope.
package verification

import (
	"context"
	"math/rand/v2"
	"sync"

	id "kycflow/pkg/domain"
)

const MaxScore = 100

// Scorer returns a similarity score in [0, MaxScore].
type Scorer interface {
	Score(ctx context.Context, appID id.ApplicationID) (int, error)
}

// RandomScorer draws a uniform score. It stands in for a real matcher.
type RandomScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomScorer() *RandomScorer {
	return &RandomScorer{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededScorer gives a reproducible sequence.
func NewSeededScorer(seed uint64) *RandomScorer {
	return &RandomScorer{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (s *RandomScorer) Score(ctx context.Context, _ id.ApplicationID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(MaxScore + 1), nil
}

// FixedScorer replays scores in order and repeats the last one.
type FixedScorer struct {
	mu     sync.Mutex
	scores []int
	next   int
}

func NewFixedScorer(scores ...int) *FixedScorer {
	if len(scores) == 0 {
		scores = []int{MaxScore}
	}
	return &FixedScorer{scores: scores}
}

func (s *FixedScorer) Score(context.Context, id.ApplicationID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	score := s.scores[s.next]
	if s.next < len(s.scores)-1 {
		s.next++
	}
	return clamp(score), nil
}

func clamp(score int) int {
	return max(0, min(MaxScore, score))
}
