package memory

import (
	"context"
	"sync"
	"time"

	"motodealer/internal/core/numerator"
)

var _ numerator.Generator = (*Sequences)(nil)

// Sequences numbers documents in memory. Every strategy behaves as strict.
type Sequences struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewSequences creates empty sequences.
func NewSequences() *Sequences {
	return &Sequences{values: make(map[string]int64)}
}

// GetNextNumber implements numerator.Generator.
func (s *Sequences) GetNextNumber(_ context.Context, cfg numerator.Config, _ *numerator.Options, period time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cfg.Key(period)
	s.values[key]++
	return cfg.Format(period, s.values[key]), nil
}
