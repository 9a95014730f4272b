// Package numerator provides PostgreSQL implementation of sequential numbering.
// It implements core/numerator.Generator over the sys_sequences table.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	corenumerator "motodealer/internal/core/numerator"
	"motodealer/internal/infrastructure/storage/postgres"
)

// Source yields the querier for ctx: the transaction in ctx, or the pool.
// *postgres.TxManager satisfies it.
type Source interface {
	GetQuerier(ctx context.Context) postgres.Querier
}

type cachedRange struct {
	current int64
	max     int64
}

// Service provides numbering backed by sys_sequences.
//
// Strict numbers are taken on the querier in ctx, so inside a transaction
// they roll back with it. Cached ranges should be reserved outside a
// transaction: a rolled back reservation would hand out numbers twice.
type Service struct {
	source Source

	mu     sync.Mutex
	ranges map[string]*cachedRange
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a new numerator service.
func New(source Source) *Service {
	return &Service{
		source: source,
		ranges: make(map[string]*cachedRange),
	}
}

// GetNextNumber generates the next number, e.g. COT-2026-00001.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}

	key := cfg.Key(period)

	var (
		num int64
		err error
	)
	switch opts.Strategy {
	case corenumerator.StrategyCached:
		num, err = s.nextCached(ctx, key, opts.RangeSize)
	default:
		num, err = s.reserve(ctx, key, 1)
	}
	if err != nil {
		return "", err
	}

	return cfg.Format(period, num), nil
}

// reserve bumps the sequence by size and returns the last reserved value.
func (s *Service) reserve(ctx context.Context, key string, size int64) (int64, error) {
	var last int64
	err := s.source.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2
		RETURNING current_val
	`, key, size).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("reserve %d from %s: %w", size, key, err)
	}
	return last, nil
}

// nextCached hands out numbers from memory, reserving a new range when the
// current one is used up.
func (s *Service) nextCached(ctx context.Context, key string, size int64) (int64, error) {
	if size <= 0 {
		size = corenumerator.DefaultRangeSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rng, ok := s.ranges[key]
	if !ok {
		rng = &cachedRange{}
		s.ranges[key] = rng
	}

	if rng.current >= rng.max {
		last, err := s.reserve(ctx, key, size)
		if err != nil {
			return 0, err
		}
		// The reserved range is (last-size, last].
		rng.current = last - size
		rng.max = last
	}

	rng.current++
	return rng.current, nil
}
