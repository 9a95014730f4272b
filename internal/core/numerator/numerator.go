// Package numerator provides domain contracts for sequential document numbers.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"fmt"
	"time"
)

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict increments the sequence for every number.
	// Gapless when run inside the transaction that stores the document.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Faster, but leaves gaps if the application restarts.
	StrategyCached
)

// DefaultRangeSize is the range reserved at once by StrategyCached.
const DefaultRangeSize = 50

// Options configuration for number generation.
type Options struct {
	Strategy  Strategy
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// ResetPeriod controls when a sequence starts again from 1.
type ResetPeriod string

const (
	ResetYearly  ResetPeriod = "year"
	ResetMonthly ResetPeriod = "month"
	ResetNever   ResetPeriod = "never"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers, e.g. "COT".
	Prefix string

	// IncludeYear adds the year to the number.
	IncludeYear bool

	// PadWidth is the minimum number width (default 5).
	PadWidth int

	ResetPeriod ResetPeriod
}

// DefaultConfig returns yearly numbers like COT-2026-00001.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: ResetYearly,
	}
}

// Key is the sequence key for period.
func (c Config) Key(period time.Time) string {
	switch c.ResetPeriod {
	case ResetMonthly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006_01"))
	case ResetYearly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006"))
	default:
		return c.Prefix
	}
}

// Format renders num for period.
func (c Config) Format(period time.Time, num int64) string {
	width := c.PadWidth
	if width == 0 {
		width = 5
	}
	if c.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", c.Prefix, period.Format("2006"), width, num)
	}
	return fmt.Sprintf("%s-%0*d", c.Prefix, width, num)
}

// Generator generates sequential document numbers.
type Generator interface {
	// GetNextNumber returns the next formatted number for period.
	// A nil opts means DefaultOptions.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
}
