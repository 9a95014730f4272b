package memory

import (
	"context"
	"sync"

	"motodealer/internal/core/apperror"
	"motodealer/internal/core/id"
	"motodealer/internal/domain/quote"
)

var _ quote.Archive = (*QuoteArchive)(nil)

// QuoteArchive keeps saved quotes in memory.
type QuoteArchive struct {
	mu     sync.RWMutex
	quotes map[id.ID]*quote.Quote
}

// NewQuoteArchive creates an empty archive.
func NewQuoteArchive() *QuoteArchive {
	return &QuoteArchive{quotes: make(map[id.ID]*quote.Quote)}
}

// Save stores q. Saving the same quote twice is a conflict.
func (a *QuoteArchive) Save(_ context.Context, q *quote.Quote) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.quotes[q.ID]; exists {
		return apperror.NewDuplicate("quote", "id", q.ID.String())
	}
	a.quotes[q.ID] = q
	return nil
}

// Get returns a saved quote.
func (a *QuoteArchive) Get(_ context.Context, quoteID id.ID) (*quote.Quote, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	q, ok := a.quotes[quoteID]
	if !ok {
		return nil, apperror.NewNotFound("quote", quoteID.String())
	}
	return q, nil
}

// Len returns the number of saved quotes.
func (a *QuoteArchive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.quotes)
}
