package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motodealer/internal/core/apperror"
	"motodealer/internal/core/id"
	"motodealer/internal/domain/promotion"
	"motodealer/internal/infrastructure/storage/memory"
)

type countingRepo struct {
	promotion.Repository
	gets  int
	lists int
}

func (r *countingRepo) GetByIDs(ctx context.Context, ids []id.ID) ([]promotion.Promotion, error) {
	r.gets++
	return r.Repository.GetByIDs(ctx, ids)
}

func (r *countingRepo) List(ctx context.Context, f promotion.Filter) ([]promotion.Promotion, error) {
	r.lists++
	return r.Repository.List(ctx, f)
}

func setup(t *testing.T, promotions ...promotion.Promotion) (*PromotionCache, *countingRepo, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	inner := &countingRepo{Repository: memory.NewPromotionRepo(promotions...)}
	return NewPromotionCache(inner, client, time.Minute), inner, s
}

func sample(name string) promotion.Promotion {
	rate := decimal.NewFromInt(5)
	return promotion.Promotion{
		ID:           id.New(),
		Name:         name,
		IsEnabled:    true,
		DiscountRate: &rate,
		InstallmentPlans: []promotion.InstallmentPlan{
			{Installments: 3, InterestRate: decimal.Zero, IsEnabled: true},
		},
	}
}

func TestPromotionCache_GetByIDs(t *testing.T) {
	a, b := sample("a"), sample("b")
	c, inner, s := setup(t, a, b)
	ctx := context.Background()

	got, err := c.GetByIDs(ctx, []id.ID{b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, []id.ID{b.ID, a.ID}, []id.ID{got[0].ID, got[1].ID})
	assert.Equal(t, 1, inner.gets)
	assert.True(t, s.Exists(promotionKey(a.ID)))

	got, err = c.GetByIDs(ctx, []id.ID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.gets, "served from redis")
	assert.True(t, got[0].DiscountRate.Equal(decimal.NewFromInt(5)))
	require.Len(t, got[0].InstallmentPlans, 1)

	s.FastForward(2 * time.Minute)
	_, err = c.GetByIDs(ctx, []id.ID{a.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.gets, "expired")
}

func TestPromotionCache_NotFoundPassesThrough(t *testing.T) {
	c, _, _ := setup(t, sample("a"))

	_, err := c.GetByIDs(context.Background(), []id.ID{id.New()})
	assert.True(t, apperror.IsNotFound(err))
}

func TestPromotionCache_ListInvalidatedByCreate(t *testing.T) {
	c, inner, _ := setup(t, sample("a"))
	ctx := context.Background()

	first, err := c.List(ctx, promotion.Filter{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = c.List(ctx, promotion.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.lists)

	created := sample("b")
	require.NoError(t, c.Create(ctx, &created))

	after, err := c.List(ctx, promotion.Filter{})
	require.NoError(t, err)
	assert.Len(t, after, 2)
	assert.Equal(t, 2, inner.lists)
}

func TestPromotionCache_RedisDownFallsBack(t *testing.T) {
	a := sample("a")
	c, inner, s := setup(t, a)
	s.Close()

	got, err := c.GetByIDs(context.Background(), []id.ID{a.ID})
	require.NoError(t, err)
	assert.Equal(t, a.ID, got[0].ID)

	list, err := c.List(context.Background(), promotion.Filter{OnlyEnabled: true})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, inner.lists)

	assert.Error(t, c.Ping(context.Background()))
}
