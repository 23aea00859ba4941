package bill_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-rateio/internal/bill"
)

func newTestCache(t *testing.T) *bill.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return bill.NewCache(client, time.Minute)
}

func TestSummaryCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	billID := uuid.New()

	_, ok := cache.GetSummary(context.Background(), billID)
	require.False(t, ok)

	summary := bill.Summary{
		BillID:        billID,
		OwnerID:       uuid.New(),
		Establishment: "Joe's",
		Status:        bill.StatusOpen,
		Base:          10000,
		Tax:           1000,
		Total:         11000,
		Friends:       []bill.FriendShare{{Friend: "Ana", Base: 4000, Tax: 400, Total: 4400, Items: 1}},
	}
	require.NoError(t, cache.SetSummary(context.Background(), summary))

	got, ok := cache.GetSummary(context.Background(), billID)
	require.True(t, ok)
	require.Equal(t, summary.Total, got.Total)
	require.Equal(t, summary.Friends, got.Friends)

	cache.InvalidateSummary(context.Background(), billID)
	_, ok = cache.GetSummary(context.Background(), billID)
	require.False(t, ok)
}

func TestCalculateUsesAndInvalidatesCache(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	svc.Cache = newTestCache(t)
	owner := uuid.New()
	actor := ownerPrincipal(owner)

	b, err := svc.Create(context.Background(), actor, bill.CreateInput{Establishment: "Joe's"})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), actor, b.ID, bill.ItemInput{Friend: "Ana", Value: mustCents(t, "40.00")})
	require.NoError(t, err)

	first, err := svc.Calculate(context.Background(), actor, b.ID)
	require.NoError(t, err)
	require.Equal(t, mustCents(t, "44.00"), first.Total)

	cached, ok := svc.Cache.GetSummary(context.Background(), b.ID)
	require.True(t, ok)
	require.Equal(t, first.Total, cached.Total)

	_, err = svc.AddItem(context.Background(), actor, b.ID, bill.ItemInput{Friend: "Bea", Value: mustCents(t, "60.00")})
	require.NoError(t, err)

	_, ok = svc.Cache.GetSummary(context.Background(), b.ID)
	require.False(t, ok)

	second, err := svc.Calculate(context.Background(), actor, b.ID)
	require.NoError(t, err)
	require.Equal(t, mustCents(t, "110.00"), second.Total)
}

func TestNilCacheIsSafe(t *testing.T) {
	var cache *bill.Cache
	_, ok := cache.GetSummary(context.Background(), uuid.New())
	require.False(t, ok)
	require.NoError(t, cache.SetSummary(context.Background(), bill.Summary{}))
	cache.InvalidateSummary(context.Background(), uuid.New())
}
