package bill

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache wraps Redis helpers for cached bill summaries.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func summaryKey(billID uuid.UUID) string {
	return fmt.Sprintf("bill:summary:%s", billID)
}

// GetSummary loads a cached settlement summary. It reports whether the key
// existed; cache errors surface as a miss.
func (c *Cache) GetSummary(ctx context.Context, billID uuid.UUID) (Summary, bool) {
	if c == nil || c.client == nil {
		return Summary{}, false
	}
	data, err := c.client.Get(ctx, summaryKey(billID)).Bytes()
	if err != nil {
		return Summary{}, false
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, false
	}
	return s, true
}

// SetSummary stores the settlement summary with the configured TTL.
func (c *Cache) SetSummary(ctx context.Context, summary Summary) error {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey(summary.BillID), data, c.ttl).Err()
}

// InvalidateSummary drops the cached summary after any mutation of the bill.
func (c *Cache) InvalidateSummary(ctx context.Context, billID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, summaryKey(billID))
}
