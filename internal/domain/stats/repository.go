package stats

import (
	"context"
	"time"
)

// BidRepository resolves scope ids into campaign-category references.
type BidRepository interface {
	ListBidRefsByCampaign(ctx context.Context, campaignID int64) ([]BidRef, error)
	ListBidRefsByCompany(ctx context.Context, companyID int64) ([]BidRef, error)
	ListBidRefs(ctx context.Context) ([]BidRef, error)
}

// EventRepository fetches the append-only event log for a set of
// campaign-category ids.
type EventRepository interface {
	ListImpressions(ctx context.Context, campaignCategoryIDs []int64, rng DateRange) ([]Event, error)
	ListClicks(ctx context.Context, campaignCategoryIDs []int64, rng DateRange) ([]Event, error)
}

// Cache holds serialized aggregation results keyed by (scope, dateRange).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}
