package eventrepo

import (
	"context"
	"sync"
	"time"

	"github.com/openrx/admatch/internal/domain/ads"
	"github.com/openrx/admatch/internal/domain/stats"
	"github.com/openrx/admatch/pkg/util"
)

// MemoryRepository is an in-memory event ledger used for tests/dev.
type MemoryRepository struct {
	mu          sync.RWMutex
	impressions []stats.Event
	clicks      []stats.Event
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// InsertImpression implements ads.EventRepository.
func (r *MemoryRepository) InsertImpression(_ context.Context, campaignCategoryID int64, bid float64) error {
	r.AddImpressionAt(campaignCategoryID, bid, util.NowUTC())
	return nil
}

// InsertClick implements ads.EventRepository.
func (r *MemoryRepository) InsertClick(_ context.Context, campaignCategoryID int64, bid float64) error {
	r.AddClickAt(campaignCategoryID, bid, util.NowUTC())
	return nil
}

// AddImpressionAt seeds an impression with an explicit timestamp.
func (r *MemoryRepository) AddImpressionAt(campaignCategoryID int64, bid float64, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.impressions = append(r.impressions, stats.Event{
		CampaignCategoryID: campaignCategoryID,
		Bid:                bid,
		CreatedAt:          at,
	})
}

// AddClickAt seeds a click with an explicit timestamp.
func (r *MemoryRepository) AddClickAt(campaignCategoryID int64, bid float64, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clicks = append(r.clicks, stats.Event{
		CampaignCategoryID: campaignCategoryID,
		Bid:                bid,
		CreatedAt:          at,
	})
}

// ListImpressions implements stats.EventRepository.
func (r *MemoryRepository) ListImpressions(_ context.Context, ids []int64, rng stats.DateRange) ([]stats.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return filterEvents(r.impressions, ids, rng), nil
}

// ListClicks implements stats.EventRepository.
func (r *MemoryRepository) ListClicks(_ context.Context, ids []int64, rng stats.DateRange) ([]stats.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return filterEvents(r.clicks, ids, rng), nil
}

func filterEvents(events []stats.Event, ids []int64, rng stats.DateRange) []stats.Event {
	idSet := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	var out []stats.Event
	for _, e := range events {
		if _, ok := idSet[e.CampaignCategoryID]; !ok {
			continue
		}
		if rng.From != nil && e.CreatedAt.Before(*rng.From) {
			continue
		}
		if rng.To != nil && e.CreatedAt.After(*rng.To) {
			continue
		}
		out = append(out, e)
	}
	return out
}

var (
	_ ads.EventRepository   = (*MemoryRepository)(nil)
	_ stats.EventRepository = (*MemoryRepository)(nil)
)
