package adrepo

import (
	"context"
	"math"
	"sync"

	"github.com/openrx/admatch/internal/domain/ads"
	"github.com/openrx/admatch/internal/domain/catalog"
	"github.com/openrx/admatch/internal/domain/stats"
)

type memoryCategory struct {
	record    catalog.CategoryRecord
	embedding []float32
}

// MemoryRepository is an in-memory repository used for tests/dev.
type MemoryRepository struct {
	mu sync.RWMutex

	nextCategoryID int64
	nextBidID      int64
	nextCampaignID int64
	nextCompanyID  int64

	categories map[int64]memoryCategory
	byName     map[string]int64
	bids       map[int64]catalog.BidRecord
	byPair     map[[2]int64]int64
	campaigns  map[int64]catalog.Campaign
	companies  map[int64]string
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextCategoryID: 1,
		nextBidID:      1,
		nextCampaignID: 1,
		nextCompanyID:  1,
		categories:     make(map[int64]memoryCategory),
		byName:         make(map[string]int64),
		bids:           make(map[int64]catalog.BidRecord),
		byPair:         make(map[[2]int64]int64),
		campaigns:      make(map[int64]catalog.Campaign),
		companies:      make(map[int64]string),
	}
}

// AddCompany seeds an advertiser and returns its id.
func (r *MemoryRepository) AddCompany(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextCompanyID
	r.nextCompanyID++
	r.companies[id] = name
	return id
}

// AddCampaign seeds a campaign and returns it with an assigned id.
func (r *MemoryRepository) AddCampaign(c catalog.Campaign) catalog.Campaign {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextCampaignID
	r.nextCampaignID++
	r.campaigns[c.ID] = c
	return c
}

// FindNearest implements ads.CategoryRepository using cosine similarity.
func (r *MemoryRepository) FindNearest(_ context.Context, embedding []float32) (ads.CategoryMatch, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		best      ads.CategoryMatch
		bestFound bool
	)
	for _, cat := range r.categories {
		sim := cosineSimilarity(embedding, cat.embedding)
		if !bestFound || sim > best.Similarity {
			best = ads.CategoryMatch{
				CategoryID: cat.record.ID,
				Category:   cat.record.Name,
				Similarity: sim,
			}
			bestFound = true
		}
	}
	return best, bestFound, nil
}

// ListBidsByCategory implements ads.BidRepository.
func (r *MemoryRepository) ListBidsByCategory(_ context.Context, categoryID int64) ([]ads.BidRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ads.BidRow
	for id := int64(1); id < r.nextBidID; id++ {
		bid, ok := r.bids[id]
		if !ok || bid.CategoryID != categoryID {
			continue
		}
		out = append(out, ads.BidRow{
			ID:         bid.ID,
			CampaignID: bid.CampaignID,
			CategoryID: bid.CategoryID,
			Bid:        bid.Bid,
			Active:     bid.Active,
			Matches:    bid.Matches,
		})
	}
	return out, nil
}

// UpdateBidMatches implements ads.BidRepository.
func (r *MemoryRepository) UpdateBidMatches(_ context.Context, bidID int64, matches int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bid, ok := r.bids[bidID]
	if !ok {
		return nil
	}
	bid.Matches = matches
	r.bids[bidID] = bid
	return nil
}

// SelectWinner implements ads.BidRepository with the same ordering the SQL
// path uses: bid descending, then lowest id.
func (r *MemoryRepository) SelectWinner(_ context.Context, categoryID int64) (ads.BidWithCampaignAndCompany, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		winner catalog.BidRecord
		found  bool
	)
	for id := int64(1); id < r.nextBidID; id++ {
		bid, ok := r.bids[id]
		if !ok || bid.CategoryID != categoryID || !bid.Active {
			continue
		}
		campaign, ok := r.campaigns[bid.CampaignID]
		if !ok || !campaign.Active {
			continue
		}
		if !found || bid.Bid > winner.Bid || (bid.Bid == winner.Bid && bid.ID < winner.ID) {
			winner = bid
			found = true
		}
	}
	if !found {
		return ads.BidWithCampaignAndCompany{}, false, nil
	}
	campaign := r.campaigns[winner.CampaignID]
	return ads.BidWithCampaignAndCompany{
		BidID:         winner.ID,
		CampaignID:    campaign.ID,
		CategoryID:    winner.CategoryID,
		Bid:           winner.Bid,
		TreatmentName: campaign.TreatmentName,
		Description:   campaign.Description,
		ProductURL:    campaign.ProductURL,
		CompanyName:   r.companies[campaign.CompanyID],
	}, true, nil
}

// FindCategoryByName implements catalog.Repository.
func (r *MemoryRepository) FindCategoryByName(_ context.Context, name string) (catalog.CategoryRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return catalog.CategoryRecord{}, false, nil
	}
	return r.categories[id].record, true, nil
}

// InsertCategory implements catalog.Repository.
func (r *MemoryRepository) InsertCategory(_ context.Context, name string, embedding []float32) (catalog.CategoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextCategoryID
	r.nextCategoryID++
	rec := catalog.CategoryRecord{ID: id, Name: name}
	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	r.categories[id] = memoryCategory{record: rec, embedding: vec}
	r.byName[name] = id
	return rec, nil
}

// FindBid implements catalog.Repository.
func (r *MemoryRepository) FindBid(_ context.Context, campaignID, categoryID int64) (catalog.BidRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPair[[2]int64{campaignID, categoryID}]
	if !ok {
		return catalog.BidRecord{}, false, nil
	}
	return r.bids[id], true, nil
}

// InsertBid implements catalog.Repository.
func (r *MemoryRepository) InsertBid(_ context.Context, campaignID, categoryID int64, bid float64, active bool) (catalog.BidRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pair := [2]int64{campaignID, categoryID}
	if _, exists := r.byPair[pair]; exists {
		return catalog.BidRecord{}, catalog.ErrBidExists
	}
	id := r.nextBidID
	r.nextBidID++
	rec := catalog.BidRecord{
		ID:         id,
		CampaignID: campaignID,
		CategoryID: categoryID,
		Bid:        bid,
		Active:     active,
	}
	r.bids[id] = rec
	r.byPair[pair] = id
	return rec, nil
}

// UpdateBid implements catalog.Repository.
func (r *MemoryRepository) UpdateBid(_ context.Context, bidID int64, bid float64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.bids[bidID]
	if !ok {
		return nil
	}
	rec.Bid = bid
	rec.Active = active
	r.bids[bidID] = rec
	return nil
}

// FindCampaign implements catalog.Repository.
func (r *MemoryRepository) FindCampaign(_ context.Context, campaignID int64) (catalog.Campaign, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[campaignID]
	return c, ok, nil
}

// ListCampaignsByCompany implements catalog.Repository.
func (r *MemoryRepository) ListCampaignsByCompany(_ context.Context, companyID int64) ([]catalog.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []catalog.Campaign
	for id := int64(1); id < r.nextCampaignID; id++ {
		c, ok := r.campaigns[id]
		if ok && c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListBidRefsByCampaign implements stats.BidRepository.
func (r *MemoryRepository) ListBidRefsByCampaign(_ context.Context, campaignID int64) ([]stats.BidRef, error) {
	return r.listRefs(func(bid catalog.BidRecord, c catalog.Campaign) bool {
		return bid.CampaignID == campaignID
	}), nil
}

// ListBidRefsByCompany implements stats.BidRepository.
func (r *MemoryRepository) ListBidRefsByCompany(_ context.Context, companyID int64) ([]stats.BidRef, error) {
	return r.listRefs(func(bid catalog.BidRecord, c catalog.Campaign) bool {
		return c.CompanyID == companyID
	}), nil
}

// ListBidRefs implements stats.BidRepository.
func (r *MemoryRepository) ListBidRefs(_ context.Context) ([]stats.BidRef, error) {
	return r.listRefs(func(catalog.BidRecord, catalog.Campaign) bool { return true }), nil
}

func (r *MemoryRepository) listRefs(keep func(catalog.BidRecord, catalog.Campaign) bool) []stats.BidRef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []stats.BidRef
	for id := int64(1); id < r.nextBidID; id++ {
		bid, ok := r.bids[id]
		if !ok {
			continue
		}
		campaign := r.campaigns[bid.CampaignID]
		if !keep(bid, campaign) {
			continue
		}
		out = append(out, stats.BidRef{
			ID:           bid.ID,
			CampaignID:   campaign.ID,
			CampaignName: campaign.TreatmentName,
			CategoryID:   bid.CategoryID,
			CategoryName: r.categories[bid.CategoryID].record.Name,
			Matches:      bid.Matches,
		})
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return -1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return -1
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var (
	_ ads.CategoryRepository = (*MemoryRepository)(nil)
	_ ads.BidRepository      = (*MemoryRepository)(nil)
	_ catalog.Repository     = (*MemoryRepository)(nil)
	_ stats.BidRepository    = (*MemoryRepository)(nil)
)
