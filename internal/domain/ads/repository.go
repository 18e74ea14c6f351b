package ads

import "context"

// CategoryRepository performs vector lookups over advertising categories.
type CategoryRepository interface {
	// FindNearest returns the single closest category and its cosine
	// similarity. found is false when the store holds no categories.
	FindNearest(ctx context.Context, embedding []float32) (CategoryMatch, bool, error)
}

// BidRepository encapsulates campaign_categories operations used by the
// match counter and the auction.
type BidRepository interface {
	// ListBidsByCategory returns every bid row for the category, including
	// inactive rows and rows whose campaign is inactive.
	ListBidsByCategory(ctx context.Context, categoryID int64) ([]BidRow, error)
	// UpdateBidMatches writes an absolute matches value back to one row.
	UpdateBidMatches(ctx context.Context, bidID int64, matches int64) error
	// SelectWinner returns the highest eligible bid joined with campaign and
	// company. Ties break toward the lowest row id so repeated auctions over
	// unchanged data stay deterministic.
	SelectWinner(ctx context.Context, categoryID int64) (BidWithCampaignAndCompany, bool, error)
}

// EventRepository appends immutable billable events.
type EventRepository interface {
	InsertImpression(ctx context.Context, campaignCategoryID int64, bid float64) error
	InsertClick(ctx context.Context, campaignCategoryID int64, bid float64) error
}
