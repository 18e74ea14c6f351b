package stats

import "time"

// DateRange bounds an aggregation window on created_at. Nil means unbounded,
// so the zero value covers all time.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Key renders the range for cache key construction. Bounds keep their full
// precision so ranges differing only in time-of-day never share a key.
func (r DateRange) Key() string {
	from, to := "", ""
	if r.From != nil {
		from = r.From.UTC().Format(time.RFC3339Nano)
	}
	if r.To != nil {
		to = r.To.UTC().Format(time.RFC3339Nano)
	}
	return from + ":" + to
}

// Event is one impression or click row with its bid snapshot. The snapshot is
// the cost accrual basis; later bid edits never rewrite history.
type Event struct {
	CampaignCategoryID int64
	Bid                float64
	CreatedAt          time.Time
}

// BidRef maps a campaign-category id onto its campaign and category for
// cross-tabulation, carrying the exposure counter along.
type BidRef struct {
	ID           int64
	CampaignID   int64
	CampaignName string
	CategoryID   int64
	CategoryName string
	Matches      int64
}

// DailyPoint is one time-series bucket, keyed by UTC calendar day.
type DailyPoint struct {
	Date        string  `json:"date"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
}

// Totals sums the whole window.
type Totals struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
}

// CategoryLine is the per-category breakdown row. WinRate divides delivered
// impressions by the best-effort matches counter, so it is approximate.
type CategoryLine struct {
	CategoryID   int64   `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Matches      int64   `json:"matches"`
	Impressions  int64   `json:"impressions"`
	Clicks       int64   `json:"clicks"`
	Spend        float64 `json:"spend"`
	WinRate      float64 `json:"winRate"`
}

// CampaignLine is the per-campaign breakdown row for company scope.
type CampaignLine struct {
	CampaignID   int64   `json:"campaignId"`
	CampaignName string  `json:"campaignName"`
	Impressions  int64   `json:"impressions"`
	Clicks       int64   `json:"clicks"`
	Spend        float64 `json:"spend"`
}

// CampaignReport is the dashboard payload for one campaign.
type CampaignReport struct {
	CampaignID int64          `json:"campaignId"`
	TimeSeries []DailyPoint   `json:"timeSeries"`
	Categories []CategoryLine `json:"categories"`
	Totals     Totals         `json:"totals"`
}

// CompanyReport is the dashboard payload for one advertiser.
type CompanyReport struct {
	CompanyID  int64          `json:"companyId"`
	TimeSeries []DailyPoint   `json:"timeSeries"`
	Campaigns  []CampaignLine `json:"campaigns"`
	Totals     Totals         `json:"totals"`
}

// CategoryOverview lists every category with its rollups.
type CategoryOverview struct {
	Categories []CategoryLine `json:"categories"`
}
