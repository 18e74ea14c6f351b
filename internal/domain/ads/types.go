package ads

// MatchRequest carries the physician question submitted for ad matching.
type MatchRequest struct {
	Question string `json:"question"`
}

// CategoryMatch is the nearest advertising category above the similarity floor.
type CategoryMatch struct {
	CategoryID int64
	Category   string
	Similarity float64
}

// BidRow is a campaign_categories row without joins.
type BidRow struct {
	ID         int64
	CampaignID int64
	CategoryID int64
	Bid        float64
	Active     bool
	Matches    int64
}

// BidWithCampaignAndCompany is the auction result joined with its campaign and
// owning company. One explicit shape per query, no generic records.
type BidWithCampaignAndCompany struct {
	BidID         int64
	CampaignID    int64
	CategoryID    int64
	Bid           float64
	TreatmentName string
	Description   string
	ProductURL    string
	CompanyName   string
}

// AdPayload is the shape the client renders.
type AdPayload struct {
	CampaignCategoryID int64   `json:"campaignCategoryId"`
	CategoryID         int64   `json:"categoryId"`
	Bid                float64 `json:"bid"`
	TreatmentName      string  `json:"treatmentName"`
	Description        string  `json:"description"`
	ProductURL         string  `json:"productUrl"`
	CompanyName        string  `json:"companyName"`
}

// MatchResponse is returned to the HTTP transport. Ad is nil when no category
// matched or no eligible bid won; the client simply renders no ad.
type MatchResponse struct {
	Matched    bool       `json:"matched"`
	Category   string     `json:"category,omitempty"`
	Similarity float64    `json:"similarity,omitempty"`
	Ad         *AdPayload `json:"ad,omitempty"`
}

// EventRequest records a billable impression or click with its bid snapshot.
type EventRequest struct {
	CampaignCategoryID int64    `json:"campaignCategoryId"`
	Bid                *float64 `json:"bid"`
}
