package catalog

// CategoryRecord is an advertising_categories row without its embedding.
type CategoryRecord struct {
	ID   int64
	Name string
}

// BidRecord is the (campaign, category) association an advertiser owns.
type BidRecord struct {
	ID         int64
	CampaignID int64
	CategoryID int64
	Bid        float64
	Active     bool
	Matches    int64
}

// Campaign is the advertiser-facing campaign row.
type Campaign struct {
	ID            int64  `json:"id"`
	CompanyID     int64  `json:"companyId"`
	TreatmentName string `json:"treatmentName"`
	Description   string `json:"description"`
	ProductURL    string `json:"productUrl"`
	Active        bool   `json:"active"`
}

// CreateBidRequest targets a category by name, creating it on first use.
type CreateBidRequest struct {
	CampaignID   int64   `json:"campaignId"`
	CategoryName string  `json:"categoryName"`
	BidAmount    float64 `json:"bidAmount"`
	Active       bool    `json:"active"`
}

// CreateBidResponse reports what the create path did.
type CreateBidResponse struct {
	Bid             BidView `json:"bid"`
	CategoryCreated bool    `json:"categoryCreated"`
}

// UpdateBidRequest adjusts an existing association. Nil fields are untouched.
type UpdateBidRequest struct {
	BidAmount *float64 `json:"bidAmount"`
	Active    *bool    `json:"active"`
}

// UpdateBidResponse distinguishes a real write from a no-op submit.
type UpdateBidResponse struct {
	Bid     BidView `json:"bid"`
	Changed bool    `json:"changed"`
}

// BidView is the client-facing association shape.
type BidView struct {
	ID           int64   `json:"id"`
	CampaignID   int64   `json:"campaignId"`
	CategoryID   int64   `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	BidAmount    float64 `json:"bidAmount"`
	Active       bool    `json:"active"`
	Matches      int64   `json:"matches"`
}
