package catalog

import (
	"context"
	"errors"
)

// ErrBidExists signals a duplicate (campaign, category) association.
var ErrBidExists = errors.New("bid association already exists")

// Repository covers the advertiser-authored setup paths.
type Repository interface {
	FindCategoryByName(ctx context.Context, name string) (CategoryRecord, bool, error)
	InsertCategory(ctx context.Context, name string, embedding []float32) (CategoryRecord, error)
	FindBid(ctx context.Context, campaignID, categoryID int64) (BidRecord, bool, error)
	// InsertBid returns ErrBidExists when the (campaign, category) pair is
	// already associated.
	InsertBid(ctx context.Context, campaignID, categoryID int64, bid float64, active bool) (BidRecord, error)
	UpdateBid(ctx context.Context, bidID int64, bid float64, active bool) error
	FindCampaign(ctx context.Context, campaignID int64) (Campaign, bool, error)
	ListCampaignsByCompany(ctx context.Context, companyID int64) ([]Campaign, error)
}
