package catalog

import (
	"context"
	"errors"
	"strings"

	"log/slog"

	"github.com/openrx/admatch/internal/infra/llm/chatgpt"
	apperrors "github.com/openrx/admatch/pkg/errors"
)

// Service exposes the campaign setup workflows advertisers use.
type Service interface {
	CreateBid(ctx context.Context, req CreateBidRequest) (CreateBidResponse, error)
	UpdateBid(ctx context.Context, campaignID, categoryID int64, req UpdateBidRequest) (UpdateBidResponse, error)
	ListCampaigns(ctx context.Context, companyID int64) ([]Campaign, error)
}

// EmbedClient is the slice of the LLM client category creation needs.
type EmbedClient interface {
	CreateEmbedding(ctx context.Context, req chatgpt.EmbeddingRequest) (chatgpt.EmbeddingResponse, error)
}

// Config tunes category creation.
type Config struct {
	EmbeddingModel string
}

type service struct {
	cfg    Config
	repo   Repository
	client EmbedClient
	logger *slog.Logger
}

// NewService wires up the catalog domain.
func NewService(cfg Config, repo Repository, client EmbedClient, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		repo:   repo,
		client: client,
		logger: logger.With("component", "catalog.service"),
	}
}

// CreateBid resolves the category by exact string, creating it with a fresh
// embedding on first use, then inserts the bid association. The two steps are
// not atomic: a crash in between leaves a category with no bids, and the retry
// reuses it through the unique string lookup.
func (s *service) CreateBid(ctx context.Context, req CreateBidRequest) (CreateBidResponse, error) {
	name := strings.TrimSpace(req.CategoryName)
	if name == "" {
		return CreateBidResponse{}, apperrors.Wrap("invalid_input", "categoryName cannot be empty", nil)
	}
	if req.CampaignID <= 0 {
		return CreateBidResponse{}, apperrors.Wrap("invalid_input", "campaignId is required", nil)
	}
	if req.BidAmount < 0 {
		return CreateBidResponse{}, apperrors.Wrap("invalid_input", "bidAmount cannot be negative", nil)
	}

	campaign, found, err := s.repo.FindCampaign(ctx, req.CampaignID)
	if err != nil {
		return CreateBidResponse{}, apperrors.Wrap("catalog_error", "campaign lookup failed", err)
	}
	if !found {
		return CreateBidResponse{}, apperrors.Wrap("campaign_not_found", "campaign not found", nil)
	}

	category, found, err := s.repo.FindCategoryByName(ctx, name)
	if err != nil {
		return CreateBidResponse{}, apperrors.Wrap("catalog_error", "category lookup failed", err)
	}
	created := false
	if !found {
		embedding, err := s.embedCategory(ctx, name)
		if err != nil {
			return CreateBidResponse{}, apperrors.Wrap("llm_error", "category embedding failed", err)
		}
		category, err = s.repo.InsertCategory(ctx, name, embedding)
		if err != nil {
			return CreateBidResponse{}, apperrors.Wrap("catalog_error", "failed to create category", err)
		}
		created = true
		s.logger.Info("advertising category created", "categoryId", category.ID, "category", name)
	}

	bid, err := s.repo.InsertBid(ctx, campaign.ID, category.ID, req.BidAmount, req.Active)
	if err != nil {
		if errors.Is(err, ErrBidExists) {
			return CreateBidResponse{}, apperrors.Wrap("bid_exists", "campaign already bids on this category", err)
		}
		return CreateBidResponse{}, apperrors.Wrap("catalog_error", "failed to create bid", err)
	}

	return CreateBidResponse{
		Bid:             toView(bid, category.Name),
		CategoryCreated: created,
	}, nil
}

// UpdateBid adjusts bid amount and active flag on an existing association and
// reports Changed=false when the submitted values equal current state.
func (s *service) UpdateBid(ctx context.Context, campaignID, categoryID int64, req UpdateBidRequest) (UpdateBidResponse, error) {
	if req.BidAmount == nil && req.Active == nil {
		return UpdateBidResponse{}, apperrors.Wrap("invalid_input", "nothing to update", nil)
	}
	if req.BidAmount != nil && *req.BidAmount < 0 {
		return UpdateBidResponse{}, apperrors.Wrap("invalid_input", "bidAmount cannot be negative", nil)
	}

	bid, found, err := s.repo.FindBid(ctx, campaignID, categoryID)
	if err != nil {
		return UpdateBidResponse{}, apperrors.Wrap("catalog_error", "bid lookup failed", err)
	}
	if !found {
		return UpdateBidResponse{}, apperrors.Wrap("bid_not_found", "bid association not found", nil)
	}

	nextBid := bid.Bid
	if req.BidAmount != nil {
		nextBid = *req.BidAmount
	}
	nextActive := bid.Active
	if req.Active != nil {
		nextActive = *req.Active
	}
	if nextBid == bid.Bid && nextActive == bid.Active {
		return UpdateBidResponse{Bid: toView(bid, ""), Changed: false}, nil
	}

	if err := s.repo.UpdateBid(ctx, bid.ID, nextBid, nextActive); err != nil {
		return UpdateBidResponse{}, apperrors.Wrap("catalog_error", "failed to update bid", err)
	}
	bid.Bid = nextBid
	bid.Active = nextActive
	return UpdateBidResponse{Bid: toView(bid, ""), Changed: true}, nil
}

func (s *service) ListCampaigns(ctx context.Context, companyID int64) ([]Campaign, error) {
	campaigns, err := s.repo.ListCampaignsByCompany(ctx, companyID)
	if err != nil {
		return nil, apperrors.Wrap("catalog_error", "failed to list campaigns", err)
	}
	return campaigns, nil
}

func (s *service) embedCategory(ctx context.Context, name string) ([]float32, error) {
	resp, err := s.client.CreateEmbedding(ctx, chatgpt.EmbeddingRequest{
		Model: s.cfg.EmbeddingModel,
		Input: name,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("embedding response empty")
	}
	vector := make([]float32, len(resp.Data[0].Embedding))
	copy(vector, resp.Data[0].Embedding)
	return vector, nil
}

func toView(bid BidRecord, categoryName string) BidView {
	return BidView{
		ID:           bid.ID,
		CampaignID:   bid.CampaignID,
		CategoryID:   bid.CategoryID,
		CategoryName: categoryName,
		BidAmount:    bid.Bid,
		Active:       bid.Active,
		Matches:      bid.Matches,
	}
}
