package ads

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/openrx/admatch/internal/infra/llm/chatgpt"
	apperrors "github.com/openrx/admatch/pkg/errors"
	"github.com/openrx/admatch/pkg/metrics"
)

// Service runs the ad pipeline: embed, match, count, auction, assemble.
type Service interface {
	Match(ctx context.Context, req MatchRequest) (MatchResponse, error)
	RecordMatch(ctx context.Context, categoryID int64) (int, error)
	RecordImpression(ctx context.Context, req EventRequest) error
	RecordClick(ctx context.Context, req EventRequest) error
}

// EmbedClient is the slice of the LLM client the pipeline needs.
type EmbedClient interface {
	CreateEmbedding(ctx context.Context, req chatgpt.EmbeddingRequest) (chatgpt.EmbeddingResponse, error)
}

type service struct {
	cfg        Config
	categories CategoryRepository
	bids       BidRepository
	events     EventRepository
	client     EmbedClient
	logger     *slog.Logger
}

// NewService wires up the ad matching domain.
func NewService(cfg Config, categories CategoryRepository, bids BidRepository, events EventRepository, client EmbedClient, logger *slog.Logger) Service {
	return &service{
		cfg:        cfg,
		categories: categories,
		bids:       bids,
		events:     events,
		client:     client,
		logger:     logger.With("component", "ads.service"),
	}
}

func (s *service) Match(ctx context.Context, req MatchRequest) (MatchResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return MatchResponse{}, apperrors.Wrap("invalid_input", "question cannot be empty", nil)
	}

	start := time.Now()
	defer func() {
		metrics.MatchLatency.Observe(time.Since(start).Seconds())
	}()

	embedding, err := s.embedQuestion(ctx, question)
	if err != nil {
		metrics.MatchRequests.WithLabelValues("error").Inc()
		return MatchResponse{}, apperrors.Wrap("llm_error", "question embedding failed", err)
	}

	match, found, err := s.categories.FindNearest(ctx, embedding)
	if err != nil {
		metrics.MatchRequests.WithLabelValues("error").Inc()
		return MatchResponse{}, apperrors.Wrap("ads_error", "category lookup failed", err)
	}
	if !found || match.Similarity < s.cfg.SimilarityThreshold {
		metrics.MatchRequests.WithLabelValues("no_category").Inc()
		return MatchResponse{Matched: false}, nil
	}

	// Exposure counting happens once per resolved match, before and
	// independent of the auction outcome. A counting failure must not take
	// the ad slot down with it.
	if _, err := s.RecordMatch(ctx, match.CategoryID); err != nil {
		s.logger.Warn("match counting failed", "categoryId", match.CategoryID, "error", err)
	}

	winner, won, err := s.bids.SelectWinner(ctx, match.CategoryID)
	if err != nil {
		metrics.MatchRequests.WithLabelValues("error").Inc()
		return MatchResponse{}, apperrors.Wrap("ads_error", "auction failed", err)
	}
	if !won {
		metrics.MatchRequests.WithLabelValues("no_winner").Inc()
		return MatchResponse{Matched: true, Category: match.Category, Similarity: match.Similarity}, nil
	}

	metrics.MatchRequests.WithLabelValues("won").Inc()
	return MatchResponse{
		Matched:    true,
		Category:   match.Category,
		Similarity: match.Similarity,
		Ad: &AdPayload{
			CampaignCategoryID: winner.BidID,
			CategoryID:         winner.CategoryID,
			Bid:                winner.Bid,
			TreatmentName:      winner.TreatmentName,
			Description:        winner.Description,
			ProductURL:         winner.ProductURL,
			CompanyName:        winner.CompanyName,
		},
	}, nil
}

// RecordMatch bumps the matches counter on every bid row of the category,
// active or not. Increments are read-then-write and best effort: a row failure
// aborts the walk without rolling back rows already written. The counter is an
// analytics signal, not the billing ledger.
func (s *service) RecordMatch(ctx context.Context, categoryID int64) (int, error) {
	rows, err := s.bids.ListBidsByCategory(ctx, categoryID)
	if err != nil {
		return 0, apperrors.Wrap("ads_error", "failed to load bids for match counting", err)
	}
	updated := 0
	for _, row := range rows {
		if err := s.bids.UpdateBidMatches(ctx, row.ID, row.Matches+1); err != nil {
			return updated, apperrors.Wrap("ads_error", "match counter update failed", err)
		}
		updated++
	}
	return updated, nil
}

func (s *service) RecordImpression(ctx context.Context, req EventRequest) error {
	if err := validateEvent(req); err != nil {
		return err
	}
	if err := s.events.InsertImpression(ctx, req.CampaignCategoryID, *req.Bid); err != nil {
		return apperrors.Wrap("ads_error", "failed to record impression", err)
	}
	metrics.ImpressionsRecorded.Inc()
	return nil
}

func (s *service) RecordClick(ctx context.Context, req EventRequest) error {
	if err := validateEvent(req); err != nil {
		return err
	}
	if err := s.events.InsertClick(ctx, req.CampaignCategoryID, *req.Bid); err != nil {
		return apperrors.Wrap("ads_error", "failed to record click", err)
	}
	metrics.ClicksRecorded.Inc()
	return nil
}

func validateEvent(req EventRequest) error {
	if req.CampaignCategoryID <= 0 {
		return apperrors.Wrap("invalid_input", "campaignCategoryId is required", nil)
	}
	if req.Bid == nil {
		return apperrors.Wrap("invalid_input", "bid is required", nil)
	}
	if *req.Bid < 0 {
		return apperrors.Wrap("invalid_input", "bid cannot be negative", nil)
	}
	return nil
}

func (s *service) embedQuestion(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.client.CreateEmbedding(ctx, chatgpt.EmbeddingRequest{
		Model: s.cfg.EmbeddingModel,
		Input: text,
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
