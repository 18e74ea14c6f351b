package unit

import (
	"context"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/require"

	"github.com/openrx/admatch/internal/domain/ads"
	"github.com/openrx/admatch/internal/domain/catalog"
	"github.com/openrx/admatch/internal/domain/stats"
	"github.com/openrx/admatch/internal/infra/adrepo"
	"github.com/openrx/admatch/internal/infra/eventrepo"
	"github.com/openrx/admatch/internal/infra/llm/chatgpt"
	"github.com/openrx/admatch/internal/infra/statcache"
)

// Exercises the whole delivery path against the in-memory stores: an
// advertiser sets up a bid, a physician question matches the category, the
// auction picks the bid, the impression lands in the ledger and the dashboard
// rollup reflects it.
func TestAdDeliveryEndToEnd(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	repo := adrepo.NewMemoryRepository()
	events := eventrepo.NewMemoryRepository()
	cache := statcache.NewMemoryStore()

	companyID := repo.AddCompany("Acme Pharma")
	campaign := repo.AddCampaign(catalog.Campaign{
		CompanyID:     companyID,
		TreatmentName: "Sumatriptan",
		Description:   "Fast-acting migraine relief",
		ProductURL:    "https://acmepharma.example/sumatriptan",
		Active:        true,
	})

	catalogSvc := catalog.NewService(
		catalog.Config{EmbeddingModel: "text-embedding-3-small"},
		repo,
		&fixedEmbedder{vector: []float32{1, 0, 0}},
		logger,
	)
	created, err := catalogSvc.CreateBid(ctx, catalog.CreateBidRequest{
		CampaignID:   campaign.ID,
		CategoryName: "migraine treatments",
		BidAmount:    3.5,
		Active:       true,
	})
	require.NoError(t, err)
	require.True(t, created.CategoryCreated)

	adsSvc := ads.NewService(
		ads.Config{EmbeddingModel: "text-embedding-3-small", SimilarityThreshold: 0.1},
		repo, repo, events,
		&fixedEmbedder{vector: []float32{0.42, 0.9075, 0}},
		logger,
	)

	match, err := adsSvc.Match(ctx, ads.MatchRequest{Question: "What is the best treatment for chronic migraines?"})
	require.NoError(t, err)
	require.True(t, match.Matched)
	require.Equal(t, "migraine treatments", match.Category)
	require.InDelta(t, 0.42, match.Similarity, 0.001)
	require.NotNil(t, match.Ad)
	require.Equal(t, created.Bid.ID, match.Ad.CampaignCategoryID)
	require.Equal(t, 3.5, match.Ad.Bid)
	require.Equal(t, "Sumatriptan", match.Ad.TreatmentName)
	require.Equal(t, "Acme Pharma", match.Ad.CompanyName)

	// The client renders the ad and reports the billable event with the bid
	// snapshot it was handed.
	bid := match.Ad.Bid
	require.NoError(t, adsSvc.RecordImpression(ctx, ads.EventRequest{
		CampaignCategoryID: match.Ad.CampaignCategoryID,
		Bid:                &bid,
	}))

	statsSvc := stats.NewService(stats.Config{CacheTTL: time.Minute}, repo, events, cache, logger)
	report, err := statsSvc.CampaignReport(ctx, campaign.ID, stats.DateRange{})
	require.NoError(t, err)

	require.Equal(t, int64(1), report.Totals.Impressions)
	require.Zero(t, report.Totals.Clicks)
	require.InDelta(t, 3.5, report.Totals.Spend, 1e-9)

	require.Len(t, report.Categories, 1)
	line := report.Categories[0]
	require.Equal(t, "migraine treatments", line.CategoryName)
	require.Equal(t, int64(1), line.Matches, "the match was counted before the auction")
	require.InDelta(t, 1.0, line.WinRate, 1e-9)
}

func TestBidRaiseDoesNotRewriteSpendHistory(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	repo := adrepo.NewMemoryRepository()
	events := eventrepo.NewMemoryRepository()

	companyID := repo.AddCompany("Acme Pharma")
	campaign := repo.AddCampaign(catalog.Campaign{CompanyID: companyID, TreatmentName: "Sumatriptan", Active: true})

	catalogSvc := catalog.NewService(
		catalog.Config{EmbeddingModel: "text-embedding-3-small"},
		repo,
		&fixedEmbedder{vector: []float32{1, 0}},
		logger,
	)
	created, err := catalogSvc.CreateBid(ctx, catalog.CreateBidRequest{
		CampaignID:   campaign.ID,
		CategoryName: "migraine treatments",
		BidAmount:    3.5,
		Active:       true,
	})
	require.NoError(t, err)

	adsSvc := ads.NewService(
		ads.Config{EmbeddingModel: "text-embedding-3-small", SimilarityThreshold: 0.1},
		repo, repo, events,
		&fixedEmbedder{vector: []float32{1, 0}},
		logger,
	)

	oldBid := 3.5
	require.NoError(t, adsSvc.RecordImpression(ctx, ads.EventRequest{CampaignCategoryID: created.Bid.ID, Bid: &oldBid}))

	raised := 5.0
	updated, err := catalogSvc.UpdateBid(ctx, campaign.ID, created.Bid.CategoryID, catalog.UpdateBidRequest{BidAmount: &raised})
	require.NoError(t, err)
	require.True(t, updated.Changed)

	// The next win is billed at the new price; the old event keeps its snapshot.
	match, err := adsSvc.Match(ctx, ads.MatchRequest{Question: "migraine options?"})
	require.NoError(t, err)
	require.Equal(t, 5.0, match.Ad.Bid)
	newBid := match.Ad.Bid
	require.NoError(t, adsSvc.RecordImpression(ctx, ads.EventRequest{CampaignCategoryID: match.Ad.CampaignCategoryID, Bid: &newBid}))

	statsSvc := stats.NewService(stats.Config{}, repo, events, statcache.NewMemoryStore(), logger)
	report, err := statsSvc.CampaignReport(ctx, campaign.ID, stats.DateRange{})
	require.NoError(t, err)
	require.Equal(t, int64(2), report.Totals.Impressions)
	require.InDelta(t, 8.5, report.Totals.Spend, 1e-9)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixedEmbedder struct {
	vector []float32
}

func (s *fixedEmbedder) CreateEmbedding(context.Context, chatgpt.EmbeddingRequest) (chatgpt.EmbeddingResponse, error) {
	var resp chatgpt.EmbeddingResponse
	resp.Data = append(resp.Data, struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	}{Embedding: s.vector})
	return resp, nil
}
