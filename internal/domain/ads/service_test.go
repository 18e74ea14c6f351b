package ads

import (
	"context"
	"errors"
	"io"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/require"

	"github.com/openrx/admatch/internal/infra/llm/chatgpt"
	apperrors "github.com/openrx/admatch/pkg/errors"
)

func TestMatchRejectsEmptyQuestion(t *testing.T) {
	svc := newServiceUnderTest(t, &stubCategories{}, &stubBids{}, &stubEvents{}, &stubEmbedder{})

	_, err := svc.Match(context.Background(), MatchRequest{Question: "   "})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestMatchBelowThresholdSkipsCountingAndAuction(t *testing.T) {
	categories := &stubCategories{
		match: CategoryMatch{CategoryID: 7, Category: "rare disease", Similarity: 0.05},
		found: true,
	}
	bids := &stubBids{}
	svc := newServiceUnderTest(t, categories, bids, &stubEvents{}, &stubEmbedder{vector: []float32{1, 0}})

	resp, err := svc.Match(context.Background(), MatchRequest{Question: "anything"})
	require.NoError(t, err)
	require.False(t, resp.Matched)
	require.Nil(t, resp.Ad)
	require.Zero(t, bids.listCalls, "no exposure counting below the similarity floor")
	require.Zero(t, bids.winnerCalls, "no auction below the similarity floor")
}

func TestMatchCountsExposureBeforeAuction(t *testing.T) {
	categories := &stubCategories{
		match: CategoryMatch{CategoryID: 3, Category: "migraine treatments", Similarity: 0.42},
		found: true,
	}
	bids := &stubBids{
		rows: []BidRow{
			{ID: 1, CategoryID: 3, Bid: 3.5, Active: true, Matches: 9},
			{ID: 2, CategoryID: 3, Bid: 1.0, Active: false, Matches: 4},
		},
		winner: BidWithCampaignAndCompany{
			BidID:         1,
			CampaignID:    11,
			CategoryID:    3,
			Bid:           3.5,
			TreatmentName: "Sumatriptan",
			CompanyName:   "Acme Pharma",
		},
		won: true,
	}
	svc := newServiceUnderTest(t, categories, bids, &stubEvents{}, &stubEmbedder{vector: []float32{1, 0}})

	resp, err := svc.Match(context.Background(), MatchRequest{Question: "best migraine treatment?"})
	require.NoError(t, err)
	require.True(t, resp.Matched)
	require.Equal(t, "migraine treatments", resp.Category)
	require.NotNil(t, resp.Ad)
	require.Equal(t, int64(1), resp.Ad.CampaignCategoryID)
	require.Equal(t, 3.5, resp.Ad.Bid)

	// Every bid row on the category is counted, active or not.
	require.Equal(t, map[int64]int64{1: 10, 2: 5}, bids.updatedMatches)
}

func TestMatchSurvivesCountingFailure(t *testing.T) {
	categories := &stubCategories{
		match: CategoryMatch{CategoryID: 3, Category: "migraine treatments", Similarity: 0.42},
		found: true,
	}
	bids := &stubBids{
		rows:      []BidRow{{ID: 1, CategoryID: 3, Matches: 0}},
		updateErr: errors.New("deadlock"),
		winner:    BidWithCampaignAndCompany{BidID: 1, CategoryID: 3, Bid: 2},
		won:       true,
	}
	svc := newServiceUnderTest(t, categories, bids, &stubEvents{}, &stubEmbedder{vector: []float32{1, 0}})

	resp, err := svc.Match(context.Background(), MatchRequest{Question: "q"})
	require.NoError(t, err, "counting failure must not take the ad slot down")
	require.NotNil(t, resp.Ad)
}

func TestMatchNoWinnerStillReportsCategory(t *testing.T) {
	categories := &stubCategories{
		match: CategoryMatch{CategoryID: 3, Category: "migraine treatments", Similarity: 0.42},
		found: true,
	}
	bids := &stubBids{won: false}
	svc := newServiceUnderTest(t, categories, bids, &stubEvents{}, &stubEmbedder{vector: []float32{1, 0}})

	resp, err := svc.Match(context.Background(), MatchRequest{Question: "q"})
	require.NoError(t, err)
	require.True(t, resp.Matched)
	require.Nil(t, resp.Ad)
}

func TestMatchWrapsEmbeddingFailure(t *testing.T) {
	svc := newServiceUnderTest(t, &stubCategories{}, &stubBids{}, &stubEvents{}, &stubEmbedder{err: errors.New("upstream 500")})

	_, err := svc.Match(context.Background(), MatchRequest{Question: "q"})
	require.True(t, apperrors.IsCode(err, "llm_error"))
}

func TestRecordMatchAbortsWithoutRollback(t *testing.T) {
	bids := &stubBids{
		rows: []BidRow{
			{ID: 1, CategoryID: 3, Matches: 1},
			{ID: 2, CategoryID: 3, Matches: 1},
			{ID: 3, CategoryID: 3, Matches: 1},
		},
		failOnBidID: 2,
		updateErr:   errors.New("timeout"),
	}
	svc := newServiceUnderTest(t, &stubCategories{}, bids, &stubEvents{}, &stubEmbedder{})

	updated, err := svc.RecordMatch(context.Background(), 3)
	require.Error(t, err)
	require.Equal(t, 1, updated)
	require.Equal(t, map[int64]int64{1: 2}, bids.updatedMatches, "rows written before the failure stay written")
}

func TestRecordImpressionValidation(t *testing.T) {
	events := &stubEvents{}
	svc := newServiceUnderTest(t, &stubCategories{}, &stubBids{}, events, &stubEmbedder{})

	err := svc.RecordImpression(context.Background(), EventRequest{CampaignCategoryID: 0})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	err = svc.RecordImpression(context.Background(), EventRequest{CampaignCategoryID: 1})
	require.True(t, apperrors.IsCode(err, "invalid_input"), "bid snapshot is required")

	negative := -1.0
	err = svc.RecordImpression(context.Background(), EventRequest{CampaignCategoryID: 1, Bid: &negative})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	bid := 3.5
	require.NoError(t, svc.RecordImpression(context.Background(), EventRequest{CampaignCategoryID: 1, Bid: &bid}))
	require.Len(t, events.impressions, 1)
	require.Equal(t, 3.5, events.impressions[0].bid)
}

func TestRecordClickKeepsBidSnapshot(t *testing.T) {
	events := &stubEvents{}
	svc := newServiceUnderTest(t, &stubCategories{}, &stubBids{}, events, &stubEmbedder{})

	bid := 0.0
	require.NoError(t, svc.RecordClick(context.Background(), EventRequest{CampaignCategoryID: 9, Bid: &bid}), "zero bid is a valid snapshot")
	require.Len(t, events.clicks, 1)
	require.Equal(t, int64(9), events.clicks[0].id)
}

func newServiceUnderTest(t *testing.T, categories CategoryRepository, bids BidRepository, events EventRepository, client EmbedClient) Service {
	t.Helper()
	cfg := Config{EmbeddingModel: "text-embedding-3-small", SimilarityThreshold: 0.1}
	return NewService(cfg, categories, bids, events, client, newTestLogger())
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubCategories struct {
	match CategoryMatch
	found bool
	err   error
}

func (s *stubCategories) FindNearest(context.Context, []float32) (CategoryMatch, bool, error) {
	return s.match, s.found, s.err
}

type stubBids struct {
	rows        []BidRow
	winner      BidWithCampaignAndCompany
	won         bool
	updateErr   error
	failOnBidID int64

	listCalls      int
	winnerCalls    int
	updatedMatches map[int64]int64
}

func (s *stubBids) ListBidsByCategory(context.Context, int64) ([]BidRow, error) {
	s.listCalls++
	return s.rows, nil
}

func (s *stubBids) UpdateBidMatches(_ context.Context, bidID int64, matches int64) error {
	if s.updateErr != nil && (s.failOnBidID == 0 || s.failOnBidID == bidID) {
		return s.updateErr
	}
	if s.updatedMatches == nil {
		s.updatedMatches = make(map[int64]int64)
	}
	s.updatedMatches[bidID] = matches
	return nil
}

func (s *stubBids) SelectWinner(context.Context, int64) (BidWithCampaignAndCompany, bool, error) {
	s.winnerCalls++
	return s.winner, s.won, nil
}

type recordedEvent struct {
	id  int64
	bid float64
}

type stubEvents struct {
	impressions []recordedEvent
	clicks      []recordedEvent
}

func (s *stubEvents) InsertImpression(_ context.Context, id int64, bid float64) error {
	s.impressions = append(s.impressions, recordedEvent{id: id, bid: bid})
	return nil
}

func (s *stubEvents) InsertClick(_ context.Context, id int64, bid float64) error {
	s.clicks = append(s.clicks, recordedEvent{id: id, bid: bid})
	return nil
}

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) CreateEmbedding(context.Context, chatgpt.EmbeddingRequest) (chatgpt.EmbeddingResponse, error) {
	if s.err != nil {
		return chatgpt.EmbeddingResponse{}, s.err
	}
	var resp chatgpt.EmbeddingResponse
	resp.Data = append(resp.Data, struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	}{Embedding: s.vector})
	return resp, nil
}
