package catalog

import (
	"context"
	"io"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/require"

	"github.com/openrx/admatch/internal/infra/llm/chatgpt"
	apperrors "github.com/openrx/admatch/pkg/errors"
)

func TestCreateBidCreatesCategoryOnFirstUse(t *testing.T) {
	repo := newStubRepo()
	repo.campaigns[1] = Campaign{ID: 1, CompanyID: 1, TreatmentName: "Sumatriptan", Active: true}
	embedder := &stubEmbedder{vector: []float32{0.1, 0.2}}
	svc := newServiceUnderTest(t, repo, embedder)

	resp, err := svc.CreateBid(context.Background(), CreateBidRequest{
		CampaignID:   1,
		CategoryName: "migraine treatments",
		BidAmount:    3.5,
		Active:       true,
	})
	require.NoError(t, err)
	require.True(t, resp.CategoryCreated)
	require.Equal(t, "migraine treatments", resp.Bid.CategoryName)
	require.Equal(t, 3.5, resp.Bid.BidAmount)
	require.Equal(t, 1, embedder.calls, "new category needs exactly one embedding")
}

func TestCreateBidReusesExistingCategory(t *testing.T) {
	repo := newStubRepo()
	repo.campaigns[1] = Campaign{ID: 1, Active: true}
	repo.categories["migraine treatments"] = CategoryRecord{ID: 5, Name: "migraine treatments"}
	embedder := &stubEmbedder{}
	svc := newServiceUnderTest(t, repo, embedder)

	resp, err := svc.CreateBid(context.Background(), CreateBidRequest{
		CampaignID:   1,
		CategoryName: "migraine treatments",
		BidAmount:    2,
	})
	require.NoError(t, err)
	require.False(t, resp.CategoryCreated)
	require.Equal(t, int64(5), resp.Bid.CategoryID)
	require.Zero(t, embedder.calls, "exact string match reuses the stored embedding")
}

func TestCreateBidRejectsDuplicatePair(t *testing.T) {
	repo := newStubRepo()
	repo.campaigns[1] = Campaign{ID: 1, Active: true}
	repo.categories["migraine treatments"] = CategoryRecord{ID: 5, Name: "migraine treatments"}
	repo.insertBidErr = ErrBidExists
	svc := newServiceUnderTest(t, repo, &stubEmbedder{})

	_, err := svc.CreateBid(context.Background(), CreateBidRequest{
		CampaignID:   1,
		CategoryName: "migraine treatments",
		BidAmount:    2,
	})
	require.True(t, apperrors.IsCode(err, "bid_exists"))
}

func TestCreateBidUnknownCampaign(t *testing.T) {
	svc := newServiceUnderTest(t, newStubRepo(), &stubEmbedder{})

	_, err := svc.CreateBid(context.Background(), CreateBidRequest{CampaignID: 99, CategoryName: "x"})
	require.True(t, apperrors.IsCode(err, "campaign_not_found"))
}

func TestCreateBidValidation(t *testing.T) {
	svc := newServiceUnderTest(t, newStubRepo(), &stubEmbedder{})

	_, err := svc.CreateBid(context.Background(), CreateBidRequest{CampaignID: 1, CategoryName: "  "})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = svc.CreateBid(context.Background(), CreateBidRequest{CampaignID: 1, CategoryName: "x", BidAmount: -1})
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestUpdateBidDetectsNoOp(t *testing.T) {
	repo := newStubRepo()
	repo.bids[[2]int64{1, 5}] = BidRecord{ID: 10, CampaignID: 1, CategoryID: 5, Bid: 2, Active: true}
	svc := newServiceUnderTest(t, repo, &stubEmbedder{})

	same := 2.0
	active := true
	resp, err := svc.UpdateBid(context.Background(), 1, 5, UpdateBidRequest{BidAmount: &same, Active: &active})
	require.NoError(t, err)
	require.False(t, resp.Changed)
	require.Zero(t, repo.updateCalls, "no-op submits never reach the store")
}

func TestUpdateBidAppliesPartialChange(t *testing.T) {
	repo := newStubRepo()
	repo.bids[[2]int64{1, 5}] = BidRecord{ID: 10, CampaignID: 1, CategoryID: 5, Bid: 2, Active: true}
	svc := newServiceUnderTest(t, repo, &stubEmbedder{})

	raised := 4.0
	resp, err := svc.UpdateBid(context.Background(), 1, 5, UpdateBidRequest{BidAmount: &raised})
	require.NoError(t, err)
	require.True(t, resp.Changed)
	require.Equal(t, 4.0, resp.Bid.BidAmount)
	require.True(t, resp.Bid.Active, "untouched fields keep their value")
}

func TestUpdateBidNotFound(t *testing.T) {
	svc := newServiceUnderTest(t, newStubRepo(), &stubEmbedder{})

	bid := 1.0
	_, err := svc.UpdateBid(context.Background(), 1, 5, UpdateBidRequest{BidAmount: &bid})
	require.True(t, apperrors.IsCode(err, "bid_not_found"))
}

func TestUpdateBidRequiresSomeField(t *testing.T) {
	svc := newServiceUnderTest(t, newStubRepo(), &stubEmbedder{})

	_, err := svc.UpdateBid(context.Background(), 1, 5, UpdateBidRequest{})
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func newServiceUnderTest(t *testing.T, repo Repository, client EmbedClient) Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(Config{EmbeddingModel: "text-embedding-3-small"}, repo, client, logger)
}

type stubRepo struct {
	campaigns    map[int64]Campaign
	categories   map[string]CategoryRecord
	bids         map[[2]int64]BidRecord
	insertBidErr error

	nextID      int64
	updateCalls int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		campaigns:  make(map[int64]Campaign),
		categories: make(map[string]CategoryRecord),
		bids:       make(map[[2]int64]BidRecord),
		nextID:     100,
	}
}

func (r *stubRepo) FindCategoryByName(_ context.Context, name string) (CategoryRecord, bool, error) {
	rec, ok := r.categories[name]
	return rec, ok, nil
}

func (r *stubRepo) InsertCategory(_ context.Context, name string, _ []float32) (CategoryRecord, error) {
	r.nextID++
	rec := CategoryRecord{ID: r.nextID, Name: name}
	r.categories[name] = rec
	return rec, nil
}

func (r *stubRepo) FindBid(_ context.Context, campaignID, categoryID int64) (BidRecord, bool, error) {
	rec, ok := r.bids[[2]int64{campaignID, categoryID}]
	return rec, ok, nil
}

func (r *stubRepo) InsertBid(_ context.Context, campaignID, categoryID int64, bid float64, active bool) (BidRecord, error) {
	if r.insertBidErr != nil {
		return BidRecord{}, r.insertBidErr
	}
	r.nextID++
	rec := BidRecord{ID: r.nextID, CampaignID: campaignID, CategoryID: categoryID, Bid: bid, Active: active}
	r.bids[[2]int64{campaignID, categoryID}] = rec
	return rec, nil
}

func (r *stubRepo) UpdateBid(_ context.Context, bidID int64, bid float64, active bool) error {
	r.updateCalls++
	for key, rec := range r.bids {
		if rec.ID == bidID {
			rec.Bid = bid
			rec.Active = active
			r.bids[key] = rec
		}
	}
	return nil
}

func (r *stubRepo) FindCampaign(_ context.Context, campaignID int64) (Campaign, bool, error) {
	c, ok := r.campaigns[campaignID]
	return c, ok, nil
}

func (r *stubRepo) ListCampaignsByCompany(_ context.Context, companyID int64) ([]Campaign, error) {
	var out []Campaign
	for _, c := range r.campaigns {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubEmbedder struct {
	vector []float32
	calls  int
}

func (s *stubEmbedder) CreateEmbedding(context.Context, chatgpt.EmbeddingRequest) (chatgpt.EmbeddingResponse, error) {
	s.calls++
	var resp chatgpt.EmbeddingResponse
	resp.Data = append(resp.Data, struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	}{Embedding: s.vector})
	return resp, nil
}
