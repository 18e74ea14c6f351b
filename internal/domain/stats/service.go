package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"log/slog"

	apperrors "github.com/openrx/admatch/pkg/errors"
	"github.com/openrx/admatch/pkg/util"
)

// Service rolls the event log up into dashboard payloads. Aggregation is a
// pure function of the rows, so results are cached by (scope, dateRange).
type Service interface {
	CampaignReport(ctx context.Context, campaignID int64, rng DateRange) (CampaignReport, error)
	CompanyReport(ctx context.Context, companyID int64, rng DateRange) (CompanyReport, error)
	CategoryOverview(ctx context.Context, rng DateRange) (CategoryOverview, error)
}

// Config tunes result caching.
type Config struct {
	CacheTTL time.Duration
}

type service struct {
	cfg    Config
	bids   BidRepository
	events EventRepository
	cache  Cache
	logger *slog.Logger
}

// NewService wires up the stats domain.
func NewService(cfg Config, bids BidRepository, events EventRepository, cache Cache, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		bids:   bids,
		events: events,
		cache:  cache,
		logger: logger.With("component", "stats.service"),
	}
}

func (s *service) CampaignReport(ctx context.Context, campaignID int64, rng DateRange) (CampaignReport, error) {
	key := fmt.Sprintf("stats:campaign:%d:%s", campaignID, rng.Key())
	var cached CampaignReport
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	refs, err := s.bids.ListBidRefsByCampaign(ctx, campaignID)
	if err != nil {
		return CampaignReport{}, apperrors.Wrap("stats_error", "failed to load campaign bids", err)
	}
	impressions, clicks, err := s.loadEvents(ctx, refs, rng)
	if err != nil {
		return CampaignReport{}, err
	}

	report := CampaignReport{
		CampaignID: campaignID,
		TimeSeries: buildTimeSeries(impressions, clicks),
		Categories: buildCategoryLines(refs, impressions, clicks),
		Totals:     buildTotals(impressions, clicks),
	}
	s.toCache(ctx, key, report)
	return report, nil
}

func (s *service) CompanyReport(ctx context.Context, companyID int64, rng DateRange) (CompanyReport, error) {
	key := fmt.Sprintf("stats:company:%d:%s", companyID, rng.Key())
	var cached CompanyReport
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	refs, err := s.bids.ListBidRefsByCompany(ctx, companyID)
	if err != nil {
		return CompanyReport{}, apperrors.Wrap("stats_error", "failed to load company bids", err)
	}
	impressions, clicks, err := s.loadEvents(ctx, refs, rng)
	if err != nil {
		return CompanyReport{}, err
	}

	report := CompanyReport{
		CompanyID:  companyID,
		TimeSeries: buildTimeSeries(impressions, clicks),
		Campaigns:  buildCampaignLines(refs, impressions, clicks),
		Totals:     buildTotals(impressions, clicks),
	}
	s.toCache(ctx, key, report)
	return report, nil
}

func (s *service) CategoryOverview(ctx context.Context, rng DateRange) (CategoryOverview, error) {
	key := "stats:categories:" + rng.Key()
	var cached CategoryOverview
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	refs, err := s.bids.ListBidRefs(ctx)
	if err != nil {
		return CategoryOverview{}, apperrors.Wrap("stats_error", "failed to load bids", err)
	}
	impressions, clicks, err := s.loadEvents(ctx, refs, rng)
	if err != nil {
		return CategoryOverview{}, err
	}

	overview := CategoryOverview{Categories: buildCategoryLines(refs, impressions, clicks)}
	s.toCache(ctx, key, overview)
	return overview, nil
}

func (s *service) loadEvents(ctx context.Context, refs []BidRef, rng DateRange) ([]Event, []Event, error) {
	ids := make([]int64, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}
	impressions, err := s.events.ListImpressions(ctx, ids, rng)
	if err != nil {
		return nil, nil, apperrors.Wrap("stats_error", "failed to load impressions", err)
	}
	clicks, err := s.events.ListClicks(ctx, ids, rng)
	if err != nil {
		return nil, nil, apperrors.Wrap("stats_error", "failed to load clicks", err)
	}
	return impressions, clicks, nil
}

func (s *service) fromCache(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("stats cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		s.logger.Warn("stats cache payload corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (s *service) toCache(ctx context.Context, key string, value any) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("stats cache write failed", "key", key, "error", err)
	}
}

func buildTimeSeries(impressions, clicks []Event) []DailyPoint {
	buckets := make(map[string]*DailyPoint)
	bucket := func(day string) *DailyPoint {
		p, ok := buckets[day]
		if !ok {
			p = &DailyPoint{Date: day}
			buckets[day] = p
		}
		return p
	}
	for _, e := range impressions {
		p := bucket(util.DayKey(e.CreatedAt))
		p.Impressions++
		p.Spend += e.Bid
	}
	for _, e := range clicks {
		p := bucket(util.DayKey(e.CreatedAt))
		p.Clicks++
		p.Spend += e.Bid
	}
	series := make([]DailyPoint, 0, len(buckets))
	for _, p := range buckets {
		series = append(series, *p)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}

func buildTotals(impressions, clicks []Event) Totals {
	var t Totals
	for _, e := range impressions {
		t.Impressions++
		t.Spend += e.Bid
	}
	for _, e := range clicks {
		t.Clicks++
		t.Spend += e.Bid
	}
	return t
}

func buildCategoryLines(refs []BidRef, impressions, clicks []Event) []CategoryLine {
	byCategory := make(map[int64]*CategoryLine)
	refCategory := make(map[int64]int64, len(refs))
	for _, ref := range refs {
		refCategory[ref.ID] = ref.CategoryID
		line, ok := byCategory[ref.CategoryID]
		if !ok {
			line = &CategoryLine{CategoryID: ref.CategoryID, CategoryName: ref.CategoryName}
			byCategory[ref.CategoryID] = line
		}
		line.Matches += ref.Matches
	}
	for _, e := range impressions {
		if line, ok := byCategory[refCategory[e.CampaignCategoryID]]; ok {
			line.Impressions++
			line.Spend += e.Bid
		}
	}
	for _, e := range clicks {
		if line, ok := byCategory[refCategory[e.CampaignCategoryID]]; ok {
			line.Clicks++
			line.Spend += e.Bid
		}
	}
	lines := make([]CategoryLine, 0, len(byCategory))
	for _, line := range byCategory {
		if line.Matches > 0 {
			line.WinRate = float64(line.Impressions) / float64(line.Matches)
		}
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].CategoryID < lines[j].CategoryID })
	return lines
}

func buildCampaignLines(refs []BidRef, impressions, clicks []Event) []CampaignLine {
	byCampaign := make(map[int64]*CampaignLine)
	refCampaign := make(map[int64]int64, len(refs))
	for _, ref := range refs {
		refCampaign[ref.ID] = ref.CampaignID
		if _, ok := byCampaign[ref.CampaignID]; !ok {
			byCampaign[ref.CampaignID] = &CampaignLine{CampaignID: ref.CampaignID, CampaignName: ref.CampaignName}
		}
	}
	for _, e := range impressions {
		if line, ok := byCampaign[refCampaign[e.CampaignCategoryID]]; ok {
			line.Impressions++
			line.Spend += e.Bid
		}
	}
	for _, e := range clicks {
		if line, ok := byCampaign[refCampaign[e.CampaignCategoryID]]; ok {
			line.Clicks++
			line.Spend += e.Bid
		}
	}
	lines := make([]CampaignLine, 0, len(byCampaign))
	for _, line := range byCampaign {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].CampaignID < lines[j].CampaignID })
	return lines
}
