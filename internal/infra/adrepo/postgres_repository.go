package adrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/openrx/admatch/internal/domain/ads"
	"github.com/openrx/admatch/internal/domain/catalog"
	"github.com/openrx/admatch/internal/domain/stats"
)

const uniqueViolation = "23505"

// PostgresRepository implements the category, bid and catalog repositories
// over pgx. Category embeddings live in a pgvector column.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FindNearest returns the closest category by cosine distance, reported as
// similarity so callers can threshold on it directly.
func (r *PostgresRepository) FindNearest(ctx context.Context, embedding []float32) (ads.CategoryMatch, bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, category_string, 1 - (embedding <=> $1) AS similarity
		FROM advertising_categories
		ORDER BY embedding <=> $1
		LIMIT 1
	`, pgvector.NewVector(embedding))
	if err != nil {
		return ads.CategoryMatch{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return ads.CategoryMatch{}, false, rows.Err()
	}
	var match ads.CategoryMatch
	if err := rows.Scan(&match.CategoryID, &match.Category, &match.Similarity); err != nil {
		return ads.CategoryMatch{}, false, err
	}
	return match, true, rows.Err()
}

// ListBidsByCategory returns every bid row for the category, active or not.
func (r *PostgresRepository) ListBidsByCategory(ctx context.Context, categoryID int64) ([]ads.BidRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, campaign_id, advertising_category_id, bid, active, matches
		FROM campaign_categories
		WHERE advertising_category_id = $1
		ORDER BY id
	`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ads.BidRow
	for rows.Next() {
		var row ads.BidRow
		if err := rows.Scan(&row.ID, &row.CampaignID, &row.CategoryID, &row.Bid, &row.Active, &row.Matches); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpdateBidMatches writes an absolute matches value. The read happens in the
// domain layer; lost increments under concurrent matches are accepted.
func (r *PostgresRepository) UpdateBidMatches(ctx context.Context, bidID int64, matches int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaign_categories SET matches = $2 WHERE id = $1
	`, bidID, matches)
	return err
}

// SelectWinner runs the single-slot first-price auction. Eligibility requires
// the bid row and its campaign to both be active; ties break toward the
// lowest row id.
func (r *PostgresRepository) SelectWinner(ctx context.Context, categoryID int64) (ads.BidWithCampaignAndCompany, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT cc.id, cc.campaign_id, cc.advertising_category_id, cc.bid,
		       c.treatment_name, c.description, c.product_url, co.name
		FROM campaign_categories cc
		JOIN campaigns c ON c.id = cc.campaign_id
		JOIN companies co ON co.id = c.company_id
		WHERE cc.advertising_category_id = $1 AND cc.active AND c.active
		ORDER BY cc.bid DESC, cc.id ASC
		LIMIT 1
	`, categoryID)

	var winner ads.BidWithCampaignAndCompany
	err := row.Scan(
		&winner.BidID, &winner.CampaignID, &winner.CategoryID, &winner.Bid,
		&winner.TreatmentName, &winner.Description, &winner.ProductURL, &winner.CompanyName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ads.BidWithCampaignAndCompany{}, false, nil
	}
	if err != nil {
		return ads.BidWithCampaignAndCompany{}, false, err
	}
	return winner, true, nil
}

// FindCategoryByName fetches by the unique category string.
func (r *PostgresRepository) FindCategoryByName(ctx context.Context, name string) (catalog.CategoryRecord, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, category_string FROM advertising_categories WHERE category_string = $1
	`, name)
	var rec catalog.CategoryRecord
	err := row.Scan(&rec.ID, &rec.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.CategoryRecord{}, false, nil
	}
	if err != nil {
		return catalog.CategoryRecord{}, false, err
	}
	return rec, true, nil
}

// InsertCategory stores a new category with its embedding, computed once at
// creation and never recomputed.
func (r *PostgresRepository) InsertCategory(ctx context.Context, name string, embedding []float32) (catalog.CategoryRecord, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO advertising_categories (category_string, embedding)
		VALUES ($1, $2)
		RETURNING id, category_string
	`, name, pgvector.NewVector(embedding))
	var rec catalog.CategoryRecord
	if err := row.Scan(&rec.ID, &rec.Name); err != nil {
		return catalog.CategoryRecord{}, err
	}
	return rec, nil
}

// FindBid fetches the association for a (campaign, category) pair.
func (r *PostgresRepository) FindBid(ctx context.Context, campaignID, categoryID int64) (catalog.BidRecord, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, campaign_id, advertising_category_id, bid, active, matches
		FROM campaign_categories
		WHERE campaign_id = $1 AND advertising_category_id = $2
	`, campaignID, categoryID)
	var rec catalog.BidRecord
	err := row.Scan(&rec.ID, &rec.CampaignID, &rec.CategoryID, &rec.Bid, &rec.Active, &rec.Matches)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.BidRecord{}, false, nil
	}
	if err != nil {
		return catalog.BidRecord{}, false, err
	}
	return rec, true, nil
}

// InsertBid creates the association, surfacing the unique (campaign,
// category) constraint as catalog.ErrBidExists.
func (r *PostgresRepository) InsertBid(ctx context.Context, campaignID, categoryID int64, bid float64, active bool) (catalog.BidRecord, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO campaign_categories (campaign_id, advertising_category_id, bid, active, matches)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id, campaign_id, advertising_category_id, bid, active, matches
	`, campaignID, categoryID, bid, active)
	var rec catalog.BidRecord
	err := row.Scan(&rec.ID, &rec.CampaignID, &rec.CategoryID, &rec.Bid, &rec.Active, &rec.Matches)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return catalog.BidRecord{}, catalog.ErrBidExists
		}
		return catalog.BidRecord{}, err
	}
	return rec, nil
}

// UpdateBid adjusts amount and active flag on an existing association.
func (r *PostgresRepository) UpdateBid(ctx context.Context, bidID int64, bid float64, active bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaign_categories SET bid = $2, active = $3 WHERE id = $1
	`, bidID, bid, active)
	return err
}

// FindCampaign fetches one campaign.
func (r *PostgresRepository) FindCampaign(ctx context.Context, campaignID int64) (catalog.Campaign, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, company_id, treatment_name, description, product_url, active
		FROM campaigns WHERE id = $1
	`, campaignID)
	var c catalog.Campaign
	err := row.Scan(&c.ID, &c.CompanyID, &c.TreatmentName, &c.Description, &c.ProductURL, &c.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Campaign{}, false, nil
	}
	if err != nil {
		return catalog.Campaign{}, false, err
	}
	return c, true, nil
}

// ListCampaignsByCompany lists an advertiser's campaigns.
func (r *PostgresRepository) ListCampaignsByCompany(ctx context.Context, companyID int64) ([]catalog.Campaign, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, treatment_name, description, product_url, active
		FROM campaigns WHERE company_id = $1 ORDER BY id
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Campaign
	for rows.Next() {
		var c catalog.Campaign
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.TreatmentName, &c.Description, &c.ProductURL, &c.Active); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const bidRefSelect = `
	SELECT cc.id, cc.campaign_id, c.treatment_name, cc.advertising_category_id, ac.category_string, cc.matches
	FROM campaign_categories cc
	JOIN campaigns c ON c.id = cc.campaign_id
	JOIN advertising_categories ac ON ac.id = cc.advertising_category_id
`

// ListBidRefsByCampaign resolves one campaign's bids for aggregation.
func (r *PostgresRepository) ListBidRefsByCampaign(ctx context.Context, campaignID int64) ([]stats.BidRef, error) {
	rows, err := r.pool.Query(ctx, bidRefSelect+` WHERE cc.campaign_id = $1 ORDER BY cc.id`, campaignID)
	if err != nil {
		return nil, err
	}
	return scanBidRefs(rows)
}

// ListBidRefsByCompany resolves a whole advertiser's bids for aggregation.
func (r *PostgresRepository) ListBidRefsByCompany(ctx context.Context, companyID int64) ([]stats.BidRef, error) {
	rows, err := r.pool.Query(ctx, bidRefSelect+` WHERE c.company_id = $1 ORDER BY cc.id`, companyID)
	if err != nil {
		return nil, err
	}
	return scanBidRefs(rows)
}

// ListBidRefs resolves every bid for the category overview.
func (r *PostgresRepository) ListBidRefs(ctx context.Context) ([]stats.BidRef, error) {
	rows, err := r.pool.Query(ctx, bidRefSelect+` ORDER BY cc.id`)
	if err != nil {
		return nil, err
	}
	return scanBidRefs(rows)
}

func scanBidRefs(rows pgx.Rows) ([]stats.BidRef, error) {
	defer rows.Close()
	var out []stats.BidRef
	for rows.Next() {
		var ref stats.BidRef
		if err := rows.Scan(&ref.ID, &ref.CampaignID, &ref.CampaignName, &ref.CategoryID, &ref.CategoryName, &ref.Matches); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

var (
	_ ads.CategoryRepository = (*PostgresRepository)(nil)
	_ ads.BidRepository      = (*PostgresRepository)(nil)
	_ catalog.Repository     = (*PostgresRepository)(nil)
	_ stats.BidRepository    = (*PostgresRepository)(nil)
)
