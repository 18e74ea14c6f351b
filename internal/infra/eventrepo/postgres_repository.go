package eventrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openrx/admatch/internal/domain/ads"
	"github.com/openrx/admatch/internal/domain/stats"
)

// PostgresRepository persists the append-only impression/click ledger.
// Rows are never updated or deleted.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// InsertImpression appends one billable impression with its bid snapshot.
func (r *PostgresRepository) InsertImpression(ctx context.Context, campaignCategoryID int64, bid float64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO impressions (campaign_category_id, bid, created_at)
		VALUES ($1, $2, now())
	`, campaignCategoryID, bid)
	return err
}

// InsertClick appends one billable click with its bid snapshot.
func (r *PostgresRepository) InsertClick(ctx context.Context, campaignCategoryID int64, bid float64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clicks (campaign_category_id, bid, created_at)
		VALUES ($1, $2, now())
	`, campaignCategoryID, bid)
	return err
}

// ListImpressions fetches impressions for the id set within the range.
func (r *PostgresRepository) ListImpressions(ctx context.Context, campaignCategoryIDs []int64, rng stats.DateRange) ([]stats.Event, error) {
	return r.listEvents(ctx, "impressions", campaignCategoryIDs, rng)
}

// ListClicks fetches clicks for the id set within the range.
func (r *PostgresRepository) ListClicks(ctx context.Context, campaignCategoryIDs []int64, rng stats.DateRange) ([]stats.Event, error) {
	return r.listEvents(ctx, "clicks", campaignCategoryIDs, rng)
}

func (r *PostgresRepository) listEvents(ctx context.Context, table string, ids []int64, rng stats.DateRange) ([]stats.Event, error) {
	query := `SELECT campaign_category_id, bid, created_at FROM ` + table + ` WHERE campaign_category_id = ANY($1)`
	args := []any{ids}
	if rng.From != nil {
		args = append(args, *rng.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if rng.To != nil {
		args = append(args, *rng.To)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	query += " ORDER BY created_at"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []stats.Event
	for rows.Next() {
		var e stats.Event
		if err := rows.Scan(&e.CampaignCategoryID, &e.Bid, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

var (
	_ ads.EventRepository   = (*PostgresRepository)(nil)
	_ stats.EventRepository = (*PostgresRepository)(nil)
)
