package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chemdex/backend/internal/domain"
)

// WatchlistRepo implements domain.WatchlistRepository over Postgres. The
// watchlist table is the denormalized per-user inventory owned by the
// dashboard; this repository only refreshes its hazard columns.
type WatchlistRepo struct {
	pool *pgxpool.Pool
}

// NewWatchlistRepo creates a watchlist repository
func NewWatchlistRepo(pool *pgxpool.Pool) *WatchlistRepo {
	return &WatchlistRepo{pool: pool}
}

// UpdateHazardFields pushes the hazard subset into every watchlist row for
// the product. Zero matched rows is normal: nobody may hold the product yet.
func (r *WatchlistRepo) UpdateHazardFields(ctx context.Context, productID string, fields domain.HazardFields) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE watchlist_items SET
		   sds_available = $2,
		   hazardous_substance = $3,
		   dangerous_good = $4,
		   packing_group = $5
		 WHERE product_id = $1`,
		productID, fields.SDSAvailable, fields.HazardousSubstance,
		fields.DangerousGood, fields.PackingGroup)
	if err != nil {
		return fmt.Errorf("updating watchlist hazard fields: %w", err)
	}

	log.Printf("[DB] refreshed hazard fields on %d watchlist rows for product %s",
		tag.RowsAffected(), productID)
	return nil
}
