package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chemdex/backend/internal/domain"
)

// MetadataRepo implements domain.MetadataRepository over Postgres
type MetadataRepo struct {
	pool *pgxpool.Pool
}

// NewMetadataRepo creates a metadata repository
func NewMetadataRepo(pool *pgxpool.Pool) *MetadataRepo {
	return &MetadataRepo{pool: pool}
}

// Get returns the metadata row for a product, or nil if parsing has never
// concluded for it
func (r *MetadataRepo) Get(ctx context.Context, productID string) (*domain.SDSMetadata, error) {
	var m domain.SDSMetadata
	var rawJSON []byte

	err := r.pool.QueryRow(ctx,
		`SELECT product_id, vendor, issue_date, hazardous_substance, dangerous_good,
		        dangerous_goods_class, packing_group, subsidiary_risks, description, raw_json
		 FROM sds_metadata WHERE product_id = $1`, productID).
		Scan(&m.ProductID, &m.Vendor, &m.IssueDate, &m.HazardousSubstance, &m.DangerousGood,
			&m.DangerousGoodsClass, &m.PackingGroup, &m.SubsidiaryRisks, &m.Description, &rawJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying sds metadata: %w", err)
	}

	if len(rawJSON) > 0 {
		if err := json.Unmarshal(rawJSON, &m.RawJSON); err != nil {
			return nil, fmt.Errorf("decoding raw_json for product %s: %w", productID, err)
		}
	}
	return &m, nil
}

// Upsert writes the single metadata row for a product, replacing any
// existing row. Last write wins by design; concurrent triggers for the same
// product are wasteful but not unsafe.
func (r *MetadataRepo) Upsert(ctx context.Context, m *domain.SDSMetadata) error {
	rawJSON, err := json.Marshal(m.RawJSON)
	if err != nil {
		return fmt.Errorf("encoding raw_json: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO sds_metadata
		   (product_id, vendor, issue_date, hazardous_substance, dangerous_good,
		    dangerous_goods_class, packing_group, subsidiary_risks, description, raw_json)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (product_id) DO UPDATE SET
		   vendor = EXCLUDED.vendor,
		   issue_date = EXCLUDED.issue_date,
		   hazardous_substance = EXCLUDED.hazardous_substance,
		   dangerous_good = EXCLUDED.dangerous_good,
		   dangerous_goods_class = EXCLUDED.dangerous_goods_class,
		   packing_group = EXCLUDED.packing_group,
		   subsidiary_risks = EXCLUDED.subsidiary_risks,
		   description = EXCLUDED.description,
		   raw_json = EXCLUDED.raw_json`,
		m.ProductID, m.Vendor, m.IssueDate, m.HazardousSubstance, m.DangerousGood,
		m.DangerousGoodsClass, m.PackingGroup, m.SubsidiaryRisks, m.Description, rawJSON)
	if err != nil {
		return fmt.Errorf("upserting sds metadata: %w", err)
	}
	return nil
}
