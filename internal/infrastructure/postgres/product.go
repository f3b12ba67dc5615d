package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chemdex/backend/internal/domain"
)

// ProductRepo implements domain.ProductRepository over Postgres
type ProductRepo struct {
	pool *pgxpool.Pool
}

// NewProductRepo creates a product repository
func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

// GetByID returns the product with the given id, or nil if absent
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.get(ctx,
		`SELECT id, barcode, COALESCE(name, ''), COALESCE(contents_size_weight, ''), COALESCE(sds_url, '')
		 FROM products WHERE id = $1`, id)
}

// GetByBarcode returns the product with the given barcode, or nil if absent
func (r *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	return r.get(ctx,
		`SELECT id, barcode, COALESCE(name, ''), COALESCE(contents_size_weight, ''), COALESCE(sds_url, '')
		 FROM products WHERE barcode = $1`, barcode)
}

func (r *ProductRepo) get(ctx context.Context, query, arg string) (*domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, query, arg).Scan(&p.ID, &p.Barcode, &p.Name, &p.Size, &p.SDSURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying product: %w", err)
	}
	return &p, nil
}

// Upsert inserts a product or refreshes its discoverable fields. Only
// non-empty incoming values overwrite what a row already holds, so a later
// weaker discovery pass cannot erase a good name or URL.
func (r *ProductRepo) Upsert(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO products (id, barcode, name, contents_size_weight, sds_url)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (barcode) DO UPDATE SET
		   name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE products.name END,
		   contents_size_weight = CASE WHEN EXCLUDED.contents_size_weight <> ''
		     THEN EXCLUDED.contents_size_weight ELSE products.contents_size_weight END,
		   sds_url = CASE WHEN EXCLUDED.sds_url <> '' THEN EXCLUDED.sds_url ELSE products.sds_url END
		 RETURNING id, barcode, COALESCE(name, ''), COALESCE(contents_size_weight, ''), COALESCE(sds_url, '')`,
		p.ID, p.Barcode, p.Name, p.Size, p.SDSURL)

	var out domain.Product
	if err := row.Scan(&out.ID, &out.Barcode, &out.Name, &out.Size, &out.SDSURL); err != nil {
		return nil, fmt.Errorf("upserting product: %w", err)
	}
	return &out, nil
}

// ListUnparsed returns products that have an SDS URL but no metadata row
func (r *ProductRepo) ListUnparsed(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.barcode, COALESCE(p.name, ''), COALESCE(p.contents_size_weight, ''), p.sds_url
		 FROM products p
		 LEFT JOIN sds_metadata m ON m.product_id = p.id
		 WHERE p.sds_url IS NOT NULL AND p.sds_url <> '' AND m.product_id IS NULL
		 ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("listing unparsed products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Barcode, &p.Name, &p.Size, &p.SDSURL); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
