package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/eco-exchange/internal/domain"
)

const itemColumns = `id, seller_id, category, quantity, quality, price, photo_url, lat, lng, address,
               description, status, buyer_id, purchased_at, source_listing_id, created_at, updated_at`

// ItemFilter captures marketplace browse parameters.
type ItemFilter struct {
	SellerID   *string
	BuyerID    *string
	Statuses   []domain.ItemStatus
	Categories []domain.MaterialCategory
	Qualities  []domain.QualityGrade
}

// ItemRepository encapsulates marketplace item persistence. Purchase and
// status transitions are conditional updates, mirroring listing transitions:
// losers of a race observe pgx.ErrNoRows.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.MarketplaceItem) error
	GetByID(ctx context.Context, id string) (*domain.MarketplaceItem, error)
	ListWithFilter(ctx context.Context, filter ItemFilter) ([]domain.MarketplaceItem, error)
	Purchase(ctx context.Context, itemID, buyerID string, at time.Time) (*domain.MarketplaceItem, error)
	UpdateStatus(ctx context.Context, itemID string, from, to domain.ItemStatus) (*domain.MarketplaceItem, error)
}

type itemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository instantiates repository.
func NewItemRepository(pool *pgxpool.Pool) ItemRepository {
	return &itemRepository{pool: pool}
}

func (r *itemRepository) Create(ctx context.Context, item *domain.MarketplaceItem) error {
	const query = `
        INSERT INTO marketplace_items (seller_id, category, quantity, quality, price, photo_url, lat, lng, address, description, status, source_listing_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		item.SellerID,
		item.Category,
		item.Quantity,
		item.Quality,
		item.Price,
		item.PhotoURL,
		item.Location.Lat,
		item.Location.Lng,
		item.Location.Address,
		item.Description,
		item.Status,
		item.SourceListingID,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.MarketplaceItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM marketplace_items WHERE id=$1`, itemColumns)
	return scanItemRow(r.pool.QueryRow(ctx, query, id))
}

func (r *itemRepository) ListWithFilter(ctx context.Context, filter ItemFilter) ([]domain.MarketplaceItem, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SellerID != nil {
		args = append(args, *filter.SellerID)
		clauses = append(clauses, fmt.Sprintf("seller_id=$%d", len(args)))
	}
	if filter.BuyerID != nil {
		args = append(args, *filter.BuyerID)
		clauses = append(clauses, fmt.Sprintf("buyer_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, category := range filter.Categories {
			args = append(args, category)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Qualities) > 0 {
		placeholders := make([]string, len(filter.Qualities))
		for i, quality := range filter.Qualities {
			args = append(args, quality)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("quality IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM marketplace_items WHERE %s ORDER BY created_at DESC`,
		itemColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// Purchase moves a Listed item to Sold, recording buyer and purchase instant
// exactly once. Exactly one of any set of concurrent callers succeeds.
func (r *itemRepository) Purchase(ctx context.Context, itemID, buyerID string, at time.Time) (*domain.MarketplaceItem, error) {
	query := fmt.Sprintf(`
        UPDATE marketplace_items SET status=$1, buyer_id=$2, purchased_at=$3, updated_at=NOW()
        WHERE id=$4 AND status=$5
        RETURNING %s`, itemColumns)
	return scanItemRow(r.pool.QueryRow(ctx, query,
		domain.ItemSold, buyerID, at, itemID, domain.ItemListed))
}

func (r *itemRepository) UpdateStatus(ctx context.Context, itemID string, from, to domain.ItemStatus) (*domain.MarketplaceItem, error) {
	query := fmt.Sprintf(`
        UPDATE marketplace_items SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3
        RETURNING %s`, itemColumns)
	return scanItemRow(r.pool.QueryRow(ctx, query, to, itemID, from))
}

func scanItemRow(row pgx.Row) (*domain.MarketplaceItem, error) {
	var item domain.MarketplaceItem
	if err := row.Scan(
		&item.ID,
		&item.SellerID,
		&item.Category,
		&item.Quantity,
		&item.Quality,
		&item.Price,
		&item.PhotoURL,
		&item.Location.Lat,
		&item.Location.Lng,
		&item.Location.Address,
		&item.Description,
		&item.Status,
		&item.BuyerID,
		&item.PurchasedAt,
		&item.SourceListingID,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func scanItems(rows pgx.Rows) ([]domain.MarketplaceItem, error) {
	var result []domain.MarketplaceItem
	for rows.Next() {
		item, err := scanItemRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}
