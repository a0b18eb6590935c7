package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/eco-exchange/internal/domain"
)

// ExchangeRepository performs the cross-aggregate write that converts
// collected stock into a marketplace item. The listing transition to
// ListedForSale and the item insert commit as one transaction: no observer
// ever sees the item without the listing consumed, or a consumed listing
// without its item.
type ExchangeRepository interface {
	ConvertToSale(ctx context.Context, listingID string, item *domain.MarketplaceItem) error
}

type exchangeRepository struct {
	pool *pgxpool.Pool
}

// NewExchangeRepository instantiates repository.
func NewExchangeRepository(pool *pgxpool.Pool) ExchangeRepository {
	return &exchangeRepository{pool: pool}
}

func (r *exchangeRepository) ConvertToSale(ctx context.Context, listingID string, item *domain.MarketplaceItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Conditional transition doubles as the race guard: a second converter
	// matches no row and the whole transaction rolls back.
	cmd, err := tx.Exec(ctx,
		`UPDATE pickup_listings SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		domain.PickupListedForSale, listingID, domain.PickupCollected,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errListingNotCollected(listingID)
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO marketplace_items (seller_id, category, quantity, quality, price, photo_url, lat, lng, address, description, status, source_listing_id)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
         RETURNING id, created_at, updated_at`,
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
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ErrListingNotCollected reports a convert attempt against a listing that is
// not (or no longer) in the Collected state.
type ErrListingNotCollected struct {
	ListingID string
}

func (e *ErrListingNotCollected) Error() string {
	return fmt.Sprintf("listing %s is not in Collected state", e.ListingID)
}

func errListingNotCollected(listingID string) error {
	return &ErrListingNotCollected{ListingID: listingID}
}
