package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/eco-exchange/internal/domain"
)

const listingColumns = `id, producer_id, category, quantity, photo_url, lat, lng, address,
               status, requested_at, assigned_to, handoff_code, created_at, updated_at`

// ListingFilter captures listing query parameters.
type ListingFilter struct {
	ProducerID *string
	AssignedTo *string
	Statuses   []domain.PickupStatus
	Categories []domain.MaterialCategory
}

// ListingRepository encapsulates pickup listing persistence. Transition
// methods are conditional single-statement updates: when the listing is not
// in the expected source state the update matches no row and pgx.ErrNoRows
// is returned, so concurrent transitions on one listing serialize with
// exactly one winner.
type ListingRepository interface {
	Create(ctx context.Context, listing *domain.PickupListing) error
	GetByID(ctx context.Context, id string) (*domain.PickupListing, error)
	ListWithFilter(ctx context.Context, filter ListingFilter) ([]domain.PickupListing, error)
	Assign(ctx context.Context, listingID, collectorID string) (*domain.PickupListing, error)
	UpdateStatus(ctx context.Context, listingID string, from, to domain.PickupStatus) (*domain.PickupListing, error)
}

type listingRepository struct {
	pool *pgxpool.Pool
}

// NewListingRepository instantiates repository.
func NewListingRepository(pool *pgxpool.Pool) ListingRepository {
	return &listingRepository{pool: pool}
}

func (r *listingRepository) Create(ctx context.Context, listing *domain.PickupListing) error {
	const query = `
        INSERT INTO pickup_listings (producer_id, category, quantity, photo_url, lat, lng, address, status, requested_at, handoff_code)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		listing.ProducerID,
		listing.Category,
		listing.Quantity,
		listing.PhotoURL,
		listing.Location.Lat,
		listing.Location.Lng,
		listing.Location.Address,
		listing.Status,
		listing.RequestedAt,
		listing.HandoffCode,
	).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*domain.PickupListing, error) {
	query := fmt.Sprintf(`SELECT %s FROM pickup_listings WHERE id=$1`, listingColumns)
	return scanListingRow(r.pool.QueryRow(ctx, query, id))
}

func (r *listingRepository) ListWithFilter(ctx context.Context, filter ListingFilter) ([]domain.PickupListing, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ProducerID != nil {
		args = append(args, *filter.ProducerID)
		clauses = append(clauses, fmt.Sprintf("producer_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
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

	query := fmt.Sprintf(`SELECT %s FROM pickup_listings WHERE %s ORDER BY requested_at ASC`,
		listingColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListings(rows)
}

// Assign moves a Pending listing to Assigned and records the collector.
// Exactly one of any set of concurrent callers succeeds.
func (r *listingRepository) Assign(ctx context.Context, listingID, collectorID string) (*domain.PickupListing, error) {
	query := fmt.Sprintf(`
        UPDATE pickup_listings SET status=$1, assigned_to=$2, updated_at=NOW()
        WHERE id=$3 AND status=$4
        RETURNING %s`, listingColumns)
	return scanListingRow(r.pool.QueryRow(ctx, query,
		domain.PickupAssigned, collectorID, listingID, domain.PickupPending))
}

func (r *listingRepository) UpdateStatus(ctx context.Context, listingID string, from, to domain.PickupStatus) (*domain.PickupListing, error) {
	query := fmt.Sprintf(`
        UPDATE pickup_listings SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3
        RETURNING %s`, listingColumns)
	return scanListingRow(r.pool.QueryRow(ctx, query, to, listingID, from))
}

func scanListingRow(row pgx.Row) (*domain.PickupListing, error) {
	var listing domain.PickupListing
	if err := row.Scan(
		&listing.ID,
		&listing.ProducerID,
		&listing.Category,
		&listing.Quantity,
		&listing.PhotoURL,
		&listing.Location.Lat,
		&listing.Location.Lng,
		&listing.Location.Address,
		&listing.Status,
		&listing.RequestedAt,
		&listing.AssignedTo,
		&listing.HandoffCode,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &listing, nil
}

func scanListings(rows pgx.Rows) ([]domain.PickupListing, error) {
	var result []domain.PickupListing
	for rows.Next() {
		listing, err := scanListingRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *listing)
	}
	return result, rows.Err()
}
