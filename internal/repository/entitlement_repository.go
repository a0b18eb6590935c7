package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/eco-exchange/internal/domain"
)

// EntitlementRepository encapsulates entitlement period persistence.
// Grant is atomic with respect to the one-active-period-per-account
// invariant: it expires any active period and appends the new one inside a
// single transaction.
type EntitlementRepository interface {
	Grant(ctx context.Context, period *domain.EntitlementPeriod) error
	Cancel(ctx context.Context, accountID string) (*domain.EntitlementPeriod, error)
	ActiveForAccount(ctx context.Context, accountID string, now time.Time) (*domain.EntitlementPeriod, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.EntitlementPeriod, error)
}

type entitlementRepository struct {
	pool *pgxpool.Pool
}

// NewEntitlementRepository instantiates repository.
func NewEntitlementRepository(pool *pgxpool.Pool) EntitlementRepository {
	return &entitlementRepository{pool: pool}
}

func (r *entitlementRepository) Grant(ctx context.Context, period *domain.EntitlementPeriod) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`UPDATE entitlement_periods SET status=$1 WHERE account_id=$2 AND status=$3`,
		domain.EntitlementExpired, period.AccountID, domain.EntitlementActive,
	); err != nil {
		return err
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO entitlement_periods (account_id, plan, start_date, end_date, status)
         VALUES ($1,$2,$3,$4,$5)
         RETURNING id, created_at`,
		period.AccountID, period.Plan, period.StartDate, period.EndDate, period.Status,
	).Scan(&period.ID, &period.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *entitlementRepository) Cancel(ctx context.Context, accountID string) (*domain.EntitlementPeriod, error) {
	const query = `
        UPDATE entitlement_periods SET status=$1
        WHERE account_id=$2 AND status=$3
        RETURNING id, account_id, plan, start_date, end_date, status, created_at`
	return scanPeriodRow(r.pool.QueryRow(ctx, query, domain.EntitlementCancelled, accountID, domain.EntitlementActive))
}

func (r *entitlementRepository) ActiveForAccount(ctx context.Context, accountID string, now time.Time) (*domain.EntitlementPeriod, error) {
	const query = `
        SELECT id, account_id, plan, start_date, end_date, status, created_at
        FROM entitlement_periods
        WHERE account_id=$1 AND status=$2 AND end_date > $3`
	period, err := scanPeriodRow(r.pool.QueryRow(ctx, query, accountID, domain.EntitlementActive, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return period, err
}

func (r *entitlementRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.EntitlementPeriod, error) {
	const query = `
        SELECT id, account_id, plan, start_date, end_date, status, created_at
        FROM entitlement_periods
        WHERE account_id=$1 ORDER BY start_date DESC`
	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EntitlementPeriod
	for rows.Next() {
		var period domain.EntitlementPeriod
		if err := rows.Scan(
			&period.ID,
			&period.AccountID,
			&period.Plan,
			&period.StartDate,
			&period.EndDate,
			&period.Status,
			&period.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, period)
	}
	return result, rows.Err()
}

func scanPeriodRow(row pgx.Row) (*domain.EntitlementPeriod, error) {
	var period domain.EntitlementPeriod
	if err := row.Scan(
		&period.ID,
		&period.AccountID,
		&period.Plan,
		&period.StartDate,
		&period.EndDate,
		&period.Status,
		&period.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &period, nil
}
