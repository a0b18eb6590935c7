package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/eco-exchange/internal/domain"
)

const (
	positionKeyPrefix = "collector:pos:"
	declineKeyPrefix  = "collector:decline:"
)

// PresenceRepository stores collector-local volatile state in Redis: the
// last reported position used for ranking, and the per-collector decline
// set. A decline never touches the shared listing row, so one collector's
// decline is invisible to every other collector.
type PresenceRepository interface {
	SetPosition(ctx context.Context, collectorID string, pos domain.Coordinate) error
	Position(ctx context.Context, collectorID string) (*domain.Coordinate, error)
	Decline(ctx context.Context, collectorID, listingID string) error
	DeclinedIDs(ctx context.Context, collectorID string) (map[string]struct{}, error)
}

type presenceRepository struct {
	client *redis.Client
}

// NewPresenceRepository instantiates repository.
func NewPresenceRepository(client *redis.Client) PresenceRepository {
	return &presenceRepository{client: client}
}

func (r *presenceRepository) SetPosition(ctx context.Context, collectorID string, pos domain.Coordinate) error {
	return r.client.HSet(ctx, positionKeyPrefix+collectorID,
		"lat", pos.Lat,
		"lng", pos.Lng,
	).Err()
}

// Position returns nil without error when the collector has never reported
// a position; callers must treat the distance as unknown.
func (r *presenceRepository) Position(ctx context.Context, collectorID string) (*domain.Coordinate, error) {
	fields, err := r.client.HGetAll(ctx, positionKeyPrefix+collectorID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(fields["lat"], 64)
	if err != nil {
		return nil, err
	}
	lng, err := strconv.ParseFloat(fields["lng"], 64)
	if err != nil {
		return nil, err
	}
	return &domain.Coordinate{Lat: lat, Lng: lng}, nil
}

func (r *presenceRepository) Decline(ctx context.Context, collectorID, listingID string) error {
	return r.client.SAdd(ctx, declineKeyPrefix+collectorID, listingID).Err()
}

func (r *presenceRepository) DeclinedIDs(ctx context.Context, collectorID string) (map[string]struct{}, error) {
	members, err := r.client.SMembers(ctx, declineKeyPrefix+collectorID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return map[string]struct{}{}, nil
		}
		return nil, err
	}
	declined := make(map[string]struct{}, len(members))
	for _, id := range members {
		declined[id] = struct{}{}
	}
	return declined, nil
}
