package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/eco-exchange/internal/domain"
	"github.com/spec-kit/eco-exchange/internal/events"
	"github.com/spec-kit/eco-exchange/internal/repository"
)

// In-memory repository fakes. Conditional transitions hold the store lock
// for the whole check-and-set, mirroring the single-statement UPDATE
// semantics of the real repositories: losers observe pgx.ErrNoRows.

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[string]*domain.PickupListing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: make(map[string]*domain.PickupListing)}
}

func (r *fakeListingRepo) Create(_ context.Context, listing *domain.PickupListing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing.ID = uuid.NewString()
	listing.CreatedAt = time.Now()
	listing.UpdatedAt = listing.CreatedAt
	stored := *listing
	r.listings[listing.ID] = &stored
	return nil
}

func (r *fakeListingRepo) GetByID(_ context.Context, id string) (*domain.PickupListing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing, ok := r.listings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *listing
	return &copied, nil
}

func (r *fakeListingRepo) ListWithFilter(_ context.Context, filter repository.ListingFilter) ([]domain.PickupListing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PickupListing
	for _, listing := range r.listings {
		if filter.ProducerID != nil && listing.ProducerID != *filter.ProducerID {
			continue
		}
		if filter.AssignedTo != nil && !listing.AssignedToCollector(*filter.AssignedTo) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, listing.Status) {
			continue
		}
		if len(filter.Categories) > 0 && !containsCategory(filter.Categories, listing.Category) {
			continue
		}
		out = append(out, *listing)
	}
	return out, nil
}

func (r *fakeListingRepo) Assign(_ context.Context, listingID, collectorID string) (*domain.PickupListing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing, ok := r.listings[listingID]
	if !ok || listing.Status != domain.PickupPending {
		return nil, pgx.ErrNoRows
	}
	assignee := collectorID
	listing.Status = domain.PickupAssigned
	listing.AssignedTo = &assignee
	listing.UpdatedAt = time.Now()
	copied := *listing
	return &copied, nil
}

func (r *fakeListingRepo) UpdateStatus(_ context.Context, listingID string, from, to domain.PickupStatus) (*domain.PickupListing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing, ok := r.listings[listingID]
	if !ok || listing.Status != from {
		return nil, pgx.ErrNoRows
	}
	listing.Status = to
	listing.UpdatedAt = time.Now()
	copied := *listing
	return &copied, nil
}

type fakeItemRepo struct {
	mu    sync.Mutex
	items map[string]*domain.MarketplaceItem
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[string]*domain.MarketplaceItem)}
}

func (r *fakeItemRepo) Create(_ context.Context, item *domain.MarketplaceItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = uuid.NewString()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	stored := *item
	r.items[item.ID] = &stored
	return nil
}

func (r *fakeItemRepo) GetByID(_ context.Context, id string) (*domain.MarketplaceItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *item
	return &copied, nil
}

func (r *fakeItemRepo) ListWithFilter(_ context.Context, filter repository.ItemFilter) ([]domain.MarketplaceItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.MarketplaceItem
	for _, item := range r.items {
		if filter.SellerID != nil && item.SellerID != *filter.SellerID {
			continue
		}
		if filter.BuyerID != nil && (item.BuyerID == nil || *item.BuyerID != *filter.BuyerID) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsItemStatus(filter.Statuses, item.Status) {
			continue
		}
		if len(filter.Categories) > 0 && !containsCategory(filter.Categories, item.Category) {
			continue
		}
		if len(filter.Qualities) > 0 && !containsQuality(filter.Qualities, item.Quality) {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (r *fakeItemRepo) Purchase(_ context.Context, itemID, buyerID string, at time.Time) (*domain.MarketplaceItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok || item.Status != domain.ItemListed {
		return nil, pgx.ErrNoRows
	}
	buyer := buyerID
	purchased := at
	item.Status = domain.ItemSold
	item.BuyerID = &buyer
	item.PurchasedAt = &purchased
	item.UpdatedAt = time.Now()
	copied := *item
	return &copied, nil
}

func (r *fakeItemRepo) UpdateStatus(_ context.Context, itemID string, from, to domain.ItemStatus) (*domain.MarketplaceItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok || item.Status != from {
		return nil, pgx.ErrNoRows
	}
	item.Status = to
	item.UpdatedAt = time.Now()
	copied := *item
	return &copied, nil
}

type fakeEntitlementRepo struct {
	mu      sync.Mutex
	periods []*domain.EntitlementPeriod
}

func newFakeEntitlementRepo() *fakeEntitlementRepo {
	return &fakeEntitlementRepo{}
}

func (r *fakeEntitlementRepo) Grant(_ context.Context, period *domain.EntitlementPeriod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.periods {
		if existing.AccountID == period.AccountID && existing.Status == domain.EntitlementActive {
			existing.Status = domain.EntitlementExpired
		}
	}
	period.ID = uuid.NewString()
	period.CreatedAt = time.Now()
	stored := *period
	r.periods = append(r.periods, &stored)
	return nil
}

func (r *fakeEntitlementRepo) Cancel(_ context.Context, accountID string) (*domain.EntitlementPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.periods {
		if existing.AccountID == accountID && existing.Status == domain.EntitlementActive {
			existing.Status = domain.EntitlementCancelled
			copied := *existing
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeEntitlementRepo) ActiveForAccount(_ context.Context, accountID string, now time.Time) (*domain.EntitlementPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.periods {
		if existing.AccountID == accountID && existing.Status == domain.EntitlementActive && existing.EndDate.After(now) {
			copied := *existing
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeEntitlementRepo) ListByAccount(_ context.Context, accountID string) ([]domain.EntitlementPeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.EntitlementPeriod
	for _, existing := range r.periods {
		if existing.AccountID == accountID {
			out = append(out, *existing)
		}
	}
	return out, nil
}

type fakePresenceRepo struct {
	mu        sync.Mutex
	positions map[string]domain.Coordinate
	declines  map[string]map[string]struct{}
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{
		positions: make(map[string]domain.Coordinate),
		declines:  make(map[string]map[string]struct{}),
	}
}

func (r *fakePresenceRepo) SetPosition(_ context.Context, collectorID string, pos domain.Coordinate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions[collectorID] = pos
	return nil
}

func (r *fakePresenceRepo) Position(_ context.Context, collectorID string) (*domain.Coordinate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos, ok := r.positions[collectorID]
	if !ok {
		return nil, nil
	}
	copied := pos
	return &copied, nil
}

func (r *fakePresenceRepo) Decline(_ context.Context, collectorID, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.declines[collectorID]
	if !ok {
		set = make(map[string]struct{})
		r.declines[collectorID] = set
	}
	set[listingID] = struct{}{}
	return nil
}

func (r *fakePresenceRepo) DeclinedIDs(_ context.Context, collectorID string) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]struct{}, len(r.declines[collectorID]))
	for id := range r.declines[collectorID] {
		out[id] = struct{}{}
	}
	return out, nil
}

// fakeExchangeRepo performs the conversion against the listing and item
// fakes under the listing lock, so the state check and the item insert are
// observed as one step.
type fakeExchangeRepo struct {
	listings *fakeListingRepo
	items    *fakeItemRepo
}

func (r *fakeExchangeRepo) ConvertToSale(ctx context.Context, listingID string, item *domain.MarketplaceItem) error {
	r.listings.mu.Lock()
	listing, ok := r.listings.listings[listingID]
	if !ok || listing.Status != domain.PickupCollected {
		r.listings.mu.Unlock()
		return &repository.ErrListingNotCollected{ListingID: listingID}
	}
	listing.Status = domain.PickupListedForSale
	listing.UpdatedAt = time.Now()
	r.listings.mu.Unlock()
	return r.items.Create(ctx, item)
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	stored := *account
	r.accounts[account.ID] = &stored
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *account
	return &copied, nil
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAccountRepo) AdjustReputation(_ context.Context, id string, delta float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	score := account.Reputation + delta
	if score < 0 {
		score = 0
	}
	if score > 5 {
		score = 5
	}
	account.Reputation = score
	return nil
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) typesSeen() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, event := range d.events {
		out = append(out, event.Type)
	}
	return out
}

func testAccount(role domain.Role) *domain.Account {
	return &domain.Account{
		ID:     uuid.NewString(),
		Name:   "test " + string(role),
		Email:  uuid.NewString() + "@example.com",
		Role:   role,
		Status: domain.AccountStatusActive,
	}
}

func containsStatus(set []domain.PickupStatus, status domain.PickupStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func containsItemStatus(set []domain.ItemStatus, status domain.ItemStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func containsCategory(set []domain.MaterialCategory, category domain.MaterialCategory) bool {
	for _, c := range set {
		if c == category {
			return true
		}
	}
	return false
}

func containsQuality(set []domain.QualityGrade, quality domain.QualityGrade) bool {
	for _, q := range set {
		if q == quality {
			return true
		}
	}
	return false
}
