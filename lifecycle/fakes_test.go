package lifecycle

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/api/apperrors"
	"quickbite/api/models"
	"quickbite/api/store"
)

// In-memory stores that mirror the conditional-write semantics of the Mongo
// implementations, including the assignment CAS and the redemption guard.

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (s *fakeOrderStore) Insert(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order %s not found", id.Hex())
	}
	copied := *order
	return &copied, nil
}

func (s *fakeOrderStore) GetByNumber(_ context.Context, number string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.OrderNumber == number {
			copied := *order
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("order %s not found", number)
}

func (s *fakeOrderStore) List(_ context.Context, _ store.OrderFilter) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, order := range s.orders {
		out = append(out, *order)
	}
	return out, nil
}

func (s *fakeOrderStore) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to models.OrderStatus, at time.Time) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order %s not found", id.Hex())
	}
	if order.Status != from {
		return nil, apperrors.InvalidState("order %s is %s, expected %s", id.Hex(), order.Status, from)
	}
	order.Status = to
	order.UpdatedAt = at
	copied := *order
	return &copied, nil
}

func (s *fakeOrderStore) AssignDriver(_ context.Context, id, driverID primitive.ObjectID, at time.Time) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order %s not found", id.Hex())
	}
	if order.DriverID != nil {
		return nil, apperrors.AlreadyAssigned("order %s already has a driver", id.Hex())
	}
	if order.Status != models.OrderStatusReady {
		return nil, apperrors.InvalidState("order %s is %s, not ready for pickup", id.Hex(), order.Status)
	}
	order.DriverID = &driverID
	order.Status = models.OrderStatusPickedUp
	order.UpdatedAt = at
	copied := *order
	return &copied, nil
}

func (s *fakeOrderStore) ForceStatus(_ context.Context, id primitive.ObjectID, to models.OrderStatus, at time.Time) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order %s not found", id.Hex())
	}
	if order.Status.Terminal() {
		return nil, apperrors.InvalidState("order %s is %s and cannot change", id.Hex(), order.Status)
	}
	order.Status = to
	order.UpdatedAt = at
	copied := *order
	return &copied, nil
}

func (s *fakeOrderStore) ActiveOrderForDriver(_ context.Context, driverID primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Order
	for _, order := range s.orders {
		if order.DriverID == nil || *order.DriverID != driverID {
			continue
		}
		if order.Status != models.OrderStatusPickedUp && order.Status != models.OrderStatusOnTheWay {
			continue
		}
		if latest == nil || order.UpdatedAt.After(latest.UpdatedAt) {
			latest = order
		}
	}
	if latest == nil {
		return nil, apperrors.NotFound("no active order for driver %s", driverID.Hex())
	}
	copied := *latest
	return &copied, nil
}

type fakePromotionStore struct {
	mu     sync.Mutex
	promos map[string]*models.Promotion
}

func newFakePromotionStore(promos ...*models.Promotion) *fakePromotionStore {
	s := &fakePromotionStore{promos: make(map[string]*models.Promotion)}
	for _, p := range promos {
		s.promos[strings.ToUpper(p.Code)] = p
	}
	return s
}

func (s *fakePromotionStore) Insert(_ context.Context, p *models.Promotion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promos[strings.ToUpper(p.Code)] = p
	return nil
}

func (s *fakePromotionStore) GetByCode(_ context.Context, code string) (*models.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promos[strings.ToUpper(code)]
	if !ok {
		return nil, apperrors.NotFound("promotion %s not found", code)
	}
	copied := *p
	return &copied, nil
}

func (s *fakePromotionStore) Redeem(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promos[strings.ToUpper(code)]
	if !ok || (p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit) {
		return apperrors.InvalidState("promotion %s is exhausted", code)
	}
	p.UsedCount++
	return nil
}

func (s *fakePromotionStore) Release(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.promos[strings.ToUpper(code)]; ok && p.UsedCount > 0 {
		p.UsedCount--
	}
	return nil
}

// failingOrderStore rejects every insert so tests can exercise the cleanup
// that follows a failed write.
type failingOrderStore struct {
	*fakeOrderStore
}

func (s *failingOrderStore) Insert(context.Context, *models.Order) error {
	return apperrors.Upstream("failed to insert order", errors.New("write concern error"))
}

type fakeCatalogStore struct {
	restaurants map[primitive.ObjectID]*models.Restaurant
	menuItems   map[primitive.ObjectID]*models.MenuItem
	users       map[primitive.ObjectID]*models.User
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		restaurants: make(map[primitive.ObjectID]*models.Restaurant),
		menuItems:   make(map[primitive.ObjectID]*models.MenuItem),
		users:       make(map[primitive.ObjectID]*models.User),
	}
}

func (s *fakeCatalogStore) Restaurant(_ context.Context, id primitive.ObjectID) (*models.Restaurant, error) {
	r, ok := s.restaurants[id]
	if !ok {
		return nil, apperrors.NotFound("restaurant %s not found", id.Hex())
	}
	return r, nil
}

func (s *fakeCatalogStore) MenuItems(_ context.Context, ids []primitive.ObjectID) ([]models.MenuItem, error) {
	var out []models.MenuItem
	for _, id := range ids {
		if mi, ok := s.menuItems[id]; ok {
			out = append(out, *mi)
		}
	}
	return out, nil
}

func (s *fakeCatalogStore) User(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user %s not found", id.Hex())
	}
	return u, nil
}

type fakeLocationStore struct {
	mu        sync.Mutex
	locations map[primitive.ObjectID]*models.DriverLocation
}

func newFakeLocationStore() *fakeLocationStore {
	return &fakeLocationStore{locations: make(map[primitive.ObjectID]*models.DriverLocation)}
}

func (s *fakeLocationStore) Upsert(_ context.Context, loc *models.DriverLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *loc
	s.locations[loc.DriverID] = &copied
	return nil
}

func (s *fakeLocationStore) Get(_ context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.locations[driverID]
	if !ok {
		return nil, apperrors.NotFound("no location for driver %s", driverID.Hex())
	}
	copied := *loc
	return &copied, nil
}

func (s *fakeLocationStore) SetAvailable(_ context.Context, driverID primitive.ObjectID, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loc, ok := s.locations[driverID]; ok {
		loc.Available = available
	}
	return nil
}
