package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pharmago/internal/catalog"
	"pharmago/internal/checkout"
	"pharmago/internal/docstore"
	"pharmago/internal/events"
	"pharmago/internal/model"
	"pharmago/internal/session"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// fixedIDs hands out a scripted list of IDs, repeating the last one.
type fixedIDs struct {
	mu  sync.Mutex
	ids []string
	n   int
}

func (f *fixedIDs) NewOrderID() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := min(f.n, len(f.ids)-1)
	f.n++
	return f.ids[i]
}

// sequenceIDs hands out ORD000001, ORD000002, ...
type sequenceIDs struct {
	n atomic.Int64
}

func (s *sequenceIDs) NewOrderID() string {
	return fmt.Sprintf("ORD%06d", s.n.Add(1))
}

func price(s string) model.Price {
	return model.Price{Decimal: decimal.RequireFromString(s)}
}

func testMedicine(id, name string, p string, stock int) model.Medicine {
	return model.Medicine{
		ID:        id,
		Name:      name,
		Brand:     "Generic",
		Strength:  "500mg",
		Price:     price(p),
		Stock:     stock,
		Available: stock > 0,
		Category:  "Pain Relief",
	}
}

func testCatalog() *catalog.Catalog {
	return catalog.New([]model.Pharmacy{
		{
			ID:         "1",
			Name:       "Apollo Pharmacy",
			DistanceKm: 1.2,
			Rating:     4.5,
			Medicines: []model.Medicine{
				testMedicine("m1", "Paracetamol", "25.00", 50),
				testMedicine("m2", "Ibuprofen", "45.00", 0),
				testMedicine("m3", "Cetirizine", "18.00", 5),
			},
		},
		{
			ID:         "2",
			Name:       "MedPlus",
			DistanceKm: 2.5,
			Rating:     4.2,
			Medicines: []model.Medicine{
				testMedicine("m1", "Paracetamol", "22.00", 100),
			},
		},
	}, 0, zerolog.Nop())
}

// fixture bundles the collaborators shared by the service tests.
type fixture struct {
	catalog   *catalog.Catalog
	docs      docstore.Store
	registry  *session.Registry
	scheduler *checkout.ManualScheduler
	publisher *MockPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithIDs(t, &sequenceIDs{})
}

func newFixtureWithIDs(t *testing.T, ids checkout.IDGenerator) *fixture {
	t.Helper()

	docs := docstore.NewMemoryStore(zerolog.Nop())
	scheduler := checkout.NewManualScheduler()
	registry := session.NewRegistry(NewOrderArchive(docs, zerolog.Nop()), ids, scheduler, &checkout.Config{
		ClearDelay:    3 * time.Second,
		MaxIDAttempts: 5,
	}, zerolog.Nop())
	t.Cleanup(registry.Close)

	return &fixture{
		catalog:   testCatalog(),
		docs:      docs,
		registry:  registry,
		scheduler: scheduler,
		publisher: new(MockPublisher),
	}
}

func (f *fixture) storefront() StorefrontService {
	return NewStorefrontService(f.registry, f.catalog, f.docs, f.publisher, zerolog.Nop())
}

func (f *fixture) pharmacy() PharmacyService {
	return NewPharmacyService(f.catalog, f.docs, f.registry, f.publisher, 10, zerolog.Nop())
}

// archive stores an order directly in the archive.
func (f *fixture) archive(t *testing.T, o model.Order) {
	t.Helper()

	doc, err := docstore.Encode(o)
	require.NoError(t, err)
	_, err = f.docs.Create(context.Background(), OrdersCollection, doc)
	require.NoError(t, err)
}

func validForm() checkout.Form {
	return checkout.Form{
		FullName: "Asha Rao",
		Address:  "12 Marine Drive, Mumbai",
		Phone:    "(987) 654-3210",
	}
}

func customer() model.User {
	return model.User{ID: "u1", Email: "asha@example.com", FirstName: "Asha", Role: model.RoleUser}
}
