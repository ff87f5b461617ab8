package market

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carbon-scribe/impact-ledger/internal/notifications"
	"carbon-scribe/impact-ledger/pkg/ledger"
)

const (
	seller       = "ST1SELLER"
	buyer        = "ST1BUYER"
	unauthorized = "ST1UNAUTHORIZED"
)

// MockPublisher is a mock implementation of notifications.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event notifications.Event) {
	m.Called(ctx, event)
}

// MockRecorder is a mock metrics recorder that also tracks traded value
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Observe(module, operation string, res ledger.Result) {
	m.Called(module, operation, res)
}

func (m *MockRecorder) AddTradeValue(v float64) {
	m.Called(v)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewMemoryRepository(), zap.NewNop(), nil, nil)
}

func organicCotton() ListingData {
	return ListingData{
		OrgID:               1,
		ProductName:         "Organic Cotton T-Shirt",
		Description:         "100% organic cotton",
		Price:               50,
		Quantity:            100,
		GreenCertification:  true,
		SustainabilityScore: 90,
	}
}

func createListing(t *testing.T, svc *Service, data ListingData) int64 {
	t.Helper()
	res, err := svc.CreateListing(context.Background(), data, seller)
	require.NoError(t, err)
	require.True(t, res.Success)
	return res.ListingID
}

func TestCreateListing(t *testing.T) {
	svc := newTestService(t)
	fixed := time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	res, err := svc.CreateListing(context.Background(), organicCotton(), seller)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(1), res.ListingID)

	l, found, err := svc.GetListing(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, seller, l.Seller)
	assert.Equal(t, "Organic Cotton T-Shirt", l.ProductName)
	assert.Equal(t, int64(100), l.Quantity)
	assert.Equal(t, 50.0, l.Price)
	assert.Equal(t, fixed, l.ListingDate)
	assert.True(t, l.Active)
}

func TestCreateListingWithZeroQuantityIsInactive(t *testing.T) {
	svc := newTestService(t)
	data := organicCotton()
	data.Quantity = 0

	id := createListing(t, svc, data)

	l, _, err := svc.GetListing(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, l.Active)

	res, err := svc.Purchase(context.Background(), id, 1, buyer)
	require.NoError(t, err)
	assert.Equal(t, ledger.ErrInsufficientFunds, res.Error)
}

func TestCreateListingRejectsNegativeQuantity(t *testing.T) {
	svc := newTestService(t)
	data := organicCotton()
	data.Quantity = -1

	_, err := svc.CreateListing(context.Background(), data, seller)
	assert.ErrorIs(t, err, ErrNegativeQuantity)

	// the rejected listing did not consume an id
	assert.Equal(t, int64(1), createListing(t, svc, organicCotton()))
}

func TestPurchase(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	fixed := time.Date(2025, 4, 3, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	id := createListing(t, svc, organicCotton())

	res, err := svc.Purchase(ctx, id, 15, buyer)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(1), res.TransactionID)

	l, _, err := svc.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(85), l.Quantity)
	assert.True(t, l.Active)

	tx, found, err := svc.GetTransaction(ctx, res.TransactionID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, Transaction{
		ID:              1,
		Buyer:           buyer,
		Seller:          seller,
		ListingID:       id,
		Quantity:        15,
		TotalPrice:      750,
		TransactionDate: fixed,
		Status:          StatusCompleted,
	}, tx)
}

func TestPurchaseSellsOutExactly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := createListing(t, svc, organicCotton())

	first, err := svc.Purchase(ctx, id, 15, buyer)
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := svc.Purchase(ctx, id, 85, buyer)
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Equal(t, int64(2), second.TransactionID)

	l, _, err := svc.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), l.Quantity)
	assert.False(t, l.Active)

	tx, _, err := svc.GetTransaction(ctx, second.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, 4250.0, tx.TotalPrice)

	third, err := svc.Purchase(ctx, id, 1, buyer)
	require.NoError(t, err)
	assert.Equal(t, ledger.ErrInsufficientFunds, third.Error)
}

func TestPurchaseOversellLeavesStateUnchanged(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := createListing(t, svc, organicCotton())

	res, err := svc.Purchase(ctx, id, 150, buyer)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, ledger.ErrInsufficientFunds, res.Error)

	l, _, err := svc.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), l.Quantity)
	assert.True(t, l.Active)

	txs, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)

	// the failed purchase did not consume a transaction id
	ok, err := svc.Purchase(ctx, id, 1, buyer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ok.TransactionID)
}

func TestPurchaseMissingOrInactiveListing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.Purchase(ctx, 99, 1, buyer)
	require.NoError(t, err)
	assert.Equal(t, ledger.ErrInsufficientFunds, res.Error)

	id := createListing(t, svc, organicCotton())
	status, err := svc.UpdateListingStatus(ctx, id, false, seller)
	require.NoError(t, err)
	require.True(t, status.Success)

	res, err = svc.Purchase(ctx, id, 1, buyer)
	require.NoError(t, err)
	assert.Equal(t, ledger.ErrInsufficientFunds, res.Error)
}

func TestPurchaseOfZeroUnitsIsRecorded(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := createListing(t, svc, organicCotton())

	res, err := svc.Purchase(ctx, id, 0, buyer)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(1), res.TransactionID)

	tx, found, err := svc.GetTransaction(ctx, res.TransactionID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(0), tx.Quantity)
	assert.Equal(t, 0.0, tx.TotalPrice)
	assert.Equal(t, StatusCompleted, tx.Status)

	l, _, err := svc.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), l.Quantity)
	assert.True(t, l.Active)
}

func TestPurchaseRejectsNegativeQuantity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := createListing(t, svc, organicCotton())

	res, err := svc.Purchase(ctx, id, -5, buyer)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, ledger.ErrInsufficientFunds, res.Error)

	l, _, err := svc.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), l.Quantity)

	txs, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestPurchaseByTheSellerIsAllowed(t *testing.T) {
	svc := newTestService(t)
	id := createListing(t, svc, organicCotton())

	res, err := svc.Purchase(context.Background(), id, 1, seller)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestPurchasePublishesAndRecordsTradeValue(t *testing.T) {
	pub := new(MockPublisher)
	rec := new(MockRecorder)
	svc := NewService(NewMemoryRepository(), zap.NewNop(), pub, rec)
	ctx := context.Background()

	pub.On("Publish", ctx, mock.MatchedBy(func(e notifications.Event) bool {
		return e.Type == notifications.EventListingCreated
	})).Once()
	pub.On("Publish", ctx, mock.MatchedBy(func(e notifications.Event) bool {
		return e.Type == notifications.EventListingPurchased &&
			e.Channel == notifications.ChannelMarket &&
			e.Source == buyer &&
			e.Data["total_price"] == 100.0
	})).Once()
	rec.On("Observe", "market", OpCreateListing, ledger.OK()).Once()
	rec.On("Observe", "market", OpPurchase, ledger.OK()).Once()
	rec.On("Observe", "market", OpPurchase, ledger.Fail(ledger.ErrInsufficientFunds)).Once()
	rec.On("AddTradeValue", 100.0).Once()

	id := createListing(t, svc, organicCotton())
	_, err := svc.Purchase(ctx, id, 2, buyer)
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, id, 1000, buyer)
	require.NoError(t, err)

	pub.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestConcurrentPurchasesNeverOversell(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	data := organicCotton()
	data.Quantity = 20
	id := createListing(t, svc, data)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Purchase(ctx, id, 1, buyer)
			if err == nil && res.Success {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, succeeded)

	l, _, err := svc.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), l.Quantity)
	assert.False(t, l.Active)

	txs, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 20)
	for i, tx := range txs {
		assert.Equal(t, int64(i+1), tx.ID)
	}
}

// recordingPublisher keeps events in the order Publish was called
type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event notifications.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func TestConcurrentPurchasesPublishInCommitOrder(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(NewMemoryRepository(), zap.NewNop(), pub, nil)
	ctx := context.Background()
	data := organicCotton()
	data.Quantity = 200
	id := createListing(t, svc, data)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Purchase(ctx, id, 2, buyer)
		}()
	}
	wg.Wait()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.events, 101)
	assert.Equal(t, notifications.EventListingCreated, pub.events[0].Type)

	for i, e := range pub.events[1:] {
		require.Equal(t, notifications.EventListingPurchased, e.Type)
		assert.Equal(t, int64(i+1), e.Data["transaction_id"])
		assert.Equal(t, int64(200-2*(i+1)), e.Data["remaining"])
	}
}

func TestUpdateListingStatus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := createListing(t, svc, organicCotton())

	res, err := svc.UpdateListingStatus(ctx, id, false, seller)
	require.NoError(t, err)
	assert.True(t, res.Success)

	l, _, err := svc.GetListing(ctx, id)
	require.NoError(t, err)
	assert.False(t, l.Active)

	res, err = svc.UpdateListingStatus(ctx, id, true, seller)
	require.NoError(t, err)
	assert.True(t, res.Success)

	l, _, err = svc.GetListing(ctx, id)
	require.NoError(t, err)
	assert.True(t, l.Active)
}

func TestUpdateListingStatusRejectsNonSeller(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := createListing(t, svc, organicCotton())

	res, err := svc.UpdateListingStatus(ctx, id, false, unauthorized)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, ledger.ErrUnauthorized, res.Error)

	l, _, err := svc.GetListing(ctx, id)
	require.NoError(t, err)
	assert.True(t, l.Active)
}

func TestUpdateListingStatusChecksExistenceFirst(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.UpdateListingStatus(context.Background(), 7, false, unauthorized)
	require.NoError(t, err)
	assert.Equal(t, ledger.ErrNotFound, res.Error)
}

func TestReactivatingSoldOutListing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	data := organicCotton()
	data.Quantity = 3
	id := createListing(t, svc, data)

	_, err := svc.Purchase(ctx, id, 3, buyer)
	require.NoError(t, err)

	res, err := svc.UpdateListingStatus(ctx, id, true, seller)
	require.NoError(t, err)
	assert.True(t, res.Success)

	l, _, err := svc.GetListing(ctx, id)
	require.NoError(t, err)
	assert.True(t, l.Active)
	assert.Equal(t, int64(0), l.Quantity)

	buy, err := svc.Purchase(ctx, id, 1, buyer)
	require.NoError(t, err)
	assert.Equal(t, ledger.ErrInsufficientFunds, buy.Error)

	// an empty purchase brings the listing back in line with its stock
	empty, err := svc.Purchase(ctx, id, 0, buyer)
	require.NoError(t, err)
	assert.True(t, empty.Success)

	l, _, err = svc.GetListing(ctx, id)
	require.NoError(t, err)
	assert.False(t, l.Active)
}

func TestListListingsAndSummary(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	first := createListing(t, svc, organicCotton())
	second := createListing(t, svc, organicCotton())
	_, err := svc.UpdateListingStatus(ctx, first, false, seller)
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, second, 10, buyer)
	require.NoError(t, err)

	all, err := svc.ListListings(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.ListListings(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second, active[0].ID)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{
		Listings:       2,
		ActiveListings: 1,
		Transactions:   1,
		VolumeTraded:   10,
		ValueTraded:    500,
	}, sum)
}
