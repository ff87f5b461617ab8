package market

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carbon-scribe/impact-ledger/internal/metrics"
	"carbon-scribe/impact-ledger/internal/notifications"
	"carbon-scribe/impact-ledger/pkg/ledger"
	"carbon-scribe/impact-ledger/pkg/workflows"
)

// Operation names used for metrics
const (
	OpCreateListing = "create_listing"
	OpPurchase      = "purchase"
	OpUpdateStatus  = "update_listing_status"
)

// Service is the market listing and purchase ledger
type Service struct {
	repo      Repository
	logger    *zap.Logger
	publisher notifications.Publisher
	metrics   metrics.Recorder
	states    *workflows.StateMachine
	now       func() time.Time
}

// NewService creates a market ledger. A nil publisher or recorder disables
// events or metrics.
func NewService(repo Repository, logger *zap.Logger, publisher notifications.Publisher, recorder metrics.Recorder) *Service {
	if publisher == nil {
		publisher = notifications.NopPublisher{}
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		repo:      repo,
		logger:    logger,
		publisher: publisher,
		metrics:   recorder,
		states:    workflows.NewListingStateMachine(),
		now:       time.Now,
	}
}

// CreateListing records a new listing owned by seller. The listing starts
// active unless it has no stock. A negative quantity is rejected with
// ErrNegativeQuantity before anything is stored.
func (s *Service) CreateListing(ctx context.Context, data ListingData, seller string) (CreateListingResult, error) {
	if data.Quantity < 0 {
		return CreateListingResult{}, fmt.Errorf("failed to create listing: %w", ErrNegativeQuantity)
	}

	var created Listing
	err := s.repo.RunInTransaction(ctx, func(tx Tx) error {
		created = tx.InsertListing(func(id int64) Listing {
			return newListing(id, seller, data, s.now())
		})
		event := notifications.NewEvent(notifications.EventListingCreated, notifications.ChannelMarket, seller, map[string]any{
			"listing_id":   created.ID,
			"product_name": created.ProductName,
			"price":        created.Price,
			"quantity":     created.Quantity,
		})
		tx.AfterCommit(func() { s.publisher.Publish(ctx, event) })
		return nil
	})
	res, err := ledger.Resolve(err)
	if err != nil {
		return CreateListingResult{}, fmt.Errorf("failed to create listing: %w", err)
	}
	s.metrics.Observe(metrics.ModuleMarket, OpCreateListing, res)

	s.logger.Info("Listing created",
		zap.Int64("listing_id", created.ID),
		zap.String("seller", seller),
		zap.String("product_name", created.ProductName),
		zap.Int64("quantity", created.Quantity))

	return CreateListingResult{Result: res, ListingID: created.ID}, nil
}

// Purchase buys qty units of a listing. Missing, inactive and short listings
// all fail with insufficient-funds, and so does a negative qty. A zero qty
// succeeds and records an empty transaction. The inventory decrement and the
// transaction record are committed together.
func (s *Service) Purchase(ctx context.Context, listingID, qty int64, buyer string) (PurchaseResult, error) {
	var (
		sold   Listing
		record Transaction
	)
	err := s.repo.RunInTransaction(ctx, func(tx Tx) error {
		l, ok := tx.FindListing(listingID)
		if !ok || qty < 0 || l.Quantity < qty {
			return ledger.ErrInsufficientFunds
		}
		next := workflows.ListingState(l.Quantity-qty > 0)
		if !s.states.CanTransition(workflows.ListingState(l.Active), next) {
			return ledger.ErrInsufficientFunds
		}

		l.Quantity -= qty
		l.Active = next == workflows.ListingActive
		tx.SaveListing(l)

		record = tx.InsertTransaction(func(id int64) Transaction {
			return Transaction{
				ID:              id,
				Buyer:           buyer,
				Seller:          l.Seller,
				ListingID:       l.ID,
				Quantity:        qty,
				TotalPrice:      l.Price * float64(qty),
				TransactionDate: s.now(),
				Status:          StatusCompleted,
			}
		})
		sold = l

		event := notifications.NewEvent(notifications.EventListingPurchased, notifications.ChannelMarket, buyer, map[string]any{
			"transaction_id": record.ID,
			"listing_id":     listingID,
			"quantity":       qty,
			"total_price":    record.TotalPrice,
			"remaining":      sold.Quantity,
			"active":         sold.Active,
		})
		tx.AfterCommit(func() { s.publisher.Publish(ctx, event) })
		return nil
	})
	res, err := ledger.Resolve(err)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("failed to purchase listing: %w", err)
	}
	s.metrics.Observe(metrics.ModuleMarket, OpPurchase, res)
	if !res.Success {
		s.logger.Info("Purchase rejected",
			zap.Int64("listing_id", listingID),
			zap.Int64("quantity", qty),
			zap.String("buyer", buyer),
			zap.String("error", string(res.Error)))
		return PurchaseResult{Result: res}, nil
	}

	if tr, ok := s.metrics.(metrics.TradeRecorder); ok {
		tr.AddTradeValue(record.TotalPrice)
	}

	s.logger.Info("Purchase completed",
		zap.Int64("transaction_id", record.ID),
		zap.Int64("listing_id", listingID),
		zap.Int64("quantity", qty),
		zap.Int64("remaining", sold.Quantity),
		zap.String("buyer", buyer))

	return PurchaseResult{Result: res, TransactionID: record.ID}, nil
}

// UpdateListingStatus lets the seller activate or deactivate a listing,
// whatever its stock. The existence check precedes the seller check.
func (s *Service) UpdateListingStatus(ctx context.Context, listingID int64, active bool, caller string) (ledger.Result, error) {
	err := s.repo.RunInTransaction(ctx, func(tx Tx) error {
		l, ok := tx.FindListing(listingID)
		if !ok {
			return ledger.ErrNotFound
		}
		if l.Seller != caller {
			return ledger.ErrUnauthorized
		}
		l.Active = active
		tx.SaveListing(l)
		event := notifications.NewEvent(notifications.EventListingStatusChanged, notifications.ChannelMarket, caller, map[string]any{
			"listing_id": listingID,
			"active":     active,
		})
		tx.AfterCommit(func() { s.publisher.Publish(ctx, event) })
		return nil
	})
	res, err := ledger.Resolve(err)
	if err != nil {
		return ledger.Result{}, fmt.Errorf("failed to update listing status: %w", err)
	}
	s.metrics.Observe(metrics.ModuleMarket, OpUpdateStatus, res)
	if !res.Success {
		s.logger.Warn("Listing status update refused",
			zap.Int64("listing_id", listingID),
			zap.String("caller", caller),
			zap.String("error", string(res.Error)))
		return res, nil
	}

	s.logger.Info("Listing status updated",
		zap.Int64("listing_id", listingID),
		zap.Bool("active", active))
	return res, nil
}

// GetListing returns a copy of a listing
func (s *Service) GetListing(ctx context.Context, id int64) (Listing, bool, error) {
	var (
		l  Listing
		ok bool
	)
	err := s.repo.View(ctx, func(v View) error {
		l, ok = v.FindListing(id)
		return nil
	})
	if err != nil {
		return Listing{}, false, fmt.Errorf("failed to get listing: %w", err)
	}
	return l, ok, nil
}

// ListListings returns listings ordered by id, optionally only active ones
func (s *Service) ListListings(ctx context.Context, activeOnly bool) ([]Listing, error) {
	out := []Listing{}
	err := s.repo.View(ctx, func(v View) error {
		for _, l := range v.Listings() {
			if !activeOnly || l.Active {
				out = append(out, l)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return out, nil
}

// GetTransaction returns a recorded transaction
func (s *Service) GetTransaction(ctx context.Context, id int64) (Transaction, bool, error) {
	var (
		t  Transaction
		ok bool
	)
	err := s.repo.View(ctx, func(v View) error {
		t, ok = v.FindTransaction(id)
		return nil
	})
	if err != nil {
		return Transaction{}, false, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, ok, nil
}

// ListTransactions returns all transactions ordered by id
func (s *Service) ListTransactions(ctx context.Context) ([]Transaction, error) {
	var out []Transaction
	err := s.repo.View(ctx, func(v View) error {
		out = v.Transactions()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return out, nil
}

// Summary aggregates listings and traded volume from a single snapshot
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.repo.View(ctx, func(v View) error {
		listings := v.Listings()
		sum.Listings = len(listings)
		for _, l := range listings {
			if l.Active {
				sum.ActiveListings++
			}
		}
		txs := v.Transactions()
		sum.Transactions = len(txs)
		for _, t := range txs {
			sum.VolumeTraded += t.Quantity
			sum.ValueTraded += t.TotalPrice
		}
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize market: %w", err)
	}
	return sum, nil
}
