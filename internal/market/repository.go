package market

import (
	"context"
	"sync"

	"carbon-scribe/impact-ledger/pkg/ledger"
)

// View is a read-only view of the market
type View interface {
	FindListing(id int64) (Listing, bool)
	Listings() []Listing
	FindTransaction(id int64) (Transaction, bool)
	Transactions() []Transaction
}

// Tx is a mutable unit of work over listings and transactions. Writes to
// either table become visible together, and only if the transaction
// function returns nil.
type Tx interface {
	View
	InsertListing(build func(id int64) Listing) Listing
	SaveListing(l Listing) bool
	InsertTransaction(build func(id int64) Transaction) Transaction
	// AfterCommit queues fn to run once the transaction has committed, still
	// inside the critical section, so hooks of successive transactions run in
	// commit order. Hooks are dropped when the transaction fails.
	AfterCommit(fn func())
}

// Repository stores listings and transactions
type Repository interface {
	RunInTransaction(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(v View) error) error
}

// MemoryRepository keeps the market in process memory
type MemoryRepository struct {
	mu           sync.RWMutex
	listings     *ledger.Table[Listing]
	transactions *ledger.Table[Transaction]
}

// NewMemoryRepository creates an empty market store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		listings:     ledger.NewTable[Listing](),
		transactions: ledger.NewTable[Transaction](),
	}
}

type memoryTx struct {
	listings     *ledger.Table[Listing]
	transactions *ledger.Table[Transaction]
	hooks        []func()
}

// RunInTransaction runs fn against copies of both tables under the write
// lock and commits them only when fn succeeds. Commit hooks run before the
// lock is released.
func (r *MemoryRepository) RunInTransaction(_ context.Context, fn func(tx Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memoryTx{
		listings:     r.listings.Clone(),
		transactions: r.transactions.Clone(),
	}
	if err := fn(tx); err != nil {
		return err
	}
	r.listings = tx.listings
	r.transactions = tx.transactions
	for _, hook := range tx.hooks {
		hook()
	}
	return nil
}

// View runs fn under the read lock
func (r *MemoryRepository) View(_ context.Context, fn func(v View) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return fn(&memoryTx{listings: r.listings, transactions: r.transactions})
}

func (tx *memoryTx) FindListing(id int64) (Listing, bool) {
	return tx.listings.Get(id)
}

func (tx *memoryTx) Listings() []Listing {
	return tx.listings.List()
}

func (tx *memoryTx) FindTransaction(id int64) (Transaction, bool) {
	return tx.transactions.Get(id)
}

func (tx *memoryTx) Transactions() []Transaction {
	return tx.transactions.List()
}

func (tx *memoryTx) InsertListing(build func(id int64) Listing) Listing {
	return tx.listings.Insert(build)
}

func (tx *memoryTx) SaveListing(l Listing) bool {
	return tx.listings.Put(l.ID, l)
}

func (tx *memoryTx) InsertTransaction(build func(id int64) Transaction) Transaction {
	return tx.transactions.Insert(build)
}

func (tx *memoryTx) AfterCommit(fn func()) {
	tx.hooks = append(tx.hooks, fn)
}
