package assessment

import (
	"context"
	"sync"

	"carbon-scribe/impact-ledger/pkg/ledger"
)

// View is a read-only view of the registry
type View interface {
	Find(id int64) (Assessment, bool)
	List() []Assessment
}

// Tx is a mutable unit of work. Writes become visible only if the
// transaction function returns nil.
type Tx interface {
	View
	Insert(build func(id int64) Assessment) Assessment
	Save(a Assessment) bool
	// AfterCommit queues fn to run after a successful commit, before the
	// write lock is released.
	AfterCommit(fn func())
}

// Repository stores assessments
type Repository interface {
	RunInTransaction(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(v View) error) error
}

// MemoryRepository keeps assessments in process memory
type MemoryRepository struct {
	mu          sync.RWMutex
	assessments *ledger.Table[Assessment]
}

// NewMemoryRepository creates an empty registry store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{assessments: ledger.NewTable[Assessment]()}
}

type memoryTx struct {
	assessments *ledger.Table[Assessment]
	hooks       []func()
}

// RunInTransaction runs fn against a copy of the store under the write lock
// and commits the copy only when fn succeeds.
func (r *MemoryRepository) RunInTransaction(_ context.Context, fn func(tx Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memoryTx{assessments: r.assessments.Clone()}
	if err := fn(tx); err != nil {
		return err
	}
	r.assessments = tx.assessments
	for _, hook := range tx.hooks {
		hook()
	}
	return nil
}

// View runs fn under the read lock
func (r *MemoryRepository) View(_ context.Context, fn func(v View) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return fn(&memoryTx{assessments: r.assessments})
}

func (tx *memoryTx) Find(id int64) (Assessment, bool) {
	return tx.assessments.Get(id)
}

func (tx *memoryTx) List() []Assessment {
	return tx.assessments.List()
}

func (tx *memoryTx) Insert(build func(id int64) Assessment) Assessment {
	return tx.assessments.Insert(build)
}

func (tx *memoryTx) Save(a Assessment) bool {
	return tx.assessments.Put(a.ID, a)
}

func (tx *memoryTx) AfterCommit(fn func()) {
	tx.hooks = append(tx.hooks, fn)
}
