package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"carbon-scribe/impact-ledger/internal/reports"
)

// runTimeout bounds a single scheduled summary
const runTimeout = 30 * time.Second

// Summarizer produces the periodic ledger summary
type Summarizer interface {
	Summary(ctx context.Context) (reports.LedgerSummary, error)
}

// Manager runs the ledger summary job on a cron schedule
type Manager struct {
	cron       *cron.Cron
	summarizer Summarizer
	logger     *zap.Logger
	mu         sync.Mutex
	entryID    cron.EntryID
	scheduled  bool
	running    bool
}

// NewManager creates a new schedule manager. Cron expressions include a
// leading seconds field.
func NewManager(summarizer Summarizer, logger *zap.Logger) *Manager {
	return &Manager{
		cron:       cron.New(cron.WithSeconds()),
		summarizer: summarizer,
		logger:     logger,
	}
}

// Schedule replaces the summary job schedule. An empty spec removes the job.
func (m *Manager) Schedule(spec string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.scheduled {
		m.cron.Remove(m.entryID)
		m.scheduled = false
	}
	if spec == "" {
		m.logger.Info("Ledger summary job disabled")
		return nil
	}

	entryID, err := m.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		_, _ = m.RunNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	m.entryID = entryID
	m.scheduled = true

	m.logger.Info("Scheduled ledger summary job", zap.String("cron", spec))
	return nil
}

// Start starts the cron scheduler
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("schedule manager already running")
	}
	m.running = true

	m.logger.Info("Starting schedule manager")
	m.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	m.logger.Info("Stopping schedule manager")
	<-m.cron.Stop().Done()
}

// NextRun returns when the summary job runs next; zero if it is not scheduled
// or the scheduler is stopped.
func (m *Manager) NextRun() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.scheduled {
		return time.Time{}
	}
	return m.cron.Entry(m.entryID).Next
}

// RunNow produces and logs a ledger summary
func (m *Manager) RunNow(ctx context.Context) (reports.LedgerSummary, error) {
	summary, err := m.summarizer.Summary(ctx)
	if err != nil {
		m.logger.Error("Failed to build ledger summary", zap.Error(err))
		return reports.LedgerSummary{}, err
	}

	m.logger.Info("Ledger summary",
		zap.Int("assessments", summary.Assessments.Total),
		zap.Int("verified_assessments", summary.Assessments.Verified),
		zap.Int("listings", summary.Market.Listings),
		zap.Int("active_listings", summary.Market.ActiveListings),
		zap.Int("transactions", summary.Market.Transactions),
		zap.Int64("volume_traded", summary.Market.VolumeTraded),
		zap.Float64("value_traded", summary.Market.ValueTraded))
	return summary, nil
}
