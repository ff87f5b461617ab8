package reports

import (
	"context"
	"errors"
	"time"

	"carbon-scribe/impact-ledger/internal/assessment"
	"carbon-scribe/impact-ledger/internal/market"
)

// Exportable datasets
const (
	DatasetAssessments  = "assessments"
	DatasetListings     = "listings"
	DatasetTransactions = "transactions"
)

// ErrUnknownDataset is returned for dataset names other than the exportable ones
var ErrUnknownDataset = errors.New("unknown dataset")

// AssessmentSource is the read side of the assessment registry
type AssessmentSource interface {
	List(ctx context.Context) ([]assessment.Assessment, error)
	Summary(ctx context.Context) (assessment.Summary, error)
}

// MarketSource is the read side of the market ledger
type MarketSource interface {
	ListListings(ctx context.Context, activeOnly bool) ([]market.Listing, error)
	ListTransactions(ctx context.Context) ([]market.Transaction, error)
	Summary(ctx context.Context) (market.Summary, error)
}

// LedgerSummary combines the counts of both ledgers
type LedgerSummary struct {
	Assessments assessment.Summary `json:"assessments"`
	Market      market.Summary     `json:"market"`
	GeneratedAt time.Time          `json:"generated_at"`
}
