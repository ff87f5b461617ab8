package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"carbon-scribe/impact-ledger/internal/assessment"
	"carbon-scribe/impact-ledger/internal/reports/export"
)

// Service builds exportable datasets and summaries from the ledgers
type Service struct {
	assessments AssessmentSource
	market      MarketSource
	title       string
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new reports service. title prefixes PDF report titles.
func NewService(assessments AssessmentSource, market MarketSource, title string, logger *zap.Logger) *Service {
	return &Service{
		assessments: assessments,
		market:      market,
		title:       title,
		logger:      logger,
		now:         time.Now,
	}
}

// Datasets returns the names of the exportable datasets
func Datasets() []string {
	return []string{DatasetAssessments, DatasetListings, DatasetTransactions}
}

// Summary reads both ledgers
func (s *Service) Summary(ctx context.Context) (LedgerSummary, error) {
	a, err := s.assessments.Summary(ctx)
	if err != nil {
		return LedgerSummary{}, fmt.Errorf("failed to summarize assessments: %w", err)
	}
	m, err := s.market.Summary(ctx)
	if err != nil {
		return LedgerSummary{}, fmt.Errorf("failed to summarize market: %w", err)
	}
	return LedgerSummary{Assessments: a, Market: m, GeneratedAt: s.now().UTC()}, nil
}

// Dataset builds the named dataset from the current ledger state
func (s *Service) Dataset(ctx context.Context, name string) (export.Dataset, error) {
	switch name {
	case DatasetAssessments:
		return s.assessmentDataset(ctx)
	case DatasetListings:
		return s.listingDataset(ctx)
	case DatasetTransactions:
		return s.transactionDataset(ctx)
	default:
		return export.Dataset{}, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
}

// Export writes the named dataset to w in the given format
func (s *Service) Export(ctx context.Context, name string, format export.Format, w io.Writer) error {
	ds, err := s.Dataset(ctx, name)
	if err != nil {
		return err
	}
	if err := export.Write(w, format, ds); err != nil {
		return fmt.Errorf("failed to export %s as %s: %w", name, format, err)
	}

	s.logger.Info("Dataset exported",
		zap.String("dataset", name),
		zap.String("format", string(format)),
		zap.Int("rows", len(ds.Rows)))
	return nil
}

func (s *Service) assessmentDataset(ctx context.Context) (export.Dataset, error) {
	list, err := s.assessments.List(ctx)
	if err != nil {
		return export.Dataset{}, err
	}

	ds := export.Dataset{
		Name:  DatasetAssessments,
		Title: s.title + " - Environmental Assessments",
		Columns: []export.Column{
			{Key: "id", Label: "ID"},
			{Key: "assessor", Label: "Assessor"},
			{Key: "process_id", Label: "Process"},
			{Key: "carbon_footprint", Label: "Carbon"},
			{Key: "water_usage", Label: "Water"},
			{Key: "waste_generated", Label: "Waste"},
			{Key: "energy_consumption", Label: "Energy"},
			{Key: "renewable_energy_percent", Label: "Renewable %"},
			{Key: "biodegradability_score", Label: "Biodegradability"},
			{Key: "toxicity_level", Label: "Toxicity"},
			{Key: "assessment_date", Label: "Date"},
			{Key: "verified", Label: "Verified"},
			{Key: "score", Label: "Score"},
		},
		Rows: make([]map[string]any, 0, len(list)),
	}

	verified := 0
	for _, a := range list {
		if a.Verified {
			verified++
		}
		ds.Rows = append(ds.Rows, map[string]any{
			"id":                       a.ID,
			"assessor":                 a.Assessor,
			"process_id":               a.ProcessID,
			"carbon_footprint":         a.CarbonFootprint,
			"water_usage":              a.WaterUsage,
			"waste_generated":          a.WasteGenerated,
			"energy_consumption":       a.EnergyConsumption,
			"renewable_energy_percent": a.RenewableEnergyPercent,
			"biodegradability_score":   a.BiodegradabilityScore,
			"toxicity_level":           a.ToxicityLevel,
			"assessment_date":          a.AssessmentDate,
			"verified":                 a.Verified,
			"score":                    assessment.Score(a),
		})
	}
	ds.Summary = map[string]any{
		"Assessments": len(list),
		"Verified":    verified,
	}
	return ds, nil
}

func (s *Service) listingDataset(ctx context.Context) (export.Dataset, error) {
	list, err := s.market.ListListings(ctx, false)
	if err != nil {
		return export.Dataset{}, err
	}

	ds := export.Dataset{
		Name:  DatasetListings,
		Title: s.title + " - Market Listings",
		Columns: []export.Column{
			{Key: "id", Label: "ID"},
			{Key: "seller", Label: "Seller"},
			{Key: "org_id", Label: "Org"},
			{Key: "product_name", Label: "Product"},
			{Key: "price", Label: "Price"},
			{Key: "quantity", Label: "Quantity"},
			{Key: "green_certification", Label: "Green Certified"},
			{Key: "sustainability_score", Label: "Sustainability"},
			{Key: "listing_date", Label: "Listed"},
			{Key: "active", Label: "Active"},
		},
		Rows: make([]map[string]any, 0, len(list)),
	}

	active := 0
	var units int64
	for _, l := range list {
		if l.Active {
			active++
		}
		units += l.Quantity
		ds.Rows = append(ds.Rows, map[string]any{
			"id":                   l.ID,
			"seller":               l.Seller,
			"org_id":               l.OrgID,
			"product_name":         l.ProductName,
			"price":                l.Price,
			"quantity":             l.Quantity,
			"green_certification":  l.GreenCertification,
			"sustainability_score": l.SustainabilityScore,
			"listing_date":         l.ListingDate,
			"active":               l.Active,
		})
	}
	ds.Summary = map[string]any{
		"Listings":        len(list),
		"Active":          active,
		"Units Available": units,
	}
	return ds, nil
}

func (s *Service) transactionDataset(ctx context.Context) (export.Dataset, error) {
	list, err := s.market.ListTransactions(ctx)
	if err != nil {
		return export.Dataset{}, err
	}

	ds := export.Dataset{
		Name:  DatasetTransactions,
		Title: s.title + " - Market Transactions",
		Columns: []export.Column{
			{Key: "id", Label: "ID"},
			{Key: "listing_id", Label: "Listing"},
			{Key: "buyer", Label: "Buyer"},
			{Key: "seller", Label: "Seller"},
			{Key: "quantity", Label: "Quantity"},
			{Key: "total_price", Label: "Total Price"},
			{Key: "transaction_date", Label: "Date"},
			{Key: "status", Label: "Status"},
		},
		Rows: make([]map[string]any, 0, len(list)),
	}

	var (
		volume int64
		value  float64
	)
	for _, t := range list {
		volume += t.Quantity
		value += t.TotalPrice
		ds.Rows = append(ds.Rows, map[string]any{
			"id":               t.ID,
			"listing_id":       t.ListingID,
			"buyer":            t.Buyer,
			"seller":           t.Seller,
			"quantity":         t.Quantity,
			"total_price":      t.TotalPrice,
			"transaction_date": t.TransactionDate,
			"status":           t.Status,
		})
	}
	ds.Summary = map[string]any{
		"Transactions":  len(list),
		"Volume Traded": volume,
		"Value Traded":  value,
	}
	return ds, nil
}
