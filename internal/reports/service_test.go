package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carbon-scribe/impact-ledger/internal/assessment"
	"carbon-scribe/impact-ledger/internal/market"
	"carbon-scribe/impact-ledger/internal/reports/export"
)

const owner = "ST1OWNER"

type fixture struct {
	assessments *assessment.Service
	market      *market.Service
	reports     *Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	a := assessment.NewService(assessment.NewMemoryRepository(), owner, zap.NewNop(), nil, nil)
	m := market.NewService(market.NewMemoryRepository(), zap.NewNop(), nil, nil)

	_, err := a.Submit(ctx, assessment.AssessmentData{ProcessID: 1, CarbonFootprint: 50, WaterUsage: 800, WasteGenerated: 30, RenewableEnergyPercent: 70}, "ST1ASSESSOR")
	require.NoError(t, err)
	_, err = a.Submit(ctx, assessment.AssessmentData{ProcessID: 2, CarbonFootprint: 150, WaterUsage: 1200, WasteGenerated: 80, RenewableEnergyPercent: 30}, "ST1ASSESSOR")
	require.NoError(t, err)
	_, err = a.Verify(ctx, 1, owner)
	require.NoError(t, err)

	_, err = m.CreateListing(ctx, market.ListingData{ProductName: "Organic Cotton T-Shirt", Price: 50, Quantity: 100, GreenCertification: true}, "ST1SELLER")
	require.NoError(t, err)
	_, err = m.Purchase(ctx, 1, 15, "ST1BUYER")
	require.NoError(t, err)

	return fixture{
		assessments: a,
		market:      m,
		reports:     NewService(a, m, "Impact Ledger", zap.NewNop()),
	}
}

func TestSummary(t *testing.T) {
	f := newFixture(t)

	sum, err := f.reports.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, assessment.Summary{Total: 2, Verified: 1}, sum.Assessments)
	assert.Equal(t, 1, sum.Market.Listings)
	assert.Equal(t, int64(15), sum.Market.VolumeTraded)
	assert.Equal(t, 750.0, sum.Market.ValueTraded)
	assert.False(t, sum.GeneratedAt.IsZero())
}

func TestAssessmentDatasetIncludesScore(t *testing.T) {
	f := newFixture(t)

	ds, err := f.reports.Dataset(context.Background(), DatasetAssessments)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, 100, ds.Rows[0]["score"])
	assert.Equal(t, 0, ds.Rows[1]["score"])
	assert.Equal(t, true, ds.Rows[0]["verified"])
	assert.Equal(t, 1, ds.Summary["Verified"])
}

func TestListingAndTransactionDatasets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	listings, err := f.reports.Dataset(ctx, DatasetListings)
	require.NoError(t, err)
	require.Len(t, listings.Rows, 1)
	assert.Equal(t, int64(85), listings.Rows[0]["quantity"])
	assert.Equal(t, true, listings.Rows[0]["green_certification"])

	txs, err := f.reports.Dataset(ctx, DatasetTransactions)
	require.NoError(t, err)
	require.Len(t, txs.Rows, 1)
	assert.Equal(t, 750.0, txs.Rows[0]["total_price"])
	assert.Equal(t, market.StatusCompleted, txs.Rows[0]["status"])
}

func TestUnknownDataset(t *testing.T) {
	f := newFixture(t)

	_, err := f.reports.Dataset(context.Background(), "projects")
	assert.True(t, errors.Is(err, ErrUnknownDataset))
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	require.NoError(t, f.reports.Export(context.Background(), DatasetTransactions, export.FormatCSV, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"id", "listing_id", "buyer", "seller", "quantity", "total_price", "transaction_date", "status"}, records[0])
	assert.Equal(t, "ST1BUYER", records[1][2])
	assert.Equal(t, "750", records[1][5])
}

func TestExportListingsCSVCarriesCertification(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	require.NoError(t, f.reports.Export(context.Background(), DatasetListings, export.FormatCSV, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "green_certification", records[0][6])
	assert.Equal(t, "true", records[1][6])
}

func TestExportEveryFormat(t *testing.T) {
	f := newFixture(t)

	for _, name := range Datasets() {
		for _, format := range []export.Format{export.FormatCSV, export.FormatExcel, export.FormatPDF} {
			var buf bytes.Buffer
			require.NoError(t, f.reports.Export(context.Background(), name, format, &buf), "%s/%s", name, format)
			assert.NotZero(t, buf.Len(), "%s/%s", name, format)
		}
	}
}
