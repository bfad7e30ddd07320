package ingest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
	"github.com/jeffhong58/ai-stock-selector/pkg/config"
	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
)

// fakePriceSource serves canned bars and programmable failures.
type fakePriceSource struct {
	mu       sync.Mutex
	bars     map[string][]contracts.PriceBar
	failures map[string]error
	// failuresLeft makes a symbol fail N times before succeeding
	failuresLeft map[string]int
	transientErr error
	calls        map[string]int
}

func (f *fakePriceSource) FetchPriceBars(_ context.Context, symbol string, _, _ time.Time) ([]contracts.PriceBar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[symbol]++

	if err, ok := f.failures[symbol]; ok {
		return nil, err
	}
	if left, ok := f.failuresLeft[symbol]; ok && left > 0 {
		f.failuresLeft[symbol] = left - 1
		return nil, f.transientErr
	}
	return f.bars[symbol], nil
}

// fakePriceRepo records upserts in memory.
type fakePriceRepo struct {
	mu   sync.Mutex
	rows map[string]contracts.PriceBar
}

func priceKey(symbol string, date time.Time) string {
	return symbol + "|" + date.Format("2006-01-02")
}

func (f *fakePriceRepo) Upsert(_ context.Context, bar *contracts.PriceBar) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows == nil {
		f.rows = make(map[string]contracts.PriceBar)
	}
	key := priceKey(bar.Symbol, bar.TradeDate)
	_, exists := f.rows[key]
	f.rows[key] = *bar
	return !exists, nil
}

func (f *fakePriceRepo) UpsertBatch(ctx context.Context, bars []contracts.PriceBar) (int, int, error) {
	inserted, updated := 0, 0
	for i := range bars {
		fresh, err := f.Upsert(ctx, &bars[i])
		if err != nil {
			return inserted, updated, err
		}
		if fresh {
			inserted++
		} else {
			updated++
		}
	}
	return inserted, updated, nil
}

func (f *fakePriceRepo) FetchHistory(context.Context, string, time.Time, int) ([]contracts.PriceBar, error) {
	return nil, nil
}

func (f *fakePriceRepo) GetByDate(context.Context, string, time.Time) (*contracts.PriceBar, error) {
	return nil, contracts.ErrNotFound
}

func (f *fakePriceRepo) GetLatest(context.Context, string) (*contracts.PriceBar, error) {
	return nil, contracts.ErrNotFound
}

type fakeFlowSource struct {
	flows []contracts.InstitutionalFlow
	err   error
}

func (f *fakeFlowSource) FetchInstitutionalFlow(context.Context, time.Time) ([]contracts.InstitutionalFlow, error) {
	return f.flows, f.err
}

type fakeFlowRepo struct {
	rows []contracts.InstitutionalFlow
}

func (f *fakeFlowRepo) UpsertBatch(_ context.Context, flows []contracts.InstitutionalFlow) (int, int, error) {
	f.rows = append(f.rows, flows...)
	return len(flows), 0, nil
}

func (f *fakeFlowRepo) GetByDate(context.Context, string, time.Time) (*contracts.InstitutionalFlow, error) {
	return nil, contracts.ErrNotFound
}

func (f *fakeFlowRepo) GetRange(context.Context, string, time.Time, time.Time) ([]contracts.InstitutionalFlow, error) {
	return nil, nil
}

type fakeMarginSource struct{}

func (fakeMarginSource) FetchMarginBalances(context.Context, time.Time) ([]contracts.MarginBalance, error) {
	return nil, nil
}

type fakeMarginRepo struct{}

func (fakeMarginRepo) UpsertBatch(_ context.Context, balances []contracts.MarginBalance) (int, int, error) {
	return len(balances), 0, nil
}

func (fakeMarginRepo) GetByDate(context.Context, string, time.Time) (*contracts.MarginBalance, error) {
	return nil, contracts.ErrNotFound
}

type fakeFundamentalSource struct{}

func (fakeFundamentalSource) FetchFinancialStatements(context.Context, string) ([]contracts.FinancialStatement, error) {
	return nil, nil
}

type fakeFinancialRepo struct{}

func (fakeFinancialRepo) Upsert(context.Context, *contracts.FinancialStatement) error { return nil }

func (fakeFinancialRepo) GetLatest(context.Context, string) (*contracts.FinancialStatement, error) {
	return nil, contracts.ErrNotFound
}

func testConfig() *config.Config {
	cfg := &config.Config{LogLevel: "error", LogFormat: "console"}
	cfg.Pipeline.Workers = 4
	cfg.Pipeline.MaxRetries = 3
	cfg.Pipeline.RetryDelay = time.Millisecond
	cfg.Pipeline.MaxRetryDelay = 5 * time.Millisecond
	return cfg
}

func newTestCoordinator(priceSource contracts.PriceSource, flowSource contracts.FlowSource, priceRepo contracts.PriceRepository, flowRepo contracts.FlowRepository) *Coordinator {
	cfg := testConfig()
	return NewCoordinator(
		priceSource, flowSource, fakeMarginSource{}, fakeFundamentalSource{},
		priceRepo, flowRepo, fakeMarginRepo{}, fakeFinancialRepo{},
		cfg, logger.New(cfg),
	)
}

func makeSymbols(n int) []contracts.Symbol {
	symbols := make([]contracts.Symbol, n)
	for i := range symbols {
		symbols[i] = contracts.Symbol{Symbol: fmt.Sprintf("%04d", 1000+i), IsActive: true}
	}
	return symbols
}

func validBar(symbol string, date time.Time) contracts.PriceBar {
	return contracts.PriceBar{
		Symbol: symbol, TradeDate: date,
		Open: 100, High: 101, Low: 99, Close: 100, AdjClose: 100,
		Volume: 1000, Turnover: 100000,
	}
}

func TestIngestPricesIsolatesFailingSymbols(t *testing.T) {
	symbols := makeSymbols(100)
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	source := &fakePriceSource{
		bars: make(map[string][]contracts.PriceBar),
		failures: map[string]error{
			"1003": contracts.ErrSourceUnavailable,
			"1047": contracts.ErrSourceUnavailable,
			"1091": contracts.ErrSourceUnavailable,
		},
	}
	for _, s := range symbols {
		source.bars[s.Symbol] = []contracts.PriceBar{validBar(s.Symbol, date)}
	}

	repo := &fakePriceRepo{}
	coordinator := newTestCoordinator(source, &fakeFlowSource{}, repo, &fakeFlowRepo{})

	result, err := coordinator.IngestPrices(context.Background(), symbols, date, date)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Failed)
	assert.Equal(t, 97, result.Inserted)
	assert.Len(t, result.UpdatedSymbols, 97, "healthy symbols all got fresh rows")
	assert.Len(t, repo.rows, 97)
	assert.NotEmpty(t, result.ErrorSummary())
}

func TestIngestPricesRetriesTransientFailures(t *testing.T) {
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	source := &fakePriceSource{
		bars:         map[string][]contracts.PriceBar{"2330": {validBar("2330", date)}},
		failuresLeft: map[string]int{"2330": 2},
		transientErr: contracts.ErrRateLimited,
	}
	repo := &fakePriceRepo{}
	coordinator := newTestCoordinator(source, &fakeFlowSource{}, repo, &fakeFlowRepo{})

	result, err := coordinator.IngestPrices(context.Background(),
		[]contracts.Symbol{{Symbol: "2330"}}, date, date)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Failed, "retries absorbed the transient failures")
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 3, source.calls["2330"], "two failures plus the success")
}

func TestIngestPricesDoesNotRetryParseErrors(t *testing.T) {
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	source := &fakePriceSource{
		failures: map[string]error{"2330": contracts.ErrParse},
	}
	coordinator := newTestCoordinator(source, &fakeFlowSource{}, &fakePriceRepo{}, &fakeFlowRepo{})

	result, err := coordinator.IngestPrices(context.Background(),
		[]contracts.Symbol{{Symbol: "2330"}}, date, date)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, source.calls["2330"], "permanent failures burn one attempt")
}

func TestIngestPricesRejectsInvalidBars(t *testing.T) {
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	broken := validBar("2330", date)
	broken.Low = 200 // above high

	source := &fakePriceSource{
		bars: map[string][]contracts.PriceBar{
			"2330": {validBar("2330", date.AddDate(0, 0, -1)), broken},
		},
	}
	repo := &fakePriceRepo{}
	coordinator := newTestCoordinator(source, &fakeFlowSource{}, repo, &fakeFlowRepo{})

	result, err := coordinator.IngestPrices(context.Background(),
		[]contracts.Symbol{{Symbol: "2330"}}, date.AddDate(0, 0, -1), date)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed, "invalid bar counted as a record failure")
	assert.Equal(t, 1, result.Inserted, "valid bar still stored")
	assert.Len(t, repo.rows, 1)
}

func TestIngestFlowsFiltersUnknownSymbols(t *testing.T) {
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	source := &fakeFlowSource{flows: []contracts.InstitutionalFlow{
		{Symbol: "2330", TradeDate: date, TotalNet: 100},
		{Symbol: "8888", TradeDate: date, TotalNet: 200}, // not in universe
	}}
	flowRepo := &fakeFlowRepo{}
	coordinator := newTestCoordinator(&fakePriceSource{}, source, &fakePriceRepo{}, flowRepo)

	result, err := coordinator.IngestFlows(context.Background(),
		[]contracts.Symbol{{Symbol: "2330"}}, date)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Inserted)
	require.Len(t, flowRepo.rows, 1)
	assert.Equal(t, "2330", flowRepo.rows[0].Symbol)
}

func TestIngestFlowsPropagatesSourceFailure(t *testing.T) {
	source := &fakeFlowSource{err: contracts.ErrSourceUnavailable}
	coordinator := newTestCoordinator(&fakePriceSource{}, source, &fakePriceRepo{}, &fakeFlowRepo{})

	_, err := coordinator.IngestFlows(context.Background(),
		[]contracts.Symbol{{Symbol: "2330"}}, time.Now())
	assert.ErrorIs(t, err, contracts.ErrSourceUnavailable)
}

func TestErrorSummaryCapped(t *testing.T) {
	result := &Result{}
	for i := 0; i < 25; i++ {
		result.Errors = append(result.Errors, SymbolError{
			Symbol: fmt.Sprintf("%04d", i), Err: contracts.ErrSourceUnavailable,
		})
	}

	summary := result.ErrorSummary()
	assert.Contains(t, summary, "and 15 more")
}
