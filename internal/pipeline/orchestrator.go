package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
	"github.com/jeffhong58/ai-stock-selector/internal/indicator"
	"github.com/jeffhong58/ai-stock-selector/internal/ingest"
	"github.com/jeffhong58/ai-stock-selector/internal/recommend"
	"github.com/jeffhong58/ai-stock-selector/pkg/config"
	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
)

// Ingestor is the slice of the ingestion coordinator the orchestrator
// drives.
type Ingestor interface {
	IngestPrices(ctx context.Context, symbols []contracts.Symbol, from, to time.Time) (*ingest.Result, error)
	IngestFlows(ctx context.Context, symbols []contracts.Symbol, date time.Time) (*ingest.Result, error)
	IngestMargins(ctx context.Context, symbols []contracts.Symbol, date time.Time) (*ingest.Result, error)
	IngestFundamentals(ctx context.Context, symbols []contracts.Symbol) (*ingest.Result, error)
}

// Orchestrator sequences the daily batch: ingest, indicators,
// recommendations, finalize, cleanup. It owns the run state machine
// and the stage barriers; it holds no timing logic of its own and is
// invoked by the scheduler or the CLI.
type Orchestrator struct {
	symbols         contracts.SymbolRepository
	prices          contracts.PriceRepository
	indicators      contracts.IndicatorRepository
	flows           contracts.FlowRepository
	margins         contracts.MarginRepository
	financials      contracts.FinancialRepository
	recommendations contracts.RecommendationRepository
	runs            contracts.RunRepository

	ingestor        Ingestor
	indicatorEngine *indicator.Engine
	recommendEngine *recommend.Engine

	pricePruner PricePruner

	retentionRecommendations int
	retentionRunLogs         int
	retentionPriceYears      int

	// How many calendar days of bars each daily run re-fetches, so
	// short outages self-heal on the next run.
	priceLookbackDays int

	// Flow history window feeding the flow sub-score.
	flowWindowDays int

	logger *logger.Logger
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Symbols         contracts.SymbolRepository
	Prices          contracts.PriceRepository
	Indicators      contracts.IndicatorRepository
	Flows           contracts.FlowRepository
	Margins         contracts.MarginRepository
	Financials      contracts.FinancialRepository
	Recommendations contracts.RecommendationRepository
	Runs            contracts.RunRepository

	Ingestor        Ingestor
	IndicatorEngine *indicator.Engine
	RecommendEngine *recommend.Engine

	// Optional: when set, cleanup drops whole price partitions older
	// than the price retention horizon.
	PricePruner PricePruner
}

// PricePruner drops yearly price partitions older than cutoffYear.
type PricePruner interface {
	DropPartitionsBefore(ctx context.Context, cutoffYear int) (int, error)
}

// New creates an orchestrator.
func New(deps Deps, cfg *config.Config, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		symbols:         deps.Symbols,
		prices:          deps.Prices,
		indicators:      deps.Indicators,
		flows:           deps.Flows,
		margins:         deps.Margins,
		financials:      deps.Financials,
		recommendations: deps.Recommendations,
		runs:            deps.Runs,

		ingestor:        deps.Ingestor,
		indicatorEngine: deps.IndicatorEngine,
		recommendEngine: deps.RecommendEngine,

		pricePruner: deps.PricePruner,

		retentionRecommendations: cfg.Retention.RecommendationDays,
		retentionRunLogs:         cfg.Retention.RunLogDays,
		retentionPriceYears:      cfg.Retention.PriceYears,
		priceLookbackDays:        10,
		flowWindowDays:           10,

		logger: log.WithField("component", "pipeline"),
	}
}

// RunDailyUpdate executes the full daily batch for one trading date.
// The run record moves pending -> processing -> terminal; indicator
// computation waits for the price stage, recommendation generation
// waits for the indicator stage, and retention cleanup always runs
// last regardless of outcome.
func (o *Orchestrator) RunDailyUpdate(ctx context.Context, date time.Time) (*contracts.UpdateRun, error) {
	start := time.Now()
	run := &contracts.UpdateRun{
		RunDate:     date,
		Source:      "daily_update",
		TargetTable: "daily_prices",
		Status:      contracts.RunPending,
		StartedAt:   start.UTC(),
	}
	if err := o.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	defer o.cleanup(ctx, date)

	if err := run.Transition(contracts.RunProcessing); err != nil {
		return run, err
	}
	if err := o.runs.Update(ctx, run); err != nil {
		return run, fmt.Errorf("persist run transition: %w", err)
	}

	symbols, err := o.symbols.GetActive(ctx)
	if err != nil {
		return run, o.fail(ctx, run, start, fmt.Errorf("load active symbols: %w", err))
	}
	if len(symbols) == 0 {
		return run, o.fail(ctx, run, start, errors.New("no active symbols"))
	}

	// Stage 1: source ingestion
	var stageErrors []string
	total := &ingest.Result{}

	priceResult, err := o.ingestor.IngestPrices(ctx, symbols, date.AddDate(0, 0, -o.priceLookbackDays), date)
	if err != nil {
		return run, o.fail(ctx, run, start, fmt.Errorf("price stage: %w", err))
	}
	total.Processed += priceResult.Processed
	total.Inserted += priceResult.Inserted
	total.Updated += priceResult.Updated
	total.Failed += priceResult.Failed
	total.Errors = append(total.Errors, priceResult.Errors...)

	auxStages := []struct {
		name string
		run  func() (*ingest.Result, error)
	}{
		{"flow", func() (*ingest.Result, error) { return o.ingestor.IngestFlows(ctx, symbols, date) }},
		{"margin", func() (*ingest.Result, error) { return o.ingestor.IngestMargins(ctx, symbols, date) }},
	}
	for _, stage := range auxStages {
		result, err := stage.run()
		if err != nil {
			// Missing flow or margin data degrades scoring but does
			// not invalidate the price pipeline
			o.logger.WithError(err).WithField("stage", stage.name).Warn("auxiliary ingestion failed")
			stageErrors = append(stageErrors, fmt.Sprintf("%s: %v", stage.name, err))
			run.Failed++
			continue
		}
		total.Processed += result.Processed
		total.Inserted += result.Inserted
		total.Updated += result.Updated
		total.Failed += result.Failed
	}

	// Stage barrier: indicators only for symbols with a fresh price row
	indicatorFailures := o.computeIndicators(ctx, priceResult.UpdatedSymbols, date)
	total.Failed += indicatorFailures

	// Second barrier: recommendations only after the indicator stage
	if err := o.generateRecommendations(ctx, priceResult.UpdatedSymbols, date, contracts.Categories); err != nil {
		stageErrors = append(stageErrors, fmt.Sprintf("recommendations: %v", err))
		run.Failed++
	}

	run.Processed = total.Processed
	run.Inserted = total.Inserted
	run.Updated = total.Updated
	run.Failed += total.Failed

	summary := total.ErrorSummary()
	if len(stageErrors) > 0 {
		if summary != "" {
			summary += "; "
		}
		summary += strings.Join(stageErrors, "; ")
	}
	run.ErrorSummary = summary

	if err := run.Transition(run.FinalStatus()); err != nil {
		return run, err
	}
	o.finalize(run, start)
	if err := o.runs.Update(ctx, run); err != nil {
		return run, fmt.Errorf("persist run result: %w", err)
	}

	o.logger.WithFields(map[string]interface{}{
		"date":      date.Format("2006-01-02"),
		"status":    string(run.Status),
		"processed": run.Processed,
		"failed":    run.Failed,
		"seconds":   run.ExecutionSeconds,
	}).Info("daily update finished")

	return run, nil
}

// fail drives the run to the failed terminal state and persists it.
func (o *Orchestrator) fail(ctx context.Context, run *contracts.UpdateRun, start time.Time, cause error) error {
	run.ErrorSummary = cause.Error()
	if err := run.Transition(contracts.RunFailed); err != nil {
		o.logger.WithError(err).Error("illegal transition while failing run")
	}
	o.finalize(run, start)
	if err := o.runs.Update(ctx, run); err != nil {
		o.logger.WithError(err).Error("persist failed run")
	}
	return cause
}

func (o *Orchestrator) finalize(run *contracts.UpdateRun, start time.Time) {
	completed := time.Now().UTC()
	run.CompletedAt = &completed
	run.ExecutionSeconds = int(time.Since(start).Seconds())
}

// computeIndicators derives snapshots for every symbol whose price row
// changed. Symbols below the history floor are skipped, not failed:
// newly listed equities legitimately have no snapshot.
func (o *Orchestrator) computeIndicators(ctx context.Context, symbols []string, date time.Time) (failed int) {
	for _, symbol := range symbols {
		history, err := o.prices.FetchHistory(ctx, symbol, date, contracts.MaxHistoryBars)
		if err != nil {
			o.logger.WithError(err).WithField("symbol", symbol).Error("fetch history for indicators")
			failed++
			continue
		}

		snapshot, err := o.indicatorEngine.Compute(history)
		if errors.Is(err, contracts.ErrInsufficientHistory) {
			o.logger.WithField("symbol", symbol).Debug("history below indicator floor")
			continue
		}
		if err != nil {
			failed++
			continue
		}

		if err := o.indicators.Upsert(ctx, snapshot); err != nil {
			o.logger.WithError(err).WithField("symbol", symbol).Error("store indicator snapshot")
			failed++
		}
	}
	return failed
}

// generateRecommendations scores every symbol carrying a snapshot for
// the date and rewrites the ranked lists for the given categories.
func (o *Orchestrator) generateRecommendations(ctx context.Context, symbols []string, date time.Time, categories []contracts.Category) error {
	inputs := make([]recommend.Input, 0, len(symbols))
	for _, symbol := range symbols {
		input, err := o.buildInput(ctx, symbol, date)
		if err != nil {
			if errors.Is(err, contracts.ErrNotFound) {
				// No snapshot for the date: below the history floor
				continue
			}
			return fmt.Errorf("assemble input %s: %w", symbol, err)
		}
		inputs = append(inputs, *input)
	}

	for _, category := range categories {
		recs := o.recommendEngine.Generate(date, category, inputs)
		if len(recs) == 0 {
			continue
		}
		if err := o.recommendations.UpsertBatch(ctx, recs); err != nil {
			return fmt.Errorf("store %s recommendations: %w", category, err)
		}
	}
	return nil
}

// buildInput assembles the scoring context for one symbol. The
// snapshot and bar are mandatory; flow, margin and financial data
// degrade to absent.
func (o *Orchestrator) buildInput(ctx context.Context, symbol string, date time.Time) (*recommend.Input, error) {
	snapshot, err := o.indicators.GetByDate(ctx, symbol, date)
	if err != nil {
		return nil, err
	}
	bar, err := o.prices.GetByDate(ctx, symbol, date)
	if err != nil {
		return nil, err
	}

	input := &recommend.Input{Symbol: symbol, Bar: bar, Snapshot: snapshot}

	if flows, err := o.flows.GetRange(ctx, symbol, date.AddDate(0, 0, -o.flowWindowDays), date); err == nil {
		input.Flows = flows
	}
	if margin, err := o.margins.GetByDate(ctx, symbol, date); err == nil {
		input.Margin = margin
	}
	if financial, err := o.financials.GetLatest(ctx, symbol); err == nil {
		input.Financial = financial
	}

	return input, nil
}

// RunCleanup enforces the retention horizons relative to date, for
// standalone maintenance runs.
func (o *Orchestrator) RunCleanup(ctx context.Context, date time.Time) {
	o.cleanup(ctx, date)
}

// cleanup enforces the retention horizons. It runs after every daily
// update, success or not, and never alters the run outcome.
func (o *Orchestrator) cleanup(ctx context.Context, date time.Time) {
	recCutoff := date.AddDate(0, 0, -o.retentionRecommendations)
	if deleted, err := o.recommendations.DeleteOlderThan(ctx, recCutoff); err != nil {
		o.logger.WithError(err).Error("recommendation retention cleanup")
	} else if deleted > 0 {
		o.logger.WithFields(map[string]interface{}{
			"deleted": deleted,
			"cutoff":  recCutoff.Format("2006-01-02"),
		}).Info("pruned old recommendations")
	}

	logCutoff := date.AddDate(0, 0, -o.retentionRunLogs)
	if deleted, err := o.runs.DeleteOlderThan(ctx, logCutoff); err != nil {
		o.logger.WithError(err).Error("run log retention cleanup")
	} else if deleted > 0 {
		o.logger.WithFields(map[string]interface{}{
			"deleted": deleted,
			"cutoff":  logCutoff.Format("2006-01-02"),
		}).Info("pruned old run logs")
	}

	if o.pricePruner != nil && o.retentionPriceYears > 0 {
		cutoffYear := date.Year() - o.retentionPriceYears
		if dropped, err := o.pricePruner.DropPartitionsBefore(ctx, cutoffYear); err != nil {
			o.logger.WithError(err).Error("price retention cleanup")
		} else if dropped > 0 {
			o.logger.WithFields(map[string]interface{}{
				"partitions":  dropped,
				"cutoff_year": cutoffYear,
			}).Info("dropped old price partitions")
		}
	}
}

// RecomputeIndicators rebuilds snapshots for one symbol across a date
// range from stored bars, for backfills and corrections. Determinism
// of the engine makes this safe to run repeatedly.
func (o *Orchestrator) RecomputeIndicators(ctx context.Context, symbol string, from, to time.Time) (int, error) {
	window := contracts.MaxHistoryBars + int(to.Sub(from).Hours()/24) + 1
	history, err := o.prices.FetchHistory(ctx, symbol, to, window)
	if err != nil {
		return 0, fmt.Errorf("fetch history %s: %w", symbol, err)
	}

	recomputed := 0
	for i := range history {
		barDate := history[i].TradeDate
		if barDate.Before(from) || barDate.After(to) {
			continue
		}

		span := history[:i+1]
		if len(span) > contracts.MaxHistoryBars {
			span = span[len(span)-contracts.MaxHistoryBars:]
		}

		snapshot, err := o.indicatorEngine.Compute(span)
		if errors.Is(err, contracts.ErrInsufficientHistory) {
			continue
		}
		if err != nil {
			return recomputed, err
		}
		if err := o.indicators.Upsert(ctx, snapshot); err != nil {
			return recomputed, fmt.Errorf("store snapshot %s %s: %w",
				symbol, barDate.Format("2006-01-02"), err)
		}
		recomputed++
	}

	o.logger.WithFields(map[string]interface{}{
		"symbol":     symbol,
		"recomputed": recomputed,
	}).Info("indicator recomputation finished")
	return recomputed, nil
}

// RefreshFundamentals re-scrapes quarterly filings for the whole
// universe. Filings move on a quarterly cadence, so this runs on its
// own schedule instead of inside the daily update.
func (o *Orchestrator) RefreshFundamentals(ctx context.Context) (*ingest.Result, error) {
	symbols, err := o.symbols.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active symbols: %w", err)
	}
	return o.ingestor.IngestFundamentals(ctx, symbols)
}

// RegenerateRecommendations rebuilds the ranked lists for one date
// from stored data, without re-ingesting. An empty category means all
// categories.
func (o *Orchestrator) RegenerateRecommendations(ctx context.Context, date time.Time, category contracts.Category) error {
	categories := contracts.Categories
	if category != "" {
		if !category.Valid() {
			return fmt.Errorf("unknown category %q", category)
		}
		categories = []contracts.Category{category}
	}

	symbols, err := o.symbols.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("load active symbols: %w", err)
	}

	names := make([]string, 0, len(symbols))
	for _, s := range symbols {
		names = append(names, s.Symbol)
	}
	return o.generateRecommendations(ctx, names, date, categories)
}
