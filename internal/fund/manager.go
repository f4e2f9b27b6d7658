// Package fund runs the configured funds as independent jobs and keeps the
// run manifest.
package fund

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ConcentrationPanel/internal/config"
	"ConcentrationPanel/internal/model"
	"ConcentrationPanel/internal/pipeline"
	"ConcentrationPanel/internal/recorder"
	"ConcentrationPanel/internal/report"
	"ConcentrationPanel/internal/source"
)

// Outcome is the result of one fund in one run. Err is set when the fund
// failed; the other funds of the run are unaffected.
type Outcome struct {
	Fund     string
	Result   *pipeline.Result
	Files    []string
	Err      error
	Duration time.Duration
}

// RunSummary collects the outcomes of one run in configuration order.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
}

// Failed returns the number of funds that did not produce a result.
func (s *RunSummary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Manager runs fund jobs in parallel with concurrency safety.
type Manager struct {
	cfg      *config.Config
	fetcher  source.PriceFetcher
	writer   *report.Writer
	recorder recorder.Recorder

	mu        sync.Mutex
	state     *RunState
	statePath string
}

// NewManager creates a Manager, loading the run manifest from disk.
// fetcher may be nil when every fund reads prices from a file.
func NewManager(cfg *config.Config, fetcher source.PriceFetcher, writer *report.Writer, rec recorder.Recorder) (*Manager, error) {
	state, err := LoadState(cfg.StateFile)
	if err != nil {
		return nil, fmt.Errorf("load run state: %w", err)
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Manager{
		cfg:       cfg,
		fetcher:   fetcher,
		writer:    writer,
		recorder:  rec,
		state:     state,
		statePath: cfg.StateFile,
	}, nil
}

// GetState returns a copy of the current run manifest.
func (m *Manager) GetState() RunState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := *m.state
	st.Funds = make(map[string]FundState, len(m.state.Funds))
	for k, v := range m.state.Funds {
		st.Funds[k] = v
	}
	return st
}

// RunAll runs every configured fund, at most cfg.Workers at a time. A failing
// fund never cancels the others; a cancelled ctx stops funds not yet started.
func (m *Manager) RunAll(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Outcomes:  make([]Outcome, len(m.cfg.Funds)),
	}
	log.Printf("[INFO] run %s: %d funds, %d workers", summary.RunID, len(m.cfg.Funds), m.cfg.Workers)

	var g errgroup.Group
	g.SetLimit(m.cfg.Workers)
	for i, fc := range m.cfg.Funds {
		i, fc := i, fc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				summary.Outcomes[i] = Outcome{Fund: fc.Name, Err: err}
				return nil
			}
			summary.Outcomes[i] = m.runFund(ctx, summary.RunID, fc)
			return nil
		})
	}
	g.Wait()
	summary.FinishedAt = time.Now()

	m.mu.Lock()
	m.state.LastRunID = summary.RunID
	m.state.LastRunAt = summary.StartedAt
	for _, o := range summary.Outcomes {
		m.state.Funds[o.Fund] = fundState(summary.RunID, o, m.state.Funds[o.Fund])
	}
	err := SaveState(m.statePath, m.state)
	m.mu.Unlock()
	if err != nil {
		log.Printf("[ERROR] failed to save run state: %v", err)
	}

	log.Printf("[INFO] run %s finished in %s: %d ok, %d failed",
		summary.RunID, summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond),
		len(summary.Outcomes)-summary.Failed(), summary.Failed())
	if failed := summary.Failed(); failed == len(summary.Outcomes) && failed > 0 {
		return summary, errors.New("every fund failed")
	}
	return summary, nil
}

func (m *Manager) runFund(ctx context.Context, runID string, fc config.FundConfig) Outcome {
	start := time.Now()
	out := Outcome{Fund: fc.Name}
	out.Result, out.Files, out.Err = m.processIsolated(ctx, fc)
	out.Duration = time.Since(start)

	if out.Err != nil {
		log.Printf("[ERROR] %s: %v", fc.Name, out.Err)
	} else {
		log.Printf("[INFO] %s: done in %s, %s periods", fc.Name,
			out.Duration.Round(time.Millisecond), humanize.Comma(int64(len(out.Result.Records))))
	}

	snap := &recorder.RunSnapshot{RunID: runID, Fund: fc.Name, StartedAt: start, Result: out.Result, Err: out.Err}
	if err := m.recorder.RecordRun(snap); err != nil {
		log.Printf("[ERROR] %s: failed to record run: %v", fc.Name, err)
	}
	return out
}

// processIsolated turns a panic in one fund into that fund's error.
func (m *Manager) processIsolated(ctx context.Context, fc config.FundConfig) (res *pipeline.Result, files []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, files, err = nil, nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return m.process(ctx, fc)
}

func (m *Manager) process(ctx context.Context, fc config.FundConfig) (*pipeline.Result, []string, error) {
	skip := 0
	if m.cfg.Holdings.SkipRows != nil {
		skip = *m.cfg.Holdings.SkipRows
	}
	opts := source.Options{
		SkipRows:  skip,
		Encodings: m.cfg.Holdings.Encodings,
		Sheet:     fc.HoldingsSheet,
		HasAmount: fc.AmountColumn(),
	}
	holdings, err := source.ReadHoldings(fc.HoldingsPath, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("holdings: %w", err)
	}

	prices, err := m.loadPrices(ctx, fc, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("prices: %w", err)
	}

	res, err := pipeline.Run(fc.Name, holdings, prices, pipeline.Options{
		Range:        m.cfg.PeriodRange(),
		TopN:         m.cfg.Holdings.TopN,
		SentinelCode: m.cfg.Holdings.SentinelCode,
		HasAmount:    fc.AmountColumn(),
	})
	if err != nil {
		return nil, nil, err
	}

	files, err := m.writer.WriteResult(res)
	if err != nil {
		return res, files, fmt.Errorf("write report: %w", err)
	}
	return res, files, nil
}

func (m *Manager) loadPrices(ctx context.Context, fc config.FundConfig, opts source.Options) ([]model.RawPriceRow, error) {
	if fc.PricesPath != "" {
		return source.ReadPrices(fc.PricesPath, source.Options{SkipRows: opts.SkipRows, Encodings: opts.Encodings})
	}
	if m.fetcher == nil {
		return nil, fmt.Errorf("no price fetcher for symbol %s", fc.PriceSymbol)
	}
	log.Printf("[INFO] %s: fetching monthly closes of %s from %s", fc.Name, fc.PriceSymbol, m.fetcher.Name())
	return m.fetcher.FetchMonthlyCloses(ctx, fc.PriceSymbol)
}

func fundState(runID string, o Outcome, prev FundState) FundState {
	st := FundState{RunID: runID, Status: recorder.StatusOK, Files: o.Files, LastSuccess: prev.LastSuccess}
	if o.Err != nil {
		st.Status = recorder.StatusFailed
		st.Error = o.Err.Error()
	}
	if o.Result != nil {
		st.Periods = len(o.Result.Records)
		st.Observations = len(o.Result.Panel)
		st.Regressions = len(o.Result.Regressions)
	}
	if o.Err == nil {
		st.LastSuccess = time.Now()
	}
	return st
}
