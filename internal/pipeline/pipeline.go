// Package pipeline ingests the FAA airmen extracts into the record store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
	"github.com/couchcryptid/airmen-search-service/internal/observability"
)

// ErrMissingExtract is returned when a required extract file is absent.
// Nothing has been written when it is returned.
var ErrMissingExtract = errors.New("missing required extract")

// Source provides the two correlated extracts.
type Source interface {
	Missing() []string
	ScanBasic(fn func(domain.BasicRow) error) error
	ScanCerts(fn func(domain.CertRow) error) error
}

// Store persists normalized airmen.
type Store interface {
	ReplaceAirmen(ctx context.Context, airmen []domain.Airman) error
	PutImportMeta(ctx context.Context, m domain.ImportMeta) error
}

// Publisher forwards each written batch downstream.
type Publisher interface {
	Publish(ctx context.Context, airmen []domain.Airman) error
}

// Summary reports the outcome of one import run.
type Summary struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Persons    int       `json:"persons"`
	Skipped    int       `json:"skipped"`
	Anomalies  int       `json:"anomalies"`
	Batches    int       `json:"batches"`
}

// Pipeline joins the person extract with the certificate extract and
// replaces each person's record wholesale.
type Pipeline struct {
	source    Source
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int
	workers   int
	ready     atomic.Bool
}

// New creates a Pipeline. publisher may be nil.
func New(source Source, store Store, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, batchSize, workers int) *Pipeline {
	if batchSize < 1 {
		batchSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		source:    source,
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
		workers:   workers,
	}
}

// CheckReadiness returns nil once an import has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no import has completed yet")
	}
	return nil
}

// run holds the mutable state of one import.
type run struct {
	id       string
	index    map[string][]domain.CertRow
	persons  atomic.Int64
	skipped  atomic.Int64
	anomaly  atomic.Int64
	batches  atomic.Int64
	errOnce  sync.Once
	firstErr error
	cancel   context.CancelFunc
}

func (r *run) fail(err error) {
	r.errOnce.Do(func() {
		r.firstErr = err
		r.cancel()
	})
}

// Run imports both extracts. Batches are written in parallel, but a person
// appearing in more than one batch is never written by two workers at once
// and the later row always wins.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	started := domain.Now()
	if missing := p.source.Missing(); len(missing) > 0 {
		return Summary{}, fmt.Errorf("%w: %s", ErrMissingExtract, strings.Join(missing, ", "))
	}

	p.metrics.ImportRunning.Set(1)
	defer p.metrics.ImportRunning.Set(0)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r := &run{id: uuid.NewString(), cancel: cancel}
	logger := p.logger.With("run_id", r.id)

	index, certRows, err := p.buildIndex()
	if err != nil {
		return Summary{}, fmt.Errorf("read certificate extract: %w", err)
	}
	r.index = index
	logger.Info("import started",
		"certificate_rows", certRows,
		"persons_with_certificates", len(index),
		"batch_size", p.batchSize,
		"workers", p.workers,
	)

	pool, err := ants.NewPool(p.workers)
	if err != nil {
		return Summary{}, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	inflight := make(idSet)
	batch := newBatch(p.batchSize)

	dispatch := func() error {
		if batch.len() == 0 {
			return nil
		}
		rows := batch.rows()
		if inflight.overlaps(rows) {
			wg.Wait()
			clear(inflight)
		}
		for _, row := range rows {
			if id := joinKey(row); id != "" {
				inflight[id] = struct{}{}
			}
		}
		batch = newBatch(p.batchSize)

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := p.processBatch(ctx, r, logger, rows); err != nil {
				r.fail(err)
			}
		})
		if err != nil {
			wg.Done()
			return err
		}
		return nil
	}

	scanErr := p.source.ScanBasic(func(row domain.BasicRow) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch.add(row)
		if batch.len() >= p.batchSize {
			return dispatch()
		}
		return nil
	})
	if scanErr == nil {
		scanErr = dispatch()
	}
	wg.Wait()

	if r.firstErr != nil {
		return Summary{}, r.firstErr
	}
	if scanErr != nil {
		return Summary{}, fmt.Errorf("read person extract: %w", scanErr)
	}

	summary := Summary{
		RunID:      r.id,
		StartedAt:  started,
		FinishedAt: domain.Now(),
		Persons:    int(r.persons.Load()),
		Skipped:    int(r.skipped.Load()),
		Anomalies:  int(r.anomaly.Load()),
		Batches:    int(r.batches.Load()),
	}
	meta := domain.ImportMeta{
		RunID:      summary.RunID,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Persons:    summary.Persons,
		Skipped:    summary.Skipped,
	}
	if err := p.store.PutImportMeta(ctx, meta); err != nil {
		return summary, fmt.Errorf("write import metadata: %w", err)
	}

	p.ready.Store(true)
	logger.Info("import complete",
		"persons", summary.Persons,
		"skipped", summary.Skipped,
		"anomalies", summary.Anomalies,
		"batches", summary.Batches,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)
	return summary, nil
}

// buildIndex groups certificate rows by join key, preserving file order.
func (p *Pipeline) buildIndex() (map[string][]domain.CertRow, int, error) {
	index := make(map[string][]domain.CertRow)
	n := 0
	err := p.source.ScanCerts(func(row domain.CertRow) error {
		n++
		id := strings.TrimSpace(row.UniqueID)
		if id == "" {
			return nil
		}
		index[id] = append(index[id], row)
		return nil
	})
	return index, n, err
}

// processBatch normalizes and writes one batch. Skipped rows are logged
// and counted; only a store failure is returned.
func (p *Pipeline) processBatch(ctx context.Context, r *run, logger *slog.Logger, rows []domain.BasicRow) error {
	start := time.Now()
	now := domain.Now()

	airmen := make([]domain.Airman, 0, len(rows))
	for _, row := range rows {
		res := domain.NormalizeRow(row, r.index[joinKey(row)])
		if res.Outcome == domain.RowSkipped {
			r.skipped.Add(1)
			p.metrics.RowsSkipped.WithLabelValues(skipLabel(res.Reason)).Inc()
			logger.Warn("row skipped", "unique_id", row.UniqueID, "reason", res.Reason)
			continue
		}
		for _, an := range res.Anomalies {
			r.anomaly.Add(1)
			p.metrics.FieldAnomalies.WithLabelValues(an.Field).Inc()
			logger.Warn("field treated as absent",
				"unique_id", res.Airman.UniqueID,
				"field", an.Field,
				"value", an.Value,
				"error", an.Err,
			)
		}
		a := res.Airman
		a.IngestedAt = now
		airmen = append(airmen, a)
	}

	if len(airmen) == 0 {
		return nil
	}
	if err := p.store.ReplaceAirmen(ctx, airmen); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}

	r.persons.Add(int64(len(airmen)))
	r.batches.Add(1)
	p.metrics.PersonsIngested.Add(float64(len(airmen)))
	p.countFacts(airmen)
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, airmen); err != nil {
			logger.Warn("publish batch failed", "persons", len(airmen), "error", err)
		}
	}
	return nil
}

func (p *Pipeline) countFacts(airmen []domain.Airman) {
	var certs, ratings, types int
	for i := range airmen {
		certs += len(airmen[i].Certificates)
		ratings += len(airmen[i].Ratings)
		types += len(airmen[i].TypeRatings)
	}
	p.metrics.FactsWritten.WithLabelValues("certificate").Add(float64(certs))
	p.metrics.FactsWritten.WithLabelValues("rating").Add(float64(ratings))
	p.metrics.FactsWritten.WithLabelValues("type_rating").Add(float64(types))
}

func skipLabel(reason string) string {
	if strings.HasPrefix(reason, "panic") {
		return "panic"
	}
	return strings.ReplaceAll(reason, " ", "_")
}

func joinKey(row domain.BasicRow) string {
	return strings.TrimSpace(row.UniqueID)
}
