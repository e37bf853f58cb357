package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
	"github.com/couchcryptid/airmen-search-service/internal/observability"
	"github.com/couchcryptid/airmen-search-service/internal/pipeline"
)

// --- mocks ---

type memSource struct {
	basics  []domain.BasicRow
	certs   []domain.CertRow
	missing []string
}

func (s *memSource) Missing() []string { return s.missing }

func (s *memSource) ScanBasic(fn func(domain.BasicRow) error) error {
	for _, r := range s.basics {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *memSource) ScanCerts(fn func(domain.CertRow) error) error {
	for _, r := range s.certs {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

type mockStore struct {
	mu      sync.Mutex
	airmen  map[string]domain.Airman
	meta    *domain.ImportMeta
	calls   int
	err     error
	slowIDs map[string]time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{airmen: make(map[string]domain.Airman)}
}

func (s *mockStore) ReplaceAirmen(ctx context.Context, airmen []domain.Airman) error {
	for _, a := range airmen {
		if d, ok := s.slowIDs[a.UniqueID+"|"+a.State]; ok {
			time.Sleep(d)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, a := range airmen {
		s.airmen[a.UniqueID] = a
	}
	return nil
}

func (s *mockStore) PutImportMeta(_ context.Context, m domain.ImportMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = &m
	return nil
}

type mockPublisher struct {
	mu      sync.Mutex
	batches [][]domain.Airman
	err     error
}

func (p *mockPublisher) Publish(_ context.Context, airmen []domain.Airman) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, airmen)
	return p.err
}

// --- fixtures ---

var fixedTime = time.Date(2025, time.February, 3, 4, 5, 6, 0, time.UTC)

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(fixedTime))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixtureSource() *memSource {
	return &memSource{
		basics: []domain.BasicRow{
			{UniqueID: "A0000001", FirstMiddleName: "JANE ANN", LastNameSuffix: "DOE", City: "ORLANDO", State: "FL", MedicalDate: "032024"},
			{UniqueID: "A0000002", FirstMiddleName: "JOHN", LastNameSuffix: "ROE SR", City: "TAMPA", State: "fl", MedicalDate: "992024"},
			{UniqueID: "  ", FirstMiddleName: "NO", LastNameSuffix: "ID"},
			{UniqueID: "A0000003", FirstMiddleName: "SAM", LastNameSuffix: "POE", City: "ATLANTA", State: "GA"},
		},
		certs: []domain.CertRow{
			{UniqueID: "A0000001", CertificateType: "P", CertificateLevel: "C", Ratings: "C/ASEL C/AMEL C/INST", TypeRatings: "C/CE-525S"},
			{UniqueID: "A0000001", CertificateType: "F", CertificateExpireDate: "01312026", Ratings: "F/ASE     G/CFI     "},
			{UniqueID: "A0000002", CertificateType: "P", CertificateLevel: "P", Ratings: "P/ASEL"},
			{UniqueID: "ZZZ", CertificateType: "P", CertificateLevel: "A"},
		},
	}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	freezeClock(t)
	store := newMockStore()
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(fixtureSource(), store, nil, discardLogger(), metrics, 1000, 2)

	require.Error(t, p.CheckReadiness(context.Background()))

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Persons)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Anomalies, "MEDICAL DATE 992024")
	assert.Equal(t, 1, summary.Batches)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, fixedTime, summary.StartedAt)

	jane := store.airmen["A0000001"]
	assert.Equal(t, "JANE", jane.FirstName)
	assert.Equal(t, []string{"C"}, jane.CertificateLevels)
	assert.True(t, jane.HasInstrument)
	assert.True(t, jane.HasMultiEngine)
	assert.True(t, jane.HasJet)
	assert.Len(t, jane.Certificates, 2)
	assert.Equal(t, []string{"ASEL", "AMEL", "INST", "ASE", "CFI"}, jane.RatingCodes())
	assert.Equal(t, []string{"CE-525S"}, jane.TypeCodes())
	assert.Equal(t, fixedTime, jane.IngestedAt)

	john := store.airmen["A0000002"]
	assert.Equal(t, "FL", john.State)
	assert.Nil(t, john.MedicalDate)
	assert.False(t, john.HasJet)

	sam := store.airmen["A0000003"]
	assert.Empty(t, sam.Certificates)
	assert.Empty(t, sam.CertificateLevels)

	_, orphan := store.airmen["ZZZ"]
	assert.False(t, orphan, "certificate rows without a person row create nothing")

	require.NotNil(t, store.meta)
	assert.Equal(t, summary.RunID, store.meta.RunID)
	assert.Equal(t, 3, store.meta.Persons)
	assert.Equal(t, 1, store.meta.Skipped)

	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 3.0, testutil.ToFloat64(metrics.PersonsIngested), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.RowsSkipped.WithLabelValues("missing_unique_id")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.FieldAnomalies.WithLabelValues("MEDICAL DATE")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.FactsWritten.WithLabelValues("type_rating")), 0)
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.ImportRunning), 0)
}

func TestPipeline_Run_MissingExtract(t *testing.T) {
	src := fixtureSource()
	src.missing = []string{"/data/PILOT_CERT.csv"}
	store := newMockStore()
	p := pipeline.New(src, store, nil, discardLogger(), observability.NewMetricsForTesting(), 10, 1)

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, pipeline.ErrMissingExtract)
	assert.Contains(t, err.Error(), "PILOT_CERT.csv")
	assert.Zero(t, store.calls)
	assert.Nil(t, store.meta)
}

func TestPipeline_Run_BatchSizeDoesNotChangeResult(t *testing.T) {
	freezeClock(t)

	run := func(batchSize, workers int) map[string]domain.Airman {
		store := newMockStore()
		p := pipeline.New(fixtureSource(), store, nil, discardLogger(), observability.NewMetricsForTesting(), batchSize, workers)
		_, err := p.Run(context.Background())
		require.NoError(t, err)
		return store.airmen
	}

	want := run(1000, 1)
	for _, cfg := range [][2]int{{1, 1}, {1, 4}, {2, 3}} {
		if diff := cmp.Diff(want, run(cfg[0], cfg[1])); diff != "" {
			t.Fatalf("batch=%d workers=%d mismatch (-want +got):\n%s", cfg[0], cfg[1], diff)
		}
	}
}

func TestPipeline_Run_ReingestIsIdempotent(t *testing.T) {
	freezeClock(t)
	store := newMockStore()
	p := pipeline.New(fixtureSource(), store, nil, discardLogger(), observability.NewMetricsForTesting(), 2, 2)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	first := make(map[string]domain.Airman, len(store.airmen))
	for k, v := range store.airmen {
		first[k] = v
	}

	_, err = p.Run(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(first, store.airmen); diff != "" {
		t.Fatalf("re-ingest changed records (-first +second):\n%s", diff)
	}
	assert.Len(t, store.airmen["A0000001"].Ratings, 5, "facts never accumulate")
}

func TestPipeline_Run_LaterDuplicateWins(t *testing.T) {
	src := &memSource{basics: []domain.BasicRow{
		{UniqueID: "A1", State: "FL"},
		{UniqueID: "B1", State: "GA"},
		{UniqueID: "A1", State: "TX"},
		{UniqueID: "C1", State: "NY"},
		{UniqueID: "C1", State: "NJ"},
	}}
	store := newMockStore()
	// Slow down the first write for A1 so an unordered run would let the
	// later row land first.
	store.slowIDs = map[string]time.Duration{"A1|FL": 50 * time.Millisecond}

	p := pipeline.New(src, store, nil, discardLogger(), observability.NewMetricsForTesting(), 1, 4)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "TX", store.airmen["A1"].State)
	assert.Equal(t, "NJ", store.airmen["C1"].State)
	assert.Equal(t, 5, summary.Persons, "each dispatched row is written")
}

func TestPipeline_Run_DuplicateWithinBatch(t *testing.T) {
	src := &memSource{basics: []domain.BasicRow{
		{UniqueID: "A1", State: "FL"},
		{UniqueID: " A1 ", State: "TX"},
	}}
	store := newMockStore()
	p := pipeline.New(src, store, nil, discardLogger(), observability.NewMetricsForTesting(), 10, 1)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Persons)
	assert.Equal(t, "TX", store.airmen["A1"].State)
}

func TestPipeline_Run_StoreErrorAborts(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("disk full")
	p := pipeline.New(fixtureSource(), store, nil, discardLogger(), observability.NewMetricsForTesting(), 1, 2)

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, store.err)
	assert.Nil(t, store.meta)
	require.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_PublishesEachBatch(t *testing.T) {
	store := newMockStore()
	pub := &mockPublisher{err: errors.New("broker down")}
	p := pipeline.New(fixtureSource(), store, pub, discardLogger(), observability.NewMetricsForTesting(), 2, 1)

	summary, err := p.Run(context.Background())
	require.NoError(t, err, "publish failures never fail the import")

	total := 0
	for _, b := range pub.batches {
		total += len(b)
	}
	assert.Equal(t, summary.Persons, total)
	assert.Len(t, pub.batches, summary.Batches)
}

func TestPipeline_Run_CancelledContext(t *testing.T) {
	store := newMockStore()
	p := pipeline.New(fixtureSource(), store, nil, discardLogger(), observability.NewMetricsForTesting(), 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, store.meta)
}
