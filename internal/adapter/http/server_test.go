package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/airmen-search-service/internal/adapter/http"
	"github.com/couchcryptid/airmen-search-service/internal/aircraft"
	"github.com/couchcryptid/airmen-search-service/internal/domain"
	"github.com/couchcryptid/airmen-search-service/internal/search"
)

// --- mocks ---

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockSearcher struct {
	last  search.Query
	calls int
	resp  search.Response
	err   error
}

func (m *mockSearcher) Search(_ context.Context, q search.Query) (search.Response, error) {
	m.calls++
	m.last = q
	return m.resp, m.err
}

type mockMeta struct {
	meta domain.ImportMeta
	err  error
}

func (m *mockMeta) GetImportMeta(context.Context) (domain.ImportMeta, error) { return m.meta, m.err }

type fixedExtracts time.Time

func (f fixedExtracts) LastModified() time.Time { return time.Time(f) }

// --- fixtures ---

type fixture struct {
	searcher *mockSearcher
	meta     *mockMeta
	deps     httpadapter.Deps
}

func newFixture() *fixture {
	f := &fixture{
		searcher: &mockSearcher{resp: search.Response{Results: []search.Result{}, TypeCodes: []string{}}},
		meta:     &mockMeta{err: domain.ErrNotFound},
	}
	f.deps = httpadapter.Deps{
		Searcher:  f.searcher,
		Suggester: aircraft.New([]aircraft.Entry{{Needle: "citation m2", Codes: []string{"CE-525S"}}}),
		Meta:      f.meta,
		Ready:     &mockReadiness{},
	}
	return f
}

func (f *fixture) do(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	srv := httpadapter.NewServer(":0", f.deps, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// --- probes ---

func TestHealthzReturns200(t *testing.T) {
	rec := newFixture().do(t, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := newFixture().do(t, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	f := newFixture()
	f.deps.Ready = &mockReadiness{err: fmt.Errorf("no import yet")}
	rec := f.do(t, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := newFixture().do(t, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- search ---

func TestSearch_ParsesQuery(t *testing.T) {
	f := newFixture()
	f.searcher.resp = search.Response{
		Results:    []search.Result{{UniqueID: "A1", Name: "JANE DOE"}},
		TypeCodes:  []string{"CE-525S", "CE-525"},
		GeoApplied: true,
	}

	rec := f.do(t, "/api/search?aircraft=Citation+M2&state=fl&city=Orlando&radiusMi=25&minLevel=a&instrument=false")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, search.Query{
		Aircraft: "Citation M2", State: "FL", City: "Orlando", RadiusMi: 25,
		MinLevel: "A", Instrument: false, Multi: true,
	}, f.searcher.last)

	body := decode(t, rec)
	assert.Equal(t, true, body["geoApplied"])
	assert.Equal(t, []any{"CE-525S", "CE-525"}, body["typeCodes"])
	results := body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "A1", results[0].(map[string]any)["uniqueId"])
}

func TestSearch_InvalidQueryReturns400(t *testing.T) {
	f := newFixture()
	rec := f.do(t, "/api/search?state=Florida")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "state")
	assert.Zero(t, f.searcher.calls)
}

func TestSearch_EngineErrorReturns500(t *testing.T) {
	f := newFixture()
	f.searcher.err = errors.New("store closed")
	rec := f.do(t, "/api/search")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "search failed", decode(t, rec)["error"])
}

// --- suggest ---

func TestSuggest(t *testing.T) {
	rec := newFixture().do(t, "/api/suggest?q=m2")
	require.Equal(t, http.StatusOK, rec.Code)

	suggestions := decode(t, rec)["suggestions"].([]any)
	require.NotEmpty(t, suggestions)
	first := suggestions[0].(map[string]any)
	assert.Equal(t, "citation m2", first["label"])
	assert.Equal(t, []any{"CE-525S"}, first["codes"])
}

// --- meta ---

func TestMeta_NoImportYet(t *testing.T) {
	rec := newFixture().do(t, "/api/meta")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Nil(t, body["lastImport"])
	assert.Nil(t, body["lastModifiedMs"])
}

func TestMeta_WithImportAndExtracts(t *testing.T) {
	f := newFixture()
	finished := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	f.meta.err = nil
	f.meta.meta = domain.ImportMeta{RunID: "run-1", FinishedAt: finished, Persons: 42}
	modified := time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC)
	f.deps.Extracts = fixedExtracts(modified)

	rec := f.do(t, "/api/meta")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	last := body["lastImport"].(map[string]any)
	assert.Equal(t, "run-1", last["runId"])
	assert.InDelta(t, 42, last["persons"], 0)
	assert.InDelta(t, float64(modified.UnixMilli()), body["lastModifiedMs"], 0)
}

func TestMeta_StoreErrorReturns500(t *testing.T) {
	f := newFixture()
	f.meta.err = errors.New("io error")
	rec := f.do(t, "/api/meta")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
