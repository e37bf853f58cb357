package snapshot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/airmen-search-service/internal/adapter/badger"
	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingScanner struct{ err error }

func (s failingScanner) Scan(context.Context, func(domain.Airman) error) error { return s.err }

func TestExportFile(t *testing.T) {
	store, err := badger.NewMemoryBackend()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	class := 2
	med := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	ingested := time.Date(2025, time.February, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, store.ReplaceAirmen(context.Background(), []domain.Airman{
		{
			UniqueID:          "A0000001",
			FirstName:         "JANE",
			LastName:          "DOE",
			City:              "ORLANDO",
			State:             "FL",
			MedicalClass:      &class,
			MedicalDate:       &med,
			Certificates:      []domain.Certificate{{Type: "P", Level: "C"}},
			Ratings:           []domain.Rating{{LevelChar: "C", Code: "AMEL"}, {LevelChar: "C", Code: "INST"}},
			TypeRatings:       []domain.TypeRating{{LevelChar: "C", TypeCode: "CE-525S"}},
			CertificateLevels: []string{"C"},
			HasInstrument:     true,
			HasMultiEngine:    true,
			HasJet:            true,
			IngestedAt:        ingested,
		},
		{UniqueID: "A0000002", FirstName: "JOHN", LastName: "ROE", State: "GA", IngestedAt: ingested},
	}))

	path := filepath.Join(t.TempDir(), "airmen.parquet")
	n, err := NewExporter(store, discardLogger()).ExportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := parquet.ReadFile[Row](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	jane := rows[0]
	assert.Equal(t, "A0000001", jane.UniqueID)
	assert.Equal(t, []string{"P"}, jane.CertificateTypes)
	assert.Equal(t, []string{"C"}, jane.CertificateLevels)
	assert.Equal(t, []string{"AMEL", "INST"}, jane.Ratings)
	assert.Equal(t, []string{"CE-525S"}, jane.TypeRatings)
	require.NotNil(t, jane.MedicalClass)
	assert.Equal(t, int32(2), *jane.MedicalClass)
	require.NotNil(t, jane.MedicalDate)
	assert.True(t, med.Equal(*jane.MedicalDate))
	assert.True(t, jane.HasJet)
	assert.True(t, ingested.Equal(jane.IngestedAt))

	john := rows[1]
	assert.Equal(t, "GA", john.State)
	assert.Nil(t, john.MedicalClass)
	assert.Empty(t, john.TypeRatings)
}

func TestExport_ScanError(t *testing.T) {
	boom := errors.New("store closed")
	_, err := NewExporter(failingScanner{err: boom}, discardLogger()).Export(context.Background(), io.Discard)
	require.ErrorIs(t, err, boom)
}
