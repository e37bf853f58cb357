// Package snapshot exports the record store as a Parquet snapshot.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

// rowGroupSize is the number of rows buffered before each Write call.
const rowGroupSize = 4096

// Scanner streams every stored airman.
type Scanner interface {
	Scan(ctx context.Context, fn func(domain.Airman) error) error
}

// Row is the snapshot schema: one row per person, fact sets flattened to
// repeated string columns.
type Row struct {
	UniqueID          string     `parquet:"unique_id"`
	FirstName         string     `parquet:"first_name"`
	LastName          string     `parquet:"last_name"`
	City              string     `parquet:"city"`
	State             string     `parquet:"state"`
	Zip               string     `parquet:"zip"`
	Country           string     `parquet:"country"`
	MedicalClass      *int32     `parquet:"medical_class"`
	MedicalDate       *time.Time `parquet:"medical_date"`
	MedicalExpireDate *time.Time `parquet:"medical_expire_date"`
	CertificateTypes  []string   `parquet:"certificate_types"`
	CertificateLevels []string   `parquet:"certificate_levels"`
	Ratings           []string   `parquet:"ratings"`
	TypeRatings       []string   `parquet:"type_ratings"`
	HasInstrument     bool       `parquet:"has_instrument"`
	HasMultiEngine    bool       `parquet:"has_multi_engine"`
	HasJet            bool       `parquet:"has_jet"`
	IngestedAt        time.Time  `parquet:"ingested_at"`
}

// Exporter writes store snapshots.
type Exporter struct {
	store  Scanner
	logger *slog.Logger
}

// NewExporter creates an Exporter over store.
func NewExporter(store Scanner, logger *slog.Logger) *Exporter {
	return &Exporter{store: store, logger: logger}
}

// Export streams every airman in store order to w and returns the row count.
func (e *Exporter) Export(ctx context.Context, w io.Writer) (int, error) {
	pw := parquet.NewGenericWriter[Row](w)
	buf := make([]Row, 0, rowGroupSize)
	total := 0

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if _, err := pw.Write(buf); err != nil {
			return fmt.Errorf("write rows: %w", err)
		}
		total += len(buf)
		buf = buf[:0]
		return nil
	}

	err := e.store.Scan(ctx, func(a domain.Airman) error {
		buf = append(buf, toRow(a))
		if len(buf) == rowGroupSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		_ = pw.Close()
		return total, err
	}
	if err := pw.Close(); err != nil {
		return total, fmt.Errorf("close parquet writer: %w", err)
	}
	e.logger.Info("snapshot exported", "rows", total)
	return total, nil
}

// ExportFile writes a snapshot to path, replacing any existing file.
func (e *Exporter) ExportFile(ctx context.Context, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	n, err := e.Export(ctx, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	return n, err
}

func toRow(a domain.Airman) Row {
	r := Row{
		UniqueID:          a.UniqueID,
		FirstName:         a.FirstName,
		LastName:          a.LastName,
		City:              a.City,
		State:             a.State,
		Zip:               a.Zip,
		Country:           a.Country,
		MedicalDate:       a.MedicalDate,
		MedicalExpireDate: a.MedicalExpireDate,
		CertificateLevels: a.CertificateLevels,
		Ratings:           a.RatingCodes(),
		TypeRatings:       a.TypeCodes(),
		HasInstrument:     a.HasInstrument,
		HasMultiEngine:    a.HasMultiEngine,
		HasJet:            a.HasJet,
		IngestedAt:        a.IngestedAt,
	}
	if a.MedicalClass != nil {
		c := int32(*a.MedicalClass) //nolint:gosec // medical class is 1-3
		r.MedicalClass = &c
	}
	for _, c := range a.Certificates {
		r.CertificateTypes = append(r.CertificateTypes, c.Type)
	}
	return r
}
