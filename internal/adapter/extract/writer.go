package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

// WriteBasic writes rows as a person extract with the canonical header.
func WriteBasic(w io.Writer, rows []domain.BasicRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(BasicHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.UniqueID, r.FirstMiddleName, r.LastNameSuffix, r.Street1, r.Street2,
			r.City, r.State, r.ZipCode, r.Country, r.Region, r.MedicalClass,
			r.MedicalDate, r.MedicalExpireDate, r.BasicMedCourseDate, r.BasicMedCmecDate,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCerts writes rows as a certificate extract with the canonical header.
// The name columns are left blank; the join uses the unique ID only.
func WriteCerts(w io.Writer, rows []domain.CertRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CertHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.UniqueID, "", "", r.RecordType,
			r.CertificateType, r.CertificateLevel, r.CertificateExpireDate,
			r.Ratings, r.TypeRatings,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFiles writes both extracts to the paths in f.
func WriteFiles(f Files, basics []domain.BasicRow, certs []domain.CertRow) error {
	if err := writeFile(f.Basic, func(w io.Writer) error { return WriteBasic(w, basics) }); err != nil {
		return fmt.Errorf("write %s: %w", f.Basic, err)
	}
	if err := writeFile(f.Cert, func(w io.Writer) error { return WriteCerts(w, certs) }); err != nil {
		return fmt.Errorf("write %s: %w", f.Cert, err)
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(out); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
