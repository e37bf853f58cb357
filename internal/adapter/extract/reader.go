// Package extract reads the FAA airmen extracts (PILOT_BASIC and PILOT_CERT).
// Columns are located by header name, so column order and extra columns do
// not matter. Missing columns read as empty strings.
package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

// Header names used by the FAA releasable airmen database.
const (
	colUniqueID           = "UNIQUE ID"
	colFirstMiddleName    = "FIRST & MIDDLE NAME"
	colLastNameSuffix     = "LAST NAME & SUFFIX"
	colStreet1            = "STREET 1"
	colStreet2            = "STREET 2"
	colCity               = "CITY"
	colState              = "STATE"
	colZipCode            = "ZIP CODE"
	colCountry            = "COUNTRY-NAME"
	colRegion             = "REGION"
	colMedicalClass       = "MEDICAL CLASS"
	colMedicalDate        = "MEDICAL DATE"
	colMedicalExpireDate  = "MEDICAL EXPIRE DATE"
	colBasicMedCourseDate = "BASIC MED COURSE DATE"
	colBasicMedCmecDate   = "BASIC MED CMEC DATE"

	colRecordType            = "RECORD TYPE"
	colCertificateType       = "CERTIFICATE TYPE"
	colCertificateLevel      = "CERTIFICATE LEVEL"
	colCertificateExpireDate = "CERTIFICATE EXPIRE DATE"
	colRatings               = "RATINGS"
	colTypeRatings           = "TYPE RATINGS"
)

// BasicHeader and CertHeader are the canonical column orders, used when
// writing sample extracts.
var (
	BasicHeader = []string{
		colUniqueID, colFirstMiddleName, colLastNameSuffix, colStreet1, colStreet2,
		colCity, colState, colZipCode, colCountry, colRegion, colMedicalClass,
		colMedicalDate, colMedicalExpireDate, colBasicMedCourseDate, colBasicMedCmecDate,
	}
	CertHeader = []string{
		colUniqueID, colFirstMiddleName, colLastNameSuffix, colRecordType,
		colCertificateType, colCertificateLevel, colCertificateExpireDate,
		colRatings, colTypeRatings,
	}
)

// ErrNoHeader is returned when an extract has no header row.
var ErrNoHeader = errors.New("extract has no header row")

// Files locates the two extracts of one release.
type Files struct {
	Basic string
	Cert  string
}

// Missing returns the paths that do not exist or are not regular files.
func (f Files) Missing() []string {
	var missing []string
	for _, p := range []string{f.Basic, f.Cert} {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			missing = append(missing, p)
		}
	}
	return missing
}

// LastModified returns the latest modification time of the extracts that
// exist. The zero time means neither exists.
func (f Files) LastModified() time.Time {
	var latest time.Time
	for _, p := range []string{f.Basic, f.Cert} {
		if info, err := os.Stat(p); err == nil && info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest
}

// ScanBasic streams the person extract to fn.
func (f Files) ScanBasic(fn func(domain.BasicRow) error) error {
	return ScanBasicFile(f.Basic, fn)
}

// ScanCerts streams the certificate extract to fn.
func (f Files) ScanCerts(fn func(domain.CertRow) error) error {
	return ScanCertsFile(f.Cert, fn)
}

// record gives header-name access to one CSV row.
type record struct {
	index  map[string]int
	fields []string
}

func (r record) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// scan reads the header row, then calls fn for every data row. Blank rows
// are skipped. A row with fewer fields than the header reads the missing
// columns as empty.
func scan(r io.Reader, fn func(record) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return ErrNoHeader
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[h]; !dup && h != "" {
			index[h] = i
		}
	}

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		if blank(fields) {
			continue
		}
		if err := fn(record{index: index, fields: fields}); err != nil {
			return err
		}
	}
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ScanBasic streams person rows to fn.
func ScanBasic(r io.Reader, fn func(domain.BasicRow) error) error {
	return scan(r, func(rec record) error {
		return fn(domain.BasicRow{
			UniqueID:           rec.get(colUniqueID),
			FirstMiddleName:    rec.get(colFirstMiddleName),
			LastNameSuffix:     rec.get(colLastNameSuffix),
			Street1:            rec.get(colStreet1),
			Street2:            rec.get(colStreet2),
			City:               rec.get(colCity),
			State:              rec.get(colState),
			ZipCode:            rec.get(colZipCode),
			Country:            rec.get(colCountry),
			Region:             rec.get(colRegion),
			MedicalClass:       rec.get(colMedicalClass),
			MedicalDate:        rec.get(colMedicalDate),
			MedicalExpireDate:  rec.get(colMedicalExpireDate),
			BasicMedCourseDate: rec.get(colBasicMedCourseDate),
			BasicMedCmecDate:   rec.get(colBasicMedCmecDate),
		})
	})
}

// ScanCerts streams certificate rows to fn. The chunked rating fields are
// passed through untrimmed so fixed-width windows keep their alignment.
func ScanCerts(r io.Reader, fn func(domain.CertRow) error) error {
	return scan(r, func(rec record) error {
		return fn(domain.CertRow{
			UniqueID:              rec.get(colUniqueID),
			RecordType:            rec.get(colRecordType),
			CertificateType:       rec.get(colCertificateType),
			CertificateLevel:      rec.get(colCertificateLevel),
			CertificateExpireDate: rec.get(colCertificateExpireDate),
			Ratings:               rec.raw(colRatings),
			TypeRatings:           rec.raw(colTypeRatings),
		})
	})
}

// raw returns the column without trimming, for fixed-width payloads.
func (r record) raw(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

// ScanBasicFile opens path and streams its person rows to fn.
func ScanBasicFile(path string, fn func(domain.BasicRow) error) error {
	return withFile(path, func(r io.Reader) error { return ScanBasic(r, fn) })
}

// ScanCertsFile opens path and streams its certificate rows to fn.
func ScanCertsFile(path string, fn func(domain.CertRow) error) error {
	return withFile(path, func(r io.Reader) error { return ScanCerts(r, fn) })
}

func withFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // read-only
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
