package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

const basicCSV = "\ufeffUNIQUE ID, FIRST & MIDDLE NAME, LAST NAME & SUFFIX, STREET 1, STREET 2, CITY, STATE, ZIP CODE, COUNTRY-NAME, REGION, MEDICAL CLASS, MEDICAL DATE, MEDICAL EXPIRE DATE, BASIC MED COURSE DATE, BASIC MED CMEC DATE,\n" +
	"A0000014,JOHN QUINCY,SMITH JR,100 MAIN ST,,ORLANDO,FL,32801,USA,SO,1,032024,032025,,,\n" +
	",,,,,,,,,,,,,,,\n" +
	"A0000015,JANE,DOE,\"1 \"\"A\"\" ST\",APT 2,TAMPA,FL,33601\n"

const certCSV = "UNIQUE ID,FIRST & MIDDLE NAME,LAST NAME & SUFFIX,RECORD TYPE,CERTIFICATE TYPE,CERTIFICATE LEVEL,CERTIFICATE EXPIRE DATE,RATINGS,TYPE RATINGS\n" +
	"A0000014,JOHN,SMITH,00,P,C,,C/ASEL C/AMEL C/INST,C/CE-525S\n" +
	"A0000014,JOHN,SMITH,00,F,,01312026,F/ASE     G/CFI     ,\n"

func TestScanBasic(t *testing.T) {
	var rows []domain.BasicRow
	err := ScanBasic(strings.NewReader(basicCSV), func(r domain.BasicRow) error {
		rows = append(rows, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2, "blank rows are skipped")

	assert.Equal(t, domain.BasicRow{
		UniqueID:          "A0000014",
		FirstMiddleName:   "JOHN QUINCY",
		LastNameSuffix:    "SMITH JR",
		Street1:           "100 MAIN ST",
		City:              "ORLANDO",
		State:             "FL",
		ZipCode:           "32801",
		Country:           "USA",
		Region:            "SO",
		MedicalClass:      "1",
		MedicalDate:       "032024",
		MedicalExpireDate: "032025",
	}, rows[0])

	// Short rows read the missing columns as empty.
	assert.Equal(t, "A0000015", rows[1].UniqueID)
	assert.Equal(t, `1 "A" ST`, rows[1].Street1)
	assert.Equal(t, "33601", rows[1].ZipCode)
	assert.Empty(t, rows[1].Country)
}

func TestScanCerts(t *testing.T) {
	var rows []domain.CertRow
	err := ScanCerts(strings.NewReader(certCSV), func(r domain.CertRow) error {
		rows = append(rows, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "P", rows[0].CertificateType)
	assert.Equal(t, "C", rows[0].CertificateLevel)
	assert.Equal(t, "C/ASEL C/AMEL C/INST", rows[0].Ratings)
	assert.Equal(t, "C/CE-525S", rows[0].TypeRatings)

	assert.Equal(t, "01312026", rows[1].CertificateExpireDate)
	assert.Equal(t, "F/ASE     G/CFI     ", rows[1].Ratings, "fixed-width padding is preserved")
	assert.Equal(t, []domain.Chunk{{LevelChar: "F", Code: "ASE"}, {LevelChar: "G", Code: "CFI"}}, domain.DecodeChunks(rows[1].Ratings))
}

func TestScan_NoHeader(t *testing.T) {
	err := ScanBasic(strings.NewReader(""), func(domain.BasicRow) error { return nil })
	require.ErrorIs(t, err, ErrNoHeader)
}

func TestScan_CallbackErrorStops(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := ScanBasic(strings.NewReader(basicCSV), func(domain.BasicRow) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	files := Files{Basic: filepath.Join(dir, "PILOT_BASIC.csv"), Cert: filepath.Join(dir, "PILOT_CERT.csv")}

	assert.Equal(t, []string{files.Basic, files.Cert}, files.Missing())
	assert.True(t, files.LastModified().IsZero())

	require.NoError(t, os.WriteFile(files.Basic, []byte(basicCSV), 0o600))
	assert.Equal(t, []string{files.Cert}, files.Missing())

	require.NoError(t, os.WriteFile(files.Cert, []byte(certCSV), 0o600))
	stamp := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(files.Cert, stamp, stamp))
	require.NoError(t, os.Chtimes(files.Basic, stamp.Add(-time.Hour), stamp.Add(-time.Hour)))

	assert.Empty(t, files.Missing())
	assert.True(t, stamp.Equal(files.LastModified()))
}

func TestScanFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "basic.csv")
	require.NoError(t, os.WriteFile(path, []byte(basicCSV), 0o600))

	n := 0
	require.NoError(t, ScanBasicFile(path, func(domain.BasicRow) error { n++; return nil }))
	assert.Equal(t, 2, n)

	err := ScanCertsFile(filepath.Join(dir, "missing.csv"), func(domain.CertRow) error { return nil })
	require.ErrorIs(t, err, os.ErrNotExist)
}
