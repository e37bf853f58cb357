package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RowOutcome tags the result of normalizing one person row.
type RowOutcome int

const (
	// RowOK means the row produced an Airman, possibly with anomalies.
	RowOK RowOutcome = iota
	// RowSkipped means the row produced nothing and must not be written.
	RowSkipped
)

func (o RowOutcome) String() string {
	if o == RowSkipped {
		return "skipped"
	}
	return "ok"
}

// Anomaly records a field that failed to parse and was treated as absent.
type Anomaly struct {
	Field string
	Value string
	Err   error
}

// RowResult is the outcome of normalizing one person row: Ok(Airman) with
// any field anomalies, or Skipped(Reason).
type RowResult struct {
	Outcome   RowOutcome
	Airman    Airman
	Reason    string
	Anomalies []Anomaly
}

// Skipped builds a RowResult that carries no Airman.
func Skipped(reason string) RowResult {
	return RowResult{Outcome: RowSkipped, Reason: reason}
}

var multiEngineCodes = map[string]bool{"AMEL": true, "AMES": true, "ASME": true}

const instrumentPrefix = "INST"

// NormalizeRow builds the full Airman aggregate for one person row and its
// correlated certificate rows. Field-level parse failures degrade to absent
// values and are reported as anomalies; only a row without a join key is
// skipped.
func NormalizeRow(basic BasicRow, certs []CertRow) (result RowResult) {
	defer func() {
		if r := recover(); r != nil {
			result = Skipped(fmt.Sprintf("panic: %v", r))
		}
	}()

	id := strings.TrimSpace(basic.UniqueID)
	if id == "" {
		return Skipped("missing unique id")
	}

	var anomalies []Anomaly
	note := func(field, value string, err error) {
		anomalies = append(anomalies, Anomaly{Field: field, Value: value, Err: err})
	}

	a := Airman{
		UniqueID:  id,
		FirstName: firstToken(basic.FirstMiddleName),
		LastName:  firstToken(basic.LastNameSuffix),
		Street1:   strings.TrimSpace(basic.Street1),
		Street2:   strings.TrimSpace(basic.Street2),
		City:      strings.TrimSpace(basic.City),
		State:     strings.ToUpper(strings.TrimSpace(basic.State)),
		Zip:       strings.TrimSpace(basic.ZipCode),
		Country:   strings.TrimSpace(basic.Country),
		Region:    strings.TrimSpace(basic.Region),
	}

	if s := strings.TrimSpace(basic.MedicalClass); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			a.MedicalClass = &n
		} else {
			note("MEDICAL CLASS", s, err)
		}
	}

	var err error
	if a.MedicalDate, err = parseMonthYear(basic.MedicalDate); err != nil {
		note("MEDICAL DATE", basic.MedicalDate, err)
	}
	if a.MedicalExpireDate, err = parseMonthYear(basic.MedicalExpireDate); err != nil {
		note("MEDICAL EXPIRE DATE", basic.MedicalExpireDate, err)
	}
	if a.BasicMedCourseDate, err = parseCalendarDate(basic.BasicMedCourseDate); err != nil {
		note("BASIC MED COURSE DATE", basic.BasicMedCourseDate, err)
	}
	if a.BasicMedCmecDate, err = parseCalendarDate(basic.BasicMedCmecDate); err != nil {
		note("BASIC MED CMEC DATE", basic.BasicMedCmecDate, err)
	}

	a.Certificates = make([]Certificate, 0, len(certs))
	a.Ratings = []Rating{}
	a.TypeRatings = []TypeRating{}
	for _, c := range certs {
		cert := Certificate{
			Type:  strings.TrimSpace(c.CertificateType),
			Level: strings.TrimSpace(c.CertificateLevel),
		}
		if cert.Expire, err = parseMMDDYYYY(c.CertificateExpireDate); err != nil {
			note("CERTIFICATE EXPIRE DATE", c.CertificateExpireDate, err)
		}
		a.Certificates = append(a.Certificates, cert)

		for _, ch := range DecodeChunks(c.Ratings) {
			a.Ratings = append(a.Ratings, Rating{LevelChar: ch.LevelChar, Code: ch.Code})
		}
		for _, ch := range DecodeChunks(c.TypeRatings) {
			a.TypeRatings = append(a.TypeRatings, TypeRating{LevelChar: ch.LevelChar, TypeCode: ch.Code})
		}
	}

	DeriveQualifications(&a)

	return RowResult{Outcome: RowOK, Airman: a, Anomalies: anomalies}
}

// DeriveQualifications recomputes CertificateLevels and the qualification
// flags from the airman's current facts, discarding any previous values.
func DeriveQualifications(a *Airman) {
	levels := []string{}
	seen := make(map[string]bool)
	for _, c := range a.Certificates {
		if c.Level != "" && !seen[c.Level] {
			seen[c.Level] = true
			levels = append(levels, c.Level)
		}
	}

	var instrument, multi, jet bool
	for _, r := range a.Ratings {
		if strings.HasPrefix(r.Code, instrumentPrefix) {
			instrument = true
		}
		if multiEngineCodes[r.Code] {
			multi = true
		}
		if r.Code == "JET" {
			jet = true
		}
	}
	if len(a.TypeRatings) > 0 {
		jet = true
	}

	a.CertificateLevels = levels
	a.HasInstrument = instrument
	a.HasMultiEngine = multi
	a.HasJet = jet
}

// firstToken returns the first whitespace-delimited token of s, or "".
func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
