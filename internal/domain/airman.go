package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by record stores when a key does not exist.
var ErrNotFound = errors.New("not found")

// BasicRow is one raw row of the person extract (PILOT_BASIC).
type BasicRow struct {
	UniqueID           string
	FirstMiddleName    string
	LastNameSuffix     string
	Street1            string
	Street2            string
	City               string
	State              string
	ZipCode            string
	Country            string
	Region             string
	MedicalClass       string
	MedicalDate        string // MMYYYY
	MedicalExpireDate  string // MMYYYY
	BasicMedCourseDate string
	BasicMedCmecDate   string
}

// CertRow is one raw row of the certificate extract (PILOT_CERT).
type CertRow struct {
	UniqueID              string
	RecordType            string
	CertificateType       string
	CertificateLevel      string
	CertificateExpireDate string // MMDDYYYY
	Ratings               string // chunked field
	TypeRatings           string // chunked field
}

// Certificate is a single certificate held by an airman.
type Certificate struct {
	Type   string     `json:"certType"`
	Level  string     `json:"certLevel"`
	Expire *time.Time `json:"certExpire,omitempty"`
}

// Rating is one decoded chunk of a RATINGS field.
type Rating struct {
	LevelChar string `json:"levelChar"`
	Code      string `json:"code"`
}

// TypeRating is one decoded chunk of a TYPE RATINGS field.
type TypeRating struct {
	LevelChar string `json:"levelChar"`
	TypeCode  string `json:"typeCode"`
}

// Airman is the normalized per-person aggregate. The fact slices are owned by
// the airman and are replaced wholesale on every import, never merged.
type Airman struct {
	UniqueID  string `json:"uniqueId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	Street1 string `json:"street1,omitempty"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`

	MedicalClass       *int       `json:"medicalClass,omitempty"`
	MedicalDate        *time.Time `json:"medicalDate,omitempty"`
	MedicalExpireDate  *time.Time `json:"medicalExpireDate,omitempty"`
	BasicMedCourseDate *time.Time `json:"basicMedCourseDate,omitempty"`
	BasicMedCmecDate   *time.Time `json:"basicMedCmecDate,omitempty"`

	Certificates []Certificate `json:"certificates"`
	Ratings      []Rating      `json:"ratings"`
	TypeRatings  []TypeRating  `json:"typeRatings"`

	// Derived from the fact slices by DeriveQualifications.
	CertificateLevels []string `json:"certificateLevels"`
	HasInstrument     bool     `json:"hasInstrument"`
	HasMultiEngine    bool     `json:"hasMultiEngine"`
	HasJet            bool     `json:"hasJet"`

	IngestedAt time.Time `json:"ingestedAt"`
}

// RatingCodes returns the airman's rating codes in fact order.
func (a Airman) RatingCodes() []string {
	out := make([]string, len(a.Ratings))
	for i, r := range a.Ratings {
		out[i] = r.Code
	}
	return out
}

// TypeCodes returns the airman's type-rating codes in fact order.
func (a Airman) TypeCodes() []string {
	out := make([]string, len(a.TypeRatings))
	for i, t := range a.TypeRatings {
		out[i] = t.TypeCode
	}
	return out
}

// StoreFilter holds the scalar predicates a record store evaluates itself.
// Empty State matches every state.
type StoreFilter struct {
	State             string
	RequireInstrument bool
	RequireMulti      bool
}

// Matches reports whether the airman satisfies the scalar predicates.
func (f StoreFilter) Matches(a Airman) bool {
	if f.State != "" && a.State != f.State {
		return false
	}
	if f.RequireInstrument && !a.HasInstrument {
		return false
	}
	if f.RequireMulti && !a.HasMultiEngine {
		return false
	}
	return true
}

// ImportMeta describes the most recent completed import run.
type ImportMeta struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Persons    int       `json:"persons"`
	Skipped    int       `json:"skipped"`
}
