// Package domain models FAA airmen certification data.
//
// # Data Source
//
// Records originate from the FAA Airmen Certification Releasable Database,
// published monthly as a ZIP of CSV files at
// https://registry.faa.gov/database/. Two files are used:
//
//	PILOT_BASIC.csv  one row per airman: name, address, medical data
//	PILOT_CERT.csv   one row per certificate, many rows per airman
//
// Both carry a "UNIQUE ID" column (e.g. "A0000014") that joins them. Header
// names are padded with spaces in some releases and are trimmed on read.
//
// # FAA Data Conventions
//
// Names:
//
//	"FIRST & MIDDLE NAME" and "LAST NAME & SUFFIX" hold free text; only the
//	first whitespace-delimited token of each is kept ("JOHN Q" -> "JOHN").
//
// Dates:
//
//	MEDICAL DATE, MEDICAL EXPIRE DATE   MMYYYY, day fixed to the 1st
//	CERTIFICATE EXPIRE DATE             MMDDYYYY
//	BASIC MED COURSE/CMEC DATE          calendar date (several layouts seen)
//
//	Zero or out-of-range month/day values mean "no date".
//
// Certificate levels:
//
//	Single characters ranked S < T < V < P < C < A
//	(Student, Sport, Recreational, Private, Commercial, ATP).
//
// Ratings and type ratings ("chunked" fields):
//
//	Delimited form:   "C/ASEL C/AMEL C/INST"     level, slash, 1-8 char code
//	Fixed-width form: 10-char windows "L/CODE    " with no usable delimiter match
//
//	The delimited form is tried first; the fixed-width scan only runs when it
//	finds nothing. See [DecodeChunks].
//
// # Derived Qualifications
//
// Each airman carries flags derived wholesale from its facts on every import:
//
//	HasInstrument   any rating code starting with "INST"
//	HasMultiEngine  any rating code in {AMEL, AMES, ASME}
//	HasJet          any rating code "JET", or any type rating at all
//
// See [DeriveQualifications].
package domain
