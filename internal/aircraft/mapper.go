// Package aircraft maps free-text aircraft names to FAA type-rating codes.
package aircraft

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// Entry is one row of the aircraft table: a lowercase needle and the
// type-rating codes it maps to.
type Entry struct {
	Needle string
	Codes  []string
}

// Mapper resolves user-supplied aircraft names to type-rating codes.
// It is read-only after construction and safe for concurrent use.
type Mapper struct {
	table   map[string][]string
	needles []string
}

var (
	citationM2  = regexp.MustCompile(`(?i)^c(itation)?\s*m2$`)
	citationJet = regexp.MustCompile(`(?i)^cj[1-4](\+)?$`)
	citationV   = regexp.MustCompile(`(?i)^c(itation)?\s*(v|bravo|ultra|encore)`)
	bareCode    = regexp.MustCompile(`^[A-Z]{1,2}-?\d{3,4}[A-Z]?$`)
)

// coreCodes always appear in suggestions regardless of the table contents.
var coreCodes = []string{
	"CE-500", "CE-525", "CE-525S", "EMB-505", "HA-420",
	"LR-60", "G-1159", "G-V", "B-737", "A-320",
}

const maxSuggestions = 20

// New builds a Mapper from entries. Later entries overwrite earlier ones
// with the same needle.
func New(entries []Entry) *Mapper {
	m := &Mapper{table: make(map[string][]string, len(entries))}
	for _, e := range entries {
		needle := strings.ToLower(strings.TrimSpace(e.Needle))
		if needle == "" || len(e.Codes) == 0 {
			continue
		}
		if _, seen := m.table[needle]; !seen {
			m.needles = append(m.needles, needle)
		}
		m.table[needle] = append([]string(nil), e.Codes...)
	}
	return m
}

// Load reads the aircraft table at path. A missing file yields an empty
// mapper that still applies the naming heuristics.
func Load(path string) (*Mapper, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open aircraft table: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse aircraft table %s: %w", path, err)
	}
	return New(entries), nil
}

// Parse reads "needle,CODE1|CODE2" lines. Blank lines and lines starting
// with '#' are ignored, as are lines without any code.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		needle, rest, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		rest, _, _ = strings.Cut(rest, ",")
		var codes []string
		for _, c := range strings.Split(rest, "|") {
			if c = strings.TrimSpace(c); c != "" {
				codes = append(codes, c)
			}
		}
		if len(codes) == 0 {
			continue
		}
		entries = append(entries, Entry{Needle: strings.ToLower(strings.TrimSpace(needle)), Codes: codes})
	}
	return entries, sc.Err()
}

// Map returns the type-rating codes for q. An exact table match wins;
// otherwise a few common Citation spellings and bare designators are
// recognized. Unknown names yield nil.
func (m *Mapper) Map(q string) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	if codes, ok := m.table[strings.ToLower(q)]; ok {
		return append([]string(nil), codes...)
	}

	switch {
	case citationM2.MatchString(q):
		return []string{"CE-525S", "CE-525"}
	case citationJet.MatchString(q):
		return []string{"CE-525", "CE-525S"}
	case citationV.MatchString(q):
		return []string{"CE-500"}
	}

	if up := strings.ToUpper(q); bareCode.MatchString(up) {
		return []string{hyphenate(up)}
	}
	return nil
}

// hyphenate inserts a '-' at the first letter-to-digit boundary, so
// "CE525" becomes "CE-525". Already hyphenated codes are unchanged.
func hyphenate(code string) string {
	if strings.Contains(code, "-") {
		return code
	}
	for i := 1; i < len(code); i++ {
		if isLetter(code[i-1]) && isDigit(code[i]) {
			return code[:i] + "-" + code[i:]
		}
	}
	return code
}

func isLetter(b byte) bool { return b >= 'A' && b <= 'Z' }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Label string   `json:"label"`
	Codes []string `json:"codes"`
}

// Suggest returns up to 20 suggestions whose label contains q,
// case-insensitively. Table needles come first in table order, then the
// core type codes. Labels are deduplicated case-insensitively.
func (m *Mapper) Suggest(q string) []Suggestion {
	q = strings.ToLower(strings.TrimSpace(q))

	out := make([]Suggestion, 0, maxSuggestions)
	seen := make(map[string]struct{})
	add := func(label string, codes []string) bool {
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			return true
		}
		if q != "" && !strings.Contains(key, q) {
			return true
		}
		seen[key] = struct{}{}
		out = append(out, Suggestion{Label: label, Codes: append([]string(nil), codes...)})
		return len(out) < maxSuggestions
	}

	for _, n := range m.needles {
		if !add(n, m.table[n]) {
			return out
		}
	}
	for _, c := range coreCodes {
		if !add(c, []string{c}) {
			return out
		}
	}
	return out
}

// Len returns the number of table entries.
func (m *Mapper) Len() int { return len(m.table) }
