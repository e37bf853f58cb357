// Command genmock writes a synthetic PILOT_BASIC/PILOT_CERT pair for local
// runs and tests. It normalizes its own output with the domain package and
// prints the resulting qualification counts, so the fixture's expected
// search results are known up front.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -persons 500 -seed 7
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/airmen-search-service/internal/adapter/extract"
	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

type place struct {
	city, state string
}

var (
	firstNames = []string{"JANE", "JOHN", "MARIA", "DAVID", "SARAH", "MICHAEL", "EMILY", "ROBERT", "LINDA", "JAMES"}
	lastNames  = []string{"SMITH", "JOHNSON", "WILLIAMS", "BROWN", "JONES", "GARCIA", "MILLER", "DAVIS", "WILSON", "TAYLOR"}
	places     = []place{
		{"ORLANDO", "FL"}, {"KISSIMMEE", "FL"}, {"TAMPA", "FL"}, {"JACKSONVILLE", "FL"},
		{"AUSTIN", "TX"}, {"DALLAS", "TX"}, {"ATLANTA", "GA"}, {"DENVER", "CO"},
	}
	levels    = []string{"S", "P", "P", "P", "C", "C", "A"}
	typeCodes = []string{"CE-525", "CE-525S", "CE-500", "EMB-505", "HA-420", "LR-60", "B-737", "A-320"}
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock", "output directory")
	persons := flag.Int("persons", 200, "number of person rows")
	seed := flag.Uint64("seed", 1, "random seed")
	fixedWidth := flag.Bool("fixed-width", false, "encode rating fields as 10-character windows instead of spaces")
	flag.Parse()

	if *persons < 1 {
		flag.Usage()
		return fmt.Errorf("-persons must be positive")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))
	basics, certs := generate(rng, *persons, *fixedWidth)

	files := extract.Files{
		Basic: filepath.Join(*out, "PILOT_BASIC.csv"),
		Cert:  filepath.Join(*out, "PILOT_CERT.csv"),
	}
	if err := extract.WriteFiles(files, basics, certs); err != nil {
		return err
	}
	log.Printf("wrote %s (%d rows)", files.Basic, len(basics))
	log.Printf("wrote %s (%d rows)", files.Cert, len(certs))

	printStats(basics, certs)
	return nil
}

func generate(rng *rand.Rand, n int, fixedWidth bool) ([]domain.BasicRow, []domain.CertRow) {
	basics := make([]domain.BasicRow, 0, n)
	var certs []domain.CertRow

	for i := range n {
		id := fmt.Sprintf("A%07d", i+1)
		p := places[rng.IntN(len(places))]
		basics = append(basics, domain.BasicRow{
			UniqueID:          id,
			FirstMiddleName:   firstNames[rng.IntN(len(firstNames))],
			LastNameSuffix:    lastNames[rng.IntN(len(lastNames))],
			City:              p.city,
			State:             p.state,
			Country:           "USA",
			MedicalClass:      fmt.Sprint(1 + rng.IntN(3)),
			MedicalDate:       fmt.Sprintf("%02d%d", 1+rng.IntN(12), 2020+rng.IntN(5)),
			MedicalExpireDate: fmt.Sprintf("%02d%d", 1+rng.IntN(12), 2025+rng.IntN(3)),
		})

		level := levels[rng.IntN(len(levels))]
		ratings := []string{level + "/ASEL"}
		if rng.IntN(2) == 0 {
			ratings = append(ratings, level+"/AMEL")
		}
		if level != "S" && rng.IntN(3) > 0 {
			ratings = append(ratings, level+"/INST")
		}
		var types []string
		if level == "C" || level == "A" {
			for range rng.IntN(3) {
				types = append(types, level+"/"+typeCodes[rng.IntN(len(typeCodes))])
			}
		}
		certs = append(certs, domain.CertRow{
			UniqueID:         id,
			RecordType:       "00",
			CertificateType:  "P",
			CertificateLevel: level,
			Ratings:          encode(ratings, fixedWidth),
			TypeRatings:      encode(types, fixedWidth),
		})

		if rng.IntN(5) == 0 {
			certs = append(certs, domain.CertRow{
				UniqueID:              id,
				RecordType:            "00",
				CertificateType:       "F",
				CertificateExpireDate: fmt.Sprintf("%02d%02d%d", 1+rng.IntN(12), 1+rng.IntN(28), 2025+rng.IntN(3)),
				// Instructor chunks use rank letters outside the delimited
				// grammar, so they only ever appear fixed-width.
				Ratings: encode([]string{"F/ASE", "F/INST"}, true),
			})
		}
	}
	return basics, certs
}

// encode joins chunks either space-separated or padded to 10-character
// windows.
func encode(chunks []string, fixedWidth bool) string {
	if !fixedWidth {
		return strings.Join(chunks, " ")
	}
	var b strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&b, "%-10s", c)
	}
	return b.String()
}

func printStats(basics []domain.BasicRow, certs []domain.CertRow) {
	byID := make(map[string][]domain.CertRow, len(basics))
	for _, c := range certs {
		byID[c.UniqueID] = append(byID[c.UniqueID], c)
	}

	var instrument, multi, jet, commercial int
	for _, b := range basics {
		res := domain.NormalizeRow(b, byID[b.UniqueID])
		if res.Outcome != domain.RowOK {
			continue
		}
		a := res.Airman
		if a.HasInstrument {
			instrument++
		}
		if a.HasMultiEngine {
			multi++
		}
		if a.HasJet {
			jet++
		}
		if a.HasInstrument && a.HasMultiEngine && domain.MeetsMinimumLevel(a.CertificateLevels, "C") {
			commercial++
		}
	}

	fmt.Printf("\nPersons: %d\n", len(basics))
	fmt.Printf("  instrument:       %d\n", instrument)
	fmt.Printf("  multi-engine:     %d\n", multi)
	fmt.Printf("  jet type rating:  %d\n", jet)
	fmt.Printf("  default search:   %d\n", commercial)
}
