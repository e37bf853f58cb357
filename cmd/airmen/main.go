// Command airmen imports the FAA releasable airmen extracts into a local
// record store and serves qualification search over it.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "airmen",
		Usage: "FAA airmen ingestion and qualification search",
		Commands: []*cli.Command{
			{
				Name:   "import",
				Usage:  "Normalize PILOT_BASIC/PILOT_CERT into the record store",
				Action: importCommand,
			},
			{
				Name:   "serve",
				Usage:  "Serve the search API, probes and metrics",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "import",
						Usage: "Run an import in the background before reporting ready",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Run one search and print the JSON response",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "aircraft", Usage: "Aircraft name or type designator, e.g. \"Citation M2\""},
					&cli.StringFlag{Name: "state", Usage: "Two-letter state code"},
					&cli.StringFlag{Name: "city", Usage: "City for the radius filter"},
					&cli.Float64Flag{Name: "radius", Usage: "Radius in statute miles; 0 disables the radius filter"},
					&cli.StringFlag{Name: "min-level", Usage: "Minimum certificate level (S, T, V, P, C, A)", Value: "C"},
					&cli.BoolFlag{Name: "instrument", Usage: "Require an instrument rating", Value: true},
					&cli.BoolFlag{Name: "multi", Usage: "Require a multi-engine rating", Value: true},
				},
			},
			{
				Name:   "export",
				Usage:  "Write a Parquet snapshot of the record store",
				Action: exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Output file",
						Required: true,
					},
				},
			},
		},
	}
}
