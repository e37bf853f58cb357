package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/urfave/cli/v2"

	httpadapter "github.com/couchcryptid/airmen-search-service/internal/adapter/http"
	"github.com/couchcryptid/airmen-search-service/internal/adapter/snapshot"
	"github.com/couchcryptid/airmen-search-service/internal/search"
)

func importCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	summary, err := e.pipeline().Run(ctx)
	if err != nil {
		return err
	}
	return writeJSON(c, summary)
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	mapper, err := e.mapper()
	if err != nil {
		return err
	}
	engine, err := e.engine(mapper)
	if err != nil {
		return err
	}

	var ready sharedobs.ReadinessChecker = e.store
	if c.Bool("import") {
		p := e.pipeline()
		ready = p
		go func() {
			if _, err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				e.logger.Error("background import failed", "error", err)
			}
		}()
	}

	srv := httpadapter.NewServer(e.cfg.HTTPAddr, httpadapter.Deps{
		Searcher:  engine,
		Suggester: mapper,
		Meta:      e.store,
		Extracts:  e.files,
		Ready:     ready,
	}, e.logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	e.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), e.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		e.logger.Error("http server shutdown error", "error", err)
	}
	e.logger.Info("shutdown complete")
	return nil
}

func searchCommand(c *cli.Context) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	mapper, err := e.mapper()
	if err != nil {
		return err
	}
	engine, err := e.engine(mapper)
	if err != nil {
		return err
	}

	q, err := search.ParseQuery(searchValues(c))
	if err != nil {
		return err
	}
	resp, err := engine.Search(c.Context, q)
	if err != nil {
		return err
	}
	return writeJSON(c, resp)
}

// searchValues maps the search flags onto the HTTP query parameter names so
// both surfaces share one parser.
func searchValues(c *cli.Context) url.Values {
	v := url.Values{}
	for flag, param := range map[string]string{
		"aircraft":  "aircraft",
		"state":     "state",
		"city":      "city",
		"min-level": "minLevel",
	} {
		if s := c.String(flag); s != "" {
			v.Set(param, s)
		}
	}
	v.Set("radiusMi", strconv.FormatFloat(c.Float64("radius"), 'f', -1, 64))
	v.Set("instrument", strconv.FormatBool(c.Bool("instrument")))
	v.Set("multi", strconv.FormatBool(c.Bool("multi")))
	return v
}

func exportCommand(c *cli.Context) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	start := time.Now()
	n, err := snapshot.NewExporter(e.store, e.logger).ExportFile(c.Context, c.String("out"))
	if err != nil {
		return err
	}
	e.logger.Info("export complete", "path", c.String("out"), "rows", n, "duration", time.Since(start))
	return nil
}

func writeJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
