package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/cartwise"
	"github.com/poiesic/cartwise/core"
	"github.com/poiesic/cartwise/search"
	"github.com/urfave/cli/v2"
)

// searchService is the part of the engine the HTTP API needs.
type searchService interface {
	Search(ctx context.Context, req search.Request) *search.Response
	Memberships() []core.MembershipProgram
}

type handler struct {
	service searchService
	logger  *slog.Logger
}

func newRouter(service searchService) http.Handler {
	h := &handler{service: service, logger: slog.Default().With("component", "http")}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.healthz)
	r.Get("/search", h.search)
	r.Get("/memberships", h.memberships)
	return r
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.service.Search(r.Context(), req))
}

func (h *handler) memberships(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Memberships())
}

// parseSearchRequest reads q, page, market, zip, balance and membership from
// the query string. Memberships may repeat or be comma-separated.
func parseSearchRequest(r *http.Request) (search.Request, error) {
	q := r.URL.Query()
	req := search.Request{
		Query:     q.Get("q"),
		Market:    core.Market(q.Get("market")),
		Zipcode:   q.Get("zip"),
		RequestID: r.Header.Get("X-Request-ID"),
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return req, fmt.Errorf("page must be a positive integer, got %q", v)
		}
		req.Page = page
	}
	if v := q.Get("balance"); v != "" {
		b, err := strconv.ParseFloat(v, 64)
		if err != nil || b < 0 || b > 100 {
			return req, fmt.Errorf("balance must be a number between 0 and 100, got %q", v)
		}
		req.PriceSpeedBalance = &b
	}
	for _, v := range q["membership"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				req.Memberships = append(req.Memberships, id)
			}
		}
	}
	return req, nil
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func serveCommand(c *cli.Context) error {
	cfg, err := engineConfig(c)
	if err != nil {
		return err
	}
	engine, err := cartwise.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              c.String("addr"),
		Handler:           newRouter(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
