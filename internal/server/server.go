// Package server exposes the loaded reports over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drew/jobreport/assets"
	"github.com/drew/jobreport/internal/config"
	"github.com/drew/jobreport/internal/report"
	"github.com/drew/jobreport/internal/toc"
)

const apiBase = "/api"

// deckKey includes the period's load generation so a deck rendered from a
// superseded load is never served after a reload
type deckKey struct {
	period int
	gen    uint64
	user   string
	admin  bool
}

// Server serves one report store
type Server struct {
	store *report.Store
	cfg   config.ServerConfig
	decks *ttlcache.Cache[deckKey, toc.Deck]
	log   *slog.Logger
}

// New creates a server for store. Rendered slide decks are cached for
// slidesTTL and dropped whenever their period is reloaded.
func New(store *report.Store, cfg config.ServerConfig, slidesTTL time.Duration, log *slog.Logger) *Server {
	s := &Server{
		store: store,
		cfg:   cfg,
		decks: ttlcache.New(ttlcache.WithTTL[deckKey, toc.Deck](slidesTTL)),
		log:   log,
	}
	store.OnChange(s.invalidate)
	return s
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(apiBase+"/user", instrument("user", s.log, s.handleUser))
	mux.HandleFunc(apiBase+"/periods", instrument("periods", s.log, s.handlePeriods))
	mux.HandleFunc(apiBase+"/report", instrument("report", s.log, s.handleReport))
	mux.HandleFunc(apiBase+"/data", instrument("data", s.log, s.handleData))
	mux.HandleFunc(apiBase+"/table", instrument("table", s.log, s.handleTable))
	mux.HandleFunc(apiBase+"/slides", instrument("slides", s.log, s.handleSlides))
	mux.Handle("/metrics", promhttp.Handler())
	if s.cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))
	} else {
		mux.Handle("/", http.FileServer(http.FS(assets.Web())))
	}
	return mux
}

// Run listens until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	go s.decks.Start()
	defer s.decks.Stop()

	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// user returns the authenticated user with any "@domain" stripped
func (s *Server) user(r *http.Request) (string, bool) {
	user := r.Header.Get(s.cfg.AuthHeader)
	if at := strings.IndexByte(user, '@'); at != -1 {
		user = user[:at]
	}
	return user, s.cfg.IsAdmin(user)
}

func (s *Server) invalidate(period int) {
	for _, k := range s.decks.Keys() {
		if k.period == period {
			s.decks.Delete(k)
		}
	}
}

// periodOptions lists the visible periods newest first, labelled with
// their update date
func (s *Server) periodOptions(user string, admin bool) []toc.Option {
	periods := s.store.Periods(user, admin)
	ids := make([]int, 0, len(periods))
	for id := range periods {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))

	options := make([]toc.Option, len(ids))
	for i, id := range ids {
		options[i] = toc.Option{
			Value: strconv.Itoa(id),
			Label: time.Unix(periods[id].Updated, 0).UTC().Format("Jan 2, 2006"),
		}
	}
	return options
}
