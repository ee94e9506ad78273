package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/jellydator/ttlcache/v3"

	"github.com/drew/jobreport/internal/metrics"
	"github.com/drew/jobreport/internal/model"
	"github.com/drew/jobreport/internal/report"
	"github.com/drew/jobreport/internal/table"
	"github.com/drew/jobreport/internal/toc"
)

type userResponse struct {
	User  string `json:"user"`
	Admin bool   `json:"admin"`
}

type dedupResponse struct {
	ContentData map[int]string `json:"content_data"`
}

type reportResponse struct {
	Dedup       dedupResponse      `json:"dedup"`
	Results     map[int]toc.Report `json:"results"`
	NameMapping map[string]string  `json:"name_mapping"`
}

type periodsRequest struct {
	Periods []int `json:"periods"`
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	user, admin := s.user(r)
	composeResponse(w, s.log, http.StatusOK, "", userResponse{User: user, Admin: admin})
}

func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	user, admin := s.user(r)
	composeResponse(w, s.log, http.StatusOK, "", s.store.Periods(user, admin))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	period, ok := s.periodParam(w, r)
	if !ok {
		return
	}
	user, admin := s.user(r)
	view, err := s.store.View(period, user, admin)
	if err != nil {
		s.notFound(w, err)
		return
	}
	composeResponse(w, s.log, http.StatusOK, "", reportResponse{
		Dedup:       dedupResponse{ContentData: s.store.Content()},
		Results:     map[int]toc.Report{period: view},
		NameMapping: s.store.Names(),
	})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	data, msg, ok := s.selectRaw(w, r)
	if !ok {
		return
	}
	composeResponse(w, s.log, http.StatusOK, msg, data)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	data, msg, ok := s.selectRaw(w, r)
	if !ok {
		return
	}
	periods := make(map[string]model.PeriodData, len(data))
	for id, p := range data {
		periods[strconv.Itoa(id)] = p
	}
	composeResponse(w, s.log, http.StatusOK, msg, table.Normalize(periods, nil))
}

func (s *Server) handleSlides(w http.ResponseWriter, r *http.Request) {
	period, ok := s.periodParam(w, r)
	if !ok {
		return
	}
	user, admin := s.user(r)
	// read before View: a reload in between only orphans the entry
	key := deckKey{period: period, gen: s.store.Generation(period), user: user, admin: admin}
	if item := s.decks.Get(key); item != nil {
		metrics.DeckCache.WithLabelValues("hit").Inc()
		composeResponse(w, s.log, http.StatusOK, "", item.Value())
		return
	}
	metrics.DeckCache.WithLabelValues("miss").Inc()

	view, err := s.store.View(period, user, admin)
	if err != nil {
		s.notFound(w, err)
		return
	}
	deck, err := toc.Render(view, s.store.Content(), s.store.Names(), s.periodOptions(user, admin))
	if err != nil {
		s.log.Error("failed to render slides", "period", period, "error", err)
		composeResponse(w, s.log, http.StatusInternalServerError, "Cannot render slides", nil)
		return
	}
	if len(deck.Unreachable) > 0 {
		s.log.Warn("table of contents has a cycle", "period", period, "dropped", deck.Unreachable)
		metrics.UnreachableSections.Add(float64(len(deck.Unreachable)))
	}
	s.decks.Set(key, deck, ttlcache.DefaultTTL)
	composeResponse(w, s.log, http.StatusOK, "", deck)
}

// periodParam reads the required integral "period" query parameter
func (s *Server) periodParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		composeResponse(w, s.log, http.StatusBadRequest, "Missing param period", nil)
		return 0, false
	}
	period, err := strconv.Atoi(raw)
	if err != nil {
		composeResponse(w, s.log, http.StatusBadRequest, "Nonintegral param period", nil)
		return 0, false
	}
	return period, true
}

func (s *Server) notFound(w http.ResponseWriter, err error) {
	msg := "Period not found"
	if errors.Is(err, report.ErrNoUserData) {
		msg = "No data for user in this period"
	}
	composeResponse(w, s.log, http.StatusNotFound, msg, nil)
}

// selectRaw decodes a periods request and collects the caller's raw data.
// It writes the error response itself and reports whether to continue.
func (s *Server) selectRaw(w http.ResponseWriter, r *http.Request) (map[int]model.PeriodData, string, bool) {
	if r.Method != http.MethodPost {
		composeResponse(w, s.log, http.StatusMethodNotAllowed, "POST required", nil)
		return nil, "", false
	}
	limit := s.cfg.MaxRequestBytes
	if r.ContentLength > limit {
		composeResponse(w, s.log, http.StatusRequestEntityTooLarge, "Request too long", nil)
		return nil, "", false
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			composeResponse(w, s.log, http.StatusRequestEntityTooLarge, "Request too long", nil)
			return nil, "", false
		}
		composeResponse(w, s.log, http.StatusBadRequest, "Cannot read request body", nil)
		return nil, "", false
	}
	var req periodsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		composeResponse(w, s.log, http.StatusBadRequest, "JSON posted could not be parsed", nil)
		return nil, "", false
	}

	user, admin := s.user(r)
	data, msg := s.store.RawData(req.Periods, user, admin)
	if len(data) == 0 {
		if len(req.Periods) == 0 {
			msg = "no period specified"
		}
		composeResponse(w, s.log, http.StatusNotFound, msg, "")
		return nil, "", false
	}
	return data, msg, true
}
