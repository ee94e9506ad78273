package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/drew/jobreport/internal/metrics"
	"github.com/drew/jobreport/internal/model"
	"github.com/drew/jobreport/internal/toc"
)

var (
	ErrPeriodNotFound = errors.New("period not found")
	ErrNoUserData     = errors.New("no data for user in this period")
)

// Result is the loaded content of one period
type Result struct {
	toc.Report
	Raw        model.PeriodData
	// Generation increases every time any period is (re)loaded
	Generation uint64
	users      map[string]bool
}

// HasUser reports whether the period holds a mail for the user
func (r *Result) HasUser(user string) bool {
	return r.users[user]
}

// Store holds every loaded period. Shared sections are deduplicated across
// users and periods and addressed by content id.
type Store struct {
	mu        sync.RWMutex
	contentID map[string]int
	content   map[int]string
	results   map[int]*Result
	names     map[string]string
	gen       uint64
	onChange  []func(period int)
	log       *slog.Logger
}

// NewStore creates an empty store
func NewStore(log *slog.Logger) *Store {
	return &Store{
		contentID: make(map[string]int),
		content:   make(map[int]string),
		results:   make(map[int]*Result),
		names:     make(map[string]string),
		log:       log,
	}
}

// OnChange registers a callback run after a period is added or replaced
func (s *Store) OnChange(fn func(period int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Add merges a parsed archive, replacing any earlier load of the period
func (s *Store) Add(a *Archive) {
	s.mu.Lock()
	res := &Result{
		Report: toc.Report{
			CommonContent: make(map[string]int),
			UserContent:   make(map[string]map[string]string),
		},
		Raw:   a.Raw,
		users: make(map[string]bool),
	}
	s.gen++
	res.Generation = s.gen
	for _, mail := range a.Mails {
		for _, sec := range mail.Sections {
			if sec.Common {
				res.CommonContent[sec.Name] = s.intern(sec.HTML)
			} else {
				if res.UserContent[sec.Name] == nil {
					res.UserContent[sec.Name] = make(map[string]string)
				}
				res.UserContent[sec.Name][mail.User] = sec.HTML
			}
			s.names[sec.Name] = sec.Title
		}
		res.users[mail.User] = true
	}
	s.results[a.Period] = res
	metrics.PeriodsAvailable.Set(float64(len(s.results)))
	callbacks := append([]func(int){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(a.Period)
	}
}

// intern returns the content id of html, assigning the next id if new.
// Callers hold the write lock.
func (s *Store) intern(html string) int {
	if id, ok := s.contentID[html]; ok {
		return id
	}
	id := len(s.content) + 1
	s.content[id] = html
	s.contentID[html] = id
	return id
}

// PeriodFromPath extracts the period id from "<dir>/<id>.tar.gz"
func PeriodFromPath(path string) (int, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, ".tar.gz")
	if stem == base {
		return 0, fmt.Errorf("%s: not a .tar.gz archive", base)
	}
	id, err := strconv.Atoi(stem)
	if err != nil {
		return 0, fmt.Errorf("%s: period id is not an integer: %w", base, err)
	}
	return id, nil
}

// ParseFile reads one archive from disk
func ParseFile(path string) (*Archive, error) {
	period, err := PeriodFromPath(path)
	if err != nil {
		metrics.ArchiveErrors.WithLabelValues("name").Inc()
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		metrics.ArchiveErrors.WithLabelValues("open").Inc()
		return nil, err
	}
	defer f.Close()

	a, err := ReadArchive(f, period)
	if err != nil {
		metrics.ArchiveErrors.WithLabelValues("parse").Inc()
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return a, nil
}

// LoadFile parses one archive and adds it to the store
func (s *Store) LoadFile(path string) (int, error) {
	a, err := ParseFile(path)
	if err != nil {
		return 0, err
	}
	s.Add(a)
	metrics.ArchivesLoaded.Inc()
	return a.Period, nil
}

// LoadDir loads every archive in dir matching pattern. Archives are parsed
// concurrently and merged in ascending period order; an archive that fails
// to parse is logged and skipped.
func (s *Store) LoadDir(ctx context.Context, dir, pattern string, workers int) (int, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(matches)

	archives := make([]*Archive, len(matches))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, m := range matches {
		path := filepath.Join(dir, filepath.FromSlash(m))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := ParseFile(path)
			if err != nil {
				s.log.Error("failed to load archive", "path", path, "error", err)
				return nil
			}
			archives[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	loaded := make([]*Archive, 0, len(archives))
	for _, a := range archives {
		if a != nil {
			loaded = append(loaded, a)
		}
	}
	sort.SliceStable(loaded, func(i, j int) bool { return loaded[i].Period < loaded[j].Period })
	for _, a := range loaded {
		s.Add(a)
		metrics.ArchivesLoaded.Inc()
		s.log.Debug("loaded archive", "period", a.Period, "users", len(a.Mails))
	}
	return len(loaded), nil
}

// Result returns the loaded period
func (s *Store) Result(period int) (*Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[period]
	return r, ok
}

// Periods lists the periods visible to a user; admins see all of them
func (s *Store) Periods(user string, admin bool) map[int]model.PeriodMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]model.PeriodMeta, len(s.results))
	for id, r := range s.results {
		if !admin && !r.HasUser(user) {
			continue
		}
		out[id] = r.Raw.Meta()
	}
	return out
}

// Names returns a copy of the section id to title mapping
func (s *Store) Names() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.names))
	for k, v := range s.names {
		out[k] = v
	}
	return out
}

// Content returns a copy of the deduplicated shared content
func (s *Store) Content() map[int]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]string, len(s.content))
	for k, v := range s.content {
		out[k] = v
	}
	return out
}

// View returns the part of a period a user may see. Admins get every
// user's content, others only their own plus the shared sections.
func (s *Store) View(period int, user string, admin bool) (toc.Report, error) {
	r, ok := s.Result(period)
	if !ok {
		return toc.Report{}, ErrPeriodNotFound
	}
	if admin {
		return r.Report, nil
	}
	if !r.HasUser(user) {
		return toc.Report{}, ErrNoUserData
	}
	view := toc.Report{
		CommonContent: r.CommonContent,
		UserContent:   make(map[string]map[string]string),
	}
	for sec, byUser := range r.UserContent {
		if html, ok := byUser[user]; ok {
			view.UserContent[sec] = map[string]string{user: html}
		}
	}
	return view, nil
}

// Generation returns the load generation of a period, 0 when not loaded.
// A reload always yields a new generation.
func (s *Store) Generation(period int) uint64 {
	r, ok := s.Result(period)
	if !ok {
		return 0
	}
	return r.Generation
}

// RawData collects the raw telemetry of the requested periods, restricted
// to the user's own data for non-admins. Periods that cannot be served are
// described in the returned message as "<reason>: <period>;".
func (s *Store) RawData(periods []int, user string, admin bool) (map[int]model.PeriodData, string) {
	out := make(map[int]model.PeriodData)
	var msg strings.Builder
	note := func(reason string, period int) {
		fmt.Fprintf(&msg, "%s: %d;", reason, period)
	}
	for _, period := range periods {
		r, ok := s.Result(period)
		if !ok {
			note("period not found", period)
			continue
		}
		if admin {
			out[period] = r.Raw
			continue
		}
		data, ok := r.Raw.Data[user]
		if !ok {
			note("no data for user in period", period)
			continue
		}
		out[period] = model.PeriodData{
			Started: r.Raw.Started,
			Updated: r.Raw.Updated,
			Data:    map[string]model.UserData{user: data},
		}
	}
	return out, msg.String()
}

// Len returns the number of loaded periods
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
