// Package metrics defines the Prometheus collectors of the report service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobreport_api_requests_total",
		Help: "API requests by route and response code.",
	}, []string{"route", "code"})

	ArchivesLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobreport_archives_loaded_total",
		Help: "Result archives loaded into the store.",
	})
	ArchiveErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobreport_archive_errors_total",
		Help: "Result archives that failed to load, by stage.",
	}, []string{"stage"})
	PeriodsAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jobreport_periods_available",
		Help: "Periods currently held by the store.",
	})

	Reloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobreport_reloads_total",
		Help: "Archives reloaded after a renew marker appeared.",
	})

	DeckCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobreport_deck_cache_total",
		Help: "Slide deck cache lookups by result.",
	}, []string{"result"})
	UnreachableSections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobreport_unreachable_sections_total",
		Help: "Table of contents entries dropped from a deck because they never became ready.",
	})
)
