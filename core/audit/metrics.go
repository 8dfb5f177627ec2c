// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "examadmin"

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by destination and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"destination", "status_code"})

	navigations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "navigations_total",
		Help:      "Navigations by outcome (rendered, reused, redirect, not_found, error).",
	}, []string{"outcome"})

	viewLoads = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "view_load_duration_seconds",
		Help:      "Duration of deferred view loads by view and result.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"view", "result"})
)

// Navigation outcomes.
const (
	OutcomeRendered = "rendered"
	OutcomeReused   = "reused"
	OutcomeRedirect = "redirect"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// CountNavigation records one navigation with the given outcome.
func CountNavigation(outcome string) {
	navigations.WithLabelValues(outcome).Inc()
}

// ObserveViewLoad records a deferred view load.
func ObserveViewLoad(view string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	viewLoads.WithLabelValues(view, result).Observe(d.Seconds())
}

// ObserveRequest records a completed HTTP request.
func ObserveRequest(destination TrafficDestination, statusCode int, d time.Duration) {
	requestDuration.WithLabelValues(string(destination), strconv.Itoa(statusCode)).Observe(d.Seconds())
}

// MetricsHandler exposes the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
