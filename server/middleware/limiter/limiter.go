// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"math"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/erikvoorbraak/knvvl-exam/core/lrucache"
)

// Rate limiting header names.
//
// ref: https://www.ietf.org/archive/id/draft-polli-ratelimit-headers-02.html
const (
	HeaderRateLimitLimit     string = "RateLimit-Limit"
	HeaderRateLimitRemaining string = "RateLimit-Remaining"
	HeaderRateLimitReset     string = "RateLimit-Reset"
)

// excludedPaths are never limited.
var excludedPaths = []string{
	"/css/",
	"/img/",
	"/js/",
	"/favicon.ico",
	"/metrics",
}

// RejectFunc writes the response for a refused request.
type RejectFunc func(w http.ResponseWriter, r *http.Request, status int, reason string)

// Config configures a Limiter.
type Config struct {
	Rate       float64
	Burst      int
	PassIPs    []string
	BlockIPs   []string
	IPv4Prefix int
	IPv6Prefix int
	MaxClients int
}

// Limiter holds one token bucket per client network.
type Limiter struct {
	cfg    Config
	pass   []netip.Prefix
	block  []netip.Prefix
	reject RejectFunc

	// buckets maps network prefixes to *bucket. Networks idle for longest are dropped first.
	buckets *lrucache.Cache

	logger zerolog.Logger
}

type bucket struct {
	mu      sync.Mutex
	limiter *rate.Limiter
}

// New returns a Limiter. reject renders refused requests; nil writes a plain text error.
func New(cfg Config, reject RejectFunc) (*Limiter, error) {
	if cfg.Rate <= 0 || cfg.Burst <= 0 {
		return nil, errors.New("limiter: rate and burst must be positive")
	}

	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 10000
	}

	buckets, err := lrucache.New(cfg.MaxClients)
	if err != nil {
		return nil, err
	}

	l := &Limiter{
		cfg:     cfg,
		reject:  reject,
		buckets: buckets,
		logger:  log.With().Str("sys", "limiter").Logger(),
	}

	var invalid []string

	l.pass, invalid = parseList(cfg.PassIPs)
	for _, e := range invalid {
		l.logger.Warn().Str("entry", e).Msg("Ignoring invalid pass-list entry")
	}

	l.block, invalid = parseList(cfg.BlockIPs)
	for _, e := range invalid {
		l.logger.Warn().Str("entry", e).Msg("Ignoring invalid block-list entry")
	}

	if l.reject == nil {
		l.reject = func(w http.ResponseWriter, _ *http.Request, status int, reason string) {
			http.Error(w, reason, status)
		}
	}

	return l, nil
}

// Evaluate is the limiter middleware.
func (l *Limiter) Evaluate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if isExcluded(r.URL.Path) {
		next.ServeHTTP(w, r)

		return
	}

	addr, ok := clientAddr(r)
	if !ok {
		l.logger.Error().Str("remote_addr", r.RemoteAddr).Msg("Could not determine client IP")
		l.reject(w, r, http.StatusBadRequest, "Could not determine client IP")

		return
	}

	if matchesList(addr, l.pass) {
		next.ServeHTTP(w, r)

		return
	}

	if matchesList(addr, l.block) {
		l.logger.Warn().Str("ip", addr.String()).Msg("Request blocked, IP in block-list")
		l.reject(w, r, http.StatusForbidden, "IP in block-list")

		return
	}

	netw := network(addr, l.cfg.IPv4Prefix, l.cfg.IPv6Prefix)
	b := l.bucket(netw.String())

	b.mu.Lock()
	allowed := b.limiter.Allow()
	l.setHeaders(w, b.limiter)
	b.mu.Unlock()

	if !allowed {
		l.logger.Warn().
			Str("ip", addr.String()).
			Str("network", netw.String()).
			Msg("Request blocked, exceeded rate limit")
		l.reject(w, r, http.StatusTooManyRequests, "Rate limit exceeded")

		return
	}

	next.ServeHTTP(w, r)
}

func (l *Limiter) bucket(key string) *bucket {
	v, _ := l.buckets.GetOrAdd(key, func() any {
		return &bucket{limiter: rate.NewLimiter(rate.Limit(l.cfg.Rate), l.cfg.Burst)}
	})

	return v.(*bucket)
}

// setHeaders reports the state of lim. The caller holds the bucket lock.
func (l *Limiter) setHeaders(w http.ResponseWriter, lim *rate.Limiter) {
	tokens := lim.Tokens()
	burst := lim.Burst()

	remaining := max(int(math.Floor(tokens)), 0)

	var reset int64
	if deficit := float64(burst) - tokens; deficit > 0 {
		reset = int64(math.Ceil(deficit / float64(lim.Limit())))
	}

	resetStr := strconv.FormatInt(reset, 10)

	w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(burst))
	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(remaining))
	w.Header().Set(HeaderRateLimitReset, resetStr)

	if remaining == 0 {
		w.Header().Set("Retry-After", resetStr)
	}
}

func isExcluded(path string) bool {
	for _, p := range excludedPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
