// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/erikvoorbraak/knvvl-exam/config"
	"github.com/erikvoorbraak/knvvl-exam/core/audit"
	"github.com/erikvoorbraak/knvvl-exam/server/request_context"
	"github.com/erikvoorbraak/knvvl-exam/server/utils"
)

// BackendPrefixes are the paths owned by the backend service.
var BackendPrefixes = []string{"/api", "/api/", "/public/", "/login", "/logout"}

// Backend forwards requests to the backend service at target.
func Backend(target *url.URL, timeout time.Duration) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport: &auditedTransport{base: utils.NewTransport(timeout)},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn().
				Err(err).
				Str("url", r.URL.String()).
				Msg("Backend request failed")

			BlockPage(w, r, http.StatusBadGateway, "Backend unavailable")
		},
	}
}

// auditedTransport logs every forwarded request as a backend span.
type auditedTransport struct {
	base http.RoundTripper
}

func (t *auditedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rc := request_context.FromRequest(req)

	span := audit.Span{
		Destination: audit.ToBackend,
		RequestID:   rc.RequestID,
		SessionID:   rc.SessionID,
		Method:      req.Method,
		URL:         req.URL.String(),
	}

	ctx := span.Begin(req.Context())
	resp, err := t.base.RoundTrip(req.WithContext(ctx))

	span.End()

	span.Error = err
	if resp != nil {
		span.StatusCode = resp.StatusCode
		span.Size = int(max(resp.ContentLength, 0))
	}

	if !config.Global.ShouldSkipServerLogging(req.URL.Path) {
		span.Log()
	}

	return resp, err
}
