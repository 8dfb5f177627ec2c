// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"net/http/httptest"

	"github.com/rs/zerolog/log"

	"github.com/erikvoorbraak/knvvl-exam/config"
	"github.com/erikvoorbraak/knvvl-exam/core/audit"
	"github.com/erikvoorbraak/knvvl-exam/server/request_context"
	"github.com/erikvoorbraak/knvvl-exam/server/routes"
)

// CatchError wraps HTTP handlers that return an error, providing centralized error handling,
// response buffering, and request logging.
//
// The handler's output is buffered using an httptest.ResponseRecorder and any
// returned error is stored in the request context. Then:
//   - An error without an HTTP error status code (status < 400) is treated as
//     an internal error. The buffered response is discarded and a 500 page is
//     rendered.
//   - A 404 Not Found status also discards the buffered response in favour of
//     the error page.
//   - Any other response is written to the client as recorded.
//
// Finally, the request is logged via the audit package.
func CatchError(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := request_context.FromRequest(r)

		span := audit.Span{
			Destination: audit.ToUser,
			RequestID:   ctx.RequestID,
			SessionID:   ctx.SessionID,
			Method:      r.Method,
			URL:         r.URL.String(),
		}

		_ = span.Begin(r.Context())
		defer span.End()

		recorder := httptest.NewRecorder()

		err := handler(recorder, r)

		ctx.RequestError = err

		if (err != nil && recorder.Code < http.StatusBadRequest) || recorder.Code == http.StatusNotFound {
			if recorder.Code == http.StatusNotFound {
				ctx.StatusCode = http.StatusNotFound
			} else {
				ctx.StatusCode = http.StatusInternalServerError
			}

			counter := &countingWriter{ResponseWriter: w}

			counter.WriteHeader(ctx.StatusCode)
			routes.ErrorPage(counter, r)

			span.Size = counter.n
		} else {
			if recorder.Code == 0 {
				recorder.Code = http.StatusOK
			}

			ctx.StatusCode = recorder.Code
			maps.Copy(w.Header(), recorder.Header())
			w.WriteHeader(recorder.Code)

			n, err := recorder.Body.WriteTo(w)
			if err != nil {
				log.Err(err).Msg("Failed to write response body")
			}

			span.Size = int(n)
		}

		span.End()

		span.StatusCode = ctx.StatusCode
		span.Error = ctx.RequestError

		if !config.Global.ShouldSkipServerLogging(r.URL.Path) {
			span.Log()
		}
	}
}

// countingWriter counts the bytes of the body written through it.
type countingWriter struct {
	http.ResponseWriter

	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.ResponseWriter.Write(p)
	c.n += n

	return n, err
}
