// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"
	"path"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/erikvoorbraak/knvvl-exam/core/app"
	"github.com/erikvoorbraak/knvvl-exam/core/navigation"
	"github.com/erikvoorbraak/knvvl-exam/server/request_context"
)

// HeaderHTMXRedirect makes htmx replace the whole page with a full navigation.
const HeaderHTMXRedirect = "HX-Redirect"

// Navigate serves every app route of a.
//
// Only GET and HEAD are allowed. Unmatched paths and paths that look like
// files are answered with 404. htmx requests get the content of the mount
// target, other requests the full root document.
func Navigate(a *app.App) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		rc := request_context.FromRequest(r)

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)

			return errors.Newf("method %s not allowed", r.Method)
		}

		if strings.Contains(path.Base(r.URL.Path), ".") {
			w.WriteHeader(http.StatusNotFound)

			return errors.Newf("no file at %s", r.URL.Path)
		}

		out, err := a.Router().Navigate(r.Context(), rc.SessionID, r.URL.EscapedPath())
		if errors.Is(err, navigation.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)

			return err
		}

		if err != nil {
			return err
		}

		if out.Kind == navigation.Redirected {
			return redirect(w, r, rc, out.URL)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		if rc.IsFragment {
			return a.RenderFragment(r.Context(), w, out)
		}

		return a.Render(r.Context(), w, out)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, rc *request_context.RequestContext, url string) error {
	// Without a backend owning the login page, the login route points at itself.
	if url == r.URL.EscapedPath() {
		w.WriteHeader(http.StatusNotFound)

		return errors.Newf("%s redirects to itself", url)
	}

	w.Header().Set("Cache-Control", "no-store")

	if rc.IsFragment {
		w.Header().Set(HeaderHTMXRedirect, url)
		w.WriteHeader(http.StatusOK)

		return nil
	}

	http.Redirect(w, r, url, http.StatusFound)

	return nil
}
