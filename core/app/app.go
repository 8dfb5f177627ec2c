// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package app is the bootstrapper of the admin front end.

An App is built from an explicit store and router, gets its global widgets
registered and is then mounted into the root HTML document. After mounting,
every rendered view is written into the document's mount target.
*/
package app

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/erikvoorbraak/knvvl-exam/assets/views"
	"github.com/erikvoorbraak/knvvl-exam/core/lrucache"
	"github.com/erikvoorbraak/knvvl-exam/core/navigation"
	"github.com/erikvoorbraak/knvvl-exam/core/store"
	"github.com/erikvoorbraak/knvvl-exam/i18n"
)

// Bootstrap and mount errors.
var (
	ErrNotReady            = errors.New("app is not ready")
	ErrAlreadyMounted      = errors.New("app is already mounted")
	ErrMountTargetNotFound = errors.New("mount target not found in root document")
	ErrDuplicateComponent  = errors.New("component already registered")
	ErrAlreadyBootstrapped = errors.New("app has already been bootstrapped")
)

// StoreID is the id of the store container holding instance information.
const StoreID = "app"

// DefaultRootDocument is the name of the root document in the assets filesystem.
const DefaultRootDocument = "index.html"

const (
	outlet     = "<!--app-outlet-->"
	titleToken = "__APP_TITLE__"
	langToken  = "__APP_LANG__"

	defaultFragmentCacheSize = 256
)

// RootDocument is the HTML page the app is mounted into.
type RootDocument struct {
	Name string
	HTML []byte
}

// ReadRootDocument reads the root document name from fsys.
func ReadRootDocument(fsys fs.FS, name string) (RootDocument, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return RootDocument{}, errors.Wrapf(err, "read root document %s", name)
	}

	return RootDocument{Name: name, HTML: data}, nil
}

// Info describes the running instance. It is shown in the footer and kept in
// the app store container.
type Info struct {
	Title     string
	Version   string
	StartedAt string
}

// App is the mounted front end.
type App struct {
	root   RootDocument
	store  *store.Store
	state  *store.State
	router *navigation.Router
	info   Info

	cacheSize int
	fragments *lrucache.Cache

	mu       sync.RWMutex
	widgets  map[string]views.Widget
	selector string
	mounted  bool
	// before and after are the root document around the mount target content.
	before, after string

	logger zerolog.Logger
}

// Option configures an App.
type Option func(*App)

// WithInfo sets the instance information.
func WithInfo(info Info) Option {
	return func(a *App) {
		a.info = info
	}
}

// WithFragmentCache sets how many rendered views are kept. Zero disables the cache.
func WithFragmentCache(size int) Option {
	return func(a *App) {
		if size >= 0 {
			a.cacheSize = size
		}
	}
}

// New returns an unmounted App. The store and the router are required.
func New(root RootDocument, st *store.Store, rt *navigation.Router, opts ...Option) (*App, error) {
	if st == nil || rt == nil {
		return nil, errors.Wrap(ErrNotReady, "store and router are required")
	}

	a := &App{
		root:      root,
		store:     st,
		router:    rt,
		cacheSize: defaultFragmentCacheSize,
		widgets:   make(map[string]views.Widget),
		logger:    log.With().Str("sys", "app").Logger(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.cacheSize > 0 {
		cache, err := lrucache.New(a.cacheSize, lrucache.WithCompression())
		if err != nil {
			return nil, errors.Wrap(err, "fragment cache")
		}

		a.fragments = cache
	}

	a.state = st.Define(StoreID, func() map[string]any {
		return map[string]any{
			"title":     a.info.Title,
			"version":   a.info.Version,
			"startedAt": a.info.StartedAt,
		}
	})

	return a, nil
}

// Router returns the navigation router.
func (a *App) Router() *navigation.Router {
	return a.router
}

// Store returns the state store.
func (a *App) Store() *store.Store {
	return a.store
}

// Info returns the instance information.
func (a *App) Info() Info {
	return a.info
}

// Component registers a global widget under name. Widgets must be registered before Mount.
func (a *App) Component(name string, w views.Widget) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mounted {
		return errors.Wrapf(ErrAlreadyMounted, "cannot register %s", name)
	}

	if _, ok := a.widgets[name]; ok {
		return errors.Wrapf(ErrDuplicateComponent, "%s", name)
	}

	if w == nil {
		return errors.Newf("app: widget %s is nil", name)
	}

	a.widgets[name] = w

	return nil
}

// Widget returns the widget registered under name.
func (a *App) Widget(name string) (views.Widget, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	w, ok := a.widgets[name]

	return w, ok
}

// Mount attaches the app to the element of the root document matching selector.
func (a *App) Mount(selector string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mounted {
		return errors.Wrapf(ErrAlreadyMounted, "at %s", a.selector)
	}

	if len(a.widgets) == 0 {
		return errors.Wrap(ErrNotReady, "no widget registered before mount")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(a.root.HTML))
	if err != nil {
		return errors.Wrapf(err, "parse root document %s", a.root.Name)
	}

	target := doc.Find(selector)
	if target.Length() == 0 {
		return errors.Wrapf(ErrMountTargetNotFound, "selector %q in %s", selector, a.root.Name)
	}

	target.First().SetHtml(outlet)
	doc.Find("title").First().SetText(titleToken)
	doc.Find("html").SetAttr("lang", langToken)

	html, err := doc.Html()
	if err != nil {
		return errors.Wrapf(err, "render root document %s", a.root.Name)
	}

	before, after, ok := strings.Cut(html, outlet)
	if !ok {
		return errors.AssertionFailedf("outlet missing from rendered %s", a.root.Name)
	}

	a.before, a.after = before, after
	a.selector = selector
	a.mounted = true

	a.state.Patch(map[string]any{
		"mountSelector": selector,
		"mountedAt":     time.Now(),
	})

	a.logger.Info().
		Str("selector", selector).
		Str("document", a.root.Name).
		Msg("Mounted app")

	return nil
}

// Mounted reports whether Mount succeeded.
func (a *App) Mounted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.mounted
}

// Selector returns the selector of the mount target.
func (a *App) Selector() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.selector
}

// Render writes the root document with the view of out inside the mount target.
func (a *App) Render(ctx context.Context, w io.Writer, out navigation.Outcome) error {
	fragment, err := a.fragment(ctx, out)
	if err != nil {
		return err
	}

	a.mu.RLock()
	before, after := a.before, a.after
	a.mu.RUnlock()

	title := templ.EscapeString(i18n.Tr(ctx, out.Instance.Mode.Title) + " · " + a.info.Title)
	before = strings.Replace(before, titleToken, title, 1)
	before = strings.Replace(before, langToken, templ.EscapeString(i18n.TagFrom(ctx).String()), 1)

	for _, s := range []string{before, fragment, after} {
		if _, err := io.WriteString(w, s); err != nil {
			return err
		}
	}

	return nil
}

// RenderFragment writes only the content of the mount target.
func (a *App) RenderFragment(ctx context.Context, w io.Writer, out navigation.Outcome) error {
	fragment, err := a.fragment(ctx, out)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, fragment)

	return err
}

// fragment renders the shell for out. Results are cached per view instance and language.
func (a *App) fragment(ctx context.Context, out navigation.Outcome) (string, error) {
	if !a.Mounted() {
		return "", errors.Wrap(ErrNotReady, "render before mount")
	}

	if out.Kind != navigation.Rendered || out.Instance == nil {
		return "", errors.Newf("app: cannot render a %s outcome", out.Kind)
	}

	key := out.Instance.ID.String() + "|" + i18n.TagFrom(ctx).String()

	if a.fragments != nil {
		if v, ok := a.fragments.Get(key); ok {
			return v.(string), nil
		}
	}

	var buf strings.Builder

	shell := views.Shell(views.ShellData{
		Title:     a.info.Title,
		Target:    a.Selector(),
		Href:      a.router.Href,
		Current:   out.Path,
		Version:   a.info.Version,
		StartedAt: a.info.StartedAt,
		Content: views.Page(views.PageData{
			Instance: out.Instance,
			Widgets:  a,
			Target:   a.Selector(),
			Href:     a.router.Href,
		}),
	})

	if err := shell.Render(ctx, &buf); err != nil {
		return "", errors.Wrapf(err, "render %s", out.Instance.View)
	}

	s := buf.String()

	if a.fragments != nil {
		a.fragments.Add(key, s)
	}

	return s, nil
}
