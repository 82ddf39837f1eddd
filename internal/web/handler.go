package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jask/mintpick/internal/collection"
	"github.com/jask/mintpick/internal/export"
	"github.com/jask/mintpick/internal/grid"
	"github.com/jask/mintpick/internal/schema"
	"github.com/jask/mintpick/internal/toolbar"
)

// Options configures a Handler.
type Options struct {
	// Title is shown in the page heading, usually the collection name.
	Title string
	// Label prefixes exports served from /api/export.
	Label    string
	PageSize int
}

// Handler serves the table page and the JSON API over one shared grid.
type Handler struct {
	mu       sync.Mutex
	grid     *grid.Grid
	toolbar  *toolbar.Toolbar
	opts     Options
	last     *export.Payload
	status   string
	log      *zap.Logger
	router   *mux.Router
	mintBad  int
	pageTmpl *template.Template
}

// NewHandler routes requests to g and tb. badMints is shown as a warning count.
func NewHandler(g *grid.Grid, tb *toolbar.Toolbar, opts Options, badMints int, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	h := &Handler{
		grid:     g,
		toolbar:  tb,
		opts:     opts,
		log:      log,
		mintBad:  badMints,
		pageTmpl: pageTemplate,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", h.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/rows/{index:[0-9]+}/toggle", h.handleToggle).Methods(http.MethodPost)
	r.HandleFunc("/actions/{name}", h.handleAction).Methods(http.MethodPost)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/columns", h.handleColumns).Methods(http.MethodGet)
	api.HandleFunc("/tokens", h.handleTokens).Methods(http.MethodGet)
	api.HandleFunc("/export", h.handleExport).Methods(http.MethodGet)
	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// applyView parses v and applies it to the grid. Callers hold h.mu.
func (h *Handler) applyView(v url.Values) (viewState, error) {
	vs, err := parseView(v, h.grid.Columns())
	if err != nil {
		return viewState{}, err
	}
	if err := vs.apply(h.grid); err != nil {
		return viewState{}, err
	}
	return vs, nil
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	vs, err := h.applyView(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := h.buildPage(vs)
	if err != nil {
		h.log.Error("build page", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := h.pageTmpl.Execute(&buf, data); err != nil {
		h.log.Error("render page", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// formView reads the "view" form field carrying the page's query string.
func formView(r *http.Request) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return url.ParseQuery(r.PostFormValue("view"))
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		http.Error(w, "bad row index", http.StatusBadRequest)
		return
	}
	v, err := formView(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	vs, err := parseView(v, h.grid.Columns())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.grid.Toggle(index); err != nil {
		if errors.Is(err, grid.ErrOutOfRange) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.status = fmt.Sprintf("%d selected", h.grid.SelectedCount())
	http.Redirect(w, r, vs.href(), http.StatusSeeOther)
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	v, err := formView(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Actions see the same filter and order the page showed.
	vs, err := h.applyView(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := h.toolbar.Trigger(name, h.grid)
	switch {
	case errors.Is(err, toolbar.ErrUnknownAction):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, toolbar.ErrDisabled):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.status = res.Status
	if res.Export != nil {
		h.last = res.Export
	}
	http.Redirect(w, r, vs.href(), http.StatusSeeOther)
}

type columnJSON struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
	Facet bool   `json:"facet"`
}

func (h *Handler) handleColumns(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	cols := h.grid.Columns()
	h.mu.Unlock()

	out := make([]columnJSON, len(cols))
	for i, c := range cols {
		out[i] = columnJSON{Key: c.Key, Title: c.Title, Kind: c.Kind.String(), Facet: c.Facet}
	}
	writeJSON(w, http.StatusOK, out)
}

type tokenJSON struct {
	Index    int              `json:"index"`
	Selected bool             `json:"selected"`
	Token    collection.Token `json:"token"`
}

type tokensJSON struct {
	Total    int         `json:"total"`
	Filtered int         `json:"filtered"`
	Selected int         `json:"selected"`
	Tokens   []tokenJSON `json:"tokens"`
}

// handleTokens lists the filtered view. With a page parameter only that page is
// returned.
func (h *Handler) handleTokens(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	q := r.URL.Query()
	vs, err := h.applyView(q)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows := h.grid.Filtered()
	if q.Has("page") {
		rows = h.grid.Page(vs.Page, h.opts.PageSize)
	}

	out := tokensJSON{
		Total:    h.grid.Len(),
		Filtered: h.grid.FilteredCount(),
		Selected: h.grid.SelectedCount(),
		Tokens:   make([]tokenJSON, 0, len(rows)),
	}
	for _, row := range rows {
		tok, err := h.grid.Token(row)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out.Tokens = append(out.Tokens, tokenJSON{Index: row, Selected: h.grid.IsSelected(row), Token: tok})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleExport returns the selected mints, in the order given by the sort
// parameters, as an indented JSON array. An empty selection is "[]".
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.applyView(r.URL.Query()); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := export.New(h.opts.Label, h.grid.Selected())
	data, err := p.JSON()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.log.Info("api export", zap.String("export_id", p.ID), zap.Int("mints", len(p.Mints)))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Export-Id", p.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(data, '\n'))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// buildPage assembles template data for the grid's current view. Callers hold h.mu.
func (h *Handler) buildPage(vs viewState) (pageData, error) {
	g := h.grid
	pages := g.Pages(h.opts.PageSize)
	page := min(vs.Page, pages-1)
	vs = vs.withPage(page)

	data := pageData{
		Title:    h.opts.Title,
		Total:    g.Len(),
		Shown:    g.FilteredCount(),
		Selected: g.SelectedCount(),
		BadMints: h.mintBad,
		Query:    vs.Query,
		View:     vs.encode(),
		Page:     page + 1,
		Pages:    pages,
		Status:   h.status,
	}
	if page > 0 {
		data.PrevHref = vs.withPage(page - 1).href()
	}
	if page+1 < pages {
		data.NextHref = vs.withPage(page + 1).href()
	}
	// The search form resubmits everything except q and page.
	hidden := vs.clone()
	hidden.Query, hidden.Page = "", 0
	for k, vals := range hidden.values() {
		for _, v := range vals {
			data.SearchHidden = append(data.SearchHidden, hiddenField{Name: k, Value: v})
		}
	}
	if vs.Query != "" || len(vs.FacetKeys) > 0 || vs.SortKey != "" {
		data.ResetHref = "/"
	}

	for _, a := range h.toolbar.Actions() {
		data.Actions = append(data.Actions, actionButton{Name: a.Name, Text: a.Text, Enabled: a.Enabled(g)})
	}

	cols := g.Columns()
	sortCol, sortAsc, sorted := g.Sort()
	for j, c := range cols {
		hc := headerCell{Title: c.Title, Href: vs.withSort(c.Key).href()}
		if sorted && sortCol == j {
			hc.Marker = "▲"
			if !sortAsc {
				hc.Marker = "▼"
			}
		}
		data.Headers = append(data.Headers, hc)

		if !c.Facet {
			continue
		}
		opts, err := g.Facets(c.Key)
		if err != nil {
			return pageData{}, err
		}
		pane := facetPane{Title: c.Title}
		for _, o := range opts {
			label := o.Value
			if label == "" {
				label = "(empty)"
			}
			pane.Options = append(pane.Options, facetLink{
				Label:  label,
				Count:  o.Count,
				Total:  o.Total,
				Active: o.Active,
				Href:   vs.withFacetToggled(c.Key, o.Value).href(),
			})
		}
		data.Facets = append(data.Facets, pane)
	}

	for _, row := range g.Page(page, h.opts.PageSize) {
		rd := rowData{Index: row, Selected: g.IsSelected(row)}
		for j, c := range cols {
			rd.Cells = append(rd.Cells, cellData{Text: g.Cell(row, j), Image: c.Kind == schema.KindImage})
		}
		data.Rows = append(data.Rows, rd)
	}

	if h.last != nil {
		var buf bytes.Buffer
		if err := h.last.WriteHTML(&buf); err != nil {
			return pageData{}, err
		}
		// WriteHTML escapes through html/template.
		data.Export = template.HTML(buf.String())
		data.ExportID = h.last.ID
	}
	return data, nil
}
