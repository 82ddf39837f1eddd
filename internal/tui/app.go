package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jask/mintpick/internal/collection"
	"github.com/jask/mintpick/internal/config"
	"github.com/jask/mintpick/internal/export"
	"github.com/jask/mintpick/internal/grid"
	"github.com/jask/mintpick/internal/schema"
	"github.com/jask/mintpick/internal/toolbar"
)

// DatasetLoader retrieves the collection shown by the App.
type DatasetLoader interface {
	Load(ctx context.Context, source string) (*collection.Dataset, error)
}

// Deps are the collaborators the App needs.
type Deps struct {
	Loader    DatasetLoader
	Log       *zap.Logger
	Clipboard export.Clipboard
}

// App is the token table screen.
type App struct {
	ctx       context.Context
	cfg       config.Config
	loader    DatasetLoader
	log       *zap.Logger
	clipboard export.Clipboard
	keys      keyMap

	state   appState
	mode    inputMode
	dataset *collection.Dataset
	grid    *grid.Grid
	toolbar *toolbar.Toolbar

	cursor   int // index into the filtered view
	topIndex int
	colFocus int

	facetKey     string
	facetCursor  int
	facetOptions []grid.FacetOption

	search     textinput.Model
	lastExport *export.Payload
	showOutput bool
	mintIssues int

	status      string
	statusIsErr bool
	width       int
	height      int
}

type appState string

const (
	stateLoading appState = "loading"
	stateReady   appState = "ready"
	stateFailed  appState = "failed"
)

type inputMode string

const (
	modeTable  inputMode = "table"
	modeSearch inputMode = "search"
	modeFacet  inputMode = "facet"
)

// New creates the App. The collection is loaded by the command returned from Init.
func New(ctx context.Context, cfg config.Config, deps Deps) *App {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	cb := deps.Clipboard
	if cb == nil {
		cb = export.SystemClipboard{}
	}
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search tokens"
	ti.CharLimit = 256

	return &App{
		ctx:       ctx,
		cfg:       cfg,
		loader:    deps.Loader,
		log:       log,
		clipboard: cb,
		keys:      defaultKeys(),
		state:     stateLoading,
		mode:      modeTable,
		search:    ti,
		status:    "Loading collection...",
	}
}

// Init starts loading the collection.
func (a *App) Init() tea.Cmd {
	return a.loadDataset()
}

func (a *App) loadDataset() tea.Cmd {
	source := a.cfg.Collection.Source
	return func() tea.Msg {
		if a.loader == nil {
			return errMsg{fmt.Errorf("no collection loader configured")}
		}
		ds, err := a.loader.Load(a.ctx, source)
		if err != nil {
			return errMsg{err}
		}
		return datasetMsg{ds}
	}
}

func (a *App) copyExportCmd(p export.Payload) tea.Cmd {
	cb := a.clipboard
	return func() tea.Msg {
		if err := export.Copy(cb, p); err != nil {
			return errMsg{fmt.Errorf("copy to clipboard: %w", err)}
		}
		return statusMsg(fmt.Sprintf("copied %d mint addresses to clipboard", len(p.Mints)))
	}
}

// Update handles bubbletea messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.search.Width = max(10, m.Width-6)
		a.ensureVisible()
		return a, nil
	case datasetMsg:
		a.setDataset(m.ds)
		return a, nil
	case errMsg:
		a.log.Error("tui error", zap.Error(m.error))
		if a.state == stateLoading {
			a.state = stateFailed
		}
		a.setError(m.error)
		return a, nil
	case statusMsg:
		a.setStatus(string(m))
		return a, nil
	case tea.KeyMsg:
		if key.Matches(m, a.keys.Quit) && (a.mode != modeSearch || m.String() == "ctrl+c") {
			return a, tea.Quit
		}
		if a.state != stateReady {
			return a, nil
		}
		switch a.mode {
		case modeSearch:
			return a.handleSearchKey(m)
		case modeFacet:
			return a.handleFacetKey(m)
		default:
			return a.handleTableKey(m)
		}
	}
	if a.mode == modeSearch {
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) setDataset(ds *collection.Dataset) {
	a.dataset = ds
	cols := schema.Build(ds.TraitTypes)
	a.grid = grid.New(cols, ds.Tokens, grid.Options{FuzzyDistance: a.cfg.UI.FuzzyDistance})
	a.toolbar = toolbar.Default(a.log, a.cfg.Export.Label)
	a.state = stateReady
	a.cursor, a.topIndex = 0, 0
	a.colFocus = 0
	for i, c := range cols {
		if c.Facet {
			a.colFocus = i
			break
		}
	}

	issues := ds.MintIssues()
	a.mintIssues = len(issues)
	collection.LogMintIssues(a.log, issues)
	a.log.Info("collection loaded",
		zap.String("source", ds.Source),
		zap.Int("tokens", len(ds.Tokens)),
		zap.Int("trait_types", len(ds.TraitTypes)),
		zap.Int("invalid_mints", len(issues)),
	)

	status := fmt.Sprintf("loaded %d tokens, %d trait types", len(ds.Tokens), len(ds.TraitTypes))
	if len(issues) > 0 {
		status += fmt.Sprintf(", %d invalid mint addresses", len(issues))
	}
	a.setStatus(status)
}

func (a *App) setStatus(s string) {
	a.status = s
	a.statusIsErr = false
}

func (a *App) setError(err error) {
	a.status = "error: " + err.Error()
	a.statusIsErr = true
}

func (a *App) handleTableKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := a.grid.FilteredCount()
	switch {
	case key.Matches(m, a.keys.Up):
		a.moveCursor(-1)
	case key.Matches(m, a.keys.Down):
		a.moveCursor(1)
	case key.Matches(m, a.keys.PageUp):
		a.moveCursor(-a.visibleRows())
	case key.Matches(m, a.keys.PageDown):
		a.moveCursor(a.visibleRows())
	case key.Matches(m, a.keys.Top):
		a.moveCursor(-count)
	case key.Matches(m, a.keys.Bottom):
		a.moveCursor(count)
	case key.Matches(m, a.keys.Toggle):
		a.toggleAtCursor()
	case key.Matches(m, a.keys.Search):
		a.mode = modeSearch
		a.search.SetValue(a.grid.Search())
		a.search.CursorEnd()
		return a, a.search.Focus()
	case key.Matches(m, a.keys.PrevColumn):
		a.focusColumn(-1)
	case key.Matches(m, a.keys.NextColumn):
		a.focusColumn(1)
	case key.Matches(m, a.keys.Facet):
		a.openFacetPanel()
	case key.Matches(m, a.keys.Sort):
		a.sortFocused()
	case key.Matches(m, a.keys.Reset):
		a.grid.ClearFilters()
		a.grid.ClearSort()
		a.clampCursor()
		a.setStatus("filters and sort cleared")
	case key.Matches(m, a.keys.Copy):
		if a.lastExport == nil {
			a.setStatus("nothing exported yet")
			return a, nil
		}
		return a, a.copyExportCmd(*a.lastExport)
	case key.Matches(m, a.keys.Close):
		a.showOutput = false
	default:
		if action, ok := a.toolbar.ByKey(m.String()); ok {
			return a, a.trigger(action)
		}
	}
	return a, nil
}

func (a *App) trigger(action toolbar.Action) tea.Cmd {
	res, err := a.toolbar.Trigger(action.Name, a.grid)
	if err != nil {
		a.setError(err)
		return nil
	}
	a.setStatus(res.Status)
	if res.Export == nil {
		return nil
	}
	a.lastExport = res.Export
	a.showOutput = true
	if a.cfg.Export.Clipboard {
		return a.copyExportCmd(*res.Export)
	}
	return nil
}

func (a *App) handleSearchKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Close):
		a.search.SetValue("")
		a.grid.SetSearch("")
		a.search.Blur()
		a.mode = modeTable
		a.clampCursor()
		return a, nil
	case key.Matches(m, a.keys.Confirm):
		a.search.Blur()
		a.mode = modeTable
		a.setStatus(fmt.Sprintf("%d rows match", a.grid.FilteredCount()))
		return a, nil
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(m)
	if a.search.Value() != a.grid.Search() {
		a.grid.SetSearch(a.search.Value())
		a.clampCursor()
	}
	return a, cmd
}

func (a *App) openFacetPanel() {
	col := a.grid.Columns()[a.colFocus]
	if !col.Facet {
		a.setStatus(fmt.Sprintf("no filter panel for %s", col.Title))
		return
	}
	a.facetKey = col.Key
	a.facetCursor = 0
	a.mode = modeFacet
	a.refreshFacets()
}

func (a *App) refreshFacets() {
	opts, err := a.grid.Facets(a.facetKey)
	if err != nil {
		a.setError(err)
		a.mode = modeTable
		return
	}
	a.facetOptions = opts
	if a.facetCursor >= len(opts) {
		a.facetCursor = max(0, len(opts)-1)
	}
}

func (a *App) handleFacetKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Close), key.Matches(m, a.keys.Confirm), key.Matches(m, a.keys.Facet):
		a.mode = modeTable
	case key.Matches(m, a.keys.Up):
		if a.facetCursor > 0 {
			a.facetCursor--
		}
	case key.Matches(m, a.keys.Down):
		if a.facetCursor < len(a.facetOptions)-1 {
			a.facetCursor++
		}
	case key.Matches(m, a.keys.Toggle):
		if len(a.facetOptions) == 0 {
			return a, nil
		}
		opt := a.facetOptions[a.facetCursor]
		if err := a.grid.ToggleFacet(a.facetKey, opt.Value); err != nil {
			a.setError(err)
			return a, nil
		}
		a.refreshFacets()
		a.clampCursor()
	case key.Matches(m, a.keys.ClearFacet):
		if err := a.grid.SetFacet(a.facetKey, nil); err != nil {
			a.setError(err)
			return a, nil
		}
		a.refreshFacets()
		a.clampCursor()
	}
	return a, nil
}

func (a *App) sortFocused() {
	col, asc, ok := a.grid.Sort()
	nextAsc := true
	if ok && col == a.colFocus {
		nextAsc = !asc
	}
	if err := a.grid.SortBy(a.colFocus, nextAsc); err != nil {
		a.setError(err)
		return
	}
	dir := "ascending"
	if !nextAsc {
		dir = "descending"
	}
	a.setStatus(fmt.Sprintf("sorted by %s, %s", a.grid.Columns()[a.colFocus].Title, dir))
}

func (a *App) focusColumn(delta int) {
	n := len(a.grid.Columns())
	if n == 0 {
		return
	}
	a.colFocus = (a.colFocus + delta + n) % n
}

func (a *App) toggleAtCursor() {
	rows := a.grid.Filtered()
	if a.cursor < 0 || a.cursor >= len(rows) {
		return
	}
	if err := a.grid.Toggle(rows[a.cursor]); err != nil {
		a.setError(err)
		return
	}
	a.setStatus(fmt.Sprintf("%d selected", a.grid.SelectedCount()))
}

func (a *App) moveCursor(delta int) {
	count := a.grid.FilteredCount()
	a.cursor += delta
	if a.cursor > count-1 {
		a.cursor = count - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
	a.ensureVisible()
}

func (a *App) clampCursor() {
	a.moveCursor(0)
}

func (a *App) ensureVisible() {
	visible := a.visibleRows()
	if a.cursor < a.topIndex {
		a.topIndex = a.cursor
	} else if a.cursor >= a.topIndex+visible {
		a.topIndex = a.cursor - visible + 1
	}
	if a.topIndex < 0 {
		a.topIndex = 0
	}
}

// visibleRows is how many table rows fit on screen; only those are rendered.
func (a *App) visibleRows() int {
	if a.height == 0 {
		return max(1, a.cfg.UI.PageSize)
	}
	// header, toolbar, table header, scroll line, status, footer
	rows := a.height - 6
	if a.mode == modeSearch {
		rows--
	}
	if a.mode == modeFacet {
		rows -= min(len(a.facetOptions), facetPanelRows) + 3
	}
	if a.showOutput && a.lastExport != nil {
		rows -= min(len(a.lastExport.Mints), outputRows) + 5
	}
	return max(1, rows)
}

// messages
type datasetMsg struct{ ds *collection.Dataset }

type statusMsg string

type errMsg struct{ error }
