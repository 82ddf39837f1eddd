package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/mintpick/internal/schema"
)

const (
	facetPanelRows = 8
	outputRows     = 10
	imageColWidth  = 18
	markerWidth    = 6 // "> [x] "
)

// View renders the screen.
func (a *App) View() string {
	var sections []string
	sections = append(sections, a.renderHeader())
	switch a.state {
	case stateLoading:
		sections = append(sections, "", "Loading collection...")
	case stateFailed:
		sections = append(sections, "", "The collection could not be loaded. Press q to quit.")
	default:
		sections = append(sections, a.renderToolbar())
		if a.mode == modeSearch {
			sections = append(sections, a.search.View())
		}
		sections = append(sections, a.renderTable())
		if a.mode == modeFacet {
			sections = append(sections, a.renderFacetPanel())
		}
		if a.showOutput && a.lastExport != nil {
			sections = append(sections, a.renderOutput())
		}
	}
	body := strings.Join(sections, "\n")
	return a.placeWithFooter(body, a.renderStatus(), a.renderFooter(a.helpBindings()))
}

func (a *App) helpBindings() []key.Binding {
	switch a.mode {
	case modeSearch:
		return a.keys.searchHelp()
	case modeFacet:
		return a.keys.facetHelp()
	default:
		return a.keys.tableHelp()
	}
}

func (a *App) renderHeader() string {
	line := headerAppStyle.Render("mintpick")
	if a.dataset != nil {
		line += "  " + sanitize(a.dataset.Title())
	}
	if a.grid != nil {
		line += "  " + countStyle.Render(fmt.Sprintf("%d tokens", a.grid.Len())) +
			" · " + countStyle.Render(fmt.Sprintf("%d shown", a.grid.FilteredCount())) +
			" · " + countStyle.Render(fmt.Sprintf("%d selected", a.grid.SelectedCount()))
		if a.mintIssues > 0 {
			line += " · " + warnStyle.Render(fmt.Sprintf("%d bad mints", a.mintIssues))
		}
	}
	if a.width == 0 {
		return headerBarStyle.Render(line)
	}
	return headerBarStyle.Width(a.width).Render(line)
}

func (a *App) renderToolbar() string {
	var buttons []string
	for _, action := range a.toolbar.Actions() {
		label := fmt.Sprintf("[%s] %s", action.Key, action.Text)
		if action.Enabled(a.grid) {
			buttons = append(buttons, buttonStyle.Render(label))
		} else {
			buttons = append(buttons, disabledButtonStyle.Render(label))
		}
	}
	line := strings.Join(buttons, " ")
	if q := a.grid.Search(); q != "" && a.mode != modeSearch {
		line += "  search: " + sanitize(q)
	}
	if active := a.grid.ActiveFacets(); len(active) > 0 {
		line += "  filters: " + sanitize(strings.Join(active, ", "))
	}
	return line
}

func (a *App) columnWidths(rows []int) []int {
	cols := a.grid.Columns()
	limit := a.cfg.UI.MaxColumnWidth
	if limit <= 0 {
		limit = 28
	}
	widths := make([]int, len(cols))
	for j, c := range cols {
		w := ansi.StringWidth(c.Title) + 2 // room for sort marker
		for _, r := range rows {
			if cw := ansi.StringWidth(sanitize(a.grid.Cell(r, j))); cw > w {
				w = cw
			}
		}
		if c.Kind == schema.KindImage && w > imageColWidth {
			w = imageColWidth
		}
		widths[j] = min(w, limit)
	}
	return widths
}

func (a *App) renderTable() string {
	filtered := a.grid.Filtered()
	visible := a.visibleRows()
	end := min(a.topIndex+visible, len(filtered))
	window := filtered[min(a.topIndex, end):end]

	cols := a.grid.Columns()
	widths := a.columnWidths(window)
	sortCol, sortAsc, sorted := a.grid.Sort()

	header := strings.Repeat(" ", markerWidth)
	for j, c := range cols {
		title := c.Title
		if sorted && sortCol == j {
			if sortAsc {
				title += " ▲"
			} else {
				title += " ▼"
			}
		}
		if len(a.grid.FacetValues(c.Key)) > 0 {
			title += "*"
		}
		cell := padRight(truncate(sanitize(title), widths[j]), widths[j])
		if j == a.colFocus {
			cell = focusHeaderStyle.Render(cell)
		} else {
			cell = tableHeaderStyle.Render(cell)
		}
		header += cell + "  "
	}
	lines := []string{a.clip(header)}

	if len(filtered) == 0 {
		lines = append(lines, scrollStyle.Render("── no matching tokens ──"))
		return strings.Join(lines, "\n")
	}

	for n, r := range window {
		idx := a.topIndex + n
		prefix := "  "
		if idx == a.cursor {
			prefix = cursorStyle.Render("> ")
		}
		box := "[ ] "
		if a.grid.IsSelected(r) {
			box = selectedStyle.Render("[x]") + " "
		}
		line := prefix + box
		for j, c := range cols {
			cell := padRight(truncate(sanitize(a.grid.Cell(r, j)), widths[j]), widths[j])
			if c.Kind == schema.KindImage {
				cell = imageStyle.Render(cell)
			}
			line += cell + "  "
		}
		lines = append(lines, a.clip(line))
	}

	start := a.topIndex + 1
	lines = append(lines, scrollStyle.Render(fmt.Sprintf("── showing %d-%d of %d ──", start, end, len(filtered))))
	return strings.Join(lines, "\n")
}

func (a *App) renderFacetPanel() string {
	title := "Filter: " + sanitize(a.facetKey)
	var lines []string
	lines = append(lines, headerAppStyle.Render(title))
	if len(a.facetOptions) == 0 {
		lines = append(lines, "(no values)")
		return panelStyle.Render(strings.Join(lines, "\n"))
	}
	top := 0
	if a.facetCursor >= facetPanelRows {
		top = a.facetCursor - facetPanelRows + 1
	}
	end := min(top+facetPanelRows, len(a.facetOptions))
	for i := top; i < end; i++ {
		opt := a.facetOptions[i]
		prefix := "  "
		if i == a.facetCursor {
			prefix = cursorStyle.Render("> ")
		}
		box := "[ ]"
		if opt.Active {
			box = selectedStyle.Render("[x]")
		}
		value := sanitize(opt.Value)
		if value == "" {
			value = "(empty)"
		}
		lines = append(lines, fmt.Sprintf("%s%s %s %s", prefix, box, value, countStyle.Render(fmt.Sprintf("%d/%d", opt.Count, opt.Total))))
	}
	if len(a.facetOptions) > facetPanelRows {
		lines = append(lines, scrollStyle.Render(fmt.Sprintf("%d values", len(a.facetOptions))))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) renderOutput() string {
	text, err := a.lastExport.JSON()
	if err != nil {
		return errorStatusStyle.Render("error: " + err.Error())
	}
	jsonLines := strings.Split(string(text), "\n")
	// "[" plus outputRows mints plus "]"
	if len(jsonLines) > outputRows+2 {
		hidden := len(jsonLines) - outputRows - 1
		jsonLines = append(jsonLines[:outputRows+1], scrollStyle.Render(fmt.Sprintf("… %d more lines (y copies all)", hidden)))
	}
	content := outputLabelStyle.Render(sanitize(a.lastExport.Label)) + "\n" + strings.Join(jsonLines, "\n")
	return outputStyle.Render(content)
}

func (a *App) renderStatus() string {
	style := statusBarStyle
	if a.statusIsErr {
		style = errorStatusStyle
	}
	flat := strings.ReplaceAll(a.status, "\n", " ")
	if a.width == 0 {
		return style.Render(flat)
	}
	return style.Width(a.width).Render(a.clip(flat))
}

func (a *App) renderFooter(bindings []key.Binding) string {
	// Every character carries the footer background.
	bg := colorMantle
	keyStyle := helpKeyStyle.Background(bg)
	descStyle := helpDescStyle.Background(bg)
	space := lipgloss.NewStyle().Background(bg).Render(" ")
	sep := lipgloss.NewStyle().Background(bg).Render("  ")

	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		if help.Key == "" && help.Desc == "" {
			continue
		}
		parts = append(parts, keyStyle.Render(help.Key)+space+descStyle.Render(help.Desc))
	}
	content := strings.Join(parts, sep)

	if a.width == 0 {
		return footerStyle.Render(content)
	}
	return footerStyle.Width(a.width).Render(content)
}

func (a *App) placeWithFooter(body, statusLine, footer string) string {
	if a.height == 0 {
		return body + "\n\n" + statusLine + "\n" + footer
	}
	contentHeight := max(1, a.height-2)
	if lipgloss.Height(body) >= contentHeight {
		return body + "\n" + statusLine + "\n" + footer
	}
	main := lipgloss.Place(a.width, contentHeight, lipgloss.Left, lipgloss.Top, body)
	return main + "\n" + statusLine + "\n" + footer
}

func (a *App) clip(line string) string {
	if a.width <= 0 {
		return line
	}
	return ansi.Truncate(line, a.width, "…")
}

// sanitize drops escape sequences and control characters from collection text
// so a cell cannot repaint the terminal.
func sanitize(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return ' '
		}
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0) {
			return -1
		}
		return r
	}, s)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

func padRight(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
