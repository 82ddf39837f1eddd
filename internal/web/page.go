package web

import "html/template"

type pageData struct {
	Title    string
	Total    int
	Shown    int
	Selected int
	BadMints int

	Query        string
	View         string
	SearchHidden []hiddenField
	ResetHref    string

	Actions []actionButton
	Facets  []facetPane
	Headers []headerCell
	Rows    []rowData

	Page     int
	Pages    int
	PrevHref string
	NextHref string

	Status   string
	Export   template.HTML
	ExportID string
}

type hiddenField struct {
	Name  string
	Value string
}

type actionButton struct {
	Name    string
	Text    string
	Enabled bool
}

type facetPane struct {
	Title   string
	Options []facetLink
}

type facetLink struct {
	Label  string
	Count  int
	Total  int
	Active bool
	Href   string
}

type headerCell struct {
	Title  string
	Href   string
	Marker string
}

type rowData struct {
	Index    int
	Selected bool
	Cells    []cellData
}

type cellData struct {
	Text  string
	Image bool
}

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

const pageHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>mintpick</title>
  <style>
    :root { --bg: #1e1e2e; --surface: #313244; --text: #cdd6f4; --sub: #a6adc8; --accent: #89b4fa; --green: #a6e3a1; --red: #f38ba8; }
    body { background: var(--bg); color: var(--text); font-family: ui-monospace, monospace; margin: 1.5rem; }
    a { color: var(--accent); text-decoration: none; }
    header { display: flex; gap: 1rem; align-items: baseline; }
    .counts { color: var(--sub); }
    .warn { color: var(--red); }
    .toolbar { display: flex; gap: .5rem; margin: 1rem 0; }
    .toolbar form, td form { display: inline; }
    button { background: var(--surface); color: var(--text); border: 1px solid var(--accent); padding: .3rem .7rem; cursor: pointer; }
    button:disabled { opacity: .4; cursor: default; }
    .panes { display: flex; gap: 1rem; flex-wrap: wrap; }
    .pane { background: var(--surface); padding: .5rem; max-height: 12rem; overflow-y: auto; min-width: 10rem; }
    .pane h3 { margin: 0 0 .3rem; font-size: .9rem; }
    .pane a { display: block; }
    .pane a.active { color: var(--green); }
    .count { color: var(--sub); }
    table { border-collapse: collapse; margin-top: 1rem; width: 100%; }
    th, td { text-align: left; padding: .25rem .5rem; border-bottom: 1px solid var(--surface); }
    tr.selected { background: var(--surface); }
    td img { height: 48px; width: 48px; object-fit: cover; }
    .status { color: var(--green); }
    .export { background: var(--surface); padding: .75rem; margin-top: 1rem; }
    .export-json { white-space: pre; }
  </style>
</head>
<body>
  <header>
    <h1>mintpick</h1>
    <span>{{.Title}}</span>
    <span class="counts">{{.Total}} tokens · {{.Shown}} shown · {{.Selected}} selected</span>
    {{if .BadMints}}<span class="warn">{{.BadMints}} bad mints</span>{{end}}
  </header>

  <form method="get" action="/">
    <input type="search" name="q" value="{{.Query}}" placeholder="Search" />
    {{range .SearchHidden}}<input type="hidden" name="{{.Name}}" value="{{.Value}}" />{{end}}
    <button type="submit">Search</button>
    {{if .ResetHref}}<a href="{{.ResetHref}}">reset</a>{{end}}
  </form>

  <div class="toolbar">
    {{$view := .View}}
    {{range .Actions}}
    <form method="post" action="/actions/{{.Name}}">
      <input type="hidden" name="view" value="{{$view}}" />
      <button type="submit"{{if not .Enabled}} disabled{{end}}>{{.Text}}</button>
    </form>
    {{end}}
  </div>

  <div class="panes">
    {{range .Facets}}
    <div class="pane">
      <h3>{{.Title}}</h3>
      {{range .Options}}<a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{if .Active}}☑{{else}}☐{{end}} {{.Label}} <span class="count">{{.Count}}/{{.Total}}</span></a>{{end}}
    </div>
    {{end}}
  </div>

  {{if .Status}}<p class="status">{{.Status}}</p>{{end}}

  <table>
    <thead>
      <tr>
        <th></th>
        {{range .Headers}}<th><a href="{{.Href}}">{{.Title}}</a> {{.Marker}}</th>{{end}}
      </tr>
    </thead>
    <tbody>
      {{range .Rows}}
      <tr{{if .Selected}} class="selected"{{end}}>
        <td>
          <form method="post" action="/rows/{{.Index}}/toggle">
            <input type="hidden" name="view" value="{{$view}}" />
            <button type="submit" aria-label="toggle row {{.Index}}">{{if .Selected}}☑{{else}}☐{{end}}</button>
          </form>
        </td>
        {{range .Cells}}<td>{{if .Image}}{{if .Text}}<img src="{{.Text}}" alt="" loading="lazy" />{{end}}{{else}}{{.Text}}{{end}}</td>{{end}}
      </tr>
      {{else}}
      <tr><td colspan="{{len .Headers}}">No matching tokens</td></tr>
      {{end}}
    </tbody>
  </table>

  <p>
    {{if .PrevHref}}<a href="{{.PrevHref}}">‹ prev</a>{{end}}
    page {{.Page}} of {{.Pages}}
    {{if .NextHref}}<a href="{{.NextHref}}">next ›</a>{{end}}
  </p>

  {{if .Export}}
  <section class="export" id="export" data-export-id="{{.ExportID}}">
    {{.Export}}
  </section>
  {{end}}
</body>
</html>
`
