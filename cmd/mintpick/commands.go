package main

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/jask/mintpick/internal/collection"
	"github.com/jask/mintpick/internal/config"
	"github.com/jask/mintpick/internal/export"
	"github.com/jask/mintpick/internal/grid"
	"github.com/jask/mintpick/internal/logging"
	"github.com/jask/mintpick/internal/sample"
	"github.com/jask/mintpick/internal/schema"
	"github.com/jask/mintpick/internal/scrape"
	"github.com/jask/mintpick/internal/toolbar"
	"github.com/jask/mintpick/internal/tui"
	"github.com/jask/mintpick/internal/web"
)

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	if src := c.String("collection"); src != "" {
		cfg.Collection.Source = src
	}
	return cfg, nil
}

func newLoader(cfg config.Config) *collection.Loader {
	return collection.NewLoader(collection.WithTimeout(cfg.Collection.Timeout))
}

// openGrid loads the collection and builds the table over it.
func openGrid(c *cli.Context, cfg config.Config, log *zap.Logger) (*collection.Dataset, *grid.Grid, int, error) {
	ds, err := newLoader(cfg).Load(c.Context, cfg.Collection.Source)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("load collection: %w", err)
	}
	issues := ds.MintIssues()
	collection.LogMintIssues(log, issues)
	log.Info("collection loaded",
		zap.String("source", ds.Source),
		zap.Int("tokens", len(ds.Tokens)),
		zap.Strings("trait_types", ds.TraitTypes),
	)
	g := grid.New(schema.Build(ds.TraitTypes), ds.Tokens, grid.Options{FuzzyDistance: cfg.UI.FuzzyDistance})
	return ds, g, len(issues), nil
}

func browse(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	p := tea.NewProgram(tui.New(c.Context, cfg, tui.Deps{
		Loader: newLoader(cfg),
		Log:    logger,
	}), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	cfg.Log.Console = true
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ds, g, badMints, err := openGrid(c, cfg, logger)
	if err != nil {
		return err
	}
	h := web.NewHandler(g, toolbar.Default(logger, cfg.Export.Label), web.Options{
		Title:    ds.Title(),
		Label:    cfg.Export.Label,
		PageSize: cfg.UI.PageSize,
	}, badMints, logger)
	srv := web.NewServer(cfg.Server, logger, h)

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	url := "http://" + ln.Addr().String() + "/"
	if cfg.Server.OpenBrowser || c.Bool("open") {
		if err := browser.OpenURL(url); err != nil {
			logger.Warn("open browser", zap.String("url", url), zap.Error(err))
		}
	}
	return srv.Serve(ctx, ln)
}

func exportMints(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	_, g, _, err := openGrid(c, cfg, logger)
	if err != nil {
		return err
	}
	g.SetSearch(c.String("search"))
	keys, values, err := grid.ParseFacetArgs(c.StringSlice("facet"), g.Columns())
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := g.SetFacet(k, values[k]); err != nil {
			return err
		}
	}

	tb := toolbar.Default(logger, cfg.Export.Label)
	if _, err := tb.Trigger(toolbar.SelectFiltered, g); err != nil {
		return err
	}
	// With nothing selected the export button is disabled; the CLI still prints "[]".
	p := export.New(cfg.Export.Label, nil)
	if g.SelectedCount() > 0 {
		res, err := tb.Trigger(toolbar.ExportSelected, g)
		if err != nil {
			return err
		}
		p = *res.Export
	}

	var text string
	if c.Bool("json") {
		data, err := p.JSON()
		if err != nil {
			return err
		}
		text = string(data)
	} else if text, err = p.Text(); err != nil {
		return err
	}

	if out := c.String("out"); out != "" {
		if err := os.WriteFile(out, []byte(text+"\n"), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintf(c.App.ErrWriter, "wrote %d mint addresses to %s\n", len(p.Mints), out)
		return nil
	}
	_, err = fmt.Fprintln(c.App.Writer, text)
	return err
}

func columns(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ds, err := newLoader(cfg).Load(c.Context, cfg.Collection.Source)
	if err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	return printColumns(c.App.Writer, schema.Build(ds.TraitTypes))
}

func printColumns(w io.Writer, cols []schema.Column) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTITLE\tKIND\tFILTER")
	for _, col := range cols {
		filter := "-"
		if col.Facet {
			filter = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", col.Key, col.Title, col.Kind, filter)
	}
	return tw.Flush()
}

func writeSample(c *cli.Context) error {
	n := c.Int("tokens")
	if n < 0 {
		return fmt.Errorf("tokens must not be negative, got %d", n)
	}
	ds := sample.Collection(sample.Options{Tokens: n, Seed: c.Int64("seed")})
	return writeDocument(c, ds, c.String("out"))
}

func scrapeCollection(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("scrape takes one collection address, got %d arguments", c.NArg())
	}
	address := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rpcURL := c.String("rpc")
	if rpcURL == "" {
		rpcURL = cfg.Scrape.RPCURL
	}
	if rpcURL == "" {
		return fmt.Errorf("no RPC URL: pass --rpc, set SOLANA_RPC_URL or scrape.rpc_url")
	}
	if n := c.Int("concurrency"); n > 0 {
		cfg.Scrape.Concurrency = n
	}
	cfg.Log.Console = true
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	rpc := scrape.NewRPCClient(rpcURL,
		scrape.WithTimeout(cfg.Scrape.Timeout),
		scrape.WithMaxRetries(cfg.Scrape.MaxRetries),
		scrape.WithRetryDelay(cfg.Scrape.RetryDelay),
	)
	s := scrape.New(rpc,
		scrape.WithLogger(logger),
		scrape.WithConcurrency(cfg.Scrape.Concurrency),
		scrape.WithFetchRetries(cfg.Scrape.MaxRetries, cfg.Scrape.RetryDelay),
		scrape.WithFetchClient(&http.Client{Timeout: cfg.Scrape.Timeout}),
	)
	ds, stats, err := s.Run(c.Context, address)
	if err != nil {
		return fmt.Errorf("scrape %s: %w", address, err)
	}
	fmt.Fprintf(c.App.ErrWriter, "parsed %d tokens, skipped %d tokens\n", stats.Parsed, stats.Skipped)

	out := c.String("out")
	if out == "" {
		out = filepath.Join(cfg.Scrape.OutDir, address+".json")
	}
	return writeDocument(c, ds, out)
}

// writeDocument encodes ds to path, creating its directory, or prints it when
// path is empty.
func writeDocument(c *cli.Context, ds *collection.Dataset, path string) error {
	data, err := collection.Encode(ds)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = fmt.Fprintln(c.App.Writer, string(data))
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(c.App.ErrWriter, "wrote %d tokens to %s\n", len(ds.Tokens), path)
	return nil
}
