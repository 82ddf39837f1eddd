package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("mintpick: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "mintpick",
		Usage: "Browse an NFT collection by trait, pick tokens and export their mint addresses.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "config file (default ~/.config/mintpick/config.toml)",
				EnvVars: []string{"MINTPICK_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "collection",
				Aliases: []string{"c"},
				Usage:   "collection JSON file or http(s) URL",
			},
		},
		Action: browse,
		Commands: []*cli.Command{
			{
				Name:   "browse",
				Usage:  "Open the interactive token table",
				Action: browse,
			},
			{
				Name:  "serve",
				Usage: "Serve the token table as an HTML page",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "listen address (overrides server.addr)"},
					&cli.BoolFlag{Name: "open", Usage: "open the page in a browser"},
				},
				Action: serve,
			},
			{
				Name:  "export",
				Usage: "Select the filtered tokens and print their mint addresses",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "search terms, all must match"},
					&cli.StringSliceFlag{Name: "facet", Aliases: []string{"f"}, Usage: "trait filter Key=Value (repeatable)"},
					&cli.BoolFlag{Name: "json", Usage: "print only the JSON list, without the label"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write to file instead of stdout"},
				},
				Action: exportMints,
			},
			{
				Name:  "sample",
				Usage: "Write a synthetic collection document for trying the table out",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "tokens", Aliases: []string{"n"}, Value: 500, Usage: "number of tokens"},
					&cli.Int64Flag{Name: "seed", Value: 1, Usage: "random seed"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write to file instead of stdout"},
				},
				Action: writeSample,
			},
			{
				Name:      "scrape",
				Usage:     "Build a collection document from chain data",
				ArgsUsage: "<collection address>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "rpc",
						Usage:   "Solana RPC URL (overrides scrape.rpc_url)",
						EnvVars: []string{"SOLANA_RPC_URL", "ANCHOR_PROVIDER_URL"},
					},
					&cli.IntFlag{Name: "concurrency", Usage: "metadata fetches in flight (overrides scrape.concurrency)"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default <scrape.out_dir>/<address>.json)"},
				},
				Action: scrapeCollection,
			},
			{
				Name:   "columns",
				Usage:  "Print the column schema derived from the collection's trait types",
				Action: columns,
			},
		},
	}
}
