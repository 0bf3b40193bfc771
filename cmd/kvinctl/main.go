// Command kvinctl is a small manual-exercising CLI for the archive: it
// ingests a line-protocol or JSON tuple file and runs a fetch against
// the result, grounded on the teacher's urfave/cli/v3 command layout
// (internal/cmd/config.go).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/linkedfactory/kvingo/internal/config"
	"github.com/linkedfactory/kvingo/internal/ingest/jsonformat"
	"github.com/linkedfactory/kvingo/internal/ingest/lineprotocol"
	"github.com/linkedfactory/kvingo/internal/logging"
	"github.com/linkedfactory/kvingo/pkg/kvin"
)

func main() {
	if err := Cli().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Cli builds the kvinctl command tree.
func Cli() *cli.Command {
	return &cli.Command{
		Name:  "kvinctl",
		Usage: "ingest and query a kvingo tuple archive",
		Commands: []*cli.Command{
			putCommand(),
			fetchCommand(),
		},
	}
}

func rootFlag(dest *string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "root",
		Usage:       "archive root directory",
		Required:    true,
		Sources:     cli.EnvVars("KVINGO_ROOT"),
		Destination: dest,
	}
}

func configFlag(dest *string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "config",
		Usage:       "optional YAML config file (internal/config.Options)",
		Sources:     cli.EnvVars("KVINGO_CONFIG"),
		Destination: dest,
	}
}

// openStore loads configPath (if set) over config.Defaults(), applies
// root as an override, and opens the resulting archive.
func openStore(configPath, root string) (kvin.Store, error) {
	_, opts, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if root != "" {
		opts.Root = root
	}
	return kvin.OpenWithOptions(opts.Root, opts)
}

func putCommand() *cli.Command {
	var root, configPath, format, file string
	return &cli.Command{
		Name:  "put",
		Usage: "ingest a line-protocol or JSON tuple file",
		Flags: []cli.Flag{
			rootFlag(&root),
			configFlag(&configPath),
			&cli.StringFlag{
				Name:        "format",
				Usage:       "lineprotocol or json",
				Value:       "lineprotocol",
				Destination: &format,
			},
			&cli.StringFlag{
				Name:        "file",
				Usage:       "input file path",
				Required:    true,
				Destination: &file,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = withLogger(ctx)

			content, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			var tuples []kvin.Tuple
			switch format {
			case "lineprotocol":
				tuples, err = lineprotocol.Parse(string(content), time.Now())
			case "json":
				tuples, err = jsonformat.Parse(content)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}

			store, err := openStore(configPath, root)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Put(ctx, tuples); err != nil {
				return err
			}
			fmt.Printf("ingested %d tuples\n", len(tuples))
			return nil
		},
	}
}

func fetchCommand() *cli.Command {
	var root, configPath, item, property, contextURI string
	var limit uint64
	return &cli.Command{
		Name:  "fetch",
		Usage: "fetch tuples for an item",
		Flags: []cli.Flag{
			rootFlag(&root),
			configFlag(&configPath),
			&cli.StringFlag{Name: "item", Required: true, Destination: &item},
			&cli.StringFlag{Name: "property", Destination: &property},
			&cli.StringFlag{Name: "context", Destination: &contextURI},
			&cli.UintFlag{Name: "limit", Value: 0, Destination: &limit},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = withLogger(ctx)

			store, err := openStore(configPath, root)
			if err != nil {
				return err
			}
			defer store.Close()

			it, err := store.Fetch(ctx, item, property, contextURI, uint32(limit))
			if err != nil {
				return err
			}
			defer it.Close()

			for it.Next() {
				t := it.Tuple()
				fmt.Printf("%s %s %s time=%d seqNr=%d value=%+v\n", t.Item, t.Property, t.Context, t.Time, t.SeqNr, t.Value)
			}
			return it.Err()
		},
	}
}

func withLogger(ctx context.Context) context.Context {
	lg := logging.New()
	return logging.Set(ctx, &lg)
}
