package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, memoryFlags(&cfg)...)
	flags = append(flags, sourceFlags(&cfg)...)
	flags = append(flags, readyFlags(&cfg)...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Submit the configured sources and wait for them to become ready",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogging(ctx)

			sources, err := cfg.loadSources()
			if err != nil {
				return err
			}

			mem, err := cfg.newMemory(ctx)
			if err != nil {
				return err
			}
			ctrl := cfg.newController(mem)

			if err := ctrl.SubmitAll(ctx, sources); err != nil {
				return goerr.Wrap(errIngestion, err.Error())
			}

			ids := sourceIDs(sources)
			if err := ctrl.WaitReady(ctx, ids); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "%d documents ready\n", len(ids))
			return nil
		},
	}
}
