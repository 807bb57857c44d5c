package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func statusCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, memoryFlags(&cfg)...)
	flags = append(flags, sourceFlags(&cfg)...)

	return &cli.Command{
		Name:  "status",
		Usage: "Report readiness of the configured source identifiers",
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

			allReady := true
			for _, src := range sources {
				ready, err := mem.IsDocumentReady(ctx, src.ID)
				if err != nil {
					fmt.Fprintf(c.Root().Writer, "  %-16s failed (%s)\n", src.ID, src.Origin)
					allReady = false
					continue
				}

				state := "ready"
				if !ready {
					state = "not ready"
					allReady = false
				}
				fmt.Fprintf(c.Root().Writer, "  %-16s %s (%s)\n", src.ID, state, src.Origin)
			}

			if allReady {
				fmt.Fprintln(c.Root().Writer, "All documents ready")
			} else {
				fmt.Fprintln(c.Root().Writer, "Documents are not ready")
			}
			return nil
		},
	}
}
