package cli

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/burrow/pkg/usecase/chat"
)

func askCommand() *cli.Command {
	var (
		cfg      config
		question string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "question",
			Aliases:     []string{"q"},
			Usage:       "Question to ask over the ingested documents",
			Sources:     cli.EnvVars("BURROW_QUESTION"),
			Destination: &question,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, memoryFlags(&cfg)...)

	return &cli.Command{
		Name:  "ask",
		Usage: "Ask a single question against an already populated collection",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogging(ctx)

			if strings.TrimSpace(question) == "" {
				return goerr.Wrap(errBadConfig, "question must not be empty")
			}

			mem, err := cfg.newMemory(ctx)
			if err != nil {
				return err
			}

			answer, err := mem.Ask(ctx, question)
			if err != nil {
				return goerr.Wrap(err, "failed to answer question")
			}

			chat.Render(c.Root().Writer, answer)
			return nil
		},
	}
}
