package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/usecase/chat"
	"github.com/m-mizutani/burrow/pkg/usecase/ingest"
)

func chatCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, memoryFlags(&cfg)...)
	flags = append(flags, sourceFlags(&cfg)...)
	flags = append(flags, readyFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Ingest the configured sources and answer questions interactively",
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
			fmt.Fprintf(c.Root().Writer, "Waiting for %d documents to be ready...\n", len(ids))
			if err := ctrl.WaitReady(ctx, ids); err != nil {
				if errors.Is(err, ingest.ErrNotReady) {
					fmt.Fprintln(c.Root().Writer, "Documents are not ready yet, not starting the chat session.")
				}
				return err
			}

			return runChatLoop(ctx, c.Root().Writer, mem)
		},
	}
}

func runChatLoop(ctx context.Context, w io.Writer, asker chat.Asker) error {
	rl, err := readline.New("burrow> ")
	if err != nil {
		return goerr.Wrap(err, "failed to initialize input")
	}
	defer rl.Close()

	indicator := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(os.Stderr))
	indicator.Suffix = " thinking..."

	session := chat.New(chat.NewInput{
		Memory:    asker,
		Output:    w,
		Indicator: indicator,
	})

	fmt.Fprintln(w, "Chat session started. Type 'exit' to quit.")

	for session.State() != chat.StateTerminated {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					break
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return goerr.Wrap(err, "failed to read input")
		}

		session.HandleLine(ctx, line)
	}

	fmt.Fprintln(w, "\nChat session completed")
	return nil
}

func sourceIDs(sources []ingest.Source) []model.DocumentID {
	ids := make([]model.DocumentID, len(sources))
	for i, src := range sources {
		ids[i] = src.ID
	}
	return ids
}
