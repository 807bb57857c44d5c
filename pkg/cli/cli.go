package cli

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/burrow/pkg/service/memory"
	"github.com/m-mizutani/burrow/pkg/usecase/ingest"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

// Exit codes per failure class
const (
	codeRuntime  = 1
	codeConfig   = 2
	codeIngest   = 3
	codeNotReady = 4
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "burrow",
		Usage: "Document-grounded Q&A chatbot",
		Commands: []*cli.Command{
			chatCommand(),
			ingestCommand(),
			askCommand(),
			statusCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    exitCode(err),
			Message: err.Error(),
		}
	}

	return nil
}

// exitCode maps an error to its failure class
func exitCode(err error) int {
	switch {
	case errors.Is(err, errBadConfig):
		return codeConfig
	case errors.Is(err, ingest.ErrNotReady):
		return codeNotReady
	case errors.Is(err, errIngestion), errors.Is(err, memory.ErrImportFailed):
		return codeIngest
	default:
		return codeRuntime
	}
}
