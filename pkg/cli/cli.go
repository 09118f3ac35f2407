package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "harrier",
		Usage: "Knowledge-grounded help desk assistant",
		Commands: []*cli.Command{
			chatCommand(),
			ingestCommand(),
			reindexCommand(),
			ticketCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
