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
		Name:  "pokecopilot",
		Usage: "Pokémon competitive play coach: REST API, AI agent and dataset pipeline",
		Commands: []*cli.Command{
			serveCommand(),
			chatCommand(),
			loadCommand(),
			vectorizeCommand(),
			mcpCommand(),
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
