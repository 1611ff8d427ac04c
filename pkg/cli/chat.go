package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pokecopilot/pkg/model"
	"github.com/m-mizutani/pokecopilot/pkg/tool"
	"github.com/m-mizutani/pokecopilot/pkg/tool/pokedex"
	"github.com/m-mizutani/pokecopilot/pkg/usecase/agent"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg           config
		maxIterations int64
	)

	retriever := pokedex.NewRetriever()
	byMove := pokedex.NewByMove()
	registry := tool.New(retriever, byMove)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "agent-max-iterations",
			Usage:       "Maximum tool-call iterations per prompt",
			Value:       agent.DefaultMaxIterations,
			Sources:     cli.EnvVars("POKECOPILOT_AGENT_MAX_ITERATIONS"),
			Destination: &maxIterations,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, registry.Flags()...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive chat with the Pokécopilot agent",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			retriever.Init(repo, gemini)
			byMove.Init(repo)

			sessions := agent.NewSessionRegistry(
				agent.New(gemini, registry, agent.WithMaxIterations(int(maxIterations))),
			)
			session := sessions.GetOrCreate(model.NewSessionID())

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to open terminal")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Chat session started. Type 'exit' to quit.\n")

			for {
				line, err := rl.Readline()
				if err != nil {
					if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
						break
					}
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				if message == "exit" {
					break
				}
				if message == "" {
					continue
				}

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				sp.Suffix = " thinking..."
				sp.Start()

				answer, err := session.Ask(ctx, message)
				sp.Stop()

				if err != nil {
					fmt.Fprintf(c.Root().ErrWriter, "Error: %v\n", err)
					continue
				}

				fmt.Fprintf(c.Root().Writer, "%s\n", answer)
			}

			fmt.Fprintf(c.Root().Writer, "\nChat session completed\n")
			return nil
		},
	}
}
