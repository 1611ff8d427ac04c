package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pokecopilot/pkg/guardrail"
	"github.com/m-mizutani/pokecopilot/pkg/server"
	"github.com/m-mizutani/pokecopilot/pkg/tool"
	"github.com/m-mizutani/pokecopilot/pkg/tool/pokedex"
	"github.com/m-mizutani/pokecopilot/pkg/usecase/agent"
	"github.com/m-mizutani/pokecopilot/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg           config
		addr          string
		maxIterations int64
		oracleTimeout time.Duration
		sessionTTL    time.Duration
		policyDir     string
	)

	retriever := pokedex.NewRetriever()
	byMove := pokedex.NewByMove()
	registry := tool.New(retriever, byMove)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       ":4242",
			Sources:     cli.EnvVars("POKECOPILOT_ADDR"),
			Destination: &addr,
		},
		&cli.IntFlag{
			Name:        "agent-max-iterations",
			Usage:       "Maximum tool-call iterations per /ai request",
			Value:       agent.DefaultMaxIterations,
			Sources:     cli.EnvVars("POKECOPILOT_AGENT_MAX_ITERATIONS"),
			Destination: &maxIterations,
		},
		&cli.DurationFlag{
			Name:        "oracle-timeout",
			Usage:       "Deadline for one /ai request including tool calls",
			Value:       2 * time.Minute,
			Sources:     cli.EnvVars("POKECOPILOT_ORACLE_TIMEOUT"),
			Destination: &oracleTimeout,
		},
		&cli.DurationFlag{
			Name:        "session-ttl",
			Usage:       "Drop sessions idle for this long (0 disables pruning)",
			Sources:     cli.EnvVars("POKECOPILOT_SESSION_TTL"),
			Destination: &sessionTTL,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego policies applied to /ai requests",
			Sources:     cli.EnvVars("POKECOPILOT_POLICY_DIR"),
			Destination: &policyDir,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, registry.Flags()...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the REST API and the AI agent",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			logger := logging.From(ctx)

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

			opts := []server.Option{server.WithOracleTimeout(oracleTimeout)}
			if policyDir != "" {
				guard, err := guardrail.New(ctx, policyDir)
				if err != nil {
					return err
				}
				if guard != nil {
					logger.Info("guardrail policy enabled", "dir", policyDir)
					opts = append(opts, server.WithGuardrail(guard))
				}
			}

			srv := &http.Server{
				Addr:         addr,
				Handler:      server.New(repo, sessions, opts...).Handler(),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: oracleTimeout + 30*time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if sessionTTL > 0 {
				go func() {
					ticker := time.NewTicker(sessionTTL / 2)
					defer ticker.Stop()
					for {
						select {
						case <-ctx.Done():
							return
						case <-ticker.C:
							if n := sessions.PruneIdle(sessionTTL); n > 0 {
								logger.Info("pruned idle sessions", "count", n, "remaining", sessions.Len())
							}
						}
					}
				}()
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server started", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return goerr.Wrap(err, "server failed")
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutCtx); err != nil {
				return goerr.Wrap(err, "failed to shut down server")
			}

			return nil
		},
	}
}
