package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pokecopilot/pkg/adapter"
	"github.com/m-mizutani/pokecopilot/pkg/usecase/dataset"
	"github.com/m-mizutani/pokecopilot/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func loadCommand() *cli.Command {
	var (
		cfg         config
		datasetFile string
		bucket      string
		restoreFrom string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "dataset-config",
			Usage:       "Path to the dataset pipeline yaml config",
			Sources:     cli.EnvVars("POKECOPILOT_DATASET_CONFIG"),
			Destination: &datasetFile,
		},
		&cli.StringFlag{
			Name:        "snapshot-bucket",
			Usage:       "Cloud Storage bucket for dataset snapshots (optional)",
			Sources:     cli.EnvVars("POKECOPILOT_SNAPSHOT_BUCKET"),
			Destination: &bucket,
		},
		&cli.StringFlag{
			Name:        "restore-from",
			Usage:       "Snapshot prefix to load from instead of scraping PokeAPI",
			Sources:     cli.EnvVars("POKECOPILOT_RESTORE_FROM"),
			Destination: &restoreFrom,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "load",
		Usage: "Scrape PokeAPI and bulk-load the three collections",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			logger := logging.From(ctx)

			var storage adapter.Storage
			if bucket != "" {
				var err error
				storage, err = cfg.newStorage(ctx, bucket)
				if err != nil {
					return err
				}
			}

			var input dataset.LoadInput
			if restoreFrom != "" {
				if storage == nil {
					return goerr.New("snapshot-bucket is required with restore-from")
				}

				restored, err := dataset.Restore(ctx, storage, restoreFrom)
				if err != nil {
					return err
				}
				input = *restored
				logger.Info("restored dataset snapshot",
					"prefix", restoreFrom,
					"pokemon", len(input.Pokemon),
					"moves", len(input.Moves),
					"abilities", len(input.Abilities),
				)
			} else {
				pipeline, err := dataset.LoadConfig(datasetFile)
				if err != nil {
					return err
				}

				fetcher, err := dataset.NewFetcher(pipeline)
				if err != nil {
					return err
				}

				logger.Info("fetching pokemon", "limit", pipeline.PokemonLimit)
				input.Pokemon, err = fetcher.FetchPokemon(ctx, pipeline.PokemonLimit)
				if err != nil {
					return err
				}

				logger.Info("fetching moves", "limit", pipeline.MoveLimit)
				input.Moves, err = fetcher.FetchMoves(ctx, pipeline.MoveLimit)
				if err != nil {
					return err
				}

				logger.Info("fetching abilities", "limit", pipeline.AbilityLimit)
				input.Abilities, err = fetcher.FetchAbilities(ctx, pipeline.AbilityLimit)
				if err != nil {
					return err
				}

				input.Storage = storage
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			input.Repo = repo
			return dataset.Load(ctx, input)
		},
	}
}
