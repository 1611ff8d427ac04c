package cli

import (
	"context"

	"github.com/m-mizutani/pokecopilot/pkg/usecase/dataset"
	"github.com/m-mizutani/pokecopilot/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func vectorizeCommand() *cli.Command {
	var (
		cfg         config
		datasetFile string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "dataset-config",
			Usage:       "Path to the dataset pipeline yaml config",
			Sources:     cli.EnvVars("POKECOPILOT_DATASET_CONFIG"),
			Destination: &datasetFile,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "vectorize",
		Usage: "Backfill content vectors for documents that lack one",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			pipeline, err := dataset.LoadConfig(datasetFile)
			if err != nil {
				return err
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			vectorizer, err := dataset.NewVectorizer(repo, gemini, pipeline)
			if err != nil {
				return err
			}

			report, err := vectorizer.Run(ctx)
			if err != nil {
				return err
			}

			logging.From(ctx).Info("vectorize finished",
				"embedded", report.Embedded,
				"skipped", report.Skipped,
			)
			return nil
		},
	}
}
