package dataset

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pokecopilot/pkg/adapter"
	"github.com/m-mizutani/pokecopilot/pkg/repository"
	"github.com/m-mizutani/pokecopilot/pkg/utils/logging"
)

// Vectorizer backfills the contentVector field of every document that
// lacks one. The embedded text is the document's JSON serialization,
// which never includes an existing vector.
type Vectorizer struct {
	repo   repository.Repository
	gemini adapter.Gemini
	pause  time.Duration
}

// VectorizeReport counts what a run did per collection.
type VectorizeReport struct {
	Embedded int
	Skipped  int
}

// NewVectorizer creates a vectorizer from the pipeline config
func NewVectorizer(repo repository.Repository, gemini adapter.Gemini, cfg Config) (*Vectorizer, error) {
	pause, err := cfg.embedInterval()
	if err != nil {
		return nil, err
	}

	return &Vectorizer{
		repo:   repo,
		gemini: gemini,
		pause:  pause,
	}, nil
}

// Run backfills all three collections and reports totals.
func (v *Vectorizer) Run(ctx context.Context) (*VectorizeReport, error) {
	report := &VectorizeReport{}
	logger := logging.From(ctx)

	pokemon, err := v.repo.ListPokemon(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list pokemon for vectorization")
	}
	for _, p := range pokemon {
		if len(p.ContentVector) > 0 {
			report.Skipped++
			continue
		}
		if err := v.embedAndStore(ctx, p, func(vec []float32) error {
			return v.repo.SetPokemonVector(ctx, p.ID, vec)
		}); err != nil {
			return report, err
		}
		report.Embedded++
	}
	logger.Info("vectorized pokemon collection", "embedded", report.Embedded, "skipped", report.Skipped)

	moves, err := v.repo.ListMoves(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list moves for vectorization")
	}
	for _, m := range moves {
		if len(m.ContentVector) > 0 {
			report.Skipped++
			continue
		}
		if err := v.embedAndStore(ctx, m, func(vec []float32) error {
			return v.repo.SetMoveVector(ctx, m.Name, vec)
		}); err != nil {
			return report, err
		}
		report.Embedded++
	}

	abilities, err := v.repo.ListAbilities(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list abilities for vectorization")
	}
	for _, a := range abilities {
		if len(a.ContentVector) > 0 {
			report.Skipped++
			continue
		}
		if err := v.embedAndStore(ctx, a, func(vec []float32) error {
			return v.repo.SetAbilityVector(ctx, a.Name, vec)
		}); err != nil {
			return report, err
		}
		report.Embedded++
	}

	logger.Info("vectorization complete", "embedded", report.Embedded, "skipped", report.Skipped)
	return report, nil
}

func (v *Vectorizer) embedAndStore(ctx context.Context, doc any, store func([]float32) error) error {
	content, err := json.Marshal(doc)
	if err != nil {
		return goerr.Wrap(err, "failed to serialize document for embedding")
	}

	vec, err := v.gemini.Embedding(ctx, string(content))
	if err != nil {
		return goerr.Wrap(err, "failed to embed document")
	}

	if err := store(vec); err != nil {
		return goerr.Wrap(err, "failed to store content vector")
	}

	// Rest between calls to stay under embedding rate limits
	if v.pause > 0 {
		select {
		case <-time.After(v.pause):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}
