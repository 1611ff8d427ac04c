package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pokecopilot/pkg/adapter"
	"github.com/m-mizutani/pokecopilot/pkg/model"
	"github.com/m-mizutani/pokecopilot/pkg/repository"
	"github.com/m-mizutani/pokecopilot/pkg/utils/logging"
)

// LoadInput carries the fetched records and their destinations. Storage is
// optional; when set, the loader uploads a JSON snapshot of each
// collection before writing to the store.
type LoadInput struct {
	Repo    repository.Repository
	Storage adapter.Storage

	Pokemon   []*model.Pokemon
	Moves     []*model.Move
	Abilities []*model.Ability
}

// Load replaces the three collections. Each collection is wiped before the
// bulk insert so the pipeline can run repeatedly without duplicates.
func Load(ctx context.Context, input LoadInput) error {
	logger := logging.From(ctx)

	if input.Storage != nil {
		prefix := fmt.Sprintf("snapshots/%s", time.Now().UTC().Format("2006-01-02T15-04-05"))
		if err := putSnapshot(ctx, input.Storage, prefix+"/pokemon.json", input.Pokemon); err != nil {
			return err
		}
		if err := putSnapshot(ctx, input.Storage, prefix+"/moves.json", input.Moves); err != nil {
			return err
		}
		if err := putSnapshot(ctx, input.Storage, prefix+"/abilities.json", input.Abilities); err != nil {
			return err
		}
		logger.Info("uploaded dataset snapshots", "prefix", prefix)
	}

	if err := input.Repo.ReplacePokemon(ctx, input.Pokemon); err != nil {
		return goerr.Wrap(err, "failed to load pokemon collection")
	}
	logger.Info("loaded pokemon", "count", len(input.Pokemon))

	if err := input.Repo.ReplaceMoves(ctx, input.Moves); err != nil {
		return goerr.Wrap(err, "failed to load moves collection")
	}
	logger.Info("loaded moves", "count", len(input.Moves))

	if err := input.Repo.ReplaceAbilities(ctx, input.Abilities); err != nil {
		return goerr.Wrap(err, "failed to load abilities collection")
	}
	logger.Info("loaded abilities", "count", len(input.Abilities))

	return nil
}

// Restore reads a snapshot set back from storage so a load can run
// without scraping PokeAPI again. The prefix is the snapshots/<timestamp>
// path a previous Load reported.
func Restore(ctx context.Context, storage adapter.Storage, prefix string) (*LoadInput, error) {
	input := &LoadInput{}

	if err := getSnapshot(ctx, storage, prefix+"/pokemon.json", &input.Pokemon); err != nil {
		return nil, err
	}
	if err := getSnapshot(ctx, storage, prefix+"/moves.json", &input.Moves); err != nil {
		return nil, err
	}
	if err := getSnapshot(ctx, storage, prefix+"/abilities.json", &input.Abilities); err != nil {
		return nil, err
	}

	return input, nil
}

func getSnapshot(ctx context.Context, storage adapter.Storage, key string, out any) error {
	r, err := storage.Get(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open snapshot", goerr.V("key", key))
	}
	defer r.Close()

	if err := json.NewDecoder(r).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode snapshot", goerr.V("key", key))
	}
	return nil
}

func putSnapshot(ctx context.Context, storage adapter.Storage, key string, records any) error {
	w, err := storage.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open snapshot writer", goerr.V("key", key))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write snapshot", goerr.V("key", key))
	}

	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize snapshot", goerr.V("key", key))
	}
	return nil
}
