package dataset_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pokecopilot/pkg/model"
	"github.com/m-mizutani/pokecopilot/pkg/repository"
	"github.com/m-mizutani/pokecopilot/pkg/usecase/dataset"
)

// memStorage is an in-memory snapshot store for loader tests.
type memStorage struct {
	objects map[string]*bytes.Buffer
}

type memWriter struct {
	buf *bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *memWriter) Close() error                { return nil }

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string]*bytes.Buffer)}
}

func (s *memStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	buf := &bytes.Buffer{}
	s.objects[key] = buf
	return &memWriter{buf: buf}, nil
}

func (s *memStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	buf, ok := s.objects[key]
	if !ok {
		return nil, goerr.New("object not found", goerr.V("key", key))
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

func TestLoadReplacesCollections(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	// Pre-existing data must be wiped by the load
	gt.NoError(t, repo.ReplacePokemon(ctx, []*model.Pokemon{{ID: 999, Name: "stale"}}))

	err := dataset.Load(ctx, dataset.LoadInput{
		Repo: repo,
		Pokemon: []*model.Pokemon{
			{ID: 6, Name: "charizard"},
			{ID: 25, Name: "pikachu"},
		},
		Moves:     []*model.Move{{Name: "flamethrower"}},
		Abilities: []*model.Ability{{Name: "blaze"}},
	})
	gt.NoError(t, err)

	pokemon, err := repo.ListPokemon(ctx)
	gt.NoError(t, err)
	gt.A(t, pokemon).Length(2)
	gt.Equal(t, pokemon[0].Name, "charizard")

	moves, err := repo.ListMoves(ctx)
	gt.NoError(t, err)
	gt.A(t, moves).Length(1)

	abilities, err := repo.ListAbilities(ctx)
	gt.NoError(t, err)
	gt.A(t, abilities).Length(1)
}

func TestRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()

	err := dataset.Load(ctx, dataset.LoadInput{
		Repo:      repository.NewMemory(),
		Storage:   storage,
		Pokemon:   []*model.Pokemon{{ID: 6, Name: "charizard", Moves: []string{"fly"}}},
		Moves:     []*model.Move{{Name: "flamethrower", Type: "fire"}},
		Abilities: []*model.Ability{{Name: "blaze", Generation: "generation-iii"}},
	})
	gt.NoError(t, err)

	var prefix string
	for key := range storage.objects {
		if strings.HasSuffix(key, "/pokemon.json") {
			prefix = strings.TrimSuffix(key, "/pokemon.json")
		}
	}
	gt.True(t, prefix != "")

	restored, err := dataset.Restore(ctx, storage, prefix)
	gt.NoError(t, err)
	gt.A(t, restored.Pokemon).Length(1)
	gt.Equal(t, restored.Pokemon[0].Name, "charizard")
	gt.Equal(t, restored.Pokemon[0].Moves, []string{"fly"})
	gt.A(t, restored.Moves).Length(1)
	gt.Equal(t, restored.Moves[0].Type, "fire")
	gt.A(t, restored.Abilities).Length(1)
	gt.Equal(t, restored.Abilities[0].Generation, "generation-iii")
}

func TestRestoreMissingSnapshot(t *testing.T) {
	_, err := dataset.Restore(context.Background(), newMemStorage(), "snapshots/nope")
	gt.Error(t, err)
}

func TestLoadWritesSnapshots(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()

	err := dataset.Load(ctx, dataset.LoadInput{
		Repo:      repository.NewMemory(),
		Storage:   storage,
		Pokemon:   []*model.Pokemon{{ID: 6, Name: "charizard"}},
		Moves:     []*model.Move{{Name: "flamethrower"}},
		Abilities: []*model.Ability{{Name: "blaze"}},
	})
	gt.NoError(t, err)

	gt.Equal(t, len(storage.objects), 3)
	for key, buf := range storage.objects {
		gt.S(t, key).Contains("snapshots/")
		gt.True(t, buf.Len() > 0)
	}

	var found bool
	for key, buf := range storage.objects {
		if strings.HasSuffix(key, "/pokemon.json") {
			found = true
			gt.S(t, buf.String()).Contains("charizard")
		}
	}
	gt.True(t, found)
}
