package repository

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pokecopilot/pkg/model"
)

// Memory implements Repository with in-process maps, used where no
// Firestore project is available. Vector search is a brute-force cosine
// scan.
type Memory struct {
	mu        sync.RWMutex
	pokemon   map[model.PokedexID]*model.Pokemon
	moves     map[string]*model.Move
	abilities map[string]*model.Ability
}

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{
		pokemon:   make(map[model.PokedexID]*model.Pokemon),
		moves:     make(map[string]*model.Move),
		abilities: make(map[string]*model.Ability),
	}
}

func (r *Memory) Close() error { return nil }

func (r *Memory) GetPokemon(ctx context.Context, id model.PokedexID) (*model.Pokemon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pokemon[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrRecordNotFound, "pokemon not found", goerr.V("id", id))
	}
	return p, nil
}

func (r *Memory) ListPokemon(ctx context.Context) ([]*model.Pokemon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*model.Pokemon, 0, len(r.pokemon))
	for _, p := range r.pokemon {
		results = append(results, p)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (r *Memory) FindPokemonByMove(ctx context.Context, move string) ([]*model.Pokemon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*model.Pokemon
	for _, p := range r.pokemon {
		for _, m := range p.Moves {
			if m == move {
				results = append(results, p)
				break
			}
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (r *Memory) SearchSimilarPokemon(ctx context.Context, embedding []float32, limit int) ([]*model.Pokemon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		pokemon  *model.Pokemon
		distance float64
	}

	var candidates []scored
	for _, p := range r.pokemon {
		if len(p.ContentVector) == 0 {
			continue
		}
		candidates = append(candidates, scored{
			pokemon:  p,
			distance: cosineDistance(embedding, p.ContentVector),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].distance < candidates[j].distance })

	if limit > len(candidates) {
		limit = len(candidates)
	}
	results := make([]*model.Pokemon, 0, limit)
	for _, c := range candidates[:limit] {
		results = append(results, c.pokemon)
	}
	return results, nil
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

func (r *Memory) GetMove(ctx context.Context, name string) (*model.Move, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.moves[name]
	if !ok {
		return nil, goerr.Wrap(model.ErrRecordNotFound, "move not found", goerr.V("name", name))
	}
	return m, nil
}

func (r *Memory) ListMoves(ctx context.Context) ([]*model.Move, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*model.Move, 0, len(r.moves))
	for _, m := range r.moves {
		results = append(results, m)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

func (r *Memory) GetAbility(ctx context.Context, name string) (*model.Ability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.abilities[name]
	if !ok {
		return nil, goerr.Wrap(model.ErrRecordNotFound, "ability not found", goerr.V("name", name))
	}
	return a, nil
}

func (r *Memory) ListAbilities(ctx context.Context) ([]*model.Ability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*model.Ability, 0, len(r.abilities))
	for _, a := range r.abilities {
		results = append(results, a)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

func (r *Memory) ReplacePokemon(ctx context.Context, pokemon []*model.Pokemon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pokemon = make(map[model.PokedexID]*model.Pokemon, len(pokemon))
	for _, p := range pokemon {
		r.pokemon[p.ID] = p
	}
	return nil
}

func (r *Memory) ReplaceMoves(ctx context.Context, moves []*model.Move) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.moves = make(map[string]*model.Move, len(moves))
	for _, m := range moves {
		r.moves[m.Name] = m
	}
	return nil
}

func (r *Memory) ReplaceAbilities(ctx context.Context, abilities []*model.Ability) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.abilities = make(map[string]*model.Ability, len(abilities))
	for _, a := range abilities {
		r.abilities[a.Name] = a
	}
	return nil
}

func (r *Memory) SetPokemonVector(ctx context.Context, id model.PokedexID, embedding []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pokemon[id]
	if !ok {
		return goerr.Wrap(model.ErrRecordNotFound, "pokemon not found", goerr.V("id", id))
	}
	p.ContentVector = embedding
	return nil
}

func (r *Memory) SetMoveVector(ctx context.Context, name string, embedding []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.moves[name]
	if !ok {
		return goerr.Wrap(model.ErrRecordNotFound, "move not found", goerr.V("name", name))
	}
	m.ContentVector = embedding
	return nil
}

func (r *Memory) SetAbilityVector(ctx context.Context, name string, embedding []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.abilities[name]
	if !ok {
		return goerr.Wrap(model.ErrRecordNotFound, "ability not found", goerr.V("name", name))
	}
	a.ContentVector = embedding
	return nil
}
