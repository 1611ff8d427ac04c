package repository

import (
	"context"

	"github.com/m-mizutani/pokecopilot/pkg/model"
)

// Repository defines read/write access to the three reference collections.
// Runtime callers (the REST handlers and the agent tools) only read; the
// write methods exist for the offline dataset pipeline.
type Repository interface {
	// GetPokemon retrieves one pokemon by pokedex number
	GetPokemon(ctx context.Context, id model.PokedexID) (*model.Pokemon, error)

	// ListPokemon retrieves the full pokemon collection ordered by pokedex number
	ListPokemon(ctx context.Context) ([]*model.Pokemon, error)

	// FindPokemonByMove retrieves all pokemon that can learn the given move
	FindPokemonByMove(ctx context.Context, move string) ([]*model.Pokemon, error)

	// SearchSimilarPokemon performs vector search over the pokemon
	// collection, nearest first
	SearchSimilarPokemon(ctx context.Context, embedding []float32, limit int) ([]*model.Pokemon, error)

	// GetMove retrieves one move by name
	GetMove(ctx context.Context, name string) (*model.Move, error)

	// ListMoves retrieves the full moves collection
	ListMoves(ctx context.Context) ([]*model.Move, error)

	// GetAbility retrieves one ability by name
	GetAbility(ctx context.Context, name string) (*model.Ability, error)

	// ListAbilities retrieves the full abilities collection
	ListAbilities(ctx context.Context) ([]*model.Ability, error)

	// ReplacePokemon wipes the pokemon collection and bulk-loads the given records
	ReplacePokemon(ctx context.Context, pokemon []*model.Pokemon) error

	// ReplaceMoves wipes the moves collection and bulk-loads the given records
	ReplaceMoves(ctx context.Context, moves []*model.Move) error

	// ReplaceAbilities wipes the abilities collection and bulk-loads the given records
	ReplaceAbilities(ctx context.Context, abilities []*model.Ability) error

	// SetPokemonVector writes the content vector of one pokemon document
	SetPokemonVector(ctx context.Context, id model.PokedexID, embedding []float32) error

	// SetMoveVector writes the content vector of one move document
	SetMoveVector(ctx context.Context, name string, embedding []float32) error

	// SetAbilityVector writes the content vector of one ability document
	SetAbilityVector(ctx context.Context, name string, embedding []float32) error

	// Close releases the underlying client
	Close() error
}
