package pokedex_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pokecopilot/pkg/model"
	"github.com/m-mizutani/pokecopilot/pkg/repository"
	"github.com/m-mizutani/pokecopilot/pkg/tool/pokedex"
	"google.golang.org/genai"
)

type fixedEmbedder struct {
	vector  []float32
	queries []string
}

func (e *fixedEmbedder) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, nil
}

func (e *fixedEmbedder) Embedding(ctx context.Context, text string) ([]float32, error) {
	e.queries = append(e.queries, text)
	return e.vector, nil
}

func seedRepository(t *testing.T) *repository.Memory {
	t.Helper()

	repo := repository.NewMemory()
	err := repo.ReplacePokemon(context.Background(), []*model.Pokemon{
		{
			ID:    6,
			Name:  "charizard",
			Moves: []string{"flamethrower", "fly", "dragon-claw"},
			Types: []model.TypeRef{{Name: "fire"}, {Name: "flying"}},
			Stats: []model.Stat{
				{Name: "hp", Value: 78},
				{Name: "special-attack", Value: 109},
			},
			BaseStatTotal: 534,
			ContentVector: []float32{1, 0, 0},
		},
		{
			ID:    9,
			Name:  "blastoise",
			Moves: []string{"surf", "hydro-pump"},
			Types: []model.TypeRef{{Name: "water"}},
			Stats: []model.Stat{
				{Name: "hp", Value: 79},
			},
			BaseStatTotal: 530,
			ContentVector: []float32{0, 1, 0},
		},
		{
			ID:    149,
			Name:  "dragonite",
			Moves: []string{"fly", "hyper-beam"},
			Types: []model.TypeRef{{Name: "dragon"}, {Name: "flying"}},
			BaseStatTotal: 600,
			ContentVector: []float32{0.9, 0.1, 0},
		},
	})
	gt.NoError(t, err)
	return repo
}

func TestRetrieverExecute(t *testing.T) {
	repo := seedRepository(t)
	gemini := &fixedEmbedder{vector: []float32{1, 0, 0}}

	retriever := pokedex.NewRetriever()
	retriever.Init(repo, gemini)

	resp, err := retriever.Execute(context.Background(), genai.FunctionCall{
		Name: "pokemon_retriever_tool",
		Args: map[string]any{"query": "strong fire type"},
	})
	gt.NoError(t, err)
	gt.Equal(t, resp.Name, "pokemon_retriever_tool")
	gt.A(t, gemini.queries).Length(1)
	gt.Equal(t, gemini.queries[0], "strong fire type")

	result, ok := resp.Response["result"].(string)
	gt.True(t, ok)

	var docs []map[string]any
	gt.NoError(t, json.Unmarshal([]byte(result), &docs))
	gt.A(t, docs).Longer(0)

	// Nearest by cosine distance comes first
	gt.Equal(t, docs[0]["name"], "charizard")
	gt.Equal(t, docs[1]["name"], "dragonite")

	// The stored vector must never leak into the tool output
	for _, doc := range docs {
		_, leaked := doc["contentVector"]
		gt.True(t, !leaked)
	}
}

func TestRetrieverNotInitialized(t *testing.T) {
	retriever := pokedex.NewRetriever()

	_, err := retriever.Execute(context.Background(), genai.FunctionCall{
		Name: "pokemon_retriever_tool",
		Args: map[string]any{"query": "x"},
	})
	gt.Error(t, err)
}

func TestRetrieverMissingQuery(t *testing.T) {
	retriever := pokedex.NewRetriever()
	retriever.Init(seedRepository(t), &fixedEmbedder{vector: []float32{1, 0, 0}})

	_, err := retriever.Execute(context.Background(), genai.FunctionCall{
		Name: "pokemon_retriever_tool",
		Args: map[string]any{},
	})
	gt.Error(t, err)
}

func TestByMoveExecute(t *testing.T) {
	byMove := pokedex.NewByMove()
	byMove.Init(seedRepository(t))

	resp, err := byMove.Execute(context.Background(), genai.FunctionCall{
		Name: "pokemon_retriever_by_move_tool",
		Args: map[string]any{"move": "fly"},
	})
	gt.NoError(t, err)

	result, ok := resp.Response["result"].(string)
	gt.True(t, ok)

	var docs []map[string]any
	gt.NoError(t, json.Unmarshal([]byte(result), &docs))
	gt.A(t, docs).Length(2)
	gt.Equal(t, docs[0]["name"], "charizard")
	gt.Equal(t, docs[1]["name"], "dragonite")
}

func TestByMoveNoMatches(t *testing.T) {
	byMove := pokedex.NewByMove()
	byMove.Init(seedRepository(t))

	resp, err := byMove.Execute(context.Background(), genai.FunctionCall{
		Name: "pokemon_retriever_by_move_tool",
		Args: map[string]any{"move": "splash"},
	})
	gt.NoError(t, err)

	result, ok := resp.Response["result"].(string)
	gt.True(t, ok)
	gt.Equal(t, result, "[]")
}

func TestToolSpecs(t *testing.T) {
	retriever := pokedex.NewRetriever()
	spec := retriever.Spec()
	gt.V(t, spec).NotNil()
	gt.A(t, spec.FunctionDeclarations).Length(1)
	gt.Equal(t, spec.FunctionDeclarations[0].Name, "pokemon_retriever_tool")
	gt.Map(t, spec.FunctionDeclarations[0].Parameters.Properties).HasKey("query")

	byMove := pokedex.NewByMove()
	spec = byMove.Spec()
	gt.Equal(t, spec.FunctionDeclarations[0].Name, "pokemon_retriever_by_move_tool")
	gt.Map(t, spec.FunctionDeclarations[0].Parameters.Properties).HasKey("move")
}
