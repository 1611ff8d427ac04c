package pokedex

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pokecopilot/pkg/repository"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

const byMoveToolName = "pokemon_retriever_by_move_tool"

// ByMove looks up pokemon that can learn a specific move via an exact
// array-membership filter on the moves field.
type ByMove struct {
	repo repository.Repository
}

// NewByMove creates the pokemon_retriever_by_move_tool. The store is
// injected via Init after flag parsing.
func NewByMove() *ByMove {
	return &ByMove{}
}

// Init injects the store
func (t *ByMove) Init(repo repository.Repository) {
	t.repo = repo
}

func (t *ByMove) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name: byMoveToolName,
				Description: "Searches Pokécopilot for pokemon that can learn the move specified by the question. " +
					"Returns the pokemon information in JSON format.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"move": {
							Type:        genai.TypeString,
							Description: `Move name in kebab-case, e.g. "flamethrower" or "stone-edge"`,
						},
					},
					Required: []string{"move"},
				},
			},
		},
	}
}

func (t *ByMove) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	if t.repo == nil {
		return nil, goerr.New("by-move tool is not initialized")
	}

	move, err := stringArg(fc.Args, "move")
	if err != nil {
		return nil, err
	}

	docs, err := t.repo.FindPokemonByMove(ctx, move)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find pokemon by move", goerr.V("move", move))
	}

	result, err := formatPokemon(docs)
	if err != nil {
		return nil, err
	}

	return &genai.FunctionResponse{
		Name:     byMoveToolName,
		Response: map[string]any{"result": result},
	}, nil
}

func (t *ByMove) Prompt(ctx context.Context) string {
	return ""
}

func (t *ByMove) Flags() []cli.Flag {
	return nil
}
