package pokedex

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pokecopilot/pkg/adapter"
	"github.com/m-mizutani/pokecopilot/pkg/repository"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

const retrieverToolName = "pokemon_retriever_tool"

// defaultRetrieverLimit is the k of the nearest-neighbor search.
const defaultRetrieverLimit = 4

// Retriever searches the pokemon collection by semantic similarity: the
// question is embedded and matched against each document's content vector.
type Retriever struct {
	repo   repository.Repository
	gemini adapter.Gemini
	limit  int64
}

// NewRetriever creates the pokemon_retriever_tool. Dependencies are
// injected via Init after flag parsing.
func NewRetriever() *Retriever {
	return &Retriever{limit: defaultRetrieverLimit}
}

// Init injects the store and the embedding oracle
func (t *Retriever) Init(repo repository.Repository, gemini adapter.Gemini) {
	t.repo = repo
	t.gemini = gemini
}

func (t *Retriever) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name: retrieverToolName,
				Description: "Searches Pokécopilot pokemon information for similar pokemon based on the question. " +
					"Returns the pokemon information in JSON format.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"query": {
							Type:        genai.TypeString,
							Description: "The question or topic to search pokemon information for",
						},
					},
					Required: []string{"query"},
				},
			},
		},
	}
}

func (t *Retriever) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	if t.repo == nil || t.gemini == nil {
		return nil, goerr.New("retriever tool is not initialized")
	}

	query, err := stringArg(fc.Args, "query")
	if err != nil {
		return nil, err
	}

	embedding, err := t.gemini.Embedding(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed retriever query")
	}

	docs, err := t.repo.SearchSimilarPokemon(ctx, embedding, int(t.limit))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search similar pokemon")
	}

	result, err := formatPokemon(docs)
	if err != nil {
		return nil, err
	}

	return &genai.FunctionResponse{
		Name:     retrieverToolName,
		Response: map[string]any{"result": result},
	}, nil
}

func (t *Retriever) Prompt(ctx context.Context) string {
	return ""
}

func (t *Retriever) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "retriever-limit",
			Usage:       "Number of documents returned by the pokemon retriever tool",
			Value:       defaultRetrieverLimit,
			Sources:     cli.EnvVars("POKECOPILOT_RETRIEVER_LIMIT"),
			Destination: &t.limit,
		},
	}
}
