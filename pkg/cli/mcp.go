package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pokecopilot/pkg/tool"
	"github.com/m-mizutani/pokecopilot/pkg/tool/pokedex"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

type retrieverParams struct {
	Query string `json:"query" jsonschema:"The question or topic to search pokemon information for"`
}

type byMoveParams struct {
	Move string `json:"move" jsonschema:"Move name in kebab-case, e.g. flamethrower or stone-edge"`
}

// mcpCommand exposes the two pokedex tools over MCP stdio so external
// agent hosts can use the same lookups the built-in agent does.
func mcpCommand() *cli.Command {
	var cfg config

	retriever := pokedex.NewRetriever()
	byMove := pokedex.NewByMove()
	registry := tool.New(retriever, byMove)

	flags := append(globalFlags(&cfg), llmFlags(&cfg)...)
	flags = append(flags, registry.Flags()...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the pokedex tools over MCP (stdio)",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			retriever.Init(repo, gemini)
			byMove.Init(repo)

			server := mcp.NewServer(&mcp.Implementation{
				Name:    "pokecopilot",
				Version: "1.0.0",
			}, nil)

			mcp.AddTool(server, &mcp.Tool{
				Name:        "pokemon_retriever_tool",
				Description: "Searches Pokécopilot pokemon information for similar pokemon based on the question. Returns the pokemon information in JSON format.",
			}, func(ctx context.Context, req *mcp.CallToolRequest, params *retrieverParams) (*mcp.CallToolResult, any, error) {
				return callTool(ctx, registry, "pokemon_retriever_tool", map[string]any{"query": params.Query})
			})

			mcp.AddTool(server, &mcp.Tool{
				Name:        "pokemon_retriever_by_move_tool",
				Description: "Searches Pokécopilot for pokemon that can learn the move specified by the question. Returns the pokemon information in JSON format.",
			}, func(ctx context.Context, req *mcp.CallToolRequest, params *byMoveParams) (*mcp.CallToolResult, any, error) {
				return callTool(ctx, registry, "pokemon_retriever_by_move_tool", map[string]any{"move": params.Move})
			})

			if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
				return goerr.Wrap(err, "mcp server failed")
			}
			return nil
		},
	}
}

func callTool(ctx context.Context, registry *tool.Registry, name string, args map[string]any) (*mcp.CallToolResult, any, error) {
	resp, err := registry.Execute(ctx, genai.FunctionCall{Name: name, Args: args})
	if err != nil {
		return nil, nil, err
	}

	result, _ := resp.Response["result"].(string)
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: result},
		},
	}, nil, nil
}
