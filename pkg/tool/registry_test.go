package tool_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pokecopilot/pkg/model"
	"github.com/m-mizutani/pokecopilot/pkg/tool"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

type fakeTool struct {
	name     string
	prompt   string
	flags    []cli.Flag
	executed bool
}

func (t *fakeTool) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{Name: t.name, Description: "fake tool"},
		},
	}
}

func (t *fakeTool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	t.executed = true
	return &genai.FunctionResponse{
		Name:     t.name,
		Response: map[string]any{"result": "ok"},
	}, nil
}

func (t *fakeTool) Prompt(ctx context.Context) string { return t.prompt }
func (t *fakeTool) Flags() []cli.Flag                 { return t.flags }

func TestRegistryDispatch(t *testing.T) {
	alpha := &fakeTool{name: "alpha_tool"}
	beta := &fakeTool{name: "beta_tool"}
	registry := tool.New(beta, alpha)

	resp, err := registry.Execute(context.Background(), genai.FunctionCall{Name: "alpha_tool"})
	gt.NoError(t, err)
	gt.V(t, resp).NotNil()
	gt.Equal(t, resp.Name, "alpha_tool")
	gt.True(t, alpha.executed)
	gt.True(t, !beta.executed)
}

func TestRegistryUnknownTool(t *testing.T) {
	registry := tool.New(&fakeTool{name: "alpha_tool"})

	_, err := registry.Execute(context.Background(), genai.FunctionCall{Name: "missing_tool"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrUnknownTool))
}

func TestRegistryNamesSorted(t *testing.T) {
	registry := tool.New(&fakeTool{name: "zeta_tool"}, &fakeTool{name: "alpha_tool"})
	gt.Equal(t, registry.Names(), []string{"alpha_tool", "zeta_tool"})
}

func TestRegistrySpecs(t *testing.T) {
	registry := tool.New(&fakeTool{name: "alpha_tool"}, &fakeTool{name: "beta_tool"})

	specs := registry.Specs()
	gt.A(t, specs).Length(2)
	gt.A(t, specs[0].FunctionDeclarations).Length(1)
}

func TestRegistryPrompts(t *testing.T) {
	registry := tool.New(
		&fakeTool{name: "alpha_tool", prompt: "alpha guidance"},
		&fakeTool{name: "beta_tool"},
		&fakeTool{name: "gamma_tool", prompt: "gamma guidance"},
	)

	prompts := registry.Prompts(context.Background())
	gt.S(t, prompts).Contains("alpha guidance").Contains("gamma guidance")
}

func TestRegistryFlags(t *testing.T) {
	withFlag := &fakeTool{
		name:  "alpha_tool",
		flags: []cli.Flag{&cli.IntFlag{Name: "alpha-limit"}},
	}
	registry := tool.New(withFlag, &fakeTool{name: "beta_tool"})

	gt.A(t, registry.Flags()).Length(1)
}
