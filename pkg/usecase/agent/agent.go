package agent

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pokecopilot/pkg/adapter"
	"github.com/m-mizutani/pokecopilot/pkg/model"
	"github.com/m-mizutani/pokecopilot/pkg/tool"
	"github.com/m-mizutani/pokecopilot/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/system.md
var systemPromptRaw string

// DefaultMaxIterations caps the tool-call loop. The cap guarantees
// termination even if the model keeps requesting tools.
const DefaultMaxIterations = 10

// Agent turns one user prompt plus session history into one final answer,
// consulting the registered tools along the way. An Agent holds no
// per-session state and can be shared across sessions.
type Agent struct {
	gemini        adapter.Gemini
	registry      *tool.Registry
	maxIterations int
}

type Option func(*Agent)

// WithMaxIterations overrides the tool-call iteration cap
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// New creates an agent over the given oracle and tool registry
func New(gemini adapter.Gemini, registry *tool.Registry, opts ...Option) *Agent {
	a := &Agent{
		gemini:        gemini,
		registry:      registry,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes the orchestration loop. The returned answer is the model's
// final text, unchanged. Tool calls and their results stay within this
// invocation as the scratchpad; the caller decides what to persist to
// session history.
func (a *Agent) Run(ctx context.Context, prompt string, history []*model.Turn) (string, error) {
	logger := logging.From(ctx)

	systemPrompt := systemPromptRaw
	if toolPrompts := a.registry.Prompts(ctx); toolPrompts != "" {
		systemPrompt += "\n\n" + toolPrompts
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, ""),
		Tools:             a.registry.Specs(),
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	contents = append(contents, history...)
	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))

	for i := 0; i < a.maxIterations; i++ {
		resp, err := a.gemini.GenerateContent(ctx, contents, config)
		if err != nil {
			if errors.Is(err, model.ErrOracleUnavailable) {
				return "", err
			}
			return "", goerr.Wrap(model.ErrOracleUnavailable, "completion request failed", goerr.V("cause", err.Error()))
		}

		hasFunctionCall := false
		var texts []string
		var functionResponses []*genai.Part

		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}

			contents = append(contents, candidate.Content)

			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					texts = append(texts, part.Text)
				}

				if part.FunctionCall == nil {
					continue
				}
				hasFunctionCall = true

				logger.Debug("executing tool",
					"name", part.FunctionCall.Name,
					"args", part.FunctionCall.Args,
					"iteration", i+1,
				)

				funcResp, err := a.registry.Execute(ctx, *part.FunctionCall)
				if err != nil {
					if errors.Is(err, model.ErrUnknownTool) {
						// The model asked for a tool it was never offered.
						logger.Error("unknown tool requested", "name", part.FunctionCall.Name)
						return "", err
					}
					return "", goerr.Wrap(model.ErrToolExecution, "tool failed",
						goerr.V("tool", part.FunctionCall.Name),
						goerr.V("cause", err.Error()),
					)
				}

				functionResponses = append(functionResponses, &genai.Part{FunctionResponse: funcResp})
			}
		}

		// Tool results go back to the model as a single user content: the
		// scratchpad of this invocation.
		if len(functionResponses) > 0 {
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: functionResponses,
			})
		}

		if !hasFunctionCall {
			return strings.Join(texts, "\n"), nil
		}
	}

	return "", goerr.Wrap(model.ErrAgentExhausted, "no final answer within iteration limit",
		goerr.V("max_iterations", a.maxIterations),
	)
}
