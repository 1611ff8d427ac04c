package tool

import (
	"context"

	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

// Tool is one function the agent offers to the oracle. The pokedex
// package holds the built-in implementations; the mcp command exposes
// the same tools to external hosts.
type Tool interface {
	// Spec declares the function for Gemini function calling
	Spec() *genai.Tool

	// Execute runs one function call against the store
	Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error)

	// Prompt returns extra system prompt text guiding the oracle's use of
	// the tool, or an empty string
	Prompt(ctx context.Context) string

	// Flags returns CLI flags that configure the tool, or nil
	Flags() []cli.Flag
}
