package guardrail

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
)

// Input is the document a deny policy evaluates for each /ai request.
type Input struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id"`
}

// ErrDenied wraps the deny messages produced by the policy.
var ErrDenied = goerr.New("request denied by policy")

// Guardrail evaluates data.pokecopilot.deny against incoming agent
// requests. A nil Guardrail allows everything.
type Guardrail struct {
	query *rego.PreparedEvalQuery
}

// New loads all .rego files from policyDir and prepares the deny query.
// Returns nil (no guardrail) when the directory holds no policy files.
func New(ctx context.Context, policyDir string) (*Guardrail, error) {
	files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files")
	}
	if len(files) == 0 {
		return nil, nil
	}

	options := make([]func(*rego.Rego), 0, len(files)+1)
	options = append(options, rego.Query("data.pokecopilot.deny"))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
		}
		options = append(options, rego.Module(file, string(data)))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare deny query")
	}

	return &Guardrail{query: &prepared}, nil
}

// Check evaluates the policy. It returns ErrDenied with the collected
// messages when any deny rule fires.
func (g *Guardrail) Check(ctx context.Context, input Input) error {
	if g == nil {
		return nil
	}

	rs, err := g.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return goerr.Wrap(err, "failed to evaluate deny policy")
	}

	var denials []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			values, ok := expr.Value.([]any)
			if !ok {
				continue
			}
			for _, v := range values {
				if msg, ok := v.(string); ok {
					denials = append(denials, msg)
				}
			}
		}
	}

	if len(denials) > 0 {
		return goerr.Wrap(ErrDenied, strings.Join(denials, "; "))
	}
	return nil
}
