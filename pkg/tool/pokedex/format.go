package pokedex

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pokecopilot/pkg/model"
)

// formatPokemon renders records as an indented JSON array for the LLM.
// The content vector never appears: model.Pokemon excludes it from JSON
// serialization. Zero matches render as an empty array, which is a normal
// result rather than an error.
func formatPokemon(docs []*model.Pokemon) (string, error) {
	if docs == nil {
		docs = []*model.Pokemon{}
	}

	raw, err := json.MarshalIndent(docs, "", "\t")
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal pokemon documents")
	}

	return string(raw), nil
}

// stringArg extracts a required string argument from a function call's
// argument map.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", goerr.New("missing argument", goerr.V("key", key))
	}
	s, ok := v.(string)
	if !ok {
		return "", goerr.New("argument is not a string", goerr.V("key", key))
	}
	return s, nil
}
