package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pokecopilot/pkg/usecase/dataset"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := dataset.LoadConfig("")
	gt.NoError(t, err)
	gt.Equal(t, cfg.PokeAPIBaseURL, "https://pokeapi.co/api/v2")
	gt.Equal(t, cfg.PokemonLimit, 1304)
	gt.Equal(t, cfg.MoveLimit, 1000)
	gt.Equal(t, cfg.AbilityLimit, 400)
	gt.Equal(t, cfg.FetchInterval, "100ms")
	gt.Equal(t, cfg.EmbedInterval, "500ms")
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yml")
	content := `
pokemon_limit: 151
embed_interval: 1s
`
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := dataset.LoadConfig(path)
	gt.NoError(t, err)
	gt.Equal(t, cfg.PokemonLimit, 151)
	gt.Equal(t, cfg.EmbedInterval, "1s")

	// Unset fields keep their defaults
	gt.Equal(t, cfg.MoveLimit, 1000)
	gt.Equal(t, cfg.FetchInterval, "100ms")
}

func TestLoadConfigInvalidInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yml")
	gt.NoError(t, os.WriteFile(path, []byte("fetch_interval: soon"), 0600))

	_, err := dataset.LoadConfig(path)
	gt.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := dataset.LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	gt.Error(t, err)
}
