package dataset

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Config controls the offline pipeline: where to scrape, how many records
// to take, and how politely to pace outbound calls.
type Config struct {
	PokeAPIBaseURL string `yaml:"pokeapi_base_url"`

	PokemonLimit int `yaml:"pokemon_limit"`
	MoveLimit    int `yaml:"move_limit"`
	AbilityLimit int `yaml:"ability_limit"`

	// FetchInterval paces PokeAPI detail requests
	FetchInterval string `yaml:"fetch_interval"`
	// EmbedInterval paces embedding calls during vectorization. The
	// original rests 500ms between calls to stay under rate limits.
	EmbedInterval string `yaml:"embed_interval"`
}

// DefaultConfig returns the built-in pipeline settings
func DefaultConfig() Config {
	return Config{
		PokeAPIBaseURL: "https://pokeapi.co/api/v2",
		PokemonLimit:   1304,
		MoveLimit:      1000,
		AbilityLimit:   400,
		FetchInterval:  "100ms",
		EmbedInterval:  "500ms",
	}
}

// LoadConfig reads a yaml config file, filling unset fields with defaults.
// An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, goerr.Wrap(err, "failed to read dataset config", goerr.V("path", path))
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, goerr.Wrap(err, "failed to parse dataset config", goerr.V("path", path))
	}

	if _, err := cfg.fetchInterval(); err != nil {
		return cfg, err
	}
	if _, err := cfg.embedInterval(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c Config) fetchInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.FetchInterval)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid fetch_interval", goerr.V("value", c.FetchInterval))
	}
	return d, nil
}

func (c Config) embedInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.EmbedInterval)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid embed_interval", goerr.V("value", c.EmbedInterval))
	}
	return d, nil
}
