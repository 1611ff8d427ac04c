package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pokecopilot/pkg/model"
	"github.com/m-mizutani/pokecopilot/pkg/utils/logging"
)

// Fetcher scrapes PokeAPI and reshapes the responses into the document
// shapes the store uses.
type Fetcher struct {
	baseURL  string
	client   *http.Client
	interval time.Duration
}

// NewFetcher creates a fetcher from the pipeline config
func NewFetcher(cfg Config) (*Fetcher, error) {
	interval, err := cfg.fetchInterval()
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		baseURL:  cfg.PokeAPIBaseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		interval: interval,
	}, nil
}

type indexPage struct {
	Count   int `json:"count"`
	Results []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"results"`
}

type namedResource struct {
	Name string `json:"name"`
}

type effectEntry struct {
	Effect   string        `json:"effect"`
	Language namedResource `json:"language"`
}

type flavorTextEntry struct {
	FlavorText string        `json:"flavor_text"`
	Language   namedResource `json:"language"`
}

type rawPokemon struct {
	ID        int `json:"id"`
	Abilities []struct {
		Ability  namedResource `json:"ability"`
		IsHidden bool          `json:"is_hidden"`
	} `json:"abilities"`
	Height int `json:"height"`
	Weight int `json:"weight"`
	Moves  []struct {
		Move namedResource `json:"move"`
	} `json:"moves"`
	Sprites struct {
		Other map[string]struct {
			FrontDefault string `json:"front_default"`
		} `json:"other"`
	} `json:"sprites"`
	Stats []struct {
		BaseStat int           `json:"base_stat"`
		Stat     namedResource `json:"stat"`
	} `json:"stats"`
	Types []struct {
		Type namedResource `json:"type"`
	} `json:"types"`
}

type rawMove struct {
	EffectEntries     []effectEntry     `json:"effect_entries"`
	FlavorTextEntries []flavorTextEntry `json:"flavor_text_entries"`
	Type              namedResource     `json:"type"`
	DamageClass       namedResource     `json:"damage_class"`
	Power             *int              `json:"power"`
	Priority          int               `json:"priority"`
	PP                int               `json:"pp"`
}

type rawAbility struct {
	EffectEntries     []effectEntry     `json:"effect_entries"`
	FlavorTextEntries []flavorTextEntry `json:"flavor_text_entries"`
	Generation        namedResource     `json:"generation"`
	IsMainSeries      bool              `json:"is_main_series"`
}

// FetchPokemon scrapes the pokemon index and every detail page, returning
// reshaped records.
func (f *Fetcher) FetchPokemon(ctx context.Context, limit int) ([]*model.Pokemon, error) {
	index, err := f.fetchIndex(ctx, "pokemon", limit)
	if err != nil {
		return nil, err
	}

	logger := logging.From(ctx)
	results := make([]*model.Pokemon, 0, len(index.Results))
	for i, entry := range index.Results {
		var raw rawPokemon
		if err := f.getJSON(ctx, entry.URL, &raw); err != nil {
			return nil, goerr.Wrap(err, "failed to fetch pokemon detail", goerr.V("name", entry.Name))
		}

		results = append(results, transformPokemon(entry.Name, &raw))

		if (i+1)%50 == 0 {
			logger.Info("fetching pokemon", "done", i+1, "total", len(index.Results))
		}
	}

	return results, nil
}

func transformPokemon(name string, raw *rawPokemon) *model.Pokemon {
	p := &model.Pokemon{
		ID:          model.PokedexID(raw.ID),
		Name:        name,
		Height:      raw.Height,
		Weight:      raw.Weight,
		OfficialArt: raw.Sprites.Other["official-artwork"].FrontDefault,
		ShowdownGif: raw.Sprites.Other["showdown"].FrontDefault,
	}

	for _, a := range raw.Abilities {
		p.Abilities = append(p.Abilities, model.AbilityRef{
			Name:     a.Ability.Name,
			IsHidden: a.IsHidden,
		})
	}
	for _, m := range raw.Moves {
		p.Moves = append(p.Moves, m.Move.Name)
	}
	for _, s := range raw.Stats {
		p.Stats = append(p.Stats, model.Stat{Name: s.Stat.Name, Value: s.BaseStat})
		p.BaseStatTotal += s.BaseStat
	}
	for _, t := range raw.Types {
		p.Types = append(p.Types, model.TypeRef{Name: t.Type.Name})
	}

	return p
}

// FetchMoves scrapes the move index. Moves without an English effect text
// and "shadow" type moves only exist in spin-off titles and are dropped.
func (f *Fetcher) FetchMoves(ctx context.Context, limit int) ([]*model.Move, error) {
	index, err := f.fetchIndex(ctx, "move", limit)
	if err != nil {
		return nil, err
	}

	results := make([]*model.Move, 0, len(index.Results))
	for _, entry := range index.Results {
		var raw rawMove
		if err := f.getJSON(ctx, entry.URL, &raw); err != nil {
			return nil, goerr.Wrap(err, "failed to fetch move detail", goerr.V("name", entry.Name))
		}

		move := transformMove(entry.Name, &raw)
		if move.Effect == "" || move.Type == "shadow" {
			continue
		}
		results = append(results, move)
	}

	return results, nil
}

func transformMove(name string, raw *rawMove) *model.Move {
	return &model.Move{
		Name:          name,
		Effect:        englishEffect(raw.EffectEntries, raw.FlavorTextEntries),
		Type:          raw.Type.Name,
		Category:      raw.DamageClass.Name,
		Power:         raw.Power,
		Priority:      raw.Priority,
		PowerPointsPP: raw.PP,
	}
}

// FetchAbilities scrapes the ability index, keeping main-series abilities
// only.
func (f *Fetcher) FetchAbilities(ctx context.Context, limit int) ([]*model.Ability, error) {
	index, err := f.fetchIndex(ctx, "ability", limit)
	if err != nil {
		return nil, err
	}

	results := make([]*model.Ability, 0, len(index.Results))
	for _, entry := range index.Results {
		var raw rawAbility
		if err := f.getJSON(ctx, entry.URL, &raw); err != nil {
			return nil, goerr.Wrap(err, "failed to fetch ability detail", goerr.V("name", entry.Name))
		}

		if !raw.IsMainSeries {
			continue
		}
		results = append(results, transformAbility(entry.Name, &raw))
	}

	return results, nil
}

func transformAbility(name string, raw *rawAbility) *model.Ability {
	return &model.Ability{
		Name:       name,
		Effect:     englishEffect(raw.EffectEntries, raw.FlavorTextEntries),
		Generation: raw.Generation.Name,
	}
}

// englishEffect prefers the effect entry and falls back to flavor text.
func englishEffect(effects []effectEntry, flavors []flavorTextEntry) string {
	for _, e := range effects {
		if e.Language.Name == "en" {
			return e.Effect
		}
	}
	for _, fl := range flavors {
		if fl.Language.Name == "en" {
			return fl.FlavorText
		}
	}
	return ""
}

func (f *Fetcher) fetchIndex(ctx context.Context, resource string, limit int) (*indexPage, error) {
	url := fmt.Sprintf("%s/%s?limit=%d", f.baseURL, resource, limit)

	var index indexPage
	if err := f.getJSON(ctx, url, &index); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch index", goerr.V("resource", resource))
	}

	return &index, nil
}

func (f *Fetcher) getJSON(ctx context.Context, url string, out any) error {
	if f.interval > 0 {
		select {
		case <-time.After(f.interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to build request", goerr.V("url", url))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "request failed", goerr.V("url", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return goerr.New("unexpected status", goerr.V("url", url), goerr.V("status", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode response", goerr.V("url", url))
	}

	return nil
}
