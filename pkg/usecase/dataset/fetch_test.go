package dataset_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pokecopilot/pkg/usecase/dataset"
)

// fakePokeAPI serves a minimal index plus detail pages for each resource.
func fakePokeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var server *httptest.Server

	serve := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}

	mux.HandleFunc("/pokemon", func(w http.ResponseWriter, r *http.Request) {
		serve(w, fmt.Sprintf(`{
			"count": 1,
			"results": [{"name": "charizard", "url": %q}]
		}`, server.URL+"/pokemon/6"))
	})
	mux.HandleFunc("/pokemon/6", func(w http.ResponseWriter, r *http.Request) {
		serve(w, `{
			"id": 6,
			"height": 17,
			"weight": 905,
			"abilities": [
				{"ability": {"name": "blaze"}, "is_hidden": false},
				{"ability": {"name": "solar-power"}, "is_hidden": true}
			],
			"moves": [
				{"move": {"name": "flamethrower"}},
				{"move": {"name": "fly"}}
			],
			"sprites": {"other": {
				"official-artwork": {"front_default": "https://img.example/6.png"},
				"showdown": {"front_default": "https://img.example/6.gif"}
			}},
			"stats": [
				{"base_stat": 78, "stat": {"name": "hp"}},
				{"base_stat": 109, "stat": {"name": "special-attack"}}
			],
			"types": [
				{"type": {"name": "fire"}},
				{"type": {"name": "flying"}}
			]
		}`)
	})

	mux.HandleFunc("/move", func(w http.ResponseWriter, r *http.Request) {
		serve(w, fmt.Sprintf(`{
			"count": 3,
			"results": [
				{"name": "flamethrower", "url": %q},
				{"name": "shadow-rush", "url": %q},
				{"name": "spacer", "url": %q}
			]
		}`, server.URL+"/move/53", server.URL+"/move/10001", server.URL+"/move/10002"))
	})
	mux.HandleFunc("/move/53", func(w http.ResponseWriter, r *http.Request) {
		serve(w, `{
			"effect_entries": [
				{"effect": "Feuer frei", "language": {"name": "de"}},
				{"effect": "Has a 10% chance to burn the target.", "language": {"name": "en"}}
			],
			"type": {"name": "fire"},
			"damage_class": {"name": "special"},
			"power": 90,
			"priority": 0,
			"pp": 15
		}`)
	})
	mux.HandleFunc("/move/10001", func(w http.ResponseWriter, r *http.Request) {
		serve(w, `{
			"effect_entries": [{"effect": "Shadow only.", "language": {"name": "en"}}],
			"type": {"name": "shadow"},
			"damage_class": {"name": "physical"},
			"power": 55, "priority": 0, "pp": 10
		}`)
	})
	mux.HandleFunc("/move/10002", func(w http.ResponseWriter, r *http.Request) {
		serve(w, `{
			"effect_entries": [],
			"flavor_text_entries": [],
			"type": {"name": "normal"},
			"damage_class": {"name": "status"},
			"power": null, "priority": 0, "pp": 5
		}`)
	})

	mux.HandleFunc("/ability", func(w http.ResponseWriter, r *http.Request) {
		serve(w, fmt.Sprintf(`{
			"count": 2,
			"results": [
				{"name": "blaze", "url": %q},
				{"name": "spin-off-only", "url": %q}
			]
		}`, server.URL+"/ability/66", server.URL+"/ability/10060"))
	})
	mux.HandleFunc("/ability/66", func(w http.ResponseWriter, r *http.Request) {
		serve(w, `{
			"effect_entries": [],
			"flavor_text_entries": [
				{"flavor_text": "Powers up Fire-type moves in a pinch.", "language": {"name": "en"}}
			],
			"generation": {"name": "generation-iii"},
			"is_main_series": true
		}`)
	})
	mux.HandleFunc("/ability/10060", func(w http.ResponseWriter, r *http.Request) {
		serve(w, `{
			"effect_entries": [{"effect": "Pokéathlon only.", "language": {"name": "en"}}],
			"generation": {"name": "generation-v"},
			"is_main_series": false
		}`)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(baseURL string) dataset.Config {
	cfg := dataset.DefaultConfig()
	cfg.PokeAPIBaseURL = baseURL
	cfg.FetchInterval = "0s"
	cfg.EmbedInterval = "0s"
	return cfg
}

func TestFetchPokemon(t *testing.T) {
	api := fakePokeAPI(t)
	fetcher, err := dataset.NewFetcher(testConfig(api.URL))
	gt.NoError(t, err)

	pokemon, err := fetcher.FetchPokemon(context.Background(), 1)
	gt.NoError(t, err)
	gt.A(t, pokemon).Length(1)

	p := pokemon[0]
	gt.Equal(t, p.Name, "charizard")
	gt.Equal(t, int(p.ID), 6)
	gt.Equal(t, p.Height, 17)
	gt.Equal(t, p.Weight, 905)
	gt.A(t, p.Abilities).Length(2)
	gt.True(t, p.Abilities[1].IsHidden)
	gt.Equal(t, p.Moves, []string{"flamethrower", "fly"})
	gt.Equal(t, p.OfficialArt, "https://img.example/6.png")
	gt.Equal(t, p.ShowdownGif, "https://img.example/6.gif")
	gt.Equal(t, p.BaseStatTotal, 187)
	gt.A(t, p.Types).Length(2)

	// The record must serialize without a vector field
	raw, err := json.Marshal(p)
	gt.NoError(t, err)
	gt.True(t, !strings.Contains(string(raw), "contentVector"))
}

func TestFetchMovesFilters(t *testing.T) {
	api := fakePokeAPI(t)
	fetcher, err := dataset.NewFetcher(testConfig(api.URL))
	gt.NoError(t, err)

	moves, err := fetcher.FetchMoves(context.Background(), 3)
	gt.NoError(t, err)

	// shadow-rush (shadow type) and spacer (no effect text) are dropped
	gt.A(t, moves).Length(1)
	m := moves[0]
	gt.Equal(t, m.Name, "flamethrower")
	gt.Equal(t, m.Effect, "Has a 10% chance to burn the target.")
	gt.Equal(t, m.Type, "fire")
	gt.Equal(t, m.Category, "special")
	gt.Equal(t, *m.Power, 90)
	gt.Equal(t, m.PowerPointsPP, 15)
}

func TestFetchAbilitiesFilters(t *testing.T) {
	api := fakePokeAPI(t)
	fetcher, err := dataset.NewFetcher(testConfig(api.URL))
	gt.NoError(t, err)

	abilities, err := fetcher.FetchAbilities(context.Background(), 2)
	gt.NoError(t, err)

	// Non-main-series abilities are dropped
	gt.A(t, abilities).Length(1)
	a := abilities[0]
	gt.Equal(t, a.Name, "blaze")
	gt.Equal(t, a.Effect, "Powers up Fire-type moves in a pinch.")
	gt.Equal(t, a.Generation, "generation-iii")
}

func TestFetchUpstreamError(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(broken.Close)

	fetcher, err := dataset.NewFetcher(testConfig(broken.URL))
	gt.NoError(t, err)

	_, err = fetcher.FetchPokemon(context.Background(), 1)
	gt.Error(t, err)
}
