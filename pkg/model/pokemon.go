package model

import (
	"strconv"

	"cloud.google.com/go/firestore"
)

// PokedexID identifies a pokemon by its national pokedex number.
type PokedexID int

// DocID returns the Firestore document ID for the pokemon.
func (id PokedexID) DocID() string {
	return strconv.Itoa(int(id))
}

// AbilityRef is an ability slot on a pokemon.
type AbilityRef struct {
	Name     string `json:"name" firestore:"name"`
	IsHidden bool   `json:"is_hidden" firestore:"is_hidden"`
}

// Stat is a single base stat value, e.g. {"special-attack", 109}.
type Stat struct {
	Name  string `json:"name" firestore:"name"`
	Value int    `json:"value" firestore:"value"`
}

// TypeRef is a pokemon type slot.
type TypeRef struct {
	Name string `json:"name" firestore:"name"`
}

// Pokemon is a reference document in the pokemon collection. Written once
// by the dataset pipeline, read-only at agent runtime.
//
// ContentVector is used only for similarity search and is never part of
// any JSON the API or the tools emit.
type Pokemon struct {
	ID            PokedexID    `json:"_id" firestore:"id"`
	Name          string       `json:"name" firestore:"name"`
	Abilities     []AbilityRef `json:"abilities" firestore:"abilities"`
	Height        int          `json:"height" firestore:"height"`
	Weight        int          `json:"weight" firestore:"weight"`
	Moves         []string     `json:"moves" firestore:"moves"`
	OfficialArt   string       `json:"official_art,omitempty" firestore:"official_art"`
	ShowdownGif   string       `json:"showdown_gif,omitempty" firestore:"showdown_gif"`
	Stats         []Stat       `json:"stats" firestore:"stats"`
	BaseStatTotal int          `json:"base_stat_total" firestore:"base_stat_total"`
	Types         []TypeRef    `json:"types" firestore:"types"`

	ContentVector firestore.Vector32 `json:"-" firestore:"contentVector,omitempty"`
}

// Move is a reference document in the moves collection, keyed by its name.
type Move struct {
	Name          string `json:"name" firestore:"name"`
	Effect        string `json:"effect" firestore:"effect"`
	Type          string `json:"type" firestore:"type"`
	Category      string `json:"category" firestore:"category"`
	Power         *int   `json:"power" firestore:"power"`
	Priority      int    `json:"priority" firestore:"priority"`
	PowerPointsPP int    `json:"power_points_pp" firestore:"power_points_pp"`

	ContentVector firestore.Vector32 `json:"-" firestore:"contentVector,omitempty"`
}

// Ability is a reference document in the abilities collection, keyed by
// its name.
type Ability struct {
	Name       string `json:"name" firestore:"name"`
	Effect     string `json:"effect" firestore:"effect"`
	Generation string `json:"generation" firestore:"generation"`

	ContentVector firestore.Vector32 `json:"-" firestore:"contentVector,omitempty"`
}
