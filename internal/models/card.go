package models

import "encoding/json"

// Card is the catalog card object supplied by the identification/search
// collaborator. Every field is optional; missing fields stay zero-valued
// rather than rejecting the payload.
type Card struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	HP          string          `json:"hp"`
	Rarity      string          `json:"rarity"`
	Types       json.RawMessage `json:"types"`
	Subtypes    json.RawMessage `json:"subtypes"`
	SetID       string          `json:"set_id"`
	SetName     string          `json:"set_name"`
	SeriesName  string          `json:"series_name"`
	SetLogo     string          `json:"set_logo"`
	ReleaseDate string          `json:"release_date"`
	Attacks     json.RawMessage `json:"attacks"`
	Abilities   json.RawMessage `json:"abilities"`
	Weaknesses  json.RawMessage `json:"weaknesses"`
	Resistances json.RawMessage `json:"resistances"`
	RetreatCost json.RawMessage `json:"retreat_cost"`
	Artist      string          `json:"artist"`
	FlavorText  string          `json:"flavor_text"`
	Number      string          `json:"number"`

	ImageSmall string `json:"image_small"`
	ImageLarge string `json:"image_large"`

	TCGPlayerURL     string          `json:"tcgplayer_url"`
	CardmarketURL    string          `json:"cardmarket_url"`
	TCGPlayerPrices  json.RawMessage `json:"tcgplayer_prices"`
	CardmarketPrices json.RawMessage `json:"cardmarket_prices"`
}
