package models

import (
	"encoding/json"
	"time"
)

// Collection groups owned physical cards. TotalValue is derived by the
// valuation engine and cached here; it is only written through a recompute.
type Collection struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"not null"`
	Notes      string    `json:"notes"`
	TotalValue float64   `json:"total_value"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CollectionCard is one owned physical copy of a card. Quantity is represented
// by row count, never by incrementing the legacy quantity column (it stays 1).
// The card metadata and both vendor price payloads are denormalized into the
// row at add time, so valuation never needs a live catalog call.
type CollectionCard struct {
	ID           string       `json:"id" gorm:"primaryKey"`
	CollectionID string       `json:"collection_id" gorm:"not null;index"`
	Collection   *Collection  `json:"-" gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
	CardID       string       `json:"card_id" gorm:"not null;index"`
	AddedAt      time.Time    `json:"added_at" gorm:"index"`
	Quantity     int          `json:"quantity" gorm:"default:1"`
	Language     CardLanguage `json:"language" gorm:"default:'English'"`
	Edition      string       `json:"edition"`
	Notes        string       `json:"notes"`
	ImagePath    string       `json:"image_path"`

	// Snapshot of the catalog card at time of add.
	Name        string          `json:"name" gorm:"index"`
	HP          string          `json:"hp"`
	Rarity      string          `json:"rarity"`
	Types       json.RawMessage `json:"types" gorm:"type:text"`
	Subtypes    json.RawMessage `json:"subtypes" gorm:"type:text"`
	SetID       string          `json:"set_id"`
	SetName     string          `json:"set_name"`
	SeriesName  string          `json:"series_name"`
	SetLogo     string          `json:"set_logo"`
	ReleaseDate string          `json:"release_date"`
	Attacks     json.RawMessage `json:"attacks" gorm:"type:text"`
	Abilities   json.RawMessage `json:"abilities" gorm:"type:text"`
	Weaknesses  json.RawMessage `json:"weaknesses" gorm:"type:text"`
	Resistances json.RawMessage `json:"resistances" gorm:"type:text"`
	RetreatCost json.RawMessage `json:"retreat_cost" gorm:"type:text"`
	Artist      string          `json:"artist"`
	FlavorText  string          `json:"flavor_text"`
	Number      string          `json:"number"`

	TCGPlayerURL     string          `json:"tcgplayer_url"`
	CardmarketURL    string          `json:"cardmarket_url"`
	TCGPlayerPrices  json.RawMessage `json:"tcgplayer_prices" gorm:"type:text"`
	CardmarketPrices json.RawMessage `json:"cardmarket_prices" gorm:"type:text"`
}

func (CollectionCard) TableName() string {
	return "collection_cards"
}

// CollectionSummary is a collection plus its row count, for list views.
type CollectionSummary struct {
	Collection
	CardCount int `json:"card_count"`
}

// CollectionPreview adds up to a few entry image paths for binder thumbnails.
type CollectionPreview struct {
	CollectionSummary
	PreviewImages []string `json:"preview_images"`
}

// GroupedCard is the read-side grouping view over collection_cards:
// one element per distinct cardId with quantity = row count.
type GroupedCard struct {
	CardID    string         `json:"card_id"`
	Quantity  int            `json:"quantity"`
	UnitValue float64        `json:"unit_value"`
	Snapshot  CollectionCard `json:"snapshot"`
}
