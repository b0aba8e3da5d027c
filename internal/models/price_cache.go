package models

import (
	"encoding/json"
	"time"
)

// CardPriceCache holds the most recently fetched vendor price payloads for a
// card. At most one row per card; refreshed only when absent or older than
// the 24-hour TTL.
type CardPriceCache struct {
	CardID           string          `json:"card_id" gorm:"primaryKey"`
	TCGPlayerPrices  json.RawMessage `json:"tcgplayer_prices" gorm:"type:text"`
	CardmarketPrices json.RawMessage `json:"cardmarket_prices" gorm:"type:text"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (CardPriceCache) TableName() string {
	return "card_prices"
}
