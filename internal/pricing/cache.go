package pricing

import (
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/pokebinder/backend/internal/apperr"
	"github.com/codyseavey/pokebinder/backend/internal/metrics"
	"github.com/codyseavey/pokebinder/backend/internal/models"
)

const (
	// TTL is how long a cached vendor payload stays fresh.
	TTL = 24 * time.Hour

	// memCacheSize bounds the in-memory front; the card_prices table remains
	// the source of truth.
	memCacheSize = 512
)

// Cache is the TTL-keyed store of raw vendor price payloads, one entry per
// card. An expirable LRU fronts the card_prices table so repeated freshness
// checks during sweeps stay off the database.
type Cache struct {
	db  *gorm.DB
	mem *expirable.LRU[string, models.CardPriceCache]
}

func NewCache(db *gorm.DB) *Cache {
	return &Cache{
		db:  db,
		mem: expirable.NewLRU[string, models.CardPriceCache](memCacheSize, nil, TTL),
	}
}

// Get returns the cached entry for cardID along with whether it is still
// within the TTL. A missing entry returns (nil, false, nil).
func (c *Cache) Get(cardID string) (*models.CardPriceCache, bool, error) {
	if entry, ok := c.mem.Get(cardID); ok {
		metrics.PriceCacheHits.Inc()
		return &entry, c.isFresh(entry.UpdatedAt), nil
	}
	metrics.PriceCacheMisses.Inc()

	var entry models.CardPriceCache
	err := c.db.First(&entry, "card_id = ?", cardID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, apperr.StorageIO("read price cache", err)
	}

	c.mem.Add(cardID, entry)
	return &entry, c.isFresh(entry.UpdatedAt), nil
}

// Put upserts the vendor payloads for cardID and stamps the entry with the
// current time.
func (c *Cache) Put(cardID string, tcgplayer, cardmarket json.RawMessage) error {
	entry := models.CardPriceCache{
		CardID:           cardID,
		TCGPlayerPrices:  tcgplayer,
		CardmarketPrices: cardmarket,
		UpdatedAt:        time.Now().UTC(),
	}

	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "card_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tcg_player_prices", "cardmarket_prices", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return apperr.StorageIO("write price cache", err)
	}

	c.mem.Add(cardID, entry)
	return nil
}

func (c *Cache) isFresh(updatedAt time.Time) bool {
	return time.Since(updatedAt) < TTL
}
