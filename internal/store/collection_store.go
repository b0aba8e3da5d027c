// Package store owns the relational persistence of collections and their
// owned-card rows. One row in collection_cards is exactly one owned physical
// copy; quantity is always represented by row count.
package store

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/codyseavey/pokebinder/backend/internal/apperr"
	"github.com/codyseavey/pokebinder/backend/internal/models"
	"github.com/codyseavey/pokebinder/backend/internal/pricing"
)

// defaultPreviewImages is how many entry thumbnails a binder list view shows.
const defaultPreviewImages = 3

type Store struct {
	db *gorm.DB
}

// New wraps the long-lived database handle. The handle is opened once at
// startup and shared by every store.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateCollection creates an empty collection with a zero total value.
func (s *Store) CreateCollection(name string) (models.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Collection{}, apperr.Validation("collection name must not be empty")
	}

	now := time.Now().UTC()
	collection := models.Collection{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.Create(&collection).Error; err != nil {
		return models.Collection{}, apperr.StorageIO("create collection", err)
	}
	return collection, nil
}

// RenameCollection updates the collection's name.
func (s *Store) RenameCollection(collectionID, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return apperr.Validation("collection name must not be empty")
	}

	result := s.db.Model(&models.Collection{}).
		Where("id = ?", collectionID).
		Updates(map[string]any{"name": newName, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return apperr.StorageIO("rename collection", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("collection %s", collectionID)
	}
	return nil
}

// DeleteCollection removes the collection and every row it owns. The
// collection's history sidecar is the caller's responsibility; the two stores
// share no transaction.
func (s *Store) DeleteCollection(collectionID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Collection{}, "id = ?", collectionID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		// Explicit cascade: sqlite only honors the FK constraint when
		// foreign_keys is on, so delete the rows regardless.
		return tx.Delete(&models.CollectionCard{}, "collection_id = ?", collectionID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("collection %s", collectionID)
		}
		return apperr.StorageIO("delete collection", err)
	}
	return nil
}

// GetCollection fetches one collection record.
func (s *Store) GetCollection(collectionID string) (models.Collection, error) {
	var collection models.Collection
	err := s.db.First(&collection, "id = ?", collectionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Collection{}, apperr.NotFound("collection %s", collectionID)
		}
		return models.Collection{}, apperr.StorageIO("read collection", err)
	}
	return collection, nil
}

// ListCollections returns every collection with its row count, newest first.
func (s *Store) ListCollections() ([]models.CollectionSummary, error) {
	var collections []models.Collection
	if err := s.db.Order("created_at DESC").Find(&collections).Error; err != nil {
		return nil, apperr.StorageIO("list collections", err)
	}

	counts, err := s.rowCounts()
	if err != nil {
		return nil, err
	}

	summaries := make([]models.CollectionSummary, len(collections))
	for i, c := range collections {
		summaries[i] = models.CollectionSummary{Collection: c, CardCount: counts[c.ID]}
	}
	return summaries, nil
}

// ListCollectionsWithPreview returns collection summaries plus up to
// defaultPreviewImages entry image paths each, newest entries first.
func (s *Store) ListCollectionsWithPreview() ([]models.CollectionPreview, error) {
	summaries, err := s.ListCollections()
	if err != nil {
		return nil, err
	}

	previews := make([]models.CollectionPreview, len(summaries))
	for i, summary := range summaries {
		var paths []string
		err := s.db.Model(&models.CollectionCard{}).
			Where("collection_id = ? AND image_path <> ''", summary.ID).
			Order("added_at DESC, id DESC").
			Limit(defaultPreviewImages).
			Pluck("image_path", &paths).Error
		if err != nil {
			return nil, apperr.StorageIO("read preview images", err)
		}
		previews[i] = models.CollectionPreview{CollectionSummary: summary, PreviewImages: paths}
	}
	return previews, nil
}

// AddEntry inserts one new physical-copy row snapshotting the catalog card.
// imagePath is the already-downloaded local asset reference, empty when the
// card had no image or the download failed.
func (s *Store) AddEntry(card models.Card, collectionID string, language models.CardLanguage, edition, notes, imagePath string) (models.CollectionCard, error) {
	if card.ID == "" {
		return models.CollectionCard{}, apperr.Validation("card id must not be empty")
	}
	if _, err := s.GetCollection(collectionID); err != nil {
		return models.CollectionCard{}, err
	}

	entry := models.CollectionCard{
		ID:           uuid.New().String(),
		CollectionID: collectionID,
		CardID:       card.ID,
		AddedAt:      time.Now().UTC(),
		Quantity:     1,
		Language:     language,
		Edition:      edition,
		Notes:        notes,
		ImagePath:    imagePath,

		Name:        card.Name,
		HP:          card.HP,
		Rarity:      card.Rarity,
		Types:       card.Types,
		Subtypes:    card.Subtypes,
		SetID:       card.SetID,
		SetName:     card.SetName,
		SeriesName:  card.SeriesName,
		SetLogo:     card.SetLogo,
		ReleaseDate: card.ReleaseDate,
		Attacks:     card.Attacks,
		Abilities:   card.Abilities,
		Weaknesses:  card.Weaknesses,
		Resistances: card.Resistances,
		RetreatCost: card.RetreatCost,
		Artist:      card.Artist,
		FlavorText:  card.FlavorText,
		Number:      card.Number,

		TCGPlayerURL:     card.TCGPlayerURL,
		CardmarketURL:    card.CardmarketURL,
		TCGPlayerPrices:  card.TCGPlayerPrices,
		CardmarketPrices: card.CardmarketPrices,
	}

	if err := s.db.Create(&entry).Error; err != nil {
		return models.CollectionCard{}, apperr.StorageIO("add entry", err)
	}
	return entry, nil
}

// RemoveOneCopy deletes exactly one row matching (cardID, collectionID),
// most-recently-added first. Zero matching rows is a no-op, reported through
// the removed flag rather than an error.
func (s *Store) RemoveOneCopy(cardID, collectionID string) (bool, error) {
	var entry models.CollectionCard
	err := s.db.Where("card_id = ? AND collection_id = ?", cardID, collectionID).
		Order("added_at DESC, id DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, apperr.StorageIO("find copy to remove", err)
	}

	if err := s.db.Delete(&models.CollectionCard{}, "id = ?", entry.ID).Error; err != nil {
		return false, apperr.StorageIO("remove copy", err)
	}
	return true, nil
}

// RemoveAllCopies deletes every row matching (cardID, collectionID) and
// returns how many were removed.
func (s *Store) RemoveAllCopies(cardID, collectionID string) (int64, error) {
	result := s.db.Delete(&models.CollectionCard{}, "card_id = ? AND collection_id = ?", cardID, collectionID)
	if result.Error != nil {
		return 0, apperr.StorageIO("remove all copies", result.Error)
	}
	return result.RowsAffected, nil
}

// DuplicateOneCopy clones the most recent matching row's full snapshot into a
// new row. Used to increase quantity without re-fetching card data.
func (s *Store) DuplicateOneCopy(cardID, collectionID string) (models.CollectionCard, error) {
	var entry models.CollectionCard
	err := s.db.Where("card_id = ? AND collection_id = ?", cardID, collectionID).
		Order("added_at DESC, id DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CollectionCard{}, apperr.NotFound("no copy of card %s in collection %s", cardID, collectionID)
		}
		return models.CollectionCard{}, apperr.StorageIO("find copy to duplicate", err)
	}

	clone := entry
	clone.ID = uuid.New().String()
	clone.AddedAt = time.Now().UTC()
	clone.Collection = nil

	if err := s.db.Create(&clone).Error; err != nil {
		return models.CollectionCard{}, apperr.StorageIO("duplicate copy", err)
	}
	return clone, nil
}

// GetEntries returns the raw physical-copy rows of a collection, newest first.
func (s *Store) GetEntries(collectionID string) ([]models.CollectionCard, error) {
	var entries []models.CollectionCard
	err := s.db.Where("collection_id = ?", collectionID).
		Order("added_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, apperr.StorageIO("read entries", err)
	}
	return entries, nil
}

// GetGroupedEntries returns one element per distinct card in the collection
// with quantity = row count, sorted by card name (card id as tiebreak). The
// newest row supplies the representative snapshot and resolved unit value.
func (s *Store) GetGroupedEntries(collectionID string) ([]models.GroupedCard, error) {
	entries, err := s.GetEntries(collectionID)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*models.GroupedCard)
	for _, entry := range entries {
		if g, ok := groups[entry.CardID]; ok {
			g.Quantity++
			continue
		}
		// Entries arrive newest first, so the first row seen per card is
		// the representative snapshot.
		resolved := pricing.Resolve(entry.TCGPlayerPrices, entry.CardmarketPrices)
		groups[entry.CardID] = &models.GroupedCard{
			CardID:    entry.CardID,
			Quantity:  1,
			UnitValue: resolved.Amount,
			Snapshot:  entry,
		}
	}

	grouped := make([]models.GroupedCard, 0, len(groups))
	for _, g := range groups {
		grouped = append(grouped, *g)
	}
	sort.Slice(grouped, func(i, j int) bool {
		if grouped[i].Snapshot.Name != grouped[j].Snapshot.Name {
			return grouped[i].Snapshot.Name < grouped[j].Snapshot.Name
		}
		return grouped[i].CardID < grouped[j].CardID
	})
	return grouped, nil
}

// CountCollectionsContainingCard reports, per collection, how many copies of
// the card it holds. Collections without the card are absent from the map.
func (s *Store) CountCollectionsContainingCard(cardID string) (map[string]int, error) {
	type row struct {
		CollectionID string
		Count        int
	}
	var rows []row
	err := s.db.Model(&models.CollectionCard{}).
		Select("collection_id, COUNT(*) as count").
		Where("card_id = ?", cardID).
		Group("collection_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.StorageIO("count collections containing card", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.CollectionID] = r.Count
	}
	return counts, nil
}

// SetTotalValue writes the derived aggregate back to the collection record.
// Only the valuation engine calls this.
func (s *Store) SetTotalValue(collectionID string, totalValue float64, at time.Time) error {
	result := s.db.Model(&models.Collection{}).
		Where("id = ?", collectionID).
		Updates(map[string]any{"total_value": totalValue, "updated_at": at})
	if result.Error != nil {
		return apperr.StorageIO("write total value", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("collection %s", collectionID)
	}
	return nil
}

// UpdateEntryPrices overwrites the vendor payload snapshot of every row for
// (cardID, collectionID). Used only by the explicit price propagation step.
func (s *Store) UpdateEntryPrices(cardID, collectionID string, tcgplayer, cardmarket []byte) (int64, error) {
	result := s.db.Model(&models.CollectionCard{}).
		Where("card_id = ? AND collection_id = ?", cardID, collectionID).
		Updates(map[string]any{
			"tcg_player_prices": tcgplayer,
			"cardmarket_prices": cardmarket,
		})
	if result.Error != nil {
		return 0, apperr.StorageIO("propagate entry prices", result.Error)
	}
	return result.RowsAffected, nil
}

// CollectionIDs lists every collection id; the history reconciliation sweep
// uses this to find orphaned sidecar documents.
func (s *Store) CollectionIDs() ([]string, error) {
	var ids []string
	if err := s.db.Model(&models.Collection{}).Pluck("id", &ids).Error; err != nil {
		return nil, apperr.StorageIO("list collection ids", err)
	}
	return ids, nil
}

// CardIDs lists every distinct card referenced by any collection, for the
// periodic stale-price sweep.
func (s *Store) CardIDs() ([]string, error) {
	var ids []string
	err := s.db.Model(&models.CollectionCard{}).
		Distinct("card_id").
		Pluck("card_id", &ids).Error
	if err != nil {
		return nil, apperr.StorageIO("list card ids", err)
	}
	return ids, nil
}

func (s *Store) rowCounts() (map[string]int, error) {
	type row struct {
		CollectionID string
		Count        int
	}
	var rows []row
	err := s.db.Model(&models.CollectionCard{}).
		Select("collection_id, COUNT(*) as count").
		Group("collection_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.StorageIO("count rows", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.CollectionID] = r.Count
	}
	return counts, nil
}
