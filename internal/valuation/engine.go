// Package valuation keeps each collection's cached total value consistent
// with its rows. Every mutation funnels through the engine, which serializes
// mutation+recompute per collection and writes the fresh aggregate back to
// the relational store before returning.
package valuation

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/codyseavey/pokebinder/backend/internal/catalog"
	"github.com/codyseavey/pokebinder/backend/internal/history"
	"github.com/codyseavey/pokebinder/backend/internal/images"
	"github.com/codyseavey/pokebinder/backend/internal/metrics"
	"github.com/codyseavey/pokebinder/backend/internal/models"
	"github.com/codyseavey/pokebinder/backend/internal/pricing"
	"github.com/codyseavey/pokebinder/backend/internal/store"
)

type Engine struct {
	store   *store.Store
	cache   *pricing.Cache
	catalog catalog.Client
	images  *images.Storage
	history *history.Store

	// One mutex per collection id. All mutation+recompute cycles for a
	// collection run to completion before the next begins; without this the
	// read-then-write of totalValue is last-writer-wins.
	locks sync.Map
}

func NewEngine(st *store.Store, cache *pricing.Cache, cat catalog.Client, img *images.Storage, hist *history.Store) *Engine {
	return &Engine{
		store:   st,
		cache:   cache,
		catalog: cat,
		images:  img,
		history: hist,
	}
}

func (e *Engine) lockFor(collectionID string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(collectionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Recompute scans the collection's rows, resolves each row's unit price from
// its embedded vendor snapshots, and writes the sum back. On a storage
// failure it leaves the stored total untouched and surfaces the error.
func (e *Engine) Recompute(collectionID string) (float64, error) {
	start := time.Now()

	entries, err := e.store.GetEntries(collectionID)
	if err != nil {
		return 0, err
	}

	total := 0.0
	unknown := 0
	for _, entry := range entries {
		resolved := pricing.Resolve(entry.TCGPlayerPrices, entry.CardmarketPrices)
		if !resolved.Known {
			unknown++
			continue
		}
		total += resolved.Amount
	}

	if err := e.store.SetTotalValue(collectionID, total, time.Now().UTC()); err != nil {
		return 0, err
	}

	metrics.RecomputesTotal.Inc()
	metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	metrics.UnknownPriceRows.Set(float64(unknown))
	metrics.CollectionValueUSD.WithLabelValues(collectionID).Set(total)
	return total, nil
}

// AddCard inserts one physical-copy row snapshotting the catalog card,
// downloading its image to local storage first. The image is optional: a
// failed download still adds the row, with an empty local path.
func (e *Engine) AddCard(ctx context.Context, card models.Card, collectionID, language, edition, notes string) (models.CollectionCard, error) {
	mu := e.lockFor(collectionID)
	mu.Lock()
	defer mu.Unlock()

	var imagePath string
	if e.images != nil && card.ImageLarge != "" {
		path, err := e.images.Download(ctx, card.ImageLarge)
		if err != nil {
			log.Printf("Image download failed for card %s: %v", card.ID, err)
		} else {
			imagePath = path
		}
	}

	entry, err := e.store.AddEntry(card, collectionID, models.NormalizeLanguage(language), edition, notes, imagePath)
	if err != nil {
		return models.CollectionCard{}, err
	}

	// The add carried a fresh vendor payload; seed the price cache with it.
	if len(card.TCGPlayerPrices) > 0 || len(card.CardmarketPrices) > 0 {
		if err := e.cache.Put(card.ID, card.TCGPlayerPrices, card.CardmarketPrices); err != nil {
			log.Printf("Price cache seed failed for card %s: %v", card.ID, err)
		}
	}

	if _, err := e.Recompute(collectionID); err != nil {
		return models.CollectionCard{}, err
	}
	return entry, nil
}

// RemoveOneCopy deletes the most-recently-added matching row. Removing from
// an empty match set is a no-op and skips the recompute.
func (e *Engine) RemoveOneCopy(cardID, collectionID string) (bool, error) {
	mu := e.lockFor(collectionID)
	mu.Lock()
	defer mu.Unlock()

	removed, err := e.store.RemoveOneCopy(cardID, collectionID)
	if err != nil || !removed {
		return removed, err
	}
	if _, err := e.Recompute(collectionID); err != nil {
		return true, err
	}
	return true, nil
}

// RemoveAllCopies deletes every matching row and recomputes.
func (e *Engine) RemoveAllCopies(cardID, collectionID string) (int64, error) {
	mu := e.lockFor(collectionID)
	mu.Lock()
	defer mu.Unlock()

	removed, err := e.store.RemoveAllCopies(cardID, collectionID)
	if err != nil || removed == 0 {
		return removed, err
	}
	if _, err := e.Recompute(collectionID); err != nil {
		return removed, err
	}
	return removed, nil
}

// DuplicateOneCopy clones an existing row's snapshot into a new row and
// recomputes.
func (e *Engine) DuplicateOneCopy(cardID, collectionID string) (models.CollectionCard, error) {
	mu := e.lockFor(collectionID)
	mu.Lock()
	defer mu.Unlock()

	clone, err := e.store.DuplicateOneCopy(cardID, collectionID)
	if err != nil {
		return models.CollectionCard{}, err
	}
	if _, err := e.Recompute(collectionID); err != nil {
		return models.CollectionCard{}, err
	}
	return clone, nil
}

// DeleteCollection removes the collection and its rows, then best-effort
// deletes the history sidecar. The two stores share no transaction; the
// recorder's reconciliation sweep cleans up any orphan this leaves behind.
func (e *Engine) DeleteCollection(collectionID string) error {
	mu := e.lockFor(collectionID)
	mu.Lock()
	defer mu.Unlock()

	if err := e.store.DeleteCollection(collectionID); err != nil {
		return err
	}
	metrics.CollectionValueUSD.DeleteLabelValues(collectionID)

	if e.history != nil {
		if err := e.history.Delete(collectionID); err != nil {
			log.Printf("History delete failed for collection %s (sweep will retry): %v", collectionID, err)
		}
	}
	return nil
}

// RefreshStalePrices fetches fresh vendor payloads for every card whose
// cache entry is absent or past the TTL. Stored row snapshots are never
// touched here; only PropagatePrices copies refreshed payloads into rows.
func (e *Engine) RefreshStalePrices(ctx context.Context, cardIDs []string) (int, error) {
	updated := 0
	var errs []error

	for _, cardID := range cardIDs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		_, fresh, err := e.cache.Get(cardID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if fresh {
			metrics.PriceRefreshesTotal.WithLabelValues("fresh").Inc()
			continue
		}

		card, err := e.catalog.GetCard(ctx, cardID)
		if err != nil {
			metrics.PriceRefreshesTotal.WithLabelValues("failed").Inc()
			errs = append(errs, err)
			continue
		}
		if card == nil {
			metrics.PriceRefreshesTotal.WithLabelValues("failed").Inc()
			continue
		}

		if err := e.cache.Put(cardID, card.TCGPlayerPrices, card.CardmarketPrices); err != nil {
			metrics.PriceRefreshesTotal.WithLabelValues("failed").Inc()
			errs = append(errs, err)
			continue
		}
		metrics.PriceRefreshesTotal.WithLabelValues("updated").Inc()
		updated++
	}

	return updated, errors.Join(errs...)
}

// PropagatePrices copies fresh cached vendor payloads into the collection's
// stored row snapshots and recomputes. This is the only path by which a
// cache refresh reaches already-stored rows; without it a row keeps its
// price as of time of add.
func (e *Engine) PropagatePrices(ctx context.Context, collectionID string) (int64, error) {
	mu := e.lockFor(collectionID)
	mu.Lock()
	defer mu.Unlock()

	entries, err := e.store.GetEntries(collectionID)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool)
	var applied int64
	for _, entry := range entries {
		if ctx.Err() != nil {
			return applied, ctx.Err()
		}
		if seen[entry.CardID] {
			continue
		}
		seen[entry.CardID] = true

		cached, fresh, err := e.cache.Get(entry.CardID)
		if err != nil {
			return applied, err
		}
		if cached == nil || !fresh {
			continue
		}

		n, err := e.store.UpdateEntryPrices(entry.CardID, collectionID, cached.TCGPlayerPrices, cached.CardmarketPrices)
		if err != nil {
			return applied, err
		}
		applied += n
	}

	if applied > 0 {
		if _, err := e.Recompute(collectionID); err != nil {
			return applied, err
		}
	}
	return applied, nil
}
