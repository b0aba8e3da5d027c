package valuation

import (
	"context"
	"log"
	"time"
)

// defaultSweepInterval is how often the stale-price sweep runs. Entries
// refreshed within the 24h TTL are skipped, so the sweep is cheap when the
// cache is warm.
const defaultSweepInterval = 6 * time.Hour

// StartPriceSweep periodically refreshes the cached vendor payloads for
// every card referenced by any collection, until ctx is cancelled.
func (e *Engine) StartPriceSweep(ctx context.Context) {
	log.Println("Price sweep started: will refresh stale vendor payloads")

	e.sweepOnce(ctx)

	ticker := time.NewTicker(defaultSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Price sweep stopping...")
			return
		case <-ticker.C:
			e.sweepOnce(ctx)
		}
	}
}

func (e *Engine) sweepOnce(ctx context.Context) {
	cardIDs, err := e.store.CardIDs()
	if err != nil {
		log.Printf("Price sweep: failed to list card ids: %v", err)
		return
	}
	if len(cardIDs) == 0 {
		return
	}

	updated, err := e.RefreshStalePrices(ctx, cardIDs)
	if err != nil {
		log.Printf("Price sweep: completed with errors (%d updated): %v", updated, err)
		return
	}
	log.Printf("Price sweep: refreshed %d of %d cards", updated, len(cardIDs))
}
