package history

import (
	"context"
	"log"
	"time"

	"github.com/codyseavey/pokebinder/backend/internal/models"
)

// CollectionLister is the slice of the relational store the recorder needs:
// current collections with their cached total values.
type CollectionLister interface {
	ListCollections() ([]models.CollectionSummary, error)
}

// Recorder is the background worker that appends today's value point for
// every collection once per UTC day, and sweeps orphaned documents while it
// is at it. The upsert is idempotent, so re-running within the same day only
// refreshes the day's value.
type Recorder struct {
	store         *Store
	collections   CollectionLister
	checkInterval time.Duration
	lastRecorded  string // date key of the last successful pass
}

func NewRecorder(store *Store, collections CollectionLister) *Recorder {
	return &Recorder{
		store:         store,
		collections:   collections,
		checkInterval: 15 * time.Minute,
	}
}

// Start runs the recorder until ctx is cancelled. It records immediately on
// startup so a freshly launched process still gets today's point.
func (r *Recorder) Start(ctx context.Context) {
	log.Println("History recorder started: will record daily collection values")

	r.recordOnce()

	ticker := time.NewTicker(r.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("History recorder stopping...")
			return
		case <-ticker.C:
			r.recordOnce()
		}
	}
}

// RecordNow forces a pass regardless of whether today was already recorded,
// for manual snapshot triggers.
func (r *Recorder) RecordNow() error {
	return r.record(DateKeyUTC(time.Now()))
}

func (r *Recorder) recordOnce() {
	today := DateKeyUTC(time.Now())
	if r.lastRecorded == today {
		return
	}
	if err := r.record(today); err != nil {
		log.Printf("History recorder: failed to record daily values: %v", err)
		return
	}
	r.lastRecorded = today
}

func (r *Recorder) record(dateKey string) error {
	summaries, err := r.collections.ListCollections()
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		ids = append(ids, summary.ID)
		if err := r.store.Upsert(summary.ID, dateKey, summary.TotalValue); err != nil {
			return err
		}
	}

	if err := r.store.Sweep(ids); err != nil {
		log.Printf("History recorder: orphan sweep failed: %v", err)
	}

	log.Printf("History recorder: recorded %d collection values for %s", len(summaries), dateKey)
	return nil
}
