package history

import (
	"testing"
	"time"

	"github.com/codyseavey/pokebinder/backend/internal/models"
)

type staticLister struct {
	summaries []models.CollectionSummary
}

func (l *staticLister) ListCollections() ([]models.CollectionSummary, error) {
	return l.summaries, nil
}

func TestRecordNowWritesEveryCollection(t *testing.T) {
	store := newTestStore(t)

	lister := &staticLister{summaries: []models.CollectionSummary{
		{Collection: models.Collection{ID: "col-1", TotalValue: 10}},
		{Collection: models.Collection{ID: "col-2", TotalValue: 42.5}},
	}}
	recorder := NewRecorder(store, lister)

	if err := recorder.RecordNow(); err != nil {
		t.Fatalf("RecordNow() error: %v", err)
	}

	today := DateKeyUTC(time.Now())
	for _, tt := range []struct {
		id   string
		want float64
	}{
		{"col-1", 10},
		{"col-2", 42.5},
	} {
		points, err := store.Read(tt.id, 0)
		if err != nil {
			t.Fatalf("Read(%s) error: %v", tt.id, err)
		}
		if len(points) != 1 {
			t.Fatalf("Read(%s) returned %d points, want 1", tt.id, len(points))
		}
		if points[0].Date != today || points[0].TotalValue != tt.want {
			t.Errorf("Read(%s) = %+v, want {%s %f}", tt.id, points[0], today, tt.want)
		}
	}
}

func TestRecordNowSweepsOrphans(t *testing.T) {
	store := newTestStore(t)

	// A document for a collection that no longer exists.
	if err := store.Upsert("gone", "2024-01-01", 5); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	lister := &staticLister{summaries: []models.CollectionSummary{
		{Collection: models.Collection{ID: "col-1", TotalValue: 10}},
	}}
	if err := NewRecorder(store, lister).RecordNow(); err != nil {
		t.Fatalf("RecordNow() error: %v", err)
	}

	points, err := store.Read("gone", 0)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("orphan document survived the recorder pass: %d points", len(points))
	}
}

// A second pass on the same day replaces the day's point rather than
// appending a duplicate.
func TestRecordNowIsIdempotentWithinDay(t *testing.T) {
	store := newTestStore(t)

	lister := &staticLister{summaries: []models.CollectionSummary{
		{Collection: models.Collection{ID: "col-1", TotalValue: 10}},
	}}
	recorder := NewRecorder(store, lister)

	if err := recorder.RecordNow(); err != nil {
		t.Fatalf("RecordNow() first error: %v", err)
	}
	lister.summaries[0].TotalValue = 15
	if err := recorder.RecordNow(); err != nil {
		t.Fatalf("RecordNow() second error: %v", err)
	}

	points, err := store.Read("col-1", 0)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("got %d points after two same-day passes, want 1", len(points))
	}
	if points[0].TotalValue != 15 {
		t.Errorf("point value = %f, want 15 (second pass wins)", points[0].TotalValue)
	}
}
