package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codyseavey/pokebinder/backend/internal/apperr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	return store
}

func TestDateKeyUTC(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			"utc midnight",
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			"2024-01-01",
		},
		{
			"local evening west of utc rolls forward",
			time.Date(2024, 1, 1, 23, 30, 0, 0, time.FixedZone("PST", -8*3600)),
			"2024-01-02",
		},
		{
			"local morning east of utc rolls back",
			time.Date(2024, 1, 2, 5, 0, 0, 0, time.FixedZone("JST", 9*3600)),
			"2024-01-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DateKeyUTC(tt.in); got != tt.want {
				t.Errorf("DateKeyUTC(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUpsertRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if err := store.Upsert("col-1", "2024-01-01", 10); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	points, err := store.Read("col-1", 0)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("Read() returned %d points, want 1", len(points))
	}
	if points[0].Date != "2024-01-01" || points[0].TotalValue != 10 {
		t.Errorf("Read() = %+v, want {2024-01-01 10}", points[0])
	}

	// Same date again replaces, never duplicates.
	if err := store.Upsert("col-1", "2024-01-01", 12); err != nil {
		t.Fatalf("Upsert() replace error: %v", err)
	}
	points, err = store.Read("col-1", 0)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("after replace: %d points, want 1", len(points))
	}
	if points[0].TotalValue != 12 {
		t.Errorf("after replace: value = %f, want 12", points[0].TotalValue)
	}
}

func TestUpsertKeepsPointsSorted(t *testing.T) {
	store := newTestStore(t)

	for _, date := range []string{"2024-03-05", "2024-01-01", "2024-02-10"} {
		if err := store.Upsert("col-1", date, 1); err != nil {
			t.Fatalf("Upsert(%s) error: %v", date, err)
		}
	}

	points, err := store.Read("col-1", 0)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	want := []string{"2024-01-01", "2024-02-10", "2024-03-05"}
	if len(points) != len(want) {
		t.Fatalf("Read() returned %d points, want %d", len(points), len(want))
	}
	for i, date := range want {
		if points[i].Date != date {
			t.Errorf("points[%d].Date = %q, want %q", i, points[i].Date, date)
		}
	}
}

func TestUpsertRejectsBadDateKey(t *testing.T) {
	store := newTestStore(t)

	for _, key := range []string{"", "01-01-2024", "2024-1-1", "not a date"} {
		err := store.Upsert("col-1", key, 1)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Upsert(%q) error = %v, want ErrValidation", key, err)
		}
	}
}

func TestRetentionCapEvictsOldest(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 500; i++ {
		key := DateKeyUTC(base.AddDate(0, 0, i))
		if err := store.Upsert("col-1", key, float64(i)); err != nil {
			t.Fatalf("Upsert(%s) error: %v", key, err)
		}
	}

	points, err := store.Read("col-1", 0)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(points) != RetentionCap {
		t.Fatalf("Read() returned %d points, want %d", len(points), RetentionCap)
	}

	// The 50 oldest dates are gone, the 450 most recent remain.
	wantFirst := DateKeyUTC(base.AddDate(0, 0, 50))
	wantLast := DateKeyUTC(base.AddDate(0, 0, 499))
	if points[0].Date != wantFirst {
		t.Errorf("oldest retained date = %q, want %q", points[0].Date, wantFirst)
	}
	if points[len(points)-1].Date != wantLast {
		t.Errorf("newest retained date = %q, want %q", points[len(points)-1].Date, wantLast)
	}
}

func TestReadDayWindow(t *testing.T) {
	store := newTestStore(t)

	now := time.Now()
	old := DateKeyUTC(now.AddDate(0, 0, -30))
	recent := DateKeyUTC(now.AddDate(0, 0, -3))
	today := DateKeyUTC(now)

	for _, date := range []string{old, recent, today} {
		if err := store.Upsert("col-1", date, 1); err != nil {
			t.Fatalf("Upsert(%s) error: %v", date, err)
		}
	}

	points, err := store.Read("col-1", 7)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Read(days=7) returned %d points, want 2", len(points))
	}
	if points[0].Date != recent || points[1].Date != today {
		t.Errorf("Read(days=7) dates = %q, %q; want %q, %q", points[0].Date, points[1].Date, recent, today)
	}
}

func TestReadMissingCollection(t *testing.T) {
	store := newTestStore(t)

	points, err := store.Read("never-written", 0)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("Read() returned %d points, want 0", len(points))
	}
}

func TestReadMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "col-1.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	_, err = store.Read("col-1", 0)
	if !errors.Is(err, apperr.ErrSerialization) {
		t.Errorf("Read() error = %v, want ErrSerialization", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	if err := store.Upsert("col-1", "2024-01-01", 10); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if err := store.Delete("col-1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	// Absent document is not an error.
	if err := store.Delete("col-1"); err != nil {
		t.Errorf("Delete() second call error: %v", err)
	}

	points, err := store.Read("col-1", 0)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("Read() after delete returned %d points, want 0", len(points))
	}
}

func TestSweepRemovesOrphans(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("col-%d", i)
		if err := store.Upsert(id, "2024-01-01", float64(i)); err != nil {
			t.Fatalf("Upsert(%s) error: %v", id, err)
		}
	}

	if err := store.Sweep([]string{"col-1"}); err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}

	for _, tt := range []struct {
		id   string
		want int
	}{
		{"col-0", 0},
		{"col-1", 1},
		{"col-2", 0},
	} {
		points, err := store.Read(tt.id, 0)
		if err != nil {
			t.Fatalf("Read(%s) error: %v", tt.id, err)
		}
		if len(points) != tt.want {
			t.Errorf("after sweep: Read(%s) returned %d points, want %d", tt.id, len(points), tt.want)
		}
	}
}

func TestPathForRejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"", "../escape", `a\b`} {
		if err := store.Upsert(id, "2024-01-01", 1); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("Upsert(id=%q) error = %v, want ErrValidation", id, err)
		}
	}
}
