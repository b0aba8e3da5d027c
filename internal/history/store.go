// Package history keeps a per-collection time series of daily value
// snapshots in sidecar JSON documents, independent of the relational store.
package history

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/codyseavey/pokebinder/backend/internal/apperr"
	"github.com/codyseavey/pokebinder/backend/internal/metrics"
	"github.com/codyseavey/pokebinder/backend/internal/models"
)

// RetentionCap bounds each document to roughly fifteen months of daily
// points; exceeding it evicts the oldest dates.
const RetentionCap = 450

// dateKeyLayout is the canonical calendar-day form. It sorts correctly as a
// plain string, which the retention and ordering logic relies on.
const dateKeyLayout = "2006-01-02"

// DateKeyUTC canonicalizes a timestamp to its UTC calendar day, so points
// never drift across days with the local timezone.
func DateKeyUTC(t time.Time) string {
	return t.UTC().Format(dateKeyLayout)
}

// Store persists one sidecar document per collection under dir.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.StorageIO("create history directory", err)
	}
	return &Store{dir: dir}, nil
}

// Upsert records totalValue for the given day, replacing any existing point
// with the same date key. Points stay sorted ascending by date and the
// oldest are evicted past the retention cap.
func (s *Store) Upsert(collectionID, dateKey string, totalValue float64) error {
	if err := validateDateKey(dateKey); err != nil {
		return err
	}
	path, err := s.pathFor(collectionID)
	if err != nil {
		return err
	}

	doc, err := s.load(path)
	if err != nil {
		return err
	}

	replaced := false
	for i := range doc.Points {
		if doc.Points[i].Date == dateKey {
			doc.Points[i].TotalValue = totalValue
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Points = append(doc.Points, models.HistoryPoint{Date: dateKey, TotalValue: totalValue})
	}

	sort.Slice(doc.Points, func(i, j int) bool {
		return doc.Points[i].Date < doc.Points[j].Date
	})

	if overflow := len(doc.Points) - RetentionCap; overflow > 0 {
		doc.Points = doc.Points[overflow:]
		metrics.HistoryEvictionsTotal.Add(float64(overflow))
	}

	if err := s.save(path, doc); err != nil {
		return err
	}
	metrics.HistoryUpsertsTotal.Inc()
	return nil
}

// Read returns the collection's points ascending by date. When days > 0, only
// points dated within the trailing window are returned. A collection with no
// document yields an empty slice.
func (s *Store) Read(collectionID string, days int) ([]models.HistoryPoint, error) {
	path, err := s.pathFor(collectionID)
	if err != nil {
		return nil, err
	}
	doc, err := s.load(path)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		return doc.Points, nil
	}

	cutoff := DateKeyUTC(time.Now().AddDate(0, 0, -days))
	filtered := make([]models.HistoryPoint, 0, len(doc.Points))
	for _, p := range doc.Points {
		if p.Date >= cutoff {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// Delete removes the collection's document. Absence is not an error.
func (s *Store) Delete(collectionID string) error {
	path, err := s.pathFor(collectionID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperr.StorageIO("delete history document", err)
	}
	return nil
}

// Sweep deletes documents whose collection no longer exists. This is the
// reconciliation half of the two-step delete protocol: the relational store
// and the sidecar share no transaction, so an orphan can survive a crash
// between the two deletes.
func (s *Store) Sweep(liveCollectionIDs []string) error {
	live := make(map[string]bool, len(liveCollectionIDs))
	for _, id := range liveCollectionIDs {
		live[id] = true
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return apperr.StorageIO("scan history directory", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if live[id] {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return apperr.StorageIO("sweep orphaned history document", err)
		}
		metrics.HistoryOrphansSwept.Inc()
	}
	return nil
}

func (s *Store) load(path string) (models.HistoryDocument, error) {
	var doc models.HistoryDocument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return doc, apperr.StorageIO("read history document", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.HistoryDocument{}, apperr.Serialization("decode history document", err)
	}
	return doc, nil
}

// save writes the document to a temp file in the same directory, syncs it,
// and renames it over the target in a single step. Rename is atomic on POSIX
// filesystems, so a crash leaves either the old document or the new one.
func (s *Store) save(path string, doc models.HistoryDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return apperr.Serialization("encode history document", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".history-*.tmp")
	if err != nil {
		return apperr.StorageIO("create temp history file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperr.StorageIO("write temp history file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperr.StorageIO("sync temp history file", err)
	}
	if err := tmp.Close(); err != nil {
		return apperr.StorageIO("close temp history file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return apperr.StorageIO("replace history document", err)
	}
	return nil
}

func (s *Store) pathFor(collectionID string) (string, error) {
	if collectionID == "" || strings.ContainsAny(collectionID, `/\`) {
		return "", apperr.Validation("invalid collection id %q", collectionID)
	}
	return filepath.Join(s.dir, collectionID+".json"), nil
}

func validateDateKey(dateKey string) error {
	if _, err := time.Parse(dateKeyLayout, dateKey); err != nil {
		return apperr.Validation("date key %q is not YYYY-MM-DD", dateKey)
	}
	return nil
}
