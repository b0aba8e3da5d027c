package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/codyseavey/pokebinder/backend/internal/apperr"
	"github.com/codyseavey/pokebinder/backend/internal/database"
	"github.com/codyseavey/pokebinder/backend/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("database.Open() error: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	return New(db)
}

func testCard(id, name string) models.Card {
	return models.Card{
		ID:              id,
		Name:            name,
		Rarity:          "Rare Holo",
		SetID:           "base1",
		SetName:         "Base Set",
		Number:          "4",
		TCGPlayerPrices: []byte(`{"holofoil":{"market":10.0}}`),
	}
}

func TestCreateCollection(t *testing.T) {
	store := newTestStore(t)

	collection, err := store.CreateCollection("  Booster Box  ")
	if err != nil {
		t.Fatalf("CreateCollection() error: %v", err)
	}
	if collection.Name != "Booster Box" {
		t.Errorf("Name = %q, want trimmed %q", collection.Name, "Booster Box")
	}
	if collection.TotalValue != 0 {
		t.Errorf("TotalValue = %f, want 0", collection.TotalValue)
	}
	if collection.ID == "" {
		t.Error("ID is empty")
	}
	if !collection.CreatedAt.Equal(collection.UpdatedAt) {
		t.Error("CreatedAt != UpdatedAt on a fresh collection")
	}
}

func TestCreateCollectionRejectsBlankName(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := store.CreateCollection(name)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("CreateCollection(%q) error = %v, want ErrValidation", name, err)
		}
	}
}

func TestRenameCollection(t *testing.T) {
	store := newTestStore(t)
	collection, _ := store.CreateCollection("Old")

	if err := store.RenameCollection(collection.ID, "New"); err != nil {
		t.Fatalf("RenameCollection() error: %v", err)
	}
	got, err := store.GetCollection(collection.ID)
	if err != nil {
		t.Fatalf("GetCollection() error: %v", err)
	}
	if got.Name != "New" {
		t.Errorf("Name = %q, want %q", got.Name, "New")
	}

	if err := store.RenameCollection("missing", "X"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("RenameCollection(missing) error = %v, want ErrNotFound", err)
	}
	if err := store.RenameCollection(collection.ID, "  "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("RenameCollection(blank) error = %v, want ErrValidation", err)
	}
}

func TestAddEntryRowPerCopy(t *testing.T) {
	store := newTestStore(t)
	collection, _ := store.CreateCollection("Binder")
	card := testCard("base1-4", "Charizard")

	for i := 0; i < 3; i++ {
		if _, err := store.AddEntry(card, collection.ID, models.LanguageEnglish, "", "", ""); err != nil {
			t.Fatalf("AddEntry() #%d error: %v", i, err)
		}
	}

	entries, err := store.GetEntries(collection.ID)
	if err != nil {
		t.Fatalf("GetEntries() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d rows, want 3 (one row per copy)", len(entries))
	}
	for _, entry := range entries {
		if entry.Quantity != 1 {
			t.Errorf("entry %s quantity = %d, want 1", entry.ID, entry.Quantity)
		}
		if entry.Name != "Charizard" {
			t.Errorf("entry %s snapshot name = %q, want Charizard", entry.ID, entry.Name)
		}
	}
}

func TestAddEntryUnknownCollection(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddEntry(testCard("base1-4", "Charizard"), "missing", models.LanguageEnglish, "", "", "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("AddEntry(missing collection) error = %v, want ErrNotFound", err)
	}
}

func TestRemoveOneCopyLIFO(t *testing.T) {
	store := newTestStore(t)
	collection, _ := store.CreateCollection("Binder")
	card := testCard("base1-4", "Charizard")

	first, err := store.AddEntry(card, collection.ID, models.LanguageEnglish, "", "first", "")
	if err != nil {
		t.Fatalf("AddEntry() error: %v", err)
	}
	if _, err := store.AddEntry(card, collection.ID, models.LanguageEnglish, "", "second", ""); err != nil {
		t.Fatalf("AddEntry() error: %v", err)
	}

	removed, err := store.RemoveOneCopy(card.ID, collection.ID)
	if err != nil {
		t.Fatalf("RemoveOneCopy() error: %v", err)
	}
	if !removed {
		t.Fatal("RemoveOneCopy() removed = false, want true")
	}

	entries, err := store.GetEntries(collection.ID)
	if err != nil {
		t.Fatalf("GetEntries() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d rows after removal, want 1", len(entries))
	}
	// Most-recently-added copy goes first; the original survives.
	if entries[0].ID != first.ID {
		t.Errorf("surviving row = %q (notes %q), want the oldest row %q", entries[0].ID, entries[0].Notes, first.ID)
	}
}

func TestRemoveOneCopyNoMatchIsNoOp(t *testing.T) {
	store := newTestStore(t)
	collection, _ := store.CreateCollection("Binder")

	removed, err := store.RemoveOneCopy("missing-card", collection.ID)
	if err != nil {
		t.Fatalf("RemoveOneCopy() error: %v", err)
	}
	if removed {
		t.Error("RemoveOneCopy() removed = true on empty match, want false")
	}
}

func TestRemoveAllCopies(t *testing.T) {
	store := newTestStore(t)
	collection, _ := store.CreateCollection("Binder")
	card := testCard("base1-4", "Charizard")
	other := testCard("base1-58", "Pikachu")

	for i := 0; i < 3; i++ {
		store.AddEntry(card, collection.ID, models.LanguageEnglish, "", "", "")
	}
	store.AddEntry(other, collection.ID, models.LanguageEnglish, "", "", "")

	removed, err := store.RemoveAllCopies(card.ID, collection.ID)
	if err != nil {
		t.Fatalf("RemoveAllCopies() error: %v", err)
	}
	if removed != 3 {
		t.Errorf("RemoveAllCopies() = %d, want 3", removed)
	}

	entries, _ := store.GetEntries(collection.ID)
	if len(entries) != 1 || entries[0].CardID != other.ID {
		t.Errorf("remaining rows = %d, want only the Pikachu row", len(entries))
	}
}

func TestDuplicateOneCopy(t *testing.T) {
	store := newTestStore(t)
	collection, _ := store.CreateCollection("Binder")
	card := testCard("base1-4", "Charizard")

	original, err := store.AddEntry(card, collection.ID, models.LanguageJapanese, "1st", "graded", "img.png")
	if err != nil {
		t.Fatalf("AddEntry() error: %v", err)
	}

	clone, err := store.DuplicateOneCopy(card.ID, collection.ID)
	if err != nil {
		t.Fatalf("DuplicateOneCopy() error: %v", err)
	}
	if clone.ID == original.ID {
		t.Error("clone reused the original row id")
	}
	if clone.Language != original.Language || clone.Edition != original.Edition || clone.Notes != original.Notes {
		t.Error("clone did not copy the full snapshot")
	}
	if string(clone.TCGPlayerPrices) != string(original.TCGPlayerPrices) {
		t.Error("clone did not copy the vendor payload snapshot")
	}

	entries, _ := store.GetEntries(collection.ID)
	if len(entries) != 2 {
		t.Errorf("got %d rows after duplicate, want 2", len(entries))
	}

	_, err = store.DuplicateOneCopy("missing-card", collection.ID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("DuplicateOneCopy(missing) error = %v, want ErrNotFound", err)
	}
}

func TestGetGroupedEntries(t *testing.T) {
	store := newTestStore(t)
	collection, _ := store.CreateCollection("Binder")

	charizard := testCard("base1-4", "Charizard")
	pikachu := testCard("base1-58", "Pikachu")
	abra := testCard("base1-43", "Abra")

	for i := 0; i < 3; i++ {
		store.AddEntry(charizard, collection.ID, models.LanguageEnglish, "", "", "")
	}
	store.AddEntry(pikachu, collection.ID, models.LanguageEnglish, "", "", "")
	store.AddEntry(abra, collection.ID, models.LanguageEnglish, "", "", "")

	grouped, err := store.GetGroupedEntries(collection.ID)
	if err != nil {
		t.Fatalf("GetGroupedEntries() error: %v", err)
	}

	want := []struct {
		cardID   string
		quantity int
	}{
		{"base1-43", 1}, // Abra
		{"base1-4", 3},  // Charizard
		{"base1-58", 1}, // Pikachu
	}
	if len(grouped) != len(want) {
		t.Fatalf("got %d groups, want %d", len(grouped), len(want))
	}
	for i, w := range want {
		if grouped[i].CardID != w.cardID {
			t.Errorf("group[%d].CardID = %q, want %q (sorted by name)", i, grouped[i].CardID, w.cardID)
		}
		if grouped[i].Quantity != w.quantity {
			t.Errorf("group[%d].Quantity = %d, want %d", i, grouped[i].Quantity, w.quantity)
		}
	}
	if grouped[1].UnitValue != 10.0 {
		t.Errorf("Charizard unit value = %f, want 10.0", grouped[1].UnitValue)
	}
}

func TestDeleteCollectionCascades(t *testing.T) {
	store := newTestStore(t)
	collection, _ := store.CreateCollection("Binder")
	other, _ := store.CreateCollection("Keep")

	card := testCard("base1-4", "Charizard")
	for i := 0; i < 3; i++ {
		store.AddEntry(card, collection.ID, models.LanguageEnglish, "", "", "")
	}
	store.AddEntry(card, other.ID, models.LanguageEnglish, "", "", "")

	if err := store.DeleteCollection(collection.ID); err != nil {
		t.Fatalf("DeleteCollection() error: %v", err)
	}

	if _, err := store.GetCollection(collection.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetCollection(deleted) error = %v, want ErrNotFound", err)
	}

	entries, err := store.GetEntries(collection.ID)
	if err != nil {
		t.Fatalf("GetEntries() error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("deleted collection still has %d rows", len(entries))
	}

	kept, _ := store.GetEntries(other.ID)
	if len(kept) != 1 {
		t.Errorf("other collection lost rows: got %d, want 1", len(kept))
	}

	if err := store.DeleteCollection(collection.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("DeleteCollection(again) error = %v, want ErrNotFound", err)
	}
}

func TestCountCollectionsContainingCard(t *testing.T) {
	store := newTestStore(t)
	a, _ := store.CreateCollection("A")
	b, _ := store.CreateCollection("B")
	c, _ := store.CreateCollection("C")

	card := testCard("base1-4", "Charizard")
	store.AddEntry(card, a.ID, models.LanguageEnglish, "", "", "")
	store.AddEntry(card, a.ID, models.LanguageEnglish, "", "", "")
	store.AddEntry(card, b.ID, models.LanguageEnglish, "", "", "")

	counts, err := store.CountCollectionsContainingCard(card.ID)
	if err != nil {
		t.Fatalf("CountCollectionsContainingCard() error: %v", err)
	}
	if counts[a.ID] != 2 || counts[b.ID] != 1 {
		t.Errorf("counts = %v, want {%s:2, %s:1}", counts, a.ID, b.ID)
	}
	if _, present := counts[c.ID]; present {
		t.Error("empty collection present in counts")
	}
}

func TestListCollections(t *testing.T) {
	store := newTestStore(t)
	a, _ := store.CreateCollection("A")
	store.CreateCollection("B")

	card := testCard("base1-4", "Charizard")
	store.AddEntry(card, a.ID, models.LanguageEnglish, "", "", "")
	store.AddEntry(card, a.ID, models.LanguageEnglish, "", "", "")

	summaries, err := store.ListCollections()
	if err != nil {
		t.Fatalf("ListCollections() error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d collections, want 2", len(summaries))
	}

	byID := make(map[string]int)
	for _, summary := range summaries {
		byID[summary.ID] = summary.CardCount
	}
	if byID[a.ID] != 2 {
		t.Errorf("collection A card count = %d, want 2", byID[a.ID])
	}
}

func TestListCollectionsWithPreview(t *testing.T) {
	store := newTestStore(t)
	collection, _ := store.CreateCollection("Binder")

	for i := 0; i < 5; i++ {
		card := testCard(fmt.Sprintf("base1-%d", i), fmt.Sprintf("Card %d", i))
		store.AddEntry(card, collection.ID, models.LanguageEnglish, "", "", fmt.Sprintf("img-%d.png", i))
	}

	previews, err := store.ListCollectionsWithPreview()
	if err != nil {
		t.Fatalf("ListCollectionsWithPreview() error: %v", err)
	}
	if len(previews) != 1 {
		t.Fatalf("got %d previews, want 1", len(previews))
	}
	if len(previews[0].PreviewImages) != 3 {
		t.Errorf("got %d preview images, want 3", len(previews[0].PreviewImages))
	}
}

func TestSetTotalValue(t *testing.T) {
	store := newTestStore(t)
	collection, _ := store.CreateCollection("Binder")

	entryTime := collection.UpdatedAt.AddDate(0, 0, 1)
	if err := store.SetTotalValue(collection.ID, 42.5, entryTime); err != nil {
		t.Fatalf("SetTotalValue() error: %v", err)
	}

	got, _ := store.GetCollection(collection.ID)
	if got.TotalValue != 42.5 {
		t.Errorf("TotalValue = %f, want 42.5", got.TotalValue)
	}
	if !got.UpdatedAt.After(collection.UpdatedAt) {
		t.Error("UpdatedAt not advanced by SetTotalValue")
	}

	if err := store.SetTotalValue("missing", 1, entryTime); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("SetTotalValue(missing) error = %v, want ErrNotFound", err)
	}
}
