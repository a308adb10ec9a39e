package repository

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"randomradio/model"
)

func testEvent(title string) model.PlayEvent {
	return model.PlayEvent{
		Timestamp: time.Date(2026, 3, 14, 21, 30, 0, 0, time.UTC),
		TrackPath: "/music/Kind of Blue/" + title + ".mp3",
		Album:     "Kind of Blue",
		Title:     title,
		Narration: "Here comes " + title + ".",
		Mood:      "late night",
	}
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	repo := NewCSVHistoryRepository(path)

	if err := repo.Append(testEvent("So What")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := repo.Append(testEvent("Blue in Green")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("file has %d rows, want header + 2", len(records))
	}
	wantHeader := []string{"timestamp", "track", "narration", "mood"}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}
	if records[1][1] != "/music/Kind of Blue/So What.mp3" {
		t.Errorf("track column = %q", records[1][1])
	}
	if _, err := time.Parse(time.RFC3339, records[1][0]); err != nil {
		t.Errorf("timestamp column is not RFC3339: %q", records[1][0])
	}
}

func TestAppendDoesNotDeduplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	repo := NewCSVHistoryRepository(path)

	ev := testEvent("So What")
	if err := repo.Append(ev); err != nil {
		t.Fatal(err)
	}
	if err := repo.Append(ev); err != nil {
		t.Fatal(err)
	}

	events, err := repo.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("ReadAll() returned %d events, want 2 identical rows", len(events))
	}
}

func TestAppendEmptyNarration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	repo := NewCSVHistoryRepository(path)

	ev := testEvent("So What")
	ev.Narration = ""
	if err := repo.Append(ev); err != nil {
		t.Fatal(err)
	}

	events, err := repo.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Narration != "" {
		t.Errorf("events = %+v, want one row with empty narration", events)
	}
}

func TestReadAllMissingFile(t *testing.T) {
	repo := NewCSVHistoryRepository(filepath.Join(t.TempDir(), "nope.csv"))
	events, err := repo.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v, want nil for missing file", err)
	}
	if len(events) != 0 {
		t.Errorf("ReadAll() = %v, want empty", events)
	}
}

func TestReadAllDerivesAlbumAndTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	repo := NewCSVHistoryRepository(path)

	if err := repo.Append(testEvent("Flamenco Sketches")); err != nil {
		t.Fatal(err)
	}

	events, err := repo.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Album != "Kind of Blue" {
		t.Errorf("Album = %q", events[0].Album)
	}
	if events[0].Title != "Flamenco Sketches" {
		t.Errorf("Title = %q", events[0].Title)
	}
	if events[0].Mood != "late night" {
		t.Errorf("Mood = %q", events[0].Mood)
	}
}

func TestReadRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	repo := NewCSVHistoryRepository(path)

	for _, title := range []string{"One", "Two", "Three", "Four"} {
		if err := repo.Append(testEvent(title)); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := repo.ReadRecent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("ReadRecent(2) returned %d events", len(recent))
	}
	if recent[0].Title != "Three" || recent[1].Title != "Four" {
		t.Errorf("ReadRecent(2) = %q, %q; want last two oldest first", recent[0].Title, recent[1].Title)
	}

	all, err := repo.ReadRecent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("ReadRecent(0) returned %d events, want all 4", len(all))
	}
}

func TestAppendCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "history.csv")
	repo := NewCSVHistoryRepository(path)

	if err := repo.Append(testEvent("So What")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("history file not created: %v", err)
	}
}
