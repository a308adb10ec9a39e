package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"randomradio/logger"
	"randomradio/model"
)

// ErrWrite is returned when the history file cannot be written. Recoverable:
// the station logs it and keeps playing without history.
var ErrWrite = errors.New("history write failed")

// historyHeader is the fixed CSV column schema. The viewer and any external
// reader depend on it; never reorder.
var historyHeader = []string{"timestamp", "track", "narration", "mood"}

// HistoryRepository defines the append-only play log. There is a single
// writer (the sequencer); readers re-read the file independently.
type HistoryRepository interface {
	Append(event model.PlayEvent) error
	ReadAll() ([]model.PlayEvent, error)
	ReadRecent(limit int) ([]model.PlayEvent, error)
	Path() string
}

// csvHistoryRepository implements HistoryRepository on a flat CSV file.
type csvHistoryRepository struct {
	path string
	mu   sync.Mutex
}

// NewCSVHistoryRepository creates a history store appending to path.
func NewCSVHistoryRepository(path string) HistoryRepository {
	return &csvHistoryRepository{path: path}
}

// Append writes one row, creating the file and header on first use. Rows are
// never deduplicated: appending the same event twice yields two rows.
func (r *csvHistoryRepository) Append(event model.PlayEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create history directory: %v: %w", err, ErrWrite)
		}
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history file %s: %v: %w", r.path, err, ErrWrite)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat history file: %v: %w", err, ErrWrite)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(historyHeader); err != nil {
			return fmt.Errorf("failed to write history header: %v: %w", err, ErrWrite)
		}
	}

	record := []string{
		event.Timestamp.Format(time.RFC3339),
		event.TrackPath,
		event.Narration,
		event.Mood,
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("failed to write history row: %v: %w", err, ErrWrite)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush history row: %v: %w", err, ErrWrite)
	}

	logger.Debug("Play event logged",
		logger.String("track", event.TrackPath),
		logger.String("mood", event.Mood))
	return nil
}

// ReadAll re-reads the whole file. A missing file is an empty history, not
// an error.
func (r *csvHistoryRepository) ReadAll() ([]model.PlayEvent, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.PlayEvent{}, nil
		}
		return nil, fmt.Errorf("failed to open history file %s: %w", r.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(historyHeader)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse history file %s: %w", r.path, err)
	}

	events := make([]model.PlayEvent, 0, len(records))
	for i, record := range records {
		if i == 0 && record[0] == historyHeader[0] {
			continue
		}
		ts, err := time.Parse(time.RFC3339, record[0])
		if err != nil {
			logger.Warn("Skipping history row with bad timestamp",
				logger.String("value", record[0]))
			continue
		}
		trackPath := record[1]
		events = append(events, model.PlayEvent{
			Timestamp: ts,
			TrackPath: trackPath,
			Album:     filepath.Base(filepath.Dir(trackPath)),
			Title:     strings.TrimSuffix(filepath.Base(trackPath), filepath.Ext(trackPath)),
			Narration: record[2],
			Mood:      record[3],
		})
	}
	return events, nil
}

// ReadRecent returns the last limit rows, oldest first.
func (r *csvHistoryRepository) ReadRecent(limit int) ([]model.PlayEvent, error) {
	events, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// Path returns the CSV file location.
func (r *csvHistoryRepository) Path() string {
	return r.path
}
