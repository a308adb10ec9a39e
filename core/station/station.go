package station

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"randomradio/logger"
	"randomradio/model"
)

// State names the sequencer phases. One cycle walks
// Idle -> Selecting -> Narrating -> Playing -> Logging -> Idle.
type State string

const (
	StateIdle      State = "idle"
	StateSelecting State = "selecting"
	StateNarrating State = "narrating"
	StatePlaying   State = "playing"
	StateLogging   State = "logging"
)

// recentHistorySize bounds the in-memory history kept for the status API;
// the CSV file is the durable record.
const recentHistorySize = 50

// Narrator produces a short introduction for a track, or an error when the
// generation endpoint is unavailable.
type Narrator interface {
	Generate(ctx context.Context, track model.Track, mood string) (string, error)
}

// Speaker turns narration text into WAV audio.
type Speaker interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// HistoryStore appends one play event per cycle.
type HistoryStore interface {
	Append(event model.PlayEvent) error
}

// Catalog records play statistics after a cycle. Optional.
type Catalog interface {
	RecordPlay(trackPath string, duration float32) error
}

// Notifier pushes station events to connected control panels. Optional.
type Notifier interface {
	Broadcast(msgType string, data interface{})
}

// SelectionPolicy picks the next track from the remaining queue.
type SelectionPolicy interface {
	Next(remaining []model.Track, mood string) (int, error)
}

// Config holds the sequencer knobs.
type Config struct {
	MusicVolume int    // 0-100 while music plays
	DuckVolume  int    // 0-100 floor while the DJ speaks
	FXDir       string // Optional stinger directory
	CueName     string // Stinger played before narration, e.g. "airhorn"
	Endless     bool   // Rebuild the queue when it runs out
}

// AudioEngine is the playback surface the station drives. It mirrors
// audio.Engine; the local interface keeps the sequencer testable without a
// sound card.
type AudioEngine interface {
	PlayFile(ctx context.Context, path string) (time.Duration, error)
	PlayWAV(ctx context.Context, wavData []byte) error
	PlayCue(path string)
	SetVolume(percent int)
	Volume() int
	SetPaused(paused bool)
	Paused() bool
}

// Station owns the playback loop. All mutable cycle inputs (mood, queue) are
// read under the mutex at the start of each cycle and passed through the
// cycle explicitly; nothing in the cycle reaches back into ambient state.
type Station struct {
	cfg      Config
	engine   AudioEngine
	narrator Narrator
	speaker  Speaker
	policy   SelectionPolicy
	history  HistoryStore
	catalog  Catalog
	notifier Notifier
	rng      *rand.Rand

	mu        sync.Mutex
	queue     []model.Track
	rebuild   func() []model.Track // queue source for endless mode / rescans
	mood      string
	state     State
	now       model.NowPlaying
	recent    []model.PlayEvent
	skipTrack context.CancelFunc
}

// New creates a Station. engine, narrator, speaker, policy and history are
// required; catalog and notifier may be nil.
func New(cfg Config, engine AudioEngine, narrator Narrator, speaker Speaker, policy SelectionPolicy, history HistoryStore, catalog Catalog, notifier Notifier, rng *rand.Rand) *Station {
	return &Station{
		cfg:      cfg,
		engine:   engine,
		narrator: narrator,
		speaker:  speaker,
		policy:   policy,
		history:  history,
		catalog:  catalog,
		notifier: notifier,
		rng:      rng,
		state:    StateIdle,
	}
}

// SetQueue replaces the pending queue. rebuild, when non-nil, is invoked to
// refill the queue in endless mode and after library rescans.
func (s *Station) SetQueue(queue []model.Track, rebuild func() []model.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = queue
	s.rebuild = rebuild
}

// QueueLen returns the number of tracks still pending.
func (s *Station) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// SetMood updates the mood cue consulted by the next selection.
func (s *Station) SetMood(mood string) {
	s.mu.Lock()
	s.mood = mood
	s.now.Mood = mood
	s.mu.Unlock()

	logger.Info("Mood cue updated", logger.String("mood", mood))
	s.broadcast("mood", map[string]string{"mood": mood})
}

// Mood returns the current mood cue.
func (s *Station) Mood() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mood
}

// Skip cancels the currently playing track. The cycle still logs the event.
func (s *Station) Skip() {
	s.mu.Lock()
	cancel := s.skipTrack
	s.mu.Unlock()
	if cancel != nil {
		logger.Info("Skipping current track")
		cancel()
	}
}

// SetVolume changes the music volume live.
func (s *Station) SetVolume(percent int) {
	s.engine.SetVolume(percent)
	s.mu.Lock()
	s.now.Volume = s.engine.Volume()
	now := s.now
	s.mu.Unlock()
	s.broadcast("volume", map[string]int{"volume": now.Volume})
}

// Volume returns the current music volume.
func (s *Station) Volume() int {
	return s.engine.Volume()
}

// SetPaused pauses or resumes playback.
func (s *Station) SetPaused(paused bool) {
	s.engine.SetPaused(paused)
	s.mu.Lock()
	s.now.Paused = paused
	s.mu.Unlock()
	s.broadcast("paused", map[string]bool{"paused": paused})
}

// Paused reports whether playback is paused.
func (s *Station) Paused() bool {
	return s.engine.Paused()
}

// State returns the current sequencer state.
func (s *Station) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Now returns a copy of the now-playing snapshot.
func (s *Station) Now() model.NowPlaying {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Recent returns the most recent play events of this session, newest last.
func (s *Station) Recent() []model.PlayEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PlayEvent, len(s.recent))
	copy(out, s.recent)
	return out
}

func (s *Station) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Station) broadcast(msgType string, data interface{}) {
	if s.notifier != nil {
		s.notifier.Broadcast(msgType, data)
	}
}
