package station

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"randomradio/model"
)

type fakeEngine struct {
	mu          sync.Mutex
	volume      int
	volumeCalls []int
	paused      bool
	playedFiles []string
	playedWAVs  int
	playedCues  []string
	playFile    func(ctx context.Context, path string) (time.Duration, error)
}

func newFakeEngine(volume int) *fakeEngine {
	return &fakeEngine{volume: volume}
}

func (e *fakeEngine) PlayFile(ctx context.Context, path string) (time.Duration, error) {
	e.mu.Lock()
	e.playedFiles = append(e.playedFiles, path)
	hook := e.playFile
	e.mu.Unlock()
	if hook != nil {
		return hook(ctx, path)
	}
	return 2 * time.Second, nil
}

func (e *fakeEngine) PlayWAV(ctx context.Context, wavData []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playedWAVs++
	return nil
}

func (e *fakeEngine) PlayCue(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playedCues = append(e.playedCues, path)
}

func (e *fakeEngine) SetVolume(percent int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = percent
	e.volumeCalls = append(e.volumeCalls, percent)
}

func (e *fakeEngine) Volume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *fakeEngine) SetPaused(paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = paused
}

func (e *fakeEngine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

type fakeNarrator struct {
	text string
	err  error
}

func (n *fakeNarrator) Generate(ctx context.Context, track model.Track, mood string) (string, error) {
	if n.err != nil {
		return "", n.err
	}
	return n.text, nil
}

type fakeSpeaker struct {
	err   error
	calls int
}

func (s *fakeSpeaker) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte("RIFFwav"), nil
}

type fakeHistory struct {
	mu     sync.Mutex
	events []model.PlayEvent
	err    error
}

func (h *fakeHistory) Append(event model.PlayEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.events = append(h.events, event)
	return nil
}

func (h *fakeHistory) all() []model.PlayEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]model.PlayEvent, len(h.events))
	copy(out, h.events)
	return out
}

type fakeCatalog struct {
	mu    sync.Mutex
	plays map[string]float32
}

func (c *fakeCatalog) RecordPlay(trackPath string, duration float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.plays == nil {
		c.plays = make(map[string]float32)
	}
	c.plays[trackPath] = duration
	return nil
}

type headPolicy struct{}

func (headPolicy) Next(remaining []model.Track, mood string) (int, error) {
	if len(remaining) == 0 {
		return 0, errors.New("empty")
	}
	return 0, nil
}

func testTracks(n int) []model.Track {
	tracks := make([]model.Track, n)
	for i := range tracks {
		tracks[i] = model.Track{
			Album:    "Album",
			Title:    string(rune('A' + i)),
			FilePath: filepath.Join("/music", string(rune('A'+i))+".mp3"),
		}
	}
	return tracks
}

func newTestStation(cfg Config, engine AudioEngine, narrator Narrator, speaker Speaker, history HistoryStore, catalog Catalog) *Station {
	return New(cfg, engine, narrator, speaker, headPolicy{}, history, catalog, nil, rand.New(rand.NewSource(1)))
}

func TestRunPlaysWholeQueue(t *testing.T) {
	engine := newFakeEngine(80)
	history := &fakeHistory{}
	catalog := &fakeCatalog{}
	speaker := &fakeSpeaker{}
	s := newTestStation(Config{MusicVolume: 80, DuckVolume: 20},
		engine, &fakeNarrator{text: "Here we go."}, speaker, history, catalog)
	s.SetQueue(testTracks(3), nil)

	if err := Run(context.Background(), s); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	events := history.all()
	if len(events) != 3 {
		t.Fatalf("logged %d events, want 3", len(events))
	}
	for _, ev := range events {
		if ev.Narration != "Here we go." {
			t.Errorf("event narration = %q", ev.Narration)
		}
		if ev.ID == "" || ev.Timestamp.IsZero() {
			t.Errorf("event missing id or timestamp: %+v", ev)
		}
	}
	if len(engine.playedFiles) != 3 {
		t.Errorf("played %d files, want 3", len(engine.playedFiles))
	}
	if speaker.calls != 3 {
		t.Errorf("speaker called %d times, want 3", speaker.calls)
	}
	if engine.playedWAVs != 3 {
		t.Errorf("played %d narration WAVs, want 3", engine.playedWAVs)
	}
	if len(catalog.plays) != 3 {
		t.Errorf("catalog recorded %d plays, want 3", len(catalog.plays))
	}
	if got := s.State(); got != StateIdle {
		t.Errorf("final state = %q, want idle", got)
	}
	if s.QueueLen() != 0 {
		t.Errorf("queue not drained: %d left", s.QueueLen())
	}
	if len(s.Recent()) != 3 {
		t.Errorf("recent history has %d events, want 3", len(s.Recent()))
	}
}

func TestDuckingRestoredAroundNarration(t *testing.T) {
	engine := newFakeEngine(80)
	s := newTestStation(Config{MusicVolume: 80, DuckVolume: 20},
		engine, &fakeNarrator{text: "Intro."}, &fakeSpeaker{}, &fakeHistory{}, nil)
	s.SetQueue(testTracks(1), nil)

	if err := Run(context.Background(), s); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if engine.Volume() != 80 {
		t.Errorf("volume after cycle = %d, want 80", engine.Volume())
	}
	if len(engine.volumeCalls) < 2 || engine.volumeCalls[0] != 20 {
		t.Fatalf("volume calls = %v, want duck to 20 then restore", engine.volumeCalls)
	}
	if last := engine.volumeCalls[len(engine.volumeCalls)-1]; last != 80 {
		t.Errorf("last volume call = %d, want restore to 80", last)
	}
}

func TestNarrationFailurePlaysSilently(t *testing.T) {
	engine := newFakeEngine(80)
	history := &fakeHistory{}
	speaker := &fakeSpeaker{}
	s := newTestStation(Config{MusicVolume: 80, DuckVolume: 20},
		engine, &fakeNarrator{err: errors.New("model down")}, speaker, history, nil)
	s.SetQueue(testTracks(1), nil)

	if err := Run(context.Background(), s); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	events := history.all()
	if len(events) != 1 {
		t.Fatalf("logged %d events, want 1", len(events))
	}
	if events[0].Narration != "" {
		t.Errorf("narration = %q, want empty after failure", events[0].Narration)
	}
	if len(engine.playedFiles) != 1 {
		t.Errorf("track not played after narration failure")
	}
	if speaker.calls != 0 {
		t.Errorf("speaker called despite narration failure")
	}
	// Volume still restored even though narration bailed out early.
	if engine.Volume() != 80 {
		t.Errorf("volume after failed narration = %d, want 80", engine.Volume())
	}
}

func TestSpeechFailureKeepsNarrationText(t *testing.T) {
	engine := newFakeEngine(80)
	history := &fakeHistory{}
	s := newTestStation(Config{MusicVolume: 80, DuckVolume: 20},
		engine, &fakeNarrator{text: "Spoken intro."}, &fakeSpeaker{err: errors.New("piper missing")}, history, nil)
	s.SetQueue(testTracks(1), nil)

	if err := Run(context.Background(), s); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	events := history.all()
	if len(events) != 1 || events[0].Narration != "Spoken intro." {
		t.Errorf("events = %+v, want narration text kept", events)
	}
	if engine.playedWAVs != 0 {
		t.Errorf("WAV played despite synthesis failure")
	}
}

func TestNilSpeakerShowsNarrationUnspoken(t *testing.T) {
	engine := newFakeEngine(80)
	history := &fakeHistory{}
	s := newTestStation(Config{MusicVolume: 80, DuckVolume: 20},
		engine, &fakeNarrator{text: "Silent intro."}, nil, history, nil)
	s.SetQueue(testTracks(1), nil)

	if err := Run(context.Background(), s); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	events := history.all()
	if len(events) != 1 || events[0].Narration != "Silent intro." {
		t.Errorf("events = %+v, want narration text logged", events)
	}
	if engine.playedWAVs != 0 {
		t.Errorf("WAV played without a speaker")
	}
}

func TestSkipLogsEvent(t *testing.T) {
	engine := newFakeEngine(80)
	started := make(chan struct{})
	engine.playFile = func(ctx context.Context, path string) (time.Duration, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	}
	history := &fakeHistory{}
	s := newTestStation(Config{MusicVolume: 80, DuckVolume: 20},
		engine, &fakeNarrator{text: "Intro."}, &fakeSpeaker{}, history, nil)
	s.SetQueue(testTracks(1), nil)

	go func() {
		<-started
		s.Skip()
	}()

	if err := Run(context.Background(), s); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if events := history.all(); len(events) != 1 {
		t.Errorf("skip logged %d events, want 1", len(events))
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	engine := newFakeEngine(80)
	engine.playFile = func(ctx context.Context, path string) (time.Duration, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	s := newTestStation(Config{MusicVolume: 80, DuckVolume: 20, Endless: true},
		engine, &fakeNarrator{text: "Intro."}, &fakeSpeaker{}, &fakeHistory{}, nil)
	s.SetQueue(testTracks(2), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, s) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}

func TestEndlessModeRebuildsQueue(t *testing.T) {
	engine := newFakeEngine(80)
	history := &fakeHistory{}
	rebuilds := 0
	rebuild := func() []model.Track {
		rebuilds++
		if rebuilds == 1 {
			return testTracks(1)
		}
		return nil
	}
	s := newTestStation(Config{MusicVolume: 80, DuckVolume: 20, Endless: true},
		engine, &fakeNarrator{text: "Intro."}, &fakeSpeaker{}, history, nil)
	s.SetQueue(testTracks(1), rebuild)

	if err := Run(context.Background(), s); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(history.all()) != 2 {
		t.Errorf("logged %d events, want 2 (one per queue fill)", len(history.all()))
	}
	if rebuilds != 2 {
		t.Errorf("rebuild called %d times, want 2", rebuilds)
	}
}

func TestCuePlayedBeforeNarration(t *testing.T) {
	fxDir := t.TempDir()
	cuePath := filepath.Join(fxDir, "airhorn.wav")
	if err := os.WriteFile(cuePath, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	engine := newFakeEngine(80)
	s := newTestStation(Config{MusicVolume: 80, DuckVolume: 20, FXDir: fxDir, CueName: "airhorn"},
		engine, &fakeNarrator{text: "Intro."}, &fakeSpeaker{}, &fakeHistory{}, nil)
	s.SetQueue(testTracks(1), nil)

	if err := Run(context.Background(), s); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(engine.playedCues) != 1 || engine.playedCues[0] != cuePath {
		t.Errorf("cues played = %v, want %q", engine.playedCues, cuePath)
	}
}

// stallingPolicy pauses inside Next so the test can swap the queue while a
// selection is in flight, then picks the last index of what it was given.
type stallingPolicy struct {
	started sync.Once
	begun   chan struct{}
	proceed chan struct{}
}

func (p *stallingPolicy) Next(remaining []model.Track, mood string) (int, error) {
	p.started.Do(func() { close(p.begun) })
	<-p.proceed
	if len(remaining) == 0 {
		return 0, errors.New("empty")
	}
	return len(remaining) - 1, nil
}

func TestQueueReplacedDuringSelection(t *testing.T) {
	engine := newFakeEngine(80)
	history := &fakeHistory{}
	policy := &stallingPolicy{
		begun:   make(chan struct{}),
		proceed: make(chan struct{}),
	}
	s := New(Config{MusicVolume: 80, DuckVolume: 20},
		engine, &fakeNarrator{text: "Intro."}, &fakeSpeaker{}, policy, history, nil, nil,
		rand.New(rand.NewSource(1)))
	s.SetQueue(testTracks(3), nil)

	done := make(chan error, 1)
	go func() { done <- Run(context.Background(), s) }()

	// Replace the queue with an empty one while the policy is mid-selection.
	<-policy.begun
	replaced := make(chan struct{})
	go func() {
		s.SetQueue(nil, nil)
		close(replaced)
	}()
	time.Sleep(20 * time.Millisecond)
	close(policy.proceed)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run() did not finish")
	}
	<-replaced

	// The in-flight selection completes against the queue it started with;
	// the replacement lands between cycles and ends the run. No crash, and
	// every played track got its event.
	got := len(history.all())
	if got == 0 || got > 2 {
		t.Errorf("logged %d events, want 1 or 2 depending on when the replacement lands", got)
	}
	if got != len(engine.playedFiles) {
		t.Errorf("%d events for %d played tracks", got, len(engine.playedFiles))
	}
}

func TestHistoryWriteFailureDoesNotStopStation(t *testing.T) {
	engine := newFakeEngine(80)
	s := newTestStation(Config{MusicVolume: 80, DuckVolume: 20},
		engine, &fakeNarrator{text: "Intro."}, &fakeSpeaker{}, &fakeHistory{err: errors.New("disk full")}, nil)
	s.SetQueue(testTracks(2), nil)

	if err := Run(context.Background(), s); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(engine.playedFiles) != 2 {
		t.Errorf("played %d files, want 2 despite history failure", len(engine.playedFiles))
	}
}
