package station

import (
	"context"
	"errors"
	"time"

	"randomradio/cache"
	"randomradio/logger"
	"randomradio/model"

	"github.com/google/uuid"
)

// Run drives the station until ctx is canceled or the queue runs dry in
// non-endless mode. The loop is single-threaded: narration, ducking and
// track playback are sequenced within one cycle; only FX cues overlap.
func Run(ctx context.Context, s *Station) error {
	logger.Info("Station loop starting",
		logger.Int("queued", s.QueueLen()),
		logger.Bool("endless", s.cfg.Endless))

	for {
		if err := ctx.Err(); err != nil {
			s.setState(StateIdle)
			return err
		}

		track, ok := s.nextTrack()
		if !ok {
			s.setState(StateIdle)
			logger.Info("Queue exhausted, station stopping")
			return nil
		}

		if err := s.playCycle(ctx, track); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.setState(StateIdle)
				return err
			}
			// A single bad file must not kill the station.
			logger.Error("Play cycle failed",
				logger.String("track", track.FilePath),
				logger.ErrorField(err))
		}
	}
}

// nextTrack applies the selection policy under the current mood and pops the
// chosen track from the queue, refilling first when endless mode allows.
// The mutex is held across the selection so a concurrent SetQueue (library
// rescan) cannot swap the queue between picking an index and popping it.
func (s *Station) nextTrack() (model.Track, bool) {
	s.setState(StateSelecting)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 && s.cfg.Endless && s.rebuild != nil {
		s.queue = s.rebuild()
		logger.Info("Queue rebuilt for endless playback", logger.Int("queued", len(s.queue)))
	}
	if len(s.queue) == 0 {
		return model.Track{}, false
	}

	idx, err := s.policy.Next(s.queue, s.mood)
	if err != nil || idx < 0 || idx >= len(s.queue) {
		if err != nil {
			logger.Warn("Selection policy failed, falling back to queue head", logger.ErrorField(err))
		}
		idx = 0
	}

	track := s.queue[idx]
	s.queue = append(s.queue[:idx], s.queue[idx+1:]...)
	return track, true
}

// playCycle runs one full Narrating -> Playing -> Logging pass for a track.
func (s *Station) playCycle(ctx context.Context, track model.Track) error {
	mood := s.Mood()

	s.mu.Lock()
	s.now = model.NowPlaying{
		Album:     track.Album,
		Title:     track.Title,
		TrackPath: track.FilePath,
		Mood:      mood,
		Paused:    s.engine.Paused(),
		Volume:    s.engine.Volume(),
		StartedAt: time.Now(),
	}
	s.mu.Unlock()

	narration := s.narrate(ctx, track, mood)

	s.mu.Lock()
	s.now.Narration = narration
	now := s.now
	s.mu.Unlock()
	s.broadcast("now_playing", now)
	cache.SetNowPlaying(ctx, now)

	playErr := s.playTrack(ctx, track)
	if playErr != nil {
		if errors.Is(playErr, context.Canceled) && ctx.Err() == nil {
			// Skip: the event is still logged as an attempted playback.
			playErr = nil
		}
	}

	s.logEvent(track, narration, mood)
	s.setState(StateIdle)
	return playErr
}

// narrate generates and speaks the introduction with the music ducked. The
// previous volume is restored on every exit path, narration failure
// included. Returns the narration text, empty when narration was skipped.
func (s *Station) narrate(ctx context.Context, track model.Track, mood string) string {
	s.setState(StateNarrating)

	prevVolume := s.engine.Volume()
	s.engine.SetVolume(s.cfg.DuckVolume)
	defer s.engine.SetVolume(prevVolume)

	text, err := s.narrator.Generate(ctx, track, mood)
	if err != nil {
		// Degrade gracefully: the track plays silently.
		logger.Warn("Narration unavailable, playing without introduction",
			logger.String("track", track.Title),
			logger.ErrorField(err))
		return ""
	}

	if s.cfg.FXDir != "" && s.cfg.CueName != "" {
		if cue, ok := FindCue(s.cfg.FXDir, s.cfg.CueName); ok {
			s.engine.PlayCue(cue)
		}
	}

	if s.speaker == nil {
		// No voice installed: the introduction is still logged and shown in
		// the panel, it is just not spoken.
		return text
	}

	wavData, err := s.speaker.Synthesize(ctx, text)
	if err != nil {
		logger.Warn("Speech synthesis failed, playing without introduction",
			logger.String("track", track.Title),
			logger.ErrorField(err))
		return text
	}

	s.broadcast("narration", map[string]string{"track": track.Title, "text": text})
	if err := s.engine.PlayWAV(ctx, wavData); err != nil {
		logger.Warn("Narration playback interrupted", logger.ErrorField(err))
	}

	return text
}

// playTrack plays the music file with a per-track cancel hook for Skip.
func (s *Station) playTrack(ctx context.Context, track model.Track) error {
	s.setState(StatePlaying)

	trackCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.skipTrack = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.skipTrack = nil
		s.mu.Unlock()
	}()

	logger.Info("Playing track",
		logger.String("album", track.Album),
		logger.String("title", track.Title))

	duration, err := s.engine.PlayFile(trackCtx, track.FilePath)
	if duration > 0 && s.catalog != nil {
		if cerr := s.catalog.RecordPlay(track.FilePath, float32(duration.Seconds())); cerr != nil {
			logger.Warn("Failed to record play in catalog", logger.ErrorField(cerr))
		}
	}
	return err
}

// logEvent appends the play event to the history store and to the in-memory
// ring. A write failure is logged and playback continues without history.
func (s *Station) logEvent(track model.Track, narration, mood string) {
	s.setState(StateLogging)

	event := model.PlayEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		TrackPath: track.FilePath,
		Album:     track.Album,
		Title:     track.Title,
		Narration: narration,
		Mood:      mood,
	}

	if err := s.history.Append(event); err != nil {
		logger.Error("Failed to append play event to history", logger.ErrorField(err))
	}

	s.mu.Lock()
	s.recent = append(s.recent, event)
	if len(s.recent) > recentHistorySize {
		s.recent = s.recent[len(s.recent)-recentHistorySize:]
	}
	s.mu.Unlock()

	s.broadcast("history", event)
}
