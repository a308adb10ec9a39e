package audio

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrUnavailable is returned when the audio engine cannot be initialized.
// The station cannot run without audio output, so this is fatal at startup.
var ErrUnavailable = errors.New("audio engine unavailable")

// Engine is the playback surface the sequencer drives. One music streamer
// plays at a time; cues are fire-and-forget and may overlap anything.
type Engine interface {
	// PlayFile plays one audio file and blocks until it finishes or ctx is
	// canceled. Returns the decoded track duration.
	PlayFile(ctx context.Context, path string) (time.Duration, error)

	// PlayWAV plays in-memory WAV audio (narration) and blocks until done.
	PlayWAV(ctx context.Context, wavData []byte) error

	// PlayCue fires a short stinger without blocking and without ordering
	// guarantees relative to the main cycle.
	PlayCue(path string)

	// SetVolume sets the music output level in percent (0-100). It applies
	// to the currently playing streamer immediately.
	SetVolume(percent int)
	Volume() int

	// SetPaused pauses or resumes the current music streamer.
	SetPaused(paused bool)
	Paused() bool

	Close() error
}

// gainForPercent maps a 0-100 volume percent onto the exponential gain used
// by the volume effect (base 2). 100% is unity gain; 0% is silence and is
// handled by the Silent flag, not the exponent.
func gainForPercent(percent int) float64 {
	if percent <= 0 {
		return 0
	}
	if percent > 100 {
		percent = 100
	}
	return math.Log2(float64(percent) / 100)
}
