package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"randomradio/logger"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// engineSampleRate is the fixed speaker rate; everything else is resampled.
const engineSampleRate = beep.SampleRate(44100)

// BeepEngine plays audio through the machine's default output device using
// the beep speaker. AAC files, which beep cannot decode, are converted on
// the fly with ffmpeg.
type BeepEngine struct {
	ffmpegPath string

	mu      sync.Mutex
	percent int
	volume  *effects.Volume // active music volume effect, nil between tracks
	ctrl    *beep.Ctrl      // active music pause control, nil between tracks
	paused  bool
}

// NewBeepEngine initializes the speaker. Failing to open the output device
// is fatal for the station, reported as ErrUnavailable.
func NewBeepEngine(ffmpegPath string, musicVolume int) (*BeepEngine, error) {
	if err := speaker.Init(engineSampleRate, engineSampleRate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("failed to open audio output device: %v: %w", err, ErrUnavailable)
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &BeepEngine{
		ffmpegPath: ffmpegPath,
		percent:    musicVolume,
	}, nil
}

// PlayFile implements Engine.
func (e *BeepEngine) PlayFile(ctx context.Context, path string) (time.Duration, error) {
	streamer, format, err := e.decode(path)
	if err != nil {
		return 0, err
	}
	duration := format.SampleRate.D(streamer.Len())

	if err := e.playMusic(ctx, streamer, format); err != nil {
		return duration, err
	}
	return duration, nil
}

// PlayWAV implements Engine. Narration plays at full level; the caller ducks
// the music around it.
func (e *BeepEngine) PlayWAV(ctx context.Context, wavData []byte) error {
	streamer, format, err := wav.Decode(bytes.NewReader(wavData))
	if err != nil {
		return fmt.Errorf("failed to decode narration wav: %w", err)
	}
	defer streamer.Close()

	done := make(chan struct{})
	speaker.Play(beep.Seq(e.resampled(streamer, format), beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

// PlayCue implements Engine: decode and fire on a goroutine, log failures,
// never block the cycle.
func (e *BeepEngine) PlayCue(path string) {
	go func() {
		streamer, format, err := e.decode(path)
		if err != nil {
			logger.Warn("FX cue failed to decode",
				logger.String("path", path),
				logger.ErrorField(err))
			return
		}
		speaker.Play(beep.Seq(e.resampled(streamer, format), beep.Callback(func() {
			streamer.Close()
		})))
	}()
}

// SetVolume implements Engine.
func (e *BeepEngine) SetVolume(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	e.mu.Lock()
	e.percent = percent
	volume := e.volume
	e.mu.Unlock()

	if volume != nil {
		speaker.Lock()
		volume.Volume = gainForPercent(percent)
		volume.Silent = percent == 0
		speaker.Unlock()
	}
}

// Volume implements Engine.
func (e *BeepEngine) Volume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.percent
}

// SetPaused implements Engine.
func (e *BeepEngine) SetPaused(paused bool) {
	e.mu.Lock()
	e.paused = paused
	ctrl := e.ctrl
	e.mu.Unlock()

	if ctrl != nil {
		speaker.Lock()
		ctrl.Paused = paused
		speaker.Unlock()
	}
}

// Paused implements Engine.
func (e *BeepEngine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Close implements Engine.
func (e *BeepEngine) Close() error {
	speaker.Clear()
	speaker.Close()
	return nil
}

// playMusic runs one music streamer through the pause control and volume
// effect, registering both so live volume/pause changes reach the speaker.
func (e *BeepEngine) playMusic(ctx context.Context, streamer beep.StreamSeekCloser, format beep.Format) error {
	defer streamer.Close()

	ctrl := &beep.Ctrl{Streamer: e.resampled(streamer, format)}
	volume := &effects.Volume{
		Streamer: ctrl,
		Base:     2,
		Volume:   gainForPercent(e.Volume()),
		Silent:   e.Volume() == 0,
	}

	e.mu.Lock()
	e.volume = volume
	e.ctrl = ctrl
	ctrl.Paused = e.paused
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.volume = nil
		e.ctrl = nil
		e.mu.Unlock()
	}()

	done := make(chan struct{})
	speaker.Play(beep.Seq(volume, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

// resampled adapts a decoded streamer to the engine sample rate.
func (e *BeepEngine) resampled(streamer beep.Streamer, format beep.Format) beep.Streamer {
	if format.SampleRate == engineSampleRate {
		return streamer
	}
	return beep.Resample(4, format.SampleRate, engineSampleRate, streamer)
}

// decode opens path with the decoder matching its extension.
func (e *BeepEngine) decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".aac" {
		return e.decodeViaFFmpeg(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to open audio file: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return streamer, format, nil
}

// decodeViaFFmpeg shells out to ffmpeg to convert the file to WAV in memory.
func (e *BeepEngine) decodeViaFFmpeg(path string) (beep.StreamSeekCloser, beep.Format, error) {
	cmd := exec.Command(e.ffmpegPath, "-i", path, "-f", "wav", "-")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		return nil, beep.Format{}, fmt.Errorf("ffmpeg conversion of %s failed: %w", filepath.Base(path), err)
	}

	streamer, format, err := wav.Decode(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to decode converted wav: %w", err)
	}
	return streamer, format, nil
}
