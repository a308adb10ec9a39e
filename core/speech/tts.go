package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"randomradio/logger"
)

// Synthesizer turns narration text into WAV audio by running the local
// Piper binary as a subprocess. Piper reads text on stdin and, with
// "--output_file -", writes the WAV to stdout.
type Synthesizer struct {
	piperPath string
	voice     Voice
	timeout   time.Duration
}

// NewSynthesizer creates a synthesizer bound to one voice.
func NewSynthesizer(piperPath string, voice Voice, timeout time.Duration) *Synthesizer {
	if piperPath == "" {
		piperPath = "piper"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Synthesizer{piperPath: piperPath, voice: voice, timeout: timeout}
}

// Voice returns the voice this synthesizer speaks with.
func (s *Synthesizer) Voice() Voice {
	return s.voice
}

// Synthesize converts text to WAV bytes. The subprocess is bounded by the
// configured timeout so a wedged Piper cannot stall the play cycle.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("nothing to synthesize")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.piperPath,
		"--model", s.voice.ModelPath,
		"--output_file", "-",
	)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	logger.Debug("Synthesized narration",
		logger.String("voice", s.voice.Name),
		logger.Int("textLen", len(text)),
		logger.Int("wavBytes", stdout.Len()),
		logger.Duration("took", time.Since(start)))

	return stdout.Bytes(), nil
}

// CheckBinary verifies the Piper binary can be found. Used by the doctor
// command at startup rather than failing mid-cycle.
func CheckBinary(piperPath string) error {
	if piperPath == "" {
		piperPath = "piper"
	}
	if _, err := exec.LookPath(piperPath); err != nil {
		return fmt.Errorf("piper binary not found (install piper-tts or set PIPER_PATH): %w", err)
	}
	return nil
}
