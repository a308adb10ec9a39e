package speech

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func voicesDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestListVoices(t *testing.T) {
	dir := voicesDir(t,
		"en_US-lessac-medium.onnx",
		"en_GB-alba-medium.onnx",
		"en_US-lessac-medium.onnx.json",
		"readme.txt",
	)

	voices, err := ListVoices(dir)
	if err != nil {
		t.Fatalf("ListVoices() error = %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("ListVoices() returned %d voices, want 2", len(voices))
	}
	if voices[0].Name != "en_GB-alba-medium" {
		t.Errorf("voices not sorted: first = %q", voices[0].Name)
	}
	if voices[1].ModelPath != filepath.Join(dir, "en_US-lessac-medium.onnx") {
		t.Errorf("ModelPath = %q", voices[1].ModelPath)
	}
}

func TestLookupVoice(t *testing.T) {
	dir := voicesDir(t, "en_GB-alba-medium.onnx", "en_US-lessac-medium.onnx")

	exact, err := LookupVoice(dir, "en_US-lessac-medium")
	if err != nil {
		t.Fatalf("LookupVoice(exact) error = %v", err)
	}
	if exact.Name != "en_US-lessac-medium" {
		t.Errorf("exact match = %q", exact.Name)
	}

	sub, err := LookupVoice(dir, "Lessac")
	if err != nil {
		t.Fatalf("LookupVoice(substring) error = %v", err)
	}
	if sub.Name != "en_US-lessac-medium" {
		t.Errorf("substring match = %q", sub.Name)
	}

	first, err := LookupVoice(dir, "")
	if err != nil {
		t.Fatalf("LookupVoice(empty) error = %v", err)
	}
	if first.Name != "en_GB-alba-medium" {
		t.Errorf("empty name should pick first installed voice, got %q", first.Name)
	}

	if _, err := LookupVoice(dir, "nonexistent"); !errors.Is(err, ErrVoiceNotFound) {
		t.Errorf("LookupVoice(missing) error = %v, want ErrVoiceNotFound", err)
	}
}

func TestLookupVoiceEmptyDir(t *testing.T) {
	if _, err := LookupVoice(t.TempDir(), ""); !errors.Is(err, ErrVoiceNotFound) {
		t.Errorf("LookupVoice(empty dir) error = %v, want ErrVoiceNotFound", err)
	}
}
