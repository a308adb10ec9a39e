package station

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindCue(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "airhorn.ogg"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	path, ok := FindCue(dir, "airhorn")
	if !ok {
		t.Fatal("FindCue() found nothing")
	}
	if path != filepath.Join(dir, "airhorn.ogg") {
		t.Errorf("FindCue() = %q", path)
	}

	if _, ok := FindCue(dir, "rewind"); ok {
		t.Error("FindCue() found a cue that does not exist")
	}
	if _, ok := FindCue(filepath.Join(dir, "missing"), "airhorn"); ok {
		t.Error("FindCue() found a cue in a missing directory")
	}
}

func TestFindCuePrefersEarlierExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"airhorn.wav", "airhorn.mp3"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	path, ok := FindCue(dir, "airhorn")
	if !ok || path != filepath.Join(dir, "airhorn.mp3") {
		t.Errorf("FindCue() = %q, want the mp3 probed first", path)
	}
}
