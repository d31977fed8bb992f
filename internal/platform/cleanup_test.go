package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCleanupPartial(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "Clip.mp4")

	partials := []string{
		"Clip.mp4",
		"Clip.mp4.part",
		"Clip.f137.mp4.part",
		"Clip.f140.m4a.ytdl",
	}
	keep := []string{
		"Clip (1).mp4.part",
		"Other.mp4.part",
		"Clip.mkv",
	}
	for _, name := range append(partials, keep...) {
		touch(t, filepath.Join(dir, name))
	}

	removed, err := CleanupPartial(target)
	if err != nil {
		t.Fatalf("CleanupPartial failed: %v", err)
	}
	if len(removed) != len(partials) {
		t.Errorf("expected %d removed files, got %d: %v", len(partials), len(removed), removed)
	}

	for _, name := range partials {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should have been removed", name)
		}
	}
	for _, name := range keep {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should have been kept: %v", name, err)
		}
	}
}

func TestCleanupPartial_MissingIsNotError(t *testing.T) {
	removed, err := CleanupPartial(filepath.Join(t.TempDir(), "none", "Clip.mp4"))
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("expected nothing removed, got %v", removed)
	}

	removed, err = CleanupPartial("")
	if err != nil || removed != nil {
		t.Errorf("expected no-op for empty path, got %v, %v", removed, err)
	}
}

func TestPartialBaseName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Title.mp4", "Title"},
		{"Title.mp4.part", "Title"},
		{"Title.f137.mp4.part", "Title"},
		{"Title.f140.m4a", "Title"},
		{"My.Show.mp4", "My.Show"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := partialBaseName(tt.input); got != tt.expected {
				t.Errorf("partialBaseName(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}
