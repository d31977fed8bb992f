package platform

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "My Video", "My Video"},
		{"illegal characters", `a<b>c:d"e/f\g|h?i*j`, "abcdefghij"},
		{"collapses whitespace", "  many   spaces\there ", "many spaces here"},
		{"control characters", "bell\a title", "bell title"},
		{"trailing dots", "title...", "title"},
		{"empty", "", FallbackTitle},
		{"only illegal", `<>:"/\|?*`, FallbackTitle},
		{"reserved name", "con", "con_"},
		{"unicode kept", "Видео 日本", "Видео 日本"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTitle(tt.input); got != tt.expected {
				t.Errorf("SanitizeTitle(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeTitle_Truncates(t *testing.T) {
	long := strings.Repeat("é", MaxBaseNameBytes) // 2 bytes per rune

	got := SanitizeTitle(long)
	if len(got) > MaxBaseNameBytes {
		t.Errorf("expected at most %d bytes, got %d", MaxBaseNameBytes, len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a rune")
	}
	if len(got) != MaxBaseNameBytes {
		t.Errorf("expected exactly %d bytes for 2-byte runes, got %d", MaxBaseNameBytes, len(got))
	}
}

func TestAllocateName(t *testing.T) {
	dir := t.TempDir()

	first, err := AllocateName("Title", dir, "mp4")
	if err != nil {
		t.Fatalf("AllocateName failed: %v", err)
	}
	if first != filepath.Join(dir, "Title.mp4") {
		t.Errorf("unexpected first name: %s", first)
	}
	touch(t, first)

	second, err := AllocateName("Title", dir, ".mp4")
	if err != nil {
		t.Fatalf("AllocateName failed: %v", err)
	}
	if second != filepath.Join(dir, "Title (1).mp4") {
		t.Errorf("unexpected second name: %s", second)
	}
	touch(t, second)

	third, err := AllocateName("Title", dir, "mp4")
	if err != nil {
		t.Fatalf("AllocateName failed: %v", err)
	}
	if third != filepath.Join(dir, "Title (2).mp4") {
		t.Errorf("unexpected third name: %s", third)
	}
}

func TestAllocateName_OtherExtensionDoesNotCollide(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Song.mp4"))

	got, err := AllocateName("Song", dir, "mp3")
	if err != nil {
		t.Fatalf("AllocateName failed: %v", err)
	}
	if got != filepath.Join(dir, "Song.mp3") {
		t.Errorf("unexpected name: %s", got)
	}
}

func TestAllocateName_SanitizesTitle(t *testing.T) {
	dir := t.TempDir()

	got, err := AllocateName("a/b: c?", dir, "mp4")
	if err != nil {
		t.Fatalf("AllocateName failed: %v", err)
	}
	if filepath.Dir(got) != dir {
		t.Errorf("name escaped the directory: %s", got)
	}
	if filepath.Base(got) != "ab c.mp4" {
		t.Errorf("unexpected base name: %s", filepath.Base(got))
	}
}
