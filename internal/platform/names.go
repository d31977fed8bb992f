package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Naming constants
const (
	FallbackTitle    = "Unknown"
	MaxBaseNameBytes = 200
)

// illegalNameChars are rejected by at least one supported filesystem
const illegalNameChars = `<>:"/\|?*`

// windowsReserved device names cannot be used as a base name on Windows
var windowsReserved = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeTitle turns a media title into a filesystem-safe base name.
// Illegal and control characters are stripped, whitespace is collapsed,
// leading/trailing dots and spaces are trimmed and the result is capped at
// MaxBaseNameBytes. An empty result becomes FallbackTitle.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r == utf8.RuneError:
			continue
		case strings.ContainsRune(illegalNameChars, r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}

	name := strings.Join(strings.Fields(b.String()), " ")
	name = truncateBytes(name, MaxBaseNameBytes)
	name = strings.Trim(name, ". ")

	if name == "" {
		return FallbackTitle
	}
	if windowsReserved[strings.ToUpper(name)] {
		name += "_"
	}
	return name
}

// truncateBytes cuts s to at most n bytes without splitting a rune
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return s[:cut]
}

// AllocateName returns a collision-free output path for title in dir:
// "base.ext", then "base (1).ext", "base (2).ext", ... Only files existing at
// call time are considered.
func AllocateName(title, dir, ext string) (string, error) {
	base := SanitizeTitle(title)
	ext = strings.TrimPrefix(ext, ".")

	candidate := base
	for counter := 1; ; counter++ {
		path := filepath.Join(dir, candidate+"."+ext)
		exists, err := fileExists(path)
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", path, err)
		}
		if !exists {
			return path, nil
		}
		candidate = fmt.Sprintf("%s (%d)", base, counter)
	}
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
