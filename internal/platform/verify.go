package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// ArtifactInfo describes a finished output file
type ArtifactInfo struct {
	Path      string
	Size      int64
	MIME      string // empty if the type is not recognised
	Extension string // detected extension, empty if unknown
	Matches   bool   // detected extension equals the expected one
}

// InspectArtifact sniffs the magic bytes of the output file at path and
// compares the detected type with wantExt.
func InspectArtifact(path, wantExt string) (*ArtifactInfo, error) {
	resolved, err := ResolveArtifact(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifact: %w", err)
	}

	info := &ArtifactInfo{Path: resolved, Size: stat.Size()}

	kind, err := filetype.MatchFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact header: %w", err)
	}
	if kind != filetype.Unknown {
		info.MIME = kind.MIME.Value
		info.Extension = kind.Extension
	}

	want := strings.TrimPrefix(wantExt, ".")
	if want == "" {
		want = strings.TrimPrefix(filepath.Ext(resolved), ".")
	}
	info.Matches = info.Extension != "" && strings.EqualFold(info.Extension, want)

	return info, nil
}
