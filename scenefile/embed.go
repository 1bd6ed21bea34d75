package scenefile

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed scenes/*.yaml scenes/*.tengo
var ScenesFS embed.FS

// DiskDir is checked before the embedded scenes so edited files win. The
// default is the embed directory itself, relative to the module root.
var DiskDir = "scenefile/scenes"

func Load(name string) ([]byte, error) {
	clean := cleanScenePath(name)
	if data, err := os.ReadFile(diskScenePath(clean)); err == nil {
		return data, nil
	}
	return ScenesFS.ReadFile("scenes/" + clean)
}

func ModTime(name string) (time.Time, bool) {
	info, err := os.Stat(diskScenePath(cleanScenePath(name)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// SceneName returns path in the form scene files use: relative to DiskDir,
// slash separated.
func SceneName(path string) string {
	return cleanScenePath(path)
}

func cleanScenePath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(filepath.Clean(path))
	if after, ok := strings.CutPrefix(s, "scenes/"); ok {
		s = after
	}
	if base := filepath.ToSlash(DiskDir); base != "" {
		if after, ok := strings.CutPrefix(s, base+"/"); ok {
			s = after
		}
	}
	return s
}

func diskScenePath(clean string) string {
	return filepath.Join(DiskDir, filepath.FromSlash(clean))
}
