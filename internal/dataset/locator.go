package dataset

import (
	"os"
	"path/filepath"
)

// Locator resolves the dataset path. An existing Override wins; otherwise
// Filename is looked up in each of Dirs in order.
type Locator struct {
	Override string
	Filename string
	Dirs     []string
}

// DefaultSearchDirs lists the working directory, the project root and data
// directory relative to the executable, the executable's own directory, and
// ./data. Extra directories are searched after those.
func DefaultSearchDirs(extra ...string) []string {
	dirs := []string{"."}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		dirs = append(dirs,
			filepath.Join(exeDir, ".."),
			exeDir,
			filepath.Join(exeDir, "..", "data"),
		)
	}
	dirs = append(dirs, "data")
	return append(dirs, extra...)
}

func (l *Locator) Locate() (string, bool) {
	if l.Override != "" && isFile(l.Override) {
		return absPath(l.Override), true
	}

	name := l.Filename
	if name == "" {
		name = DefaultFilename
	}
	for _, dir := range l.Dirs {
		p := filepath.Join(dir, name)
		if isFile(p) {
			return absPath(p), true
		}
	}
	return "", false
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
