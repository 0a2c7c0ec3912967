package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLocator_OverrideWins(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "custom.nc")
	touch(t, override)
	touch(t, filepath.Join(dir, DefaultFilename))

	l := &Locator{Override: override, Dirs: []string{dir}}
	got, ok := l.Locate()
	if !ok || got != override {
		t.Fatalf("expected override %q, got %q ok=%v", override, got, ok)
	}
}

func TestLocator_MissingOverrideFallsBackToSearch(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, DefaultFilename)
	touch(t, want)

	l := &Locator{Override: filepath.Join(dir, "absent.nc"), Dirs: []string{dir}}
	got, ok := l.Locate()
	if !ok || got != want {
		t.Fatalf("expected %q, got %q ok=%v", want, got, ok)
	}
}

func TestLocator_FirstMatchWins(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "a")
	second := filepath.Join(root, "b")
	touch(t, filepath.Join(second, DefaultFilename))
	touch(t, filepath.Join(first, DefaultFilename))

	l := &Locator{Dirs: []string{filepath.Join(root, "empty"), first, second}}
	got, ok := l.Locate()
	if !ok || got != filepath.Join(first, DefaultFilename) {
		t.Fatalf("expected match in %q, got %q ok=%v", first, got, ok)
	}
}

func TestLocator_CustomFilename(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "other.nc"))

	l := &Locator{Filename: "other.nc", Dirs: []string{dir}}
	if _, ok := l.Locate(); !ok {
		t.Fatalf("expected custom filename to be found")
	}
}

func TestLocator_NothingFound(t *testing.T) {
	dir := t.TempDir()
	// A directory with the right name is not a dataset.
	if err := os.Mkdir(filepath.Join(dir, DefaultFilename), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	l := &Locator{Dirs: []string{dir, filepath.Join(dir, "missing")}}
	if got, ok := l.Locate(); ok {
		t.Fatalf("expected no match, got %q", got)
	}
}

func TestDefaultSearchDirs(t *testing.T) {
	dirs := DefaultSearchDirs("/srv/extra")
	if dirs[0] != "." {
		t.Fatalf("expected cwd first, got %v", dirs)
	}
	if dirs[len(dirs)-1] != "/srv/extra" || dirs[len(dirs)-2] != "data" {
		t.Fatalf("expected ./data then extra dirs last, got %v", dirs)
	}
}
