package server

import (
	"path/filepath"
	"testing"

	"github.com/juanGallardor/ReproductorMusica/internal/cache"
)

func TestScanMusicLibraryReportsWalkError(t *testing.T) {
	ms := createTestMusicServer()
	ms.trackCache = cache.NewTrackCache()
	ms.config.Music.ScanOnStartup = true
	ms.config.Music.LibraryPath = filepath.Join(t.TempDir(), "does-not-exist")

	if err := ms.ScanMusicLibrary(); err == nil {
		t.Error("ScanMusicLibrary() with a missing library path should return the walk error")
	}
}

func TestScanMusicLibrarySkippedWhenDisabled(t *testing.T) {
	ms := createTestMusicServer()
	ms.trackCache = cache.NewTrackCache()
	ms.config.Music.ScanOnStartup = false
	ms.config.Music.LibraryPath = filepath.Join(t.TempDir(), "does-not-exist")

	if err := ms.ScanMusicLibrary(); err != nil {
		t.Errorf("ScanMusicLibrary() with scanning disabled: unexpected error: %v", err)
	}
}
