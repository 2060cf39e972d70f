package database

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/juanGallardor/ReproductorMusica/pkg/models"
)

func testLibrary(t *testing.T) *Library {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	lib, err := NewLibrary(filepath.Join(t.TempDir(), "library.db"), logger)
	if err != nil {
		t.Fatalf("NewLibrary() unexpected error: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func testTrack(id, title, artist, path string) models.Track {
	return models.Track{
		ID:       id,
		Title:    title,
		Artist:   artist,
		Album:    "Test Album",
		Duration: 200,
		Filename: filepath.Base(path),
		FilePath: path,
		FileSize: 4096,
		Format:   "mp3",
	}
}

func TestInsertAndGetTrack(t *testing.T) {
	lib := testLibrary(t)
	track := testTrack("t1", "Song One", "Artist A", "/music/one.mp3")

	id, err := lib.InsertTrack(track)
	if err != nil {
		t.Fatalf("InsertTrack() unexpected error: %v", err)
	}
	if id != "t1" {
		t.Errorf("InsertTrack() id = %s, want t1", id)
	}

	got, err := lib.GetTrackByID("t1")
	if err != nil {
		t.Fatalf("GetTrackByID() unexpected error: %v", err)
	}
	if got.Title != "Song One" || got.Artist != "Artist A" || got.Format != "mp3" {
		t.Errorf("GetTrackByID() = %+v", got)
	}
}

func TestInsertTrackUpdatesExistingPath(t *testing.T) {
	lib := testLibrary(t)
	lib.InsertTrack(testTrack("t1", "Old Title", "Artist", "/music/one.mp3"))

	// Re-scanning the same file keeps the original id.
	id, err := lib.InsertTrack(testTrack("t2", "New Title", "Artist", "/music/one.mp3"))
	if err != nil {
		t.Fatalf("InsertTrack() unexpected error: %v", err)
	}
	if id != "t1" {
		t.Errorf("InsertTrack() on an existing path: id = %s, want t1", id)
	}

	got, err := lib.GetTrackByID("t1")
	if err != nil {
		t.Fatalf("GetTrackByID() unexpected error: %v", err)
	}
	if got.Title != "New Title" {
		t.Errorf("title = %q, want New Title", got.Title)
	}

	count, err := lib.CountTracks()
	if err != nil {
		t.Fatalf("CountTracks() unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("CountTracks() = %d, want 1", count)
	}
}

func TestSearchTracks(t *testing.T) {
	lib := testLibrary(t)
	lib.InsertTrack(testTrack("t1", "Midnight Rain", "Storm", "/music/a.mp3"))
	lib.InsertTrack(testTrack("t2", "Sunny Day", "Storm", "/music/b.mp3"))
	lib.InsertTrack(testTrack("t3", "Quiet", "Calm", "/music/c.mp3"))

	byTitle, err := lib.SearchTracks("midnight")
	if err != nil {
		t.Fatalf("SearchTracks() unexpected error: %v", err)
	}
	if len(byTitle) != 1 || byTitle[0].ID != "t1" {
		t.Errorf("SearchTracks(midnight) = %v", byTitle)
	}

	byArtist, err := lib.SearchTracks("storm")
	if err != nil {
		t.Fatalf("SearchTracks() unexpected error: %v", err)
	}
	if len(byArtist) != 2 {
		t.Errorf("SearchTracks(storm) returned %d tracks, want 2", len(byArtist))
	}
}

func TestRemoveAndExists(t *testing.T) {
	lib := testLibrary(t)
	lib.InsertTrack(testTrack("t1", "Song", "Artist", "/music/one.mp3"))

	exists, err := lib.TrackExists("/music/one.mp3")
	if err != nil || !exists {
		t.Fatalf("TrackExists() = %v, %v; want true, nil", exists, err)
	}

	if err := lib.RemoveTrackByPath("/music/one.mp3"); err != nil {
		t.Fatalf("RemoveTrackByPath() unexpected error: %v", err)
	}
	exists, _ = lib.TrackExists("/music/one.mp3")
	if exists {
		t.Error("TrackExists() = true after removal")
	}

	if err := lib.RemoveTrack("missing"); err == nil {
		t.Error("RemoveTrack(missing) expected an error")
	}
}

func TestIncrementPlayCount(t *testing.T) {
	lib := testLibrary(t)
	lib.InsertTrack(testTrack("t1", "Song", "Artist", "/music/one.mp3"))

	lib.IncrementPlayCount("t1")
	lib.IncrementPlayCount("t1")

	got, err := lib.GetTrackByID("t1")
	if err != nil {
		t.Fatalf("GetTrackByID() unexpected error: %v", err)
	}
	if got.PlayCount != 2 {
		t.Errorf("PlayCount = %d, want 2", got.PlayCount)
	}
}
