package catalog

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/juanGallardor/ReproductorMusica/internal/player"
	"github.com/juanGallardor/ReproductorMusica/internal/playlist"
	"github.com/juanGallardor/ReproductorMusica/pkg/models"
)

// memStore keeps snapshots in memory and counts saves.
type memStore struct {
	snapshots []playlist.Snapshot
	saves     int
}

func (m *memStore) Load() ([]playlist.Snapshot, error) {
	return m.snapshots, nil
}

func (m *memStore) Save(snapshots []playlist.Snapshot) error {
	m.snapshots = snapshots
	m.saves++
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testCatalog(t *testing.T) (*Catalog, *memStore, *player.Session) {
	t.Helper()
	store := &memStore{}
	session := player.NewSession()
	return New(store, session, testLogger()), store, session
}

func testTrack(id string) models.Track {
	return models.Track{
		ID:       id,
		Title:    "Track " + id,
		Duration: 120,
		Filename: id + ".mp3",
		FileSize: 2048,
		Format:   "mp3",
	}
}

func TestCreateAndGet(t *testing.T) {
	c, store, _ := testCatalog(t)

	p, err := c.Create("Road Trip", "long drives")
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if store.saves != 1 {
		t.Errorf("Create() persisted %d times, want 1", store.saves)
	}

	got, err := c.Get(p.ID())
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.Name() != "Road Trip" {
		t.Errorf("Get() name = %q, want Road Trip", got.Name())
	}

	if _, err := c.Get("missing"); !errors.Is(err, playlist.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCreateRejectsDuplicateNames(t *testing.T) {
	c, _, _ := testCatalog(t)
	if _, err := c.Create("Chill", ""); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	// Uniqueness is case-insensitive.
	if _, err := c.Create("chill", ""); !errors.Is(err, playlist.ErrInvalidArgument) {
		t.Errorf("Create(chill) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := c.Create("  CHILL  ", ""); !errors.Is(err, playlist.ErrInvalidArgument) {
		t.Errorf("Create(  CHILL  ) error = %v, want ErrInvalidArgument", err)
	}
}

func TestGetByName(t *testing.T) {
	c, _, _ := testCatalog(t)
	c.Create("Focus", "")

	if _, err := c.GetByName("FOCUS"); err != nil {
		t.Errorf("GetByName(FOCUS) unexpected error: %v", err)
	}
	if _, err := c.GetByName("nope"); !errors.Is(err, playlist.ErrNotFound) {
		t.Errorf("GetByName(nope) error = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	c, _, _ := testCatalog(t)
	p, _ := c.Create("Old Name", "old desc")
	c.Create("Taken", "")

	if _, err := c.Update(p.ID(), "Taken", ""); !errors.Is(err, playlist.ErrInvalidArgument) {
		t.Errorf("Update() to a taken name: error = %v, want ErrInvalidArgument", err)
	}

	updated, err := c.Update(p.ID(), "New Name", "new desc")
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if updated.Name() != "New Name" || updated.Description() != "new desc" {
		t.Errorf("Update() = %q / %q", updated.Name(), updated.Description())
	}

	// Renaming to its own name (case change) is allowed.
	if _, err := c.Update(p.ID(), "NEW NAME", ""); err != nil {
		t.Errorf("Update() to own name: unexpected error: %v", err)
	}
}

func TestDeleteResetsActiveSession(t *testing.T) {
	c, _, session := testCatalog(t)
	p, _ := c.Create("Playing Now", "")
	c.AddTrack(p.ID(), testTrack("A"))
	session.SetCurrentPlaylist(p)
	session.SetPlaying(true)

	if err := c.Delete(p.ID()); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if session.CurrentPlaylist() != nil {
		t.Error("deleting the active playlist should detach it from the session")
	}
	if session.IsPlaying() {
		t.Error("deleting the active playlist should stop playback")
	}
	if c.Count() != 0 {
		t.Errorf("Count() = %d, want 0", c.Count())
	}
}

func TestDeleteInactivePlaylistKeepsSession(t *testing.T) {
	c, _, session := testCatalog(t)
	active, _ := c.Create("Active", "")
	other, _ := c.Create("Other", "")
	session.SetCurrentPlaylist(active)

	if err := c.Delete(other.ID()); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if session.CurrentPlaylist() != active {
		t.Error("deleting another playlist must not touch the session")
	}
}

func TestDeleteMissing(t *testing.T) {
	c, _, _ := testCatalog(t)
	if err := c.Delete("missing"); !errors.Is(err, playlist.ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDuplicateNameCounter(t *testing.T) {
	c, _, _ := testCatalog(t)
	p, _ := c.Create("Mix", "")
	c.AddTrack(p.ID(), testTrack("A"))
	c.AddTrack(p.ID(), testTrack("B"))

	first, err := c.Duplicate(p.ID())
	if err != nil {
		t.Fatalf("Duplicate() unexpected error: %v", err)
	}
	if first.Name() != "Mix (Copy)" {
		t.Errorf("first copy name = %q, want Mix (Copy)", first.Name())
	}
	if first.TrackCount() != 2 {
		t.Errorf("copy has %d tracks, want 2", first.TrackCount())
	}
	if first.ID() == p.ID() {
		t.Error("copy must get a fresh id")
	}

	second, err := c.Duplicate(p.ID())
	if err != nil {
		t.Fatalf("second Duplicate() unexpected error: %v", err)
	}
	if second.Name() != "Mix (Copy 2)" {
		t.Errorf("second copy name = %q, want Mix (Copy 2)", second.Name())
	}
}

func TestSearch(t *testing.T) {
	c, _, _ := testCatalog(t)
	c.Create("Summer Hits", "beach songs")
	c.Create("Winter", "fireplace and summer memories")
	c.Create("Workout", "gym")

	matches := c.Search("summer")
	if len(matches) != 2 {
		t.Fatalf("Search(summer) returned %d playlists, want 2", len(matches))
	}
	// Sorted by name.
	if matches[0].Name() != "Summer Hits" || matches[1].Name() != "Winter" {
		t.Errorf("Search() order = %q, %q", matches[0].Name(), matches[1].Name())
	}

	if got := c.Search("   "); got != nil {
		t.Errorf("Search(blank) = %v, want nil", got)
	}
}

func TestTrackMutationsPersist(t *testing.T) {
	c, store, _ := testCatalog(t)
	p, _ := c.Create("Edits", "")
	savesAfterCreate := store.saves

	if err := c.AddTrack(p.ID(), testTrack("A")); err != nil {
		t.Fatalf("AddTrack() unexpected error: %v", err)
	}
	if err := c.AddTrackAt(p.ID(), testTrack("B"), 0); err != nil {
		t.Fatalf("AddTrackAt() unexpected error: %v", err)
	}
	if err := c.MoveTrack(p.ID(), 0, 1); err != nil {
		t.Fatalf("MoveTrack() unexpected error: %v", err)
	}
	if err := c.RemoveTrack(p.ID(), "A"); err != nil {
		t.Fatalf("RemoveTrack() unexpected error: %v", err)
	}

	if store.saves != savesAfterCreate+4 {
		t.Errorf("store saved %d times after create, want 4", store.saves-savesAfterCreate)
	}
	if p.TrackCount() != 1 {
		t.Errorf("TrackCount() = %d, want 1", p.TrackCount())
	}

	if err := c.RemoveTrack(p.ID(), "missing"); !errors.Is(err, playlist.ErrNotFound) {
		t.Errorf("RemoveTrack(missing) error = %v, want ErrNotFound", err)
	}
	if err := c.AddTrack("missing", testTrack("C")); !errors.Is(err, playlist.ErrNotFound) {
		t.Errorf("AddTrack(missing playlist) error = %v, want ErrNotFound", err)
	}
}

func TestLoadFromStore(t *testing.T) {
	store := &memStore{}
	seed := New(store, nil, testLogger())
	p, _ := seed.Create("Persisted", "survives restarts")
	seed.AddTrack(p.ID(), testTrack("A"))

	c := New(store, nil, testLogger())
	if err := c.LoadFromStore(); err != nil {
		t.Fatalf("LoadFromStore() unexpected error: %v", err)
	}
	if c.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", c.Count())
	}
	loaded, err := c.Get(p.ID())
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if loaded.TrackCount() != 1 || loaded.Name() != "Persisted" {
		t.Errorf("loaded playlist = %q with %d tracks", loaded.Name(), loaded.TrackCount())
	}
}

func TestLoadFromStoreSkipsInvalidRecords(t *testing.T) {
	store := &memStore{snapshots: []playlist.Snapshot{
		{ID: "bad", Name: ""},
		{ID: "good", Name: "Valid"},
	}}
	c := New(store, nil, testLogger())

	if err := c.LoadFromStore(); err != nil {
		t.Fatalf("LoadFromStore() unexpected error: %v", err)
	}
	if c.Count() != 1 {
		t.Errorf("Count() = %d, want 1 (invalid record skipped)", c.Count())
	}
}

func TestStats(t *testing.T) {
	c, _, _ := testCatalog(t)
	p, _ := c.Create("Stats", "")
	c.AddTrack(p.ID(), testTrack("A"))
	c.AddTrack(p.ID(), testTrack("B"))

	stats := c.Stats()
	if stats["playlists"] != 1 {
		t.Errorf("stats playlists = %v, want 1", stats["playlists"])
	}
	if stats["tracks"] != 2 {
		t.Errorf("stats tracks = %v, want 2", stats["tracks"])
	}
	if stats["durationSeconds"] != 240 {
		t.Errorf("stats durationSeconds = %v, want 240", stats["durationSeconds"])
	}
}

func TestConcurrentSessionAndCatalogMutation(t *testing.T) {
	c, _, session := testCatalog(t)

	p, err := c.Create("Shared", "")
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	for i := 0; i < 8; i++ {
		if err := c.AddTrack(p.ID(), testTrack(fmt.Sprintf("base-%d", i))); err != nil {
			t.Fatalf("AddTrack() unexpected error: %v", err)
		}
	}
	if err := session.SetCurrentPlaylist(p); err != nil {
		t.Fatalf("SetCurrentPlaylist() unexpected error: %v", err)
	}
	session.SetRepeatMode(player.RepeatAll)

	// Catalog mutations and session navigation hit the same playlist from
	// two goroutines; run with -race to catch unsynchronized list access.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			id := fmt.Sprintf("extra-%d", i)
			c.AddTrack(p.ID(), testTrack(id))
			c.RemoveTrack(p.ID(), id)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			session.AdvanceTrack()
			session.RetreatTrack()
		}
	}()
	wg.Wait()

	tracks := p.Tracks()
	if len(tracks) != 8 {
		t.Errorf("track count after concurrent mutation = %d, want 8", len(tracks))
	}
	if p.TrackCount() != len(tracks) {
		t.Errorf("cached TrackCount() = %d, list holds %d", p.TrackCount(), len(tracks))
	}
	if pos := p.CurrentPosition(); pos < 0 || pos >= len(tracks) {
		t.Errorf("CurrentPosition() = %d, want within [0, %d)", pos, len(tracks))
	}
	if _, ok := p.CurrentTrack(); !ok {
		t.Error("CurrentTrack() lost after concurrent mutation")
	}
}
