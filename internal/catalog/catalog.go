package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/juanGallardor/ReproductorMusica/internal/player"
	"github.com/juanGallardor/ReproductorMusica/internal/playlist"
	"github.com/juanGallardor/ReproductorMusica/pkg/models"
)

// Store persists the full playlist set. The catalog writes through it after
// every mutation.
type Store interface {
	Load() ([]playlist.Snapshot, error)
	Save([]playlist.Snapshot) error
}

// Catalog owns every playlist in the application. All mutations go through
// it: it enforces unique names, persists after each change, and keeps the
// player session consistent when the active playlist is deleted.
type Catalog struct {
	mu        sync.RWMutex
	playlists []*playlist.Playlist
	store     Store
	session   *player.Session
	logger    *logrus.Logger
}

// New creates an empty catalog. The session may be nil when no playback
// coordination is needed (tests, offline tools).
func New(store Store, session *player.Session, logger *logrus.Logger) *Catalog {
	return &Catalog{
		store:   store,
		session: session,
		logger:  logger,
	}
}

// LoadFromStore replaces the catalog contents with whatever the store holds.
// Corrupt individual records are skipped with a warning rather than failing
// the whole startup.
func (c *Catalog) LoadFromStore() error {
	snapshots, err := c.store.Load()
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.playlists = c.playlists[:0]
	for _, s := range snapshots {
		p, err := playlist.FromSnapshot(s)
		if err != nil {
			c.logger.WithError(err).WithField("playlist", s.Name).Warn("Skipping invalid playlist record")
			continue
		}
		c.playlists = append(c.playlists, p)
	}

	c.logger.WithField("count", len(c.playlists)).Info("Playlists loaded")
	return nil
}

// Create adds a new playlist. Names are unique case-insensitively.
func (c *Catalog) Create(name, description string) (*playlist.Playlist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.findByNameLocked(name) != nil {
		return nil, fmt.Errorf("%w: a playlist named %q already exists", playlist.ErrInvalidArgument, strings.TrimSpace(name))
	}

	p, err := playlist.New(name, description)
	if err != nil {
		return nil, err
	}

	c.playlists = append(c.playlists, p)
	if err := c.saveLocked(); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"playlist": p.Name(),
		"id":       p.ID(),
	}).Info("Playlist created")
	return p, nil
}

// List returns the playlists in catalog order.
func (c *Catalog) List() []*playlist.Playlist {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*playlist.Playlist, len(c.playlists))
	copy(out, c.playlists)
	return out
}

// Count returns the number of playlists.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.playlists)
}

// Get returns the playlist with the given id.
func (c *Catalog) Get(id string) (*playlist.Playlist, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.findByIDLocked(id)
	if p == nil {
		return nil, fmt.Errorf("%w: playlist %s", playlist.ErrNotFound, id)
	}
	return p, nil
}

// GetByName returns the playlist with the given name, compared
// case-insensitively.
func (c *Catalog) GetByName(name string) (*playlist.Playlist, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.findByNameLocked(name)
	if p == nil {
		return nil, fmt.Errorf("%w: playlist %q", playlist.ErrNotFound, name)
	}
	return p, nil
}

// Update renames a playlist and/or replaces its description. Empty arguments
// leave the corresponding field untouched.
func (c *Catalog) Update(id, name, description string) (*playlist.Playlist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.findByIDLocked(id)
	if p == nil {
		return nil, fmt.Errorf("%w: playlist %s", playlist.ErrNotFound, id)
	}

	if strings.TrimSpace(name) != "" {
		if existing := c.findByNameLocked(name); existing != nil && existing.ID() != id {
			return nil, fmt.Errorf("%w: a playlist named %q already exists", playlist.ErrInvalidArgument, strings.TrimSpace(name))
		}
		if err := p.Rename(name); err != nil {
			return nil, err
		}
	}
	if description != "" {
		if err := p.SetDescription(description); err != nil {
			return nil, err
		}
	}

	if err := c.saveLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

// SetCover records a cover image path for a playlist.
func (c *Catalog) SetCover(id, coverPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.findByIDLocked(id)
	if p == nil {
		return fmt.Errorf("%w: playlist %s", playlist.ErrNotFound, id)
	}
	p.SetCoverPath(coverPath)
	return c.saveLocked()
}

// Delete removes a playlist. When the deleted playlist is the one playing,
// the player session is reset so it does not keep a dangling reference.
func (c *Catalog) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := -1
	for i, p := range c.playlists {
		if p.ID() == id {
			index = i
			break
		}
	}
	if index < 0 {
		return fmt.Errorf("%w: playlist %s", playlist.ErrNotFound, id)
	}

	deleted := c.playlists[index]
	c.playlists = append(c.playlists[:index], c.playlists[index+1:]...)

	if c.session != nil {
		if active := c.session.CurrentPlaylist(); active != nil && active.ID() == id {
			c.session.ClearPlaylist()
			c.logger.WithField("playlist", deleted.Name()).Info("Active playlist deleted, player stopped")
		}
	}

	if err := c.saveLocked(); err != nil {
		return err
	}

	c.logger.WithField("playlist", deleted.Name()).Info("Playlist deleted")
	return nil
}

// Duplicate copies a playlist under a derived unique name: "Name (Copy)",
// then "Name (Copy 2)" and so on.
func (c *Catalog) Duplicate(id string) (*playlist.Playlist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.findByIDLocked(id)
	if p == nil {
		return nil, fmt.Errorf("%w: playlist %s", playlist.ErrNotFound, id)
	}

	name := p.Name() + " (Copy)"
	for n := 2; c.findByNameLocked(name) != nil; n++ {
		name = fmt.Sprintf("%s (Copy %d)", p.Name(), n)
	}

	dup := p.Duplicate(name)
	c.playlists = append(c.playlists, dup)
	if err := c.saveLocked(); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"source": p.Name(),
		"copy":   dup.Name(),
	}).Info("Playlist duplicated")
	return dup, nil
}

// Search returns the playlists whose name or description contains the query,
// case-insensitively, sorted by name.
func (c *Catalog) Search(query string) []*playlist.Playlist {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var matches []*playlist.Playlist
	for _, p := range c.playlists {
		if strings.Contains(strings.ToLower(p.Name()), query) ||
			strings.Contains(strings.ToLower(p.Description()), query) {
			matches = append(matches, p)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return strings.ToLower(matches[i].Name()) < strings.ToLower(matches[j].Name())
	})
	return matches
}

// AddTrack appends a track to a playlist and persists the change.
func (c *Catalog) AddTrack(playlistID string, track models.Track) error {
	return c.mutate(playlistID, func(p *playlist.Playlist) error {
		if !p.AddTrack(track) {
			return fmt.Errorf("%w: could not add track %s", playlist.ErrInvalidArgument, track.ID)
		}
		return nil
	})
}

// AddTrackAt inserts a track at a position and persists the change.
func (c *Catalog) AddTrackAt(playlistID string, track models.Track, position int) error {
	return c.mutate(playlistID, func(p *playlist.Playlist) error {
		if !p.AddTrackAt(track, position) {
			return fmt.Errorf("%w: %d", playlist.ErrInvalidPosition, position)
		}
		return nil
	})
}

// RemoveTrack removes a track by id and persists the change.
func (c *Catalog) RemoveTrack(playlistID, trackID string) error {
	return c.mutate(playlistID, func(p *playlist.Playlist) error {
		if !p.RemoveTrack(trackID) {
			return fmt.Errorf("%w: track %s", playlist.ErrNotFound, trackID)
		}
		return nil
	})
}

// MoveTrack reorders a playlist and persists the change.
func (c *Catalog) MoveTrack(playlistID string, from, to int) error {
	return c.mutate(playlistID, func(p *playlist.Playlist) error {
		if !p.MoveTrack(from, to) {
			return fmt.Errorf("%w: move %d -> %d", playlist.ErrInvalidPosition, from, to)
		}
		return nil
	})
}

// ShuffleTracks reorders a playlist randomly and persists the change.
func (c *Catalog) ShuffleTracks(playlistID string) error {
	return c.mutate(playlistID, func(p *playlist.Playlist) error {
		p.ShuffleTracks()
		return nil
	})
}

// Save persists the current catalog contents.
func (c *Catalog) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

// Stats summarizes the catalog for the health endpoint.
func (c *Catalog) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tracks := 0
	duration := 0
	for _, p := range c.playlists {
		tracks += p.TrackCount()
		duration += p.TotalDuration()
	}
	return map[string]interface{}{
		"playlists":       len(c.playlists),
		"tracks":          tracks,
		"durationSeconds": duration,
	}
}

// mutate runs fn against a playlist under the write lock and persists on
// success.
func (c *Catalog) mutate(playlistID string, fn func(*playlist.Playlist) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.findByIDLocked(playlistID)
	if p == nil {
		return fmt.Errorf("%w: playlist %s", playlist.ErrNotFound, playlistID)
	}
	if err := fn(p); err != nil {
		return err
	}
	return c.saveLocked()
}

func (c *Catalog) findByIDLocked(id string) *playlist.Playlist {
	for _, p := range c.playlists {
		if p.ID() == id {
			return p
		}
	}
	return nil
}

func (c *Catalog) findByNameLocked(name string) *playlist.Playlist {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range c.playlists {
		if strings.ToLower(p.Name()) == name {
			return p
		}
	}
	return nil
}

func (c *Catalog) saveLocked() error {
	snapshots := make([]playlist.Snapshot, 0, len(c.playlists))
	for _, p := range c.playlists {
		snapshots = append(snapshots, p.Snapshot())
	}
	if err := c.store.Save(snapshots); err != nil {
		c.logger.WithError(err).Error("Failed to persist playlists")
		return err
	}
	return nil
}
