package playlist

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/juanGallardor/ReproductorMusica/pkg/models"
)

const (
	// MaxNameLength bounds playlist names.
	MaxNameLength = 100
	// MaxDescriptionLength bounds playlist descriptions.
	MaxDescriptionLength = 500
)

// Playlist wraps a TrackList with identity, metadata and aggregate totals.
// It keeps a redundant current-position index synchronized with the list's
// cursor on every mutating path, for consumers that want an integer rather
// than a cursor.
//
// The mutating methods AddTrack, AddTrackAt, RemoveTrack and MoveTrack
// deliberately collapse list-layer failures into a boolean result; callers
// that need the reason use RemoveTrackAt or the TrackList operations, which
// return typed error kinds.
//
// A playlist is shared between the catalog and the player session, which
// hold their own locks; the playlist carries its own mutex so the
// adjust-index / mutate-list / re-sync-cursor sequences stay atomic no
// matter which side calls in.
type Playlist struct {
	mu sync.Mutex

	id              string
	name            string
	description     string
	coverPath       string
	tracks          *TrackList
	currentPosition int
	createdAt       time.Time
	totalDuration   int
	trackCount      int
}

// New creates an empty playlist with a fresh id.
func New(name, description string) (*Playlist, error) {
	p := &Playlist{
		id:        uuid.NewString(),
		tracks:    NewTrackList(),
		createdAt: time.Now(),
	}
	if err := p.Rename(name); err != nil {
		return nil, err
	}
	if err := p.SetDescription(description); err != nil {
		return nil, err
	}
	return p, nil
}

// ID returns the immutable playlist identifier.
func (p *Playlist) ID() string { return p.id }

// CreatedAt returns the creation timestamp.
func (p *Playlist) CreatedAt() time.Time { return p.createdAt }

// Name returns the playlist name.
func (p *Playlist) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// Description returns the playlist description.
func (p *Playlist) Description() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.description
}

// CoverPath returns the path of the cover image, if any.
func (p *Playlist) CoverPath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.coverPath
}

// TrackCount returns the cached number of tracks.
func (p *Playlist) TrackCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.trackCount
}

// TotalDuration returns the cached sum of track durations in seconds.
func (p *Playlist) TotalDuration() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalDuration
}

// CurrentPosition returns the index mirror of the list cursor.
func (p *Playlist) CurrentPosition() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentPosition
}

// IsEmpty reports whether the playlist has no tracks.
func (p *Playlist) IsEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracks.IsEmpty()
}

// HasNext reports whether a next track exists after the cursor.
func (p *Playlist) HasNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracks.HasNext()
}

// HasPrevious reports whether a previous track exists before the cursor.
func (p *Playlist) HasPrevious() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracks.HasPrevious()
}

// Rename validates and sets the playlist name.
func (p *Playlist) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: playlist name cannot be empty", ErrInvalidArgument)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: playlist name too long (max %d characters)", ErrInvalidArgument, MaxNameLength)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = name
	return nil
}

// SetDescription validates and sets the playlist description.
func (p *Playlist) SetDescription(description string) error {
	description = strings.TrimSpace(description)
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: playlist description too long (max %d characters)", ErrInvalidArgument, MaxDescriptionLength)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.description = description
	return nil
}

// SetCoverPath sets the cover image reference.
func (p *Playlist) SetCoverPath(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.coverPath = path
}

// AddTrack appends a track to the end of the playlist.
func (p *Playlist) AddTrack(track models.Track) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addTrackAtLocked(track, p.tracks.Size())
}

// AddTrackAt inserts a track at the given position. The first track added
// becomes current at position 0.
func (p *Playlist) AddTrackAt(track models.Track, position int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addTrackAtLocked(track, position)
}

func (p *Playlist) addTrackAtLocked(track models.Track, position int) bool {
	if err := p.tracks.InsertAt(track, position); err != nil {
		return false
	}
	p.updateTotalsLocked()
	if p.tracks.Size() == 1 {
		p.currentPosition = 0
		p.tracks.SetCurrent(0)
	}
	return true
}

// RemoveTrack removes the first track with the given id. It returns false
// when no track matches.
func (p *Playlist) RemoveTrack(trackID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	position := p.tracks.IndexOf(trackID)
	if position < 0 {
		return false
	}
	_, err := p.removeTrackAtLocked(position)
	return err == nil
}

// RemoveTrackAt removes the track at the given position, adjusting the
// current-position index before the deletion and re-syncing the list cursor
// afterwards. It returns the removed track.
func (p *Playlist) RemoveTrackAt(position int) (models.Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeTrackAtLocked(position)
}

func (p *Playlist) removeTrackAtLocked(position int) (models.Track, error) {
	if p.tracks.IsEmpty() {
		return models.Track{}, fmt.Errorf("cannot remove: %w", ErrEmptyList)
	}
	if position < 0 || position >= p.tracks.Size() {
		return models.Track{}, fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidPosition, position, p.tracks.Size()-1)
	}

	// Displacement rule, applied against the size before deletion.
	if position < p.currentPosition {
		p.currentPosition--
	} else if position == p.currentPosition && p.currentPosition >= p.tracks.Size()-1 {
		p.currentPosition = max(0, p.tracks.Size()-2)
	}

	removed, err := p.tracks.DeleteAt(position)
	if err != nil {
		return models.Track{}, err
	}
	p.updateTotalsLocked()

	if !p.tracks.IsEmpty() && p.currentPosition < p.tracks.Size() {
		p.tracks.SetCurrent(p.currentPosition)
	} else {
		p.currentPosition = 0
	}
	return removed, nil
}

// MoveTrack relocates a track between positions, carrying the
// current-position index through the displacement.
func (p *Playlist) MoveTrack(from, to int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tracks.IsEmpty() {
		return false
	}
	if from < 0 || from >= p.tracks.Size() || to < 0 || to >= p.tracks.Size() {
		return false
	}

	if from == p.currentPosition {
		p.currentPosition = to
	} else if from < p.currentPosition && p.currentPosition <= to {
		p.currentPosition--
	} else if to <= p.currentPosition && p.currentPosition < from {
		p.currentPosition++
	}

	if err := p.tracks.Move(from, to); err != nil {
		return false
	}
	p.tracks.SetCurrent(p.currentPosition)
	return true
}

// NextTrack advances the cursor and returns the new current track.
func (p *Playlist) NextTrack() (models.Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	track, ok := p.tracks.Advance()
	if ok {
		p.currentPosition++
	}
	return track, ok
}

// PreviousTrack retreats the cursor and returns the new current track.
func (p *Playlist) PreviousTrack() (models.Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	track, ok := p.tracks.Retreat()
	if ok {
		p.currentPosition--
	}
	return track, ok
}

// JumpTo moves the cursor to the given position.
func (p *Playlist) JumpTo(position int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.tracks.SetCurrent(position); err != nil {
		return false
	}
	p.currentPosition = position
	return true
}

// CurrentTrack returns the track under the cursor.
func (p *Playlist) CurrentTrack() (models.Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracks.Current()
}

// TrackAt returns the track at the given position.
func (p *Playlist) TrackAt(position int) (models.Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	track, err := p.tracks.GetAt(position)
	if err != nil {
		return models.Track{}, false
	}
	return track, true
}

// FindTrack returns the first track with the given id.
func (p *Playlist) FindTrack(trackID string) (models.Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracks.Find(trackID)
}

// Tracks returns all tracks in playlist order.
func (p *Playlist) Tracks() []models.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracks.ToSlice()
}

// ShuffleTracks randomly reorders the playlist. The current track keeps its
// identity; its index is recomputed from the new order.
func (p *Playlist) ShuffleTracks() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tracks.Size() <= 1 {
		return
	}
	p.tracks.Shuffle()
	if position := p.tracks.CurrentPosition(); position >= 0 {
		p.currentPosition = position
	} else {
		p.currentPosition = 0
	}
}

// Clear removes every track.
func (p *Playlist) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tracks.Clear()
	p.currentPosition = 0
	p.updateTotalsLocked()
}

// updateTotalsLocked recomputes the cached aggregates from the list.
func (p *Playlist) updateTotalsLocked() {
	p.trackCount = p.tracks.Size()
	total := 0
	for _, t := range p.tracks.ToSlice() {
		total += t.Duration
	}
	p.totalDuration = total
}

// Duplicate produces a new playlist with a fresh identity and a
// track-for-track copy. The copy's cursor resets to the first track.
func (p *Playlist) Duplicate(newName string) *Playlist {
	p.mu.Lock()
	defer p.mu.Unlock()

	if newName == "" {
		newName = p.name + " (Copy)"
	}
	dup := &Playlist{
		id:          uuid.NewString(),
		name:        newName,
		description: p.description,
		coverPath:   p.coverPath,
		tracks:      NewTrackList(),
		createdAt:   time.Now(),
	}
	// dup is not published yet, no locking needed on it.
	for _, t := range p.tracks.ToSlice() {
		dup.addTrackAtLocked(t, dup.tracks.Size())
	}
	return dup
}

// FormattedDuration renders the total duration as MM:SS or HH:MM:SS.
func (p *Playlist) FormattedDuration() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	hours := p.totalDuration / 3600
	minutes := (p.totalDuration % 3600) / 60
	seconds := p.totalDuration % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
