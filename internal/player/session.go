package player

import (
	"fmt"
	"sync"

	"github.com/juanGallardor/ReproductorMusica/internal/playlist"
	"github.com/juanGallardor/ReproductorMusica/pkg/models"
)

// RepeatMode controls what Advance/Retreat do at the playlist boundaries.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off" // stop at the end
	RepeatOne RepeatMode = "one" // stay on the current track
	RepeatAll RepeatMode = "all" // wrap around
)

// DefaultVolume is the volume applied at startup and as the unmute fallback.
const DefaultVolume = 70.0

// ParseRepeatMode validates a repeat mode string.
func ParseRepeatMode(mode string) (RepeatMode, error) {
	switch RepeatMode(mode) {
	case RepeatOff, RepeatOne, RepeatAll:
		return RepeatMode(mode), nil
	default:
		return "", fmt.Errorf("%w: repeat mode %q (must be off, one or all)", playlist.ErrInvalidArgument, mode)
	}
}

// Session is the single point of truth for what is playing and how. One
// Session exists per process; it is constructed at startup and injected into
// whatever serves requests. All state lives behind one mutex so the
// adjust-index / mutate-list / re-sync-cursor sequences stay atomic.
//
// The session references the active playlist but does not own it; the
// catalog does.
type Session struct {
	mu sync.Mutex

	current *playlist.Playlist
	playing bool
	paused  bool

	volume          float64
	preMuteVolume   float64
	hasPreMute      bool
	repeat          RepeatMode
	shuffle         bool
	positionSeconds float64
}

// NewSession returns a session in the default stopped state.
func NewSession() *Session {
	return &Session{
		volume: DefaultVolume,
		repeat: RepeatOff,
	}
}

// SetCurrentPlaylist replaces the active playlist, resets the playback
// position and forces the stopped state.
func (s *Session) SetCurrentPlaylist(p *playlist.Playlist) error {
	if p == nil {
		return fmt.Errorf("%w: playlist is nil", playlist.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = p
	s.positionSeconds = 0
	s.playing = false
	s.paused = false
	return nil
}

// ClearPlaylist detaches the active playlist and stops playback. Used when
// the catalog deletes the playlist that is playing.
func (s *Session) ClearPlaylist() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	s.positionSeconds = 0
	s.playing = false
	s.paused = false
}

// CurrentPlaylist returns the active playlist, which may be nil.
func (s *Session) CurrentPlaylist() *playlist.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentTrack returns the active playlist's current track.
func (s *Session) CurrentTrack() (models.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return models.Track{}, false
	}
	return s.current.CurrentTrack()
}

// SetPlaying moves the session to Playing, or to Paused when a non-empty
// playlist is active, or to Stopped otherwise.
func (s *Session) SetPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playing = playing
	if playing {
		s.paused = false
		return
	}
	s.paused = s.current != nil && !s.current.IsEmpty()
}

// Stop forces the stopped state and rewinds the position.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playing = false
	s.paused = false
	s.positionSeconds = 0
}

// IsPlaying reports whether the session is in the Playing state.
func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// IsPaused reports whether the session is in the Paused state.
func (s *Session) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// SetVolume sets the volume in [0, 100].
func (s *Session) SetVolume(volume float64) error {
	if volume < 0 || volume > 100 {
		return fmt.Errorf("%w: volume %.1f (must be between 0 and 100)", playlist.ErrInvalidArgument, volume)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume = volume
	return nil
}

// Volume returns the current volume.
func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// IsMuted reports whether the volume is at zero.
func (s *Session) IsMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume == 0
}

// Mute remembers the current volume and drops it to zero.
func (s *Session) Mute() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.preMuteVolume = s.volume
	s.hasPreMute = true
	s.volume = 0
}

// Unmute restores the remembered pre-mute volume, falling back to the
// default when no volume was remembered.
func (s *Session) Unmute() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasPreMute {
		s.volume = s.preMuteVolume
	} else {
		s.volume = DefaultVolume
	}
}

// ToggleRepeat cycles off -> one -> all -> off and returns the new mode.
func (s *Session) ToggleRepeat() RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.repeat {
	case RepeatOff:
		s.repeat = RepeatOne
	case RepeatOne:
		s.repeat = RepeatAll
	default:
		s.repeat = RepeatOff
	}
	return s.repeat
}

// SetRepeatMode sets the repeat mode explicitly.
func (s *Session) SetRepeatMode(mode RepeatMode) error {
	if _, err := ParseRepeatMode(string(mode)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.repeat = mode
	return nil
}

// RepeatMode returns the active repeat mode.
func (s *Session) RepeatMode() RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeat
}

// ToggleShuffle flips the shuffle flag. Turning shuffle on immediately
// shuffles the active playlist; turning it off does not unshuffle.
func (s *Session) ToggleShuffle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shuffle = !s.shuffle
	if s.shuffle && s.current != nil && !s.current.IsEmpty() {
		s.current.ShuffleTracks()
	}
	return s.shuffle
}

// SetShuffle sets the shuffle flag explicitly, shuffling the active playlist
// when turning it on.
func (s *Session) SetShuffle(shuffle bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shuffle = shuffle
	if s.shuffle && s.current != nil && !s.current.IsEmpty() {
		s.current.ShuffleTracks()
	}
}

// IsShuffled reports whether shuffle is on.
func (s *Session) IsShuffled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuffle
}

// UpdatePosition records the last known playback position in seconds.
func (s *Session) UpdatePosition(seconds float64) error {
	if seconds < 0 {
		return fmt.Errorf("%w: position cannot be negative", playlist.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positionSeconds = seconds
	return nil
}

// Position returns the last known playback position in seconds.
func (s *Session) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionSeconds
}

// AdvanceTrack applies the repeat policy to move forward. It reports false
// when the end of the playlist is reached with repeat off, in which case the
// session stops.
func (s *Session) AdvanceTrack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return false
	}

	if s.repeat == RepeatOne {
		s.positionSeconds = 0
		return true
	}

	if _, ok := s.current.NextTrack(); ok {
		s.positionSeconds = 0
		return true
	}

	if s.repeat == RepeatAll && s.current.TrackCount() > 0 {
		s.current.JumpTo(0)
		s.positionSeconds = 0
		return true
	}

	// End of playlist with repeat off.
	s.playing = false
	s.paused = false
	return false
}

// RetreatTrack applies the repeat policy to move backward. With repeat all
// it wraps to the last track; with repeat off it reports false at the
// beginning without changing the playback state.
func (s *Session) RetreatTrack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return false
	}

	if s.repeat == RepeatOne {
		s.positionSeconds = 0
		return true
	}

	if _, ok := s.current.PreviousTrack(); ok {
		s.positionSeconds = 0
		return true
	}

	if s.repeat == RepeatAll && s.current.TrackCount() > 0 {
		s.current.JumpTo(s.current.TrackCount() - 1)
		s.positionSeconds = 0
		return true
	}

	return false
}

// HasCurrentTrack reports whether a playable track is selected.
func (s *Session) HasCurrentTrack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.IsEmpty() {
		return false
	}
	_, ok := s.current.CurrentTrack()
	return ok
}

// Reset restores every setting to its startup default and detaches the
// playlist.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	s.playing = false
	s.paused = false
	s.volume = DefaultVolume
	s.preMuteVolume = 0
	s.hasPreMute = false
	s.repeat = RepeatOff
	s.shuffle = false
	s.positionSeconds = 0
}
