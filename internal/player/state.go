package player

import (
	"time"

	"github.com/juanGallardor/ReproductorMusica/pkg/models"
)

// PlaylistInfo is the playlist slice of a state snapshot.
type PlaylistInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TrackCount      int    `json:"trackCount"`
	CurrentPosition int    `json:"currentPosition"`
}

// State is a point-in-time snapshot of the session, shaped for the HTTP API.
type State struct {
	Track           *models.Track `json:"track,omitempty"`
	Playlist        *PlaylistInfo `json:"playlist,omitempty"`
	IsPlaying       bool          `json:"isPlaying"`
	IsPaused        bool          `json:"isPaused"`
	Volume          float64       `json:"volume"`
	IsMuted         bool          `json:"isMuted"`
	RepeatMode      RepeatMode    `json:"repeatMode"`
	IsShuffled      bool          `json:"isShuffled"`
	PositionSeconds float64       `json:"positionSeconds"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// Snapshot captures the session state under the session lock.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		IsPlaying:       s.playing,
		IsPaused:        s.paused,
		Volume:          s.volume,
		IsMuted:         s.volume == 0,
		RepeatMode:      s.repeat,
		IsShuffled:      s.shuffle,
		PositionSeconds: s.positionSeconds,
		UpdatedAt:       time.Now(),
	}

	if s.current != nil {
		state.Playlist = &PlaylistInfo{
			ID:              s.current.ID(),
			Name:            s.current.Name(),
			TrackCount:      s.current.TrackCount(),
			CurrentPosition: s.current.CurrentPosition(),
		}
		if track, ok := s.current.CurrentTrack(); ok {
			state.Track = &track
		}
	}
	return state
}
