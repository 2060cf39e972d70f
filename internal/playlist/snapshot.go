package playlist

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/juanGallardor/ReproductorMusica/pkg/models"
)

// Snapshot is the structured persistence record of a playlist. The track
// order and the current-position index are enough to reconstruct the full
// in-memory state; the aggregates are stored for consumers that read the
// file directly but are recomputed on load.
type Snapshot struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	CoverPath       string         `json:"coverPath,omitempty"`
	Tracks          []models.Track `json:"tracks"`
	CurrentPosition int            `json:"currentPosition"`
	CreatedAt       time.Time      `json:"createdAt"`
	TotalDuration   int            `json:"totalDuration"`
	TrackCount      int            `json:"trackCount"`
}

// Snapshot captures the playlist state as a persistence record.
func (p *Playlist) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot{
		ID:              p.id,
		Name:            p.name,
		Description:     p.description,
		CoverPath:       p.coverPath,
		Tracks:          p.tracks.ToSlice(),
		CurrentPosition: p.currentPosition,
		CreatedAt:       p.createdAt,
		TotalDuration:   p.totalDuration,
		TrackCount:      p.trackCount,
	}
}

// FromSnapshot rebuilds a playlist from a persistence record by re-adding
// the tracks in order and then restoring the cursor position.
func FromSnapshot(s Snapshot) (*Playlist, error) {
	p, err := New(s.Name, s.Description)
	if err != nil {
		return nil, fmt.Errorf("invalid playlist snapshot: %w", err)
	}
	if s.ID != "" {
		p.id = s.ID
	} else {
		p.id = uuid.NewString()
	}
	p.coverPath = s.CoverPath
	if !s.CreatedAt.IsZero() {
		p.createdAt = s.CreatedAt
	}

	for _, t := range s.Tracks {
		p.AddTrack(t)
	}

	if !p.IsEmpty() && s.CurrentPosition >= 0 && s.CurrentPosition < p.TrackCount() {
		p.JumpTo(s.CurrentPosition)
	}
	return p, nil
}
