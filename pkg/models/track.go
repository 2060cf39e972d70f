package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ValidFormats lists the audio formats the library accepts.
var ValidFormats = []string{"mp3", "wav", "flac"}

// Track represents a single audio file in the library. Identity is the ID
// field only; two Track values with the same ID refer to the same track even
// if their metadata differs.
type Track struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist,omitempty"`
	Album       string    `json:"album,omitempty"`
	Year        int       `json:"year,omitempty"`
	Duration    int       `json:"duration"` // in seconds
	Filename    string    `json:"filename"`
	FilePath    string    `json:"-"` // don't expose file path to client
	FileSize    int64     `json:"fileSize"`
	Format      string    `json:"format"`
	HasAlbumArt bool      `json:"hasAlbumArt"`
	AlbumArtID  string    `json:"albumArtId,omitempty"` // For caching album art
	PlayCount   int       `json:"playCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewTrack builds a track with a fresh identifier and creation timestamp.
func NewTrack(title, filename, filePath, format string, duration int, fileSize int64) Track {
	return Track{
		ID:        uuid.NewString(),
		Title:     title,
		Duration:  duration,
		Filename:  filename,
		FilePath:  filePath,
		FileSize:  fileSize,
		Format:    format,
		CreatedAt: time.Now(),
	}
}

// Same reports whether both values identify the same track.
func (t Track) Same(other Track) bool {
	return t.ID == other.ID
}

// DisplayName returns "Artist - Title", or just the title when the artist
// is unknown.
func (t Track) DisplayName() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

// FormattedDuration renders the duration as MM:SS or HH:MM:SS.
func (t Track) FormattedDuration() string {
	hours := t.Duration / 3600
	minutes := (t.Duration % 3600) / 60
	seconds := t.Duration % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// Validate checks the track's fields against library constraints.
func (t Track) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("track id cannot be empty")
	}
	if t.Title == "" {
		return fmt.Errorf("track title cannot be empty")
	}
	if t.Duration < 0 {
		return fmt.Errorf("track duration cannot be negative")
	}
	if t.FileSize <= 0 {
		return fmt.Errorf("track file size must be positive")
	}
	if !IsValidFormat(t.Format) {
		return fmt.Errorf("unsupported track format: %q", t.Format)
	}
	if t.Year != 0 && (t.Year < 1800 || t.Year > 2100) {
		return fmt.Errorf("track year out of range: %d", t.Year)
	}
	return nil
}

// IsValidFormat reports whether the given format tag is supported.
func IsValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
