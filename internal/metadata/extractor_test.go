package metadata

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func testExtractor() *Extractor {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewExtractor(logger)
}

func TestIsAudioFile(t *testing.T) {
	e := testExtractor()

	tests := []struct {
		path string
		want bool
	}{
		{"/music/song.mp3", true},
		{"/music/song.MP3", true},
		{"/music/song.flac", true},
		{"/music/song.wav", true},
		{"/music/song.m4a", false},
		{"/music/song.ogg", false},
		{"/music/cover.jpg", false},
		{"/music/noext", false},
	}

	for _, tt := range tests {
		if got := e.IsAudioFile(tt.path); got != tt.want {
			t.Errorf("IsAudioFile(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestGetContentType(t *testing.T) {
	e := testExtractor()

	tests := []struct {
		path string
		want string
	}{
		{"/music/song.mp3", "audio/mpeg"},
		{"/music/song.flac", "audio/flac"},
		{"/music/song.wav", "audio/wav"},
		{"/music/song.xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := e.GetContentType(tt.path); got != tt.want {
			t.Errorf("GetContentType(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestGetAlbumArtMimeType(t *testing.T) {
	e := testExtractor()

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47}, "image/png"},
		{"gif", []byte{0x47, 0x49, 0x46, 0x38}, "image/gif"},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03}, "application/octet-stream"},
		{"too short", []byte{0xFF}, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.GetAlbumArtMimeType(tt.data); got != tt.want {
				t.Errorf("GetAlbumArtMimeType() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGetAlbumArtMissing(t *testing.T) {
	e := testExtractor()
	if _, ok := e.GetAlbumArt("no-such-id"); ok {
		t.Error("GetAlbumArt() returned data for an unknown id")
	}
}

func TestExtractFromFileMissing(t *testing.T) {
	e := testExtractor()
	if _, err := e.ExtractFromFile("/does/not/exist.mp3"); err == nil {
		t.Error("ExtractFromFile() on a missing file expected an error")
	}
}
