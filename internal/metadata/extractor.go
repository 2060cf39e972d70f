package metadata

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"

	"github.com/juanGallardor/ReproductorMusica/pkg/models"
)

// Extractor reads track metadata from audio files. It recognizes mp3, wav
// and flac, and keeps extracted album art in an in-process cache keyed by a
// content hash.
type Extractor struct {
	logger        *logrus.Logger
	albumArtCache map[string][]byte
	albumArtMux   sync.RWMutex
}

// NewExtractor creates a metadata extractor.
func NewExtractor(logger *logrus.Logger) *Extractor {
	return &Extractor{
		logger:        logger,
		albumArtCache: make(map[string][]byte),
	}
}

// ExtractFromFile builds a Track from an audio file, assigning it a fresh id.
// Missing tags degrade to filename-derived defaults rather than failing.
func (e *Extractor) ExtractFromFile(filePath string) (models.Track, error) {
	startTime := time.Now()

	file, err := os.Open(filePath)
	if err != nil {
		e.logger.WithError(err).WithField("filePath", filePath).Error("Failed to open audio file")
		return models.Track{}, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		e.logger.WithError(err).WithField("filePath", filePath).Error("Failed to stat audio file")
		return models.Track{}, err
	}

	duration, err := e.calculateDuration(filePath)
	if err != nil {
		e.logger.WithError(err).WithField("filePath", filePath).Warn("Failed to calculate duration, setting to 0")
		duration = 0
	}

	track := models.Track{
		ID:        uuid.NewString(),
		Title:     strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath)),
		Artist:    "Unknown Artist",
		Album:     "Unknown Album",
		Duration:  duration,
		Filename:  filepath.Base(filePath),
		FilePath:  filePath,
		FileSize:  stat.Size(),
		Format:    strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), "."),
		CreatedAt: time.Now(),
	}

	meta, err := tag.ReadFrom(file)
	if err != nil {
		e.logger.WithError(err).WithField("filePath", filePath).Warn("Failed to read tags, using filename")
		return track, nil
	}

	if title := meta.Title(); title != "" {
		track.Title = title
	}
	if artist := meta.Artist(); artist != "" {
		track.Artist = artist
	}
	if album := meta.Album(); album != "" {
		track.Album = album
	}
	track.Year = meta.Year()
	track.AlbumArtID, track.HasAlbumArt = e.extractAlbumArt(meta)

	e.logger.WithFields(logrus.Fields{
		"filePath":       filePath,
		"title":          track.Title,
		"artist":         track.Artist,
		"duration":       track.Duration,
		"hasAlbumArt":    track.HasAlbumArt,
		"processingTime": time.Since(startTime),
	}).Debug("Extracted metadata")

	return track, nil
}

// calculateDuration returns the duration of an audio file in seconds.
func (e *Extractor) calculateDuration(filePath string) (int, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".mp3":
		return e.durationMP3(filePath)
	case ".flac":
		return e.durationFLAC(filePath)
	case ".wav":
		return e.durationWAV(filePath)
	default:
		return 0, fmt.Errorf("unsupported format: %s", ext)
	}
}

// durationMP3 sums frame durations; when no frame decodes at all it falls
// back to an average-bitrate estimate.
func (e *Extractor) durationMP3(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var total time.Duration
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if frames == 0 {
				return e.estimateFromFileSize(path, 192000) // assume 192 kbps
			}
			break // partial decode; use what we have
		}
		total += fr.Duration()
		frames++
	}
	return int(total.Seconds()), nil
}

// durationFLAC reads the STREAMINFO metadata block.
func (e *Extractor) durationFLAC(path string) (int, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return 0, err
	}
	si := stream.Info
	if si.NSamples > 0 && si.SampleRate > 0 {
		secs := float64(si.NSamples) / float64(si.SampleRate)
		return int(secs + 0.5), nil
	}
	return 0, fmt.Errorf("flac stream missing sample info")
}

// durationWAV derives the duration from the header and the PCM byte count.
func (e *Extractor) durationWAV(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("invalid wav file")
	}
	if dec.SampleRate == 0 || dec.BitDepth == 0 || dec.NumChans == 0 {
		return 0, fmt.Errorf("invalid wav header")
	}

	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	headerSize := int64(44)
	pcmBytes := st.Size() - headerSize
	if pcmBytes < 0 {
		pcmBytes = 0
	}
	bytesPerSampleFrame := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if bytesPerSampleFrame <= 0 {
		return 0, fmt.Errorf("invalid sample frame size")
	}
	sampleFrames := pcmBytes / bytesPerSampleFrame
	secs := float64(sampleFrames) / float64(dec.SampleRate)
	return int(secs + 0.5), nil
}

// estimateFromFileSize is the last-resort estimation when parsing fails.
func (e *Extractor) estimateFromFileSize(path string, bitrate int) (int, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if bitrate <= 0 {
		return 0, fmt.Errorf("invalid bitrate")
	}
	return int((st.Size() * 8) / int64(bitrate)), nil
}

// extractAlbumArt caches embedded album art under a content-hash id.
func (e *Extractor) extractAlbumArt(meta tag.Metadata) (string, bool) {
	if meta == nil {
		return "", false
	}
	picture := meta.Picture()
	if picture == nil {
		return "", false
	}

	hash := md5.Sum(picture.Data)
	artID := fmt.Sprintf("%x", hash)

	e.albumArtMux.Lock()
	e.albumArtCache[artID] = picture.Data
	e.albumArtMux.Unlock()

	return artID, true
}

// GetAlbumArt retrieves cached album art by id.
func (e *Extractor) GetAlbumArt(artID string) ([]byte, bool) {
	e.albumArtMux.RLock()
	data, exists := e.albumArtCache[artID]
	e.albumArtMux.RUnlock()
	return data, exists
}

// GetAlbumArtMimeType sniffs the MIME type of album art data.
func (e *Extractor) GetAlbumArtMimeType(data []byte) string {
	if len(data) < 4 {
		return "application/octet-stream"
	}
	if data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 {
		return "image/gif"
	}
	return "application/octet-stream"
}

// IsAudioFile reports whether the file has a supported audio extension.
func (e *Extractor) IsAudioFile(filePath string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")
	return models.IsValidFormat(ext)
}

// GetContentType returns the MIME type for an audio file.
func (e *Extractor) GetContentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
