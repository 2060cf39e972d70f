package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// maxUploadSize bounds multipart uploads at 200MB, enough for lossless
// full-album files.
const maxUploadSize = 200 << 20

// handleUploadTrack accepts an audio file upload, stores it in the music
// folder and indexes it.
func (ms *MusicServer) handleUploadTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid multipart form (file too large?)", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Missing 'file' form field", err)
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !ms.extractor.IsAudioFile(filename) {
		ms.respondWithValidationError(w, r, []ValidationError{{
			Field:   "file",
			Message: "Unsupported audio format (mp3, wav and flac are accepted)",
			Code:    "UNSUPPORTED_AUDIO_FORMAT",
		}})
		return
	}

	if err := os.MkdirAll(ms.config.Music.LibraryPath, 0755); err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error preparing music directory", err)
		return
	}

	destPath := ms.uniqueDestinationPath(filename)
	dest, err := os.Create(destPath)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error saving uploaded file", err)
		return
	}

	written, err := io.Copy(dest, file)
	dest.Close()
	if err != nil {
		os.Remove(destPath)
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error saving uploaded file", err)
		return
	}

	track, err := ms.extractor.ExtractFromFile(destPath)
	if err != nil {
		os.Remove(destPath)
		ms.respondWithError(w, r, http.StatusBadRequest, "Could not read audio metadata", err)
		return
	}

	trackID, err := ms.library.InsertTrack(track)
	if err != nil {
		os.Remove(destPath)
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error indexing uploaded track", err)
		return
	}
	track.ID = trackID
	ms.trackCache.Clear()

	ms.logger.WithFields(logrus.Fields{
		"track": track.DisplayName(),
		"file":  filepath.Base(destPath),
		"size":  formatBytes(int(written)),
	}).Info("Track uploaded")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	ms.respondJSON(w, track)
}

// uniqueDestinationPath returns a path in the music folder that does not
// collide with an existing file, appending a counter when needed.
func (ms *MusicServer) uniqueDestinationPath(filename string) string {
	destPath := filepath.Join(ms.config.Music.LibraryPath, filename)
	if _, err := os.Stat(destPath); os.IsNotExist(err) {
		return destPath
	}

	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	for n := 1; ; n++ {
		candidate := filepath.Join(ms.config.Music.LibraryPath, fmt.Sprintf("%s_%d%s", base, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
