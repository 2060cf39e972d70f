package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// handleStreamTrack streams a track by id with Range support so clients can
// seek.
func (ms *MusicServer) handleStreamTrack(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 2 {
		ms.respondWithError(w, r, http.StatusBadRequest, "Track ID is required", nil)
		return
	}
	trackID := pathParts[1]
	if verr := validateTrackID(trackID); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	track, err := ms.library.GetTrackByID(trackID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusNotFound, "Track not found", err)
		return
	}

	if verr := ms.validateFilePath(track.FilePath); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	file, err := os.Open(track.FilePath)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error opening audio file", err)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error reading file info", err)
		return
	}

	w.Header().Set("Content-Type", ms.extractor.GetContentType(track.FilePath))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", stat.Size()))
	w.Header().Set("Accept-Ranges", "bytes")

	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
		ms.handleRangeRequest(w, file, stat.Size(), rangeHeader)
		return
	}

	ms.logger.WithField("track", track.DisplayName()).Debug("Streaming track")
	if _, err := io.Copy(w, file); err != nil {
		ms.logger.WithError(err).Debug("Error streaming file")
	}
}

// handleRangeRequest implements single-range byte serving, including the
// suffix form "bytes=-n" (the last n bytes).
func (ms *MusicServer) handleRangeRequest(w http.ResponseWriter, file *os.File, fileSize int64, rangeHeader string) {
	ranges := strings.TrimPrefix(rangeHeader, "bytes=")
	rangeParts := strings.Split(ranges, "-")
	if len(rangeParts) != 2 {
		ms.rejectRange(w, fileSize)
		return
	}

	var start, end int64
	if rangeParts[0] == "" {
		// Suffix form: serve the last n bytes.
		n, err := strconv.ParseInt(rangeParts[1], 10, 64)
		if err != nil || n <= 0 {
			ms.rejectRange(w, fileSize)
			return
		}
		if n > fileSize {
			n = fileSize
		}
		start = fileSize - n
		end = fileSize - 1
	} else {
		var err error
		start, err = strconv.ParseInt(rangeParts[0], 10, 64)
		if err != nil {
			ms.rejectRange(w, fileSize)
			return
		}
		end = fileSize - 1
		if rangeParts[1] != "" {
			end, err = strconv.ParseInt(rangeParts[1], 10, 64)
			if err != nil {
				ms.rejectRange(w, fileSize)
				return
			}
		}
	}

	if start < 0 || end >= fileSize || start > end {
		ms.rejectRange(w, fileSize)
		return
	}

	contentLength := end - start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", contentLength))
	w.WriteHeader(http.StatusPartialContent)

	file.Seek(start, io.SeekStart)
	io.CopyN(w, file, contentLength)
}

// rejectRange answers an unsatisfiable Range header with 416.
func (ms *MusicServer) rejectRange(w http.ResponseWriter, fileSize int64) {
	w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
	http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
}
