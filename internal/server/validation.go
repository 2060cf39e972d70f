package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ValidationError describes a single invalid request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationResult is the body of a 400 validation response.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// respondJSON writes v as the JSON response body.
func (ms *MusicServer) respondJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ms.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// respondWithValidationError sends a structured validation error response.
func (ms *MusicServer) respondWithValidationError(w http.ResponseWriter, r *http.Request, errors []ValidationError) {
	ms.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"errors": errors,
	}).Warn("Validation failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	ms.respondJSON(w, ValidationResult{Valid: false, Errors: errors})
}

// respondWithError sends a structured error response.
func (ms *MusicServer) respondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	logEntry := ms.logger.WithFields(logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"status_code": statusCode,
		"message":     message,
	})
	if err != nil {
		logEntry = logEntry.WithError(err)
	}
	if statusCode >= 500 {
		logEntry.Error("Server error")
	} else {
		logEntry.Warn("Client error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	ms.respondJSON(w, map[string]interface{}{
		"error":   message,
		"code":    statusCode,
		"success": false,
	})
}

// validateTrackID validates a track id taken from the URL path.
func validateTrackID(id string) *ValidationError {
	if id == "" {
		return &ValidationError{
			Field:   "track_id",
			Message: "Track ID is required",
			Code:    "MISSING_TRACK_ID",
		}
	}
	if _, err := uuid.Parse(id); err != nil {
		return &ValidationError{
			Field:   "track_id",
			Message: "Track ID must be a valid UUID",
			Code:    "INVALID_TRACK_ID_FORMAT",
		}
	}
	return nil
}

// validatePlaylistID validates a playlist id taken from the URL path.
func validatePlaylistID(id string) *ValidationError {
	if id == "" {
		return &ValidationError{
			Field:   "playlist_id",
			Message: "Playlist ID is required",
			Code:    "MISSING_PLAYLIST_ID",
		}
	}
	if _, err := uuid.Parse(id); err != nil {
		return &ValidationError{
			Field:   "playlist_id",
			Message: "Playlist ID must be a valid UUID",
			Code:    "INVALID_PLAYLIST_ID_FORMAT",
		}
	}
	return nil
}

// validateSearchQuery bounds search query parameters.
func validateSearchQuery(query string) *ValidationError {
	if len(query) > 1000 {
		return &ValidationError{
			Field:   "search",
			Message: "Search query too long (max 1000 characters)",
			Code:    "SEARCH_QUERY_TOO_LONG",
		}
	}
	if strings.Contains(query, "\x00") {
		return &ValidationError{
			Field:   "search",
			Message: "Search query contains invalid characters",
			Code:    "INVALID_SEARCH_CHARACTERS",
		}
	}
	return nil
}

// validateVolume bounds a requested volume.
func validateVolume(volume float64) *ValidationError {
	if volume < 0 || volume > 100 {
		return &ValidationError{
			Field:   "volume",
			Message: "Volume must be between 0 and 100",
			Code:    "INVALID_VOLUME",
		}
	}
	return nil
}

// validatePosition rejects negative playback positions.
func validatePosition(position float64) *ValidationError {
	if position < 0 {
		return &ValidationError{
			Field:   "position",
			Message: "Position cannot be negative",
			Code:    "INVALID_POSITION",
		}
	}
	return nil
}

// validatePlaylistName checks a playlist name from a request body.
func validatePlaylistName(name string) *ValidationError {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{
			Field:   "name",
			Message: "Playlist name is required",
			Code:    "MISSING_PLAYLIST_NAME",
		}
	}
	if len(name) > 100 {
		return &ValidationError{
			Field:   "name",
			Message: "Playlist name too long (max 100 characters)",
			Code:    "PLAYLIST_NAME_TOO_LONG",
		}
	}
	if strings.ContainsAny(name, "\x00\n\r") {
		return &ValidationError{
			Field:   "name",
			Message: "Playlist name contains invalid characters",
			Code:    "INVALID_PLAYLIST_NAME_CHARACTERS",
		}
	}
	return nil
}

// validatePlaylistDescription checks a playlist description.
func validatePlaylistDescription(description string) *ValidationError {
	if len(description) > 500 {
		return &ValidationError{
			Field:   "description",
			Message: "Playlist description too long (max 500 characters)",
			Code:    "PLAYLIST_DESCRIPTION_TOO_LONG",
		}
	}
	return nil
}

// validateFilePath ensures a file path stays within the music directory.
func (ms *MusicServer) validateFilePath(filePath string) *ValidationError {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return &ValidationError{
			Field:   "file_path",
			Message: "Invalid file path",
			Code:    "INVALID_FILE_PATH",
		}
	}

	absMusicDir, err := filepath.Abs(ms.config.Music.LibraryPath)
	if err != nil {
		return &ValidationError{
			Field:   "file_path",
			Message: "Server configuration error",
			Code:    "CONFIG_ERROR",
		}
	}

	relPath, err := filepath.Rel(absMusicDir, absPath)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return &ValidationError{
			Field:   "file_path",
			Message: "File path outside allowed directory",
			Code:    "PATH_TRAVERSAL_DENIED",
		}
	}
	return nil
}

// sanitizeInput strips null bytes and surrounding whitespace from user input.
func sanitizeInput(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}
