package server

import (
	"net/http"
	"strings"

	"github.com/juanGallardor/ReproductorMusica/pkg/models"
)

// handleGetTracks returns the library, optionally filtered by a search
// query. Results are cached.
func (ms *MusicServer) handleGetTracks(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	searchQuery := sanitizeInput(r.URL.Query().Get("search"))
	if verr := validateSearchQuery(searchQuery); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	cacheKey := "tracks:all"
	if searchQuery != "" {
		cacheKey = "tracks:search:" + strings.ToLower(searchQuery)
	}
	if cached, ok := ms.trackCache.GetTracks(cacheKey); ok {
		ms.respondJSON(w, cached)
		return
	}

	var tracks []models.Track
	var err error
	if searchQuery != "" {
		tracks, err = ms.library.SearchTracks(searchQuery)
	} else {
		tracks, err = ms.library.GetAllTracks()
	}
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving tracks", err)
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}

	ms.trackCache.SetTracks(cacheKey, tracks)
	ms.respondJSON(w, tracks)
}

// handleGetTrackCount responds with a JSON count of all tracks.
func (ms *MusicServer) handleGetTrackCount(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	count, err := ms.library.CountTracks()
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving track count", err)
		return
	}
	ms.respondJSON(w, map[string]int{"count": count})
}

// handleTrackByID serves GET and DELETE for /api/tracks/{id}.
func (ms *MusicServer) handleTrackByID(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 3 {
		ms.respondWithError(w, r, http.StatusBadRequest, "Track ID is required", nil)
		return
	}
	trackID := pathParts[2]
	if verr := validateTrackID(trackID); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	switch r.Method {
	case http.MethodGet:
		track, err := ms.library.GetTrackByID(trackID)
		if err != nil {
			ms.respondWithError(w, r, http.StatusNotFound, "Track not found", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		ms.respondJSON(w, track)

	case http.MethodDelete:
		if err := ms.library.RemoveTrack(trackID); err != nil {
			ms.respondWithError(w, r, http.StatusNotFound, "Track not found", err)
			return
		}
		ms.trackCache.Clear()
		w.Header().Set("Content-Type", "application/json")
		ms.respondJSON(w, map[string]string{"message": "Track removed"})

	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handleAlbumArt serves cached album art by id.
func (ms *MusicServer) handleAlbumArt(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 2 || pathParts[1] == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Album art ID is required", nil)
		return
	}

	data, ok := ms.extractor.GetAlbumArt(pathParts[1])
	if !ok {
		ms.respondWithError(w, r, http.StatusNotFound, "Album art not found", nil)
		return
	}

	w.Header().Set("Content-Type", ms.extractor.GetAlbumArtMimeType(data))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}
