package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/juanGallardor/ReproductorMusica/internal/playlist"
)

// playlistIDFromPath returns the id segment of /api/playlists/{id}[/...].
func playlistIDFromPath(path string) string {
	pathParts := strings.Split(strings.Trim(path, "/"), "/")
	if len(pathParts) < 3 {
		return ""
	}
	return pathParts[2]
}

// catalogErrorStatus maps catalog error kinds onto HTTP status codes.
func catalogErrorStatus(err error) int {
	switch {
	case errors.Is(err, playlist.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, playlist.ErrInvalidArgument), errors.Is(err, playlist.ErrInvalidPosition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handlePlaylists serves GET (list) and POST (create) on /api/playlists.
func (ms *MusicServer) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		playlists := ms.catalog.List()
		snapshots := make([]playlist.Snapshot, 0, len(playlists))
		for _, p := range playlists {
			snapshots = append(snapshots, p.Snapshot())
		}
		ms.respondJSON(w, snapshots)

	case http.MethodPost:
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
			return
		}

		req.Name = sanitizeInput(req.Name)
		var verrs []ValidationError
		if verr := validatePlaylistName(req.Name); verr != nil {
			verrs = append(verrs, *verr)
		}
		if verr := validatePlaylistDescription(req.Description); verr != nil {
			verrs = append(verrs, *verr)
		}
		if len(verrs) > 0 {
			ms.respondWithValidationError(w, r, verrs)
			return
		}

		p, err := ms.catalog.Create(req.Name, req.Description)
		if err != nil {
			ms.respondWithError(w, r, catalogErrorStatus(err), "Error creating playlist", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		ms.respondJSON(w, p.Snapshot())

	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handleSearchPlaylists returns playlists matching ?q= by name or
// description.
func (ms *MusicServer) handleSearchPlaylists(w http.ResponseWriter, r *http.Request) {
	query := sanitizeInput(r.URL.Query().Get("q"))
	if verr := validateSearchQuery(query); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	matches := ms.catalog.Search(query)
	snapshots := make([]playlist.Snapshot, 0, len(matches))
	for _, p := range matches {
		snapshots = append(snapshots, p.Snapshot())
	}
	ms.respondJSON(w, snapshots)
}

// handlePlaylistByID serves GET, PUT and DELETE on /api/playlists/{id}.
func (ms *MusicServer) handlePlaylistByID(w http.ResponseWriter, r *http.Request) {
	id := playlistIDFromPath(r.URL.Path)
	if verr := validatePlaylistID(id); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := ms.catalog.Get(id)
		if err != nil {
			ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		ms.respondJSON(w, p.Snapshot())

	case http.MethodPut:
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			CoverPath   string `json:"coverPath"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
			return
		}

		req.Name = sanitizeInput(req.Name)
		if req.Name != "" {
			if verr := validatePlaylistName(req.Name); verr != nil {
				ms.respondWithValidationError(w, r, []ValidationError{*verr})
				return
			}
		}
		if verr := validatePlaylistDescription(req.Description); verr != nil {
			ms.respondWithValidationError(w, r, []ValidationError{*verr})
			return
		}

		p, err := ms.catalog.Update(id, req.Name, req.Description)
		if err != nil {
			ms.respondWithError(w, r, catalogErrorStatus(err), "Error updating playlist", err)
			return
		}
		if req.CoverPath != "" {
			if err := ms.catalog.SetCover(id, req.CoverPath); err != nil {
				ms.respondWithError(w, r, catalogErrorStatus(err), "Error setting playlist cover", err)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		ms.respondJSON(w, p.Snapshot())

	case http.MethodDelete:
		if err := ms.catalog.Delete(id); err != nil {
			ms.respondWithError(w, r, catalogErrorStatus(err), "Error deleting playlist", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		ms.respondJSON(w, map[string]string{"message": "Playlist deleted"})

	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handleGetPlaylistTracks returns the tracks of a playlist in order.
func (ms *MusicServer) handleGetPlaylistTracks(w http.ResponseWriter, r *http.Request) {
	id := playlistIDFromPath(r.URL.Path)
	p, err := ms.catalog.Get(id)
	if err != nil {
		ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, p.Tracks())
}

// handleAddTrackToPlaylist appends (or inserts) a library track into a
// playlist.
func (ms *MusicServer) handleAddTrackToPlaylist(w http.ResponseWriter, r *http.Request) {
	id := playlistIDFromPath(r.URL.Path)

	var req struct {
		TrackID  string `json:"trackId"`
		Position *int   `json:"position,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if verr := validateTrackID(req.TrackID); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	track, err := ms.library.GetTrackByID(req.TrackID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusNotFound, "Track not found", err)
		return
	}

	if req.Position != nil {
		err = ms.catalog.AddTrackAt(id, *track, *req.Position)
	} else {
		err = ms.catalog.AddTrack(id, *track)
	}
	if err != nil {
		ms.respondWithError(w, r, catalogErrorStatus(err), "Error adding track to playlist", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Track added to playlist"})
}

// handleRemoveTrackFromPlaylist removes a track from a playlist by id.
func (ms *MusicServer) handleRemoveTrackFromPlaylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// pathParts: ["api", "playlists", "{id}", "tracks", "{trackID}"]
	playlistID := pathParts[2]
	trackID := pathParts[4]
	if verr := validateTrackID(trackID); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	if err := ms.catalog.RemoveTrack(playlistID, trackID); err != nil {
		ms.respondWithError(w, r, catalogErrorStatus(err), "Error removing track from playlist", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Track removed from playlist"})
}

// handleMovePlaylistTrack reorders a playlist.
func (ms *MusicServer) handleMovePlaylistTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	id := playlistIDFromPath(r.URL.Path)

	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if err := ms.catalog.MoveTrack(id, req.From, req.To); err != nil {
		ms.respondWithError(w, r, catalogErrorStatus(err), "Error moving track", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Track moved"})
}

// handleShufflePlaylist randomly reorders a playlist.
func (ms *MusicServer) handleShufflePlaylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	id := playlistIDFromPath(r.URL.Path)
	if err := ms.catalog.ShuffleTracks(id); err != nil {
		ms.respondWithError(w, r, catalogErrorStatus(err), "Error shuffling playlist", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Playlist shuffled"})
}

// handleDuplicatePlaylist copies a playlist under a derived name.
func (ms *MusicServer) handleDuplicatePlaylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	id := playlistIDFromPath(r.URL.Path)
	dup, err := ms.catalog.Duplicate(id)
	if err != nil {
		ms.respondWithError(w, r, catalogErrorStatus(err), "Error duplicating playlist", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	ms.respondJSON(w, dup.Snapshot())
}

// handleExportPlaylist serves a playlist snapshot as a downloadable JSON
// file.
func (ms *MusicServer) handleExportPlaylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	id := playlistIDFromPath(r.URL.Path)
	p, err := ms.catalog.Get(id)
	if err != nil {
		ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", err)
		return
	}

	snapshot := p.Snapshot()
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error exporting playlist", err)
		return
	}

	filename := strings.ReplaceAll(p.Name(), "\"", "") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.Write(data)
}

// handleActivatePlaylist makes a playlist the player's current one,
// optionally jumping to a position.
func (ms *MusicServer) handleActivatePlaylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	id := playlistIDFromPath(r.URL.Path)
	p, err := ms.catalog.Get(id)
	if err != nil {
		ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", err)
		return
	}

	var req struct {
		Position *int `json:"position,omitempty"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req) // body is optional
	}

	if err := ms.session.SetCurrentPlaylist(p); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Error activating playlist", err)
		return
	}
	if req.Position != nil && !p.JumpTo(*req.Position) {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid track position", nil)
		return
	}

	ms.logger.WithField("playlist", p.Name()).Info("Playlist activated")

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.session.Snapshot())
}
