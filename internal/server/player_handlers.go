package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/juanGallardor/ReproductorMusica/internal/player"
)

// playerStatusResponse is the session state plus the public tunnel URL when
// one is active.
type playerStatusResponse struct {
	player.State
	PublicURL string `json:"publicUrl,omitempty"`
}

// handlePlayerStatus returns a snapshot of the player session.
func (ms *MusicServer) handlePlayerStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	resp := playerStatusResponse{State: ms.session.Snapshot()}
	if ms.ngrokService != nil {
		resp.PublicURL = ms.ngrokService.GetPublicURL()
	}
	ms.respondJSON(w, resp)
}

// loadCurrentTrack points the audio device at the session's current track,
// carrying the session volume over. No-op without a device.
func (ms *MusicServer) loadCurrentTrack() error {
	if ms.device == nil {
		return nil
	}
	track, ok := ms.session.CurrentTrack()
	if !ok {
		return nil
	}
	if err := ms.device.Load(track); err != nil {
		return err
	}
	ms.device.SetVolume(ms.session.Volume())
	return nil
}

// handlePlay resumes a paused track or starts the current one.
func (ms *MusicServer) handlePlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	track, ok := ms.session.CurrentTrack()
	if !ok {
		ms.respondWithError(w, r, http.StatusConflict, "No track selected", nil)
		return
	}

	if ms.session.IsPaused() && ms.device != nil && ms.device.Busy() {
		ms.device.Resume()
	} else {
		if err := ms.loadCurrentTrack(); err != nil {
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error loading audio file", err)
			return
		}
		if err := ms.library.IncrementPlayCount(track.ID); err != nil {
			ms.logger.WithError(err).Debug("Could not increment play count")
		}
	}
	ms.session.SetPlaying(true)

	ms.logger.WithField("track", track.DisplayName()).Info("Playing")

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.session.Snapshot())
}

// handlePause pauses the current track keeping its position.
func (ms *MusicServer) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	if ms.device != nil {
		ms.device.Pause()
	}
	ms.session.SetPlaying(false)

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.session.Snapshot())
}

// handleStop stops playback and rewinds the position.
func (ms *MusicServer) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	if ms.device != nil {
		ms.device.Stop()
	}
	ms.session.Stop()

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.session.Snapshot())
}

// handleNextTrack skips forward following the repeat mode.
func (ms *MusicServer) handleNextTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	wasPlaying := ms.session.IsPlaying()
	if !ms.session.AdvanceTrack() {
		if ms.device != nil {
			ms.device.Stop()
		}
		w.Header().Set("Content-Type", "application/json")
		ms.respondJSON(w, ms.session.Snapshot())
		return
	}

	if wasPlaying {
		if err := ms.loadCurrentTrack(); err != nil {
			ms.session.Stop()
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error loading audio file", err)
			return
		}
		ms.session.SetPlaying(true)
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.session.Snapshot())
}

// handlePreviousTrack skips backward following the repeat mode.
func (ms *MusicServer) handlePreviousTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	wasPlaying := ms.session.IsPlaying()
	if ms.session.RetreatTrack() && wasPlaying {
		if err := ms.loadCurrentTrack(); err != nil {
			ms.session.Stop()
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error loading audio file", err)
			return
		}
		ms.session.SetPlaying(true)
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.session.Snapshot())
}

// handleSeek jumps to a position in the current track.
func (ms *MusicServer) handleSeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req struct {
		Position float64 `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if verr := validatePosition(req.Position); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	if ms.device != nil {
		if err := ms.device.Seek(time.Duration(req.Position * float64(time.Second))); err != nil {
			ms.respondWithError(w, r, http.StatusBadRequest, "Error seeking", err)
			return
		}
	}
	ms.session.UpdatePosition(req.Position)

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, ms.session.Snapshot())
}

// handleVolume reads (GET) or sets (POST) the player volume.
func (ms *MusicServer) handleVolume(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		ms.respondJSON(w, map[string]float64{"volume": ms.session.Volume()})

	case http.MethodPost, http.MethodPut:
		var req struct {
			Volume float64 `json:"volume"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
			return
		}
		if verr := validateVolume(req.Volume); verr != nil {
			ms.respondWithValidationError(w, r, []ValidationError{*verr})
			return
		}

		if err := ms.session.SetVolume(req.Volume); err != nil {
			ms.respondWithError(w, r, http.StatusBadRequest, "Error setting volume", err)
			return
		}
		if ms.device != nil {
			ms.device.SetVolume(req.Volume)
		}

		w.Header().Set("Content-Type", "application/json")
		ms.respondJSON(w, map[string]float64{"volume": ms.session.Volume()})

	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handleMute silences playback remembering the current volume.
func (ms *MusicServer) handleMute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	ms.session.Mute()
	if ms.device != nil {
		ms.device.SetVolume(0)
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{"muted": true, "volume": 0.0})
}

// handleUnmute restores the pre-mute volume.
func (ms *MusicServer) handleUnmute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	ms.session.Unmute()
	if ms.device != nil {
		ms.device.SetVolume(ms.session.Volume())
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{"muted": false, "volume": ms.session.Volume()})
}

// handleRepeat cycles the repeat mode, or sets it explicitly when the body
// carries a mode.
func (ms *MusicServer) handleRepeat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req struct {
		Mode string `json:"mode"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req) // body is optional
	}

	var mode player.RepeatMode
	if req.Mode != "" {
		parsed, err := player.ParseRepeatMode(req.Mode)
		if err != nil {
			ms.respondWithError(w, r, http.StatusBadRequest, "Invalid repeat mode", err)
			return
		}
		ms.session.SetRepeatMode(parsed)
		mode = parsed
	} else {
		mode = ms.session.ToggleRepeat()
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"repeatMode": string(mode)})
}

// handleShuffle toggles shuffle, reordering the active playlist when turning
// it on.
func (ms *MusicServer) handleShuffle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	shuffled := ms.session.ToggleShuffle()
	if shuffled && ms.session.CurrentPlaylist() != nil {
		if err := ms.catalog.Save(); err != nil {
			ms.logger.WithError(err).Warn("Could not persist shuffled playlist")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]bool{"shuffled": shuffled})
}
