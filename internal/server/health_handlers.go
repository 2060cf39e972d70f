package server

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

// HealthStatus represents operational status for the /health endpoint.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Database  string                 `json:"database"`
	Storage   string                 `json:"storage"`
	Tracks    int                    `json:"trackCount"`
	Playlists int                    `json:"playlistCount"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// handleHealthCheck returns basic liveness plus dependency checks.
func (ms *MusicServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Database:  "ok",
		Storage:   "ok",
		Details:   make(map[string]interface{}),
	}

	count, err := ms.library.CountTracks()
	if err != nil {
		health.Status = "unhealthy"
		health.Database = "error"
		health.Details["database_error"] = err.Error()
	} else {
		health.Tracks = count
	}

	if err := ms.checkStorageHealth(); err != nil {
		health.Status = "unhealthy"
		health.Storage = "error"
		health.Details["storage_error"] = err.Error()
	}

	health.Playlists = ms.catalog.Count()
	health.Details["catalog"] = ms.catalog.Stats()

	if health.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	ms.respondJSON(w, health)
}

// checkStorageHealth verifies the music folder exists and is a directory.
func (ms *MusicServer) checkStorageHealth() error {
	info, err := os.Stat(ms.config.Music.LibraryPath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("music library path %s is not a directory", ms.config.Music.LibraryPath)
	}
	return nil
}
