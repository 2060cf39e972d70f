package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/juanGallardor/ReproductorMusica/internal/cache"
	"github.com/juanGallardor/ReproductorMusica/internal/catalog"
	"github.com/juanGallardor/ReproductorMusica/internal/config"
	"github.com/juanGallardor/ReproductorMusica/internal/database"
	"github.com/juanGallardor/ReproductorMusica/internal/metadata"
	"github.com/juanGallardor/ReproductorMusica/internal/ngrok"
	"github.com/juanGallardor/ReproductorMusica/internal/playback"
	"github.com/juanGallardor/ReproductorMusica/internal/player"
)

// MusicServer ties the HTTP API to the library, the playlist catalog and the
// player session.
type MusicServer struct {
	config     *config.Config
	logger     *logrus.Logger
	library    *database.Library
	catalog    *catalog.Catalog
	session    *player.Session
	device     playback.Device
	extractor  *metadata.Extractor
	trackCache *cache.TrackCache

	watcher      *fsnotify.Watcher
	ngrokService *ngrok.Service
	httpServer   *http.Server
}

// NewMusicServer creates a server. The device may be nil when audio output
// is disabled; playback endpoints then only drive the session state.
func NewMusicServer(cfg *config.Config, logger *logrus.Logger, library *database.Library, cat *catalog.Catalog, session *player.Session, device playback.Device) (*MusicServer, error) {
	ngrokSvc, err := ngrok.NewService(&cfg.Ngrok, logger)
	if err != nil {
		logger.WithError(err).Warn("Ngrok service not available")
		ngrokSvc = nil
	}

	return &MusicServer{
		config:       cfg,
		logger:       logger,
		library:      library,
		catalog:      cat,
		session:      session,
		device:       device,
		extractor:    metadata.NewExtractor(logger),
		trackCache:   cache.NewTrackCache(),
		ngrokService: ngrokSvc,
	}, nil
}

// ScanMusicLibrary walks the music folder and indexes every audio file using
// a worker pool sized to the CPU count.
func (ms *MusicServer) ScanMusicLibrary() error {
	if !ms.config.Music.ScanOnStartup {
		ms.logger.Info("Skipping library scan (disabled in config)")
		return nil
	}

	ms.logger.WithField("library_path", ms.config.Music.LibraryPath).Info("Scanning music library")

	var wg sync.WaitGroup
	var trackCount int64
	jobs := make(chan string, 100)

	numWorkers := runtime.NumCPU()
	for i := 0; i < numWorkers; i++ {
		go func() {
			for path := range jobs {
				track, err := ms.extractor.ExtractFromFile(path)
				if err != nil {
					ms.logger.WithError(err).WithField("file_path", path).Error("Error extracting metadata")
					wg.Done()
					continue
				}
				if _, err := ms.library.InsertTrack(track); err != nil {
					ms.logger.WithError(err).Error("Error inserting track into library")
				} else {
					atomic.AddInt64(&trackCount, 1)
					ms.logger.WithField("track", track.DisplayName()).Debug("Indexed track")
				}
				wg.Done()
			}
		}()
	}

	walkErr := filepath.Walk(ms.config.Music.LibraryPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ms.extractor.IsAudioFile(path) {
			wg.Add(1)
			jobs <- path
		}
		return nil
	})

	close(jobs)
	wg.Wait()

	ms.trackCache.Clear()
	if walkErr != nil {
		ms.logger.WithError(walkErr).WithField("indexed", atomic.LoadInt64(&trackCount)).Error("Music library scan aborted before completing")
		return walkErr
	}
	ms.logger.WithField("count", atomic.LoadInt64(&trackCount)).Info("Library scan complete")
	return nil
}

// Start runs the HTTP server until the context is canceled, then shuts it
// down gracefully.
func (ms *MusicServer) Start(ctx context.Context) error {
	if ms.config.Music.WatchForChanges {
		if err := ms.startFileWatcher(); err != nil {
			ms.logger.WithError(err).Warn("Could not start file watcher")
		} else {
			defer ms.stopFileWatcher()
		}
	}

	handler := ms.panicRecoveryMiddleware(ms.corsMiddleware(ms.requestLoggingMiddleware(ms.routes())))

	localAddress := fmt.Sprintf("http://%s", ms.config.GetAddress())
	trackCount, _ := ms.library.CountTracks()

	ms.logger.WithFields(logrus.Fields{
		"address":   localAddress,
		"tracks":    trackCount,
		"playlists": ms.catalog.Count(),
	}).Info("Music server starting")

	if ms.ngrokService != nil {
		if err := ms.ngrokService.StartTunnel(ctx, localAddress); err != nil {
			ms.logger.WithError(err).Warn("Could not start ngrok tunnel")
		} else {
			defer ms.ngrokService.Stop()
		}
	}

	ms.httpServer = &http.Server{
		Addr:        ms.config.GetAddress(),
		Handler:     handler,
		ReadTimeout: time.Duration(ms.config.Server.ReadTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := ms.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return ms.httpServer.Shutdown(shutdownCtx)
	}
}

// routes builds the API mux.
func (ms *MusicServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ms.handleHealthCheck)
	mux.HandleFunc("/stream/", ms.handleStreamTrack)
	mux.HandleFunc("/albumart/", ms.handleAlbumArt)

	mux.HandleFunc("/api/tracks", ms.handleGetTracks)
	mux.HandleFunc("/api/tracks/count", ms.handleGetTrackCount)
	mux.HandleFunc("/api/tracks/", ms.handleTrackByID)
	mux.HandleFunc("/api/upload", ms.handleUploadTrack)

	mux.HandleFunc("/api/player/status", ms.handlePlayerStatus)
	mux.HandleFunc("/api/player/play", ms.handlePlay)
	mux.HandleFunc("/api/player/pause", ms.handlePause)
	mux.HandleFunc("/api/player/stop", ms.handleStop)
	mux.HandleFunc("/api/player/next", ms.handleNextTrack)
	mux.HandleFunc("/api/player/previous", ms.handlePreviousTrack)
	mux.HandleFunc("/api/player/seek", ms.handleSeek)
	mux.HandleFunc("/api/player/volume", ms.handleVolume)
	mux.HandleFunc("/api/player/mute", ms.handleMute)
	mux.HandleFunc("/api/player/unmute", ms.handleUnmute)
	mux.HandleFunc("/api/player/repeat", ms.handleRepeat)
	mux.HandleFunc("/api/player/shuffle", ms.handleShuffle)

	mux.HandleFunc("/api/playlists", ms.handlePlaylists)
	mux.HandleFunc("/api/playlists/search", ms.handleSearchPlaylists)
	mux.HandleFunc("/api/playlists/", ms.handlePlaylistSubroutes)

	return mux
}

// handlePlaylistSubroutes dispatches /api/playlists/{id}[/...] by path shape.
func (ms *MusicServer) handlePlaylistSubroutes(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// pathParts: ["api", "playlists", "{id}", ...]
	switch {
	case len(pathParts) == 3:
		ms.handlePlaylistByID(w, r)
	case len(pathParts) == 4 && pathParts[3] == "tracks":
		switch r.Method {
		case http.MethodGet:
			ms.handleGetPlaylistTracks(w, r)
		case http.MethodPost:
			ms.handleAddTrackToPlaylist(w, r)
		default:
			ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		}
	case len(pathParts) == 5 && pathParts[3] == "tracks":
		ms.handleRemoveTrackFromPlaylist(w, r)
	case len(pathParts) == 4 && pathParts[3] == "move":
		ms.handleMovePlaylistTrack(w, r)
	case len(pathParts) == 4 && pathParts[3] == "shuffle":
		ms.handleShufflePlaylist(w, r)
	case len(pathParts) == 4 && pathParts[3] == "duplicate":
		ms.handleDuplicatePlaylist(w, r)
	case len(pathParts) == 4 && pathParts[3] == "export":
		ms.handleExportPlaylist(w, r)
	case len(pathParts) == 4 && pathParts[3] == "activate":
		ms.handleActivatePlaylist(w, r)
	default:
		ms.respondWithError(w, r, http.StatusNotFound, "Not found", nil)
	}
}

// Shutdown releases server resources outside the HTTP lifecycle.
func (ms *MusicServer) Shutdown() {
	ms.logger.Info("Shutting down music server...")
	ms.stopFileWatcher()
	ms.logger.Info("Music server shutdown complete")
}
