package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/juanGallardor/ReproductorMusica/internal/catalog"
	"github.com/juanGallardor/ReproductorMusica/internal/config"
	"github.com/juanGallardor/ReproductorMusica/internal/database"
	"github.com/juanGallardor/ReproductorMusica/internal/playback"
	"github.com/juanGallardor/ReproductorMusica/internal/player"
	"github.com/juanGallardor/ReproductorMusica/internal/server"
	"github.com/juanGallardor/ReproductorMusica/internal/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the configuration file")
	flag.Parse()

	// Optional .env for local overrides such as NGROK_AUTHTOKEN.
	godotenv.Load()

	// Basic logger for startup; reconfigured once the config is loaded.
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}
	configureLogger(logger, cfg.Logging)

	if err := os.MkdirAll(cfg.Music.LibraryPath, 0755); err != nil {
		logger.WithError(err).WithField("library_path", cfg.Music.LibraryPath).Fatal("Could not create music directory")
	}

	library, err := database.NewLibrary(cfg.Database.Path, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error initializing track library")
	}
	defer library.Close()

	store, err := storage.NewJSONStore(cfg.Music.PlaylistFile, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error initializing playlist store")
	}

	session := player.NewSession()
	if err := session.SetVolume(cfg.Player.DefaultVolume); err != nil {
		logger.WithError(err).Warn("Invalid default volume, keeping built-in default")
	}

	cat := catalog.New(store, session, logger)
	if err := cat.LoadFromStore(); err != nil {
		logger.WithError(err).Warn("Could not load saved playlists")
	}

	var device playback.Device
	if cfg.Player.AudioOutput {
		device = playback.NewBeepDevice(logger)
		defer device.Close()
	} else {
		logger.Info("Audio output disabled, playback endpoints drive session state only")
	}

	musicServer, err := server.NewMusicServer(cfg, logger, library, cat, session, device)
	if err != nil {
		logger.WithError(err).Fatal("Error creating music server")
	}

	if err := musicServer.ScanMusicLibrary(); err != nil {
		logger.WithError(err).Fatal("Error scanning music library")
	}

	if cfg.Music.ScanOnStartup {
		if count, err := library.CountTracks(); err != nil {
			logger.WithError(err).Warn("Could not get track count")
		} else if count == 0 {
			logger.Warn("No supported audio files found in music directory (mp3, wav and flac are accepted)")
		}
	}

	if device != nil {
		tracker := playback.NewTracker(session, device, logger, time.Duration(cfg.Player.PositionPollMs)*time.Millisecond)
		tracker.Start()
		defer tracker.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := musicServer.Start(ctx); err != nil {
		logger.WithError(err).Error("Server error")
	}
	musicServer.Shutdown()
}

// configureLogger applies the level, format and optional file output from the
// logging configuration.
func configureLogger(logger *logrus.Logger, cfg config.LoggingConfig) {
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger.WithError(err).Warn("Could not open log file, logging to stderr")
			return
		}
		logger.SetOutput(file)
	}
}
