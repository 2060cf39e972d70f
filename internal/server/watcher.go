package server

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// startFileWatcher begins monitoring the music folder recursively so the
// library stays in sync with the filesystem.
func (ms *MusicServer) startFileWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	ms.watcher = watcher

	go ms.watchFiles()

	if err := ms.addDirectoryToWatcher(ms.config.Music.LibraryPath); err != nil {
		return err
	}

	ms.logger.WithField("library_path", ms.config.Music.LibraryPath).Info("File watcher started")
	return nil
}

// addDirectoryToWatcher walks dir adding every subdirectory to the watcher.
func (ms *MusicServer) addDirectoryToWatcher(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return ms.watcher.Add(path)
		}
		return nil
	})
}

// watchFiles drains watcher channels and dispatches events.
func (ms *MusicServer) watchFiles() {
	for {
		select {
		case event, ok := <-ms.watcher.Events:
			if !ok {
				return
			}
			ms.handleFileEvent(event)

		case err, ok := <-ms.watcher.Errors:
			if !ok {
				return
			}
			ms.logger.WithError(err).Error("File watcher error")
		}
	}
}

// handleFileEvent filters noise and delegates create/remove actions.
func (ms *MusicServer) handleFileEvent(event fsnotify.Event) {
	fileName := filepath.Base(event.Name)
	if strings.HasPrefix(fileName, ".") || strings.HasSuffix(fileName, ".tmp") {
		return
	}

	isAudioFile := ms.extractor.IsAudioFile(event.Name)

	switch {
	case event.Has(fsnotify.Create) && isAudioFile:
		// Give the writer time to finish before reading metadata.
		go func(name string) {
			time.Sleep(500 * time.Millisecond)
			ms.handleNewFile(name)
		}(event.Name)

	case event.Has(fsnotify.Remove) && isAudioFile:
		go ms.handleRemovedFile(event.Name)

	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			ms.watcher.Add(event.Name)
			ms.logger.WithField("directory", event.Name).Info("Watching new directory")
		}
	}
}

// handleNewFile indexes an audio file that appeared in the music folder.
func (ms *MusicServer) handleNewFile(filePath string) {
	ms.logger.WithField("file_path", filePath).Info("New audio file detected")

	exists, err := ms.library.TrackExists(filePath)
	if err != nil {
		ms.logger.WithError(err).WithField("file_path", filePath).Error("Error checking if track exists")
		return
	}
	if exists {
		ms.logger.WithField("file_path", filePath).Debug("Track already indexed")
		return
	}

	track, err := ms.extractor.ExtractFromFile(filePath)
	if err != nil {
		ms.logger.WithError(err).WithField("file_path", filePath).Error("Error extracting metadata")
		return
	}

	id, err := ms.library.InsertTrack(track)
	if err != nil {
		ms.logger.WithError(err).Error("Error inserting new track into library")
		return
	}
	ms.trackCache.Clear()

	ms.logger.WithFields(logrus.Fields{
		"artist": track.Artist,
		"title":  track.Title,
		"album":  track.Album,
		"id":     id,
	}).Info("Added new track")
}

// handleRemovedFile drops library rows for audio files deleted on disk.
func (ms *MusicServer) handleRemovedFile(filePath string) {
	ms.logger.WithField("file_path", filePath).Info("Audio file removed")

	if err := ms.library.RemoveTrackByPath(filePath); err != nil {
		ms.logger.WithError(err).WithField("file_path", filePath).Error("Error removing track from library")
		return
	}
	ms.trackCache.Clear()

	ms.logger.WithField("file_path", filePath).Info("Removed track from library")
}

// stopFileWatcher closes the watcher. Safe to call more than once.
func (ms *MusicServer) stopFileWatcher() {
	if ms.watcher != nil {
		ms.watcher.Close()
		ms.watcher = nil
	}
}
