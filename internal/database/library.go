package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/juanGallardor/ReproductorMusica/pkg/models"
)

// Library is the SQLite-backed index of every audio file known to the
// application. Playlists reference tracks by id; the library is where those
// ids resolve to files on disk. It is safe for concurrent use because the
// underlying *sql.DB is concurrency-safe.
type Library struct {
	conn   *sql.DB
	logger *logrus.Logger

	insertStmt    *sql.Stmt
	updateStmt    *sql.Stmt
	getByIDStmt   *sql.Stmt
	existsStmt    *sql.Stmt
	removeStmt    *sql.Stmt
	searchStmt    *sql.Stmt
	playCountStmt *sql.Stmt
}

// NewLibrary opens (or creates) the library database at the provided path and
// ensures the schema exists. It applies WAL and cache pragmas suited to a
// single-process SQLite workload. The caller should Close() it when finished.
func NewLibrary(dbPath string, logger *logrus.Logger) (*Library, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works better with few connections.
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=2000;",
		"PRAGMA temp_store=memory;",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	lib := &Library{
		conn:   conn,
		logger: logger,
	}

	if err := lib.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := lib.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.WithField("db_path", dbPath).Info("Track library initialized")
	return lib, nil
}

// createTables creates the tracks table and indices if they do not already
// exist. This is idempotent and safe to call multiple times.
func (lib *Library) createTables() error {
	tracksTable := `
	CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT NOT NULL,
		year INTEGER DEFAULT 0,
		duration INTEGER DEFAULT 0,
		filename TEXT NOT NULL,
		file_path TEXT NOT NULL UNIQUE,
		file_size INTEGER NOT NULL,
		format TEXT NOT NULL,
		has_album_art BOOLEAN DEFAULT FALSE,
		album_art_id TEXT,
		play_count INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	indices := []string{
		"CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks(artist);",
		"CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(album);",
		"CREATE INDEX IF NOT EXISTS idx_tracks_search ON tracks(title, artist, album);",
		"CREATE INDEX IF NOT EXISTS idx_tracks_file_path ON tracks(file_path);",
	}

	if _, err := lib.conn.Exec(tracksTable); err != nil {
		return err
	}
	for _, index := range indices {
		if _, err := lib.conn.Exec(index); err != nil {
			return err
		}
	}
	return nil
}

// prepareStatements prepares the hot-path SQL statements.
func (lib *Library) prepareStatements() error {
	var err error

	lib.insertStmt, err = lib.conn.Prepare(`
		INSERT INTO tracks (id, title, artist, album, year, duration, filename, file_path, file_size, format, has_album_art, album_art_id, play_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	lib.updateStmt, err = lib.conn.Prepare(`
		UPDATE tracks SET title = ?, artist = ?, album = ?, year = ?, duration = ?, filename = ?, file_size = ?, format = ?, has_album_art = ?, album_art_id = ?
		WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}

	lib.getByIDStmt, err = lib.conn.Prepare(`
		SELECT id, title, artist, album, year, duration, filename, file_path, file_size, format, has_album_art, album_art_id, play_count
		FROM tracks WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get by id statement: %w", err)
	}

	lib.existsStmt, err = lib.conn.Prepare(`
		SELECT COUNT(*) FROM tracks WHERE file_path = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare exists statement: %w", err)
	}

	lib.removeStmt, err = lib.conn.Prepare(`
		DELETE FROM tracks WHERE file_path = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare remove statement: %w", err)
	}

	lib.searchStmt, err = lib.conn.Prepare(`
		SELECT id, title, artist, album, year, duration, filename, file_path, file_size, format, has_album_art, album_art_id, play_count
		FROM tracks
		WHERE title LIKE ? OR artist LIKE ? OR album LIKE ?
		ORDER BY artist, album, title`)
	if err != nil {
		return fmt.Errorf("failed to prepare search statement: %w", err)
	}

	lib.playCountStmt, err = lib.conn.Prepare(`
		UPDATE tracks SET play_count = play_count + 1 WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare play count statement: %w", err)
	}

	return nil
}

// InsertTrack inserts a new track or, when a row with the same file path
// already exists, updates that row keeping its id. It returns the id the
// track ended up with.
func (lib *Library) InsertTrack(track models.Track) (string, error) {
	var existingID string
	err := lib.conn.QueryRow("SELECT id FROM tracks WHERE file_path = ?", track.FilePath).Scan(&existingID)
	if err == nil {
		_, err = lib.updateStmt.Exec(
			track.Title, track.Artist, track.Album, track.Year, track.Duration,
			track.Filename, track.FileSize, track.Format, track.HasAlbumArt, track.AlbumArtID,
			existingID)
		if err != nil {
			lib.logger.WithError(err).WithField("track_id", existingID).Error("Failed to update existing track")
		}
		return existingID, err
	}

	_, err = lib.insertStmt.Exec(
		track.ID, track.Title, track.Artist, track.Album, track.Year, track.Duration,
		track.Filename, track.FilePath, track.FileSize, track.Format,
		track.HasAlbumArt, track.AlbumArtID, track.PlayCount)
	if err != nil {
		lib.logger.WithError(err).WithField("file_path", track.FilePath).Error("Failed to insert new track")
		return "", err
	}
	return track.ID, nil
}

// GetAllTracks returns all tracks ordered by artist/album/title.
func (lib *Library) GetAllTracks() ([]models.Track, error) {
	rows, err := lib.conn.Query(`
		SELECT id, title, artist, album, year, duration, filename, file_path, file_size, format, has_album_art, album_art_id, play_count
		FROM tracks
		ORDER BY artist, album, title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// GetTrackByID returns a single track by its id.
func (lib *Library) GetTrackByID(id string) (*models.Track, error) {
	track, err := scanTrackRow(lib.getByIDStmt.QueryRow(id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("track %s not found", id)
		}
		lib.logger.WithError(err).WithField("track_id", id).Error("Failed to get track by id")
		return nil, err
	}
	return track, nil
}

// GetTrackByPath returns a single track by its file path.
func (lib *Library) GetTrackByPath(filePath string) (*models.Track, error) {
	track, err := scanTrackRow(lib.conn.QueryRow(`
		SELECT id, title, artist, album, year, duration, filename, file_path, file_size, format, has_album_art, album_art_id, play_count
		FROM tracks WHERE file_path = ?`, filePath))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no track at %s", filePath)
		}
		return nil, err
	}
	return track, nil
}

// SearchTracks performs a LIKE-based search over title, artist and album.
func (lib *Library) SearchTracks(query string) ([]models.Track, error) {
	pattern := "%" + query + "%"
	rows, err := lib.searchStmt.Query(pattern, pattern, pattern)
	if err != nil {
		lib.logger.WithError(err).WithField("query", query).Error("Failed to search tracks")
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// RemoveTrackByPath deletes the track row identified by its file path.
func (lib *Library) RemoveTrackByPath(filePath string) error {
	_, err := lib.removeStmt.Exec(filePath)
	if err != nil {
		lib.logger.WithError(err).WithField("file_path", filePath).Error("Failed to remove track by path")
	}
	return err
}

// RemoveTrack deletes the track row with the given id.
func (lib *Library) RemoveTrack(id string) error {
	result, err := lib.conn.Exec("DELETE FROM tracks WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("track %s not found", id)
	}
	return nil
}

// TrackExists reports whether a track exists with the given file path.
func (lib *Library) TrackExists(filePath string) (bool, error) {
	var count int
	if err := lib.existsStmt.QueryRow(filePath).Scan(&count); err != nil {
		lib.logger.WithError(err).WithField("file_path", filePath).Error("Failed to check if track exists")
		return false, err
	}
	return count > 0, nil
}

// IncrementPlayCount bumps the play counter of a track.
func (lib *Library) IncrementPlayCount(id string) error {
	_, err := lib.playCountStmt.Exec(id)
	return err
}

// CountTracks returns the number of tracks in the library.
func (lib *Library) CountTracks() (int, error) {
	var count int
	err := lib.conn.QueryRow("SELECT COUNT(*) FROM tracks").Scan(&count)
	return count, err
}

// Close closes the prepared statements and the database connection.
func (lib *Library) Close() error {
	statements := []*sql.Stmt{
		lib.insertStmt,
		lib.updateStmt,
		lib.getByIDStmt,
		lib.existsStmt,
		lib.removeStmt,
		lib.searchStmt,
		lib.playCountStmt,
	}
	for _, stmt := range statements {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				lib.logger.WithError(err).Error("Failed to close prepared statement")
			}
		}
	}

	if lib.conn != nil {
		return lib.conn.Close()
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrack(row rowScanner) (*models.Track, error) {
	var track models.Track
	var albumArtID sql.NullString
	err := row.Scan(&track.ID, &track.Title, &track.Artist, &track.Album,
		&track.Year, &track.Duration, &track.Filename, &track.FilePath,
		&track.FileSize, &track.Format, &track.HasAlbumArt, &albumArtID, &track.PlayCount)
	if err != nil {
		return nil, err
	}
	if albumArtID.Valid {
		track.AlbumArtID = albumArtID.String
	}
	return &track, nil
}

func scanTrackRow(row *sql.Row) (*models.Track, error) {
	return scanTrack(row)
}

// scanTrackRows collects a standard track result set. Callers must have
// already deferred rows.Close().
func scanTrackRows(rows *sql.Rows) ([]models.Track, error) {
	var tracks []models.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, *track)
	}
	return tracks, rows.Err()
}
