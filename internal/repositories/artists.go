package repositories

import (
	"database/sql"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/naestech/newNoise/internal/models"
	"github.com/naestech/newNoise/internal/shared"
)

// ArtistRepository persists [models.TrackedArtist] rows.
type ArtistRepository struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// NewArtistRepository creates a new [ArtistRepository] with the given database connection
func NewArtistRepository(db *sql.DB, logger *log.Logger) *ArtistRepository {
	return &ArtistRepository{db: db, logger: logger, now: time.Now}
}

// Add inserts the artist if its id is not already present.
//
// Returns true only when a new row was written. An existing id, invalid input, or a storage failure all return false.
func (r *ArtistRepository) Add(id, name, url string) bool {
	artist := models.TrackedArtist{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name), URL: url}
	if err := artist.Validate(); err != nil {
		r.logger.Warn("refusing to add artist", "id", id, "name", name, "error", err)
		return false
	}

	query := `
		INSERT OR IGNORE INTO artists (id, name, url, date_added, name_key) VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query, artist.ID, artist.Name, artist.URL, r.now().UTC(), shared.NormalizeName(artist.Name))
	if err != nil {
		logStorageError(r.logger, "add", err, "id", artist.ID)
		return false
	}

	inserted, err := rowsChanged(result)
	if err != nil {
		logStorageError(r.logger, "add", err, "id", artist.ID)
		return false
	}

	if inserted {
		r.logger.Debug("artist added", "id", artist.ID, "name", artist.Name)
	}
	return inserted
}

// Remove deletes the artist with id. Returns true iff a row existed and was deleted.
func (r *ArtistRepository) Remove(id string) bool {
	result, err := r.db.Exec("DELETE FROM artists WHERE id = ?", id)
	if err != nil {
		logStorageError(r.logger, "remove", err, "id", id)
		return false
	}

	removed, err := rowsChanged(result)
	if err != nil {
		logStorageError(r.logger, "remove", err, "id", id)
		return false
	}
	return removed
}

// List returns every tracked artist in insertion order.
func (r *ArtistRepository) List() []models.TrackedArtist {
	query := `
		SELECT id, name, url, date_added
		FROM artists
		ORDER BY date_added ASC, rowid ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		logStorageError(r.logger, "list", err)
		return nil
	}
	defer rows.Close()

	var artists []models.TrackedArtist
	for rows.Next() {
		var (
			artist models.TrackedArtist
			url    sql.NullString
		)
		if err := rows.Scan(&artist.ID, &artist.Name, &url, &artist.AddedAt); err != nil {
			logStorageError(r.logger, "list", err)
			return nil
		}
		artist.URL = url.String
		artists = append(artists, artist)
	}

	if err := rows.Err(); err != nil {
		logStorageError(r.logger, "list", err)
		return nil
	}

	return artists
}

// IDs returns the ids of every tracked artist in insertion order.
func (r *ArtistRepository) IDs() []string {
	rows, err := r.db.Query("SELECT id FROM artists ORDER BY date_added ASC, rowid ASC")
	if err != nil {
		logStorageError(r.logger, "list ids", err)
		return nil
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			logStorageError(r.logger, "list ids", err)
			return nil
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		logStorageError(r.logger, "list ids", err)
		return nil
	}
	return ids
}

// FindByName looks up a tracked artist by case- and whitespace-insensitive name.
//
// Returns false when no artist matches or the lookup fails.
func (r *ArtistRepository) FindByName(name string) (models.TrackedArtist, bool) {
	key := shared.NormalizeName(name)
	if key == "" {
		return models.TrackedArtist{}, false
	}

	query := `
		SELECT id, name, url, date_added
		FROM artists
		WHERE name_key = ?
		ORDER BY date_added ASC, rowid ASC
		LIMIT 1
	`

	var (
		artist models.TrackedArtist
		url    sql.NullString
	)
	err := r.db.QueryRow(query, key).Scan(&artist.ID, &artist.Name, &url, &artist.AddedAt)
	if isNotFound(err) {
		return models.TrackedArtist{}, false
	}
	if err != nil {
		logStorageError(r.logger, "find", err, "name", name)
		return models.TrackedArtist{}, false
	}

	artist.URL = url.String
	return artist, true
}

// Count returns the number of tracked artists, or 0 on failure.
func (r *ArtistRepository) Count() int {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM artists").Scan(&n); err != nil {
		logStorageError(r.logger, "count", err)
		return 0
	}
	return n
}
