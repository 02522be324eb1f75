// Package storage is the sqlite catalog store: scanned media rows, the
// tag-derived album/artist entities, configured music folders and the
// derived genre aggregates.
package storage

import (
	"database/sql"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/otomedia/oto/domain"
)

type Store struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS media_file(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT UNIQUE NOT NULL,
		folder TEXT NOT NULL,
		media_type TEXT NOT NULL,
		title TEXT,
		title_sort TEXT,
		artist TEXT,
		artist_sort TEXT,
		artist_reading TEXT,
		album_name TEXT,
		album_sort TEXT,
		album_reading TEXT,
		composer TEXT,
		composer_sort TEXT,
		genre TEXT,
		year INTEGER,
		track_number INTEGER,
		disc_number INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS album(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		name_sort TEXT,
		name_reading TEXT,
		artist TEXT,
		artist_sort TEXT,
		artist_reading TEXT,
		genre TEXT,
		year INTEGER,
		folder_id INTEGER,
		song_count INTEGER DEFAULT 0,
		UNIQUE(name, artist)
	)`,
	`CREATE TABLE IF NOT EXISTS artist(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		sort TEXT,
		reading TEXT,
		index_name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS artist_folder(
		artist_id INTEGER NOT NULL,
		folder_id INTEGER NOT NULL,
		PRIMARY KEY(artist_id, folder_id)
	)`,
	`CREATE TABLE IF NOT EXISTS music_folder(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT UNIQUE NOT NULL,
		name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS genre(
		name TEXT PRIMARY KEY,
		song_count INTEGER DEFAULT 0,
		album_count INTEGER DEFAULT 0
	)`,
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog database")
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "create catalog schema")
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// UpsertMediaFile inserts or updates by path and fills in the row id.
func (s *Store) UpsertMediaFile(m *domain.MediaFile) error {
	_, err := s.db.Exec(`INSERT INTO media_file
		(path, folder, media_type, title, title_sort, artist, artist_sort, artist_reading,
		 album_name, album_sort, album_reading, composer, composer_sort, genre, year,
		 track_number, disc_number)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
		 folder=excluded.folder, media_type=excluded.media_type, title=excluded.title,
		 title_sort=excluded.title_sort, artist=excluded.artist, artist_sort=excluded.artist_sort,
		 artist_reading=excluded.artist_reading, album_name=excluded.album_name,
		 album_sort=excluded.album_sort, album_reading=excluded.album_reading,
		 composer=excluded.composer, composer_sort=excluded.composer_sort,
		 genre=excluded.genre, year=excluded.year,
		 track_number=excluded.track_number, disc_number=excluded.disc_number`,
		m.Path, m.Folder, string(m.MediaType), m.Title, m.TitleSort, m.Artist, m.ArtistSort,
		m.ArtistReading, m.AlbumName, m.AlbumSort, m.AlbumReading, m.Composer, m.ComposerSort,
		m.Genre, m.Year, m.TrackNumber, m.DiscNumber)
	if err != nil {
		return errors.Wrapf(err, "upsert media file %s", m.Path)
	}
	return s.db.QueryRow("SELECT id FROM media_file WHERE path = ?", m.Path).Scan(&m.ID)
}

// UpsertAlbum inserts or updates by (name, artist) and fills in the row id.
func (s *Store) UpsertAlbum(a *domain.Album) error {
	_, err := s.db.Exec(`INSERT INTO album
		(name, name_sort, name_reading, artist, artist_sort, artist_reading, genre, year, folder_id, song_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name, artist) DO UPDATE SET
		 name_sort=excluded.name_sort, name_reading=excluded.name_reading,
		 artist_sort=excluded.artist_sort, artist_reading=excluded.artist_reading,
		 genre=excluded.genre, year=excluded.year, folder_id=excluded.folder_id,
		 song_count=excluded.song_count`,
		a.Name, a.NameSort, a.NameReading, a.Artist, a.ArtistSort, a.ArtistReading,
		a.Genre, a.Year, a.FolderID, a.SongCount)
	if err != nil {
		return errors.Wrapf(err, "upsert album %s", a.Name)
	}
	return s.db.QueryRow("SELECT id FROM album WHERE name = ? AND artist = ?", a.Name, a.Artist).Scan(&a.ID)
}

// UpsertArtist inserts or updates by name and fills in the row id.
func (s *Store) UpsertArtist(a *domain.Artist) error {
	_, err := s.db.Exec(`INSERT INTO artist (name, sort, reading, index_name) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET sort=excluded.sort, reading=excluded.reading,
		 index_name=excluded.index_name`,
		a.Name, a.Sort, a.Reading, a.IndexName)
	if err != nil {
		return errors.Wrapf(err, "upsert artist %s", a.Name)
	}
	return s.db.QueryRow("SELECT id FROM artist WHERE name = ?", a.Name).Scan(&a.ID)
}

// LinkArtistFolder records that the artist has songs under the folder.
func (s *Store) LinkArtistFolder(artistID, folderID int) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO artist_folder (artist_id, folder_id) VALUES (?, ?)",
		artistID, folderID)
	return errors.Wrap(err, "link artist folder")
}

// ArtistFolderIDs lists the content roots the artist appears under.
func (s *Store) ArtistFolderIDs(artistID int) ([]int, error) {
	rows, err := s.db.Query("SELECT folder_id FROM artist_folder WHERE artist_id = ?", artistID)
	if err != nil {
		return nil, errors.Wrap(err, "query artist folders")
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const mediaFileColumns = `id, path, folder, media_type, title, title_sort, artist, artist_sort,
	artist_reading, album_name, album_sort, album_reading, composer, composer_sort, genre,
	year, track_number, disc_number`

func scanMediaFile(row interface{ Scan(...interface{}) error }) (*domain.MediaFile, error) {
	var m domain.MediaFile
	var mt string
	err := row.Scan(&m.ID, &m.Path, &m.Folder, &mt, &m.Title, &m.TitleSort, &m.Artist,
		&m.ArtistSort, &m.ArtistReading, &m.AlbumName, &m.AlbumSort, &m.AlbumReading,
		&m.Composer, &m.ComposerSort, &m.Genre, &m.Year, &m.TrackNumber, &m.DiscNumber)
	if err != nil {
		return nil, err
	}
	m.MediaType = domain.MediaType(mt)
	return &m, nil
}

// MediaFileByID returns the row or (nil, nil) when it no longer exists.
func (s *Store) MediaFileByID(id int) (*domain.MediaFile, error) {
	m, err := scanMediaFile(s.db.QueryRow(
		"SELECT "+mediaFileColumns+" FROM media_file WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query media file %d", id)
	}
	return m, nil
}

// AlbumByID returns the row or (nil, nil) when it no longer exists.
func (s *Store) AlbumByID(id int) (*domain.Album, error) {
	var a domain.Album
	err := s.db.QueryRow(`SELECT id, name, name_sort, name_reading, artist, artist_sort,
		artist_reading, genre, year, folder_id, song_count FROM album WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.NameSort, &a.NameReading, &a.Artist, &a.ArtistSort,
			&a.ArtistReading, &a.Genre, &a.Year, &a.FolderID, &a.SongCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query album %d", id)
	}
	return &a, nil
}

// ArtistByID returns the row or (nil, nil) when it no longer exists.
func (s *Store) ArtistByID(id int) (*domain.Artist, error) {
	var a domain.Artist
	err := s.db.QueryRow("SELECT id, name, sort, reading, index_name FROM artist WHERE id = ?", id).
		Scan(&a.ID, &a.Name, &a.Sort, &a.Reading, &a.IndexName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query artist %d", id)
	}
	return &a, nil
}

// EnsureMusicFolder registers a content root, returning the existing row
// when the path is already configured.
func (s *Store) EnsureMusicFolder(path, name string) (*domain.MusicFolder, error) {
	if _, err := s.db.Exec(`INSERT INTO music_folder (path, name) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET name=excluded.name`, path, name); err != nil {
		return nil, errors.Wrapf(err, "register music folder %s", path)
	}
	var f domain.MusicFolder
	err := s.db.QueryRow("SELECT id, path, name FROM music_folder WHERE path = ?", path).
		Scan(&f.ID, &f.Path, &f.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "query music folder %s", path)
	}
	return &f, nil
}

// MusicFolders lists every configured content root.
func (s *Store) MusicFolders() ([]domain.MusicFolder, error) {
	rows, err := s.db.Query("SELECT id, path, name FROM music_folder ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "query music folders")
	}
	defer rows.Close()
	var folders []domain.MusicFolder
	for rows.Next() {
		var f domain.MusicFolder
		if err := rows.Scan(&f.ID, &f.Path, &f.Name); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// AllMediaFilePaths lists every scanned path with its row id, for pruning.
func (s *Store) AllMediaFilePaths() (map[string]int, error) {
	rows, err := s.db.Query("SELECT id, path FROM media_file")
	if err != nil {
		return nil, errors.Wrap(err, "query media file paths")
	}
	defer rows.Close()
	paths := map[string]int{}
	for rows.Next() {
		var id int
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, err
		}
		paths[path] = id
	}
	return paths, rows.Err()
}

// PruneMissing deletes rows whose path no longer exists on disk and
// returns the removed ids so the index records can be deleted too.
func (s *Store) PruneMissing() ([]int, error) {
	paths, err := s.AllMediaFilePaths()
	if err != nil {
		return nil, err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "begin prune")
	}
	stmt, err := tx.Prepare("DELETE FROM media_file WHERE id = ?")
	if err != nil {
		tx.Rollback()
		return nil, errors.Wrap(err, "prepare prune")
	}
	defer stmt.Close()
	var removed []int
	for path, id := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if _, err := stmt.Exec(id); err == nil {
				removed = append(removed, id)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit prune")
	}
	return removed, nil
}

// ReplaceGenres swaps in the freshly aggregated genre rows as a full set.
func (s *Store) ReplaceGenres(genres []domain.Genre) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin genre replace")
	}
	if _, err := tx.Exec("DELETE FROM genre"); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "clear genres")
	}
	stmt, err := tx.Prepare("INSERT INTO genre (name, song_count, album_count) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "prepare genre insert")
	}
	defer stmt.Close()
	for _, g := range genres {
		if _, err := stmt.Exec(g.Name, g.SongCount, g.AlbumCount); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "insert genre %s", g.Name)
		}
	}
	return tx.Commit()
}

// Genres lists the aggregates from the last rebuild.
func (s *Store) Genres() ([]domain.Genre, error) {
	rows, err := s.db.Query("SELECT name, song_count, album_count FROM genre ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "query genres")
	}
	defer rows.Close()
	var genres []domain.Genre
	for rows.Next() {
		var g domain.Genre
		if err := rows.Scan(&g.Name, &g.SongCount, &g.AlbumCount); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}
