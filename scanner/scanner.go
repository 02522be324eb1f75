// Package scanner walks the configured music folders, parses tags, fills
// the catalog store and populates the search index within one session.
package scanner

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
	"github.com/pkg/errors"

	"github.com/otomedia/oto/domain"
	"github.com/otomedia/oto/reading"
	"github.com/otomedia/oto/search"
	"github.com/otomedia/oto/storage"
)

var audioExtensions = map[string]bool{
	".mp3": true, ".m4a": true, ".ogg": true, ".oga": true,
	".flac": true, ".opus": true, ".wav": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".m4v": true,
}

type Scanner struct {
	settings domain.Settings
	store    *storage.Store
	manager  *search.Manager
	builder  *search.QueryBuilder
	docs     *search.DocumentBuilder
	reader   *reading.Service
}

func New(settings domain.Settings, store *storage.Store, manager *search.Manager,
	builder *search.QueryBuilder, reader *reading.Service) *Scanner {
	return &Scanner{
		settings: settings,
		store:    store,
		manager:  manager,
		builder:  builder,
		docs:     search.NewDocumentBuilder(settings),
		reader:   reader,
	}
}

// parsed is the raw tag payload handed from the parse workers to the
// single writer goroutine. Reading derivation happens on the writer side
// because the reading memo is owned by one goroutine per scan.
type parsed struct {
	path       string
	folder     domain.MusicFolder
	mediaType  domain.MediaType
	title      string
	titleSort  string
	artist     string
	artistSort string
	album      string
	albumSort  string
	composer   string
	genre      string
	year       int
	track      int
	disc       int
}

// Scan walks every folder path, upserts the catalog, indexes all six
// collections, prunes vanished files and rebuilds the genre aggregates.
func (s *Scanner) Scan(folderPaths []string) error {
	start := time.Now()
	s.reader.Clear()
	if err := s.manager.StartSession(); err != nil {
		return err
	}

	var total int
	for _, path := range folderPaths {
		folder, err := s.store.EnsureMusicFolder(path, filepath.Base(path))
		if err != nil {
			s.manager.EndSession()
			return err
		}
		n, err := s.scanFolder(*folder)
		if err != nil {
			s.manager.EndSession()
			return err
		}
		total += n
	}

	if err := s.prune(); err != nil {
		log.Printf("scanner: prune failed: %v", err)
	}
	if err := s.manager.EndSession(); err != nil {
		return err
	}
	if err := s.manager.RebuildGenreAggregates(s.builder, s.store); err != nil {
		log.Printf("scanner: genre aggregation failed: %v", err)
	}
	log.Printf("scanner: indexed %d files in %.2fs", total, time.Since(start).Seconds())
	return nil
}

func (s *Scanner) scanFolder(folder domain.MusicFolder) (int, error) {
	if _, err := os.Stat(folder.Path); err != nil {
		return 0, errors.Wrapf(err, "music folder %s", folder.Path)
	}

	filesChan := make(chan string, 100)
	parsedChan := make(chan *parsed, 100)
	var workers sync.WaitGroup

	go func() {
		defer close(filesChan)
		filepath.WalkDir(folder.Path, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if audioExtensions[ext] || videoExtensions[ext] {
				filesChan <- path
			}
			return nil
		})
	}()

	for i := 0; i < runtime.NumCPU(); i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for path := range filesChan {
				if p := parseFile(path, folder); p != nil {
					parsedChan <- p
				}
			}
		}()
	}
	go func() {
		workers.Wait()
		close(parsedChan)
	}()

	// Single writer: reading derivation, store upserts, index records
	// and the album/artist aggregation all happen here.
	agg := newAggregator(folder)
	count := 0
	for p := range parsedChan {
		m := s.toMediaFile(p)
		if err := s.store.UpsertMediaFile(m); err != nil {
			log.Printf("scanner: %s: %v", m.Path, err)
			continue
		}
		id, rec := s.docs.SongRecord(m)
		if err := s.manager.Index(search.CollectionSong, id, rec); err != nil {
			log.Printf("scanner: index song %s: %v", id, err)
		}
		agg.add(m)
		count++
	}
	if err := s.flushAggregates(agg); err != nil {
		return count, err
	}
	return count, nil
}

func parseFile(path string, folder domain.MusicFolder) *parsed {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	mediaType := domain.TypeMusic
	if videoExtensions[strings.ToLower(filepath.Ext(path))] {
		mediaType = domain.TypeVideo
	}

	p := &parsed{path: path, folder: folder, mediaType: mediaType}
	m, err := tag.ReadFrom(f)
	if err != nil {
		// keep the file with name-derived fields; unparseable tags are
		// common in the wild
		p.title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return p
	}

	p.title = m.Title()
	if p.title == "" {
		p.title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	p.artist = m.Artist()
	if albumArtist := m.AlbumArtist(); p.artist == "" && albumArtist != "" {
		p.artist = albumArtist
	}
	p.album = m.Album()
	p.composer = m.Composer()
	p.genre = m.Genre()
	p.year = m.Year()
	p.track, _ = m.Track()
	p.disc, _ = m.Disc()
	if raw := m.Raw(); raw != nil {
		p.titleSort, _ = raw["TSOT"].(string)
		p.artistSort, _ = raw["TSOP"].(string)
		p.albumSort, _ = raw["TSOA"].(string)
	}
	if mediaType == domain.TypeMusic {
		switch strings.ToLower(p.genre) {
		case "podcast":
			p.mediaType = domain.TypePodcast
		case "audiobook", "audio book":
			p.mediaType = domain.TypeAudiobook
		}
	}
	return p
}

func (s *Scanner) toMediaFile(p *parsed) *domain.MediaFile {
	artistSrc := p.artistSort
	if artistSrc == "" {
		artistSrc = p.artist
	}
	albumSrc := p.albumSort
	if albumSrc == "" {
		albumSrc = p.album
	}
	return &domain.MediaFile{
		Path:          p.path,
		Folder:        p.folder.Path,
		MediaType:     p.mediaType,
		Title:         p.title,
		TitleSort:     p.titleSort,
		Artist:        p.artist,
		ArtistSort:    p.artistSort,
		ArtistReading: s.reader.Reading(artistSrc),
		AlbumName:     p.album,
		AlbumSort:     p.albumSort,
		AlbumReading:  s.reader.Reading(albumSrc),
		Composer:      p.composer,
		ComposerSort:  s.reader.Reading(p.composer),
		Genre:         p.genre,
		Year:          p.year,
		TrackNumber:   p.track,
		DiscNumber:    p.disc,
	}
}

// aggregator collects the per-folder album and artist roll-ups while songs
// stream through the writer.
type aggregator struct {
	folder  domain.MusicFolder
	albums  map[string]*domain.Album     // name \x00 artist
	dirs    map[string]*domain.MediaFile // album directory path
	artists map[string]*domain.Artist    // artist name
	genres  map[string]bool
}

func newAggregator(folder domain.MusicFolder) *aggregator {
	return &aggregator{
		folder:  folder,
		albums:  map[string]*domain.Album{},
		dirs:    map[string]*domain.MediaFile{},
		artists: map[string]*domain.Artist{},
		genres:  map[string]bool{},
	}
}

func (a *aggregator) add(m *domain.MediaFile) {
	if m.Genre != "" {
		a.genres[m.Genre] = true
	}
	if m.AlbumName != "" {
		key := m.AlbumName + "\x00" + m.Artist
		al, ok := a.albums[key]
		if !ok {
			al = &domain.Album{
				Name:          m.AlbumName,
				NameSort:      m.AlbumSort,
				NameReading:   m.AlbumReading,
				Artist:        m.Artist,
				ArtistSort:    m.ArtistSort,
				ArtistReading: m.ArtistReading,
				Genre:         m.Genre,
				Year:          m.Year,
				FolderID:      a.folder.ID,
			}
			a.albums[key] = al
		}
		al.SongCount++

		dir := filepath.Dir(m.Path)
		if _, ok := a.dirs[dir]; !ok {
			a.dirs[dir] = &domain.MediaFile{
				Path:          dir,
				Folder:        a.folder.Path,
				MediaType:     domain.TypeAlbum,
				Artist:        m.Artist,
				ArtistReading: m.ArtistReading,
				AlbumName:     m.AlbumName,
				AlbumReading:  m.AlbumReading,
				Genre:         m.Genre,
			}
		}
	}
	if m.Artist != "" {
		if _, ok := a.artists[m.Artist]; !ok {
			a.artists[m.Artist] = &domain.Artist{
				Name:    m.Artist,
				Sort:    m.ArtistSort,
				Reading: m.ArtistReading,
			}
		}
	}
}

// flushAggregates upserts and indexes the roll-ups for one folder: the
// tag-derived albums and artists, the album and artist directories, and
// the genre spellings.
func (s *Scanner) flushAggregates(agg *aggregator) error {
	for _, al := range agg.albums {
		if err := s.store.UpsertAlbum(al); err != nil {
			log.Printf("scanner: %v", err)
			continue
		}
		id, rec := s.docs.AlbumRecord(al)
		if err := s.manager.Index(search.CollectionAlbumByID, id, rec); err != nil {
			log.Printf("scanner: index album %s: %v", id, err)
		}
	}
	for dir, m := range agg.dirs {
		if err := s.store.UpsertMediaFile(m); err != nil {
			log.Printf("scanner: %s: %v", dir, err)
			continue
		}
		id, rec := s.docs.AlbumFolderRecord(m)
		if err := s.manager.Index(search.CollectionAlbum, id, rec); err != nil {
			log.Printf("scanner: index album directory %s: %v", id, err)
		}

		// the album's parent directory stands in as the file-structure
		// artist entry
		parent := filepath.Dir(dir)
		if parent != agg.folder.Path && filepath.Dir(parent) != parent {
			artistDir := &domain.MediaFile{
				Path:          parent,
				Folder:        agg.folder.Path,
				MediaType:     domain.TypeDirectory,
				Artist:        m.Artist,
				ArtistReading: m.ArtistReading,
			}
			if err := s.store.UpsertMediaFile(artistDir); err == nil {
				aid, arec := s.docs.ArtistFolderRecord(artistDir)
				if err := s.manager.Index(search.CollectionArtist, aid, arec); err != nil {
					log.Printf("scanner: index artist directory %s: %v", aid, err)
				}
			}
		}
	}
	for _, ar := range agg.artists {
		ar.IndexName = s.reader.IndexableName(ar.Name, ar.Sort, ar.Reading)
		if err := s.store.UpsertArtist(ar); err != nil {
			log.Printf("scanner: %v", err)
			continue
		}
		if err := s.store.LinkArtistFolder(ar.ID, agg.folder.ID); err != nil {
			log.Printf("scanner: %v", err)
		}
		folderIDs, err := s.store.ArtistFolderIDs(ar.ID)
		if err != nil {
			log.Printf("scanner: %v", err)
		}
		id, rec := s.docs.ArtistRecord(ar, folderIDs)
		if err := s.manager.Index(search.CollectionArtistByID, id, rec); err != nil {
			log.Printf("scanner: index artist %s: %v", id, err)
		}
	}
	for name := range agg.genres {
		id, rec := s.docs.GenreRecord(name)
		if err := s.manager.Index(search.CollectionGenre, id, rec); err != nil {
			log.Printf("scanner: index genre %q: %v", name, err)
		}
	}
	return nil
}

// prune drops catalog rows whose files vanished and removes their index
// records from every collection they may appear in.
func (s *Scanner) prune() error {
	removed, err := s.store.PruneMissing()
	if err != nil {
		return err
	}
	for _, id := range removed {
		sid := strconv.Itoa(id)
		for _, c := range []search.Collection{
			search.CollectionSong, search.CollectionAlbum, search.CollectionArtist,
		} {
			if err := s.manager.Delete(c, sid); err != nil {
				log.Printf("scanner: delete %s/%s: %v", c, sid, err)
			}
		}
	}
	if len(removed) > 0 {
		log.Printf("scanner: pruned %d vanished files", len(removed))
	}
	return nil
}
