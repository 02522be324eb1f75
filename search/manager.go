package search

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/pkg/errors"

	"github.com/otomedia/oto/domain"
)

// Index directory versioning. All three version tokens are part of the
// directory name, so any change opens a fresh set of indexes and the stale
// ones are swept on the next session.
const (
	productToken  = "oto"
	indexVersion  = 1 // bump when the analysis chains change
	schemaVersion = 1 // bump when field names or mappings change
	recordVersion = 1 // bump when the record builders change field content
)

const batchFlushSize = 1000

// GenreWriter receives the rebuilt genre aggregates after a scan session.
type GenreWriter interface {
	ReplaceGenres(genres []domain.Genre) error
}

// Manager owns the per-collection bleve indexes: open/create, session
// batching, searcher checkout and stale-directory cleanup. Writes happen
// only inside a session; searchers see the new records once the session
// ends.
type Manager struct {
	root     string
	analyzer *AnalyzerFactory

	mu        sync.RWMutex
	indexes   map[Collection]bleve.Index
	batches   map[Collection]*bleve.Batch
	inSession bool
}

func NewManager(root string, analyzer *AnalyzerFactory) *Manager {
	return &Manager{
		root:     root,
		analyzer: analyzer,
		indexes:  map[Collection]bleve.Index{},
		batches:  map[Collection]*bleve.Batch{},
	}
}

// dir is the current versioned index directory.
func (m *Manager) dir() string {
	return filepath.Join(m.root, fmt.Sprintf("%s-index-%d.%d.%d", productToken, indexVersion, schemaVersion, recordVersion))
}

func (m *Manager) collectionPath(c Collection) string {
	return filepath.Join(m.dir(), c.String())
}

// open returns the collection index, creating it on first use when create
// is set. Callers hold m.mu.
func (m *Manager) open(c Collection, create bool) (bleve.Index, error) {
	if idx, ok := m.indexes[c]; ok {
		return idx, nil
	}
	path := m.collectionPath(c)
	if _, err := os.Stat(path); err == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "open index %s", c)
		}
		m.indexes[c] = idx
		return idx, nil
	}
	if !create {
		return nil, nil
	}
	im, err := m.analyzer.NewIndexMapping(c)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(m.dir(), 0o755); err != nil {
		return nil, errors.Wrap(err, "create index directory")
	}
	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, errors.Wrapf(err, "create index %s", c)
	}
	m.indexes[c] = idx
	return idx, nil
}

// StartSession opens every collection for writing and sweeps stale index
// directories left behind by older versions.
func (m *Manager) StartSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inSession {
		return errors.New("index session already open")
	}
	m.sweepStaleDirs()
	for _, c := range Collections() {
		idx, err := m.open(c, true)
		if err != nil {
			return err
		}
		m.batches[c] = idx.NewBatch()
	}
	m.inSession = true
	return nil
}

// Index queues one record. The batch flushes automatically once it grows
// past the flush threshold.
func (m *Manager) Index(c Collection, id string, rec map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inSession {
		return errors.New("no index session open")
	}
	batch := m.batches[c]
	if err := batch.Index(id, rec); err != nil {
		return errors.Wrapf(err, "index %s/%s", c, id)
	}
	return m.maybeFlush(c)
}

// Delete queues removal of one record.
func (m *Manager) Delete(c Collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inSession {
		return errors.New("no index session open")
	}
	m.batches[c].Delete(id)
	return m.maybeFlush(c)
}

func (m *Manager) maybeFlush(c Collection) error {
	batch := m.batches[c]
	if batch.Size() < batchFlushSize {
		return nil
	}
	if err := m.indexes[c].Batch(batch); err != nil {
		return errors.Wrapf(err, "flush batch %s", c)
	}
	m.batches[c] = m.indexes[c].NewBatch()
	return nil
}

// EndSession flushes every pending batch. Index errors in one collection
// do not block flushing the rest.
func (m *Manager) EndSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inSession {
		return errors.New("no index session open")
	}
	var firstErr error
	for _, c := range Collections() {
		batch := m.batches[c]
		if batch.Size() == 0 {
			continue
		}
		if err := m.indexes[c].Batch(batch); err != nil {
			log.Printf("search: flush %s failed: %v", c, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	m.batches = map[Collection]*bleve.Batch{}
	m.inSession = false
	return firstErr
}

// Searcher returns the collection index for reading, or ok=false when the
// collection has never been built. Callers treat a missing index as an
// empty result, not an error.
func (m *Manager) Searcher(c Collection) (bleve.Index, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, err := m.open(c, false)
	if err != nil {
		log.Printf("search: open %s for reading failed: %v", c, err)
		return nil, false
	}
	return idx, idx != nil
}

// RebuildGenreAggregates recomputes song and album counts for every genre
// spelling in the genre collection and hands the result to the writer.
// Run after EndSession so the counts see the freshly flushed records.
func (m *Manager) RebuildGenreAggregates(qb *QueryBuilder, writer GenreWriter) error {
	genreIdx, ok := m.Searcher(CollectionGenre)
	if !ok {
		return writer.ReplaceGenres(nil)
	}
	songIdx, haveSongs := m.Searcher(CollectionSong)
	albumIdx, haveAlbums := m.Searcher(CollectionAlbum)

	count := func(idx bleve.Index, name string) int {
		gq, ok := qb.GenreQuery([]string{name})
		if !ok {
			return 0
		}
		res, err := idx.Search(bleve.NewSearchRequestOptions(gq, 0, 0, false))
		if err != nil {
			log.Printf("search: genre count for %q failed: %v", name, err)
			return 0
		}
		return int(res.Total)
	}

	var genres []domain.Genre
	for offset := 0; ; {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), 500, offset, false)
		req.Fields = []string{FieldGenreKey}
		res, err := genreIdx.Search(req)
		if err != nil {
			return errors.Wrap(err, "enumerate genres")
		}
		for _, hit := range res.Hits {
			name, _ := hit.Fields[FieldGenreKey].(string)
			if name == "" {
				continue
			}
			g := domain.Genre{Name: name}
			if haveSongs {
				g.SongCount = count(songIdx, name)
			}
			if haveAlbums {
				g.AlbumCount = count(albumIdx, name)
			}
			genres = append(genres, g)
		}
		offset += len(res.Hits)
		if len(res.Hits) == 0 || offset >= int(res.Total) {
			break
		}
	}
	return writer.ReplaceGenres(genres)
}

// Close releases every open index.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for c, idx := range m.indexes {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "close index %s", c)
		}
	}
	m.indexes = map[Collection]bleve.Index{}
	return firstErr
}

// sweepStaleDirs removes versioned index directories other than the
// current one. Callers hold m.mu.
func (m *Manager) sweepStaleDirs() {
	pattern := filepath.Join(m.root, productToken+"-index-*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return
	}
	current := m.dir()
	for _, match := range matches {
		if match == current {
			continue
		}
		log.Printf("search: removing stale index directory %s", match)
		if err := os.RemoveAll(match); err != nil {
			log.Printf("search: remove %s failed: %v", match, err)
		}
	}
}
