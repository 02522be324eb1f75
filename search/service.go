package search

import (
	"log"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/pkg/errors"

	"github.com/otomedia/oto/domain"
)

const poolCacheSlots = 16

// EntityResolver hydrates index hits back into catalog entities. A missing
// entity is reported as (nil, nil): the index may briefly trail the
// catalog, and a stale hit is skipped rather than failing the page.
type EntityResolver interface {
	MediaFileByID(id int) (*domain.MediaFile, error)
	AlbumByID(id int) (*domain.Album, error)
	ArtistByID(id int) (*domain.Artist, error)
}

// Service is the search facade: paged ranked search, UPnP criteria search,
// and random selection with pool caching.
type Service struct {
	settings domain.Settings
	manager  *Manager
	builder  *QueryBuilder
	resolver EntityResolver
	pools    *resultCache
	rnd      *randomSource
}

func NewService(settings domain.Settings, manager *Manager, builder *QueryBuilder, resolver EntityResolver) *Service {
	return &Service{
		settings: settings,
		manager:  manager,
		builder:  builder,
		resolver: resolver,
		pools:    newResultCache(poolCacheSlots),
		rnd:      newRandomSource(),
	}
}

// ClearCaches drops the random pools. Called after every scan session so
// pools never serve deleted entities.
func (s *Service) ClearCaches() {
	s.pools.Clear()
}

// Search runs a ranked free-text search over one collection and returns
// the [offset, offset+count) window. Out-of-range windows clamp to the hit
// list instead of erroring; a count of zero never touches the index.
func (s *Service) Search(c Collection, input string, folders []domain.MusicFolder, offset, count int) (*domain.SearchResult, error) {
	if offset < 0 || count <= 0 {
		return &domain.SearchResult{Offset: offset}, nil
	}
	q, ok := s.builder.SearchQuery(c, input, folders)
	if !ok {
		return &domain.SearchResult{Offset: offset}, nil
	}
	if s.settings.OutputSearchQuery {
		log.Printf("search: %s %q folders=%d", c, input, len(folders))
	}
	return s.executeWindow(c, q, offset, count)
}

// UPnPSearch translates a device search-criteria string and returns the
// requested result window. Translation errors surface to the caller; they
// indicate a request this server cannot honor.
func (s *Service) UPnPSearch(criteria string, folders []domain.MusicFolder, offset, count int, id3 bool) (*domain.SearchResult, error) {
	translated, err := NewCriteriaTranslator(s.builder).Translate(criteria, folders, id3)
	if err != nil {
		return nil, err
	}
	if offset < 0 || count <= 0 {
		return &domain.SearchResult{Offset: offset}, nil
	}
	if s.settings.OutputSearchQuery {
		log.Printf("search: upnp %s %q folders=%d", translated.Collection, criteria, len(folders))
	}
	return s.executeWindow(translated.Collection, translated.Query, offset, count)
}

// executeWindow runs q against the collection and hydrates the clamped
// [offset, offset+count) window.
func (s *Service) executeWindow(c Collection, q query.Query, offset, count int) (*domain.SearchResult, error) {
	result := &domain.SearchResult{Offset: offset}
	idx, ok := s.manager.Searcher(c)
	if !ok {
		return result, nil
	}
	total, err := s.count(idx, q)
	if err != nil {
		return nil, err
	}
	result.TotalHits = total
	start, end := clampWindow(offset, count, total)
	if start >= end {
		return result, nil
	}
	res, err := idx.Search(bleve.NewSearchRequestOptions(q, end-start, start, false))
	if err != nil {
		return nil, errors.Wrapf(err, "search %s", c)
	}
	for _, hit := range res.Hits {
		s.hydrate(c, hit.ID, result)
	}
	return result, nil
}

// clampWindow clips [offset, offset+count) to [0, total).
func clampWindow(offset, count, total int) (int, int) {
	start := offset
	if start > total {
		start = total
	}
	end := offset + count
	if end > total {
		end = total
	}
	return start, end
}

func (s *Service) count(idx bleve.Index, q query.Query) (int, error) {
	res, err := idx.Search(bleve.NewSearchRequestOptions(q, 0, 0, false))
	if err != nil {
		return 0, errors.Wrap(err, "count hits")
	}
	return int(res.Total), nil
}

// hydrate resolves one hit id into the matching result list. Unparseable
// ids and entities gone from the catalog are skipped.
func (s *Service) hydrate(c Collection, hitID string, result *domain.SearchResult) {
	id, err := strconv.Atoi(hitID)
	if err != nil {
		log.Printf("search: ignoring non-numeric doc id %q in %s", hitID, c)
		return
	}
	switch c {
	case CollectionSong, CollectionAlbum, CollectionArtist:
		m, err := s.resolver.MediaFileByID(id)
		if err != nil {
			log.Printf("search: resolve media file %d: %v", id, err)
			return
		}
		if m != nil {
			result.MediaFiles = append(result.MediaFiles, m)
		}
	case CollectionAlbumByID:
		a, err := s.resolver.AlbumByID(id)
		if err != nil {
			log.Printf("search: resolve album %d: %v", id, err)
			return
		}
		if a != nil {
			result.Albums = append(result.Albums, a)
		}
	case CollectionArtistByID:
		a, err := s.resolver.ArtistByID(id)
		if err != nil {
			log.Printf("search: resolve artist %d: %v", id, err)
			return
		}
		if a != nil {
			result.Artists = append(result.Artists, a)
		}
	}
}

// allIDs collects every doc id matching q. Random selection needs the full
// candidate list to sample without replacement.
func (s *Service) allIDs(idx bleve.Index, q query.Query) ([]string, error) {
	total, err := s.count(idx, q)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, total)
	for len(ids) < total {
		res, err := idx.Search(bleve.NewSearchRequestOptions(q, 1000, len(ids), false))
		if err != nil {
			return nil, errors.Wrap(err, "collect candidate ids")
		}
		if len(res.Hits) == 0 {
			break
		}
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}
	}
	return ids, nil
}

// RandomSongs selects criteria.Count distinct songs uniformly from the
// matching candidates.
func (s *Service) RandomSongs(criteria domain.RandomCriteria) ([]*domain.MediaFile, error) {
	idx, ok := s.manager.Searcher(CollectionSong)
	if !ok {
		return nil, nil
	}
	ids, err := s.allIDs(idx, s.builder.RandomSongsQuery(criteria))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.MediaFile, 0, criteria.Count)
	for _, id := range sampleIDs(ids, criteria.Count, s.rnd) {
		if m := s.resolveMediaFile(id); m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Service) resolveMediaFile(id string) *domain.MediaFile {
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil
	}
	m, err := s.resolver.MediaFileByID(n)
	if err != nil {
		log.Printf("search: resolve media file %d: %v", n, err)
		return nil
	}
	return m
}

// RandomSongsPaged pages through one cached random pool of size poolMax.
// The pool is drawn once per distinct criteria and reused until the next
// scan, so successive pages never repeat a song.
func (s *Service) RandomSongsPaged(count, offset, poolMax int, criteria domain.RandomCriteria) ([]*domain.MediaFile, error) {
	extra := make([]string, 0, len(criteria.Genres)+2)
	extra = append(extra, criteria.Genres...)
	if criteria.FromYear > 0 || criteria.ToYear > 0 {
		extra = append(extra, strconv.Itoa(criteria.FromYear), strconv.Itoa(criteria.ToYear))
	}
	key := poolKey("songs", poolMax, criteria.Folders, extra...)
	pool, ok := s.pools.Get(key)
	if !ok {
		criteria.Count = poolMax
		songs, err := s.RandomSongs(criteria)
		if err != nil {
			return nil, err
		}
		s.pools.Put(key, songs)
		pool = songs
	}
	songs := pool.([]*domain.MediaFile)
	start, end := clampWindow(offset, count, len(songs))
	return songs[start:end], nil
}

// RandomAlbums selects count distinct file-structure albums from the given
// folders.
func (s *Service) RandomAlbums(count int, folders []domain.MusicFolder) ([]*domain.MediaFile, error) {
	idx, ok := s.manager.Searcher(CollectionAlbum)
	if !ok {
		return nil, nil
	}
	ids, err := s.allIDs(idx, s.builder.FolderQuery(false, folders))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.MediaFile, 0, count)
	for _, id := range sampleIDs(ids, count, s.rnd) {
		if m := s.resolveMediaFile(id); m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// RandomAlbumsID3 selects count distinct tag-derived albums from the given
// folders.
func (s *Service) RandomAlbumsID3(count int, folders []domain.MusicFolder) ([]*domain.Album, error) {
	idx, ok := s.manager.Searcher(CollectionAlbumByID)
	if !ok {
		return nil, nil
	}
	ids, err := s.allIDs(idx, s.builder.FolderQuery(true, folders))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Album, 0, count)
	for _, id := range sampleIDs(ids, count, s.rnd) {
		n, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		a, err := s.resolver.AlbumByID(n)
		if err != nil || a == nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// RandomAlbumsID3Paged pages through one cached random album pool, same
// contract as RandomSongsPaged.
func (s *Service) RandomAlbumsID3Paged(count, offset, poolMax int, folders []domain.MusicFolder) ([]*domain.Album, error) {
	key := poolKey("albums_id3", poolMax, folders)
	pool, ok := s.pools.Get(key)
	if !ok {
		albums, err := s.RandomAlbumsID3(poolMax, folders)
		if err != nil {
			return nil, err
		}
		s.pools.Put(key, albums)
		pool = albums
	}
	albums := pool.([]*domain.Album)
	start, end := clampWindow(offset, count, len(albums))
	return albums[start:end], nil
}
