package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otomedia/oto/domain"
)

type fakeResolver struct {
	media   map[int]*domain.MediaFile
	albums  map[int]*domain.Album
	artists map[int]*domain.Artist
}

func (r *fakeResolver) MediaFileByID(id int) (*domain.MediaFile, error) { return r.media[id], nil }
func (r *fakeResolver) AlbumByID(id int) (*domain.Album, error)         { return r.albums[id], nil }
func (r *fakeResolver) ArtistByID(id int) (*domain.Artist, error)       { return r.artists[id], nil }

type fakeGenreWriter struct {
	genres []domain.Genre
}

func (w *fakeGenreWriter) ReplaceGenres(genres []domain.Genre) error {
	w.genres = genres
	return nil
}

type testEnv struct {
	service  *Service
	manager  *Manager
	builder  *QueryBuilder
	resolver *fakeResolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	settings := domain.DefaultSettings()
	analyzer := newTestFactory(t)
	manager := NewManager(t.TempDir(), analyzer)
	t.Cleanup(func() { manager.Close() })
	builder := NewQueryBuilder(analyzer, settings)
	resolver := &fakeResolver{
		media:   map[int]*domain.MediaFile{},
		albums:  map[int]*domain.Album{},
		artists: map[int]*domain.Artist{},
	}
	return &testEnv{
		service:  NewService(settings, manager, builder, resolver),
		manager:  manager,
		builder:  builder,
		resolver: resolver,
	}
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	docs := NewDocumentBuilder(domain.DefaultSettings())
	songs := []*domain.MediaFile{
		{ID: 1, Title: "Strange Silence", Artist: "Moon Light", Genre: "Rock", Year: 2001,
			Folder: "/music/main", MediaType: domain.TypeMusic},
		{ID: 2, Title: "Night Drive", Artist: "Moon Light", Genre: "Jazz", Year: 1995,
			Folder: "/music/main", MediaType: domain.TypeMusic},
		{ID: 3, Title: "Silence Again", Artist: "Other Band", Genre: "Rock", Year: 2050,
			Folder: "/music/extra", MediaType: domain.TypeMusic},
	}
	require.NoError(t, e.manager.StartSession())
	for _, m := range songs {
		e.resolver.media[m.ID] = m
		id, rec := docs.SongRecord(m)
		require.NoError(t, e.manager.Index(CollectionSong, id, rec))
	}
	for _, g := range []string{"Rock", "Jazz"} {
		id, rec := docs.GenreRecord(g)
		require.NoError(t, e.manager.Index(CollectionGenre, id, rec))
	}
	require.NoError(t, e.manager.EndSession())
}

func songIDs(files []*domain.MediaFile) []int {
	out := make([]int, 0, len(files))
	for _, m := range files {
		out = append(out, m.ID)
	}
	return out
}

func TestSearchFindsAndHydrates(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)
	result, err := e.service.Search(CollectionSong, "silence", testFolders(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalHits)
	assert.ElementsMatch(t, []int{1, 3}, songIDs(result.MediaFiles))
}

func TestSearchFolderScoping(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)
	main := []domain.MusicFolder{{ID: 1, Path: "/music/main"}}
	result, err := e.service.Search(CollectionSong, "silence", main, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalHits)
	assert.Equal(t, []int{1}, songIDs(result.MediaFiles))
}

func TestSearchClampsWindow(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)
	result, err := e.service.Search(CollectionSong, "silence", testFolders(), 50, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalHits)
	assert.Equal(t, 50, result.Offset)
	assert.Empty(t, result.MediaFiles)
}

func TestSearchZeroCountShortCircuits(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)
	result, err := e.service.Search(CollectionSong, "silence", testFolders(), 0, 0)
	require.NoError(t, err)
	assert.Zero(t, result.TotalHits)
	assert.Empty(t, result.MediaFiles)
}

func TestSearchEmptyInputMatchesNothing(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)
	result, err := e.service.Search(CollectionSong, "the of", testFolders(), 0, 10)
	require.NoError(t, err)
	assert.Zero(t, result.TotalHits)
}

// An empty folder set means the caller has no visible content roots, so
// every search path returns nothing even when the index holds matches.
func TestEmptyFolderScopeMatchesNothing(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)

	result, err := e.service.Search(CollectionSong, "silence", nil, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, result.TotalHits)
	assert.Empty(t, result.MediaFiles)

	result, err = e.service.UPnPSearch(
		`(upnp:class derivedfrom "object.item.audioItem" and dc:title contains "silence")`,
		nil, 0, 10, false)
	require.NoError(t, err)
	assert.Zero(t, result.TotalHits)

	songs, err := e.service.RandomSongs(domain.RandomCriteria{Count: 10})
	require.NoError(t, err)
	assert.Empty(t, songs)
}

func TestSearchSkipsStaleHits(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)
	delete(e.resolver.media, 3)
	result, err := e.service.Search(CollectionSong, "silence", testFolders(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalHits)
	assert.Equal(t, []int{1}, songIDs(result.MediaFiles))
}

func TestSearchMissingIndexIsEmptyNotError(t *testing.T) {
	e := newTestEnv(t)
	// no session ever ran, no index directory exists
	result, err := e.service.Search(CollectionSong, "anything", testFolders(), 0, 10)
	require.NoError(t, err)
	assert.Zero(t, result.TotalHits)
}

func TestRandomSongsGenreAndYearCriteria(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)

	rock, err := e.service.RandomSongs(domain.RandomCriteria{
		Count: 10, Genres: []string{"Rock"}, Folders: testFolders()})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 3}, songIDs(rock))

	recent, err := e.service.RandomSongs(domain.RandomCriteria{
		Count: 10, FromYear: 2000, Folders: testFolders()})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 3}, songIDs(recent))

	older, err := e.service.RandomSongs(domain.RandomCriteria{
		Count: 10, ToYear: 1999, Folders: testFolders()})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, songIDs(older))
}

func TestRandomSongsWithoutReplacement(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)
	songs, err := e.service.RandomSongs(domain.RandomCriteria{Count: 100, Folders: testFolders()})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, songIDs(songs))
}

func TestRandomSongsPagedPoolIsStable(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)
	criteria := domain.RandomCriteria{Folders: testFolders()}

	first, err := e.service.RandomSongsPaged(3, 0, 3, criteria)
	require.NoError(t, err)
	second, err := e.service.RandomSongsPaged(3, 0, 3, criteria)
	require.NoError(t, err)
	assert.Equal(t, songIDs(first), songIDs(second))

	// paging through the pool never repeats a song
	page1, err := e.service.RandomSongsPaged(2, 0, 3, criteria)
	require.NoError(t, err)
	page2, err := e.service.RandomSongsPaged(2, 2, 3, criteria)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, append(songIDs(page1), songIDs(page2)...))

	// clearing caches redraws the pool on the next request
	e.service.ClearCaches()
	redrawn, err := e.service.RandomSongsPaged(3, 0, 3, criteria)
	require.NoError(t, err)
	assert.ElementsMatch(t, songIDs(first), songIDs(redrawn))
}

func TestUPnPSearchEndToEnd(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)
	result, err := e.service.UPnPSearch(
		`(upnp:class derivedfrom "object.item.audioItem" and dc:title contains "silence")`,
		testFolders(), 0, 10, false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalHits)
	assert.ElementsMatch(t, []int{1, 3}, songIDs(result.MediaFiles))
}

func TestUPnPSearchTranslationErrorSurfaces(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)
	_, err := e.service.UPnPSearch(`upnp:class = "object.container.album.photoAlbum"`,
		testFolders(), 0, 10, false)
	var ce *CriteriaError
	require.ErrorAs(t, err, &ce)
}

func TestRebuildGenreAggregates(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)
	writer := &fakeGenreWriter{}
	require.NoError(t, e.manager.RebuildGenreAggregates(e.builder, writer))

	counts := map[string]int{}
	for _, g := range writer.genres {
		counts[g.Name] = g.SongCount
	}
	assert.Equal(t, 2, counts["Rock"])
	assert.Equal(t, 1, counts["Jazz"])
}
