package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/otomedia/oto/domain"
)

func TestSongRecordFields(t *testing.T) {
	b := NewDocumentBuilder(domain.DefaultSettings())
	m := &domain.MediaFile{
		ID:            42,
		Path:          "/music/main/moon/album/track.flac",
		Folder:        "/music/main",
		MediaType:     domain.TypeMusic,
		Title:         "Strange Silence",
		Artist:        "Moon Light",
		ArtistReading: "ムーンライト",
		Genre:         "Rock",
		Year:          2001,
	}
	id, rec := b.SongRecord(m)
	assert.Equal(t, "42", id)
	assert.Equal(t, "Strange Silence", rec[FieldTitle])
	assert.Equal(t, "Moon Light", rec[FieldArtist])
	assert.Equal(t, "ムーンライト", rec[FieldArtistReading])
	assert.Equal(t, "/music/main", rec[FieldFolder])
	assert.Equal(t, "MUSIC", rec[FieldMediaType])
	assert.Equal(t, 2001, rec[FieldYear])
	assert.Equal(t, "2001", rec[FieldYearKey])
	// native scheme: no romanized mirror
	assert.NotContains(t, rec, FieldArtistReadingRomanized)
}

func TestSongRecordOmitsMissingOptionals(t *testing.T) {
	b := NewDocumentBuilder(domain.DefaultSettings())
	_, rec := b.SongRecord(&domain.MediaFile{ID: 1, Title: "Untitled"})
	assert.NotContains(t, rec, FieldYear)
	assert.NotContains(t, rec, FieldYearKey)
	assert.NotContains(t, rec, FieldGenre)
	assert.NotContains(t, rec, FieldArtist)
}

func TestSongRecordExceptionalFieldsOnlyForJapanese(t *testing.T) {
	b := NewDocumentBuilder(domain.DefaultSettings())
	_, latin := b.SongRecord(&domain.MediaFile{ID: 1, Title: "Plain Title"})
	assert.NotContains(t, latin, FieldTitleEx)

	_, jp := b.SongRecord(&domain.MediaFile{ID: 2, Title: "夜想曲"})
	assert.Equal(t, "夜想曲", jp[FieldTitleEx])
}

func TestSongRecordRomanizedMirror(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.IndexScheme = domain.RomanizedJapanese
	b := NewDocumentBuilder(settings)
	_, rec := b.SongRecord(&domain.MediaFile{ID: 1, Title: "t", ArtistReading: "Yorushika"})
	assert.Equal(t, "Yorushika", rec[FieldArtistReading])
	assert.Equal(t, "Yorushika", rec[FieldArtistReadingRomanized])
}

func TestAlbumRecordUsesFolderID(t *testing.T) {
	b := NewDocumentBuilder(domain.DefaultSettings())
	id, rec := b.AlbumRecord(&domain.Album{ID: 9, Name: "Moonrise", Artist: "Moon Light", FolderID: 3})
	assert.Equal(t, "9", id)
	assert.Equal(t, "3", rec[FieldFolderID])
	assert.NotContains(t, rec, FieldFolder)
}

func TestArtistRecordFolderIDList(t *testing.T) {
	b := NewDocumentBuilder(domain.DefaultSettings())
	_, rec := b.ArtistRecord(&domain.Artist{ID: 5, Name: "Moon Light"}, []int{1, 7})
	assert.Equal(t, []string{"1", "7"}, rec[FieldFolderID])
}

func TestGenreRecordKeyedOnSpelling(t *testing.T) {
	b := NewDocumentBuilder(domain.DefaultSettings())
	id, rec := b.GenreRecord("Post-Rock")
	assert.Equal(t, "Post-Rock", id)
	assert.Equal(t, "Post-Rock", rec[FieldGenreKey])
	assert.Equal(t, "Post-Rock", rec[FieldGenre])
}
