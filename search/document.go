package search

import (
	"strconv"

	"github.com/otomedia/oto/domain"
	"github.com/otomedia/oto/reading"
)

// DocumentBuilder turns catalog entities into index records. A record is a
// flat field map; the doc id is the entity primary key, so re-indexing an
// entity replaces its previous record.
type DocumentBuilder struct {
	settings domain.Settings
}

func NewDocumentBuilder(settings domain.Settings) *DocumentBuilder {
	return &DocumentBuilder{settings: settings}
}

func (b *DocumentBuilder) jpEnabled() bool {
	return b.settings.IndexScheme != domain.WithoutJPLangProcessing
}

func (b *DocumentBuilder) romanized() bool {
	return b.settings.IndexScheme == domain.RomanizedJapanese
}

// put sets field to value unless value is empty.
func put(rec map[string]interface{}, field, value string) {
	if value != "" {
		rec[field] = value
	}
}

// putReading writes the derived reading and, under the romanized scheme,
// mirrors it into the romanized column as well.
func (b *DocumentBuilder) putReading(rec map[string]interface{}, field, romanizedField, value string) {
	put(rec, field, value)
	if b.romanized() {
		put(rec, romanizedField, value)
	}
}

// putEx writes the alternate-script tie-break field. Only names that carry
// Japanese script produce an alternate token stream worth indexing.
func (b *DocumentBuilder) putEx(rec map[string]interface{}, field, name string) {
	if b.jpEnabled() && reading.ContainsJapanese(name) {
		rec[field] = name
	}
}

// SongRecord builds the song-collection record for a scanned music file.
func (b *DocumentBuilder) SongRecord(m *domain.MediaFile) (string, map[string]interface{}) {
	rec := map[string]interface{}{}
	put(rec, FieldTitle, m.Title)
	titleReading := m.TitleSort
	if titleReading == "" {
		titleReading = m.Title
	}
	b.putReading(rec, FieldTitleReading, FieldTitleReading, titleReading)
	put(rec, FieldArtist, m.Artist)
	b.putReading(rec, FieldArtistReading, FieldArtistReadingRomanized, m.ArtistReading)
	put(rec, FieldComposer, m.Composer)
	b.putReading(rec, FieldComposerReading, FieldComposerReadingRomanized, m.ComposerSort)
	put(rec, FieldGenre, m.Genre)
	put(rec, FieldFolder, m.Folder)
	put(rec, FieldMediaType, string(m.MediaType))
	if m.Year > 0 {
		rec[FieldYear] = m.Year
		rec[FieldYearKey] = strconv.Itoa(m.Year)
	}
	b.putEx(rec, FieldTitleEx, m.Title)
	b.putEx(rec, FieldArtistEx, m.Artist)
	return strconv.Itoa(m.ID), rec
}

// AlbumFolderRecord builds the file-structure album record for an album
// directory.
func (b *DocumentBuilder) AlbumFolderRecord(m *domain.MediaFile) (string, map[string]interface{}) {
	rec := map[string]interface{}{}
	put(rec, FieldAlbum, m.AlbumName)
	b.putReading(rec, FieldAlbumReading, FieldAlbumReading, m.AlbumReading)
	put(rec, FieldArtist, m.Artist)
	b.putReading(rec, FieldArtistReading, FieldArtistReadingRomanized, m.ArtistReading)
	put(rec, FieldGenre, m.Genre)
	put(rec, FieldFolder, m.Folder)
	b.putEx(rec, FieldAlbumEx, m.AlbumName)
	b.putEx(rec, FieldArtistEx, m.Artist)
	return strconv.Itoa(m.ID), rec
}

// ArtistFolderRecord builds the file-structure artist record for an artist
// directory.
func (b *DocumentBuilder) ArtistFolderRecord(m *domain.MediaFile) (string, map[string]interface{}) {
	rec := map[string]interface{}{}
	put(rec, FieldArtist, m.Artist)
	b.putReading(rec, FieldArtistReading, FieldArtistReadingRomanized, m.ArtistReading)
	put(rec, FieldFolder, m.Folder)
	b.putEx(rec, FieldArtistEx, m.Artist)
	return strconv.Itoa(m.ID), rec
}

// AlbumRecord builds the tag-derived album record.
func (b *DocumentBuilder) AlbumRecord(a *domain.Album) (string, map[string]interface{}) {
	rec := map[string]interface{}{}
	put(rec, FieldAlbum, a.Name)
	b.putReading(rec, FieldAlbumReading, FieldAlbumReading, a.NameReading)
	put(rec, FieldArtist, a.Artist)
	b.putReading(rec, FieldArtistReading, FieldArtistReadingRomanized, a.ArtistReading)
	put(rec, FieldGenre, a.Genre)
	if a.FolderID > 0 {
		rec[FieldFolderID] = strconv.Itoa(a.FolderID)
	}
	b.putEx(rec, FieldAlbumEx, a.Name)
	b.putEx(rec, FieldArtistEx, a.Artist)
	return strconv.Itoa(a.ID), rec
}

// ArtistRecord builds the tag-derived artist record. folderIDs are the
// content roots the artist has songs under; each becomes an exact-key
// value so folder scoping can match any of them.
func (b *DocumentBuilder) ArtistRecord(a *domain.Artist, folderIDs []int) (string, map[string]interface{}) {
	rec := map[string]interface{}{}
	put(rec, FieldArtist, a.Name)
	b.putReading(rec, FieldArtistReading, FieldArtistReadingRomanized, a.Reading)
	if len(folderIDs) > 0 {
		ids := make([]string, len(folderIDs))
		for i, id := range folderIDs {
			ids[i] = strconv.Itoa(id)
		}
		rec[FieldFolderID] = ids
	}
	b.putEx(rec, FieldArtistEx, a.Name)
	return strconv.Itoa(a.ID), rec
}

// GenreRecord builds the genre-collection record. The raw tag spelling is
// both the doc id and the stored exact key; the analyzed field carries the
// delimiter-split spellings.
func (b *DocumentBuilder) GenreRecord(name string) (string, map[string]interface{}) {
	return name, map[string]interface{}{
		FieldGenreKey: name,
		FieldGenre:    name,
	}
}
