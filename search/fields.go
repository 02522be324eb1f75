// Package search implements the inverted-index collections over the music
// catalog: analyzer construction, record building, index lifecycle, query
// construction, paged/random search and UPnP criteria translation.
package search

// Index field names. Renaming any of these changes the on-disk schema and
// requires bumping schemaVersion in manager.go.
const (
	// Analyzed free-text fields.
	FieldTitle                    = "title"
	FieldTitleReading             = "title_reading"
	FieldArtist                   = "artist"
	FieldArtistReading            = "artist_reading"
	FieldArtistReadingRomanized   = "artist_reading_romanized"
	FieldComposer                 = "composer"
	FieldComposerReading          = "composer_reading"
	FieldComposerReadingRomanized = "composer_reading_romanized"
	FieldAlbum                    = "album"
	FieldAlbumReading             = "album_reading"
	FieldGenre                    = "genre"

	// Exceptional tie-break fields (bigram alternates).
	FieldTitleEx  = "title_ex"
	FieldAlbumEx  = "album_ex"
	FieldArtistEx = "artist_ex"

	// Exact-key fields.
	FieldGenreKey  = "genre_key"
	FieldMediaType = "media_type"
	FieldFolder    = "folder"
	FieldFolderID  = "folder_id"
	FieldYearKey   = "year_key"

	// Numeric fields.
	FieldYear = "year"
)

var composerFields = map[string]bool{
	FieldComposer:                 true,
	FieldComposerReading:          true,
	FieldComposerReadingRomanized: true,
}

var romanizedOnlyFields = map[string]bool{
	FieldArtistReadingRomanized:   true,
	FieldComposerReadingRomanized: true,
}

// romanizedFields get OR-of-terms queries instead of phrase queries: a
// romanized reading is word-order ambiguous, so term order must not
// constrain matching.
var romanizedFields = romanizedOnlyFields
