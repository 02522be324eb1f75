package search

// Collection identifies one inverted index over one entity kind/mode.
// The *ByID variants scope folders by numeric id; the plain variants by
// filesystem path.
type Collection int

const (
	CollectionSong Collection = iota
	CollectionAlbum
	CollectionAlbumByID
	CollectionArtist
	CollectionArtistByID
	CollectionGenre
)

// Collections lists every collection in declaration order.
func Collections() []Collection {
	return []Collection{
		CollectionSong, CollectionAlbum, CollectionAlbumByID,
		CollectionArtist, CollectionArtistByID, CollectionGenre,
	}
}

func (c Collection) String() string {
	switch c {
	case CollectionSong:
		return "song"
	case CollectionAlbum:
		return "album"
	case CollectionAlbumByID:
		return "album_id3"
	case CollectionArtist:
		return "artist"
	case CollectionArtistByID:
		return "artist_id3"
	case CollectionGenre:
		return "genre"
	}
	return "unknown"
}

// IDScoped reports whether folder scoping uses the numeric folder id
// rather than the folder path.
func (c Collection) IDScoped() bool {
	return c == CollectionAlbumByID || c == CollectionArtistByID
}

// Fields returns the default multi-field query target set. The folder
// field is excluded; folder scoping is applied as a separate clause.
func (c Collection) Fields() []string {
	switch c {
	case CollectionSong:
		return []string{
			FieldTitle, FieldTitleReading, FieldArtist, FieldArtistReading,
			FieldArtistReadingRomanized, FieldComposer, FieldComposerReading,
			FieldComposerReadingRomanized,
		}
	case CollectionAlbum, CollectionAlbumByID:
		return []string{
			FieldAlbum, FieldAlbumReading, FieldArtist, FieldArtistReading,
			FieldArtistReadingRomanized,
		}
	case CollectionArtist, CollectionArtistByID:
		return []string{FieldArtist, FieldArtistReading, FieldArtistReadingRomanized}
	case CollectionGenre:
		return []string{FieldGenreKey, FieldGenre}
	}
	return nil
}

// Boosts returns the per-field relevance multipliers. Fields absent from
// the map carry default weight. Reading fields are boosted a notch above
// their source fields so phonetic hits win ties.
func (c Collection) Boosts() map[string]float64 {
	switch c {
	case CollectionSong:
		return map[string]float64{
			FieldTitle:                    3.0,
			FieldTitleReading:             3.1,
			FieldArtist:                   2.0,
			FieldArtistReading:            2.1,
			FieldArtistReadingRomanized:   2.1,
			FieldComposerReading:          1.1,
			FieldComposerReadingRomanized: 1.1,
		}
	case CollectionAlbum, CollectionAlbumByID:
		return map[string]float64{
			FieldAlbum:                  2.0,
			FieldAlbumReading:           2.1,
			FieldArtistReading:          1.1,
			FieldArtistReadingRomanized: 1.1,
		}
	case CollectionArtist, CollectionArtistByID:
		return map[string]float64{
			FieldArtistReading:          1.1,
			FieldArtistReadingRomanized: 1.1,
		}
	case CollectionGenre:
		return map[string]float64{FieldGenreKey: 1.1}
	}
	return nil
}
