// Package domain holds the catalog entities shared by the scanner, the
// storage layer and the search core.
package domain

// MediaType classifies a media file. Stored verbatim as an exact-key index
// field, so renaming a value requires an index schema bump.
type MediaType string

const (
	TypeMusic     MediaType = "MUSIC"
	TypePodcast   MediaType = "PODCAST"
	TypeAudiobook MediaType = "AUDIOBOOK"
	TypeVideo     MediaType = "VIDEO"
	TypeDirectory MediaType = "DIRECTORY"
	TypeAlbum     MediaType = "ALBUM"
)

// MediaFile is one scanned file or directory. Directories double as
// file-structure albums and artists, mirroring how the scanner lays the
// catalog out on disk.
type MediaFile struct {
	ID            int
	Path          string
	Folder        string
	MediaType     MediaType
	Title         string
	TitleSort     string
	Artist        string
	ArtistSort    string
	ArtistReading string
	AlbumName     string
	AlbumSort     string
	AlbumReading  string
	Composer      string
	ComposerSort  string
	Genre         string
	Year          int
	TrackNumber   int
	DiscNumber    int
}

func (m *MediaFile) IsFile() bool {
	switch m.MediaType {
	case TypeDirectory, TypeAlbum:
		return false
	}
	return true
}

func (m *MediaFile) IsAlbum() bool { return m.MediaType == TypeAlbum }

// Album is the ID3-derived album entity (aggregated from tags, not from the
// folder structure).
type Album struct {
	ID            int
	Name          string
	NameSort      string
	NameReading   string
	Artist        string
	ArtistSort    string
	ArtistReading string
	Genre         string
	Year          int
	FolderID      int
	SongCount     int
}

// Artist is the ID3-derived artist entity. IndexName is the string the
// artist is bucketed under in alphabetical browse indexes.
type Artist struct {
	ID        int
	Name      string
	Sort      string
	Reading   string
	IndexName string
}

// Genre is a derived aggregate row: name plus song/album counts. Rebuilt
// from the index after each scan, never authoritative.
type Genre struct {
	Name       string
	SongCount  int
	AlbumCount int
}

// MusicFolder is a configured content root. Folder scoping restricts
// queries to a set of these, by numeric id or by path depending on the
// collection mode.
type MusicFolder struct {
	ID   int
	Path string
	Name string
}

// SearchResult is a paged, ranked result window over one collection.
type SearchResult struct {
	Offset     int
	TotalHits  int
	MediaFiles []*MediaFile
	Albums     []*Album
	Artists    []*Artist
}

// RandomCriteria narrows random-song selection.
type RandomCriteria struct {
	Count    int
	Genres   []string
	FromYear int // 0 means unbounded
	ToYear   int // 0 means unbounded
	Folders  []MusicFolder
}
