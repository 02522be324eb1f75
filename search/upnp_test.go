package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTranslator(t *testing.T) *CriteriaTranslator {
	t.Helper()
	return NewCriteriaTranslator(newTestBuilder(t, nil))
}

func TestTranslateArtistDerivedFrom(t *testing.T) {
	tr := newTestTranslator(t)

	got, err := tr.Translate(`upnp:class derivedfrom "object.container.person.musicArtist"`, testFolders(), true)
	require.NoError(t, err)
	assert.Equal(t, CollectionArtistByID, got.Collection)

	got, err = tr.Translate(`upnp:class derivedfrom "object.container.person.musicArtist"`, testFolders(), false)
	require.NoError(t, err)
	assert.Equal(t, CollectionArtist, got.Collection)
}

func TestTranslateAudioItemDerivedFrom(t *testing.T) {
	tr := newTestTranslator(t)
	got, err := tr.Translate(
		`(upnp:class derivedfrom "object.item.audioItem" and dc:title contains "test")`,
		testFolders(), false)
	require.NoError(t, err)
	assert.Equal(t, CollectionSong, got.Collection)
	assert.NotNil(t, got.Query)
}

// derivedfrom honors a closed complement list: subtypes outside it are
// rejected, not widened to their category.
func TestTranslateDerivedFromIsExact(t *testing.T) {
	tr := newTestTranslator(t)

	got, err := tr.Translate(`upnp:class derivedfrom "object.item.audioItem.musicTrack"`, testFolders(), false)
	require.NoError(t, err)
	assert.Equal(t, CollectionSong, got.Collection)

	for _, complement := range []string{
		"object.item.audioItem.audioBroadcast",
		"object.item.videoItem.movie",
		"object.container.person.movieActor",
	} {
		_, err := tr.Translate(fmt.Sprintf(`upnp:class derivedfrom "%s"`, complement), testFolders(), false)
		var ce *CriteriaError
		require.ErrorAs(t, err, &ce, complement)
	}
}

func TestTranslateVideoItemDerivedFrom(t *testing.T) {
	tr := newTestTranslator(t)
	got, err := tr.Translate(`upnp:class derivedfrom "object.item.videoItem"`, nil, false)
	require.NoError(t, err)
	assert.Equal(t, CollectionSong, got.Collection)
}

// Every supported leaf class maps to exactly one collection; nothing
// outside the set silently falls through.
func TestLeafClassMappingComplete(t *testing.T) {
	tr := newTestTranslator(t)
	for complement, want := range leafClasses {
		got, err := tr.Translate(fmt.Sprintf(`upnp:class = "%s"`, complement), nil, false)
		require.NoError(t, err, complement)
		assert.Equal(t, collectionFor(want.class, false), got.Collection, complement)
	}

	_, err := tr.Translate(`upnp:class = "object.item.audioItem.unknownLeaf"`, nil, false)
	var ce *CriteriaError
	require.ErrorAs(t, err, &ce)
}

func TestTranslateUnsupportedClass(t *testing.T) {
	tr := newTestTranslator(t)
	for _, criteria := range []string{
		`upnp:class = "object.container.album.photoAlbum"`,
		`upnp:class derivedfrom "object.container.album.photoAlbum"`,
		`upnp:class derivedfrom "object.item.imageItem"`,
		`upnp:class = "object.container.playlistContainer"`,
	} {
		_, err := tr.Translate(criteria, nil, false)
		var ce *CriteriaError
		require.ErrorAs(t, err, &ce, criteria)
	}
}

func TestTranslatePropertyBeforeClass(t *testing.T) {
	tr := newTestTranslator(t)
	_, err := tr.Translate(`dc:title contains "test"`, nil, false)
	var ce *CriteriaError
	require.ErrorAs(t, err, &ce)
}

func TestTranslateUnknownProperty(t *testing.T) {
	tr := newTestTranslator(t)
	_, err := tr.Translate(
		`upnp:class derivedfrom "object.item.audioItem" and upnp:rating = "5"`, nil, false)
	var ce *CriteriaError
	require.ErrorAs(t, err, &ce)
}

func TestTranslateMalformedInput(t *testing.T) {
	tr := newTestTranslator(t)
	for _, criteria := range []string{
		"",
		`upnp:class derivedfrom "unterminated`,
		`(upnp:class derivedfrom "object.item.audioItem"`,
		`upnp:class exists true`,
	} {
		_, err := tr.Translate(criteria, nil, false)
		assert.Error(t, err, criteria)
	}
}

func TestTranslateAndOrFolding(t *testing.T) {
	tr := newTestTranslator(t)
	got, err := tr.Translate(
		`(upnp:class derivedfrom "object.item.audioItem" and (dc:title contains "moon" or upnp:artist contains "queen"))`,
		testFolders(), false)
	require.NoError(t, err)
	assert.Equal(t, CollectionSong, got.Collection)
	assert.NotNil(t, got.Query)
}

func TestTranslatePropertyFieldsFollowClass(t *testing.T) {
	assert.Equal(t, []string{FieldAlbum, FieldAlbumReading}, propertyFields("dc:title", classAlbum))
	assert.Equal(t, []string{FieldArtist, FieldArtistReading}, propertyFields("dc:title", classArtist))
	assert.Equal(t, []string{FieldTitle, FieldTitleReading}, propertyFields("dc:title", classSong))
	assert.Equal(t, []string{FieldArtist, FieldArtistReading}, propertyFields(`upnp:artist@role="AlbumArtist"`, classSong))
	assert.Equal(t, []string{FieldComposer, FieldComposerReading}, propertyFields("dc:creator", classSong))
	assert.Equal(t, []string{FieldGenre}, propertyFields("upnp:genre", classSong))
	assert.Nil(t, propertyFields("upnp:rating", classSong))
}

func TestCriteriaErrorSurfacesType(t *testing.T) {
	err := criteriaErrorf("bad %s", "input")
	assert.Equal(t, "bad input", err.Error())
	var target error = err
	_, ok := target.(*CriteriaError)
	assert.True(t, ok)
}
