package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectionNamesAreStable(t *testing.T) {
	// index directories are named after these; renames orphan data
	want := map[Collection]string{
		CollectionSong:       "song",
		CollectionAlbum:      "album",
		CollectionAlbumByID:  "album_id3",
		CollectionArtist:     "artist",
		CollectionArtistByID: "artist_id3",
		CollectionGenre:      "genre",
	}
	for c, name := range want {
		assert.Equal(t, name, c.String())
	}
}

func TestIDScoped(t *testing.T) {
	assert.True(t, CollectionAlbumByID.IDScoped())
	assert.True(t, CollectionArtistByID.IDScoped())
	assert.False(t, CollectionSong.IDScoped())
	assert.False(t, CollectionAlbum.IDScoped())
	assert.False(t, CollectionArtist.IDScoped())
	assert.False(t, CollectionGenre.IDScoped())
}

func TestBoostedFieldsAreQueryTargets(t *testing.T) {
	for _, c := range Collections() {
		fields := map[string]bool{}
		for _, f := range c.Fields() {
			fields[f] = true
		}
		assert.NotEmpty(t, fields, c.String())
		for f := range c.Boosts() {
			assert.True(t, fields[f], "%s boosts unqueried field %s", c, f)
		}
	}
}

func TestQueryTargetsAreIndexed(t *testing.T) {
	for _, c := range Collections() {
		indexed := map[string]bool{}
		for _, f := range recordFields(c) {
			indexed[f] = true
		}
		for _, f := range c.Fields() {
			assert.True(t, indexed[f], "%s queries unindexed field %s", c, f)
		}
	}
}
