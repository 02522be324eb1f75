package search

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerSessionLifecycle(t *testing.T) {
	m := NewManager(t.TempDir(), newTestFactory(t))
	defer m.Close()

	assert.Error(t, m.Index(CollectionSong, "1", map[string]interface{}{FieldTitle: "x"}))
	assert.Error(t, m.EndSession())

	require.NoError(t, m.StartSession())
	assert.Error(t, m.StartSession())
	require.NoError(t, m.Index(CollectionSong, "1", map[string]interface{}{FieldTitle: "x"}))
	require.NoError(t, m.Delete(CollectionSong, "1"))
	require.NoError(t, m.EndSession())
}

func TestManagerSearcherAbsentIsNotAnError(t *testing.T) {
	m := NewManager(t.TempDir(), newTestFactory(t))
	defer m.Close()
	idx, ok := m.Searcher(CollectionSong)
	assert.False(t, ok)
	assert.Nil(t, idx)
}

func TestManagerSweepsStaleVersionDirs(t *testing.T) {
	root := t.TempDir()
	stale := filepath.Join(root, productToken+"-index-0.0")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	unrelated := filepath.Join(root, "keepme")
	require.NoError(t, os.MkdirAll(unrelated, 0o755))

	m := NewManager(root, newTestFactory(t))
	defer m.Close()
	require.NoError(t, m.StartSession())
	require.NoError(t, m.EndSession())

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale versioned directory survived")
	_, err = os.Stat(unrelated)
	assert.NoError(t, err, "unrelated directory was removed")
	_, err = os.Stat(m.dir())
	assert.NoError(t, err, "current versioned directory missing")
}

func TestManagerDirCarriesAllVersionTokens(t *testing.T) {
	m := NewManager("idx", newTestFactory(t))
	want := filepath.Join("idx", fmt.Sprintf("%s-index-%d.%d.%d",
		productToken, indexVersion, schemaVersion, recordVersion))
	assert.Equal(t, want, m.dir())
}

func TestManagerUpsertReplacesByID(t *testing.T) {
	m := NewManager(t.TempDir(), newTestFactory(t))
	defer m.Close()

	require.NoError(t, m.StartSession())
	require.NoError(t, m.Index(CollectionSong, "1", map[string]interface{}{FieldTitle: "first title"}))
	require.NoError(t, m.EndSession())

	require.NoError(t, m.StartSession())
	require.NoError(t, m.Index(CollectionSong, "1", map[string]interface{}{FieldTitle: "second title"}))
	require.NoError(t, m.EndSession())

	idx, ok := m.Searcher(CollectionSong)
	require.True(t, ok)
	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
