package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventify/ticketing/internal/client"
	"github.com/eventify/ticketing/internal/model"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	s, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, s)

	want := &client.Session{
		UserID:  42,
		Name:    "Ada",
		Email:   "ada@example.com",
		Role:    model.RoleAdmin,
		Token:   "jwt",
		Expires: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	got, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestFileStoreWithHolder(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	h := client.NewHolder(store)
	require.NoError(t, h.Set(&client.Session{UserID: 1, Token: "t", Expires: time.Now().Add(time.Hour)}))

	again := client.NewHolder(store)
	require.NoError(t, again.Restore())
	require.NotNil(t, again.Current())
	assert.EqualValues(t, 1, again.Current().UserID)

	require.NoError(t, again.Clear())
	_, err := os.Stat(store.Path)
	assert.True(t, os.IsNotExist(err))
}
