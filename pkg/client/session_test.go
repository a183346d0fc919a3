package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := NewSessionStore(path)
	require.NoError(t, err)

	p, err := store.Profile(SessionKeyEmployee)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = store.Token(SessionKeyEmployee)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionStore_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := NewSessionStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(SessionKeyEmployee, Profile{
		ID:    7,
		Name:  "Jane",
		Token: "secret-token",
	}))

	reloaded, err := NewSessionStore(path)
	require.NoError(t, err)

	p, err := reloaded.Profile(SessionKeyEmployee)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "Jane", p.Name)

	token, err := reloaded.Token(SessionKeyEmployee)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", token)
}

func TestSessionStore_RolesAreIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := NewSessionStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(SessionKeyUser, Profile{ID: 1, Token: "user-token"}))
	require.NoError(t, store.Set(SessionKeyEmployee, Profile{ID: 2, Token: "employee-token"}))

	require.NoError(t, store.Clear(SessionKeyEmployee))

	_, err = store.Token(SessionKeyEmployee)
	assert.ErrorIs(t, err, ErrNoSession)

	token, err := store.Token(SessionKeyUser)
	require.NoError(t, err)
	assert.Equal(t, "user-token", token)
}

func TestSessionStore_ClearAbsentKeyIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := NewSessionStore(path)
	require.NoError(t, err)
	assert.NoError(t, store.Clear(SessionKeyUser))
}

func TestSessionStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewSessionStore(path)
	assert.Error(t, err)
}
