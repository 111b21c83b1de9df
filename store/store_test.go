package store

import (
	"path/filepath"
	"testing"

	"github.com/razeghi71/dqexpr/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "expressions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveGet(t *testing.T) {
	s := openStore(t)
	rec := NewRecord(`$["a"] + 1`)
	require.NoError(t, s.Save("inc", rec))

	got, err := s.Get("inc")
	require.NoError(t, err)
	assert.Equal(t, rec.Expression, got.Expression)
	assert.Equal(t, engine.LanguageVersion, got.LanguageVersion)
	assert.True(t, rec.Saved.Equal(got.Saved))

	// the stored expression still parses
	_, err = engine.Parse(got.Expression)
	assert.NoError(t, err)
}

func TestListAndDelete(t *testing.T) {
	s := openStore(t)
	for _, name := range []string{"b", "a", "c"} {
		require.NoError(t, s.Save(name, NewRecord("1")))
	}
	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names)

	require.NoError(t, s.Delete("b"))
	names, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, names)

	assert.ErrorIs(t, s.Delete("b"), ErrNotFound)
	_, err = s.Get("b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRejectsNewerVersions(t *testing.T) {
	s := openStore(t)
	rec := NewRecord("1")
	rec.LanguageVersion = engine.LanguageVersion + 1
	require.NoError(t, s.Save("future", rec))

	_, err := s.Get("future")
	assert.ErrorContains(t, err, "language version")
}

func TestEmptyName(t *testing.T) {
	s := openStore(t)
	assert.Error(t, s.Save("", NewRecord("1")))
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expressions.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save("kept", NewRecord("2 * 3")))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get("kept")
	require.NoError(t, err)
	assert.Equal(t, "2 * 3", got.Expression)
}
