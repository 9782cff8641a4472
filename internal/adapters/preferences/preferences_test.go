package preferences

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-gallery/internal/mocks"
	"github.com/jsamuelsen/quote-gallery/internal/platform/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func diskStore(t *testing.T) *DiskStore {
	t.Helper()

	return NewDiskStore(config.PreferencesConfig{
		Dir:        filepath.Join(t.TempDir(), "prefs"),
		CacheBytes: 1024,
	})
}

func TestDiskStore_RoundTrip(t *testing.T) {
	s := diskStore(t)

	_, ok := s.Get("themePreference")
	assert.False(t, ok)

	require.NoError(t, s.Set("themePreference", "dark"))
	v, ok := s.Get("themePreference")
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	require.NoError(t, s.Set("themePreference", "light"))
	v, _ = s.Get("themePreference")
	assert.Equal(t, "light", v)
}

func TestDiskStore_SurvivesRestart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prefs")

	require.NoError(t, NewDiskStore(config.PreferencesConfig{Dir: dir}).Set("themePreference", "dark"))

	v, ok := NewDiskStore(config.PreferencesConfig{Dir: dir}).Get("themePreference")
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	data, err := os.ReadFile(filepath.Join(dir, "themePreference"))
	require.NoError(t, err)
	assert.Equal(t, "dark", string(data))
}

func TestDiskStore_RejectsPathKeys(t *testing.T) {
	s := diskStore(t)

	for _, key := range []string{"", ".", "..", "../escape", `a\b`, "a/b"} {
		err := s.Set(key, "x")
		require.ErrorIs(t, err, ErrInvalidKey, key)

		_, ok := s.Get(key)
		assert.False(t, ok, key)
	}
}

func TestDiskStore_Probe(t *testing.T) {
	s := diskStore(t)
	require.NoError(t, s.Probe())

	_, ok := s.Get(probeKey)
	assert.False(t, ok, "probe marker is erased")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	bad := NewDiskStore(config.PreferencesConfig{Dir: filepath.Join(blocker, "prefs")})
	assert.Error(t, bad.Probe())
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Get("k")
	assert.False(t, ok)

	require.NoError(t, s.Set("k", "v"))
	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

type failingProbe struct{ *MemoryStore }

func (failingProbe) Probe() error { return errors.New("read-only") }

func TestFirstUsable(t *testing.T) {
	t.Run("first passing probe wins", func(t *testing.T) {
		disk := diskStore(t)
		got := FirstUsable(discardLogger(), failingProbe{NewMemoryStore()}, disk, NewMemoryStore())

		assert.Same(t, disk, got)
	})

	t.Run("stores without probe are usable", func(t *testing.T) {
		plain := mocks.NewMockPreferenceStore(t)
		got := FirstUsable(discardLogger(), nil, plain)

		assert.Same(t, plain, got)
	})

	t.Run("falls back to memory", func(t *testing.T) {
		got := FirstUsable(nil, failingProbe{NewMemoryStore()})

		_, isMemory := got.(*MemoryStore)
		assert.True(t, isMemory)
		require.NoError(t, got.Set("themePreference", "dark"))
	})
}
