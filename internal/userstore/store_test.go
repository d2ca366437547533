package userstore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "usernames.txt")
	require.NoError(t, EnsureFile(path))
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestExistsOnEmptyStore(t *testing.T) {
	s := openTestStore(t)
	ok, err := s.Exists("alice")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRegisterThenExists(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Register("alice"))

	ok, err := s.Exists("alice")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Exists("bob")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestExistsIsExactMatch(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Register("alice"))

	ok, err := s.Exists("alic")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConcurrentRegisterIsSerialized(t *testing.T) {
	s := openTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, s.Register("user"))
			_, err := s.Exists("user")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// 50 concurrent registrations must produce exactly 50 well-formed
	// lines, none interleaved or truncated by a racing writer.
	data, err := os.ReadFile(s.path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 50)
	for _, line := range lines {
		require.Equal(t, "user", line)
	}
}
