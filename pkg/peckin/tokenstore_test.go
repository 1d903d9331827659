package peckin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileTokenStore(t *testing.T) {
	s := &FileTokenStore{Path: filepath.Join(t.TempDir(), "nested", "session.json")}

	tok, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, tok)

	require.NoError(t, s.Save("refresh-1"))
	info, err := os.Stat(s.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err = s.Load()
	require.NoError(t, err)
	require.Equal(t, "refresh-1", tok)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	tok, err = s.Load()
	require.NoError(t, err)
	require.Empty(t, tok)
}
