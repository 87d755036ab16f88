package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xrefs.rec.snap")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestRegion_Read(t *testing.T) {
	content := []byte("Q42 P214/113230702")
	for _, access := range []Access{Normal, Sequential, Random} {
		r, err := Open(writeTemp(t, content), access)
		require.NoError(t, err)

		assert.Equal(t, len(content), r.Size())
		assert.Equal(t, content, r.Bytes())

		assert.Equal(t, "P214", string(r.Bytes()[4:8]))

		require.NoError(t, r.Close())
	}
}

func TestRegion_EmptyFile(t *testing.T) {
	r, err := Open(writeTemp(t, nil), Random)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Size())
	assert.Empty(t, r.Bytes())
	assert.NoError(t, r.Close())
}

func TestRegion_Closed(t *testing.T) {
	r, err := Open(writeTemp(t, []byte("Q5")), Sequential)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	assert.Nil(t, r.Bytes())
	assert.Equal(t, 2, r.Size())
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.snap"), Random)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
