package odpn

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocumentIDs(t *testing.T) {
	html, err := os.ReadFile(filepath.Join("testdata", "documents.html"))
	require.NoError(t, err)

	ids, err := DocumentIDs(string(html))
	require.NoError(t, err)
	require.Equal(t, []int64{28677, 28678}, ids)
}

func TestDocumentIDsEmptyGrid(t *testing.T) {
	ids, err := DocumentIDs(`<div class="x-grid3-body"></div>`)
	require.NoError(t, err)
	require.Empty(t, ids)
}
