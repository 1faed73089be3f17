package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCopyCoinFileCreatesDirAndCopiesContent(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := filepath.Join(t.TempDir(), "nested", "backup")

	src := filepath.Join(srcDir, "3.coin")
	require.NoError(t, os.WriteFile(src, []byte("deadbeef"), 0o600))

	require.NoError(t, CopyCoinFile(src, dstDir, 3))

	data, err := os.ReadFile(filepath.Join(dstDir, "3.coin"))
	require.NoError(t, err)
	require.Equal(t, "deadbeef", string(data))
}

func TestCopyCoinFileMissingSourceFails(t *testing.T) {
	err := CopyCoinFile(filepath.Join(t.TempDir(), "nope.coin"), t.TempDir(), 1)
	require.Error(t, err)
}
