package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.jsonl")

	require.NoError(t, AppendToFile(file, "a", "b"))
	require.NoError(t, AppendToFile(file, "c"))

	bs, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, "a\nb\nc\n", string(bs))
}

func TestWriteToFileOverwrites(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.txt")

	require.NoError(t, WriteToFile(file, "first"))
	require.NoError(t, WriteToFile(file, "x", "y"))

	bs, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, "x\ny", string(bs))
}

func TestEnsureDirNested(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
