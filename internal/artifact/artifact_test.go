package artifact_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stevenfazzio/half-america/internal/artifact"
)

type record struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "rec.json.zst")
	in := record{Name: "x", Values: []float64{0.1, 1e-300, 12345.678}}
	require.NoError(t, artifact.Write(path, in))

	var out record
	require.NoError(t, artifact.Read(path, &out))
	require.Equal(t, in, out)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	var out record

	err := artifact.Read(filepath.Join(dir, "missing"), &out)
	require.True(t, errors.Is(err, fs.ErrNotExist))

	junk := filepath.Join(dir, "junk")
	require.NoError(t, os.WriteFile(junk, []byte("plain text"), 0o644))
	require.Error(t, artifact.Read(junk, &out))
}

func TestWriteUnencodable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json.zst")
	require.Error(t, artifact.Write(path, make(chan int)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "temporary file left behind")
}
