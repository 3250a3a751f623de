package output

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestMakeNonOverlappingFilename(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "index.html")
	assert.Equal(t, path, makeNonOverlappingFilename(path))

	touch(t, path)
	assert.Equal(t, path+".1", makeNonOverlappingFilename(path))

	touch(t, path+".1")
	assert.Equal(t, path+".2", makeNonOverlappingFilename(path))
}

func TestNewFileWriterDefaultsToURLBasename(t *testing.T) {
	u, err := url.Parse("http://example.com/files/report.pdf")
	require.NoError(t, err)

	writer := NewFileWriter(u, &Options{})
	assert.Equal(t, "report.pdf", writer.Filename())
}

func TestNewFileWriterHonorsOutputFile(t *testing.T) {
	u, err := url.Parse("http://example.com/files/report.pdf")
	require.NoError(t, err)

	dir := t.TempDir()
	target := filepath.Join(dir, "out.bin")
	writer := NewFileWriter(u, &Options{OutputFile: target, Overwrite: true})
	assert.Equal(t, "out.bin", writer.Filename())
}
