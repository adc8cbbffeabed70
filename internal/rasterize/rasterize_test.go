package rasterize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestListPages_SortsByFilenameAndNumbersFromStart(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page-07.jpg"), 30)
	writeFile(t, filepath.Join(dir, "page-05.jpg"), 10)
	writeFile(t, filepath.Join(dir, "page-06.jpg"), 20)
	writeFile(t, filepath.Join(dir, "notes.txt"), 1)

	pages, err := ListPages(dir, 5)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	for i, p := range pages {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, 5+i, p.PageNumber)
		assert.Equal(t, int64(10*(i+1)), p.Size)
	}
	assert.Equal(t, "page-05.jpg", filepath.Base(pages[0].Path))
}

func TestPageFileName_SortsPastThousand(t *testing.T) {
	assert.Equal(t, "page-7.jpg", PageFileName("page", 7, 9))
	assert.Equal(t, "page-007.jpg", PageFileName("page", 7, 480))
	assert.Equal(t, "page-0999.jpg", PageFileName("page", 999, 1200))
	assert.Equal(t, "page-1000.jpg", PageFileName("page", 1000, 1200))

	dir := t.TempDir()
	for _, n := range []int{1001, 998, 999, 1000} {
		writeFile(t, filepath.Join(dir, PageFileName("page", n, 1200)), n)
	}
	pages, err := ListPages(dir, 998)
	require.NoError(t, err)
	require.Len(t, pages, 4)
	for i, p := range pages {
		assert.Equal(t, 998+i, p.PageNumber)
		assert.Equal(t, int64(998+i), p.Size)
	}
}

func TestPdftoppm_ArgsAndListing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page-99.jpg"), 1) // stale output from a previous run

	p := NewPdftoppm("")
	var gotName string
	var gotArgs []string
	p.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		writeFile(t, filepath.Join(dir, "page-5.jpg"), 100)
		writeFile(t, filepath.Join(dir, "page-6.jpg"), 200)
		return nil, nil
	}

	pages, err := p.Rasterize(context.Background(), Request{Source: "vol.pdf", Start: 5, End: 6, OutDir: dir})
	require.NoError(t, err)

	assert.Equal(t, "pdftoppm", gotName)
	assert.Equal(t, []string{"-jpeg", "-r", "300", "-f", "5", "-l", "6", "vol.pdf", filepath.Join(dir, "page")}, gotArgs)
	require.Len(t, pages, 2)
	assert.Equal(t, 5, pages[0].PageNumber)
	assert.Equal(t, int64(200), pages[1].Size)
}

func TestPdftoppm_SurfacesToolOutputOnFailure(t *testing.T) {
	p := NewPdftoppm("pdftoppm")
	p.run = func(context.Context, string, ...string) ([]byte, error) {
		return []byte("I/O Error: Couldn't open file"), errors.New("exit status 1")
	}

	_, err := p.Rasterize(context.Background(), Request{Source: "missing.pdf", Start: 1, End: 2, OutDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Couldn't open file")
}

func TestRequestValidation(t *testing.T) {
	p := NewPdftoppm("")
	p.run = func(context.Context, string, ...string) ([]byte, error) { return nil, nil }

	_, err := p.Rasterize(context.Background(), Request{Source: "a.pdf", Start: 8, End: 5, OutDir: t.TempDir()})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	r, err := New("fitz", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "fitz", r.Name())

	r, err = New("", "/usr/bin/pdftoppm", 0)
	require.NoError(t, err)
	assert.Equal(t, "pdftoppm", r.Name())

	_, err = New("ghostscript", "", 0)
	assert.Error(t, err)
}
