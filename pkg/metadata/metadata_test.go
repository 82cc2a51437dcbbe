package metadata_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/nondestruct/pkg/metadata"
	"gitlab.com/tozd/go/errors"
)

func TestStatReadTags(t *testing.T) {
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	path := filepath.Join(t.TempDir(), "photo.JPG")
	require.NoError(t, os.WriteFile(path, []byte("pixels"), 0o644))

	tags, err := metadata.Stat{}.ReadTags(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, int64(6), tags["size"])
	assert.Equal(t, ".jpg", tags["extension"])
	assert.Len(t, tags["blake3"], 64, "blake3 digest should be 32 bytes hex encoded")

	sum, err := metadata.HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, sum, tags["blake3"])
}

func TestStatReadTagsErrors(t *testing.T) {
	ctx := context.Background()

	_, err := metadata.Stat{}.ReadTags(ctx, filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
	assert.ErrorIs(t, err, metadata.ErrRead)
	assert.ErrorIs(t, err, os.ErrNotExist, "cause should stay reachable")

	_, err = metadata.Stat{}.ReadTags(ctx, t.TempDir())
	assert.ErrorIs(t, err, metadata.ErrRead)

	var readErr *metadata.ReadError
	require.True(t, errors.As(err, &readErr))
	assert.Contains(t, readErr.Error(), "is a directory")
}

func TestExifToolMissingBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := metadata.ExifTool{Binary: filepath.Join(t.TempDir(), "no-such-exiftool")}.ReadTags(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, metadata.ErrRead)
}

func TestExifToolReadTags(t *testing.T) {
	if _, err := exec.LookPath("exiftool"); err != nil {
		t.Skip("exiftool not installed")
	}

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	tags, err := metadata.ExifTool{}.ReadTags(context.Background(), path)
	require.NoError(t, err)
	assert.NotContains(t, tags, "SourceFile")
	assert.Equal(t, "notes.txt", tags["FileName"])
}

func TestWrapReadError(t *testing.T) {
	assert.NoError(t, metadata.WrapReadError("a.jpg", nil))

	cause := errors.New("reader crashed")
	wrapped := metadata.WrapReadError("a.jpg", cause)
	assert.ErrorIs(t, wrapped, metadata.ErrRead)
	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorContains(t, wrapped, "a.jpg")

	_, already := metadata.Stat{}.ReadTags(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, already)
	assert.True(t, already == metadata.WrapReadError("missing.jpg", already), "errors that already match are kept as is")
}
