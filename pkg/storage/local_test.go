package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treefairy/imp2dec/pkg/common"
)

func TestLocalSinkPut(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "archive")

	sink, err := NewLocalSink(dir)
	require.NoError(t, err)

	data := []byte("pixels")
	require.NoError(t, sink.Put(context.Background(), "1_2.bmp", bytes.NewReader(data), int64(len(data))))

	got, err := os.ReadFile(filepath.Join(dir, "1_2.bmp"))
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, filepath.Join(dir, "1_2.bmp"), sink.Location("1_2.bmp"))

	assert.FileExists(t, dir+".lock")
	require.NoError(t, sink.Close())
	assert.NoFileExists(t, dir+".lock")
}

func TestLocalSinkOverwrites(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewLocalSink(filepath.Join(dir, "a"))
	require.NoError(t, err)
	defer sink.Close()

	ctx := context.Background()
	require.NoError(t, sink.Put(ctx, "f", strings.NewReader("first version"), -1))
	require.NoError(t, sink.Put(ctx, "f", strings.NewReader("second"), 6))

	got, err := os.ReadFile(sink.Location("f"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestLocalSinkShortWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a")
	sink, err := NewLocalSink(dir)
	require.NoError(t, err)
	defer sink.Close()

	err = sink.Put(context.Background(), "f", strings.NewReader("abc"), 10)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed writes must not leave files behind")
}

func TestLocalSinkCancelled(t *testing.T) {
	sink, err := NewLocalSink(filepath.Join(t.TempDir(), "a"))
	require.NoError(t, err)
	defer sink.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sink.Put(ctx, "f", strings.NewReader("x"), 1), context.Canceled)
}

func TestLocalSinkLocked(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a")

	first, err := NewLocalSink(dir)
	require.NoError(t, err)

	_, err = NewLocalSink(dir)
	assert.ErrorIs(t, err, common.ErrOutputLocked)

	require.NoError(t, first.Close())

	second, err := NewLocalSink(dir)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestNewSinkDefaultsToLocal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a")

	sink, err := NewSink(context.Background(), SinkOpts{Directory: dir, S3: &S3SinkOpts{}})
	require.NoError(t, err)
	defer sink.Close()

	assert.IsType(t, &LocalSink{}, sink)
}
