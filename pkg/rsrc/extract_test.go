package rsrc

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/treefairy/imp2dec/internal/rsrctest"
	"github.com/treefairy/imp2dec/pkg/common"
	"github.com/treefairy/imp2dec/pkg/metrics"
	"github.com/treefairy/imp2dec/pkg/raster"
)

func bgr(r, g, b byte) []byte { return []byte{b, g, r} }

func sampleArchive() *rsrctest.Builder {
	image24 := rsrctest.ImagePayload(3, 2, 24, bytes.Join([][]byte{
		bgr(255, 0, 0), bgr(0, 255, 0), bgr(0, 0, 255),
		bgr(10, 20, 30), bgr(40, 50, 60), bgr(70, 80, 90),
	}, nil))

	// opaque 16-bit pixels, low byte first; the fourth is row padding
	image16 := rsrctest.ImagePayload(3, 1, 16, []byte{
		0x00, 0xFC,
		0xE0, 0x83,
		0x1F, 0x80,
		0x00, 0x00,
	})

	palette := [][3]byte{{0, 0, 0}, {200, 100, 50}, {1, 2, 3}}
	image8 := rsrctest.IndexedPayload(2, 1, palette, []byte{1, 2, 0, 0})

	sound := rsrctest.AudioPayload(1, 22050, 16, []byte{1, 0, 2, 0, 3, 0})

	return rsrctest.New().
		Image(7, image24).
		Image(8, image16).
		Unknown("MIDI").
		Audio(9, sound).
		Image(10, image8).
		Image(11, rsrctest.ImagePayload(1, 1, 32, make([]byte, 4)))
}

func readImage(t *testing.T, path string, decode func(r *os.File) (image.Image, error)) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := decode(f)
	require.NoError(t, err)
	return img
}

func nrgba(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

func TestExtractArchive(t *testing.T) {
	path := sampleArchive().WriteFile(t, t.TempDir(), "units.rsrc")
	out := filepath.Join(t.TempDir(), "out")
	m := metrics.NewMetrics()

	err := Extract(context.Background(), ExtractOptions{
		InputPath:  path,
		OutputPath: out,
		Workers:    2,
		Metrics:    m,
	})
	require.NoError(t, err)

	dir := filepath.Join(out, "units")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"1_7_24bit_3_x_2.bmp",
		"2_8_16bit_3_x_1.bmp",
		"4_9.raw",
		"4_9.wav",
		"5_10_8bit_2_x_1.png",
	}, names)
	assert.NoFileExists(t, filepath.Join(out, "units.lock"))

	t.Run("24-bit", func(t *testing.T) {
		img := readImage(t, filepath.Join(dir, "1_7_24bit_3_x_2.bmp"), func(f *os.File) (image.Image, error) { return bmp.Decode(f) })
		assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
		// bottom scanline is the first stored row, each row mirrored
		assert.Equal(t, color.NRGBA{R: 0, G: 0, B: 255, A: 255}, nrgba(img.At(0, 1)))
		assert.Equal(t, color.NRGBA{R: 255, G: 0, B: 0, A: 255}, nrgba(img.At(2, 1)))
		assert.Equal(t, color.NRGBA{R: 70, G: 80, B: 90, A: 255}, nrgba(img.At(0, 0)))
	})

	t.Run("16-bit", func(t *testing.T) {
		img := readImage(t, filepath.Join(dir, "2_8_16bit_3_x_1.bmp"), func(f *os.File) (image.Image, error) { return bmp.Decode(f) })
		assert.Equal(t, image.Rect(0, 0, 3, 1), img.Bounds())
		assert.Equal(t, color.NRGBA{B: 248, A: 255}, nrgba(img.At(0, 0)))
		assert.Equal(t, color.NRGBA{G: 248, A: 255}, nrgba(img.At(1, 0)))
		assert.Equal(t, color.NRGBA{R: 248, A: 255}, nrgba(img.At(2, 0)))
	})

	t.Run("8-bit", func(t *testing.T) {
		img := readImage(t, filepath.Join(dir, "5_10_8bit_2_x_1.png"), func(f *os.File) (image.Image, error) { return png.Decode(f) })
		paletted, ok := img.(*image.Paletted)
		require.True(t, ok, "8-bit records keep their palette")
		assert.Equal(t, []uint8{2, 1}, paletted.Pix)
		assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, nrgba(paletted.At(1, 0)))
	})

	t.Run("sound", func(t *testing.T) {
		raw, err := os.ReadFile(filepath.Join(dir, "4_9.raw"))
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 0, 2, 0, 3, 0}, raw)

		wav, err := os.ReadFile(filepath.Join(dir, "4_9.wav"))
		require.NoError(t, err)
		assert.Len(t, wav, 44+len(raw))
		assert.Equal(t, raw, wav[44:])
	})

	s := m.Summary()
	assert.Equal(t, 4, s.Decoded)
	assert.Equal(t, 2, s.Skipped)
	assert.Equal(t, 0, s.Failed)
	assert.Equal(t, 5, s.FilesWritten)

	results := m.Results()
	require.Len(t, results, 6)
	assert.Equal(t, metrics.OutcomeSkipped, results[2].Outcome)
	assert.Equal(t, 3, results[2].Slot)
	assert.Equal(t, metrics.OutcomeSkipped, results[5].Outcome)
	assert.Equal(t, []string{"4_9.raw", "4_9.wav"}, results[3].Files)
}

func TestExtractArchiveIsRepeatable(t *testing.T) {
	path := sampleArchive().WriteFile(t, t.TempDir(), "units.rsrc")
	out := t.TempDir()

	for i := 0; i < 2; i++ {
		require.NoError(t, ExtractArchive(context.Background(), path, ExtractOptions{OutputPath: out}))
	}
	entries, err := os.ReadDir(filepath.Join(out, "units"))
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestExtractArchiveBadRecords(t *testing.T) {
	sound := rsrctest.AudioPayload(1, 8000, 8, []byte{1, 2, 3})

	path := rsrctest.New().
		Audio(1, sound).
		Image(2, rsrctest.ImagePayload(0, 5, 24, nil)).
		Image(3, rsrctest.ImagePayload(4, 4, 24, make([]byte, 5))).
		Audio(4, []byte{1, 2}).
		Audio(5, sound).
		Oversize(50).
		WriteFile(t, t.TempDir(), "bad.rsrc")
	out := t.TempDir()
	m := metrics.NewMetrics()

	err := ExtractArchive(context.Background(), path, ExtractOptions{OutputPath: out, Metrics: m})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(out, "bad", "1_1.wav"))
	assert.NoFileExists(t, filepath.Join(out, "bad", "5_5.wav"))

	s := m.Summary()
	assert.Equal(t, 1, s.Decoded)
	assert.Equal(t, 4, s.Failed)

	reasons := map[int]string{}
	for _, r := range m.Results() {
		reasons[r.Slot] = r.Reason
	}
	assert.Contains(t, reasons[2], common.ErrInvalidDimensions.Error())
	assert.Contains(t, reasons[3], common.ErrTruncatedRecord.Error())
	assert.Contains(t, reasons[4], common.ErrTruncatedRecord.Error())
	assert.Contains(t, reasons[5], common.ErrTruncatedRecord.Error())
}

func TestExtractArchiveMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.rsrc")
	require.NoError(t, os.WriteFile(path, []byte("rsrX0000"), 0644))
	out := filepath.Join(dir, "out")

	err := ExtractArchive(context.Background(), path, ExtractOptions{OutputPath: out})
	assert.ErrorIs(t, err, common.ErrMalformedHeader)
	assert.NoDirExists(t, filepath.Join(out, "junk"))
}

func TestExtractArchiveOutputLocked(t *testing.T) {
	path := sampleArchive().WriteFile(t, t.TempDir(), "units.rsrc")
	out := t.TempDir()

	held := flock.New(filepath.Join(out, "units.lock"))
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	err = ExtractArchive(context.Background(), path, ExtractOptions{OutputPath: out})
	assert.ErrorIs(t, err, common.ErrOutputLocked)
}

func TestExtractArchiveCancelled(t *testing.T) {
	path := sampleArchive().WriteFile(t, t.TempDir(), "units.rsrc")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ExtractArchive(ctx, path, ExtractOptions{OutputPath: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutputFileNames(t *testing.T) {
	payload := rsrctest.ImagePayload(3, 1, 16, make([]byte, 8))
	path := rsrctest.New().Image(-4, payload).WriteFile(t, t.TempDir(), "n.rsrc")

	listing, err := ListArchive(path)
	require.NoError(t, err)
	d := listing.Records[0]

	_, r, err := raster.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "1_-4_16bit_3_x_1.bmp", ImageFileName(d, r))

	raw, wav := SoundFileNames(d)
	assert.Equal(t, "1_-4.raw", raw)
	assert.Equal(t, "1_-4.wav", wav)
}
