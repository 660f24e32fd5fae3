package rsrc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/treefairy/imp2dec/pkg/archive"
	"github.com/treefairy/imp2dec/pkg/common"
	"github.com/treefairy/imp2dec/pkg/metrics"
	"github.com/treefairy/imp2dec/pkg/raster"
	"github.com/treefairy/imp2dec/pkg/sound"
	"github.com/treefairy/imp2dec/pkg/storage"
)

// extractor carries the state of one archive's run. Records are parsed on the calling
// goroutine only; encoding and writing of finished records runs on the group.
type extractor struct {
	name    string
	sink    storage.Sink
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// ExtractArchive decodes every record of the archive at archivePath into its own output
// folder (or S3 prefix) named after the archive. Malformed headers and output failures
// abort the archive; undecodable records are reported and skipped.
func ExtractArchive(ctx context.Context, archivePath string, opts ExtractOptions) error {
	opts = opts.withDefaults()

	f, err := os.Open(archivePath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", common.ErrArchiveNotFound, archivePath)
	}
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := archive.Open(f)
	if err != nil {
		return err
	}

	name := opts.Name
	if name == "" {
		name = OutputName(archivePath)
	}
	sinkOpts := storage.SinkOpts{Directory: filepath.Join(opts.OutputPath, filepath.FromSlash(name))}
	if opts.S3 != nil {
		s3Opts := *opts.S3
		s3Opts.Prefix = path.Join(s3Opts.Prefix, name)
		sinkOpts.S3 = &s3Opts
	}

	sink, err := storage.NewSink(ctx, sinkOpts)
	if err != nil {
		return err
	}
	defer sink.Close()

	x := &extractor{
		name:    name,
		sink:    sink,
		metrics: opts.Metrics,
		logger: log.With().
			Str("run_id", uuid.New().String()).
			Str("archive", name).
			Logger(),
	}

	x.logger.Info().
		Uint8("version1", a.Header.Version1).
		Uint8("version2", a.Header.Version2).
		Int("records", len(a.Records)).
		Msg("archive opened")

	start := time.Now()
	if err := x.run(ctx, a, opts.Workers); err != nil {
		return err
	}

	x.logger.Info().Int64("bytes_read", a.Pos()).Dur("took", time.Since(start)).Msg("archive extracted")
	return nil
}

func (x *extractor) run(ctx context.Context, a *archive.Archive, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for gctx.Err() == nil {
		rec, err := a.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			x.fail(rec, err)
			continue
		}

		switch rec.Type {
		case common.RecordTypeImage:
			x.image(gctx, g, rec)
		case common.RecordTypeAudio:
			x.audio(gctx, g, rec)
		default:
			x.logger.Warn().Int("slot", rec.Slot).Msgf("resources of type %q are not supported", rec.TagString())
			x.metrics.RecordSkipped(x.name, rec.Slot, rec.RecordID, rec.Type.String(), common.ErrUnsupportedRecordType.Error())
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (x *extractor) fail(rec *archive.Record, err error) {
	x.logger.Error().Err(err).Int("slot", rec.Slot).Int32("record_id", rec.RecordID).Msg("record failed")
	x.metrics.RecordFailed(x.name, rec.Slot, rec.RecordID, rec.Type.String(), err.Error())
}

func (x *extractor) image(ctx context.Context, g *errgroup.Group, rec *archive.Record) {
	start := time.Now()

	h, r, err := raster.Decode(rec.Payload)
	if errors.Is(err, common.ErrUnsupportedColorDepth) {
		x.logger.Warn().Int("slot", rec.Slot).Msgf("%d-bit image extraction not supported", h.Depth)
		x.metrics.RecordSkipped(x.name, rec.Slot, rec.RecordID, rec.Type.String(), err.Error())
		return
	}
	if err != nil {
		x.fail(rec, err)
		return
	}

	x.metrics.RecordDecoded(x.name, rec.Slot, rec.RecordID, rec.Type.String(), time.Since(start))
	x.logger.Debug().
		Int("slot", rec.Slot).
		Int("depth", r.Depth).
		Int("width", r.Width).
		Int("height", r.Height).
		Bool("width_corrected", r.Corrected).
		Msg("image decoded")

	name := ImageFileName(rec.RecordDescriptor, r)
	g.Go(func() error {
		data, err := EncodeRaster(r)
		if err != nil {
			x.fail(rec, err)
			return nil
		}
		return x.put(ctx, rec, name, data)
	})
}

func (x *extractor) audio(ctx context.Context, g *errgroup.Group, rec *archive.Record) {
	start := time.Now()

	clip, err := sound.Decode(rec.Payload)
	if err != nil {
		x.fail(rec, err)
		return
	}

	x.metrics.RecordDecoded(x.name, rec.Slot, rec.RecordID, rec.Type.String(), time.Since(start))
	x.logger.Debug().
		Int("slot", rec.Slot).
		Uint32("channels", clip.Channels).
		Uint32("sample_rate", clip.SampleRate).
		Uint32("bits", clip.BitsPerSample).
		Dur("duration", clip.Duration()).
		Msg("sound decoded")

	rawName, wavName := SoundFileNames(rec.RecordDescriptor)
	g.Go(func() error {
		if err := x.put(ctx, rec, rawName, clip.Data); err != nil {
			return err
		}
		wav, err := clip.EncodeWAV()
		if err != nil {
			x.fail(rec, err)
			return nil
		}
		return x.put(ctx, rec, wavName, wav)
	})
}

// put hands a finished file to the sink. Sink failures are returned and stop the run.
func (x *extractor) put(ctx context.Context, rec *archive.Record, name string, data []byte) error {
	if err := x.sink.Put(ctx, name, bytes.NewReader(data), int64(len(data))); err != nil {
		x.fail(rec, err)
		return err
	}

	x.metrics.RecordWrite(x.name, rec.Slot, name, int64(len(data)))
	x.logger.Info().Int("slot", rec.Slot).Msgf("saved %s", x.sink.Location(name))
	return nil
}
