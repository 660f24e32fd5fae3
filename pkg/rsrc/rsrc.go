// Package rsrc extracts the images and sounds stored in RSRC resource archives.
package rsrc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/treefairy/imp2dec/pkg/common"
	"github.com/treefairy/imp2dec/pkg/metrics"
	"github.com/treefairy/imp2dec/pkg/storage"
)

const (
	DefaultWorkers   = 4
	ArchiveExtension = ".rsrc"
)

// SetLogLevel configures the logging verbosity.
// Valid levels: "debug", "info", "warn", "error", "disabled"
// Use "debug" to see the descriptor table and per-record timings
func SetLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "disabled", "none", "off":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		return fmt.Errorf("invalid log level %q: must be one of: debug, info, warn, error, disabled", level)
	}
	return nil
}

type ExtractOptions struct {
	// InputPath is an archive, or a directory searched for *.rsrc archives.
	InputPath string
	// OutputPath is the parent of the per-archive output folders.
	OutputPath string
	Workers    int
	// Name overrides the output folder and metrics key of a single archive. It may
	// contain slashes, which become nested folders. Defaults to OutputName.
	Name string
	// S3, when it names a bucket, replaces the local output folders.
	S3      *storage.S3SinkOpts
	Metrics *metrics.Metrics
}

func (o ExtractOptions) withDefaults() ExtractOptions {
	if o.OutputPath == "" {
		o.OutputPath = "."
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewMetrics()
	}
	return o
}

// Extract extracts InputPath. A missing input yields ErrArchiveNotFound and produces no
// output. For a directory every archive below it is extracted; an archive that fails is
// reported and the rest still run, and the failures are returned joined.
func Extract(ctx context.Context, opts ExtractOptions) error {
	opts = opts.withDefaults()

	fi, err := os.Stat(opts.InputPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", common.ErrArchiveNotFound, opts.InputPath)
	}
	if err != nil {
		return err
	}

	if !fi.IsDir() {
		return ExtractArchive(ctx, opts.InputPath, opts)
	}

	archives, err := FindArchives(opts.InputPath)
	if err != nil {
		return err
	}
	log.Info().Msgf("found %d archives in %s", len(archives), opts.InputPath)

	var errs []error
	owners := make(map[string]string, len(archives))
	for _, p := range archives {
		name, err := BatchOutputName(opts.InputPath, p)
		if err != nil {
			return err
		}
		if owner, ok := owners[name]; ok {
			err := fmt.Errorf("%w: %s and %s both map to %s", common.ErrDuplicateOutput, owner, p, name)
			log.Error().Err(err).Str("archive", p).Msg("extraction skipped")
			errs = append(errs, err)
			continue
		}
		owners[name] = p

		archiveOpts := opts
		archiveOpts.Name = name
		if err := ExtractArchive(ctx, p, archiveOpts); err != nil {
			log.Error().Err(err).Str("archive", p).Msg("extraction failed")
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			if ctx.Err() != nil {
				break
			}
		}
	}
	return errors.Join(errs...)
}

// FindArchives lists the *.rsrc files below root, in lexical order.
func FindArchives(root string) ([]string, error) {
	var archives []string
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsRegular() && strings.EqualFold(filepath.Ext(path), ArchiveExtension) {
				archives = append(archives, path)
			}
			return nil
		},
		Unsorted: false,
	})
	return archives, err
}

// BatchOutputName names the output of an archive found below root: its path relative to
// root, without extension, with forward slashes. Archives in different folders never
// share a name; the only collisions left are names differing in extension case.
func BatchOutputName(root, archivePath string) (string, error) {
	rel, err := filepath.Rel(root, archivePath)
	if err != nil {
		return "", err
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.ToSlash(rel), nil
}

// OutputName is the folder name used for an archive: its base name without extension.
func OutputName(archivePath string) string {
	base := filepath.Base(archivePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
