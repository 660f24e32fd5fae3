package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/treefairy/imp2dec/pkg/common"
)

// LocalSink writes outputs into a directory. It holds an exclusive lock on <dir>.lock
// until Close so two runs never interleave writes into the same folder.
type LocalSink struct {
	dir      string
	lockPath string
	fileLock *flock.Flock
}

func NewLocalSink(dir string) (*LocalSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	lockPath := filepath.Clean(dir) + ".lock"
	fileLock := flock.New(lockPath)

	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", common.ErrOutputLocked, dir)
	}

	return &LocalSink{
		dir:      dir,
		lockPath: lockPath,
		fileLock: fileLock,
	}, nil
}

// Put writes to a temporary name first and renames into place, so a failed write never
// leaves a truncated output behind.
func (s *LocalSink) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.Location(name)
	tmp := fmt.Sprintf("%s.%s", target, uuid.New().String()[:6])

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && size >= 0 && n != size {
		err = fmt.Errorf("short write: %d of %d bytes", n, size)
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", target, err)
	}

	return nil
}

func (s *LocalSink) Location(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *LocalSink) Close() error {
	if err := s.fileLock.Unlock(); err != nil {
		log.Warn().Err(err).Str("path", s.lockPath).Msg("failed to release output lock")
		return err
	}
	return os.Remove(s.lockPath)
}
