package storage

import (
	"context"
	"io"
)

// Sink receives the files produced by an extraction run.
type Sink interface {
	// Put stores size bytes read from r under name.
	Put(ctx context.Context, name string, r io.Reader, size int64) error
	// Location describes where name ends up, for logging.
	Location(name string) string
	Close() error
}

type SinkOpts struct {
	// Directory receives the outputs when S3 is nil.
	Directory string
	S3        *S3SinkOpts
}

// NewSink picks the sink described by opts.
func NewSink(ctx context.Context, opts SinkOpts) (Sink, error) {
	if opts.S3 != nil && opts.S3.Bucket != "" {
		return NewS3Sink(ctx, *opts.S3)
	}
	return NewLocalSink(opts.Directory)
}
