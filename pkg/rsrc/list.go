package rsrc

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/treefairy/imp2dec/pkg/archive"
	"github.com/treefairy/imp2dec/pkg/common"
	"github.com/treefairy/imp2dec/pkg/raster"
	"github.com/treefairy/imp2dec/pkg/sound"
)

// Listing is an archive's header and descriptor table.
type Listing struct {
	Path    string
	Header  common.ArchiveHeader
	Records []common.RecordDescriptor
	// Details is filled by InspectArchive only, one entry per record.
	Details []RecordDetail
}

// RecordDetail is what a record's payload says about itself.
type RecordDetail struct {
	Image *raster.ContentHeader
	Sound *sound.Summary
	Err   error
}

func (d RecordDetail) String() string {
	switch {
	case d.Err != nil:
		return "error: " + d.Err.Error()
	case d.Image != nil:
		return fmt.Sprintf("%d-bit %dx%d, %d frame(s)", d.Image.Depth, d.Image.Width, d.Image.Height, d.Image.FrameCount)
	case d.Sound != nil:
		s := d.Sound
		return fmt.Sprintf("%dch %dHz %d-bit, %.2fs, peak %.2f", s.Channels, s.SampleRate, s.BitsPerSample, s.Duration.Seconds(), s.Peak)
	default:
		return ""
	}
}

func openArchive(archivePath string) (*os.File, *archive.Archive, error) {
	f, err := os.Open(archivePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", common.ErrArchiveNotFound, archivePath)
	}
	if err != nil {
		return nil, nil, err
	}

	a, err := archive.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, a, nil
}

// ListArchive reads only the header and descriptor table of an archive.
func ListArchive(archivePath string) (*Listing, error) {
	f, a, err := openArchive(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return &Listing{
		Path:    archivePath,
		Header:  a.Header,
		Records: a.Records,
	}, nil
}

// InspectArchive lists an archive and also reads every payload: image content headers
// and a PCM summary of every sound. Nothing is written.
func InspectArchive(archivePath string) (*Listing, error) {
	f, a, err := openArchive(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	listing := &Listing{
		Path:    archivePath,
		Header:  a.Header,
		Records: a.Records,
		Details: make([]RecordDetail, 0, len(a.Records)),
	}

	for {
		rec, err := a.Next()
		if err == io.EOF {
			break
		}

		var d RecordDetail
		switch {
		case err != nil:
			d.Err = err
		case rec.Type == common.RecordTypeImage:
			d.Image, d.Err = raster.DecodeHeader(rec.Payload)
		case rec.Type == common.RecordTypeAudio:
			clip, err := sound.Decode(rec.Payload)
			if err != nil {
				d.Err = err
				break
			}
			s, err := clip.Summarize()
			if err != nil {
				d.Err = err
				break
			}
			d.Sound = &s
		}
		listing.Details = append(listing.Details, d)
	}

	return listing, nil
}
