package archive

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/treefairy/imp2dec/pkg/common"
)

// Archive is an opened RSRC stream: its header and descriptor table are parsed, and the
// payloads are handed out one at a time, strictly in table order, by Next.
type Archive struct {
	Header  common.ArchiveHeader
	Records []common.RecordDescriptor

	cursor *Cursor
	next   int
}

// Record is a descriptor together with its payload. Payload is nil for unrecognized
// descriptors, which own no bytes in the payload area.
type Record struct {
	common.RecordDescriptor
	Payload []byte
}

// Open parses the archive header and the full descriptor table from r. The returned
// Archive continues reading r from the first payload byte.
func Open(r io.Reader) (*Archive, error) {
	c := NewCursor(r)

	header, err := ReadHeader(c)
	if err != nil {
		return nil, err
	}

	records, err := ReadDescriptors(c, int(header.RecordCount))
	if err != nil {
		return nil, err
	}

	return &Archive{
		Header:  header,
		Records: records,
		cursor:  c,
	}, nil
}

// ReadHeader reads and verifies the 16-byte archive header.
func ReadHeader(c *Cursor) (common.ArchiveHeader, error) {
	var header common.ArchiveHeader

	magic, err := c.ReadTag()
	if err != nil {
		return header, fmt.Errorf("%w: %v", common.ErrMalformedHeader, err)
	}
	if magic != common.ArchiveMagic {
		return header, fmt.Errorf("%w: got %q", common.ErrMalformedHeader, magic[:])
	}
	header.Magic = magic

	fields := []*uint8{&header.Version1, &header.Version2, &header.RecordCount}
	for _, field := range fields {
		if *field, err = c.ReadPadded(); err != nil {
			return header, fmt.Errorf("%w: %v", common.ErrMalformedHeader, err)
		}
	}

	return header, nil
}

// ReadDescriptors reads count descriptors. Image and audio tags carry a 12-byte body;
// any other tag is kept as an unrecognized descriptor with zeroed fields.
func ReadDescriptors(c *Cursor, count int) ([]common.RecordDescriptor, error) {
	records := make([]common.RecordDescriptor, count)

	for i := range records {
		d := &records[i]
		d.Slot = i + 1

		tag, err := c.ReadTag()
		if err != nil {
			return nil, fmt.Errorf("%w: descriptor %d: %v", common.ErrTruncatedTable, d.Slot, err)
		}
		d.Tag = tag
		d.Type = common.ClassifyTag(tag)

		if !d.Recognized() {
			log.Warn().Int("slot", d.Slot).Str("tag", d.TagString()).Msg("unknown record type in descriptor table")
			continue
		}

		if d.RecordID, err = c.ReadInt32(); err == nil {
			if d.StartOffset, err = c.ReadUint32(); err == nil {
				d.DataSize, err = c.ReadUint32()
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: descriptor %d: %v", common.ErrTruncatedTable, d.Slot, err)
		}

		log.Debug().
			Int("slot", d.Slot).
			Int32("record_id", d.RecordID).
			Uint32("start", d.StartOffset).
			Uint32("size", d.DataSize).
			Msg("descriptor")
	}

	return records, nil
}

// Next returns the next record in table order, or io.EOF once every descriptor has been
// visited. A recognized record consumes exactly its declared size from the stream; when
// the stream ends early the record is returned along with ErrTruncatedRecord.
func (a *Archive) Next() (*Record, error) {
	if a.next >= len(a.Records) {
		return nil, io.EOF
	}

	rec := &Record{RecordDescriptor: a.Records[a.next]}
	a.next++

	if !rec.Recognized() {
		return rec, nil
	}

	payload, err := a.cursor.ReadUpTo(int64(rec.DataSize))
	if err != nil && !errors.Is(err, io.EOF) {
		return rec, fmt.Errorf("slot %d: %w", rec.Slot, err)
	}
	if int64(len(payload)) < int64(rec.DataSize) {
		return rec, fmt.Errorf("%w: slot %d: have %d of %d bytes", common.ErrTruncatedRecord, rec.Slot, len(payload), rec.DataSize)
	}

	rec.Payload = payload
	return rec, nil
}

// Pos reports how many archive bytes have been consumed.
func (a *Archive) Pos() int64 {
	return a.cursor.Pos()
}
