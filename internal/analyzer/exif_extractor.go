package analyzer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

var (
	exifHeader   = []byte("Exif\x00\x00")
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
)

// exifExtractor implements MetadataExtractor with goexif
type exifExtractor struct{}

// NewEXIFExtractor creates the production metadata extractor
func NewEXIFExtractor() MetadataExtractor {
	return exifExtractor{}
}

// Extract decodes the EXIF segment of the encoded bytes. Bytes without an
// EXIF segment produce NoMetadata; a segment that cannot be parsed is an error.
func (exifExtractor) Extract(data []byte) (MetadataOutcome, error) {
	segment := locateEXIF(data)
	if segment == nil {
		return NoMetadata{}, nil
	}

	x, err := exif.Decode(bytes.NewReader(segment))
	if err != nil {
		if x == nil || exif.IsCriticalError(err) {
			return nil, fmt.Errorf("%w: %v", ErrCorruptMetadata, err)
		}
		// Non-critical errors leave the fields that did parse usable
	}

	w := &recordWalker{record: MetadataRecord{}}
	if err := x.Walk(w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMetadata, err)
	}
	if len(w.record) == 0 {
		return NoMetadata{}, nil
	}
	return MetadataFlags{Record: w.record}, nil
}

// locateEXIF returns the EXIF payload carried by a JPEG APP1 segment or a PNG
// eXIf chunk, or nil when the container holds none.
func locateEXIF(data []byte) []byte {
	switch {
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8:
		return jpegEXIF(data)
	case bytes.HasPrefix(data, pngSignature):
		return pngEXIF(data)
	default:
		return nil
	}
}

// jpegEXIF walks the JPEG marker segments up to the start of scan
func jpegEXIF(data []byte) []byte {
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return nil
		}
		marker := data[pos+1]
		switch {
		case marker == 0xFF:
			pos++
			continue
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			pos += 2
			continue
		case marker == 0xDA || marker == 0xD9:
			return nil
		}

		length := int(binary.BigEndian.Uint16(data[pos+2:]))
		end := pos + 2 + length
		if length < 2 || end > len(data) {
			return nil
		}
		payload := data[pos+4 : end]
		if marker == 0xE1 && bytes.HasPrefix(payload, exifHeader) {
			return payload
		}
		pos = end
	}
	return nil
}

// pngEXIF walks the PNG chunks up to IEND
func pngEXIF(data []byte) []byte {
	pos := len(pngSignature)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos:]))
		kind := string(data[pos+4 : pos+8])
		start := pos + 8
		end := start + length
		if length < 0 || end+4 > len(data) {
			return nil
		}
		switch kind {
		case "eXIf":
			return data[start:end]
		case "IEND":
			return nil
		}
		pos = end + 4
	}
	return nil
}

type recordWalker struct {
	record MetadataRecord
}

func (w *recordWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	var value string
	if tag.Format() == tiff.StringVal {
		s, err := tag.StringVal()
		if err != nil {
			return nil
		}
		value = s
	} else {
		value = tag.String()
	}
	value = strings.TrimSpace(strings.Trim(value, "\x00"))
	if value != "" {
		w.record[string(name)] = value
	}
	return nil
}
