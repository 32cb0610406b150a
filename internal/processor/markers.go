package processor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"stripdrop/pkg/imgutil"
)

var (
	pngSignature   = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegExifHeader = []byte("Exif\x00\x00")
	jpegXmpHeader  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	jpegPhotoshop  = []byte("Photoshop 3.0\x00")
	jpegICCHeader  = []byte("ICC_PROFILE\x00")
)

// segment is one metadata container found in an encoded image.
type segment struct {
	name    string
	payload []byte
}

func metadataSegments(data []byte, format imgutil.Format) ([]segment, error) {
	switch format {
	case imgutil.FormatJPEG:
		return jpegSegments(bytes.NewReader(data))
	case imgutil.FormatPNG:
		return pngSegments(bytes.NewReader(data))
	default:
		return nil, nil
	}
}

// MetadataMarkers lists the auxiliary containers present in an encoded
// image, e.g. "APP1/Exif" or "tEXt". Formats without a walker report none.
func MetadataMarkers(data []byte, format imgutil.Format) ([]string, error) {
	segs, err := metadataSegments(data, format)
	var names []string
	for _, seg := range segs {
		names = append(names, seg.name)
	}
	return names, err
}

// exifBlock returns the raw TIFF-structured EXIF data carried by an encoded
// image, or nil when there is none.
func exifBlock(data []byte, format imgutil.Format) []byte {
	if format == imgutil.FormatTIFF {
		return data
	}
	segs, _ := metadataSegments(data, format)
	for _, seg := range segs {
		switch seg.name {
		case "APP1/Exif":
			return seg.payload[len(jpegExifHeader):]
		case "eXIf":
			return seg.payload
		}
	}
	return nil
}

func jpegSegments(r io.Reader) ([]segment, error) {
	br := bufio.NewReader(r)

	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil {
		return nil, err
	}
	if soi[0] != 0xff || soi[1] != 0xd8 {
		return nil, fmt.Errorf("invalid JPEG SOI")
	}

	var found []segment
	for {
		prefix, err := br.ReadByte()
		if err != nil {
			return found, err
		}
		for prefix != 0xff {
			if prefix, err = br.ReadByte(); err != nil {
				return found, err
			}
		}
		marker, err := br.ReadByte()
		if err != nil {
			return found, err
		}
		for marker == 0xff {
			if marker, err = br.ReadByte(); err != nil {
				return found, err
			}
		}

		// metadata segments all precede the scan
		if marker == 0xd9 || marker == 0xda {
			return found, nil
		}
		if marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7) {
			continue
		}

		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			return found, err
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf))
		if segLen < 2 {
			return found, fmt.Errorf("invalid JPEG segment length")
		}
		payload := make([]byte, segLen-2)
		if _, err := io.ReadFull(br, payload); err != nil {
			return found, err
		}
		if name := jpegSegmentName(marker, payload); name != "" {
			found = append(found, segment{name: name, payload: payload})
		}
	}
}

func jpegSegmentName(marker byte, payload []byte) string {
	switch marker {
	case 0xe1:
		if bytes.HasPrefix(payload, jpegExifHeader) {
			return "APP1/Exif"
		}
		if bytes.HasPrefix(payload, jpegXmpHeader) {
			return "APP1/XMP"
		}
	case 0xe2:
		if bytes.HasPrefix(payload, jpegICCHeader) {
			return "APP2/ICC"
		}
	case 0xed:
		if bytes.HasPrefix(payload, jpegPhotoshop) {
			return "APP13/Photoshop"
		}
	case 0xfe:
		return "COM"
	}
	return ""
}

func pngSegments(r io.Reader) ([]segment, error) {
	br := bufio.NewReader(r)

	sig := make([]byte, 8)
	if _, err := io.ReadFull(br, sig); err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, pngSignature) {
		return nil, fmt.Errorf("invalid PNG signature")
	}

	var found []segment
	for {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			if err == io.EOF {
				return found, nil
			}
			return found, err
		}
		length := binary.BigEndian.Uint32(lenBuf)

		typeBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, typeBuf); err != nil {
			return found, err
		}
		chunk := string(typeBuf)
		if isMetadataChunk(chunk) {
			payload, err := io.ReadAll(io.LimitReader(br, int64(length)))
			if err != nil {
				return found, err
			}
			if uint32(len(payload)) != length {
				return found, io.ErrUnexpectedEOF
			}
			found = append(found, segment{name: chunk, payload: payload})
			length = 0
		}
		// remaining data plus CRC
		if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
			return found, err
		}
		if chunk == "IEND" {
			return found, nil
		}
	}
}

func isMetadataChunk(chunk string) bool {
	switch chunk {
	case "tEXt", "zTXt", "iTXt", "eXIf", "tIME", "iCCP":
		return true
	default:
		return false
	}
}
