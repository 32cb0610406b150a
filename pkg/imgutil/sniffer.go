package imgutil

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format identifies an image encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatGIF
	FormatBMP
	FormatTIFF
	FormatWEBP
)

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatGIF:
		return "gif"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	case FormatWEBP:
		return "webp"
	default:
		return "unknown"
	}
}

// Extension returns the canonical file suffix for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatUnknown:
		return ""
	default:
		return "." + f.String()
	}
}

// FromDecoderName maps the name returned by image.Decode to a Format.
func FromDecoderName(name string) Format {
	switch strings.ToLower(name) {
	case "jpeg":
		return FormatJPEG
	case "png":
		return FormatPNG
	case "gif":
		return FormatGIF
	case "bmp":
		return FormatBMP
	case "tiff":
		return FormatTIFF
	case "webp":
		return FormatWEBP
	default:
		return FormatUnknown
	}
}

// FromExtension maps a filename extension to a writable Format. Only the
// extensions with a dedicated encoder are recognised; anything else yields
// FormatUnknown.
func FromExtension(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".png":
		return FormatPNG
	case ".gif":
		return FormatGIF
	case ".bmp":
		return FormatBMP
	case ".tif", ".tiff":
		return FormatTIFF
	default:
		return FormatUnknown
	}
}

// Sniff inspects the leading bytes of data. It returns the detected MIME
// type and whether it belongs to the image/* family.
func Sniff(data []byte) (string, bool) {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return detected.String(), true
		}
	}
	return detected.String(), false
}

// Detect returns the Format whose signature data carries.
func Detect(data []byte) Format {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		switch m.String() {
		case "image/jpeg":
			return FormatJPEG
		case "image/png":
			return FormatPNG
		case "image/gif":
			return FormatGIF
		case "image/bmp", "image/x-ms-bmp":
			return FormatBMP
		case "image/tiff":
			return FormatTIFF
		case "image/webp":
			return FormatWEBP
		}
	}
	return FormatUnknown
}
