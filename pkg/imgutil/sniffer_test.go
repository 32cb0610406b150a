package imgutil

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func TestFromExtension(t *testing.T) {
	cases := map[string]Format{
		"a.jpg":        FormatJPEG,
		"a.jpeg":       FormatJPEG,
		"A.JPG":        FormatJPEG,
		"a.png":        FormatPNG,
		"a.gif":        FormatGIF,
		"a.bmp":        FormatBMP,
		"a.tif":        FormatTIFF,
		"a.tiff":       FormatTIFF,
		"a.webp":       FormatUnknown,
		"a.xyz":        FormatUnknown,
		"noext":        FormatUnknown,
		"dir.png/file": FormatUnknown,
	}
	for name, want := range cases {
		assert.Equal(t, want, FromExtension(name), name)
	}
}

func TestDetect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	encoders := map[Format]func(*bytes.Buffer) error{
		FormatJPEG: func(b *bytes.Buffer) error { return jpeg.Encode(b, img, nil) },
		FormatPNG:  func(b *bytes.Buffer) error { return png.Encode(b, img) },
		FormatGIF:  func(b *bytes.Buffer) error { return gif.Encode(b, img, nil) },
		FormatBMP:  func(b *bytes.Buffer) error { return bmp.Encode(b, img) },
		FormatTIFF: func(b *bytes.Buffer) error { return tiff.Encode(b, img, nil) },
	}
	for format, enc := range encoders {
		var buf bytes.Buffer
		if err := enc(&buf); err != nil {
			t.Fatalf("encode %s: %v", format, err)
		}
		assert.Equal(t, format, Detect(buf.Bytes()), format.String())
		_, ok := Sniff(buf.Bytes())
		assert.True(t, ok, format.String())
	}

	mime, ok := Sniff([]byte("hello world"))
	assert.False(t, ok)
	assert.Contains(t, mime, "text/plain")
	assert.Equal(t, FormatUnknown, Detect([]byte("hello world")))
}

func TestFormatNames(t *testing.T) {
	assert.Equal(t, ".jpg", FormatJPEG.Extension())
	assert.Equal(t, ".png", FormatPNG.Extension())
	assert.Equal(t, ".tiff", FormatTIFF.Extension())
	assert.Equal(t, "", FormatUnknown.Extension())
	assert.Equal(t, FormatJPEG, FromDecoderName("jpeg"))
	assert.Equal(t, FormatWEBP, FromDecoderName("webp"))
	assert.Equal(t, FormatUnknown, FromDecoderName("heic"))
}
