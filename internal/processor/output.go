package processor

import (
	"bufio"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"stripdrop/pkg/imgutil"
)

const defaultJPEGQuality = 75

// Resolve decides where an item's stripped image goes and in which format.
// With saving enabled the name comes from the source and the format from
// its extension; an unrecognised extension gets ".png" appended, so
// "photo.xyz" becomes "photo.xyz.png". Otherwise a temp file is created
// and registered before anything is written to it.
func Resolve(dec Decoded, it Item, s Settings, reg *TempRegistry) (OutputSpec, error) {
	if s.SaveEnabled && s.SaveDirectory != "" {
		name := outputName(it)
		dest := filepath.Join(s.SaveDirectory, name)
		format := imgutil.FromExtension(name)
		if format == imgutil.FormatUnknown {
			format = imgutil.FormatPNG
			dest += ".png"
		}
		return OutputSpec{Path: dest, Format: format}, nil
	}

	format := imgutil.FormatPNG
	if dec.Format == imgutil.FormatJPEG {
		format = imgutil.FormatJPEG
	}
	tmp, err := os.CreateTemp("", "stripdrop-*"+format.Extension())
	if err != nil {
		return OutputSpec{}, errors.Wrap(err, "create temp file")
	}
	name := tmp.Name()
	_ = tmp.Close()
	if reg != nil {
		reg.Register(name)
	}
	return OutputSpec{Path: name, Format: format, Temporary: true}, nil
}

func outputName(it Item) string {
	switch it.Kind {
	case KindFile:
		return filepath.Base(it.Ref)
	case KindURL:
		u, err := url.Parse(it.Ref)
		if err != nil || u.Path == "" {
			return synthesizedName(it.Index)
		}
		name := path.Base(u.Path)
		if name == "/" || name == "." || !hasExtension(name) {
			return synthesizedName(it.Index)
		}
		return name
	case KindBitmap:
		return synthesizedName(it.Index)
	default:
		return synthesizedName(it.Index)
	}
}

// hasExtension reports whether name has an extension. Leading dots belong
// to the stem, so ".hidden" has none.
func hasExtension(name string) bool {
	return path.Ext(strings.TrimLeft(name, ".")) != ""
}

func synthesizedName(index int) string {
	return fmt.Sprintf("image_%d.png", index)
}

// write encodes img to out.Path. Permanent outputs are staged next to the
// destination and renamed into place.
func write(out OutputSpec, img image.Image, quality int) error {
	if out.Temporary {
		file, err := os.Create(out.Path)
		if err != nil {
			return err
		}
		if err := encode(file, img, out.Format, quality); err != nil {
			_ = file.Close()
			return err
		}
		return file.Close()
	}

	destDir := filepath.Dir(out.Path)
	tmpFile, err := os.CreateTemp(destDir, "stripdrop-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if err := encode(tmpFile, img, out.Format, quality); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return replaceFile(tmpFile.Name(), out.Path)
}

func encode(w io.Writer, img image.Image, format imgutil.Format, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = defaultJPEGQuality
	}
	bw := bufio.NewWriter(w)

	var err error
	switch format {
	case imgutil.FormatJPEG:
		err = jpeg.Encode(bw, img, &jpeg.Options{Quality: quality})
	case imgutil.FormatPNG:
		err = png.Encode(bw, img)
	case imgutil.FormatGIF:
		err = gif.Encode(bw, img, nil)
	case imgutil.FormatBMP:
		err = bmp.Encode(bw, img)
	case imgutil.FormatTIFF:
		err = tiff.Encode(bw, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = errors.Errorf("cannot encode %s", format)
	}
	if err != nil {
		return errors.Wrapf(err, "encode %s", format)
	}
	return bw.Flush()
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
