package processor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stripdrop/pkg/imgutil"
)

func TestResolveSaveDirectoryFormats(t *testing.T) {
	dir := t.TempDir()
	settings := Settings{SaveEnabled: true, SaveDirectory: dir}

	cases := []struct {
		ref    string
		name   string
		format imgutil.Format
	}{
		{"/src/a.jpg", "a.jpg", imgutil.FormatJPEG},
		{"/src/a.JPEG", "a.JPEG", imgutil.FormatJPEG},
		{"/src/a.png", "a.png", imgutil.FormatPNG},
		{"/src/a.gif", "a.gif", imgutil.FormatGIF},
		{"/src/a.bmp", "a.bmp", imgutil.FormatBMP},
		{"/src/a.tif", "a.tif", imgutil.FormatTIFF},
		{"/src/a.tiff", "a.tiff", imgutil.FormatTIFF},
		{"/src/photo.xyz", "photo.xyz.png", imgutil.FormatPNG},
		{"/src/photo.webp", "photo.webp.png", imgutil.FormatPNG},
		{"/src/noext", "noext.png", imgutil.FormatPNG},
	}

	for _, tc := range cases {
		t.Run(tc.ref, func(t *testing.T) {
			out, err := Resolve(Decoded{Format: imgutil.FormatGIF}, Item{Index: 1, Kind: KindFile, Ref: tc.ref}, settings, nil)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tc.name), out.Path)
			assert.Equal(t, tc.format, out.Format)
			assert.False(t, out.Temporary)
		})
	}
}

func TestOutputName(t *testing.T) {
	cases := []struct {
		item Item
		want string
	}{
		{Item{Index: 2, Kind: KindURL, Ref: "https://example.com/img/cat.gif?size=large"}, "cat.gif"},
		{Item{Index: 2, Kind: KindURL, Ref: "https://example.com/"}, "image_2.png"},
		{Item{Index: 3, Kind: KindURL, Ref: "https://example.com"}, "image_3.png"},
		{Item{Index: 4, Kind: KindURL, Ref: "https://example.com/download"}, "image_4.png"},
		{Item{Index: 5, Kind: KindURL, Ref: "https://example.com/.hidden"}, "image_5.png"},
		{Item{Index: 6, Kind: KindURL, Ref: "https://example.com/..hidden"}, "image_6.png"},
		{Item{Index: 8, Kind: KindURL, Ref: "https://example.com/.hidden.png"}, ".hidden.png"},
		{Item{Index: 7, Kind: KindBitmap}, "image_7.png"},
		{Item{Index: 1, Kind: KindFile, Ref: "/a/b/c.jpeg"}, "c.jpeg"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, outputName(tc.item), tc.item.Display())
	}
}

func TestResolveTemporaryNaming(t *testing.T) {
	reg := NewTempRegistry()
	t.Cleanup(func() { reg.Purge(nil) })

	cases := []struct {
		source imgutil.Format
		suffix string
		format imgutil.Format
	}{
		{imgutil.FormatJPEG, ".jpg", imgutil.FormatJPEG},
		{imgutil.FormatPNG, ".png", imgutil.FormatPNG},
		{imgutil.FormatGIF, ".png", imgutil.FormatPNG},
		{imgutil.FormatBMP, ".png", imgutil.FormatPNG},
		{imgutil.FormatTIFF, ".png", imgutil.FormatPNG},
		{imgutil.FormatWEBP, ".png", imgutil.FormatPNG},
		{imgutil.FormatUnknown, ".png", imgutil.FormatPNG},
	}

	// saving off, or on without a directory, both land in the temp dir
	settings := []Settings{{}, {SaveEnabled: true}}
	for _, s := range settings {
		for _, tc := range cases {
			out, err := Resolve(Decoded{Format: tc.source}, Item{Index: 1, Kind: KindFile, Ref: "/src/a.gif"}, s, reg)
			require.NoError(t, err)
			assert.True(t, out.Temporary)
			assert.True(t, strings.HasSuffix(out.Path, tc.suffix), out.Path)
			assert.Equal(t, tc.format, out.Format)
			assert.Equal(t, filepath.Clean(os.TempDir()), filepath.Dir(out.Path))
			assert.Contains(t, reg.Paths(), out.Path)
		}
	}
	assert.Len(t, reg.Paths(), len(settings)*len(cases))
}

func TestWriteFailureStaysRegistered(t *testing.T) {
	reg := NewTempRegistry()
	t.Cleanup(func() { reg.Purge(nil) })

	out, err := Resolve(Decoded{Format: imgutil.FormatPNG}, Item{Index: 1, Kind: KindBitmap}, Settings{}, reg)
	require.NoError(t, err)

	out.Format = imgutil.FormatWEBP
	require.Error(t, write(out, gradient(2, 2), 0))
	assert.Equal(t, []string{out.Path}, reg.Paths())
	_, err = os.Stat(out.Path)
	assert.NoError(t, err)
}

func TestWritePermanentReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	dest := writeFixture(t, dir, "a.png", []byte("stale"))

	require.NoError(t, write(OutputSpec{Path: dest, Format: imgutil.FormatPNG}, gradient(3, 3), 0))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, imgutil.FormatPNG, imgutil.Detect(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTempRegistryPurge(t *testing.T) {
	dir := t.TempDir()
	reg := NewTempRegistry()
	a := writeFixture(t, dir, "a.png", []byte("a"))
	b := writeFixture(t, dir, "b.png", []byte("b"))
	reg.Register(a)
	reg.Register(b)
	reg.Register(filepath.Join(dir, "never-written.png"))

	assert.Equal(t, 2, reg.Purge(nil))
	_, err := os.Stat(a)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(b)
	assert.True(t, os.IsNotExist(err))
	assert.Len(t, reg.Paths(), 3)
}
