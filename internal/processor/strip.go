package processor

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"stripdrop/pkg/imgutil"
)

// Mode is the pixel layout of a decoded image.
type Mode int

const (
	ModeRGBA Mode = iota
	ModeRGB
	ModeL
	ModeL16
	ModeRGB16
	ModeRGBA16
	ModeP
)

func (m Mode) String() string {
	switch m {
	case ModeRGB:
		return "RGB"
	case ModeL:
		return "L"
	case ModeL16:
		return "I;16"
	case ModeRGB16:
		return "RGB;16"
	case ModeRGBA16:
		return "RGBA;16"
	case ModeP:
		return "P"
	default:
		return "RGBA"
	}
}

func (m Mode) BytesPerPixel() int {
	switch m {
	case ModeL, ModeP:
		return 1
	case ModeL16:
		return 2
	case ModeRGB:
		return 3
	case ModeRGB16:
		return 6
	case ModeRGBA16:
		return 8
	default:
		return 4
	}
}

type opaquer interface {
	Opaque() bool
}

// modeOf picks the layout for img. YCbCr and CMYK collapse to RGB since
// nothing downstream can encode them natively.
func modeOf(img image.Image) Mode {
	switch m := img.(type) {
	case *image.Gray:
		return ModeL
	case *image.Gray16:
		return ModeL16
	case *image.Paletted:
		return ModeP
	case *image.YCbCr, *image.CMYK:
		return ModeRGB
	case *image.RGBA64, *image.NRGBA64:
		if m.(opaquer).Opaque() {
			return ModeRGB16
		}
		return ModeRGBA16
	case opaquer:
		if m.Opaque() {
			return ModeRGB
		}
		return ModeRGBA
	default:
		return ModeRGBA
	}
}

// Decode decodes data and keeps only its pixels. Multi-frame sources yield
// their first frame.
func Decode(data []byte) (Decoded, error) {
	if mime, ok := imgutil.Sniff(data); !ok {
		return Decoded{}, errors.Errorf("not an image: %s", mime)
	}
	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Decoded{}, errors.Wrap(err, "decode")
	}
	if name == "gif" {
		if img, err = gifCanvas(data); err != nil {
			return Decoded{}, err
		}
	}
	dec := Strip(img)
	dec.Format = imgutil.FromDecoderName(name)
	return dec, nil
}

// gifCanvas returns the first GIF frame placed on the full logical screen.
// Pixels outside the frame take the background index.
func gifCanvas(data []byte) (*image.Paletted, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode gif")
	}
	if len(g.Image) == 0 {
		return nil, errors.New("gif has no frames")
	}
	first := g.Image[0]
	screen := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if first.Rect == screen {
		return first, nil
	}

	canvas := image.NewPaletted(screen, first.Palette)
	if bg := int(g.BackgroundIndex); bg < len(first.Palette) {
		for i := range canvas.Pix {
			canvas.Pix[i] = uint8(bg)
		}
	}
	r := first.Rect.Intersect(screen)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		copy(canvas.Pix[canvas.PixOffset(r.Min.X, y):canvas.PixOffset(r.Max.X, y)],
			first.Pix[first.PixOffset(r.Min.X, y):first.PixOffset(r.Max.X, y)])
	}
	return canvas, nil
}

// Strip reads every pixel of img in row-major order into a flat buffer.
func Strip(img image.Image) Decoded {
	mode := modeOf(img)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	bpp := mode.BytesPerPixel()
	pix := make([]byte, 0, bpp*w*h)

	var palette color.Palette
	if p, ok := img.(*image.Paletted); ok {
		palette = append(color.Palette(nil), p.Palette...)
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pix = appendPixel(pix, img, mode, x, y)
		}
	}

	return Decoded{Pix: pix, Mode: mode, Width: w, Height: h, Palette: palette}
}

func appendPixel(pix []byte, img image.Image, mode Mode, x, y int) []byte {
	switch mode {
	case ModeP:
		return append(pix, img.(*image.Paletted).ColorIndexAt(x, y))
	case ModeL:
		c := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
		return append(pix, c.Y)
	case ModeL16:
		c := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
		return binary.BigEndian.AppendUint16(pix, c.Y)
	case ModeRGB:
		c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
		return append(pix, c.R, c.G, c.B)
	case ModeRGB16:
		c := color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
		pix = binary.BigEndian.AppendUint16(pix, c.R)
		pix = binary.BigEndian.AppendUint16(pix, c.G)
		return binary.BigEndian.AppendUint16(pix, c.B)
	case ModeRGBA16:
		c := color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
		pix = binary.BigEndian.AppendUint16(pix, c.R)
		pix = binary.BigEndian.AppendUint16(pix, c.G)
		pix = binary.BigEndian.AppendUint16(pix, c.B)
		return binary.BigEndian.AppendUint16(pix, c.A)
	default:
		c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
		return append(pix, c.R, c.G, c.B, c.A)
	}
}

// Image builds a new image of the same mode and size from Pix alone.
func (d Decoded) Image() (image.Image, error) {
	want := d.Mode.BytesPerPixel() * d.Width * d.Height
	if len(d.Pix) != want {
		return nil, errors.Errorf("pixel buffer is %d bytes, want %d", len(d.Pix), want)
	}
	rect := image.Rect(0, 0, d.Width, d.Height)

	switch d.Mode {
	case ModeP:
		img := image.NewPaletted(rect, append(color.Palette(nil), d.Palette...))
		copy(img.Pix, d.Pix)
		return img, nil
	case ModeL:
		img := image.NewGray(rect)
		copy(img.Pix, d.Pix)
		return img, nil
	case ModeL16:
		img := image.NewGray16(rect)
		copy(img.Pix, d.Pix)
		return img, nil
	case ModeRGB:
		img := image.NewRGBA(rect)
		for i, j := 0, 0; i < len(d.Pix); i, j = i+3, j+4 {
			img.Pix[j] = d.Pix[i]
			img.Pix[j+1] = d.Pix[i+1]
			img.Pix[j+2] = d.Pix[i+2]
			img.Pix[j+3] = 0xff
		}
		return img, nil
	case ModeRGB16:
		img := image.NewRGBA64(rect)
		for i, j := 0, 0; i < len(d.Pix); i, j = i+6, j+8 {
			copy(img.Pix[j:j+6], d.Pix[i:i+6])
			img.Pix[j+6] = 0xff
			img.Pix[j+7] = 0xff
		}
		return img, nil
	case ModeRGBA16:
		img := image.NewNRGBA64(rect)
		copy(img.Pix, d.Pix)
		return img, nil
	default:
		img := image.NewNRGBA(rect)
		copy(img.Pix, d.Pix)
		return img, nil
	}
}
