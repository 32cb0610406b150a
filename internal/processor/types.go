package processor

import (
	"fmt"
	"image"
	"image/color"

	"stripdrop/pkg/imgutil"
)

// Kind is the source of a dropped item.
type Kind int

const (
	KindFile Kind = iota
	KindURL
	KindBitmap
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindURL:
		return "url"
	case KindBitmap:
		return "bitmap"
	default:
		return "unknown"
	}
}

// Payload is what a single drop gesture delivers.
type Payload struct {
	Refs   []string
	Bitmap image.Image
}

// Item is one dropped image. Index is its 1-based position in the drop.
type Item struct {
	Index  int
	Kind   Kind
	Ref    string
	Bitmap image.Image
}

// Display returns a short label for logs and the results table.
func (it Item) Display() string {
	if it.Kind == KindBitmap {
		return fmt.Sprintf("bitmap #%d", it.Index)
	}
	return it.Ref
}

// Decoded is an image reduced to its pixels. Pix holds Mode.BytesPerPixel()
// bytes per pixel in row-major order and nothing else from the source
// container.
type Decoded struct {
	Pix     []byte
	Mode    Mode
	Width   int
	Height  int
	Palette color.Palette
	Format  imgutil.Format
}

type OutputSpec struct {
	Path      string
	Format    imgutil.Format
	Temporary bool
}

// Settings is the per-batch configuration handed in by the shell.
type Settings struct {
	SaveEnabled   bool
	SaveDirectory string
	JPEGQuality   int
	Workers       int
}

type Entry struct {
	Index      int
	Kind       Kind
	Source     string
	Path       string
	Format     imgutil.Format
	Temporary  bool
	Mode       Mode
	Width      int
	Height     int
	Leaks      int
	Categories []string
}

type BatchResult struct {
	ID      string
	Total   int
	Failed  int
	Entries []Entry
}

// Paths lists the output paths in completion order.
func (r BatchResult) Paths() []string {
	paths := make([]string, 0, len(r.Entries))
	for _, entry := range r.Entries {
		paths = append(paths, entry.Path)
	}
	return paths
}

// Leaks sums the metadata containers removed across the batch.
func (r BatchResult) Leaks() int {
	total := 0
	for _, entry := range r.Entries {
		total += entry.Leaks
	}
	return total
}

type ProgressUpdate struct {
	TotalDelta     int
	ProcessedDelta int
	ErrorDelta     int
	LeakDelta      int
}
