package processor

import (
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
	"github.com/pkg/errors"

	"stripdrop/pkg/imgutil"
)

const (
	categoryGPS       = "GPS"
	categoryDevice    = "Device Model"
	categoryTimestamp = "Timestamp"
	categorySerial    = "Serial Number"
	categoryOwner     = "Owner"
)

var categoryOrder = []string{
	categoryGPS,
	categoryDevice,
	categoryTimestamp,
	categorySerial,
	categoryOwner,
}

// ExifAnalysis counts identifying EXIF tags per privacy category.
type ExifAnalysis struct {
	Counts map[string]int
}

// Categories names the kinds of identifying data found, in display order.
func (a ExifAnalysis) Categories() []string {
	var cats []string
	for _, c := range categoryOrder {
		if a.Counts[c] > 0 {
			cats = append(cats, c)
		}
	}
	return cats
}

// tagCategory maps a tag to the privacy category it exposes, or "".
func tagCategory(ifdPath, name string) string {
	if strings.HasPrefix(name, "GPS") || strings.Contains(ifdPath, "GPS") {
		return categoryGPS
	}
	// BodySerialNumber, LensSerialNumber, InternalSerialNumber...
	if strings.Contains(strings.ToLower(name), "serial") {
		return categorySerial
	}
	switch name {
	case "Make", "Model", "CameraModelName", "LensMake", "LensModel":
		return categoryDevice
	case "DateTime", "DateTimeOriginal", "DateTimeDigitized":
		return categoryTimestamp
	case "Artist", "CameraOwnerName", "OwnerName":
		return categoryOwner
	}
	return ""
}

// analyzeExif classifies the tags of a raw TIFF-structured EXIF block.
func analyzeExif(raw []byte) (ExifAnalysis, error) {
	analysis := ExifAnalysis{Counts: map[string]int{}}
	if len(raw) == 0 {
		return analysis, nil
	}

	tags, _, err := exif.GetFlatExifDataUniversalSearch(raw, nil, true)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return analysis, nil
		}
		return analysis, err
	}

	for _, tag := range tags {
		if c := tagCategory(tag.IfdPath, tag.TagName); c != "" {
			analysis.Counts[c]++
		}
	}
	return analysis, nil
}

// leakReport counts the metadata containers in the source bytes and the
// privacy categories its EXIF block exposes. Inspection failures only
// lower the count; they never fail the item.
func leakReport(data []byte, format imgutil.Format) (int, []string) {
	markers, _ := MetadataMarkers(data, format)
	leaks := len(markers)

	analysis, err := analyzeExif(exifBlock(data, format))
	if err != nil {
		return leaks, nil
	}
	cats := analysis.Categories()
	// TIFF tags live in the IFDs rather than separate segments
	if format == imgutil.FormatTIFF {
		leaks += len(cats)
	}
	return leaks, cats
}
