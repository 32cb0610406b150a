package tui

import (
	"bytes"
	"encoding/base64"
	"image"
	"net/url"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/pkg/errors"

	"stripdrop/internal/processor"
)

// ParseDrop turns text dropped or pasted into the terminal into a payload.
// Terminals deliver dragged files as shell-quoted paths or file URIs; a
// data:image URI stands in for a clipboard bitmap.
func ParseDrop(text string) (processor.Payload, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return processor.Payload{}, nil
	}

	if strings.HasPrefix(text, "data:image/") {
		img, err := decodeDataURI(text)
		if err != nil {
			return processor.Payload{}, err
		}
		return processor.Payload{Bitmap: img}, nil
	}

	var refs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		// text/uri-list comment
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words, err := shellquote.Split(line)
		if err != nil {
			// an unquoted path such as /tmp/it's.png
			words = []string{line}
		}
		refs = append(refs, words...)
	}
	return processor.Payload{Refs: refs}, nil
}

func decodeDataURI(uri string) (image.Image, error) {
	header, data, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}

	var raw []byte
	if strings.HasSuffix(header, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
		if err != nil {
			return nil, errors.Wrap(err, "decode data URI")
		}
		raw = decoded
	} else {
		unescaped, err := url.PathUnescape(data)
		if err != nil {
			return nil, errors.Wrap(err, "decode data URI")
		}
		raw = []byte(unescaped)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "decode bitmap")
	}
	return img, nil
}
