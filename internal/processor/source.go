package processor

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Classify turns a drop payload into items without touching the disk or
// network. References win over a bitmap; an empty payload is ErrUnsupportedDrop.
func Classify(p Payload) ([]Item, error) {
	var items []Item
	for _, ref := range p.Refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		items = append(items, classifyRef(len(items)+1, ref))
	}
	if len(items) > 0 {
		return items, nil
	}
	if p.Bitmap != nil {
		return []Item{{Index: 1, Kind: KindBitmap, Bitmap: p.Bitmap}}, nil
	}
	return nil, ErrUnsupportedDrop
}

func classifyRef(index int, ref string) Item {
	u, err := url.Parse(ref)
	if err != nil {
		return Item{Index: index, Kind: KindFile, Ref: ref}
	}
	switch scheme := strings.ToLower(u.Scheme); {
	case scheme == "":
		return Item{Index: index, Kind: KindFile, Ref: ref}
	case len(scheme) == 1:
		// C:\photos\a.jpg
		return Item{Index: index, Kind: KindFile, Ref: ref}
	case scheme == "file":
		return Item{Index: index, Kind: KindFile, Ref: localPath(u)}
	case remoteSchemes[scheme], strings.HasPrefix(ref[len(u.Scheme)+1:], "//"):
		return Item{Index: index, Kind: KindURL, Ref: ref}
	default:
		// shot:1.png
		return Item{Index: index, Kind: KindFile, Ref: ref}
	}
}

var remoteSchemes = map[string]bool{"http": true, "https": true, "ftp": true}

func localPath(u *url.URL) string {
	path := u.Path
	if u.Host != "" && u.Host != "localhost" {
		path = "//" + u.Host + path
	}
	// file:///C:/photos/a.jpg
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return path
}

// load returns the encoded bytes behind an item.
func load(ctx context.Context, client *http.Client, it Item) ([]byte, error) {
	switch it.Kind {
	case KindFile:
		data, err := os.ReadFile(it.Ref)
		if err != nil {
			return nil, errors.Wrap(err, "read file")
		}
		return data, nil
	case KindURL:
		return fetch(ctx, client, it.Ref)
	case KindBitmap:
		if it.Bitmap == nil {
			return nil, errors.New("empty bitmap")
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, it.Bitmap); err != nil {
			return nil, errors.Wrap(err, "encode bitmap")
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown item kind %d", it.Kind)
	}
}

func fetch(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("fetch: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	return data, nil
}
