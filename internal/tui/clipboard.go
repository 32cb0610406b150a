package tui

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
)

// URIList renders paths as file URIs, one per line.
func URIList(paths []string) string {
	lines := make([]string, 0, len(paths))
	for _, path := range paths {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		slashed := filepath.ToSlash(path)
		if !strings.HasPrefix(slashed, "/") {
			slashed = "/" + slashed
		}
		lines = append(lines, (&url.URL{Scheme: "file", Path: slashed}).String())
	}
	return strings.Join(lines, "\n")
}

func writeClipboard(text string) error {
	return clipboard.WriteAll(text)
}
