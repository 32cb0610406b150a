package processor

import (
	"log/slog"
	"os"
	"sync"
)

// TempRegistry tracks every temporary output created during the process
// lifetime so they can be removed on shutdown.
type TempRegistry struct {
	mu    sync.Mutex
	paths []string
}

func NewTempRegistry() *TempRegistry {
	return &TempRegistry{}
}

func (r *TempRegistry) Register(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *TempRegistry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// Purge deletes every registered file. Failures are logged and otherwise
// ignored; the number of files actually removed is returned.
func (r *TempRegistry) Purge(logger *slog.Logger) int {
	removed := 0
	for _, path := range r.Paths() {
		if err := os.Remove(path); err != nil {
			if logger != nil && !os.IsNotExist(err) {
				logger.Warn("temp file cleanup failed", "path", path, "error", err)
			}
			continue
		}
		removed++
	}
	return removed
}
