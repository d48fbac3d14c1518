// Package sweep removes stale working directories left behind by slide
// staging. Processed slides are copied into a temporary working area for the
// duration of inference; the sweeper deletes subdirectories older than a
// configured age on a fixed interval, independent of the exchange path.
package sweep

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pathdss/lisbridge/logger"
)

// Sweeper deletes stale subdirectories of a working directory.
type Sweeper struct {
	dir    string
	maxAge time.Duration
	logger logger.Logger
}

// NewSweeper creates a Sweeper for dir, removing subdirectories whose
// modification time is older than maxAge.
func NewSweeper(dir string, maxAge time.Duration, l logger.Logger) (*Sweeper, error) {
	if dir == "" {
		return nil, errors.New("sweep: directory is empty")
	}
	if maxAge <= 0 {
		return nil, errors.New("sweep: max age must be positive")
	}
	if l == nil {
		l = logger.GetLogger()
	}

	return &Sweeper{dir: dir, maxAge: maxAge, logger: l}, nil
}

// Sweep removes every stale subdirectory once. Files directly under the
// working directory are left alone. Removal failures are logged and the
// sweep continues with the remaining entries.
func (s *Sweeper) Sweep() error {
	cutoff := time.Now().Add(-s.maxAge)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read working directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("failed to stat working subdirectory", "name", entry.Name(), "error", err)
			continue
		}

		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.dir, entry.Name())
			if err := os.RemoveAll(path); err != nil {
				s.logger.Error("failed to remove stale working directory", "path", path, "error", err)
				continue
			}
			s.logger.Info("removed stale working directory", "path", path, "age", time.Since(info.ModTime()))
		}
	}

	return nil
}

// Run performs one sweep and always reports the loop should continue, so it
// can serve directly as an interval task body.
func (s *Sweeper) Run() bool {
	if err := s.Sweep(); err != nil {
		s.logger.Error("cleanup sweep failed", "dir", s.dir, "error", err)
	}

	return true
}
