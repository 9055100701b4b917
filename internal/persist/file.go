package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/me/timetable/pkg/model"
)

// FileGateway stores the schedule as a flat comma-delimited text file.
type FileGateway struct {
	path   string
	logger *slog.Logger
}

// NewFileGateway returns a gateway backed by the file at path.
func NewFileGateway(path string, logger *slog.Logger) *FileGateway {
	return &FileGateway{
		path:   path,
		logger: logger.With("component", "persist", "backend", "file"),
	}
}

// Path returns the backing file path.
func (g *FileGateway) Path() string {
	return g.path
}

func (g *FileGateway) Load(ctx context.Context) ([]model.Lecture, error) {
	f, err := os.Open(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		g.logger.Debug("no schedule file", "path", g.path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", g.path, err)
	}
	defer f.Close()

	lectures, err := decodeLines(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", g.path, err)
	}
	g.logger.Debug("schedule loaded", "path", g.path, "lectures", len(lectures))
	return lectures, nil
}

// Save rewrites the whole file. The new contents are written to a temporary
// file in the same directory and renamed over the old one, keeping the old
// file's permissions.
func (g *FileGateway) Save(ctx context.Context, lectures []model.Lecture) error {
	var buf bytes.Buffer
	if err := encodeLines(&buf, lectures); err != nil {
		return err
	}

	dir := filepath.Dir(g.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(g.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(g.fileMode()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, g.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", g.path, err)
	}
	g.logger.Debug("schedule saved", "path", g.path, "lectures", len(lectures))
	return nil
}

// fileMode keeps the permissions of an existing schedule file, 0644 for a new one.
func (g *FileGateway) fileMode() fs.FileMode {
	if fi, err := os.Stat(g.path); err == nil {
		return fi.Mode().Perm()
	}
	return 0o644
}
