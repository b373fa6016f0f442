// Package output writes compiled documents and the cross-reference table to disk and
// checks the documents with a JSON Schema validator.
package output

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/conduit-lang/modelschema/internal/compiler/cache"
	"github.com/conduit-lang/modelschema/internal/compiler/errors"
	"github.com/conduit-lang/modelschema/internal/compiler/jsonschema"
	"github.com/conduit-lang/modelschema/internal/compiler/schema"
)

// Writer writes documents into one directory
type Writer struct {
	dir    string
	hasher *cache.FileHasher
	logger *zap.Logger
}

// NewWriter creates a writer for dir
func NewWriter(dir string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		dir:    dir,
		hasher: cache.NewFileHasher(),
		logger: logger,
	}
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

// WriteStats counts the files handled by one Write
type WriteStats struct {
	Written   []string
	Unchanged []string
}

// Write creates the output directory and writes every document as indented JSON. Files
// whose content would not change are left untouched. The returned error is a fatal
// *errors.Diagnostic.
func (w *Writer) Write(docs []*jsonschema.Document) (*WriteStats, error) {
	if err := w.ensureDir(); err != nil {
		return nil, err
	}

	stats := &WriteStats{}
	for _, doc := range docs {
		if doc.Root == nil {
			continue
		}
		data, err := schema.MarshalIndent(doc.Root)
		if err != nil {
			return stats, errors.New(errors.FatalWriteFailed, doc.Name, doc.FileName, err)
		}
		path := filepath.Join(w.dir, doc.FileName)
		written, err := w.writeFile(path, data)
		if err != nil {
			return stats, errors.New(errors.FatalWriteFailed, doc.Name, path, err)
		}
		if written {
			stats.Written = append(stats.Written, path)
		} else {
			stats.Unchanged = append(stats.Unchanged, path)
		}
	}
	w.logger.Info("documents written",
		zap.String("dir", w.dir),
		zap.Int("written", len(stats.Written)),
		zap.Int("unchanged", len(stats.Unchanged)))
	return stats, nil
}

func (w *Writer) ensureDir() error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return errors.New(errors.FatalOutputDirectory, w.dir, w.dir, err)
	}
	return nil
}

// writeFile writes data unless path already holds it
func (w *Writer) writeFile(path string, data []byte) (bool, error) {
	if w.hasher.SameContent(path, data) {
		w.logger.Debug("unchanged", zap.String("file", path))
		return false, nil
	}
	if dir := filepath.Dir(path); dir != w.dir {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, err
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, err
	}
	w.logger.Debug("written", zap.String("file", path), zap.Int("bytes", len(data)))
	return true, nil
}
