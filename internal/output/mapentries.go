package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/modelschema/internal/compiler/errors"
	"github.com/conduit-lang/modelschema/internal/compiler/rules"
)

// mapEntryFile is the layout of a cross-reference file. The key matches the mapEntries
// section of the configuration so that the file can be included by another run.
type mapEntryFile struct {
	MapEntries []rules.MapEntry `yaml:"mapEntries"`
}

// EncodeMapEntries renders entries as YAML
func EncodeMapEntries(entries []rules.MapEntry) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapEntryFile{MapEntries: entries}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteMapEntries writes the cross-reference table to name inside the output directory.
// An unchanged file is left untouched.
func (w *Writer) WriteMapEntries(name string, entries []rules.MapEntry) (string, error) {
	if err := w.ensureDir(); err != nil {
		return "", err
	}
	path := filepath.Join(w.dir, name)
	data, err := EncodeMapEntries(entries)
	if err != nil {
		return "", errors.New(errors.FatalWriteFailed, name, path, err)
	}
	if _, err := w.writeFile(path, data); err != nil {
		return "", errors.New(errors.FatalWriteFailed, name, path, err)
	}
	return path, nil
}

// ReadMapEntries loads a cross-reference file written by WriteMapEntries
func ReadMapEntries(path string) ([]rules.MapEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map entries: %w", err)
	}
	var file mapEntryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%s: failed to parse map entries: %w", path, err)
	}
	return file.MapEntries, nil
}
