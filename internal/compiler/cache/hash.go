// Package cache fingerprints compilation inputs and outputs by content so that unchanged
// work can be skipped.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sort"
	"sync"
)

// FileHasher computes SHA-256 content hashes
type FileHasher struct{}

// NewFileHasher creates a new file hasher
func NewFileHasher() *FileHasher {
	return &FileHasher{}
}

// HashFile computes a SHA-256 hash of the file contents
func (fh *FileHasher) HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashContent computes a SHA-256 hash of the given content
func (fh *FileHasher) HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// SameContent reports whether the file at path holds exactly content. A missing or
// unreadable file never matches.
func (fh *FileHasher) SameContent(path string, content []byte) bool {
	h, err := fh.HashFile(path)
	if err != nil {
		return false
	}
	return h == fh.HashContent(content)
}

// Fingerprints remembers the last seen content hash of input files
type Fingerprints struct {
	hasher *FileHasher
	mu     sync.Mutex
	hashes map[string]string
}

// NewFingerprints creates an empty fingerprint set
func NewFingerprints() *Fingerprints {
	return &Fingerprints{
		hasher: NewFileHasher(),
		hashes: make(map[string]string),
	}
}

// Changed hashes paths and returns, sorted, those whose content differs from the previous
// call. Files seen for the first time are changed. A file that cannot be read is changed
// and forgotten, so it counts as new once it reappears.
func (f *Fingerprints) Changed(paths ...string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var changed []string
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		h, err := f.hasher.HashFile(p)
		if err != nil {
			if _, known := f.hashes[p]; known {
				delete(f.hashes, p)
				changed = append(changed, p)
			}
			continue
		}
		if f.hashes[p] != h {
			f.hashes[p] = h
			changed = append(changed, p)
		}
	}
	sort.Strings(changed)
	return changed
}

// Forget drops all fingerprints
func (f *Fingerprints) Forget() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashes = make(map[string]string)
}
