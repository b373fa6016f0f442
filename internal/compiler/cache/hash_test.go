package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHasher_HashContent(t *testing.T) {
	hasher := NewFileHasher()

	tests := []struct {
		name     string
		content  []byte
		expected string
	}{
		{"empty content", []byte(""), "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"simple content", []byte("hello world"), "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, hasher.HashContent(tt.content))
		})
	}
}

func TestFileHasher_HashFile(t *testing.T) {
	hasher := NewFileHasher()
	path := filepath.Join(t.TempDir(), "model.yml")
	content := []byte("packages: []\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	h, err := hasher.HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, hasher.HashContent(content), h)

	_, err = hasher.HashFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestFileHasher_SameContent(t *testing.T) {
	hasher := NewFileHasher()
	path := filepath.Join(t.TempDir(), "App.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"object"}`), 0644))

	assert.True(t, hasher.SameContent(path, []byte(`{"type":"object"}`)))
	assert.False(t, hasher.SameContent(path, []byte(`{"type":"array"}`)))
	assert.False(t, hasher.SameContent(path+".missing", nil))
}

func TestFingerprints_Changed(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.yml")
	config := filepath.Join(dir, "modelschema.yml")
	require.NoError(t, os.WriteFile(model, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(config, []byte("b"), 0644))

	fp := NewFingerprints()
	assert.Equal(t, []string{config, model}, fp.Changed(model, config), "first sight counts as change")
	assert.Empty(t, fp.Changed(model, config))

	// rewriting identical content is not a change
	require.NoError(t, os.WriteFile(model, []byte("a"), 0644))
	assert.Empty(t, fp.Changed(model, config))

	require.NoError(t, os.WriteFile(model, []byte("c"), 0644))
	assert.Equal(t, []string{model}, fp.Changed(model, model, config))

	require.NoError(t, os.Remove(config))
	assert.Equal(t, []string{config}, fp.Changed(model, config))
	assert.Empty(t, fp.Changed(model, config), "a missing file is reported once")

	require.NoError(t, os.WriteFile(config, []byte("b"), 0644))
	assert.Equal(t, []string{config}, fp.Changed(model, config))

	fp.Forget()
	assert.Len(t, fp.Changed(model, config), 2)
}
