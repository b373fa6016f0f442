package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/modelschema/internal/compiler/jsonschema"
	"github.com/conduit-lang/modelschema/internal/compiler/rules"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, jsonschema.Version202012, cfg.Target.SchemaVersion)
	assert.Equal(t, "entityType", cfg.Target.EntityTypeMemberName)
	assert.Equal(t, []string{"string"}, cfg.Target.ObjectIdentifierType)
	assert.Equal(t, []jsonschema.RefProfile{jsonschema.RefAsURI}, cfg.Target.FeatureRefProfiles)
	assert.Equal(t, rules.EncodingDefault, cfg.Target.DefaultEncodingRule)
	assert.Equal(t, "model.yml", cfg.Input.Model)
	assert.Equal(t, "schemas", cfg.Output.Dir)
	assert.True(t, cfg.Output.Check)
	assert.Empty(t, cfg.Output.MapEntries)
}

const projectConfig = `
target:
  schemaVersion: draft-07
  baseUri: https://example.org/schemas
  entityTypeMemberRequired: true
  featureRefProfiles: [rel-as-key, rel-as-uri]
schemas: ["Transport*"]
encodingRules:
  - name: fg
    extends: [jsonfg]
mapEntries:
  - type: CharacterString
    targetType: string
  - type: GM_Point
    targetType: https://geojson.org/schema/Point.json
    characteristics: [geometry]
baseSchemas:
  - category: feature
    uri: https://example.org/feature.json
    encodingInfo:
      entityTypeMemberPath: featureType
annotations:
  - name: title
    descriptor: alias
collections:
  - name: TransportCollection
    members: [Road, River]
    validateUnknown: true
input:
  model: models/transport.yml
output:
  dir: out
  mapEntries: mapentries.yml
`

func TestLoadWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(FileName, []byte(projectConfig), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.File))
	assert.Equal(t, FileName, filepath.Base(cfg.File))
	assert.Equal(t, jsonschema.VersionDraft07, cfg.Target.SchemaVersion)
	assert.Equal(t, "https://example.org/schemas", cfg.Target.BaseURI)
	assert.True(t, cfg.Target.EntityTypeMemberRequired)
	assert.Equal(t, "entityType", cfg.Target.EntityTypeMemberName, "unset keys keep their default")
	assert.Equal(t, []jsonschema.RefProfile{jsonschema.RefAsKey, jsonschema.RefAsURI}, cfg.Target.FeatureRefProfiles)
	assert.Equal(t, []string{"Transport*"}, cfg.Schemas)

	require.Len(t, cfg.EncodingRules, 1)
	assert.Equal(t, []string{rules.EncodingJSONFG}, cfg.EncodingRules[0].Extends)
	require.Len(t, cfg.MapEntries, 2)
	assert.Equal(t, []string{rules.CharacteristicGeometry}, cfg.MapEntries[1].Characteristics)
	require.Len(t, cfg.BaseSchemas, 1)
	assert.Equal(t, "featureType", cfg.BaseSchemas[0].EncodingInfo.EntityTypeMemberPath)
	require.Len(t, cfg.Collections, 1)
	assert.True(t, cfg.Collections[0].ValidateUnknown)
	assert.Equal(t, []string{"Road", "River"}, cfg.Collections[0].Members)

	assert.Equal(t, filepath.Join(filepath.Dir(cfg.File), "models", "transport.yml"), cfg.ModelPath())
	assert.Equal(t, filepath.Join(filepath.Dir(cfg.File), "out"), cfg.OutputDir())
	assert.Equal(t, "mapentries.yml", cfg.Output.MapEntries)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  dir: generated\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "generated"), cfg.OutputDir())

	_, err = Load(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err, "an explicit file must exist")
}

func TestLoadEnvironmentOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MODELSCHEMA_OUTPUT_DIR", "from-env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Output.Dir)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown version", "target:\n  schemaVersion: draft-04\n", "unknown schema version"},
		{"bad identifier type", "target:\n  objectIdentifierType: [object]\n", "objectIdentifierType"},
		{"empty output dir", "output:\n  dir: \"\"\n", "output.dir"},
		{"unnamed collection", "collections:\n  - members: [A]\n", "name must not be empty"},
		{"duplicate collection", "collections:\n  - name: A\n  - name: A\n", "duplicate collection"},
		{"base schema without uri", "baseSchemas:\n  - category: feature\n", "uri must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOptionsAppendsExtraMapEntries(t *testing.T) {
	cfg := Default()
	cfg.MapEntries = []rules.MapEntry{{Type: "CharacterString", TargetType: "string"}}
	opts := cfg.Options(rules.MapEntry{Type: "Road", TargetType: "https://example.org/a.json#/$defs/Road"})

	require.Len(t, opts.MapEntries, 2)
	assert.Equal(t, "Road", opts.MapEntries[1].Type)
	assert.Equal(t, cfg.Target, opts.Params)
	assert.Len(t, cfg.MapEntries, 1, "configuration is not modified")
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg := Default()
	cfg.Target.BaseURI = "https://example.org/schemas"
	cfg.Schemas = []string{"App"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Target, loaded.Target)
	assert.Equal(t, cfg.Schemas, loaded.Schemas)
	assert.Equal(t, cfg.Output, loaded.Output)
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "modelschema configuration", doc["title"])
	assert.Contains(t, string(data), `"schemaVersion"`)
	assert.Contains(t, string(data), `"featureCollectionIdTemplate"`)
	assert.Contains(t, string(data), `"openapi30"`)
}

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("{}"), 0644))

	found, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, FileName), found)

	_, err = FindConfigFile(t.TempDir())
	if err == nil {
		t.Skip("a modelschema.yml exists above the temp directory")
	}
	assert.Contains(t, err.Error(), "no modelschema.yml found")
}
