package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/xref/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
properties:
  - P214
  - P227
  - P244
mappings:
  P227/118540238: Q5879
  P214/113230702: Q42
mnemonics:
  viaf: P214
  gnd: P227
`

func TestParseYAML_KeepsOrder(t *testing.T) {
	cfg, err := Parse([]byte(yamlConfig), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, []string{"P214", "P227", "P244"}, cfg.Properties)
	assert.Equal(t, []Mapping{
		{Ref: "P227/118540238", Target: "Q5879"},
		{Ref: "P214/113230702", Target: "Q42"},
	}, cfg.Mappings)
	assert.Equal(t, []Mnemonic{
		{Name: "viaf", Property: "P214"},
		{Name: "gnd", Property: "P227"},
	}, cfg.Mnemonics)
}

func TestParseJSON(t *testing.T) {
	doc := `{"properties": ["P214"], "mappings": {"P214/1": "Q1"}, "mnemonics": {"viaf": "P214"}}`
	cfg, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []Mapping{{Ref: "P214/1", Target: "Q1"}}, cfg.Mappings)
}

func TestParseTOML_SortsKeys(t *testing.T) {
	doc := `
properties = ["P214", "P227"]

[mappings]
"Q9" = "Q1"
"P214/113230702" = "Q42"

[mnemonics]
viaf = "P214"
gnd = "P227"
`
	cfg, err := Parse([]byte(doc), FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, []Mapping{
		{Ref: "P214/113230702", Target: "Q42"},
		{Ref: "Q9", Target: "Q1"},
	}, cfg.Mappings)
	assert.Equal(t, []Mnemonic{
		{Name: "gnd", Property: "P227"},
		{Name: "viaf", Property: "P214"},
	}, cfg.Mnemonics)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		section string
	}{
		{"empty", ``, SectionProperties},
		{"no properties", "mappings:\n  Q1: Q2\n", SectionProperties},
		{"properties not a list", "properties: P214\n", SectionProperties},
		{"duplicate property", "properties: [P1, P1]\n", SectionProperties},
		{"mapping not a mapping", "properties: [P1]\nmappings: [Q1]\n", SectionMappings},
		{"empty target", "properties: [P1]\nmappings:\n  Q1: ''\n", SectionMappings},
		{"nested mapping value", "properties: [P1]\nmappings:\n  Q1: {a: b}\n", SectionMappings},
		{"unknown mnemonic property", "properties: [P1]\nmnemonics:\n  x: P2\n", SectionMnemonics},
		{"top level list", "- a\n", "document"},
		{"syntax", "properties: [", "document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), FormatYAML)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			var cerr *Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.section, cerr.Section)
		})
	}
}

func TestParse_NullSections(t *testing.T) {
	cfg, err := Parse([]byte("properties: [P1]\nmappings:\nmnemonics:\n"), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, cfg.Mappings)
	assert.Empty(t, cfg.Mnemonics)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xref.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Mappings, 2)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFrom(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "conf/xref.toml", []byte(`properties = ["P1"]`)))

	cfg, err := LoadFrom(ctx, store, "conf/xref.toml")
	require.NoError(t, err)
	assert.Equal(t, []string{"P1"}, cfg.Properties)

	_, err = LoadFrom(ctx, store, "conf/none.yaml")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatTOML, FormatOf("a/b.TOML"))
	assert.Equal(t, FormatYAML, FormatOf("a/b.yml"))
	assert.Equal(t, FormatYAML, FormatOf("a/b.json"))
}
