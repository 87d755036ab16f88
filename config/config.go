package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/xref/blobstore"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Section names.
const (
	SectionProperties = "properties"
	SectionMappings   = "mappings"
	SectionMnemonics  = "mnemonics"
)

// ErrInvalidConfig is the sentinel wrapped by every configuration error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Error describes a malformed or missing configuration entry.
type Error struct {
	Section string
	Key     string
	Err     error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("config %s: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("config %s[%s]: %v", e.Section, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Is makes every *Error match ErrInvalidConfig.
func (e *Error) Is(target error) bool { return target == ErrInvalidConfig }

func invalid(section, key, format string, args ...any) *Error {
	return &Error{Section: section, Key: key, Err: fmt.Errorf(format, args...)}
}

// Mapping pins Ref to the cluster of Target.
type Mapping struct {
	Ref    string
	Target string
}

// Mnemonic is a short display name for a property.
type Mnemonic struct {
	Name     string
	Property string
}

// Config is the parsed configuration.
type Config struct {
	Properties []string
	Mappings   []Mapping
	Mnemonics  []Mnemonic
}

// Format is a configuration file syntax.
type Format int

const (
	// FormatYAML also covers JSON documents.
	FormatYAML Format = iota
	FormatTOML
)

// FormatOf picks the format from a file extension.
func FormatOf(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, FormatOf(path))
}

// LoadFrom reads and validates a configuration blob.
func LoadFrom(ctx context.Context, store blobstore.BlobStore, name string) (*Config, error) {
	data, release, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	defer func() { _ = release() }()
	return Parse(data, FormatOf(name))
}

// Parse decodes and validates a configuration document.
func Parse(data []byte, format Format) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch format {
	case FormatTOML:
		cfg, err = parseTOML(data)
	default:
		cfg, err = parseYAML(data)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the property list is present and that every entry is
// complete and unique.
func (c *Config) Validate() error {
	if len(c.Properties) == 0 {
		return invalid(SectionProperties, "", "section is missing or empty")
	}
	props := make(map[string]struct{}, len(c.Properties))
	for _, p := range c.Properties {
		if p == "" {
			return invalid(SectionProperties, "", "empty property")
		}
		if _, dup := props[p]; dup {
			return invalid(SectionProperties, p, "duplicate property")
		}
		props[p] = struct{}{}
	}

	refs := make(map[string]struct{}, len(c.Mappings))
	for _, m := range c.Mappings {
		if m.Ref == "" || m.Target == "" {
			return invalid(SectionMappings, m.Ref, "empty key or target")
		}
		if _, dup := refs[m.Ref]; dup {
			return invalid(SectionMappings, m.Ref, "duplicate key")
		}
		refs[m.Ref] = struct{}{}
	}

	names := make(map[string]struct{}, len(c.Mnemonics))
	for _, m := range c.Mnemonics {
		if m.Name == "" {
			return invalid(SectionMnemonics, "", "empty name")
		}
		if _, dup := names[m.Name]; dup {
			return invalid(SectionMnemonics, m.Name, "duplicate name")
		}
		if _, ok := props[m.Property]; !ok {
			return invalid(SectionMnemonics, m.Name, "property %q is not listed in %s", m.Property, SectionProperties)
		}
		names[m.Name] = struct{}{}
	}
	return nil
}

func parseYAML(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Section: "document", Err: err}
	}
	cfg := &Config{}
	if doc.Kind == 0 {
		return cfg, nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, invalid("document", "", "expected a mapping at the top level")
	}
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		var err error
		switch key.Value {
		case SectionProperties:
			cfg.Properties, err = scalarList(SectionProperties, value)
		case SectionMappings:
			err = eachPair(SectionMappings, value, func(k, v string) {
				cfg.Mappings = append(cfg.Mappings, Mapping{Ref: k, Target: v})
			})
		case SectionMnemonics:
			err = eachPair(SectionMnemonics, value, func(k, v string) {
				cfg.Mnemonics = append(cfg.Mnemonics, Mnemonic{Name: k, Property: v})
			})
		}
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func scalarList(section string, n *yaml.Node) ([]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, invalid(section, "", "expected a list (line %d)", n.Line)
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, invalid(section, "", "expected a string (line %d)", item.Line)
		}
		out = append(out, item.Value)
	}
	return out, nil
}

func eachPair(section string, n *yaml.Node, fn func(k, v string)) error {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return invalid(section, "", "expected a mapping (line %d)", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return invalid(section, k.Value, "expected a string (line %d)", v.Line)
		}
		fn(k.Value, v.Value)
	}
	return nil
}

type tomlConfig struct {
	Properties []string          `toml:"properties"`
	Mappings   map[string]string `toml:"mappings"`
	Mnemonics  map[string]string `toml:"mnemonics"`
}

func parseTOML(data []byte) (*Config, error) {
	var raw tomlConfig
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return nil, &Error{Section: "document", Err: err}
	}
	cfg := &Config{Properties: raw.Properties}
	for _, k := range sortedKeys(raw.Mappings) {
		cfg.Mappings = append(cfg.Mappings, Mapping{Ref: k, Target: raw.Mappings[k]})
	}
	for _, k := range sortedKeys(raw.Mnemonics) {
		cfg.Mnemonics = append(cfg.Mnemonics, Mnemonic{Name: k, Property: raw.Mnemonics[k]})
	}
	return cfg, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
