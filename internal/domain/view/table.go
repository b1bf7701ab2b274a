package view

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

//go:embed fields.yaml
var defaultTableYAML []byte

// Kind decides how the values of a predicate are folded into the view
type Kind string

const (
	KindSingle   Kind = "single"
	KindMulti    Kind = "multi"
	KindBoolean  Kind = "boolean"
	KindJSONTags Kind = "json_tags"
)

// FieldSpec maps one predicate to one view field
type FieldSpec struct {
	Predicate string `yaml:"predicate" toml:"predicate"`
	Field     string `yaml:"field" toml:"field"`
	Kind      Kind   `yaml:"kind" toml:"kind"`
	// Sanitize strips markup from single values
	Sanitize bool `yaml:"sanitize" toml:"sanitize"`
}

// Table is the whitelist of predicates shown in views
type Table struct {
	TagPredicate      string      `yaml:"tag_predicate" toml:"tag_predicate"`
	SkillTagPredicate string      `yaml:"skill_tag_predicate" toml:"skill_tag_predicate"`
	Fields            []FieldSpec `yaml:"fields" toml:"fields"`
}

// DefaultTable returns the built-in table
func DefaultTable() (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(defaultTableYAML, &t); err != nil {
		return nil, fmt.Errorf("parse built-in field table: %w", err)
	}
	return &t, t.Validate()
}

// LoadTable reads a table from a YAML or TOML file, chosen by extension
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field table: %w", err)
	}

	var t Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &t)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &t)
	default:
		return nil, fmt.Errorf("field table %s: unsupported format, use .yaml or .toml", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse field table %s: %w", path, err)
	}
	return &t, t.Validate()
}

// Validate checks that the table is usable
func (t *Table) Validate() error {
	if t.TagPredicate == "" || t.SkillTagPredicate == "" {
		return fmt.Errorf("field table must name the tag and skill tag predicates")
	}

	reserved := map[string]bool{"tags": true, "skillTags": true}
	seen := make(map[string]bool, len(t.Fields))
	for i, f := range t.Fields {
		if f.Predicate == "" || f.Field == "" {
			return fmt.Errorf("field table entry %d: predicate and field are required", i)
		}
		switch f.Kind {
		case KindSingle, KindMulti, KindBoolean, KindJSONTags:
		default:
			return fmt.Errorf("field table entry %q: unknown kind %q", f.Predicate, f.Kind)
		}
		if reserved[f.Field] {
			return fmt.Errorf("field table entry %q: field %q is reserved", f.Predicate, f.Field)
		}
		if seen[f.Predicate] {
			return fmt.Errorf("field table entry %q: duplicate predicate", f.Predicate)
		}
		seen[f.Predicate] = true
	}
	return nil
}
