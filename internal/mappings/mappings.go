// Package mappings loads the field registry file shared by the compilers.
//
// One YAML file describes both targets:
//
//	sql:
//	  from: invoice AS I JOIN customer AS C ON C.id = I.customer
//	  tables: {I: invoice, C: customer}
//	  fields:
//	    - {name: customer, column: customer, alias: I, type: integer}
//	    - {name: birthday, column: birthday, alias: C, conversion: birthday}
//	elastic:
//	  fields:
//	    - {name: name, path: "child>name"}
//	    - name: title
//	      paths: [title, "item[].title"]
//	      conditions:
//	        - {path: "child>user", value: "{user}"}
//
// A SQL field listed more than once becomes a combined field.
package mappings

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazysearch/internal/elastic"
	"github.com/rebeliceyang/lazysearch/internal/filter"
)

// File is a parsed mapping file
type File struct {
	SQL     SQLMappings     `yaml:"sql"`
	Elastic ElasticMappings `yaml:"elastic"`

	path string
}

type SQLMappings struct {
	From   string            `yaml:"from"`
	Tables map[string]string `yaml:"tables"`
	Fields []SQLField        `yaml:"fields"`
}

type SQLField struct {
	Name       string         `yaml:"name"`
	Column     string         `yaml:"column"`
	Alias      string         `yaml:"alias,omitempty"`
	Type       string         `yaml:"type,omitempty"`
	Conversion string         `yaml:"conversion,omitempty"`
	Options    map[string]any `yaml:"options,omitempty"`
}

type ElasticMappings struct {
	Fields []ElasticField `yaml:"fields"`
}

type ElasticField struct {
	Name            string      `yaml:"name"`
	Path            string      `yaml:"path,omitempty"`
	Paths           []string    `yaml:"paths,omitempty"`
	Conditions      []Condition `yaml:"conditions,omitempty"`
	ValueConversion string      `yaml:"value_conversion,omitempty"`
}

type Condition struct {
	Path  string `yaml:"path"`
	Value any    `yaml:"value"`
}

// Load reads and validates a mapping file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings file: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.path = path
	return f, nil
}

// Parse decodes and validates mapping file contents
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse mappings: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Path returns the file the mappings were loaded from
func (f *File) Path() string {
	return f.path
}

// Validate checks names, columns, aliases and conversion names
func (f *File) Validate() error {
	for i, field := range f.SQL.Fields {
		if strings.TrimSpace(field.Name) == "" {
			return fmt.Errorf("sql field #%d: name cannot be empty", i+1)
		}
		if strings.TrimSpace(field.Column) == "" {
			return fmt.Errorf("sql field %s: column cannot be empty", field.Name)
		}
		if field.Alias != "" && len(f.SQL.Tables) > 0 {
			if _, ok := f.SQL.Tables[field.Alias]; !ok {
				return fmt.Errorf("sql field %s: unknown table alias %s", field.Name, field.Alias)
			}
		}
		if field.Conversion != "" {
			if _, err := filter.LookupConversion(field.Conversion); err != nil {
				return fmt.Errorf("sql field %s: %w", field.Name, err)
			}
		}
	}

	seen := make(map[string]bool)
	for i, field := range f.Elastic.Fields {
		if strings.TrimSpace(field.Name) == "" {
			return fmt.Errorf("elastic field #%d: name cannot be empty", i+1)
		}
		if seen[field.Name] {
			return fmt.Errorf("elastic field %s: defined more than once, use paths instead", field.Name)
		}
		seen[field.Name] = true
		if len(field.paths()) == 0 {
			return fmt.Errorf("elastic field %s: path cannot be empty", field.Name)
		}
		if field.ValueConversion != "" {
			if _, err := elastic.LookupValueConversion(field.ValueConversion); err != nil {
				return fmt.Errorf("elastic field %s: %w", field.Name, err)
			}
		}
	}
	return nil
}

func (e ElasticField) paths() []string {
	var paths []string
	if e.Path != "" {
		paths = append(paths, e.Path)
	}
	return append(paths, e.Paths...)
}

// ApplySQL registers every SQL field on g. Conversions are resolved when a
// field is first compiled.
func (f *File) ApplySQL(g *filter.Generator) error {
	for _, field := range f.SQL.Fields {
		opts := []filter.FieldOption{
			filter.WithAlias(field.Alias),
			filter.WithType(field.Type),
		}
		if field.Options != nil {
			opts = append(opts, filter.WithOptions(field.Options))
		}
		if name := field.Conversion; name != "" {
			opts = append(opts, filter.WithLazyConversion(func() (any, error) {
				return filter.LookupConversion(name)
			}))
		}
		if err := g.RegisterField(field.Name, field.Column, opts...); err != nil {
			return fmt.Errorf("failed to register field %s: %w", field.Name, err)
		}
	}
	return nil
}

// ApplyElastic registers every elastic field on g
func (f *File) ApplyElastic(g *elastic.Generator) error {
	for _, field := range f.Elastic.Fields {
		var opts []elastic.FieldOption
		if field.ValueConversion != "" {
			c, err := elastic.LookupValueConversion(field.ValueConversion)
			if err != nil {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}
			opts = append(opts, elastic.WithValueConversion(c))
		}
		if len(field.Conditions) > 0 {
			conditions := make([]elastic.ContextualCondition, len(field.Conditions))
			for i, c := range field.Conditions {
				conditions[i] = elastic.ContextualCondition{Path: c.Path, Value: c.Value}
			}
			opts = append(opts, elastic.WithContextualConditions(conditions...))
		}
		if err := g.RegisterMultiField(field.Name, field.paths(), opts...); err != nil {
			return fmt.Errorf("failed to register field %s: %w", field.Name, err)
		}
	}
	return nil
}

// Columns returns the table-qualified columns of the SQL fields, keyed by
// table name, in file order without duplicates
func (f *File) Columns() map[string][]string {
	out := make(map[string][]string)
	seen := make(map[string]bool)
	for _, field := range f.SQL.Fields {
		table := f.SQL.Tables[field.Alias]
		if table == "" {
			table = field.Alias
		}
		key := table + "." + field.Column
		if seen[key] {
			continue
		}
		seen[key] = true
		out[table] = append(out[table], field.Column)
	}
	return out
}
