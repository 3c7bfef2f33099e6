package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/albapepper/futbol-tracker/internal/extract"
	"github.com/albapepper/futbol-tracker/internal/normalize"
	"github.com/albapepper/futbol-tracker/internal/record"
)

//go:embed sources.yaml
var defaultSources []byte

// Catalog is the static list of scrape targets plus the per-player goals
// parsing table.
type Catalog struct {
	Sources    []record.Source              `yaml:"sources" validate:"required,min=1,dive"`
	GoalsRules map[string]extract.GoalsRule `yaml:"goals_rules" validate:"dive"`
}

// LoadSources reads the catalog at path, or the embedded default when path
// is empty.
func LoadSources(path string) (*Catalog, error) {
	data := defaultSources
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read sources file: %w", err)
		}
		data = b
	}
	return ParseSources(data)
}

// ParseSources decodes and validates a YAML catalog. Unknown fields are
// rejected.
func ParseSources(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks field rules, unique source names and that no two
// distinct names map to the same document key.
func (c *Catalog) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid sources: %w", err)
	}

	names := make(map[string]bool, len(c.Sources))
	owners := make(map[string]string)
	for _, src := range c.Sources {
		if names[src.Name] {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		names[src.Name] = true

		for _, out := range extract.Outputs(src) {
			key := normalize.DocID(out.Category, out.Name)
			if owner, ok := owners[key]; ok && owner != out.Name {
				return fmt.Errorf("sources %q and %q both map to document %s", owner, out.Name, key)
			}
			owners[key] = out.Name
		}
	}
	return nil
}

// Filter keeps the sources named in only, preserving catalog order. An
// empty list keeps everything; an unknown name is an error. A selected
// player source also pulls in the team sources that report its team's
// matches played, so the derived NJ is computed from a full tally.
func (c *Catalog) Filter(only []string) ([]record.Source, error) {
	if len(only) == 0 {
		return c.Sources, nil
	}
	named := func(s record.Source) bool {
		return slices.ContainsFunc(only, func(n string) bool { return strings.EqualFold(s.Name, n) })
	}
	for _, name := range only {
		if !slices.ContainsFunc(c.Sources, func(s record.Source) bool { return strings.EqualFold(s.Name, name) }) {
			return nil, fmt.Errorf("unknown source %q", name)
		}
	}

	teams := make(map[string]bool)
	for _, s := range c.Sources {
		if named(s) && s.Type.Phase() == record.PhasePlayer {
			teams[s.Team] = true
		}
	}

	var out []record.Source
	for _, s := range c.Sources {
		if named(s) || (s.Type.ReportsPlayed() && teams[s.Team]) {
			out = append(out, s)
		}
	}
	return out, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("source_type", func(fl validator.FieldLevel) bool {
		return slices.Contains(record.SourceTypes, record.SourceType(fl.Field().String()))
	})
	return v
}
