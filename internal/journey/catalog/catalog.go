// Package catalog holds the immutable stage/task template catalog. The
// catalog is parsed once at process start and injected; nothing re-reads
// configuration per request.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/nutripath-backend/internal/journey/conditions"
	"github.com/yungbote/nutripath-backend/internal/journey/progression"
	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
)

//go:embed templates.yaml
var embeddedTemplates []byte

const (
	// Journeys render with between 3 and 5 stages. Below the minimum the
	// persona keeps whatever it has; above the maximum the list truncates
	// to the first N by template order so selection stays reproducible.
	MinStages = 3
	MaxStages = 5
)

type TaskTemplate struct {
	Key   string          `yaml:"key"`
	Type  string          `yaml:"type"`
	Title string          `yaml:"title"`
	Desc  string          `yaml:"desc"`
	XP    int             `yaml:"xp"`
	CTA   string          `yaml:"cta"`
	Check conditions.Spec `yaml:"check"`
}

type StageTemplate struct {
	Code         string                   `yaml:"code"`
	OrderIndex   int                      `yaml:"order_index"`
	Title        string                   `yaml:"title"`
	Type         string                   `yaml:"type"`
	XPReward     int                      `yaml:"xp_reward"`
	Requirements progression.Requirements `yaml:"requirements"`
	Tasks        []TaskTemplate           `yaml:"tasks"`
}

type file struct {
	Version        int                 `yaml:"version"`
	DefaultPersona string              `yaml:"default_persona"`
	Personas       map[string][]string `yaml:"personas"`
	Stages         []StageTemplate     `yaml:"stages"`
}

type Catalog struct {
	version        int
	defaultPersona string
	personas       map[string][]string
	stages         map[string]StageTemplate
}

// Load parses the catalog from CATALOG_PATH when set, otherwise from the
// embedded templates.
func Load(log *logger.Logger) (*Catalog, error) {
	raw := embeddedTemplates
	if path := os.Getenv("CATALOG_PATH"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loading stage catalog from file", "path", path)
		}
		raw = b
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if f.DefaultPersona == "" {
		return nil, fmt.Errorf("catalog: default_persona is required")
	}
	if _, ok := f.Personas[f.DefaultPersona]; !ok {
		return nil, fmt.Errorf("catalog: default persona %q has no stage list", f.DefaultPersona)
	}

	stages := make(map[string]StageTemplate, len(f.Stages))
	for _, st := range f.Stages {
		if st.Code == "" {
			return nil, fmt.Errorf("catalog: stage with empty code")
		}
		if _, dup := stages[st.Code]; dup {
			return nil, fmt.Errorf("catalog: duplicate stage code %q", st.Code)
		}
		seen := map[string]bool{}
		for _, task := range st.Tasks {
			if task.Key == "" {
				return nil, fmt.Errorf("catalog: stage %q has a task with empty key", st.Code)
			}
			if seen[task.Key] {
				return nil, fmt.Errorf("catalog: stage %q duplicates task key %q", st.Code, task.Key)
			}
			seen[task.Key] = true
		}
		stages[st.Code] = st
	}

	for persona, codes := range f.Personas {
		for _, code := range codes {
			if _, ok := stages[code]; !ok {
				return nil, fmt.Errorf("catalog: persona %q references unknown stage %q", persona, code)
			}
		}
	}

	return &Catalog{
		version:        f.Version,
		defaultPersona: f.DefaultPersona,
		personas:       f.Personas,
		stages:         stages,
	}, nil
}

func (c *Catalog) Version() int           { return c.version }
func (c *Catalog) DefaultPersona() string { return c.defaultPersona }

func (c *Catalog) HasPersona(persona string) bool {
	_, ok := c.personas[persona]
	return ok
}

// StagesFor returns the ordered stage templates for a persona. Unknown
// personas fall back to the default persona's list (logged). The list is
// clamped to MinStages..MaxStages: short lists are used as-is, long ones are
// truncated to the first MaxStages by template order.
func (c *Catalog) StagesFor(persona string, log *logger.Logger) []StageTemplate {
	codes, ok := c.personas[persona]
	if !ok {
		if log != nil {
			log.Warn("Unknown persona, falling back to default", "persona", persona, "default", c.defaultPersona)
		}
		codes = c.personas[c.defaultPersona]
	}

	if len(codes) > MaxStages {
		codes = codes[:MaxStages]
	}

	out := make([]StageTemplate, 0, len(codes))
	for i, code := range codes {
		st := c.stages[code]
		st.OrderIndex = i
		out = append(out, st)
	}
	return out
}

// XPTotal is the sum of a stage template's task points, fixed at seed time.
func (st StageTemplate) XPTotal() int {
	total := 0
	for _, t := range st.Tasks {
		total += t.XP
	}
	return total
}
