package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/zhengda-lu/imgtag/internal/catalog"
	"github.com/zhengda-lu/imgtag/internal/scanner"
	"github.com/zhengda-lu/imgtag/internal/trash"
)

// Warning is a non-fatal config problem.
type Warning struct {
	Field      string `json:"field,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Validate checks field values and returns one warning per problem.
func (c *Config) Validate() []Warning {
	var ws []Warning

	switch c.Database.Driver {
	case "", "sqlite", "bolt":
	default:
		ws = append(ws, Warning{
			Field:      "database.driver",
			Message:    fmt.Sprintf("unknown driver %q", c.Database.Driver),
			Suggestion: "use sqlite or bolt",
		})
	}

	if c.Scan.BatchSize <= 0 {
		ws = append(ws, Warning{
			Field:      "scan.batch_size",
			Message:    fmt.Sprintf("batch size %d is not positive, 100 is used instead", c.Scan.BatchSize),
			Suggestion: "set a positive number such as 100",
		})
	}

	if _, err := scanner.ParseOrder(c.Scan.Order); err != nil {
		ws = append(ws, Warning{Field: "scan.order", Message: err.Error(), Suggestion: "use name, taken or none"})
	}

	for _, p := range c.Scan.Exclude {
		if !doublestar.ValidatePattern(p) {
			ws = append(ws, Warning{Field: "scan.exclude", Message: fmt.Sprintf("invalid glob pattern %q", p)})
		}
	}

	if strings.TrimSpace(c.Labels.Default) != "" {
		if _, err := catalog.NormalizeLabel(c.Labels.Default); err != nil {
			ws = append(ws, Warning{Field: "labels.default", Message: err.Error()})
		}
	} else if c.Labels.UseDefault {
		ws = append(ws, Warning{
			Field:      "labels.use_default",
			Message:    "use_default is on but no default label is set",
			Suggestion: "run: imgtag config set-default-label <label>",
		})
	}

	if _, err := trash.ParseMethod(c.Purge.Method); err != nil {
		ws = append(ws, Warning{Field: "purge.method", Message: err.Error(), Suggestion: "use permanent or trash"})
	}

	return ws
}

// LoadAndValidate parses raw YAML strictly, reporting unknown keys as
// warnings, then runs Validate.
func LoadAndValidate(data []byte) (*Config, []Warning) {
	var ws []Warning

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		ws = append(ws, Warning{Message: err.Error()})
		// Fall back to a lenient parse so field checks still run.
		cfg = Default()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return Default(), ws
		}
	}

	return cfg, append(ws, cfg.Validate()...)
}
