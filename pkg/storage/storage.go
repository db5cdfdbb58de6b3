package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// ErrConfigInvalid reports a storage config rejected by ConfigJSONSchema.
var ErrConfigInvalid = errors.New("storage: config invalid")

// Config captures the database the page store runs on.
type Config struct {
	Name     string         `json:"name"`
	Driver   string         `json:"driver"`
	DSN      string         `json:"dsn"`
	ReadOnly bool           `json:"readOnly,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

// ValidationIssue is a single schema violation.
type ValidationIssue struct {
	Location string
	Message  string
}

// ConfigError lists every violation found in a config document.
type ConfigError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *ConfigError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%s: %v", ErrConfigInvalid, e.Cause)
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if location == "" {
			location = "#"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return fmt.Sprintf("%s: %s", ErrConfigInvalid, strings.Join(parts, "; "))
}

func (e *ConfigError) Unwrap() error {
	return ErrConfigInvalid
}

var configSchema = jsonschema.MustCompileString("storage-config.json", ConfigJSONSchema)

// ValidateConfigJSON checks raw against ConfigJSONSchema and decodes it.
func ValidateConfigJSON(raw []byte) (Config, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Config{}, &ConfigError{Cause: err}
	}
	if err := configSchema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return Config{}, &ConfigError{Issues: collectIssues(verr), Cause: err}
		}
		return Config{}, &ConfigError{Cause: err}
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, &ConfigError{Cause: err}
	}
	return cfg, nil
}

func collectIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if len(err.Causes) == 0 {
		return []ValidationIssue{{Location: err.InstanceLocation, Message: err.Message}}
	}
	var out []ValidationIssue
	for _, cause := range err.Causes {
		out = append(out, collectIssues(cause)...)
	}
	return out
}
