package genconfig

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"worldgen-server/internal/shared/errors"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed genconfig.schema.json
var schemaJSON []byte

const schemaURL = "genconfig.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Load reads a generation config file. Any failure is a configuration error.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfiguration(fmt.Sprintf("failed to read generation config %s", path), err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, errors.WrapConfiguration(path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, checks it against the embedded schema and then runs
// the semantic checks in Validate.
func Parse(raw []byte) (*Config, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.WrapConfiguration("generation config is not valid YAML", err)
	}
	if doc == nil {
		return nil, errors.Configurationf("generation config is empty")
	}

	// The validator expects JSON-shaped values (float64 numbers, string keys).
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.WrapConfiguration("generation config cannot be represented as JSON", err)
	}
	var generic any
	if err := json.Unmarshal(asJSON, &generic); err != nil {
		return nil, errors.WrapConfiguration("generation config cannot be represented as JSON", err)
	}

	s, err := compiledSchema()
	if err != nil {
		return nil, errors.WrapInternal("failed to compile generation config schema", err)
	}
	if err := s.Validate(generic); err != nil {
		return nil, errors.WrapConfiguration("generation config does not match schema", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.WrapConfiguration("failed to decode generation config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
