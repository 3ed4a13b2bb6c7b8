package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/rampgen/pkg/jsonschema"
)

//go:embed testfile.schema.json
var schemaJSON []byte

var schema = jsonschema.MustCompile("testfile.schema.json", schemaJSON)

// Schema returns the JSON schema test files are checked against.
func Schema() []byte {
	return schemaJSON
}

// LoadConfig reads, checks and decodes a test file. Defaults are applied
// and the result is validated.
//
// The file format is determined by extension:
//   - .json -> JSON
//   - anything else -> YAML
func LoadConfig(path string) (*TestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParseConfig(data, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig is LoadConfig on data already read; path only selects the
// format.
func ParseConfig(data []byte, path string) (*TestConfig, error) {
	var (
		doc interface{}
		cfg TestConfig
	)

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
		if errs := schema.Validate(doc); errs != nil {
			return nil, schemaErrors(errs)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
		if errs := schema.Validate(doc); errs != nil {
			return nil, schemaErrors(errs)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func schemaErrors(errs jsonschema.ValidationErrors) error {
	out := &ValidationErrors{}
	for _, err := range errs {
		out.Add("", err.Error())
	}
	return out
}
