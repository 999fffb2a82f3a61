package edit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Script is the on-disk form of a command batch.
//
//	commands:
//	  - op: add_state
//	    as: billing
//	  - op: add_transition
//	    source: greeting
//	    target: $billing
//	    description: caller asks about an invoice
type Script struct {
	Commands []Command `yaml:"commands" json:"commands"`
}

// LoadScript reads a command script (YAML or JSON, chosen by file extension).
func LoadScript(path string) ([]Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data, filepath.Ext(path))
}

// ParseScript decodes a command script. ext selects JSON for ".json" and YAML otherwise.
func ParseScript(data []byte, ext string) ([]Command, error) {
	var script Script
	if strings.ToLower(ext) == ".json" {
		if err := json.Unmarshal(data, &script); err != nil {
			return nil, fmt.Errorf("failed to parse json script: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &script); err != nil {
			return nil, fmt.Errorf("failed to parse yaml script: %w", err)
		}
	}

	for i, cmd := range script.Commands {
		if cmd.Op == "" {
			return nil, fmt.Errorf("command %d: op is required", i+1)
		}
	}
	return script.Commands, nil
}
