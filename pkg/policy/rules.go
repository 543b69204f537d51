package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRules reads and validates a yaml rule file.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	rs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return rs, nil
}

// ParseRules parses yaml rule content.
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, err
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}
