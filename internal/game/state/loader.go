package state

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/jobswitch/internal/game/gearset"
)

// Table is a saved gearset table for one character.
type Table struct {
	Character      string           `yaml:"character"`
	TerritoryUseID uint16           `yaml:"territory_use_id"`
	Gearsets       []gearset.Record `yaml:"gearsets"`
}

// LoadTable reads a gearset table from a YAML file.
//
// Precondition: path must name a readable YAML file.
// Postcondition: Returns the parsed table or a non-nil error.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading gearset table %s: %w", path, err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing gearset table %s: %w", path, err)
	}
	return &t, nil
}
