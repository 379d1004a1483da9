package detect

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ClassNames maps detector class ids to ingredient labels.
type ClassNames struct {
	Names []string `toml:"names"`
}

// LoadClassNames reads a TOML file of the form
//
//	names = ["apple", "banana", ...]
//
// where the position in the list is the class id.
func LoadClassNames(path string) (*ClassNames, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class names: %w", err)
	}
	var c ClassNames
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse class names: %w", err)
	}
	return &c, nil
}

// Name returns the label for id, or class_<id> when the table has no entry.
func (c *ClassNames) Name(id int) string {
	if c != nil && id >= 0 && id < len(c.Names) && c.Names[id] != "" {
		return c.Names[id]
	}
	return fmt.Sprintf("class_%d", id)
}
