package catalog

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Category groups metrics for aggregation and chart layout.
type Category int

// The three scoring categories. Declaration order is chart order.
const (
	Physical Category = iota + 1
	Attack
	Defense
)

// Categories returns all categories in chart order.
func Categories() []Category {
	return []Category{Physical, Attack, Defense}
}

func (c Category) String() string {
	switch c {
	case Physical:
		return "physical"
	case Attack:
		return "attack"
	case Defense:
		return "defense"
	default:
		return "unknown"
	}
}

// Valid reports whether c is one of the three categories.
func (c Category) Valid() bool {
	return c >= Physical && c <= Defense
}

// ParseCategory parses a category name. The legacy names "attacking" and
// "defending" map to Attack and Defense.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "physical":
		return Physical, nil
	case "attack", "attacking":
		return Attack, nil
	case "defense", "defending", "defence":
		return Defense, nil
	}
	return 0, errors.Newf("unknown category %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, errors.Newf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
