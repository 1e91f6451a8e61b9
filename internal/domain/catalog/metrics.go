// Package catalog holds the metric and position-profile registries.
//
// Both registries are filled once during startup, sealed, and then shared
// read-only. Reads take no locks; registration is not safe for concurrent use
// and must finish before any scoring starts.
package catalog

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// MetricDefinition describes one scoreable metric.
type MetricDefinition struct {
	Key      string   `json:"key"`
	Category Category `json:"category"`
	// Label may contain line breaks used by chart renderers.
	Label   string `json:"label"`
	Tooltip string `json:"tooltip,omitempty"`
}

// DisplayLabel returns the label with line breaks replaced by sep.
func (m MetricDefinition) DisplayLabel(sep string) string {
	return strings.ReplaceAll(m.Label, "\n", sep)
}

// Metrics is the metric registry.
type Metrics struct {
	byKey      map[string]MetricDefinition
	order      []string
	byCategory map[Category][]string
	sealed     bool
}

// NewMetrics creates an empty metric registry.
func NewMetrics() *Metrics {
	return &Metrics{
		byKey:      make(map[string]MetricDefinition),
		byCategory: make(map[Category][]string),
	}
}

// Register adds a metric definition.
func (m *Metrics) Register(key string, category Category, label string) error {
	return m.RegisterDefinition(MetricDefinition{Key: key, Category: category, Label: label})
}

// RegisterDefinition adds a full metric definition, including its tooltip.
func (m *Metrics) RegisterDefinition(def MetricDefinition) error {
	if m.sealed {
		return errors.Wrapf(ErrSealed, "register metric %q", def.Key)
	}
	if strings.TrimSpace(def.Key) == "" {
		return errors.Wrap(ErrUnknownMetric, "register metric: empty key")
	}
	if !def.Category.Valid() {
		return errors.Wrapf(ErrUnknownMetric, "register metric %q: invalid category", def.Key)
	}
	if _, exists := m.byKey[def.Key]; exists {
		return errors.Wrapf(ErrDuplicateMetric, "register metric %q", def.Key)
	}
	if def.Label == "" {
		def.Label = def.Key
	}
	m.byKey[def.Key] = def
	m.order = append(m.order, def.Key)
	m.byCategory[def.Category] = append(m.byCategory[def.Category], def.Key)
	return nil
}

// Get returns the definition for key.
func (m *Metrics) Get(key string) (MetricDefinition, error) {
	def, ok := m.byKey[key]
	if !ok {
		return MetricDefinition{}, errors.Wrapf(ErrUnknownMetric, "metric %q", key)
	}
	return def, nil
}

// Has reports whether key is registered.
func (m *Metrics) Has(key string) bool {
	_, ok := m.byKey[key]
	return ok
}

// AllOfCategory returns the keys of category in registration order.
func (m *Metrics) AllOfCategory(category Category) []string {
	keys := m.byCategory[category]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// All returns every definition in registration order.
func (m *Metrics) All() []MetricDefinition {
	out := make([]MetricDefinition, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.byKey[k])
	}
	return out
}

// Len returns the number of registered metrics.
func (m *Metrics) Len() int { return len(m.order) }

// Seal forbids further registration.
func (m *Metrics) Seal() { m.sealed = true }
