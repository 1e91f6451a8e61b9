package catalog

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ByCategory is a profile's metric list split per category. Each list keeps
// the relative order of the profile definition.
type ByCategory struct {
	Physical []string `json:"physical"`
	Attack   []string `json:"attack"`
	Defense  []string `json:"defense"`
}

// Of returns the list for c.
func (b ByCategory) Of(c Category) []string {
	switch c {
	case Physical:
		return b.Physical
	case Attack:
		return b.Attack
	case Defense:
		return b.Defense
	}
	return nil
}

// Ordered concatenates the lists in chart order: physical, attack, defense.
func (b ByCategory) Ordered() []string {
	out := make([]string, 0, len(b.Physical)+len(b.Attack)+len(b.Defense))
	out = append(out, b.Physical...)
	out = append(out, b.Attack...)
	return append(out, b.Defense...)
}

// PositionProfile is a named, ordered selection of metrics.
type PositionProfile struct {
	Key     string   `json:"key"`
	Metrics []string `json:"metrics"`

	split ByCategory
}

// Profiles is the position-profile registry. It validates every profile
// against the metric registry it was built with.
type Profiles struct {
	metrics *Metrics
	byKey   map[string]*PositionProfile
	order   []string
	sealed  bool
}

// NewProfiles creates an empty profile registry bound to metrics.
func NewProfiles(metrics *Metrics) *Profiles {
	return &Profiles{
		metrics: metrics,
		byKey:   make(map[string]*PositionProfile),
	}
}

// RegisterProfile adds a profile. Every metric key must exist in the metric
// registry and appear at most once.
func (p *Profiles) RegisterProfile(profileKey string, orderedMetricKeys []string) error {
	if p.sealed {
		return errors.Wrapf(ErrSealed, "register profile %q", profileKey)
	}
	if strings.TrimSpace(profileKey) == "" {
		return errors.Wrap(ErrInvalidProfile, "register profile: empty key")
	}
	if _, exists := p.byKey[profileKey]; exists {
		return errors.Wrapf(ErrInvalidProfile, "profile %q already registered", profileKey)
	}
	if len(orderedMetricKeys) == 0 {
		return errors.Wrapf(ErrInvalidProfile, "profile %q has no metrics", profileKey)
	}

	seen := make(map[string]struct{}, len(orderedMetricKeys))
	prof := &PositionProfile{Key: profileKey, Metrics: make([]string, 0, len(orderedMetricKeys))}
	for _, key := range orderedMetricKeys {
		def, err := p.metrics.Get(key)
		if err != nil {
			return errors.Wrapf(errors.Mark(err, ErrInvalidProfile), "profile %q", profileKey)
		}
		if _, dup := seen[key]; dup {
			return errors.Wrapf(ErrInvalidProfile, "profile %q lists metric %q twice", profileKey, key)
		}
		seen[key] = struct{}{}
		prof.Metrics = append(prof.Metrics, key)
		switch def.Category {
		case Physical:
			prof.split.Physical = append(prof.split.Physical, key)
		case Attack:
			prof.split.Attack = append(prof.split.Attack, key)
		case Defense:
			prof.split.Defense = append(prof.split.Defense, key)
		}
	}

	p.byKey[profileKey] = prof
	p.order = append(p.order, profileKey)
	return nil
}

// Resolve returns the ordered metric keys of a profile.
func (p *Profiles) Resolve(profileKey string) ([]string, error) {
	prof, ok := p.byKey[profileKey]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProfile, "profile %q", profileKey)
	}
	out := make([]string, len(prof.Metrics))
	copy(out, prof.Metrics)
	return out, nil
}

// MetricsByCategory partitions a profile's metrics per category.
func (p *Profiles) MetricsByCategory(profileKey string) (ByCategory, error) {
	prof, ok := p.byKey[profileKey]
	if !ok {
		return ByCategory{}, errors.Wrapf(ErrUnknownProfile, "profile %q", profileKey)
	}
	return ByCategory{
		Physical: append([]string(nil), prof.split.Physical...),
		Attack:   append([]string(nil), prof.split.Attack...),
		Defense:  append([]string(nil), prof.split.Defense...),
	}, nil
}

// Has reports whether profileKey is registered.
func (p *Profiles) Has(profileKey string) bool {
	_, ok := p.byKey[profileKey]
	return ok
}

// Keys returns profile keys in registration order, which is display order.
func (p *Profiles) Keys() []string {
	return append([]string(nil), p.order...)
}

// Metrics returns the metric registry profiles are validated against.
func (p *Profiles) Metrics() *Metrics { return p.metrics }

// Len returns the number of registered profiles.
func (p *Profiles) Len() int { return len(p.order) }

// Seal forbids further registration on both registries.
func (p *Profiles) Seal() {
	p.sealed = true
	p.metrics.Seal()
}
