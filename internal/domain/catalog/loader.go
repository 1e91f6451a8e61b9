package catalog

import (
	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type fileMetric struct {
	Key      string `koanf:"key"`
	Category string `koanf:"category"`
	Label    string `koanf:"label"`
	Tooltip  string `koanf:"tooltip"`
}

type fileCatalog struct {
	Metrics  []fileMetric        `koanf:"metrics"`
	Profiles []ProfileDefinition `koanf:"profiles"`
}

// LoadFile builds a sealed catalog from a YAML file with top-level
// "metrics" and "profiles" lists. When the file omits metrics the built-in
// metric definitions are used, so a file may only redefine profiles.
func LoadFile(path string) (*Profiles, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "load catalog %s", path)
	}

	var fc fileCatalog
	if err := k.UnmarshalWithConf("", &fc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrapf(err, "decode catalog %s", path)
	}

	metricDefs := DefaultMetrics()
	if len(fc.Metrics) > 0 {
		metricDefs = make([]MetricDefinition, 0, len(fc.Metrics))
		for _, m := range fc.Metrics {
			cat, err := ParseCategory(m.Category)
			if err != nil {
				return nil, errors.Wrapf(errors.Mark(err, ErrUnknownMetric), "metric %q", m.Key)
			}
			metricDefs = append(metricDefs, MetricDefinition{
				Key:      m.Key,
				Category: cat,
				Label:    m.Label,
				Tooltip:  m.Tooltip,
			})
		}
	}

	profileDefs := fc.Profiles
	if len(profileDefs) == 0 {
		profileDefs = DefaultProfiles()
	}

	profiles, err := Build(metricDefs, profileDefs)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return profiles, nil
}
