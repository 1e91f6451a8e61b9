package service

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/okian/scout/internal/adapters/repository"
	"github.com/okian/scout/internal/domain/types"
)

// FilterOptions lists the distinct competitions, seasons, teams and profiles
// present in the data, plus the age range. Profiles follow catalog order and
// keys the catalog does not know are listed after them.
func (s *Service) FilterOptions(ctx context.Context) (types.FilterOptions, error) {
	rows, err := s.store.List(ctx, repository.Filter{})
	if err != nil {
		return types.FilterOptions{}, errors.Wrap(err, "list rows")
	}

	competitions := map[string]struct{}{}
	seasons := map[string]struct{}{}
	teams := map[string]struct{}{}
	profiles := map[string]struct{}{}
	opts := types.FilterOptions{}
	for i := range rows {
		r := &rows[i]
		add(competitions, r.Competition)
		add(seasons, r.Season)
		add(teams, r.Team)
		add(profiles, r.ProfileKey)
		if r.Age <= 0 {
			continue
		}
		if opts.AgeMin == 0 || r.Age < opts.AgeMin {
			opts.AgeMin = r.Age
		}
		if r.Age > opts.AgeMax {
			opts.AgeMax = r.Age
		}
	}

	opts.Competitions = sorted(competitions)
	opts.Seasons = sorted(seasons)
	opts.Teams = sorted(teams)

	opts.Profiles = make([]string, 0, len(profiles))
	for _, key := range s.profiles.Keys() {
		if _, ok := profiles[key]; ok {
			opts.Profiles = append(opts.Profiles, key)
			delete(profiles, key)
		}
	}
	opts.Profiles = append(opts.Profiles, sorted(profiles)...)
	return opts, nil
}

func add(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
