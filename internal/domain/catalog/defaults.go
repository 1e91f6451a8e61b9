package catalog

import "github.com/cockroachdb/errors"

// Base colors per category, as hex strings.
const (
	PhysicalColor = "#3E8C5E"
	AttackColor   = "#E83F2A"
	DefenseColor  = "#F2B533"
)

// DefaultMetrics returns the built-in metric definitions.
func DefaultMetrics() []MetricDefinition {
	return []MetricDefinition{
		// Physical
		{Key: "total_distance_p90_percentile", Category: Physical, Label: "Total\ndistance", Tooltip: "Total distance covered per 90 minutes."},
		{Key: "running_distance_p90_percentile", Category: Physical, Label: "15-20km/h\ndistance", Tooltip: "Distance covered between 15 and 20 km/h per 90 minutes."},
		{Key: "hsr_distance_p90_percentile", Category: Physical, Label: "20-25km/h\ndistance", Tooltip: "Distance covered between 20 and 25 km/h per 90 minutes."},
		{Key: "sprint_distance_p90_percentile", Category: Physical, Label: "25+km/h\ndistance", Tooltip: "Distance covered above 25 km/h per 90 minutes."},
		{Key: "hi_distance_p90_percentile", Category: Physical, Label: "20+km/h\ndistance", Tooltip: "Distance covered above 20 km/h per 90 minutes."},
		{Key: "total_minutes_percentile", Category: Physical, Label: "Total\nminutes", Tooltip: "Minutes played across all positions."},

		// Attack
		{Key: "bypass_midfield_defense_tip_p30_percentile", Category: Attack, Label: "Bypassed\nopponents", Tooltip: "Midfielders and defenders bypassed with all actions, per 30 minutes in possession."},
		{Key: "bypass_midfield_defense_pass_tip_p30_percentile", Category: Attack, Label: "Bypassed\nopponents\n(pass)", Tooltip: "Midfielders and defenders bypassed with ground passes, per 30 minutes in possession."},
		{Key: "bypass_midfield_defense_dribble_tip_p30_percentile", Category: Attack, Label: "Bypassed\nopponents\n(dribble)", Tooltip: "Midfielders and defenders bypassed with dribbles, per 30 minutes in possession."},
		{Key: "bypass_opponents_rec_tip_p30_percentile", Category: Attack, Label: "Bypassed\nopponents\nas receiver", Tooltip: "Opponents bypassed as the receiver of a pass, per 30 minutes in possession."},
		{Key: "off_ball_runs_total_tip_p30_percentile", Category: Attack, Label: "Off-ball\nruns", Tooltip: "Runs without the ball, per 30 minutes in possession."},
		{Key: "involvement_chances_tip_p30_percentile", Category: Attack, Label: "Chance\ninvolvement", Tooltip: "Involvement in chances through a shot, assist or pre-assist, per 30 minutes in possession."},
		{Key: "chance_created_tip_p30_percentile", Category: Attack, Label: "Chances\ncreated", Tooltip: "Chances created, per 30 minutes in possession."},
		{Key: "pxt_pass_absolute_tip_p30_percentile", Category: Attack, Label: "Danger created\nwith passes", Tooltip: "Threat added with ground passes, per 30 minutes in possession."},
		{Key: "pxt_dribble_absolute_tip_p30_percentile", Category: Attack, Label: "Danger created\nwith dribbles", Tooltip: "Threat added with dribbles, per 30 minutes in possession."},
		{Key: "pxt_rec_absolute_tip_p30_percentile", Category: Attack, Label: "Danger created\nas receiver", Tooltip: "Threat added as pass receiver, per 30 minutes in possession."},
		{Key: "goals_tip_p30_percentile", Category: Attack, Label: "Goals", Tooltip: "Non-penalty goals, per 30 minutes in possession."},
		{Key: "shot_xg_tip_p30_percentile", Category: Attack, Label: "Expected\ngoals", Tooltip: "Non-penalty expected goals, per 30 minutes in possession."},
		{Key: "postshot_xg_tip_p30_percentile", Category: Attack, Label: "Post-shot\nexpected\ngoals", Tooltip: "Non-penalty post-shot expected goals, per 30 minutes in possession."},
		{Key: "ball_loss_removed_teammates_tip_p30_percentile", Category: Attack, Label: "Ball loss\nremoved\nteammates", Tooltip: "Teammates taken out of play by ball losses, per 30 minutes in possession."},
		{Key: "ball_loss_added_opponents_tip_p30_percentile", Category: Attack, Label: "Ball loss\nadded\nopponents", Tooltip: "Opponents brought back into play by ball losses, per 30 minutes in possession."},

		// Defense
		{Key: "ball_win_removed_opponents_otip_p30_percentile", Category: Defense, Label: "Attacking\nball wins", Tooltip: "Opponents taken out of play by ball wins high up the pitch."},
		{Key: "ball_win_added_teammates_otip_p30_percentile", Category: Defense, Label: "Defensive\nball wins", Tooltip: "Teammates brought back into play by ball wins deep in the pitch."},
		{Key: "ground_duels_won_p90_percentile", Category: Defense, Label: "Ground duels\nwon", Tooltip: "Ground duels won per 90 minutes."},
		{Key: "ground_duels_won_percentage_percentile", Category: Defense, Label: "Ground duel\nwin rate", Tooltip: "Share of ground duels won."},
		{Key: "aerial_duels_won_p90_percentile", Category: Defense, Label: "Aerial duels\nwon", Tooltip: "Aerial duels won per 90 minutes."},
		{Key: "aerial_duels_won_percentage_percentile", Category: Defense, Label: "Aerial duel\nwin rate", Tooltip: "Share of aerial duels won."},
		{Key: "press_total_count_otip_p30_percentile", Category: Defense, Label: "Pressing", Tooltip: "Pressing actions, per 30 minutes out of possession."},
		{Key: "press_total_stop_danger_otip_p30_percentile", Category: Defense, Label: "Danger stopped\nby pressing", Tooltip: "Pressing actions that stopped danger, per 30 minutes out of possession."},
	}
}

var (
	physicalCore = []string{
		"total_distance_p90_percentile",
		"running_distance_p90_percentile",
		"hi_distance_p90_percentile",
		"total_minutes_percentile",
	}
	defensiveCore = []string{
		"ball_win_removed_opponents_otip_p30_percentile",
		"ball_win_added_teammates_otip_p30_percentile",
		"ground_duels_won_p90_percentile",
		"aerial_duels_won_p90_percentile",
	}
)

func profile(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// ProfileDefinition is a profile key with its ordered metric keys.
type ProfileDefinition struct {
	Key     string   `koanf:"key" json:"key"`
	Metrics []string `koanf:"metrics" json:"metrics"`
}

// DefaultProfiles returns the built-in base profiles followed by the
// sub-role profiles, in display order.
func DefaultProfiles() []ProfileDefinition {
	fullback := profile(physicalCore, []string{
		"bypass_midfield_defense_pass_tip_p30_percentile",
		"bypass_midfield_defense_dribble_tip_p30_percentile",
		"bypass_opponents_rec_tip_p30_percentile",
		"off_ball_runs_total_tip_p30_percentile",
		"involvement_chances_tip_p30_percentile",
	}, defensiveCore)
	centreBack := profile(physicalCore, []string{
		"bypass_midfield_defense_pass_tip_p30_percentile",
		"bypass_midfield_defense_dribble_tip_p30_percentile",
	}, defensiveCore)
	midfield := profile(physicalCore, []string{
		"bypass_midfield_defense_pass_tip_p30_percentile",
		"bypass_midfield_defense_dribble_tip_p30_percentile",
		"bypass_opponents_rec_tip_p30_percentile",
		"off_ball_runs_total_tip_p30_percentile",
		"involvement_chances_tip_p30_percentile",
	}, defensiveCore, []string{"press_total_count_otip_p30_percentile"})
	creator := profile(physicalCore, []string{
		"pxt_pass_absolute_tip_p30_percentile",
		"pxt_dribble_absolute_tip_p30_percentile",
		"pxt_rec_absolute_tip_p30_percentile",
		"off_ball_runs_total_tip_p30_percentile",
		"shot_xg_tip_p30_percentile",
		"chance_created_tip_p30_percentile",
	}, defensiveCore)
	striker := profile(physicalCore, []string{
		"pxt_pass_absolute_tip_p30_percentile",
		"pxt_dribble_absolute_tip_p30_percentile",
		"pxt_rec_absolute_tip_p30_percentile",
		"off_ball_runs_total_tip_p30_percentile",
		"goals_tip_p30_percentile",
		"shot_xg_tip_p30_percentile",
		"postshot_xg_tip_p30_percentile",
	}, defensiveCore)

	base := []ProfileDefinition{
		{Key: "LB", Metrics: fullback},
		{Key: "RB", Metrics: fullback},
		{Key: "CB", Metrics: centreBack},
		{Key: "DM/CM", Metrics: midfield},
		{Key: "CAM", Metrics: creator},
		{Key: "LW", Metrics: creator},
		{Key: "RW", Metrics: creator},
		{Key: "ST", Metrics: striker},
	}

	byBase := make(map[string][]string, len(base))
	for _, b := range base {
		byBase[b.Key] = b.Metrics
	}
	subRoles := []struct{ key, base string }{
		{"LB (AANV)", "LB"}, {"LB (VERD)", "LB"},
		{"RB (AANV)", "RB"}, {"RB (VERD)", "RB"},
		{"CB (AANV)", "CB"}, {"CB (VERD)", "CB"},
		{"DM/CM (DEF)", "DM/CM"}, {"DM/CM (BTB)", "DM/CM"}, {"DM/CM (CREA)", "DM/CM"},
		{"CAM (CREA)", "CAM"}, {"CAM (LOP)", "CAM"},
		{"LW (BIN)", "LW"}, {"LW (BUI)", "LW"},
		{"RW (BIN)", "RW"}, {"RW (BUI)", "RW"},
		{"ST (DYN)", "ST"}, {"ST (TARG)", "ST"}, {"ST (DIEP)", "ST"},
	}

	out := append([]ProfileDefinition(nil), base...)
	for _, s := range subRoles {
		out = append(out, ProfileDefinition{Key: s.key, Metrics: byBase[s.base]})
	}
	return out
}

// Build registers metric and profile definitions, seals both registries and
// returns the profile registry. Any error is a configuration bug.
func Build(metricDefs []MetricDefinition, profileDefs []ProfileDefinition) (*Profiles, error) {
	metrics := NewMetrics()
	for _, def := range metricDefs {
		if err := metrics.RegisterDefinition(def); err != nil {
			return nil, err
		}
	}
	profiles := NewProfiles(metrics)
	for _, def := range profileDefs {
		if err := profiles.RegisterProfile(def.Key, def.Metrics); err != nil {
			return nil, err
		}
	}
	if profiles.Len() == 0 {
		return nil, errors.Wrap(ErrInvalidProfile, "no profiles registered")
	}
	profiles.Seal()
	return profiles, nil
}

// NewDefault builds the sealed built-in catalog.
func NewDefault() (*Profiles, error) {
	return Build(DefaultMetrics(), DefaultProfiles())
}
