// Package seeds holds the default team list shipped with the binary.
package seeds

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed teams.yaml
var teamsYAML []byte

// Team is one default team. DayOfWeek is set for wrap-up teams only.
type Team struct {
	Name      string
	DayOfWeek *int
}

type file struct {
	Regular []string `yaml:"regular"`
	WrapUp  []struct {
		DayOfWeek int    `yaml:"day_of_week"`
		Name      string `yaml:"name"`
	} `yaml:"wrap_up"`
}

// DefaultTeams parses the embedded list: regular teams first, then one
// wrap-up team per weekday.
func DefaultTeams() ([]Team, error) {
	return parse(teamsYAML)
}

func parse(b []byte) ([]Team, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse default teams: %w", err)
	}
	out := make([]Team, 0, len(f.Regular)+len(f.WrapUp))
	for _, name := range f.Regular {
		out = append(out, Team{Name: name})
	}
	for _, w := range f.WrapUp {
		if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
			return nil, fmt.Errorf("wrap-up team %q: day_of_week %d out of range", w.Name, w.DayOfWeek)
		}
		d := w.DayOfWeek
		out = append(out, Team{Name: w.Name, DayOfWeek: &d})
	}
	return out, nil
}
