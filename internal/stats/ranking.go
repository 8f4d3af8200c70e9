package stats

import (
	"github.com/verte-zerg/tuirace/internal/record"
)

// Standing is one participant's final placement and derived metrics.
type Standing struct {
	Place     int
	Name      string
	Wpm       float64
	TopWpm    float64
	Precision float64
	Forfeited bool
}

// BuildStandings ranks participants by completion order. Forfeited
// participants follow the finishers, unplaced, in the order they dropped.
func BuildStandings(finishOrder, forfeited []string, records map[string]*record.Record) []Standing {
	standings := make([]Standing, 0, len(finishOrder)+len(forfeited))
	for i, name := range finishOrder {
		standings = append(standings, standingFor(name, i+1, false, records[name]))
	}
	for _, name := range forfeited {
		standings = append(standings, standingFor(name, 0, true, records[name]))
	}
	return standings
}

func standingFor(name string, place int, forfeited bool, rec *record.Record) Standing {
	s := Standing{Place: place, Name: name, Forfeited: forfeited}
	if rec != nil {
		s.Wpm = rec.AverageWpm()
		s.TopWpm = rec.TopWpm(DefaultWpmWindow, DefaultWpmStep)
		s.Precision = rec.Precision()
	}
	return s
}
