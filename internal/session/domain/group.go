package domain

import (
	"fmt"
	"time"
)

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// MonthGroup holds the sessions starting in one calendar month.
type MonthGroup struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Sessions []Session `json:"sessions"`
}

// GroupByMonth buckets sessions by the month they start in. Groups appear in
// the order their first session appears and sessions keep their input order.
func GroupByMonth(sessions []Session, loc *time.Location) []MonthGroup {
	if loc == nil {
		loc = time.UTC
	}

	groups := make([]MonthGroup, 0)
	index := make(map[string]int)
	for _, s := range sessions {
		start := s.StartDate.In(loc)
		key := start.Format("2006-01")
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, MonthGroup{Key: key, Label: MonthLabel(start)})
		}
		groups[i].Sessions = append(groups[i].Sessions, s)
	}
	return groups
}

// MonthLabel renders "novembre 2026".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", frenchMonths[t.Month()-1], t.Year())
}

// DateLabel renders "3 novembre 2026".
func DateLabel(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), MonthLabel(t))
}
