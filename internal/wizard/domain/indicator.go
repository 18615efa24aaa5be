package domain

import (
	"math"

	"github.com/smallbiznis/academy/internal/config"
)

type MarkerState string

const (
	MarkerCompleted MarkerState = "completed"
	MarkerCurrent   MarkerState = "current"
	MarkerPending   MarkerState = "pending"
)

type Marker struct {
	Label string      `json:"label"`
	State MarkerState `json:"state"`
}

type IndicatorView struct {
	Current int      `json:"current"`
	Total   int      `json:"total"`
	Percent int      `json:"percent"`
	Markers []Marker `json:"markers"`
}

// Indicator renders the progress bar for position current among labels.
func Indicator(current int, labels []string) IndicatorView {
	total := len(labels)
	view := IndicatorView{Current: current, Total: total, Markers: make([]Marker, 0, total)}
	if total == 0 {
		return view
	}
	if current < 0 {
		current = 0
	}
	if current >= total {
		current = total - 1
	}
	view.Current = current
	view.Percent = int(math.Round(100 * float64(current+1) / float64(total)))

	for i, label := range labels {
		state := MarkerPending
		switch {
		case i < current:
			state = MarkerCompleted
		case i == current:
			state = MarkerCurrent
		}
		view.Markers = append(view.Markers, Marker{Label: label, State: state})
	}
	return view
}

// StateIndicator places state.Step among the active steps.
func StateIndicator(state State, labels config.StepLabels) IndicatorView {
	steps := ActiveSteps(state)
	names := make([]string, 0, len(steps))
	current := 0
	for i, step := range steps {
		names = append(names, stepLabel(step, labels))
		if step == state.Step {
			current = i
		}
	}
	return Indicator(current, names)
}

func stepLabel(step Step, labels config.StepLabels) string {
	switch step {
	case StepTypeSelection:
		return labels.Type
	case StepSessionSelection:
		return labels.Session
	case StepNeedsAnalysis:
		return labels.NeedsAnalysis
	default:
		return labels.PersonalInfo
	}
}
