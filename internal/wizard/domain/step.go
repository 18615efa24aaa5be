package domain

import (
	"encoding/json"
	"fmt"
)

// Step is one screen of the wizard. The numeric values are the step indexes
// the front end shows.
type Step int

const (
	StepTypeSelection Step = iota
	StepSessionSelection
	StepNeedsAnalysis
	StepPersonalInfo
)

var stepNames = map[Step]string{
	StepTypeSelection:    "type_selection",
	StepSessionSelection: "session_selection",
	StepNeedsAnalysis:    "needs_analysis",
	StepPersonalInfo:     "personal_info",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

func (s Step) Valid() bool {
	_, ok := stepNames[s]
	return ok
}

func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Step) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for step, n := range stepNames {
		if n == name {
			*s = step
			return nil
		}
	}
	return fmt.Errorf("unknown wizard step %q", name)
}

// Next is the forward transition. Needs-analysis is only entered when there
// is at least one question in the current list.
func Next(state State) Step {
	switch state.Step {
	case StepTypeSelection:
		return StepSessionSelection
	case StepSessionSelection:
		if len(state.Questions) == 0 {
			return StepPersonalInfo
		}
		return StepNeedsAnalysis
	case StepNeedsAnalysis:
		return StepPersonalInfo
	default:
		return state.Step
	}
}

// Prev mirrors Next.
func Prev(state State) Step {
	switch state.Step {
	case StepSessionSelection:
		return StepTypeSelection
	case StepNeedsAnalysis:
		return StepSessionSelection
	case StepPersonalInfo:
		if len(state.Questions) == 0 {
			return StepSessionSelection
		}
		return StepNeedsAnalysis
	default:
		return state.Step
	}
}

// ActiveSteps lists the steps the enrollee will go through with the current
// question list.
func ActiveSteps(state State) []Step {
	if len(state.Questions) == 0 {
		return []Step{StepTypeSelection, StepSessionSelection, StepPersonalInfo}
	}
	return []Step{StepTypeSelection, StepSessionSelection, StepNeedsAnalysis, StepPersonalInfo}
}
