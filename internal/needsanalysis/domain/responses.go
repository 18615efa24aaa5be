package domain

import (
	"math"
	"strings"
)

// Responses maps a question id to its answer, a string or a float64.
type Responses map[string]any

// IsAnswered reports whether v counts as a non-empty answer.
func IsAnswered(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	default:
		return true
	}
}

// Answered drops empty answers.
func (r Responses) Answered() Responses {
	out := make(Responses, len(r))
	for id, v := range r {
		if IsAnswered(v) {
			out[id] = v
		}
	}
	return out
}

type Section struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Sections groups questions by section title in first-appearance order.
func Sections(questions []Question) []Section {
	sections := make([]Section, 0)
	index := make(map[string]int)
	for _, q := range questions {
		title := strings.TrimSpace(q.Section)
		if title == "" {
			title = DefaultSection
		}
		i, ok := index[title]
		if !ok {
			i = len(sections)
			index[title] = i
			sections = append(sections, Section{Title: title})
		}
		sections[i].Questions = append(sections[i].Questions, q)
	}
	return sections
}

// SectionComplete reports whether every required question of the section
// has an answer.
func SectionComplete(section Section, responses Responses) bool {
	for _, q := range section.Questions {
		if q.Required && !IsAnswered(responses[q.ID]) {
			return false
		}
	}
	return true
}

// Progress is the percentage shown while paging sections.
func Progress(index, total int) int {
	if total <= 0 {
		return 0
	}
	if index < 0 {
		index = 0
	}
	if index >= total {
		index = total - 1
	}
	return int(math.Round(100 * float64(index+1) / float64(total)))
}
