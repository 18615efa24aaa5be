package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// QuestionKind is the closed set of input types a needs-analysis question
// can take.
type QuestionKind string

const (
	KindText     QuestionKind = "text"
	KindTextarea QuestionKind = "textarea"
	KindSelect   QuestionKind = "select"
	KindRadio    QuestionKind = "radio"
	KindNumber   QuestionKind = "number"
)

const DefaultSection = "Général"

func ParseQuestionKind(raw string) (QuestionKind, error) {
	switch kind := QuestionKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case KindText, KindTextarea, KindSelect, KindRadio, KindNumber:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownQuestionKind, raw)
	}
}

func (k QuestionKind) hasOptions() bool {
	return k == KindSelect || k == KindRadio
}

func (k *QuestionKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, err := ParseQuestionKind(raw)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

type Question struct {
	ID       string       `json:"id"`
	Kind     QuestionKind `json:"type"`
	Label    string       `json:"label"`
	Required bool         `json:"required"`
	Options  []string     `json:"options,omitempty"`
	Section  string       `json:"section,omitempty"`
}

// NewQuestion validates a question. Select and radio questions need at least
// one option; the other kinds take none.
func NewQuestion(id string, kind QuestionKind, label string, required bool, options []string, section string) (Question, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Question{}, ErrInvalidQuestionID
	}
	if _, err := ParseQuestionKind(string(kind)); err != nil {
		return Question{}, err
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return Question{}, ErrInvalidQuestionLabel
	}

	cleaned := make([]string, 0, len(options))
	for _, opt := range options {
		if opt = strings.TrimSpace(opt); opt != "" {
			cleaned = append(cleaned, opt)
		}
	}
	switch {
	case kind.hasOptions() && len(cleaned) == 0:
		return Question{}, fmt.Errorf("%w: %s needs options", ErrInvalidQuestionOptions, id)
	case !kind.hasOptions() && len(cleaned) > 0:
		return Question{}, fmt.Errorf("%w: %s takes no options", ErrInvalidQuestionOptions, id)
	}
	if len(cleaned) == 0 {
		cleaned = nil
	}

	section = strings.TrimSpace(section)
	if section == "" {
		section = DefaultSection
	}

	return Question{
		ID:       id,
		Kind:     kind,
		Label:    label,
		Required: required,
		Options:  cleaned,
		Section:  section,
	}, nil
}

// Normalize checks raw against the question kind and returns the value to
// store: a float64 for number questions, a string otherwise. An empty string
// clears the answer.
func (q Question) Normalize(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		if strings.TrimSpace(v) == "" {
			return "", nil
		}
	}

	switch q.Kind {
	case KindNumber:
		n, ok := toNumber(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a number", ErrInvalidAnswer, q.ID)
		}
		return n, nil
	case KindSelect, KindRadio:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects one option", ErrInvalidAnswer, q.ID)
		}
		for _, opt := range q.Options {
			if opt == s {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%w: %q is not an option of %s", ErrInvalidAnswer, s, q.ID)
	case KindText, KindTextarea:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects text", ErrInvalidAnswer, q.ID)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuestionKind, q.Kind)
	}
}

func toNumber(raw any) (float64, bool) {
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
