package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Template is a stored questionnaire. Sections holds a JSON array of
// {"title", "questions"} objects. The flags have no gorm default, so Create
// stores them exactly as set.
type Template struct {
	ID         snowflake.ID   `gorm:"primaryKey" json:"id"`
	OfferingID *snowflake.ID  `gorm:"index" json:"offering_id,omitempty"`
	IsDefault  bool           `gorm:"not null" json:"is_default"`
	IsActive   bool           `gorm:"not null" json:"is_active"`
	Title      string         `gorm:"not null" json:"title"`
	Sections   datatypes.JSON `gorm:"type:jsonb;not null" json:"sections"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Template) TableName() string { return "needs_analysis_templates" }

type storedSection struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Questions flattens the stored sections into a validated question list.
// Any unknown question kind or malformed question fails the whole template.
func (t Template) Questions() ([]Question, error) {
	if len(t.Sections) == 0 {
		return []Question{}, nil
	}

	var sections []storedSection
	if err := json.Unmarshal(t.Sections, &sections); err != nil {
		return nil, fmt.Errorf("template %s: %w", t.ID, err)
	}

	questions := make([]Question, 0)
	seen := make(map[string]struct{})
	for _, section := range sections {
		for _, raw := range section.Questions {
			q, err := NewQuestion(raw.ID, raw.Kind, raw.Label, raw.Required, raw.Options, section.Title)
			if err != nil {
				return nil, fmt.Errorf("template %s: %w", t.ID, err)
			}
			if _, dup := seen[q.ID]; dup {
				return nil, fmt.Errorf("template %s: %w: %s", t.ID, ErrDuplicateQuestion, q.ID)
			}
			seen[q.ID] = struct{}{}
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// EncodeSections is the inverse of Questions.
func EncodeSections(questions []Question) (datatypes.JSON, error) {
	grouped := Sections(questions)
	out := make([]storedSection, 0, len(grouped))
	for _, s := range grouped {
		qs := make([]Question, 0, len(s.Questions))
		for _, q := range s.Questions {
			q.Section = ""
			qs = append(qs, q)
		}
		out = append(out, storedSection{Title: s.Title, Questions: qs})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// Response is the stored set of answers given during one enrollment.
type Response struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	RequestID       snowflake.ID      `gorm:"not null;index" json:"request_id"`
	SessionID       snowflake.ID      `gorm:"not null;index" json:"session_id"`
	TemplateID      *snowflake.ID     `json:"template_id,omitempty"`
	RespondentName  string            `gorm:"not null" json:"respondent_name"`
	RespondentEmail string            `gorm:"not null" json:"respondent_email"`
	Answers         datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"answers"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Response) TableName() string { return "needs_analysis_responses" }
