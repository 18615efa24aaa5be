package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Resolution is the question list the wizard shows. Fallback is set when the
// built-in questions were used because no template could be loaded.
type Resolution struct {
	TemplateID *snowflake.ID `json:"template_id,omitempty"`
	Questions  []Question    `json:"questions"`
	Fallback   bool          `json:"fallback"`
}

type Service interface {
	// ResolveQuestions never fails because of the store; a lookup error
	// yields the built-in questions.
	ResolveQuestions(ctx context.Context, offeringID snowflake.ID) (Resolution, error)
}

var (
	ErrUnknownQuestionKind    = errors.New("unknown_question_kind")
	ErrInvalidQuestionID      = errors.New("invalid_question_id")
	ErrInvalidQuestionLabel   = errors.New("invalid_question_label")
	ErrInvalidQuestionOptions = errors.New("invalid_question_options")
	ErrDuplicateQuestion      = errors.New("duplicate_question")
	ErrInvalidAnswer          = errors.New("invalid_answer")
	ErrUnknownQuestion        = errors.New("unknown_question")
)
