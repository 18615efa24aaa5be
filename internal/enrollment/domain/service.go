package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academy/pkg/db/pagination"
)

type SubmitRequest struct {
	OfferingID    snowflake.ID
	OfferingTitle string
	Type          Type
	SessionID     snowflake.ID
	PersonalInfo  PersonalInfo
	ProposedDates string
	TemplateID    *snowflake.ID
	Answers       map[string]any
}

type SubmitResult struct {
	RequestID    snowflake.ID  `json:"request_id"`
	Reference    string        `json:"reference"`
	EnrollmentID snowflake.ID  `json:"enrollment_id"`
	ResponseID   *snowflake.ID `json:"response_id,omitempty"`
	// SeatTaken is false when the seat counter could not be updated.
	SeatTaken bool `json:"seat_taken"`
}

type ListRequestsRequest struct {
	pagination.Pagination
	OfferingID string `form:"offering_id"`
	Status     string `form:"status"`
}

type ListRequestsResponse struct {
	pagination.PageInfo
	Requests []Request `json:"requests"`
}

type RequestDetail struct {
	Request    Request     `json:"request"`
	Enrollment *Enrollment `json:"enrollment,omitempty"`
}

type Service interface {
	// Submit writes the request, the needs-analysis answers, the enrollment
	// and the seat decrement in one transaction.
	Submit(context.Context, SubmitRequest) (SubmitResult, error)
	ListRequests(context.Context, ListRequestsRequest) (ListRequestsResponse, error)
	GetRequest(ctx context.Context, id string) (RequestDetail, error)
}

var (
	ErrInvalidType             = errors.New("invalid_type")
	ErrInvalidCivility         = errors.New("invalid_civility")
	ErrInvalidParticipantCount = errors.New("invalid_participant_count")
	ErrInvalidOffering         = errors.New("invalid_offering")
	ErrInvalidSession          = errors.New("invalid_session")
	ErrInvalidEmail            = errors.New("invalid_email")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidID               = errors.New("invalid_id")
	ErrMissingFields           = errors.New("missing_fields")
	ErrSessionFull             = errors.New("session_full")
	ErrNotFound                = errors.New("not_found")
)

// MissingFieldsError names the blank required fields. It matches
// ErrMissingFields with errors.Is.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return ErrMissingFields.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrMissingFields
}
