package domain

import (
	"context"
	"errors"

	enrolldomain "github.com/smallbiznis/academy/internal/enrollment/domain"
)

type OpenRequest struct {
	OfferingID string `json:"offering_id"`
	Lang       string `json:"-"`
}

type SelectTypeRequest struct {
	Type          string  `json:"type"`
	ProposedDates *string `json:"proposed_dates"`
}

type Service interface {
	// Open starts a wizard for an offering and loads its sessions and
	// questions concurrently.
	Open(context.Context, OpenRequest) (View, error)
	Get(ctx context.Context, id string) (View, error)

	SelectType(ctx context.Context, id string, req SelectTypeRequest) (View, error)
	SelectSession(ctx context.Context, id string, sessionID string) (View, error)
	Answer(ctx context.Context, id string, answers map[string]any) (View, error)
	UpdatePersonalInfo(ctx context.Context, id string, patch enrolldomain.PersonalInfoPatch) (View, error)
	AcceptTerms(ctx context.Context, id string, accepted bool) (View, error)

	Advance(ctx context.Context, id string) (View, error)
	Back(ctx context.Context, id string) (View, error)
	NextSection(ctx context.Context, id string) (View, error)
	PrevSection(ctx context.Context, id string) (View, error)
	SkipNeedsAnalysis(ctx context.Context, id string) (View, error)

	// Submit returns the view along with the error so the notices of a
	// failed attempt reach the caller.
	Submit(ctx context.Context, id string) (View, error)
	Close(ctx context.Context, id string) error
}

var (
	ErrNotFound           = errors.New("wizard_not_found")
	ErrClosed             = errors.New("wizard_closed")
	ErrStale              = errors.New("wizard_stale")
	ErrInvalidOffering    = errors.New("invalid_offering")
	ErrWrongStep          = errors.New("wrong_step")
	ErrStepGateClosed     = errors.New("step_incomplete")
	ErrUnknownSession     = errors.New("unknown_session")
	ErrSessionUnavailable = errors.New("session_unavailable")
	ErrTermsNotAccepted   = errors.New("terms_not_accepted")
	ErrSubmissionInFlight = errors.New("submission_in_flight")
)
