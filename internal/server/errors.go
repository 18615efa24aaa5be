package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	enrolldomain "github.com/smallbiznis/academy/internal/enrollment/domain"
	needsdomain "github.com/smallbiznis/academy/internal/needsanalysis/domain"
	"github.com/smallbiznis/academy/internal/notify"
	offeringdomain "github.com/smallbiznis/academy/internal/offering/domain"
	"github.com/smallbiznis/academy/internal/ratelimit"
	sessiondomain "github.com/smallbiznis/academy/internal/session/domain"
	wizarddomain "github.com/smallbiznis/academy/internal/wizard/domain"
	"github.com/smallbiznis/academy/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error   errorPayload    `json:"error"`
	Notices []notify.Notice `json:"notices,omitempty"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// noticesKey carries the notices of a failed wizard call to the error body.
const noticesKey = "wizard_notices"

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		resp := errorResponse{Error: payload}
		if v, ok := c.Get(noticesKey); ok {
			resp.Notices, _ = v.([]notify.Notice)
		}
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, resp)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// classifyErrorForLog feeds the request logger with the same type and code
// the client sees.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var missing *enrolldomain.MissingFieldsError
	if errors.As(err, &missing) {
		fields := make([]ValidationError, 0, len(missing.Fields))
		for _, field := range missing.Fields {
			fields = append(fields, ValidationError{
				Field:   field,
				Code:    "required",
				Message: field + " is required",
			})
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  fields,
		}
	}

	if sentinel := validationSentinel(err); sentinel != nil {
		code := sentinel.Error()
		message := validationErrorMessage(code)
		if detail := err.Error(); detail != code {
			message = detail
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: message,
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ratelimit.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationErrors = []error{
	ErrInvalidRequest,
	pagination.ErrInvalidPageToken,

	wizarddomain.ErrInvalidOffering,
	wizarddomain.ErrWrongStep,
	wizarddomain.ErrStepGateClosed,
	wizarddomain.ErrUnknownSession,
	wizarddomain.ErrTermsNotAccepted,

	enrolldomain.ErrInvalidType,
	enrolldomain.ErrInvalidCivility,
	enrolldomain.ErrInvalidParticipantCount,
	enrolldomain.ErrInvalidOffering,
	enrolldomain.ErrInvalidSession,
	enrolldomain.ErrInvalidEmail,
	enrolldomain.ErrInvalidStatus,
	enrolldomain.ErrInvalidID,

	needsdomain.ErrUnknownQuestion,
	needsdomain.ErrInvalidAnswer,

	offeringdomain.ErrInvalidID,
	offeringdomain.ErrInvalidTitle,
	offeringdomain.ErrInvalidSlug,
	offeringdomain.ErrInvalidPrice,
	offeringdomain.ErrInvalidCurrency,

	sessiondomain.ErrInvalidOffering,
	sessiondomain.ErrInvalidStart,
	sessiondomain.ErrInvalidEnd,
	sessiondomain.ErrInvalidFormat,
	sessiondomain.ErrInvalidSeats,
	sessiondomain.ErrInvalidStatus,
}

// validationSentinel returns the sentinel err wraps, if it is a validation
// failure. Answer errors are wrapped with the question id.
func validationSentinel(err error) error {
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, wizarddomain.ErrSubmissionInFlight),
		errors.Is(err, wizarddomain.ErrSessionUnavailable),
		errors.Is(err, enrolldomain.ErrSessionFull),
		errors.Is(err, offeringdomain.ErrSlugTaken):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, wizarddomain.ErrSubmissionInFlight):
		return "submission already in flight"
	case errors.Is(err, wizarddomain.ErrSessionUnavailable),
		errors.Is(err, enrolldomain.ErrSessionFull):
		return "session is full"
	case errors.Is(err, offeringdomain.ErrSlugTaken):
		return "slug already taken"
	default:
		return "conflict"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, wizarddomain.ErrNotFound),
		errors.Is(err, wizarddomain.ErrClosed),
		errors.Is(err, offeringdomain.ErrNotFound),
		errors.Is(err, sessiondomain.ErrNotFound),
		errors.Is(err, enrolldomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

var validationFields = map[string]string{
	"invalid_request":    "request",
	"invalid_page_token": "page_token",
	"wrong_step":         "step",
	"step_incomplete":    "step",
	"unknown_session":    "session_id",
	"terms_not_accepted": "terms",
	"unknown_question":   "answers",
	"invalid_answer":     "answers",
	"invalid_start_date": "start_date",
	"invalid_end_date":   "end_date",
}

func validationErrorField(code string) string {
	if field, ok := validationFields[code]; ok {
		return field
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "wrong_step":
		return "not available on the current step"
	case "step_incomplete":
		return "current step is incomplete"
	case "terms_not_accepted":
		return "terms must be accepted"
	default:
		return "invalid value"
	}
}
