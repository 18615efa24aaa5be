package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/academy/internal/clock"
	"github.com/smallbiznis/academy/internal/enrollment/domain"
	needsdomain "github.com/smallbiznis/academy/internal/needsanalysis/domain"
	obsmetrics "github.com/smallbiznis/academy/internal/observability/metrics"
	sessiondomain "github.com/smallbiznis/academy/internal/session/domain"
	"github.com/smallbiznis/academy/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const referencePrefix = "ENR-"

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	SessionRepo  sessiondomain.Repository
	ResponseRepo needsdomain.Repository
	Metrics      *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	sessionRepo  sessiondomain.Repository
	responseRepo needsdomain.Repository
	metrics      *obsmetrics.Metrics
	validate     *validator.Validate
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("enrollment.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		sessionRepo:  p.SessionRepo,
		responseRepo: p.ResponseRepo,
		metrics:      p.Metrics,
		validate:     validator.New(),
	}
}

// Submit writes the request, the optional needs-analysis response, and the
// enrollment in one transaction, then takes a seat. A failed response write
// or a driver error on the seat decrement is logged and skipped. A seat
// decrement that changes no row means the session filled up meanwhile: the
// whole attempt rolls back with ErrSessionFull instead of flooring at zero.
func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResult, error) {
	if err := s.validateSubmit(req); err != nil {
		s.metrics.RecordSubmission(ctx, "invalid")
		return domain.SubmitResult{}, err
	}

	info := req.PersonalInfo
	now := s.clock.Now()
	result := domain.SubmitResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindByID(ctx, tx, req.SessionID)
		if err != nil {
			return err
		}
		if session == nil || session.OfferingID != req.OfferingID {
			return domain.ErrInvalidSession
		}

		request := domain.Request{
			ID:               s.genID.Generate(),
			Reference:        referencePrefix + ulid.Make().String(),
			OfferingID:       req.OfferingID,
			OfferingTitle:    strings.TrimSpace(req.OfferingTitle),
			Type:             req.Type,
			SessionID:        req.SessionID,
			Civility:         info.Civility,
			FirstName:        strings.TrimSpace(info.FirstName),
			LastName:         strings.TrimSpace(info.LastName),
			Email:            strings.TrimSpace(info.Email),
			Phone:            strings.TrimSpace(info.Phone),
			ParticipantCount: info.ParticipantCount,
			ProposedDates:    optional(req.ProposedDates),
			Status:           domain.RequestStatusPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if request.Civility == "" {
			request.Civility = domain.CivilityMr
		}
		if request.ParticipantCount < 1 {
			request.ParticipantCount = 1
		}
		if req.Type == domain.TypeOrganization {
			request.OrganizationName = optional(info.OrganizationName)
			request.TaxID = optional(info.TaxID)
			request.Address = optional(info.Address)
			request.City = optional(info.City)
			request.PostalCode = optional(info.PostalCode)
		}
		if err := s.repo.InsertRequest(ctx, tx, &request); err != nil {
			return err
		}
		result.RequestID = request.ID
		result.Reference = request.Reference

		answers := needsdomain.Responses(req.Answers).Answered()
		if len(answers) > 0 {
			response := needsdomain.Response{
				ID:              s.genID.Generate(),
				RequestID:       request.ID,
				SessionID:       req.SessionID,
				TemplateID:      req.TemplateID,
				RespondentName:  info.FullName(),
				RespondentEmail: request.Email,
				Answers:         datatypes.JSONMap(answers),
				CreatedAt:       now,
			}
			// A savepoint keeps the outer transaction usable when this write fails.
			err := tx.Transaction(func(sp *gorm.DB) error {
				return s.responseRepo.InsertResponse(ctx, sp, &response)
			})
			if err != nil {
				s.log.Warn("needs analysis response not saved",
					zap.String("request_id", request.ID.String()),
					zap.Error(err),
				)
				s.metrics.RecordResponseWriteFailure(ctx)
			} else {
				result.ResponseID = &response.ID
			}
		}

		enrollment := domain.Enrollment{
			ID:         s.genID.Generate(),
			SessionID:  req.SessionID,
			RequestID:  request.ID,
			ResponseID: result.ResponseID,
			Type:       req.Type,
			FirstName:  request.FirstName,
			LastName:   request.LastName,
			Email:      request.Email,
			Phone:      request.Phone,
			Status:     domain.EnrollmentStatusPendingConfirmation,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.InsertEnrollment(ctx, tx, &enrollment); err != nil {
			return err
		}
		result.EnrollmentID = enrollment.ID

		var taken bool
		err = tx.Transaction(func(sp *gorm.DB) error {
			ok, err := s.sessionRepo.DecrementSeat(ctx, sp, req.SessionID, now)
			taken = ok
			return err
		})
		switch {
		case err != nil:
			s.log.Warn("seat counter not updated",
				zap.String("session_id", req.SessionID.String()),
				zap.String("enrollment_id", enrollment.ID.String()),
				zap.Error(err),
			)
			s.metrics.RecordSeatDecrementFailure(ctx)
		case !taken:
			return domain.ErrSessionFull
		}
		result.SeatTaken = taken
		return nil
	})
	if err != nil {
		outcome := "failed"
		if errors.Is(err, domain.ErrSessionFull) {
			outcome = "session_full"
		}
		s.metrics.RecordSubmission(ctx, outcome)
		s.log.Warn("enrollment submission failed",
			zap.String("offering_id", req.OfferingID.String()),
			zap.String("session_id", req.SessionID.String()),
			zap.Error(err),
		)
		return domain.SubmitResult{}, err
	}

	s.metrics.RecordSubmission(ctx, "submitted")
	s.log.Info("enrollment submitted",
		zap.String("reference", result.Reference),
		zap.String("request_id", result.RequestID.String()),
		zap.Bool("seat_taken", result.SeatTaken),
	)
	return result, nil
}

func (s *Service) validateSubmit(req domain.SubmitRequest) error {
	if req.OfferingID == 0 {
		return domain.ErrInvalidOffering
	}
	if req.Type != domain.TypeIndividual && req.Type != domain.TypeOrganization {
		return domain.ErrInvalidType
	}
	if req.SessionID == 0 {
		return domain.ErrInvalidSession
	}
	if missing := req.PersonalInfo.MissingFields(req.Type); len(missing) > 0 {
		return &domain.MissingFieldsError{Fields: missing}
	}
	if err := s.validate.Var(strings.TrimSpace(req.PersonalInfo.Email), "email"); err != nil {
		return domain.ErrInvalidEmail
	}
	return nil
}

func (s *Service) ListRequests(ctx context.Context, req domain.ListRequestsRequest) (domain.ListRequestsResponse, error) {
	filter := domain.ListRequestsFilter{}
	if raw := strings.TrimSpace(req.OfferingID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.ListRequestsResponse{}, domain.ErrInvalidOffering
		}
		filter.OfferingID = &id
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		switch status := domain.RequestStatus(raw); status {
		case domain.RequestStatusPending, domain.RequestStatusConfirmed, domain.RequestStatusRejected:
			filter.Status = status
		default:
			return domain.ListRequestsResponse{}, domain.ErrInvalidStatus
		}
	}

	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListRequestsResponse{}, err
	}
	var after *domain.RequestCursor
	if cursor != nil {
		id, err := parseID(cursor.ID)
		if err != nil {
			return domain.ListRequestsResponse{}, pagination.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return domain.ListRequestsResponse{}, pagination.ErrInvalidPageToken
		}
		after = &domain.RequestCursor{ID: id, CreatedAt: createdAt.UTC()}
	}

	limit := req.Limit()
	rows, err := s.repo.ListRequests(ctx, s.db, filter, after, limit+1)
	if err != nil {
		return domain.ListRequestsResponse{}, err
	}

	rows, pageInfo, err := pagination.Trim(rows, limit, func(r domain.Request) pagination.Cursor {
		return pagination.Cursor{ID: r.ID.String(), CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano)}
	})
	if err != nil {
		return domain.ListRequestsResponse{}, err
	}
	if rows == nil {
		rows = []domain.Request{}
	}

	return domain.ListRequestsResponse{PageInfo: pageInfo, Requests: rows}, nil
}

func (s *Service) GetRequest(ctx context.Context, id string) (domain.RequestDetail, error) {
	requestID, err := parseID(id)
	if err != nil {
		return domain.RequestDetail{}, domain.ErrInvalidID
	}

	request, err := s.repo.FindRequestByID(ctx, s.db, requestID)
	if err != nil {
		return domain.RequestDetail{}, err
	}
	if request == nil {
		return domain.RequestDetail{}, domain.ErrNotFound
	}

	enrollment, err := s.repo.FindEnrollmentByRequestID(ctx, s.db, requestID)
	if err != nil {
		return domain.RequestDetail{}, err
	}
	return domain.RequestDetail{Request: *request, Enrollment: enrollment}, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
