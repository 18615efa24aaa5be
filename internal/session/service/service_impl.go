package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academy/internal/clock"
	"github.com/smallbiznis/academy/internal/session/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("session.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateSessionRequest) (domain.Session, error) {
	offeringID, err := parseID(req.OfferingID)
	if err != nil {
		return domain.Session{}, domain.ErrInvalidOffering
	}
	if req.StartDate.IsZero() {
		return domain.Session{}, domain.ErrInvalidStart
	}
	start := req.StartDate.UTC()

	var end *time.Time
	if req.EndDate != nil {
		e := req.EndDate.UTC()
		if e.Before(start) {
			return domain.Session{}, domain.ErrInvalidEnd
		}
		end = &e
	}

	format := domain.Format(strings.TrimSpace(req.Format))
	if format == "" {
		format = domain.FormatInPerson
	}
	if !format.Valid() {
		return domain.Session{}, domain.ErrInvalidFormat
	}

	if req.SeatsMax <= 0 {
		return domain.Session{}, domain.ErrInvalidSeats
	}

	status, err := parseStatus(req.Status)
	if err != nil {
		return domain.Session{}, err
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	now := s.clock.Now()
	session := domain.Session{
		ID:             s.genID.Generate(),
		OfferingID:     offeringID,
		StartDate:      start,
		EndDate:        end,
		Location:       strings.TrimSpace(req.Location),
		Format:         format,
		SeatsAvailable: req.SeatsMax,
		SeatsMax:       req.SeatsMax,
		Status:         status,
		IsPublic:       isPublic,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, s.db, &session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// ListAvailable lists the sessions an enrollee can still book, starting today.
func (s *Service) ListAvailable(ctx context.Context, offeringID string) ([]domain.Session, error) {
	id, err := parseID(offeringID)
	if err != nil {
		return nil, domain.ErrInvalidOffering
	}

	now := s.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	sessions, err := s.repo.ListBookable(ctx, s.db, id, today)
	if err != nil {
		s.log.Warn("list bookable sessions failed",
			zap.String("offering_id", offeringID),
			zap.Error(err),
		)
		return nil, err
	}
	return sessions, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, domain.ErrInvalidOffering
	}
	return id, nil
}

func parseStatus(raw string) (domain.Status, error) {
	switch status := domain.Status(strings.TrimSpace(raw)); status {
	case "":
		return domain.StatusScheduled, nil
	case domain.StatusScheduled, domain.StatusConfirmed, domain.StatusCancelled, domain.StatusCompleted:
		return status, nil
	default:
		return "", domain.ErrInvalidStatus
	}
}
