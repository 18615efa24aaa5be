package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/academy/internal/cache"
	"github.com/smallbiznis/academy/internal/offering/domain"
	"github.com/smallbiznis/academy/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const slugCacheTTL = time.Minute

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   domain.Repository
	bySlug cache.Cache[string, domain.Offering]
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("offering.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		bySlug: cache.NewTTLCache[string, domain.Offering](),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOfferingRequest) (domain.Offering, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Offering{}, domain.ErrInvalidTitle
	}

	offeringSlug := strings.TrimSpace(req.Slug)
	if offeringSlug == "" {
		offeringSlug = slug.Make(title)
	} else if !slug.IsSlug(offeringSlug) {
		return domain.Offering{}, domain.ErrInvalidSlug
	}
	if offeringSlug == "" {
		return domain.Offering{}, domain.ErrInvalidSlug
	}

	price := decimal.Zero
	if raw := strings.TrimSpace(req.Price); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() {
			return domain.Offering{}, domain.ErrInvalidPrice
		}
		price = parsed.Round(2)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}
	if len(currency) != 3 {
		return domain.Offering{}, domain.ErrInvalidCurrency
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	now := time.Now().UTC()
	offering := domain.Offering{
		ID:         s.genID.Generate(),
		Slug:       offeringSlug,
		Title:      title,
		Price:      price,
		Currency:   currency,
		PriceLabel: req.PriceLabel,
		IsPublic:   isPublic,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, s.db, &offering); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Offering{}, domain.ErrSlugTaken
		}
		return domain.Offering{}, err
	}

	s.log.Info("offering created",
		zap.String("offering_id", offering.ID.String()),
		zap.String("slug", offering.Slug),
	)
	return offering, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Offering, error) {
	offeringID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || offeringID == 0 {
		return domain.Offering{}, domain.ErrInvalidID
	}

	offering, err := s.repo.FindByID(ctx, s.db, offeringID)
	if err != nil {
		return domain.Offering{}, err
	}
	if offering == nil {
		return domain.Offering{}, domain.ErrNotFound
	}
	return *offering, nil
}

func (s *Service) GetBySlug(ctx context.Context, offeringSlug string) (domain.Offering, error) {
	offeringSlug = strings.ToLower(strings.TrimSpace(offeringSlug))
	if offeringSlug == "" {
		return domain.Offering{}, domain.ErrInvalidSlug
	}
	if cached, ok := s.bySlug.Get(offeringSlug); ok {
		return cached, nil
	}

	offering, err := s.repo.FindBySlug(ctx, s.db, offeringSlug)
	if err != nil {
		return domain.Offering{}, err
	}
	if offering == nil || !offering.IsPublic {
		return domain.Offering{}, domain.ErrNotFound
	}

	s.bySlug.Set(offeringSlug, *offering, slugCacheTTL)
	return *offering, nil
}
