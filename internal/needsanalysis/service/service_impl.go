package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academy/internal/config"
	"github.com/smallbiznis/academy/internal/needsanalysis/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   domain.Repository
	Config *config.WizardConfigHolder
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	repo   domain.Repository
	config *config.WizardConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("needsanalysis.service"),
		repo:   p.Repo,
		config: p.Config,
	}
}

func (s *Service) ResolveQuestions(ctx context.Context, offeringID snowflake.ID) (domain.Resolution, error) {
	log := s.log.With(zap.String("offering_id", offeringID.String()))

	template, err := s.repo.FindActiveTemplate(ctx, s.db, offeringID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Resolution{}, ctxErr
		}
		log.Warn("needs analysis template lookup failed, using built-in questions", zap.Error(err))
		return s.fallback(), nil
	}
	if template == nil {
		log.Debug("no needs analysis template, using built-in questions")
		return s.fallback(), nil
	}

	questions, err := template.Questions()
	if err != nil {
		log.Warn("needs analysis template is malformed, using built-in questions",
			zap.String("template_id", template.ID.String()),
			zap.Error(err),
		)
		return s.fallback(), nil
	}

	id := template.ID
	return domain.Resolution{TemplateID: &id, Questions: questions}, nil
}

func (s *Service) fallback() domain.Resolution {
	return domain.Resolution{Questions: DefaultQuestions(s.config.Get(), s.log), Fallback: true}
}

// DefaultQuestions converts the configured built-in questions. Entries that
// do not validate are skipped.
func DefaultQuestions(cfg config.WizardConfig, log *zap.Logger) []domain.Question {
	questions := make([]domain.Question, 0, len(cfg.DefaultQuestions))
	for _, dq := range cfg.DefaultQuestions {
		kind, err := domain.ParseQuestionKind(dq.Type)
		if err == nil {
			var q domain.Question
			q, err = domain.NewQuestion(dq.ID, kind, dq.Label, dq.Required, dq.Options, dq.Section)
			if err == nil {
				questions = append(questions, q)
				continue
			}
		}
		if log != nil {
			log.Warn("skipping invalid default question", zap.String("question_id", dq.ID), zap.Error(err))
		}
	}
	return questions
}
