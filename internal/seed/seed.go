package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academy/internal/clock"
	"github.com/smallbiznis/academy/internal/config"
	needsdomain "github.com/smallbiznis/academy/internal/needsanalysis/domain"
	needsservice "github.com/smallbiznis/academy/internal/needsanalysis/service"
	offeringdomain "github.com/smallbiznis/academy/internal/offering/domain"
	sessiondomain "github.com/smallbiznis/academy/internal/session/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	demoOfferingTitle = "Excel avancé : tableaux croisés et automatisation"
	demoOfferingPrice = "1200"
	demoTemplateTitle = "Analyse des besoins"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	WizardConfig *config.WizardConfigHolder
	Offerings    offeringdomain.Service
	Sessions     sessiondomain.Service
	Templates    needsdomain.Repository
}

// Seeder creates the demo catalog used by local runs.
type Seeder struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	config    *config.WizardConfigHolder
	offerings offeringdomain.Service
	sessions  sessiondomain.Service
	templates needsdomain.Repository
}

func New(p Params) *Seeder {
	return &Seeder{
		db:        p.DB,
		log:       p.Log.Named("seed"),
		genID:     p.GenID,
		clock:     p.Clock,
		config:    p.WizardConfig,
		offerings: p.Offerings,
		sessions:  p.Sessions,
		templates: p.Templates,
	}
}

// EnsureDemo seeds one public offering with upcoming sessions and an active
// default needs-analysis template. It does nothing once any offering exists.
func (s *Seeder) EnsureDemo(ctx context.Context) error {
	if s.db == nil {
		return errors.New("seed database handle is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&offeringdomain.Offering{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.log.Debug("catalog already populated, skipping demo seed")
		return nil
	}

	offering, err := s.offerings.Create(ctx, offeringdomain.CreateOfferingRequest{
		Title: demoOfferingTitle,
		Price: demoOfferingPrice,
	})
	if err != nil {
		return fmt.Errorf("seed offering: %w", err)
	}

	today := s.clock.Now().UTC().Truncate(24 * time.Hour)
	for _, demo := range []struct {
		days     int
		location string
		format   sessiondomain.Format
		seats    int
	}{
		{days: 21, location: "Lyon", format: sessiondomain.FormatInPerson, seats: 8},
		{days: 35, location: "Classe virtuelle", format: sessiondomain.FormatRemote, seats: 12},
		{days: 63, location: "Paris", format: sessiondomain.FormatInPerson, seats: 6},
	} {
		start := today.AddDate(0, 0, demo.days).Add(9 * time.Hour)
		end := start.AddDate(0, 0, 1).Add(8 * time.Hour)
		if _, err := s.sessions.Create(ctx, sessiondomain.CreateSessionRequest{
			OfferingID: offering.ID.String(),
			StartDate:  start,
			EndDate:    &end,
			Location:   demo.location,
			Format:     string(demo.format),
			SeatsMax:   demo.seats,
		}); err != nil {
			return fmt.Errorf("seed session: %w", err)
		}
	}

	sections, err := needsdomain.EncodeSections(needsservice.DefaultQuestions(s.config.Get(), s.log))
	if err != nil {
		return fmt.Errorf("seed template: %w", err)
	}
	if err := s.templates.InsertTemplate(ctx, s.db, &needsdomain.Template{
		ID:        s.genID.Generate(),
		IsDefault: true,
		IsActive:  true,
		Title:     demoTemplateTitle,
		Sections:  sections,
	}); err != nil {
		return fmt.Errorf("seed template: %w", err)
	}

	s.log.Info("demo catalog seeded",
		zap.String("offering_id", offering.ID.String()),
		zap.String("slug", offering.Slug),
	)
	return nil
}
