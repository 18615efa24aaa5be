package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/academy/internal/config"
	"github.com/smallbiznis/academy/internal/enrollment"
	enrolldomain "github.com/smallbiznis/academy/internal/enrollment/domain"
	"github.com/smallbiznis/academy/internal/needsanalysis"
	"github.com/smallbiznis/academy/internal/notify"
	"github.com/smallbiznis/academy/internal/observability"
	obsmiddleware "github.com/smallbiznis/academy/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/academy/internal/observability/metrics"
	obstracing "github.com/smallbiznis/academy/internal/observability/tracing"
	"github.com/smallbiznis/academy/internal/offering"
	offeringdomain "github.com/smallbiznis/academy/internal/offering/domain"
	"github.com/smallbiznis/academy/internal/ratelimit"
	"github.com/smallbiznis/academy/internal/session"
	sessiondomain "github.com/smallbiznis/academy/internal/session/domain"
	"github.com/smallbiznis/academy/internal/wizard"
	wizarddomain "github.com/smallbiznis/academy/internal/wizard/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	offering.Module,
	session.Module,
	needsanalysis.Module,
	enrollment.Module,
	wizard.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET(httpMetrics.Path(), gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	offerings   offeringdomain.Service
	sessions    sessiondomain.Service
	enrollments enrolldomain.Service
	wizards     wizarddomain.Service
	localizer   *notify.Localizer
	limiter     ratelimit.Limiter
	obsMetrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Offerings   offeringdomain.Service
	Sessions    sessiondomain.Service
	Enrollments enrolldomain.Service
	Wizards     wizarddomain.Service
	Localizer   *notify.Localizer
	Limiter     ratelimit.Limiter   `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		offerings:   p.Offerings,
		sessions:    p.Sessions,
		enrollments: p.Enrollments,
		wizards:     p.Wizards,
		localizer:   p.Localizer,
		limiter:     p.Limiter,
		obsMetrics:  p.ObsMetrics,
	}

	svc.registerPublicRoutes()
	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/public")

	// -------- Catalog --------
	public.GET("/offerings/:slug", s.GetPublicOffering)
	public.GET("/offerings/:slug/sessions", s.ListPublicSessions)

	// -------- Wizard --------
	wizards := public.Group("/wizards", s.PublicRateLimit())
	{
		wizards.POST("", s.OpenWizard)
		wizards.GET("/:id", s.GetWizard)
		wizards.DELETE("/:id", s.CloseWizard)

		wizards.PUT("/:id/type", s.SelectWizardType)
		wizards.PUT("/:id/session", s.SelectWizardSession)
		wizards.PUT("/:id/answers", s.AnswerWizard)
		wizards.PUT("/:id/personal-info", s.UpdateWizardPersonalInfo)
		wizards.PUT("/:id/terms", s.AcceptWizardTerms)

		wizards.POST("/:id/next", s.AdvanceWizard)
		wizards.POST("/:id/back", s.BackWizard)
		wizards.POST("/:id/sections/next", s.NextWizardSection)
		wizards.POST("/:id/sections/prev", s.PrevWizardSection)
		wizards.POST("/:id/skip-needs-analysis", s.SkipWizardNeedsAnalysis)
		wizards.POST("/:id/submit", s.SubmitWizard)
	}
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AdminRequired())

	admin.POST("/offerings", s.CreateOffering)
	admin.POST("/sessions", s.CreateSession)

	admin.GET("/enrollment-requests", s.ListEnrollmentRequests)
	admin.GET("/enrollment-requests/:id", s.GetEnrollmentRequest)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
