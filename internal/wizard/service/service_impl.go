package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/academy/internal/clock"
	"github.com/smallbiznis/academy/internal/config"
	enrolldomain "github.com/smallbiznis/academy/internal/enrollment/domain"
	needsdomain "github.com/smallbiznis/academy/internal/needsanalysis/domain"
	needsservice "github.com/smallbiznis/academy/internal/needsanalysis/service"
	"github.com/smallbiznis/academy/internal/notify"
	"github.com/smallbiznis/academy/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/academy/internal/observability/metrics"
	"github.com/smallbiznis/academy/internal/observability/tracing"
	offeringdomain "github.com/smallbiznis/academy/internal/offering/domain"
	sessiondomain "github.com/smallbiznis/academy/internal/session/domain"
	"github.com/smallbiznis/academy/internal/wizard/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Params struct {
	fx.In

	Lifecycle   fx.Lifecycle `optional:"true"`
	Log         *zap.Logger
	Clock       clock.Clock
	Config      *config.WizardConfigHolder
	Store       domain.Store
	Localizer   *notify.Localizer
	Offerings   offeringdomain.Service
	Sessions    sessiondomain.Service
	Questions   needsdomain.Service
	Enrollments enrolldomain.Service
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	clock       clock.Clock
	config      *config.WizardConfigHolder
	store       domain.Store
	localizer   *notify.Localizer
	offerings   offeringdomain.Service
	sessions    sessiondomain.Service
	questions   needsdomain.Service
	enrollments enrolldomain.Service
	metrics     *obsmetrics.Metrics
	tracer      trace.Tracer

	fetches sync.WaitGroup
}

func New(p Params) *Service {
	svc := &Service{
		log:         p.Log.Named("wizard.service"),
		clock:       p.Clock,
		config:      p.Config,
		store:       p.Store,
		localizer:   p.Localizer,
		offerings:   p.Offerings,
		sessions:    p.Sessions,
		questions:   p.Questions,
		enrollments: p.Enrollments,
		metrics:     p.Metrics,
		tracer:      tracing.Tracer("academy/wizard"),
	}
	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{OnStop: svc.Shutdown})
	}
	return svc
}

// Provide exposes the service behind its interface for the fx graph.
func Provide(svc *Service) domain.Service {
	return svc
}

// Shutdown waits for background fetches started by Open.
func (s *Service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.fetches.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) Open(ctx context.Context, req domain.OpenRequest) (domain.View, error) {
	ctx, span := s.tracer.Start(ctx, "wizard.open")
	defer span.End()

	offeringID, err := snowflake.ParseString(strings.TrimSpace(req.OfferingID))
	if err != nil || offeringID == 0 {
		return domain.View{}, domain.ErrInvalidOffering
	}
	offering, err := s.offerings.GetByID(ctx, offeringID.String())
	if err != nil {
		return domain.View{}, err
	}
	if !offering.IsPublic {
		return domain.View{}, offeringdomain.ErrNotFound
	}

	lang := req.Lang
	if lang == "" {
		lang = "fr"
	}
	state := domain.NewState(uuid.NewString(), offering.SummaryIn(lang), lang, s.clock.Now())
	if err := s.store.Create(ctx, state); err != nil {
		return domain.View{}, err
	}
	span.SetAttributes(attribute.String("wizard.id", state.ID))

	log := logger.WithWizard(s.log, state.ID)
	log.Info("wizard opened", zap.String("offering_id", offeringID.String()))
	s.metrics.RecordWizardOpened(ctx)

	cfg := s.config.Get()
	done := s.startFetches(ctx, state, cfg.FetchTimeout, log)
	if cfg.AwaitFetch {
		select {
		case <-done:
		case <-ctx.Done():
			return domain.View{}, ctx.Err()
		}
	}

	return s.mutate(ctx, state.ID, func(*domain.State) error { return nil })
}

// startFetches loads sessions and questions in the background. Results only
// land on the wizard generation they were started for.
func (s *Service) startFetches(ctx context.Context, state domain.State, timeout time.Duration, log *zap.Logger) <-chan struct{} {
	base := context.WithoutCancel(ctx)
	fetchCtx, cancel := context.WithTimeout(base, timeout)
	done := make(chan struct{})

	apply := func(fn func(*domain.State) error) {
		_, err := s.store.Update(base, state.ID, domain.GuardEpoch(state.Epoch, fn))
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrStale), errors.Is(err, domain.ErrNotFound):
			log.Debug("fetch result dropped", zap.Error(err))
		default:
			log.Warn("fetch result not saved", zap.Error(err))
		}
	}

	s.fetches.Add(1)
	go func() {
		defer s.fetches.Done()
		defer close(done)
		defer cancel()

		var g errgroup.Group
		g.Go(func() error {
			sessions, err := s.sessions.ListAvailable(fetchCtx, state.OfferingID.String())
			if err != nil {
				log.Warn("sessions fetch failed", zap.Error(err))
			}
			apply(func(st *domain.State) error {
				if err != nil {
					st.ApplySessions(nil)
					st.Notify(s.localizer.Localize(st.Lang, notify.LevelError, notify.CodeSessionsFetchFailed))
					return nil
				}
				st.ApplySessions(sessions)
				return nil
			})
			return nil
		})
		g.Go(func() error {
			res, err := s.questions.ResolveQuestions(fetchCtx, state.OfferingID)
			if err != nil {
				log.Warn("questions fetch failed, using built-in questions", zap.Error(err))
				res = needsdomain.Resolution{
					Questions: needsservice.DefaultQuestions(s.config.Get(), log),
					Fallback:  true,
				}
			}
			apply(func(st *domain.State) error {
				st.ApplyQuestions(res)
				return nil
			})
			return nil
		})
		_ = g.Wait()
	}()
	return done
}

func (s *Service) Get(ctx context.Context, id string) (domain.View, error) {
	return s.mutate(ctx, id, func(*domain.State) error { return nil })
}

func (s *Service) SelectType(ctx context.Context, id string, req domain.SelectTypeRequest) (domain.View, error) {
	t, err := enrolldomain.ParseType(req.Type)
	if err != nil {
		return domain.View{}, err
	}
	return s.mutate(ctx, id, func(st *domain.State) error {
		if err := st.SelectType(t); err != nil {
			return err
		}
		if req.ProposedDates != nil {
			return st.SetProposedDates(strings.TrimSpace(*req.ProposedDates))
		}
		return nil
	})
}

func (s *Service) SelectSession(ctx context.Context, id string, sessionID string) (domain.View, error) {
	sid, err := snowflake.ParseString(strings.TrimSpace(sessionID))
	if err != nil {
		return domain.View{}, domain.ErrUnknownSession
	}
	return s.mutate(ctx, id, func(st *domain.State) error {
		return st.SelectSession(sid)
	})
}

func (s *Service) Answer(ctx context.Context, id string, answers map[string]any) (domain.View, error) {
	return s.mutate(ctx, id, func(st *domain.State) error {
		return st.Answer(answers)
	})
}

func (s *Service) UpdatePersonalInfo(ctx context.Context, id string, patch enrolldomain.PersonalInfoPatch) (domain.View, error) {
	return s.mutate(ctx, id, func(st *domain.State) error {
		return st.UpdatePersonalInfo(patch)
	})
}

func (s *Service) AcceptTerms(ctx context.Context, id string, accepted bool) (domain.View, error) {
	return s.mutate(ctx, id, func(st *domain.State) error {
		return st.AcceptTerms(accepted)
	})
}

func (s *Service) Advance(ctx context.Context, id string) (domain.View, error) {
	return s.mutate(ctx, id, (*domain.State).Advance)
}

func (s *Service) Back(ctx context.Context, id string) (domain.View, error) {
	return s.mutate(ctx, id, (*domain.State).Back)
}

func (s *Service) NextSection(ctx context.Context, id string) (domain.View, error) {
	return s.mutate(ctx, id, (*domain.State).NextSection)
}

func (s *Service) PrevSection(ctx context.Context, id string) (domain.View, error) {
	return s.mutate(ctx, id, (*domain.State).PrevSection)
}

func (s *Service) SkipNeedsAnalysis(ctx context.Context, id string) (domain.View, error) {
	return s.mutate(ctx, id, (*domain.State).SkipNeedsAnalysis)
}

func (s *Service) Submit(ctx context.Context, id string) (domain.View, error) {
	ctx, span := s.tracer.Start(ctx, "wizard.submit", trace.WithAttributes(attribute.String("wizard.id", id)))
	defer span.End()
	log := logger.WithWizard(s.log, id)

	ok, err := s.store.TryBeginSubmit(ctx, id)
	if err != nil {
		return domain.View{}, err
	}
	if !ok {
		s.metrics.RecordSubmitRejected(ctx)
		log.Info("submission already in flight")
		return s.failedView(ctx, id, domain.ErrSubmissionInFlight, notify.CodeSubmissionInFlight)
	}
	defer func() {
		if err := s.store.EndSubmit(context.WithoutCancel(ctx), id); err != nil {
			log.Warn("submit lock not released", zap.Error(err))
		}
	}()

	var req enrolldomain.SubmitRequest
	pending, err := s.store.Update(ctx, id, func(st *domain.State) error {
		if err := checkSubmittable(st); err != nil {
			return err
		}
		st.Submitting = true
		req = submitRequest(*st)
		return nil
	})
	if err != nil {
		return s.failedView(ctx, id, err, noticeCode(err))
	}

	result, submitErr := s.enrollments.Submit(ctx, req)
	if submitErr != nil {
		span.RecordError(tracing.SafeError(submitErr))
		span.SetStatus(codes.Error, "submission failed")

		_, err := s.store.Update(context.WithoutCancel(ctx), id, func(st *domain.State) error {
			st.Submitting = false
			if errors.Is(submitErr, enrolldomain.ErrSessionFull) {
				markFull(st, req.SessionID)
			}
			return nil
		})
		if err != nil {
			log.Warn("wizard not reset after failed submission", zap.Error(err))
		}
		return s.failedView(ctx, id, submitErr, noticeCode(submitErr))
	}

	var notices []notify.Notice
	finish := func(st *domain.State) error {
		st.Submitting = false
		st.Result = &result
		st.Notify(s.localizer.Localize(st.Lang, notify.LevelSuccess, notify.CodeEnrollmentSubmitted))
		notices = st.DrainNotices()
		closeState(st)
		return nil
	}
	state, err := s.store.Update(context.WithoutCancel(ctx), id, finish)
	if err != nil {
		// The enrollment is committed. Answer with it and let the reset
		// remove the stale state.
		log.Warn("wizard state not closed after submission",
			zap.String("reference", result.Reference),
			zap.Error(err),
		)
		state = pending.Clone()
		_ = finish(&state)
	}
	s.scheduleReset(id, log)

	log.Info("wizard submitted", zap.String("reference", result.Reference))
	return s.view(state, notices), nil
}

func checkSubmittable(st *domain.State) error {
	if st.Closed {
		return domain.ErrClosed
	}
	if st.Step != domain.StepPersonalInfo {
		return domain.ErrWrongStep
	}
	if st.Submitting {
		return domain.ErrSubmissionInFlight
	}
	if st.Type == nil {
		return enrolldomain.ErrInvalidType
	}
	session, ok := st.SelectedSession()
	if !ok {
		return domain.ErrUnknownSession
	}
	if session.IsFull() {
		return domain.ErrSessionUnavailable
	}
	if missing := st.MissingFields(); len(missing) > 0 {
		return &enrolldomain.MissingFieldsError{Fields: missing}
	}
	if !st.TermsAccepted {
		return domain.ErrTermsNotAccepted
	}
	return nil
}

func submitRequest(st domain.State) enrolldomain.SubmitRequest {
	answers := make(map[string]any, len(st.Responses))
	for k, v := range st.Responses {
		answers[k] = v
	}
	return enrolldomain.SubmitRequest{
		OfferingID:    st.OfferingID,
		OfferingTitle: st.Offering.Title,
		Type:          *st.Type,
		SessionID:     *st.SelectedSessionID,
		PersonalInfo:  st.PersonalInfo,
		ProposedDates: st.ProposedDates,
		TemplateID:    st.TemplateID,
		Answers:       answers,
	}
}

func markFull(st *domain.State, sessionID snowflake.ID) {
	for i := range st.Sessions {
		if st.Sessions[i].ID == sessionID {
			st.Sessions[i].SeatsAvailable = 0
		}
	}
}

func noticeCode(err error) string {
	var missing *enrolldomain.MissingFieldsError
	switch {
	case errors.As(err, &missing):
		for _, field := range missing.Fields {
			if field == "email" {
				return notify.CodeMissingEmail
			}
		}
		return notify.CodeMissingFields
	case errors.Is(err, enrolldomain.ErrInvalidEmail):
		return notify.CodeMissingEmail
	case errors.Is(err, domain.ErrTermsNotAccepted):
		return notify.CodeTermsNotAccepted
	case errors.Is(err, enrolldomain.ErrSessionFull), errors.Is(err, domain.ErrSessionUnavailable):
		return notify.CodeSessionFull
	case errors.Is(err, domain.ErrSubmissionInFlight):
		return notify.CodeSubmissionInFlight
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrClosed), errors.Is(err, domain.ErrWrongStep):
		return ""
	default:
		return notify.CodeEnrollmentFailed
	}
}

// failedView renders the unchanged wizard together with an error notice.
func (s *Service) failedView(ctx context.Context, id string, cause error, code string) (domain.View, error) {
	state, err := s.store.Get(context.WithoutCancel(ctx), id)
	if err != nil || state.Closed {
		return domain.View{}, cause
	}
	notices := []notify.Notice{}
	if code != "" {
		notices = append(notices, s.localizer.Localize(state.Lang, notify.LevelError, code))
	}
	return s.view(state, notices), cause
}

func (s *Service) Close(ctx context.Context, id string) error {
	_, err := s.store.Update(ctx, id, func(st *domain.State) error {
		closeState(st)
		return nil
	})
	if err != nil {
		return err
	}
	s.scheduleReset(id, logger.WithWizard(s.log, id))
	return nil
}

// closeState bumps the epoch so in-flight fetches cannot touch the state any
// more.
func closeState(st *domain.State) {
	if st.Closed {
		return
	}
	st.Epoch++
	st.Closed = true
}

func (s *Service) scheduleReset(id string, log *zap.Logger) {
	delay := s.config.Get().ResetDelay
	s.clock.AfterFunc(delay, func() {
		if err := s.store.Delete(context.Background(), id); err != nil {
			log.Warn("wizard state not deleted", zap.Error(err))
			return
		}
		log.Debug("wizard state reset")
	})
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*domain.State) error) (domain.View, error) {
	var notices []notify.Notice
	state, err := s.store.Update(ctx, id, func(st *domain.State) error {
		if st.Closed {
			return domain.ErrClosed
		}
		if err := fn(st); err != nil {
			return err
		}
		notices = st.DrainNotices()
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrClosed) {
			return domain.View{}, domain.ErrNotFound
		}
		return domain.View{}, err
	}
	return s.view(state, notices), nil
}

func (s *Service) view(state domain.State, notices []notify.Notice) domain.View {
	view := domain.Render(state, s.config.Get().StepLabels, time.UTC)
	if notices == nil {
		notices = []notify.Notice{}
	}
	view.Notices = notices
	return view
}
