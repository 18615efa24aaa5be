package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/academy/internal/config"
	enrolldomain "github.com/smallbiznis/academy/internal/enrollment/domain"
	needsdomain "github.com/smallbiznis/academy/internal/needsanalysis/domain"
	"github.com/smallbiznis/academy/internal/notify"
	"github.com/smallbiznis/academy/internal/observability"
	offeringdomain "github.com/smallbiznis/academy/internal/offering/domain"
	"github.com/smallbiznis/academy/internal/ratelimit"
	sessiondomain "github.com/smallbiznis/academy/internal/session/domain"
	wizarddomain "github.com/smallbiznis/academy/internal/wizard/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWizards struct {
	wizarddomain.Service

	openReq  wizarddomain.OpenRequest
	answers  map[string]any
	submitFn func(id string) (wizarddomain.View, error)
	getFn    func(id string) (wizarddomain.View, error)
	closed   []string
}

func (f *fakeWizards) Open(_ context.Context, req wizarddomain.OpenRequest) (wizarddomain.View, error) {
	f.openReq = req
	return wizarddomain.View{
		ID:      "wiz-1",
		Step:    wizarddomain.StepTypeSelection,
		Notices: []notify.Notice{},
	}, nil
}

func (f *fakeWizards) Get(_ context.Context, id string) (wizarddomain.View, error) {
	if f.getFn != nil {
		return f.getFn(id)
	}
	return wizarddomain.View{ID: id}, nil
}

func (f *fakeWizards) Answer(_ context.Context, id string, answers map[string]any) (wizarddomain.View, error) {
	f.answers = answers
	if _, ok := answers["unknown"]; ok {
		return wizarddomain.View{}, fmt.Errorf("%w: unknown", needsdomain.ErrUnknownQuestion)
	}
	return wizarddomain.View{ID: id, Step: wizarddomain.StepNeedsAnalysis}, nil
}

func (f *fakeWizards) Submit(_ context.Context, id string) (wizarddomain.View, error) {
	return f.submitFn(id)
}

func (f *fakeWizards) Close(_ context.Context, id string) error {
	f.closed = append(f.closed, id)
	return nil
}

type fakeOfferings struct {
	offeringdomain.Service
	offering offeringdomain.Offering
	created  []offeringdomain.CreateOfferingRequest
}

func (f *fakeOfferings) GetBySlug(_ context.Context, slug string) (offeringdomain.Offering, error) {
	if slug != f.offering.Slug {
		return offeringdomain.Offering{}, offeringdomain.ErrNotFound
	}
	return f.offering, nil
}

func (f *fakeOfferings) Create(_ context.Context, req offeringdomain.CreateOfferingRequest) (offeringdomain.Offering, error) {
	f.created = append(f.created, req)
	return offeringdomain.Offering{ID: 7, Title: req.Title, Slug: "excel"}, nil
}

type fakeSessions struct {
	sessiondomain.Service
	sessions []sessiondomain.Session
}

func (f *fakeSessions) ListAvailable(context.Context, string) ([]sessiondomain.Session, error) {
	return f.sessions, nil
}

type fakeEnrollments struct {
	enrolldomain.Service
	listed []enrolldomain.ListRequestsRequest
}

func (f *fakeEnrollments) ListRequests(_ context.Context, req enrolldomain.ListRequestsRequest) (enrolldomain.ListRequestsResponse, error) {
	f.listed = append(f.listed, req)
	return enrolldomain.ListRequestsResponse{Requests: []enrolldomain.Request{}}, nil
}

func (f *fakeEnrollments) GetRequest(_ context.Context, id string) (enrolldomain.RequestDetail, error) {
	return enrolldomain.RequestDetail{}, enrolldomain.ErrNotFound
}

type testServer struct {
	engine      *gin.Engine
	wizards     *fakeWizards
	offerings   *fakeOfferings
	enrollments *fakeEnrollments
}

func newTestServer(t *testing.T, cfg config.Config, limiter ratelimit.Limiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		engine:  NewEngine(observability.Config{Environment: "test"}, nil),
		wizards: &fakeWizards{},
		offerings: &fakeOfferings{offering: offeringdomain.Offering{
			ID: 7, Slug: "excel", Title: "Excel avancé", IsPublic: true,
		}},
		enrollments: &fakeEnrollments{},
	}
	sessions := &fakeSessions{sessions: []sessiondomain.Session{
		{ID: 1, StartDate: time.Date(2026, 11, 3, 9, 0, 0, 0, time.UTC), SeatsAvailable: 3},
		{ID: 2, StartDate: time.Date(2026, 12, 1, 9, 0, 0, 0, time.UTC), SeatsAvailable: 1},
	}}

	NewServer(ServerParams{
		Gin:         ts.engine,
		Cfg:         cfg,
		Offerings:   ts.offerings,
		Sessions:    sessions,
		Enrollments: ts.enrollments,
		Wizards:     ts.wizards,
		Localizer:   notify.NewLocalizer(),
		Limiter:     limiter,
	})
	return ts
}

func (ts *testServer) do(method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Notices []notify.Notice `json:"notices"`
	Error   *errorPayload   `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestOpenWizardResolvesLanguage(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	rec := ts.do(http.MethodPost, "/public/wizards", gin.H{"offering_id": "7"}, http.Header{
		"Accept-Language": {"en-US,en;q=0.9"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decode(t, rec)
	assert.Equal(t, "en", ts.wizards.openReq.Lang)
	assert.Equal(t, "7", ts.wizards.openReq.OfferingID)
	assert.NotNil(t, env.Notices)

	var view map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "wiz-1", view["id"])
	assert.Equal(t, "type_selection", view["step"])
	assert.NotContains(t, view, "notices")
}

func TestSubmitFailureCarriesNotices(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)
	ts.wizards.submitFn = func(id string) (wizarddomain.View, error) {
		return wizarddomain.View{
			ID:      id,
			Notices: []notify.Notice{{Level: notify.LevelError, Code: notify.CodeSubmissionInFlight}},
		}, wizarddomain.ErrSubmissionInFlight
	}

	rec := ts.do(http.MethodPost, "/public/wizards/wiz-1/submit", nil, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "conflict", env.Error.Type)
	require.Len(t, env.Notices, 1)
	assert.Equal(t, notify.CodeSubmissionInFlight, env.Notices[0].Code)
}

func TestSubmitMissingFieldsListsEachField(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)
	ts.wizards.submitFn = func(string) (wizarddomain.View, error) {
		return wizarddomain.View{}, &enrolldomain.MissingFieldsError{Fields: []string{"email", "phone"}}
	}

	rec := ts.do(http.MethodPost, "/public/wizards/wiz-1/submit", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env := decode(t, rec)
	require.Len(t, env.Error.Errors, 2)
	assert.Equal(t, "email", env.Error.Errors[0].Field)
	assert.Equal(t, "required", env.Error.Errors[0].Code)
	assert.Empty(t, env.Notices)
}

func TestAnswerErrorsKeepSentinelCode(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	rec := ts.do(http.MethodPut, "/public/wizards/wiz-1/answers", gin.H{"answers": gin.H{"unknown": "x"}}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.Len(t, env.Error.Errors, 1)
	assert.Equal(t, "unknown_question", env.Error.Errors[0].Code)
	assert.Equal(t, "answers", env.Error.Errors[0].Field)
	assert.Equal(t, "unknown_question: unknown", env.Error.Errors[0].Message)

	rec = ts.do(http.MethodPut, "/public/wizards/wiz-1/answers", gin.H{"answers": gin.H{"years": 4}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), ts.wizards.answers["years"])

	rec = ts.do(http.MethodPut, "/public/wizards/wiz-1/answers", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClosedWizardIsNotFound(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)
	ts.wizards.getFn = func(string) (wizarddomain.View, error) {
		return wizarddomain.View{}, wizarddomain.ErrNotFound
	}

	rec := ts.do(http.MethodGet, "/public/wizards/wiz-1", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodDelete, "/public/wizards/wiz-2", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"wiz-2"}, ts.wizards.closed)
}

func TestPublicRateLimitOnlyThrottlesMutations(t *testing.T) {
	limiter := ratelimit.NewLocalLimiter(ratelimit.Limit{PerMinute: 1, Burst: 1})
	ts := newTestServer(t, config.Config{}, limiter)

	rec := ts.do(http.MethodDelete, "/public/wizards/wiz-1", nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodDelete, "/public/wizards/wiz-1", nil, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decode(t, rec).Error.Type)

	rec = ts.do(http.MethodGet, "/public/wizards/wiz-1", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicCatalog(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	rec := ts.do(http.MethodGet, "/public/offerings/excel", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary offeringdomain.Summary
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &summary))
	assert.Equal(t, "Excel avancé", summary.Title)
	assert.Equal(t, "Nous consulter", summary.DisplayPrice)

	rec = ts.do(http.MethodGet, "/public/offerings/excel/sessions", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []sessiondomain.MonthGroup
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &groups))
	require.Len(t, groups, 2)
	assert.Equal(t, "novembre 2026", groups[0].Label)
	assert.Equal(t, snowflake.ID(2), groups[1].Sessions[0].ID)

	rec = ts.do(http.MethodGet, "/public/offerings/unknown", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t, config.Config{AdminToken: "s3cret"}, nil)

	rec := ts.do(http.MethodGet, "/admin/enrollment-requests", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/admin/enrollment-requests", nil, http.Header{"Authorization": {"Bearer nope"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	auth := http.Header{"Authorization": {"Bearer s3cret"}}
	rec = ts.do(http.MethodGet, "/admin/enrollment-requests?status=pending&page_size=5", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, ts.enrollments.listed, 1)
	assert.Equal(t, "pending", ts.enrollments.listed[0].Status)
	assert.Equal(t, 5, ts.enrollments.listed[0].PageSize)

	rec = ts.do(http.MethodGet, "/admin/enrollment-requests/42", nil, auth)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/admin/offerings", gin.H{"title": "Excel"}, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.offerings.created, 1)
	assert.Equal(t, "Excel", ts.offerings.created[0].Title)
}

func TestAdminRoutesHiddenWithoutToken(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	rec := ts.do(http.MethodGet, "/admin/enrollment-requests", nil, http.Header{"Authorization": {"Bearer "}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{wizarddomain.ErrStepGateClosed, http.StatusBadRequest, "step_incomplete"},
		{enrolldomain.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
		{enrolldomain.ErrSessionFull, http.StatusConflict, "conflict"},
		{offeringdomain.ErrSlugTaken, http.StatusConflict, "conflict"},
		{ratelimit.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			status, _ := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			_, code := classifyErrorForLog(tc.err)
			assert.Equal(t, tc.code, code)
		})
	}
}
