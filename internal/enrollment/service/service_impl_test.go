package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academy/internal/clock"
	"github.com/smallbiznis/academy/internal/enrollment/domain"
	"github.com/smallbiznis/academy/internal/enrollment/repository"
	needsdomain "github.com/smallbiznis/academy/internal/needsanalysis/domain"
	needsrepo "github.com/smallbiznis/academy/internal/needsanalysis/repository"
	sessiondomain "github.com/smallbiznis/academy/internal/session/domain"
	sessionrepo "github.com/smallbiznis/academy/internal/session/repository"
	"github.com/smallbiznis/academy/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const offeringID = snowflake.ID(100)

type failingResponses struct {
	needsdomain.Repository
}

func (failingResponses) InsertResponse(context.Context, *gorm.DB, *needsdomain.Response) error {
	return errors.New("needs_analysis_responses: permission denied")
}

type failingDecrement struct {
	sessiondomain.Repository
}

func (failingDecrement) DecrementSeat(context.Context, *gorm.DB, snowflake.ID, time.Time) (bool, error) {
	return false, errors.New("training_sessions: permission denied")
}

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	clock *clock.FakeClock
}

type options struct {
	sessions  sessiondomain.Repository
	responses needsdomain.Repository
}

func setup(t *testing.T, opts options) fixture {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.Request{},
		&domain.Enrollment{},
		&sessiondomain.Session{},
		&needsdomain.Response{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	if opts.sessions == nil {
		opts.sessions = sessionrepo.Provide()
	}
	if opts.responses == nil {
		opts.responses = needsrepo.Provide()
	}

	clk := clock.NewFakeClock(time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:           conn,
		Log:          zaptest.NewLogger(t),
		GenID:        node,
		Clock:        clk,
		Repo:         repository.Provide(),
		SessionRepo:  opts.sessions,
		ResponseRepo: opts.responses,
	})
	return fixture{svc: svc, db: conn, clock: clk}
}

func (f fixture) insertSession(t *testing.T, id snowflake.ID, seats int) {
	t.Helper()
	now := f.clock.Now()
	require.NoError(t, sessionrepo.Provide().Insert(context.Background(), f.db, &sessiondomain.Session{
		ID:             id,
		OfferingID:     offeringID,
		StartDate:      now.AddDate(0, 1, 0),
		Format:         sessiondomain.FormatInPerson,
		SeatsAvailable: seats,
		SeatsMax:       10,
		Status:         sessiondomain.StatusScheduled,
		IsPublic:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}))
}

func (f fixture) seats(t *testing.T, id snowflake.ID) int {
	t.Helper()
	s, err := sessionrepo.Provide().FindByID(context.Background(), f.db, id)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s.SeatsAvailable
}

func count(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func validRequest(sessionID snowflake.ID) domain.SubmitRequest {
	return domain.SubmitRequest{
		OfferingID:    offeringID,
		OfferingTitle: "Excel avancé",
		Type:          domain.TypeIndividual,
		SessionID:     sessionID,
		PersonalInfo: domain.PersonalInfo{
			Civility:         domain.CivilityMrs,
			FirstName:        "Ada",
			LastName:         "Lovelace",
			Email:            "ada@example.org",
			Phone:            "0601020304",
			ParticipantCount: 1,
		},
		Answers: map[string]any{"objectives": "Automatiser mes rapports", "job_title": ""},
	}
}

func TestSubmitWritesEverything(t *testing.T) {
	f := setup(t, options{})
	f.insertSession(t, 1, 2)

	res, err := f.svc.Submit(context.Background(), validRequest(1))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Reference, "ENR-"))
	assert.Len(t, res.Reference, len("ENR-")+26)
	assert.True(t, res.SeatTaken)
	require.NotNil(t, res.ResponseID)
	assert.Equal(t, 1, f.seats(t, 1))

	var response needsdomain.Response
	require.NoError(t, f.db.First(&response, "id = ?", *res.ResponseID).Error)
	assert.Equal(t, "Ada Lovelace", response.RespondentName)
	assert.Equal(t, "Automatiser mes rapports", response.Answers["objectives"])
	assert.NotContains(t, response.Answers, "job_title")

	detail, err := f.svc.GetRequest(context.Background(), res.RequestID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, detail.Request.Status)
	assert.Nil(t, detail.Request.OrganizationName)
	require.NotNil(t, detail.Enrollment)
	assert.Equal(t, domain.EnrollmentStatusPendingConfirmation, detail.Enrollment.Status)
	assert.Equal(t, res.ResponseID, detail.Enrollment.ResponseID)
}

func TestSubmitWithoutAnswersSkipsResponse(t *testing.T) {
	f := setup(t, options{})
	f.insertSession(t, 1, 2)

	req := validRequest(1)
	req.Answers = map[string]any{"objectives": "  "}
	res, err := f.svc.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Nil(t, res.ResponseID)
	assert.Zero(t, count(t, f.db, &needsdomain.Response{}))
}

func TestSubmitOrganizationKeepsBillingFields(t *testing.T) {
	f := setup(t, options{})
	f.insertSession(t, 1, 2)

	req := validRequest(1)
	req.Type = domain.TypeOrganization
	req.PersonalInfo.OrganizationName = "Analytical Engines"
	req.PersonalInfo.TaxID = "FR123"
	req.PersonalInfo.City = "Paris"
	req.ProposedDates = "Plutôt en décembre"

	res, err := f.svc.Submit(context.Background(), req)
	require.NoError(t, err)

	detail, err := f.svc.GetRequest(context.Background(), res.RequestID.String())
	require.NoError(t, err)
	require.NotNil(t, detail.Request.OrganizationName)
	assert.Equal(t, "Analytical Engines", *detail.Request.OrganizationName)
	require.NotNil(t, detail.Request.ProposedDates)
	assert.Equal(t, "Plutôt en décembre", *detail.Request.ProposedDates)
	assert.Nil(t, detail.Request.Address)
}

func TestSubmitFullSessionRollsBack(t *testing.T) {
	f := setup(t, options{})
	f.insertSession(t, 1, 0)

	_, err := f.svc.Submit(context.Background(), validRequest(1))
	require.ErrorIs(t, err, domain.ErrSessionFull)

	assert.Zero(t, count(t, f.db, &domain.Request{}))
	assert.Zero(t, count(t, f.db, &domain.Enrollment{}))
	assert.Zero(t, count(t, f.db, &needsdomain.Response{}))
}

func TestSubmitSurvivesResponseWriteFailure(t *testing.T) {
	f := setup(t, options{responses: failingResponses{}})
	f.insertSession(t, 1, 2)

	res, err := f.svc.Submit(context.Background(), validRequest(1))
	require.NoError(t, err)

	assert.Nil(t, res.ResponseID)
	assert.Equal(t, int64(1), count(t, f.db, &domain.Enrollment{}))
	assert.Equal(t, 1, f.seats(t, 1))
}

func TestSubmitSurvivesSeatCounterFailure(t *testing.T) {
	f := setup(t, options{sessions: failingDecrement{Repository: sessionrepo.Provide()}})
	f.insertSession(t, 1, 2)

	res, err := f.svc.Submit(context.Background(), validRequest(1))
	require.NoError(t, err)

	assert.False(t, res.SeatTaken)
	assert.Equal(t, int64(1), count(t, f.db, &domain.Enrollment{}))
	assert.Equal(t, 2, f.seats(t, 1))
}

func TestSubmitValidation(t *testing.T) {
	f := setup(t, options{})
	f.insertSession(t, 1, 2)

	missing := validRequest(1)
	missing.PersonalInfo.Phone = ""
	_, err := f.svc.Submit(context.Background(), missing)
	var mfe *domain.MissingFieldsError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, []string{"phone"}, mfe.Fields)

	badEmail := validRequest(1)
	badEmail.PersonalInfo.Email = "ada-at-example"
	_, err = f.svc.Submit(context.Background(), badEmail)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	org := validRequest(1)
	org.Type = domain.TypeOrganization
	_, err = f.svc.Submit(context.Background(), org)
	assert.ErrorIs(t, err, domain.ErrMissingFields)

	unknown := validRequest(99)
	_, err = f.svc.Submit(context.Background(), unknown)
	assert.ErrorIs(t, err, domain.ErrInvalidSession)

	noType := validRequest(1)
	noType.Type = ""
	_, err = f.svc.Submit(context.Background(), noType)
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	assert.Zero(t, count(t, f.db, &domain.Request{}))
}

func TestListRequestsPaginates(t *testing.T) {
	f := setup(t, options{})
	f.insertSession(t, 1, 5)

	var ids []snowflake.ID
	for i := 0; i < 3; i++ {
		res, err := f.svc.Submit(context.Background(), validRequest(1))
		require.NoError(t, err)
		ids = append(ids, res.RequestID)
		f.clock.Advance(time.Minute)
	}

	req := domain.ListRequestsRequest{}
	req.PageSize = 2
	page, err := f.svc.ListRequests(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, page.Requests, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, ids[2], page.Requests[0].ID)
	assert.Equal(t, ids[1], page.Requests[1].ID)

	req.PageToken = page.NextPageToken
	page, err = f.svc.ListRequests(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, page.Requests, 1)
	assert.False(t, page.HasMore)
	assert.Equal(t, ids[0], page.Requests[0].ID)

	_, err = f.svc.ListRequests(context.Background(), domain.ListRequestsRequest{Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestGetRequestNotFound(t *testing.T) {
	f := setup(t, options{})

	_, err := f.svc.GetRequest(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.GetRequest(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
