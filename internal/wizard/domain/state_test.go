package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academy/internal/config"
	enrolldomain "github.com/smallbiznis/academy/internal/enrollment/domain"
	needsdomain "github.com/smallbiznis/academy/internal/needsanalysis/domain"
	offeringdomain "github.com/smallbiznis/academy/internal/offering/domain"
	sessiondomain "github.com/smallbiznis/academy/internal/session/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func question(t *testing.T, id, section string) needsdomain.Question {
	t.Helper()
	q, err := needsdomain.NewQuestion(id, needsdomain.KindText, "Question "+id, true, nil, section)
	require.NoError(t, err)
	return q
}

// twoSections is the example template: two sections of two required questions.
func twoSections(t *testing.T) []needsdomain.Question {
	return []needsdomain.Question{
		question(t, "a1", "A"), question(t, "a2", "A"),
		question(t, "b1", "B"), question(t, "b2", "B"),
	}
}

func newState(t *testing.T, questions []needsdomain.Question) State {
	t.Helper()
	s := NewState("w1", offeringdomain.Summary{ID: 1, Title: "Excel", DisplayPrice: "450,00 €"}, "fr", now)
	s.ApplySessions([]sessiondomain.Session{
		{ID: 10, OfferingID: 1, StartDate: now.AddDate(0, 0, 20), Location: "Lyon", SeatsAvailable: 3, SeatsMax: 10},
		{ID: 11, OfferingID: 1, StartDate: now.AddDate(0, 0, 50), Location: "Paris", SeatsAvailable: 0, SeatsMax: 10},
	})
	s.ApplyQuestions(needsdomain.Resolution{Questions: questions})
	return s
}

func toPersonalInfo(t *testing.T, s *State) {
	t.Helper()
	require.NoError(t, s.SelectType(enrolldomain.TypeIndividual))
	require.NoError(t, s.Advance())
	require.NoError(t, s.SelectSession(10))
	require.NoError(t, s.Advance())
	if s.Step == StepNeedsAnalysis {
		require.NoError(t, s.SkipNeedsAnalysis())
	}
	require.Equal(t, StepPersonalInfo, s.Step)
}

func TestInitialState(t *testing.T) {
	s := NewState("w1", offeringdomain.Summary{ID: 1}, "fr", now)

	assert.Equal(t, StepTypeSelection, s.Step)
	assert.Nil(t, s.Type)
	assert.Nil(t, s.SelectedSessionID)
	assert.Empty(t, s.Responses)
	assert.Equal(t, enrolldomain.DefaultPersonalInfo(), s.PersonalInfo)
	assert.True(t, s.Loading.Sessions)
	assert.True(t, s.Loading.Questions)
}

func TestSkipRuleWithoutQuestions(t *testing.T) {
	s := newState(t, nil)

	require.NoError(t, s.SelectType(enrolldomain.TypeIndividual))
	require.NoError(t, s.Advance())
	require.NoError(t, s.SelectSession(10))
	require.NoError(t, s.Advance())
	assert.Equal(t, StepPersonalInfo, s.Step)

	require.NoError(t, s.Back())
	assert.Equal(t, StepSessionSelection, s.Step)

	assert.Equal(t, []Step{StepTypeSelection, StepSessionSelection, StepPersonalInfo}, ActiveSteps(s))
}

func TestSkipRuleUsesCurrentQuestions(t *testing.T) {
	s := newState(t, nil)
	s.Loading.Questions = true
	require.NoError(t, s.SelectType(enrolldomain.TypeIndividual))
	require.NoError(t, s.Advance())
	require.NoError(t, s.SelectSession(10))

	assert.False(t, s.CanAdvance())
	assert.ErrorIs(t, s.Advance(), ErrStepGateClosed)

	s.ApplyQuestions(needsdomain.Resolution{Questions: twoSections(t)})
	require.NoError(t, s.Advance())
	assert.Equal(t, StepNeedsAnalysis, s.Step)
}

func TestGates(t *testing.T) {
	s := newState(t, twoSections(t))

	assert.False(t, s.CanAdvance())
	assert.ErrorIs(t, s.Advance(), ErrStepGateClosed)
	assert.ErrorIs(t, s.Back(), ErrWrongStep)

	require.NoError(t, s.SelectType(enrolldomain.TypeOrganization))
	require.NoError(t, s.Advance())
	assert.False(t, s.CanAdvance())

	require.NoError(t, s.SelectSession(10))
	assert.True(t, s.CanAdvance())
	require.NoError(t, s.Advance())

	assert.False(t, s.CanAdvance())
	require.NoError(t, s.Answer(map[string]any{"a1": "x"}))
	assert.False(t, s.CanAdvance())
	require.NoError(t, s.Answer(map[string]any{"a2": "y"}))
	assert.True(t, s.CanAdvance())
	require.NoError(t, s.Answer(map[string]any{"a2": "  "}))
	assert.False(t, s.CanAdvance())
}

func TestFullSessionCanNeverBeSelected(t *testing.T) {
	s := newState(t, nil)
	require.NoError(t, s.SelectType(enrolldomain.TypeIndividual))
	require.NoError(t, s.Advance())

	assert.ErrorIs(t, s.SelectSession(11), ErrSessionUnavailable)
	assert.Nil(t, s.SelectedSessionID)

	require.NoError(t, s.SelectSession(10))
	assert.ErrorIs(t, s.SelectSession(11), ErrSessionUnavailable)
	assert.Equal(t, snowflake.ID(10), *s.SelectedSessionID)

	assert.ErrorIs(t, s.SelectSession(99), ErrUnknownSession)
}

func TestSectionPagination(t *testing.T) {
	s := newState(t, twoSections(t))
	require.NoError(t, s.SelectType(enrolldomain.TypeIndividual))
	require.NoError(t, s.Advance())
	require.NoError(t, s.SelectSession(10))
	require.NoError(t, s.Advance())
	require.Equal(t, StepNeedsAnalysis, s.Step)

	view := Render(s, config.DefaultWizardConfig().StepLabels, time.UTC)
	assert.Equal(t, 50, view.NeedsAnalysis.Progress)
	assert.Equal(t, "A", view.NeedsAnalysis.Section.Title)
	assert.True(t, s.CanSkipNeedsAnalysis())

	require.NoError(t, s.Answer(map[string]any{"a1": "x", "a2": "y"}))
	require.NoError(t, s.NextSection())
	assert.Equal(t, 1, s.SectionIndex)
	assert.False(t, s.CanSkipNeedsAnalysis())
	assert.ErrorIs(t, s.SkipNeedsAnalysis(), ErrStepGateClosed)

	view = Render(s, config.DefaultWizardConfig().StepLabels, time.UTC)
	assert.Equal(t, 100, view.NeedsAnalysis.Progress)
	assert.Equal(t, StepNeedsAnalysis, s.Step)

	assert.ErrorIs(t, s.NextSection(), ErrStepGateClosed)
	require.NoError(t, s.Answer(map[string]any{"b1": "x", "b2": "y"}))
	require.NoError(t, s.Advance())
	assert.Equal(t, StepPersonalInfo, s.Step)

	require.NoError(t, s.Back())
	assert.Equal(t, StepNeedsAnalysis, s.Step)
	assert.Equal(t, 0, s.SectionIndex)

	require.NoError(t, s.Back())
	assert.Equal(t, StepSessionSelection, s.Step)
}

func TestAnswerIsAllOrNothing(t *testing.T) {
	years, err := needsdomain.NewQuestion("years", needsdomain.KindNumber, "Années", false, nil, "")
	require.NoError(t, err)
	s := newState(t, []needsdomain.Question{question(t, "goal", ""), years})
	require.NoError(t, s.SelectType(enrolldomain.TypeIndividual))
	require.NoError(t, s.Advance())
	require.NoError(t, s.SelectSession(10))
	require.NoError(t, s.Advance())

	err = s.Answer(map[string]any{"goal": "Progresser", "years": "beaucoup"})
	assert.ErrorIs(t, err, needsdomain.ErrInvalidAnswer)
	assert.Empty(t, s.Responses)

	err = s.Answer(map[string]any{"nope": "x"})
	assert.ErrorIs(t, err, needsdomain.ErrUnknownQuestion)

	require.NoError(t, s.Answer(map[string]any{"goal": "Progresser", "years": "3,5"}))
	assert.Equal(t, 3.5, s.Responses["years"])
}

func TestSubmitGate(t *testing.T) {
	s := newState(t, nil)
	toPersonalInfo(t, &s)

	assert.False(t, s.CanSubmit())
	require.NoError(t, s.UpdatePersonalInfo(enrolldomain.PersonalInfoPatch{
		FirstName: ptr("Ada"), LastName: ptr("Lovelace"), Email: ptr("ada@example.org"), Phone: ptr("0601020304"),
	}))
	assert.False(t, s.CanSubmit())

	require.NoError(t, s.AcceptTerms(true))
	assert.True(t, s.CanSubmit())

	require.NoError(t, s.AcceptTerms(false))
	assert.False(t, s.CanSubmit())

	require.NoError(t, s.AcceptTerms(true))
	s.Submitting = true
	assert.False(t, s.CanSubmit())
}

func TestOrganizationNeedsBillingFields(t *testing.T) {
	s := newState(t, nil)
	require.NoError(t, s.SelectType(enrolldomain.TypeOrganization))
	require.NoError(t, s.Advance())
	require.NoError(t, s.SelectSession(10))
	require.NoError(t, s.Advance())

	require.NoError(t, s.UpdatePersonalInfo(enrolldomain.PersonalInfoPatch{
		FirstName: ptr("Ada"), LastName: ptr("Lovelace"), Email: ptr("ada@example.org"), Phone: ptr("0601020304"),
	}))
	require.NoError(t, s.AcceptTerms(true))
	assert.Equal(t, []string{"organization_name", "tax_id"}, s.MissingFields())
	assert.False(t, s.CanSubmit())

	require.NoError(t, s.UpdatePersonalInfo(enrolldomain.PersonalInfoPatch{OrganizationName: ptr("Engines"), TaxID: ptr("FR1")}))
	assert.True(t, s.CanSubmit())
}

func TestMutationsOutsideTheirStep(t *testing.T) {
	s := newState(t, nil)

	assert.ErrorIs(t, s.SelectSession(10), ErrWrongStep)
	assert.ErrorIs(t, s.AcceptTerms(true), ErrWrongStep)
	assert.ErrorIs(t, s.Answer(nil), ErrWrongStep)

	s.Closed = true
	assert.ErrorIs(t, s.SelectType(enrolldomain.TypeIndividual), ErrClosed)
	assert.ErrorIs(t, s.Advance(), ErrClosed)
}

func TestRenderSummaryAndSessions(t *testing.T) {
	s := newState(t, nil)
	toPersonalInfo(t, &s)

	view := Render(s, config.DefaultWizardConfig().StepLabels, time.UTC)
	require.NotNil(t, view.Summary)
	assert.Equal(t, "Excel", view.Summary.OfferingTitle)
	assert.Equal(t, "3 novembre 2026", view.Summary.SessionDate)
	assert.Equal(t, "450,00 €", view.Summary.Price)

	require.Len(t, view.Sessions.Groups, 2)
	assert.Equal(t, "novembre 2026", view.Sessions.Groups[0].Label)
	assert.True(t, view.Sessions.Groups[0].Sessions[0].Selected)
	assert.True(t, view.Sessions.Groups[1].Sessions[0].Full)
	assert.True(t, view.NeedsAnalysis.Skipped)
	assert.Equal(t, 3, view.Indicator.Total)
	assert.Equal(t, 100, view.Indicator.Percent)
}

func TestIndicator(t *testing.T) {
	view := Indicator(1, []string{"Type", "Session", "Analyse", "Coordonnées"})

	assert.Equal(t, 50, view.Percent)
	assert.Equal(t, []Marker{
		{Label: "Type", State: MarkerCompleted},
		{Label: "Session", State: MarkerCurrent},
		{Label: "Analyse", State: MarkerPending},
		{Label: "Coordonnées", State: MarkerPending},
	}, view.Markers)

	assert.Equal(t, 33, Indicator(0, []string{"a", "b", "c"}).Percent)
	assert.Zero(t, Indicator(0, nil).Percent)
}

func TestStepJSON(t *testing.T) {
	b, err := StepNeedsAnalysis.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"needs_analysis"`, string(b))

	var step Step
	require.NoError(t, step.UnmarshalJSON([]byte(`"personal_info"`)))
	assert.Equal(t, StepPersonalInfo, step)
	assert.Error(t, step.UnmarshalJSON([]byte(`"payment"`)))
}
