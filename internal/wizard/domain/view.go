package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academy/internal/config"
	enrolldomain "github.com/smallbiznis/academy/internal/enrollment/domain"
	needsdomain "github.com/smallbiznis/academy/internal/needsanalysis/domain"
	"github.com/smallbiznis/academy/internal/notify"
	offeringdomain "github.com/smallbiznis/academy/internal/offering/domain"
	sessiondomain "github.com/smallbiznis/academy/internal/session/domain"
)

// View is what every wizard endpoint returns.
type View struct {
	ID            string                     `json:"id"`
	Step          Step                       `json:"step"`
	StepIndex     int                        `json:"step_index"`
	Offering      offeringdomain.Summary     `json:"offering"`
	Indicator     IndicatorView              `json:"indicator"`
	Gates         Gates                      `json:"gates"`
	Type          *enrolldomain.Type         `json:"type"`
	ProposedDates string                     `json:"proposed_dates"`
	Sessions      SessionsView               `json:"sessions"`
	NeedsAnalysis NeedsAnalysisView          `json:"needs_analysis"`
	PersonalInfo  enrolldomain.PersonalInfo  `json:"personal_info"`
	MissingFields []string                   `json:"missing_fields"`
	TermsAccepted bool                       `json:"terms_accepted"`
	Submitting    bool                       `json:"submitting"`
	Summary       *SummaryCard               `json:"summary,omitempty"`
	Result        *enrolldomain.SubmitResult `json:"result,omitempty"`
	Closed        bool                       `json:"closed"`

	Notices []notify.Notice `json:"-"`
}

type Gates struct {
	CanAdvance           bool `json:"can_advance"`
	CanSubmit            bool `json:"can_submit"`
	CanSkipNeedsAnalysis bool `json:"can_skip_needs_analysis"`
}

type SessionsView struct {
	Loading bool           `json:"loading"`
	Empty   bool           `json:"empty"`
	Groups  []SessionGroup `json:"groups"`
}

type SessionGroup struct {
	Key      string        `json:"key"`
	Label    string        `json:"label"`
	Sessions []SessionView `json:"sessions"`
}

type SessionView struct {
	ID             snowflake.ID         `json:"id"`
	StartDate      time.Time            `json:"start_date"`
	EndDate        *time.Time           `json:"end_date,omitempty"`
	DateLabel      string               `json:"date_label"`
	Location       string               `json:"location"`
	Format         sessiondomain.Format `json:"format"`
	SeatsAvailable int                  `json:"seats_available"`
	SeatsMax       int                  `json:"seats_max"`
	Full           bool                 `json:"full"`
	Selected       bool                 `json:"selected"`
}

type NeedsAnalysisView struct {
	Loading      bool                  `json:"loading"`
	Skipped      bool                  `json:"skipped"`
	SectionIndex int                   `json:"section_index"`
	SectionCount int                   `json:"section_count"`
	Progress     int                   `json:"progress"`
	Section      *needsdomain.Section  `json:"section,omitempty"`
	Responses    needsdomain.Responses `json:"responses"`
}

// SummaryCard is the read-only recap shown next to the contact form.
type SummaryCard struct {
	OfferingTitle string `json:"offering_title"`
	SessionDate   string `json:"session_date"`
	Location      string `json:"location"`
	Format        string `json:"format"`
	Price         string `json:"price"`
}

// Render projects state for the client. Dates are grouped in loc.
func Render(state State, labels config.StepLabels, loc *time.Location) View {
	if loc == nil {
		loc = time.UTC
	}

	view := View{
		ID:            state.ID,
		Step:          state.Step,
		StepIndex:     int(state.Step),
		Offering:      state.Offering,
		Indicator:     StateIndicator(state, labels),
		Type:          state.Type,
		ProposedDates: state.ProposedDates,
		PersonalInfo:  state.PersonalInfo,
		MissingFields: state.MissingFields(),
		TermsAccepted: state.TermsAccepted,
		Submitting:    state.Submitting,
		Result:        state.Result,
		Closed:        state.Closed,
		Gates: Gates{
			CanAdvance:           state.CanAdvance(),
			CanSubmit:            state.CanSubmit(),
			CanSkipNeedsAnalysis: state.CanSkipNeedsAnalysis(),
		},
		Sessions:      renderSessions(state, loc),
		NeedsAnalysis: renderNeedsAnalysis(state),
	}

	if session, ok := state.SelectedSession(); ok {
		view.Summary = &SummaryCard{
			OfferingTitle: state.Offering.Title,
			SessionDate:   sessiondomain.DateLabel(session.StartDate.In(loc)),
			Location:      session.Location,
			Format:        string(session.Format),
			Price:         state.Offering.DisplayPrice,
		}
	}
	return view
}

func renderSessions(state State, loc *time.Location) SessionsView {
	view := SessionsView{
		Loading: state.Loading.Sessions,
		Empty:   !state.Loading.Sessions && len(state.Sessions) == 0,
		Groups:  []SessionGroup{},
	}
	if state.Loading.Sessions {
		return view
	}
	for _, group := range sessiondomain.GroupByMonth(state.Sessions, loc) {
		out := SessionGroup{Key: group.Key, Label: group.Label, Sessions: make([]SessionView, 0, len(group.Sessions))}
		for _, s := range group.Sessions {
			out.Sessions = append(out.Sessions, SessionView{
				ID:             s.ID,
				StartDate:      s.StartDate,
				EndDate:        s.EndDate,
				DateLabel:      sessiondomain.DateLabel(s.StartDate.In(loc)),
				Location:       s.Location,
				Format:         s.Format,
				SeatsAvailable: s.SeatsAvailable,
				SeatsMax:       s.SeatsMax,
				Full:           s.IsFull(),
				Selected:       state.SelectedSessionID != nil && *state.SelectedSessionID == s.ID,
			})
		}
		view.Groups = append(view.Groups, out)
	}
	return view
}

func renderNeedsAnalysis(state State) NeedsAnalysisView {
	responses := state.Responses
	if responses == nil {
		responses = needsdomain.Responses{}
	}
	view := NeedsAnalysisView{
		Loading:   state.Loading.Questions,
		Skipped:   !state.Loading.Questions && len(state.Questions) == 0,
		Responses: responses,
	}
	sections := state.Sections()
	if len(sections) == 0 {
		return view
	}
	section, _ := state.CurrentSection()
	view.SectionIndex = state.SectionIndex
	view.SectionCount = len(sections)
	view.Progress = needsdomain.Progress(state.SectionIndex, len(sections))
	view.Section = &section
	return view
}
