package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	enrolldomain "github.com/smallbiznis/academy/internal/enrollment/domain"
	needsdomain "github.com/smallbiznis/academy/internal/needsanalysis/domain"
	"github.com/smallbiznis/academy/internal/notify"
	offeringdomain "github.com/smallbiznis/academy/internal/offering/domain"
	sessiondomain "github.com/smallbiznis/academy/internal/session/domain"
)

type Loading struct {
	Sessions  bool `json:"sessions"`
	Questions bool `json:"questions"`
}

// State is everything one open wizard knows. It is only changed through the
// methods below, under the store's update function.
type State struct {
	ID         string                 `json:"id"`
	Epoch      uint64                 `json:"epoch"`
	OfferingID snowflake.ID           `json:"offering_id"`
	Offering   offeringdomain.Summary `json:"offering"`
	Lang       string                 `json:"lang"`

	Step          Step               `json:"step"`
	Type          *enrolldomain.Type `json:"type,omitempty"`
	ProposedDates string             `json:"proposed_dates,omitempty"`

	Sessions          []sessiondomain.Session `json:"sessions"`
	SelectedSessionID *snowflake.ID           `json:"selected_session_id,omitempty"`

	Questions    []needsdomain.Question `json:"questions"`
	TemplateID   *snowflake.ID          `json:"template_id,omitempty"`
	Responses    needsdomain.Responses  `json:"responses"`
	SectionIndex int                    `json:"section_index"`

	PersonalInfo  enrolldomain.PersonalInfo `json:"personal_info"`
	TermsAccepted bool                      `json:"terms_accepted"`
	Submitting    bool                      `json:"submitting"`

	Loading Loading                    `json:"loading"`
	Notices []notify.Notice            `json:"notices,omitempty"`
	Result  *enrolldomain.SubmitResult `json:"result,omitempty"`
	Closed  bool                       `json:"closed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState is the initial state of a freshly opened wizard.
func NewState(id string, offering offeringdomain.Summary, lang string, now time.Time) State {
	return State{
		ID:           id,
		OfferingID:   offering.ID,
		Offering:     offering,
		Lang:         lang,
		Step:         StepTypeSelection,
		Sessions:     []sessiondomain.Session{},
		Questions:    []needsdomain.Question{},
		Responses:    needsdomain.Responses{},
		PersonalInfo: enrolldomain.DefaultPersonalInfo(),
		Loading:      Loading{Sessions: true, Questions: true},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *State) Notify(n notify.Notice) {
	s.Notices = append(s.Notices, n)
}

// DrainNotices returns the queued notices and forgets them.
func (s *State) DrainNotices() []notify.Notice {
	out := s.Notices
	s.Notices = nil
	if out == nil {
		out = []notify.Notice{}
	}
	return out
}

func (s State) SelectedSession() (sessiondomain.Session, bool) {
	if s.SelectedSessionID == nil {
		return sessiondomain.Session{}, false
	}
	for _, session := range s.Sessions {
		if session.ID == *s.SelectedSessionID {
			return session, true
		}
	}
	return sessiondomain.Session{}, false
}

func (s State) Sections() []needsdomain.Section {
	return needsdomain.Sections(s.Questions)
}

// CurrentSection returns false when there are no questions.
func (s State) CurrentSection() (needsdomain.Section, bool) {
	sections := s.Sections()
	if len(sections) == 0 {
		return needsdomain.Section{}, false
	}
	i := s.SectionIndex
	if i < 0 || i >= len(sections) {
		i = 0
	}
	return sections[i], true
}

func (s State) MissingFields() []string {
	if s.Type == nil {
		return s.PersonalInfo.MissingFields(enrolldomain.TypeIndividual)
	}
	return s.PersonalInfo.MissingFields(*s.Type)
}

// CanAdvance is the Next gate of the current step.
func (s State) CanAdvance() bool {
	if s.Closed {
		return false
	}
	switch s.Step {
	case StepTypeSelection:
		return s.Type != nil
	case StepSessionSelection:
		session, ok := s.SelectedSession()
		return ok && !session.IsFull() && !s.Loading.Questions
	case StepNeedsAnalysis:
		section, ok := s.CurrentSection()
		return ok && needsdomain.SectionComplete(section, s.Responses)
	default:
		return false
	}
}

// CanSubmit is the submit gate of the last step.
func (s State) CanSubmit() bool {
	if s.Closed || s.Step != StepPersonalInfo || s.Submitting {
		return false
	}
	if s.Type == nil {
		return false
	}
	if session, ok := s.SelectedSession(); !ok || session.IsFull() {
		return false
	}
	return len(s.MissingFields()) == 0 && s.TermsAccepted
}

func (s State) CanSkipNeedsAnalysis() bool {
	return !s.Closed && s.Step == StepNeedsAnalysis && s.SectionIndex == 0
}

func (s *State) expect(step Step) error {
	if s.Closed {
		return ErrClosed
	}
	if s.Step != step {
		return fmt.Errorf("%w: %s expected, wizard is on %s", ErrWrongStep, step, s.Step)
	}
	return nil
}

func (s *State) SelectType(t enrolldomain.Type) error {
	if err := s.expect(StepTypeSelection); err != nil {
		return err
	}
	if t != enrolldomain.TypeIndividual && t != enrolldomain.TypeOrganization {
		return enrolldomain.ErrInvalidType
	}
	s.Type = &t
	return nil
}

func (s *State) SetProposedDates(value string) error {
	if err := s.expect(StepTypeSelection); err != nil {
		return err
	}
	s.ProposedDates = value
	return nil
}

// SelectSession leaves the selection untouched when id is unknown or full.
func (s *State) SelectSession(id snowflake.ID) error {
	if err := s.expect(StepSessionSelection); err != nil {
		return err
	}
	for _, session := range s.Sessions {
		if session.ID != id {
			continue
		}
		if session.IsFull() {
			return ErrSessionUnavailable
		}
		s.SelectedSessionID = &id
		return nil
	}
	return ErrUnknownSession
}

// Answer applies every answer or none of them.
func (s *State) Answer(answers map[string]any) error {
	if err := s.expect(StepNeedsAnalysis); err != nil {
		return err
	}

	byID := make(map[string]needsdomain.Question, len(s.Questions))
	for _, q := range s.Questions {
		byID[q.ID] = q
	}

	normalized := make(map[string]any, len(answers))
	for id, raw := range answers {
		q, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: %s", needsdomain.ErrUnknownQuestion, id)
		}
		v, err := q.Normalize(raw)
		if err != nil {
			return err
		}
		normalized[id] = v
	}

	if s.Responses == nil {
		s.Responses = needsdomain.Responses{}
	}
	for id, v := range normalized {
		if !needsdomain.IsAnswered(v) {
			delete(s.Responses, id)
			continue
		}
		s.Responses[id] = v
	}
	return nil
}

func (s *State) UpdatePersonalInfo(patch enrolldomain.PersonalInfoPatch) error {
	if err := s.expect(StepPersonalInfo); err != nil {
		return err
	}
	info, err := s.PersonalInfo.Apply(patch)
	if err != nil {
		return err
	}
	s.PersonalInfo = info
	return nil
}

func (s *State) AcceptTerms(accepted bool) error {
	if err := s.expect(StepPersonalInfo); err != nil {
		return err
	}
	s.TermsAccepted = accepted
	return nil
}

// Advance is the Next button. On the needs-analysis step it pages through
// sections first.
func (s *State) Advance() error {
	if s.Closed {
		return ErrClosed
	}
	if s.Step == StepNeedsAnalysis {
		return s.NextSection()
	}
	if s.Step == StepPersonalInfo {
		return fmt.Errorf("%w: last step, submit instead", ErrWrongStep)
	}
	if !s.CanAdvance() {
		return ErrStepGateClosed
	}
	s.moveTo(Next(*s))
	return nil
}

// Back is the Previous button. On the needs-analysis step it pages back
// through sections first.
func (s *State) Back() error {
	if s.Closed {
		return ErrClosed
	}
	switch s.Step {
	case StepTypeSelection:
		return fmt.Errorf("%w: no step before %s", ErrWrongStep, s.Step)
	case StepNeedsAnalysis:
		return s.PrevSection()
	}
	s.moveTo(Prev(*s))
	return nil
}

// NextSection validates the current section. The last section hands control
// back to the step sequence.
func (s *State) NextSection() error {
	if err := s.expect(StepNeedsAnalysis); err != nil {
		return err
	}
	if !s.CanAdvance() {
		return ErrStepGateClosed
	}
	if s.SectionIndex+1 >= len(s.Sections()) {
		s.moveTo(Next(*s))
		return nil
	}
	s.SectionIndex++
	return nil
}

func (s *State) PrevSection() error {
	if err := s.expect(StepNeedsAnalysis); err != nil {
		return err
	}
	if s.SectionIndex <= 0 {
		s.moveTo(Prev(*s))
		return nil
	}
	s.SectionIndex--
	return nil
}

func (s *State) SkipNeedsAnalysis() error {
	if err := s.expect(StepNeedsAnalysis); err != nil {
		return err
	}
	if !s.CanSkipNeedsAnalysis() {
		return fmt.Errorf("%w: only the first section can be skipped", ErrStepGateClosed)
	}
	s.moveTo(StepPersonalInfo)
	return nil
}

func (s *State) moveTo(step Step) {
	if step == StepNeedsAnalysis {
		s.SectionIndex = 0
	}
	s.Step = step
}

// ApplySessions stores the fetch result and drops a selection that is no
// longer bookable.
func (s *State) ApplySessions(sessions []sessiondomain.Session) {
	if sessions == nil {
		sessions = []sessiondomain.Session{}
	}
	s.Sessions = sessions
	s.Loading.Sessions = false
	if _, ok := s.SelectedSession(); !ok {
		s.SelectedSessionID = nil
	}
}

// ApplyQuestions stores the resolved list. Answers to questions that are no
// longer asked are dropped.
func (s *State) ApplyQuestions(res needsdomain.Resolution) {
	questions := res.Questions
	if questions == nil {
		questions = []needsdomain.Question{}
	}
	s.Questions = questions
	s.TemplateID = res.TemplateID
	s.Loading.Questions = false

	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	for id := range s.Responses {
		if _, ok := known[id]; !ok {
			delete(s.Responses, id)
		}
	}
	if s.SectionIndex >= len(s.Sections()) {
		s.SectionIndex = 0
	}
	if s.Step == StepNeedsAnalysis && len(questions) == 0 {
		s.Step = StepPersonalInfo
	}
}
