package notify

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is a short-lived message shown to the enrollee.
type Notice struct {
	Level   Level  `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	CodeSessionsFetchFailed = "sessions_fetch_failed"
	CodeEnrollmentSubmitted = "enrollment_submitted"
	CodeEnrollmentFailed    = "enrollment_failed"
	CodeMissingFields       = "missing_fields"
	CodeMissingEmail        = "missing_email"
	CodeTermsNotAccepted    = "terms_not_accepted"
	CodeSessionFull         = "session_full"
	CodeSubmissionInFlight  = "submission_in_flight"
)

var catalog = map[language.Tag]map[string]string{
	language.French: {
		CodeSessionsFetchFailed: "Impossible de charger les sessions disponibles.",
		CodeEnrollmentSubmitted: "Votre demande d'inscription a bien été envoyée.",
		CodeEnrollmentFailed:    "Une erreur est survenue lors de l'envoi de votre inscription.",
		CodeMissingFields:       "Veuillez remplir tous les champs obligatoires.",
		CodeMissingEmail:        "Veuillez renseigner une adresse e-mail valide.",
		CodeTermsNotAccepted:    "Veuillez accepter les conditions générales.",
		CodeSessionFull:         "Cette session est complète.",
		CodeSubmissionInFlight:  "Votre inscription est déjà en cours d'envoi.",
	},
	language.English: {
		CodeSessionsFetchFailed: "Available sessions could not be loaded.",
		CodeEnrollmentSubmitted: "Your enrollment request has been sent.",
		CodeEnrollmentFailed:    "Something went wrong while sending your enrollment.",
		CodeMissingFields:       "Please fill in all required fields.",
		CodeMissingEmail:        "Please provide a valid email address.",
		CodeTermsNotAccepted:    "Please accept the terms and conditions.",
		CodeSessionFull:         "This session is full.",
		CodeSubmissionInFlight:  "Your enrollment is already being sent.",
	},
}

// Localizer picks a catalog language from an Accept-Language header. French
// is the default.
type Localizer struct {
	matcher   language.Matcher
	supported []language.Tag
}

func NewLocalizer() *Localizer {
	supported := []language.Tag{language.French, language.English}
	return &Localizer{
		matcher:   language.NewMatcher(supported),
		supported: supported,
	}
}

// Resolve returns the base language code ("fr" or "en") for acceptLanguage.
func (l *Localizer) Resolve(acceptLanguage string) string {
	_, index := language.MatchStrings(l.matcher, strings.TrimSpace(acceptLanguage))
	base, _ := l.supported[index].Base()
	return base.String()
}

// Localize builds a notice in lang. Unknown codes fall back to the code itself.
func (l *Localizer) Localize(lang string, level Level, code string, args ...any) Notice {
	messages := catalog[l.tag(lang)]
	msg, ok := messages[code]
	if !ok {
		msg = code
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return Notice{Level: level, Code: code, Message: msg}
}

func (l *Localizer) tag(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.French
	}
	_, index, _ := l.matcher.Match(tag)
	return l.supported[index]
}
