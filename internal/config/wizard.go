package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WizardConfig tunes the enrollment wizard. It is hot-reloaded from wizard.yml.
type WizardConfig struct {
	ResetDelay       time.Duration     `mapstructure:"resetDelay"`
	FetchTimeout     time.Duration     `mapstructure:"fetchTimeout"`
	StateTTL         time.Duration     `mapstructure:"stateTTL"`
	AwaitFetch       bool              `mapstructure:"awaitFetch"`
	StepLabels       StepLabels        `mapstructure:"stepLabels"`
	DefaultQuestions []DefaultQuestion `mapstructure:"defaultQuestions"`
}

type StepLabels struct {
	Type          string `mapstructure:"type"`
	Session       string `mapstructure:"session"`
	NeedsAnalysis string `mapstructure:"needsAnalysis"`
	PersonalInfo  string `mapstructure:"personalInfo"`
}

// DefaultQuestion is the built-in needs-analysis question used when no
// template can be fetched.
type DefaultQuestion struct {
	ID       string   `mapstructure:"id"`
	Type     string   `mapstructure:"type"`
	Label    string   `mapstructure:"label"`
	Required bool     `mapstructure:"required"`
	Options  []string `mapstructure:"options"`
	Section  string   `mapstructure:"section"`
}

func DefaultWizardConfig() WizardConfig {
	return WizardConfig{
		ResetDelay:   300 * time.Millisecond,
		FetchTimeout: 5 * time.Second,
		StateTTL:     2 * time.Hour,
		AwaitFetch:   true,
		StepLabels: StepLabels{
			Type:          "Type d'inscription",
			Session:       "Session",
			NeedsAnalysis: "Analyse des besoins",
			PersonalInfo:  "Coordonnées",
		},
		DefaultQuestions: []DefaultQuestion{
			{ID: "objectives", Type: "textarea", Label: "Quels sont vos objectifs pour cette formation ?", Required: true, Section: "Vos objectifs"},
			{ID: "level", Type: "select", Label: "Quel est votre niveau actuel ?", Required: true, Options: []string{"Débutant", "Intermédiaire", "Avancé"}, Section: "Vos objectifs"},
			{ID: "job_title", Type: "text", Label: "Quel poste occupez-vous ?", Section: "Votre contexte"},
			{ID: "experience_years", Type: "number", Label: "Combien d'années d'expérience avez-vous dans le domaine ?", Section: "Votre contexte"},
			{ID: "accessibility", Type: "radio", Label: "Avez-vous besoin d'un aménagement particulier ?", Options: []string{"Oui", "Non"}, Section: "Votre contexte"},
		},
	}
}

type WizardConfigHolder struct {
	current atomic.Value // holds WizardConfig
}

// NewWizardConfigHolder reads wizard.yml from the standard locations.
func NewWizardConfigHolder() (*WizardConfigHolder, error) {
	return LoadWizardConfigHolder("/etc/academy", ".")
}

// NewStaticWizardConfigHolder wraps a fixed configuration, without file watching.
func NewStaticWizardConfigHolder(cfg WizardConfig) *WizardConfigHolder {
	holder := &WizardConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func LoadWizardConfigHolder(paths ...string) (*WizardConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("wizard")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("ACADEMY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		return NewStaticWizardConfigHolder(DefaultWizardConfig()), nil
	}

	cfg, err := decodeWizardConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticWizardConfigHolder(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeWizardConfig(v)
		if err != nil {
			log.Printf("[wizard-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[wizard-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *WizardConfigHolder) Get() WizardConfig {
	return h.current.Load().(WizardConfig)
}

func decodeWizardConfig(v *viper.Viper) (WizardConfig, error) {
	cfg := DefaultWizardConfig()
	if v.IsSet("wizard.defaultQuestions") {
		cfg.DefaultQuestions = nil
	}
	if err := v.UnmarshalKey("wizard", &cfg); err != nil {
		return WizardConfig{}, err
	}
	if err := validateWizardConfig(cfg); err != nil {
		return WizardConfig{}, err
	}
	return cfg, nil
}

func validateWizardConfig(cfg WizardConfig) error {
	if cfg.ResetDelay < 0 {
		return errors.New("wizard.resetDelay cannot be negative")
	}
	if cfg.FetchTimeout <= 0 {
		return errors.New("wizard.fetchTimeout must be positive")
	}
	if cfg.StateTTL <= 0 {
		return errors.New("wizard.stateTTL must be positive")
	}
	seen := make(map[string]struct{}, len(cfg.DefaultQuestions))
	for i, q := range cfg.DefaultQuestions {
		id := strings.TrimSpace(q.ID)
		if id == "" {
			return fmt.Errorf("wizard.defaultQuestions[%d].id cannot be empty", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("wizard.defaultQuestions[%d].id %q is duplicated", i, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
