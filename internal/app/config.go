package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/specialistvlad/eonc/internal/compilecache"
	"github.com/specialistvlad/eonc/internal/config"
	"github.com/specialistvlad/eonc/internal/publish"
)

// Commands.
const (
	CommandCompile = "compile"
	CommandCheck   = "check"
	CommandTree    = "tree"
	CommandWatch   = "watch"
	CommandServe   = "serve"
	CommandPublish = "publish"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command    string `validate:"required,oneof=compile check tree watch serve publish"`
	SourcePath string `validate:"required_unless=Command serve"`
	ConfigPath string

	LogFormat string `validate:"oneof=text json"`
	LogLevel  string `validate:"oneof=debug info warn error"`

	// Format is the output encoding of compile.
	Format string `validate:"oneof=json yaml yml"`
	// Full makes compile emit diagnostics and member placements with the graph.
	Full bool
	// Strict makes check fail on warnings.
	Strict bool

	Addr           string        `validate:"required"`
	AllowedOrigins []string      `validate:"dive,url"`
	CacheSize      int           `validate:"gte=1"`
	WatchInterval  time.Duration `validate:"gt=0"`

	Publish PublishConfig
}

// PublishConfig is the renderer endpoint used by publish and watch.
type PublishConfig struct {
	URL                string `validate:"omitempty,url"`
	Namespace          string
	Event              string        `validate:"required"`
	Timeout            time.Duration `validate:"gt=0"`
	InsecureSkipVerify bool
}

func (p PublishConfig) client() publish.Config {
	return publish.Config{
		URL:                p.URL,
		Namespace:          p.Namespace,
		Event:              p.Event,
		Timeout:            p.Timeout,
		InsecureSkipVerify: p.InsecureSkipVerify,
	}
}

// DefaultConfig returns the built-in defaults, the lowest layer of settings.
func DefaultConfig() Config {
	return Config{
		LogFormat:     "text",
		LogLevel:      "info",
		Format:        "json",
		Addr:          ":8080",
		CacheSize:     compilecache.DefaultSize,
		WatchInterval: 500 * time.Millisecond,
		Publish: PublishConfig{
			Namespace: "/",
			Event:     publish.DefaultEvent,
			Timeout:   10 * time.Second,
		},
	}
}

// ApplyModel overlays every value the settings file sets.
func (c *Config) ApplyModel(m *config.Model) {
	if m == nil {
		return
	}
	setString(&c.LogLevel, m.LogLevel)
	setString(&c.LogFormat, m.LogFormat)
	if s := m.Server; s != nil {
		setString(&c.Addr, s.Addr)
		if s.AllowedOrigins != nil {
			c.AllowedOrigins = s.AllowedOrigins
		}
	}
	if m.Cache != nil && m.Cache.Size != nil {
		c.CacheSize = *m.Cache.Size
	}
	if p := m.Publisher; p != nil {
		setString(&c.Publish.URL, p.URL)
		setString(&c.Publish.Namespace, p.Namespace)
		setString(&c.Publish.Event, p.Event)
		if p.Timeout != nil {
			c.Publish.Timeout = *p.Timeout
		}
		if p.InsecureSkipVerify != nil {
			c.Publish.InsecureSkipVerify = *p.InsecureSkipVerify
		}
	}
	if m.Watch != nil && m.Watch.Interval != nil {
		c.WatchInterval = *m.Watch.Interval
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		cfg := sl.Current().Interface().(Config)
		if cfg.Command == CommandPublish && cfg.Publish.URL == "" {
			sl.ReportError(cfg.Publish.URL, "Publish.URL", "URL", "required_for_publish", "")
		}
	}, Config{})
	return v
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, formatValidationError(err)
	}
	return &cfg, nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "required", "required_unless", "required_for_publish":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed '%s' validation (value %v)", field, fe.Tag(), fe.Value()))
		}
	}
	return errors.New("invalid configuration: " + strings.Join(msgs, "; "))
}
