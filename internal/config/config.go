package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"taskflow/internal/models"
)

// DefaultPath is used when neither --config nor TASKFLOW_CONFIG is given.
const DefaultPath = "config/config.yaml"

type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug|release|test

	// AllowedOrigins are cross-origin pages allowed to open /ws, e.g. https://tasks.example.com.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	DSN string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	SessionCookie string        `yaml:"session_cookie"`
	LoginRate     float64       `yaml:"login_rate"`  // attempts per second per client
	LoginBurst    int           `yaml:"login_burst"` // burst size
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
}

func (e EmailConfig) Enabled() bool {
	return e.SMTPHost != "" && e.FromEmail != ""
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
}

type FilesConfig struct {
	FontPath string `yaml:"font_path"`
	LogoPath string `yaml:"logo_path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json|text
}

type ReportsConfig struct {
	DefaultColumns []string `yaml:"default_columns"`
	PageSize       int      `yaml:"page_size"`
	Title          string   `yaml:"title"`
}

type ThemeConfig struct {
	Name    string              `yaml:"name"`
	Buttons models.ButtonColors `yaml:"buttons"`
}

type Config struct {
	AppName  string         `yaml:"app_name"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Email    EmailConfig    `yaml:"email"`
	Telegram TelegramConfig `yaml:"telegram"`
	Files    FilesConfig    `yaml:"files"`
	Log      LogConfig      `yaml:"log"`
	Reports  ReportsConfig  `yaml:"reports"`
	Theme    ThemeConfig    `yaml:"theme"`
}

// Themes known to the UI.
var Themes = map[string]string{
	"classic": "Classic Blue",
	"ocean":   "Ocean Teal",
	"emerald": "Emerald Green",
}

// ReportColumns are the selectable report columns in their canonical order.
var ReportColumns = []string{
	"id", "title", "status", "priority", "assigned_to", "deadline",
	"folder", "milestone", "milestone_status", "milestone_deadline",
}

var DefaultButtons = models.ButtonColors{
	Primary:   "#0d6efd",
	Secondary: "#6c757d",
	Success:   "#198754",
	Warning:   "#ffc107",
	Danger:    "#dc3545",
}

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsHexColor reports whether s is a #rrggbb colour.
func IsHexColor(s string) bool {
	return hexColorRe.MatchString(strings.TrimSpace(s))
}

// SanitizeHexColor returns the lower-cased colour, or fallback when it is not #rrggbb.
func SanitizeHexColor(value, fallback string) string {
	v := strings.TrimSpace(value)
	if hexColorRe.MatchString(v) {
		return strings.ToLower(v)
	}
	return fallback
}

func IsReportColumn(c string) bool {
	for _, known := range ReportColumns {
		if c == known {
			return true
		}
	}
	return false
}

func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("TASKFLOW_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if v := os.Getenv("TASKFLOW_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("TASKFLOW_DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AppName == "" {
		c.AppName = "Task Management System"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Auth.AccessTTL == 0 {
		c.Auth.AccessTTL = 12 * time.Hour
	}
	if c.Auth.SessionCookie == "" {
		c.Auth.SessionCookie = "taskflow_session"
	}
	if c.Auth.LoginRate == 0 {
		c.Auth.LoginRate = 1
	}
	if c.Auth.LoginBurst == 0 {
		c.Auth.LoginBurst = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if len(c.Reports.DefaultColumns) == 0 {
		c.Reports.DefaultColumns = append([]string(nil), ReportColumns...)
	}
	if c.Reports.PageSize == 0 {
		c.Reports.PageSize = 10
	}
	if c.Reports.Title == "" {
		c.Reports.Title = "Task & Milestone Report"
	}
	if c.Theme.Name == "" {
		c.Theme.Name = "classic"
	}
	b := &c.Theme.Buttons
	for _, p := range []struct {
		v   *string
		def string
	}{
		{&b.Primary, DefaultButtons.Primary},
		{&b.Secondary, DefaultButtons.Secondary},
		{&b.Success, DefaultButtons.Success},
		{&b.Warning, DefaultButtons.Warning},
		{&b.Danger, DefaultButtons.Danger},
	} {
		if *p.v == "" {
			*p.v = p.def
		}
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("config: database.url is required")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("config: auth.jwt_secret must be at least 16 characters")
	}
	if _, ok := Themes[c.Theme.Name]; !ok {
		return fmt.Errorf("config: unknown theme %q", c.Theme.Name)
	}
	b := c.Theme.Buttons
	for name, v := range map[string]string{
		"primary": b.Primary, "secondary": b.Secondary, "success": b.Success,
		"warning": b.Warning, "danger": b.Danger,
	} {
		if !IsHexColor(v) {
			return fmt.Errorf("config: theme.buttons.%s %q is not a #rrggbb colour", name, v)
		}
	}
	for _, col := range c.Reports.DefaultColumns {
		if !IsReportColumn(col) {
			return fmt.Errorf("config: unknown report column %q", col)
		}
	}
	if c.Reports.PageSize < 1 {
		return fmt.Errorf("config: reports.page_size must be positive")
	}
	return nil
}

// DefaultSettings is the settings record used until an admin saves one.
func (c *Config) DefaultSettings() models.AppSettings {
	return models.AppSettings{
		Theme:         c.Theme.Name,
		Buttons:       c.Theme.Buttons,
		ReportColumns: append([]string(nil), c.Reports.DefaultColumns...),
	}
}
