package services

import (
	"context"
	"strings"

	"taskflow/internal/config"
	"taskflow/internal/models"
	"taskflow/internal/repositories"
)

// Keys of the app_settings rows.
const (
	settingTheme         = "ui_theme"
	settingBtnPrimary    = "ui_btn_primary"
	settingBtnSecondary  = "ui_btn_secondary"
	settingBtnSuccess    = "ui_btn_success"
	settingBtnWarning    = "ui_btn_warning"
	settingBtnDanger     = "ui_btn_danger"
	settingReportColumns = "report_columns"
)

type SettingsService interface {
	Get(ctx context.Context) (models.AppSettings, error)
	Update(ctx context.Context, in models.AppSettings) (models.AppSettings, error)
}

type settingsService struct {
	repo     repositories.SettingsRepository
	defaults models.AppSettings
}

func NewSettingsService(repo repositories.SettingsRepository, defaults models.AppSettings) SettingsService {
	return &settingsService{repo: repo, defaults: defaults}
}

// Get reads the stored rows. Unknown themes, malformed colours and unknown
// columns fall back to the configured defaults.
func (s *settingsService) Get(ctx context.Context) (models.AppSettings, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return models.AppSettings{}, err
	}
	d := s.defaults
	out := models.AppSettings{
		Theme: d.Theme,
		Buttons: models.ButtonColors{
			Primary:   config.SanitizeHexColor(rows[settingBtnPrimary], d.Buttons.Primary),
			Secondary: config.SanitizeHexColor(rows[settingBtnSecondary], d.Buttons.Secondary),
			Success:   config.SanitizeHexColor(rows[settingBtnSuccess], d.Buttons.Success),
			Warning:   config.SanitizeHexColor(rows[settingBtnWarning], d.Buttons.Warning),
			Danger:    config.SanitizeHexColor(rows[settingBtnDanger], d.Buttons.Danger),
		},
		ReportColumns: append([]string(nil), d.ReportColumns...),
	}
	if theme := strings.TrimSpace(rows[settingTheme]); theme != "" {
		if _, ok := config.Themes[theme]; ok {
			out.Theme = theme
		}
	}
	if raw := rows[settingReportColumns]; raw != "" {
		var cols []string
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); config.IsReportColumn(c) {
				cols = append(cols, c)
			}
		}
		if len(cols) > 0 {
			out.ReportColumns = cols
		}
	}
	return out, nil
}

func (s *settingsService) Update(ctx context.Context, in models.AppSettings) (models.AppSettings, error) {
	if _, ok := config.Themes[in.Theme]; !ok {
		return models.AppSettings{}, invalid("unknown theme %q", in.Theme)
	}
	b := in.Buttons
	colours := map[string]string{
		settingBtnPrimary:   b.Primary,
		settingBtnSecondary: b.Secondary,
		settingBtnSuccess:   b.Success,
		settingBtnWarning:   b.Warning,
		settingBtnDanger:    b.Danger,
	}
	rows := map[string]string{settingTheme: in.Theme}
	for key, v := range colours {
		if !config.IsHexColor(v) {
			return models.AppSettings{}, invalid("%s %q is not a #rrggbb colour", key, v)
		}
		rows[key] = strings.ToLower(strings.TrimSpace(v))
	}
	if len(in.ReportColumns) == 0 {
		return models.AppSettings{}, invalid("at least one report column is required")
	}
	for _, c := range in.ReportColumns {
		if !config.IsReportColumn(c) {
			return models.AppSettings{}, invalid("unknown report column %q", c)
		}
	}
	rows[settingReportColumns] = strings.Join(in.ReportColumns, ",")

	if err := s.repo.Upsert(ctx, rows); err != nil {
		return models.AppSettings{}, err
	}
	return s.Get(ctx)
}
