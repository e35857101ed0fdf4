package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/saadjs/nutri-cli/internal/model"
)

var DefaultTheme = model.ThemeConfig{
	AppBg:        "#020617",
	CardBg:       "#0f172a",
	TextColor:    "#f1f5f9",
	PrimaryColor: "#2563eb",
	FontFamily:   "'Inter', sans-serif",
}

type ThemePreset struct {
	Name   string            `json:"name"`
	Config model.ThemeConfig `json:"config"`
}

var ThemePresets = []ThemePreset{
	{Name: "Nocturno (Default)", Config: DefaultTheme},
	{Name: "Diurno (Claro)", Config: model.ThemeConfig{AppBg: "#f1f5f9", CardBg: "#ffffff", TextColor: "#0f172a", PrimaryColor: "#2563eb", FontFamily: "'Inter', sans-serif"}},
	{Name: "Naturaleza", Config: model.ThemeConfig{AppBg: "#052e16", CardBg: "#14532d", TextColor: "#f0fdf4", PrimaryColor: "#22c55e", FontFamily: "'Inter', sans-serif"}},
	{Name: "Neón Cyber", Config: model.ThemeConfig{AppBg: "#09090b", CardBg: "#18181b", TextColor: "#e4e4e7", PrimaryColor: "#d946ef", FontFamily: "'Roboto Mono', monospace"}},
	{Name: "Océano Profundo", Config: model.ThemeConfig{AppBg: "#082f49", CardBg: "#0c4a6e", TextColor: "#f0f9ff", PrimaryColor: "#0ea5e9", FontFamily: "'Merriweather', serif"}},
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func ValidateTheme(t model.ThemeConfig) error {
	for name, v := range map[string]string{
		"appBg": t.AppBg, "cardBg": t.CardBg, "textColor": t.TextColor, "primaryColor": t.PrimaryColor,
	} {
		if !hexColor.MatchString(v) {
			return invalidf("%s must be a #rrggbb color, got %q", name, v)
		}
	}
	if strings.TrimSpace(t.FontFamily) == "" {
		return invalidf("fontFamily is required")
	}
	return nil
}

func GetTheme(db *sql.DB) (model.ThemeConfig, error) {
	raw, ok, err := GetConfig(db, ConfigTheme)
	if err != nil {
		return model.ThemeConfig{}, err
	}
	if !ok {
		return DefaultTheme, nil
	}
	var t model.ThemeConfig
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return DefaultTheme, nil
	}
	return t, nil
}

func SetTheme(db *sql.DB, t model.ThemeConfig) error {
	return setTheme(db, t)
}

func setTheme(q querier, t model.ThemeConfig) error {
	if err := ValidateTheme(t); err != nil {
		return err
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode theme: %w", err)
	}
	return setConfig(q, ConfigTheme, string(raw))
}

func ResetTheme(db *sql.DB) error {
	return DeleteConfig(db, ConfigTheme)
}

// FindThemePreset matches a preset by case-insensitive name prefix.
func FindThemePreset(name string) (ThemePreset, error) {
	n := normalizeName(name)
	if n == "" {
		return ThemePreset{}, invalidf("preset name is required")
	}
	for _, p := range ThemePresets {
		if strings.HasPrefix(normalizeName(p.Name), n) {
			return p, nil
		}
	}
	return ThemePreset{}, notFound("theme preset", name)
}
