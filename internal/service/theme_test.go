package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutri-cli/internal/service"
)

func TestThemeLifecycle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	theme, err := service.GetTheme(db)
	require.NoError(t, err)
	assert.Equal(t, service.DefaultTheme, theme)

	preset, err := service.FindThemePreset("natu")
	require.NoError(t, err)
	assert.Equal(t, "Naturaleza", preset.Name)
	require.NoError(t, service.SetTheme(db, preset.Config))

	theme, err = service.GetTheme(db)
	require.NoError(t, err)
	assert.Equal(t, "#22c55e", theme.PrimaryColor)

	bad := theme
	bad.AppBg = "green"
	assert.ErrorIs(t, service.SetTheme(db, bad), service.ErrValidation)

	require.NoError(t, service.ResetTheme(db))
	theme, err = service.GetTheme(db)
	require.NoError(t, err)
	assert.Equal(t, service.DefaultTheme, theme)

	_, err = service.FindThemePreset("sepia")
	assert.ErrorIs(t, err, service.ErrNotFound)
}
