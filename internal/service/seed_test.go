package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

func TestSeedDemoOnlyRunsOnEmptyStore(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	empty, err := service.StoreIsEmpty(db)
	require.NoError(t, err)
	assert.True(t, empty)

	seeded, err := service.SeedDemo(db)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = service.SeedDemo(db)
	require.NoError(t, err)
	assert.False(t, seeded)

	n, err := service.CountPatients(db)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	admin, err := service.Login(db, service.DemoAdminEmail, service.DemoAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	ana, err := service.Login(db, "ana@paciente.com", "ana123")
	require.NoError(t, err)
	assert.Equal(t, "p1", ana.PatientID)

	plan, err := service.ActivePlan(db, "p1")
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, "Plan Anti-Inflamatorio", plan.Name)
}

func TestSeedAdmin(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	created, err := service.SeedAdmin(db, "doc@clinic.mx", "secret1", "Doc")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = service.SeedAdmin(db, "other@clinic.mx", "secret1", "Other")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := service.Login(db, "doc@clinic.mx", "secret1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)

	seeded, err := service.SeedDemo(db)
	require.NoError(t, err)
	assert.False(t, seeded, "demo data never overwrites an existing store")
}
