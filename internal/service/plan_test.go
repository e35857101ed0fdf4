package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

func countActivePlans(t *testing.T, plans []model.Plan) int {
	t.Helper()
	n := 0
	for _, p := range plans {
		if p.Active {
			n++
		}
	}
	return n
}

func TestAddPlanDefaults(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	pid := addTestPatient(t, db, service.PatientInput{})

	id, err := service.AddPlan(db, pid, service.PlanInput{Active: true})
	require.NoError(t, err)

	plan, owner, err := service.GetPlan(db, id)
	require.NoError(t, err)
	assert.Equal(t, pid, owner)
	assert.Equal(t, service.DefaultPlanName, plan.Name)
	assert.Equal(t, service.DefaultPlanKcal, plan.KcalTarget)
	require.Len(t, plan.Sections, 3)
	assert.Equal(t, "Desayuno", plan.Sections[0].Title)
	require.Len(t, plan.Sections[0].Options, 1)
	assert.Equal(t, "Opción 1", plan.Sections[0].Options[0].Name)
	assert.Nil(t, plan.Macronutrients)
	assert.NotEmpty(t, plan.CreatedAt)
}

func TestActivatePlanKeepsSingleActive(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	pid := addTestPatient(t, db, service.PatientInput{})

	first, err := service.AddPlan(db, pid, service.PlanInput{Name: "Plan A", Active: true, CreatedAt: "2026-01-01T08:00"})
	require.NoError(t, err)
	second, err := service.AddPlan(db, pid, service.PlanInput{Name: "Plan B", Active: true, CreatedAt: "2026-02-01T08:00"})
	require.NoError(t, err)

	plans, err := service.ListPlans(db, pid)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, 1, countActivePlans(t, plans), "a new active plan deactivates the others")

	require.NoError(t, service.ActivatePlan(db, first))
	plans, err = service.ListPlans(db, pid)
	require.NoError(t, err)
	assert.Equal(t, 1, countActivePlans(t, plans))

	active, err := service.ActivePlan(db, pid)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, first, active.ID)

	require.NoError(t, service.UpdatePlan(db, second, service.PlanInput{Name: "Plan B", Active: true, KcalTarget: 1800}))
	active, err = service.ActivePlan(db, pid)
	require.NoError(t, err)
	assert.Equal(t, second, active.ID)

	assert.ErrorIs(t, service.ActivatePlan(db, "missing"), service.ErrNotFound)
}

func TestUpdatePlanReplacesSections(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	pid := addTestPatient(t, db, service.PatientInput{})

	id, err := service.AddPlan(db, pid, service.PlanInput{Name: "Plan", KcalTarget: 1600})
	require.NoError(t, err)

	err = service.UpdatePlan(db, id, service.PlanInput{
		Name:       "Plan Anti-Inflamatorio",
		KcalTarget: 1600,
		Sections: []model.MealSection{{Title: "Cena", Options: []model.Meal{
			{Name: "", Description: "Atún con galletas"},
			{Name: "Opción B", Description: "Ensalada"},
		}}},
		Macronutrients: &model.Macronutrients{Protein: 120, Carbs: 150, Fats: 55},
	})
	require.NoError(t, err)

	plan, _, err := service.GetPlan(db, id)
	require.NoError(t, err)
	require.Len(t, plan.Sections, 1)
	require.Len(t, plan.Sections[0].Options, 2)
	assert.Equal(t, "Opción 1", plan.Sections[0].Options[0].Name)
	require.NotNil(t, plan.Macronutrients)
	assert.Equal(t, 120.0, plan.Macronutrients.Protein)

	err = service.UpdatePlan(db, id, service.PlanInput{Sections: []model.MealSection{{Title: " "}}})
	assert.ErrorIs(t, err, service.ErrValidation)

	require.NoError(t, service.DeletePlan(db, id))
	active, err := service.ActivePlan(db, pid)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestRenderPlanSheet(t *testing.T) {
	t.Parallel()
	plan := model.Plan{
		Name:       "Plan Anti-Inflamatorio",
		KcalTarget: 1600,
		Sections: []model.MealSection{
			{Title: "Desayuno", Options: []model.Meal{{Name: "Opción 1", Description: "2 Huevos con espinacas + 1 pan"}}},
		},
		Supplements: "Omega 3 (1g) con el desayuno.",
	}
	sheet := service.RenderPlanSheet("Ana García López", plan)
	assert.Contains(t, sheet, "# Plan Nutricional: Plan Anti-Inflamatorio")
	assert.Contains(t, sheet, "Paciente: Ana García López | Kcal: 1600")
	assert.Contains(t, sheet, "## DESAYUNO")
	assert.Contains(t, sheet, "- **Opción 1:** 2 Huevos con espinacas + 1 pan")
	assert.Contains(t, sheet, "Omega 3 (1g) con el desayuno.")
	assert.Contains(t, sheet, "## EVITAR\n\nNinguno.")

	assert.Equal(t, "Plan_Ana_García_López.md", service.PlanSheetFileName(" Ana García  López "))
}
