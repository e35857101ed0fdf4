package service

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/saadjs/nutri-cli/internal/model"
)

const (
	DemoAdminEmail    = "admin@nutri.com"
	DemoAdminPassword = "admin123"
)

func DemoSnapshot() *Snapshot {
	return &Snapshot{
		Users: []model.User{
			{ID: "u1", Email: DemoAdminEmail, Password: DemoAdminPassword, Name: "Dr. Nutri", Role: model.RoleAdmin},
			{ID: "u2", Email: "ana@paciente.com", Password: "ana123", Name: "Ana García López", Role: model.RolePatient, PatientID: "p1"},
			{ID: "u3", Email: "carlos@paciente.com", Password: "carlos123", Name: "Carlos Rodríguez", Role: model.RolePatient, PatientID: "p2"},
		},
		Patients: []model.Patient{demoAna(), demoCarlos()},
	}
}

func demoAna() model.Patient {
	return model.Patient{
		ID:         "p1",
		Name:       "Ana García López",
		Email:      "ana@paciente.com",
		Phone:      "555-0199",
		DOB:        "1989-05-15",
		Gender:     "F",
		Occupation: "Arquitecta",
		AvatarURL:  "https://ui-avatars.com/api/?name=Ana+Garcia&background=cbd5e1&color=0f172a",
		Notes: []model.Note{{
			ID:           "n1",
			Date:         "2023-08-31",
			Objective:    "Evaluación inicial",
			Observations: "Paciente motivada. Refiere inflamación abdominal frecuente.",
			Images:       []string{"https://picsum.photos/200/200?random=1"},
		}},
		Lifestyle: model.Lifestyle{
			Activity: model.LifestyleActivity{Regular: true, Details: "Caminata 3x semana, 30 min"},
			Sleep:    model.LifestyleSleep{Hours: "6", Stress: "Alto (laboral)"},
			Diet:     model.LifestyleDiet{Meals: "Desayuna 8am, Come 3pm, Cena 9pm", Water: "1 litro", Alcohol: true},
			Preferences: model.LifestylePreferences{
				Likes: "Pollo, Verduras, Frutas", Dislikes: "Hígado, Brócoli", Budget: "Medio",
				Access: "Supermercado", EatingOut: "3 veces por semana",
			},
		},
		Anthropometry: []model.Anthropometry{{
			ID: "m1", Date: "2023-09-01", Weight: 75.5, Height: 165, IMC: 27.7,
			Circumference: model.Circumference{Waist: 88, Hip: 105, Abdomen: 92, Chest: 98, ArmR: 30, ArmL: 30, Thigh: 60, Calf: 38},
			Folds:         model.Folds{Tricipital: 20, Bicipital: 10, Subscapular: 18, Suprailiac: 22, Abdominal: 25, Quadriceps: 15},
			Notes:         "Inicio de tratamiento.",
		}},
		Clinical: model.ClinicalHistory{
			Background: model.ClinicalBackground{Motive: "Bajar de peso", Medications: "Omeprazol ocasional", FamilyHistory: "Diabetes, Hipertensión"},
			Recall24h: model.Recall24h{
				Breakfast: "Café con leche y pan", SnackAM: "-", Lunch: "Tacos de guisado", SnackPM: "Galletas", Dinner: "Cereal con leche",
			},
			Frequencies: map[string]string{"Verduras": "Ocasional", "Frutas": "Diario", "Embutidos": "Semanal"},
		},
		Plans: []model.Plan{{
			ID: "pl1", Name: "Plan Anti-Inflamatorio", KcalTarget: 1600, Active: true, CreatedAt: "2024-01-01T00:00",
			Sections: []model.MealSection{
				{Title: "Desayuno", Options: []model.Meal{
					{ID: "d1", Name: "Opción 1", Description: "2 Huevos con espinacas + 1 pan"},
					{ID: "d2", Name: "Opción 2", Description: "Avena con almendras y manzana"},
				}},
				{Title: "Almuerzo", Options: []model.Meal{{ID: "a1", Name: "Opción 1", Description: "120g Pollo asado + Ensalada + Arroz"}}},
				{Title: "Cena", Options: []model.Meal{{ID: "c1", Name: "Opción 1", Description: "Atún con galletas"}}},
			},
			Supplements: "Omega 3 (1g) con el desayuno.",
			Avoid:       "Refrescos, Azúcar añadida.",
		}},
		Labs: []model.LabResult{{
			ID: "l1", Name: "Perfil Bioquímico", Date: "2026-01-20",
			Attachments: []string{"https://picsum.photos/100/100?random=5"},
			Markers: []model.LabMarker{
				{Name: "Glucosa", Value: "95", Unit: "mg/dL", Flag: "normal"},
				{Name: "Colesterol", Value: "220", Unit: "mg/dL", Flag: "high"},
				{Name: "Triglicéridos", Value: "150", Unit: "mg/dL", Flag: "normal"},
				{Name: "Hemoglobina", Value: "14", Unit: "g/dL", Flag: "normal"},
				{Name: "Hematocrito", Value: "42", Unit: "%", Flag: "normal"},
			},
		}},
	}
}

func demoCarlos() model.Patient {
	return model.Patient{
		ID:         "p2",
		Name:       "Carlos Rodríguez",
		Email:      "carlos@paciente.com",
		Phone:      "555-1234",
		DOB:        "1985-02-20",
		Gender:     "M",
		Occupation: "Ingeniero",
		AvatarURL:  "https://ui-avatars.com/api/?name=Carlos+Rodriguez&background=cbd5e1&color=0f172a",
		Lifestyle: model.Lifestyle{
			Sleep: model.LifestyleSleep{Hours: "7", Stress: "Medio"},
			Diet:  model.LifestyleDiet{Meals: "Desordenado", Water: "2 litros", Alcohol: true, Tobacco: true},
			Preferences: model.LifestylePreferences{
				Likes: "Carnes rojas", Dislikes: "Pescado", Budget: "Alto", Access: "Restaurantes", EatingOut: "Diario",
			},
		},
		Clinical: model.ClinicalHistory{
			Background:  model.ClinicalBackground{Motive: "Mejorar salud"},
			Frequencies: map[string]string{},
		},
	}
}

func StoreIsEmpty(db *sql.DB) (bool, error) {
	var n int
	if err := db.QueryRow(`SELECT (SELECT COUNT(1) FROM users) + (SELECT COUNT(1) FROM patients)`).Scan(&n); err != nil {
		return false, fmt.Errorf("check empty store: %w", err)
	}
	return n == 0, nil
}

// SeedDemo loads DemoSnapshot into an empty store. It reports false when the store already has data.
func SeedDemo(db *sql.DB) (bool, error) {
	empty, err := StoreIsEmpty(db)
	if err != nil || !empty {
		return false, err
	}
	if _, err := importSnapshot(db, DemoSnapshot(), ImportOptions{Mode: ImportModeReplace}, time.Now()); err != nil {
		return false, fmt.Errorf("seed demo data: %w", err)
	}
	return true, nil
}

func SeedAdmin(db *sql.DB, email, password, name string) (bool, error) {
	empty, err := StoreIsEmpty(db)
	if err != nil || !empty {
		return false, err
	}
	if _, err := CreateUser(db, UserInput{Email: email, Password: password, Name: name, Role: model.RoleAdmin}); err != nil {
		return false, err
	}
	return true, nil
}
