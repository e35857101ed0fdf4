package service

import (
	"math"
	"strings"
)

type ActivityLevel struct {
	Factor float64 `json:"factor"`
	Label  string  `json:"label"`
}

var ActivityLevels = []ActivityLevel{
	{Factor: 1.2, Label: "Sedentario (Poco o nada ejercicio)"},
	{Factor: 1.375, Label: "Ligero (Ejercicio 1-3 días/sem)"},
	{Factor: 1.55, Label: "Moderado (Ejercicio 3-5 días/sem)"},
	{Factor: 1.725, Label: "Fuerte (Ejercicio 6-7 días/sem)"},
	{Factor: 1.9, Label: "Muy fuerte (Dos veces al día, entrenamientos duros)"},
}

const DefaultActivityFactor = 1.2

func ActivityLabel(factor float64) string {
	for _, l := range ActivityLevels {
		if math.Abs(l.Factor-factor) < 1e-9 {
			return l.Label
		}
	}
	return ""
}

func validateActivity(factor float64) error {
	if factor == 0 || ActivityLabel(factor) != "" {
		return nil
	}
	return invalidf("invalid activity factor %v (use 1.2, 1.375, 1.55, 1.725 or 1.9)", factor)
}

type Energy struct {
	BMR  float64 `json:"bmr"`
	TDEE float64 `json:"tdee"`
}

// MifflinStJeor reports BMR rounded to whole kcal and TDEE as round(round(BMR) * activity).
// Missing weight or height yields the zero value.
func MifflinStJeor(weightKg, heightCm float64, age int, gender string, activity float64) Energy {
	if weightKg <= 0 || heightCm <= 0 || age < 0 {
		return Energy{}
	}
	if activity <= 0 {
		activity = DefaultActivityFactor
	}
	bmr := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if strings.EqualFold(gender, "M") {
		bmr += 5
	} else {
		bmr -= 161
	}
	rounded := math.Round(bmr)
	return Energy{BMR: rounded, TDEE: math.Round(rounded * activity)}
}

type EnergyGoal string

const (
	GoalMaintain EnergyGoal = "maintain"
	GoalLose     EnergyGoal = "lose"
	GoalGain     EnergyGoal = "gain"
)

type CalculatorInput struct {
	WeightKg float64
	HeightCm float64
	Age      int
	Gender   string
	Activity float64
	Goal     EnergyGoal
}

type CalculatorResult struct {
	BMR      float64 `json:"bmr"`
	TDEE     float64 `json:"tdee"`
	Target   float64 `json:"target"`
	ProteinG float64 `json:"proteinG"`
	FatG     float64 `json:"fatG"`
	CarbsG   float64 `json:"carbsG"`
}

// Calculate runs the energy calculator: lose subtracts 500 kcal, gain adds 300.
// Macros use 2 g/kg protein, 1 g/kg fat and the remaining energy as carbohydrate.
func Calculate(in CalculatorInput) (CalculatorResult, error) {
	if in.WeightKg <= 0 || in.HeightCm <= 0 || in.Age <= 0 {
		return CalculatorResult{}, invalidf("weight, height and age must be > 0")
	}
	if err := validateActivity(in.Activity); err != nil {
		return CalculatorResult{}, err
	}
	e := MifflinStJeor(in.WeightKg, in.HeightCm, in.Age, in.Gender, in.Activity)
	target := e.TDEE
	switch EnergyGoal(strings.ToLower(string(in.Goal))) {
	case "", GoalMaintain:
	case GoalLose:
		target -= 500
	case GoalGain:
		target += 300
	default:
		return CalculatorResult{}, invalidf("invalid goal %q (use maintain, lose or gain)", in.Goal)
	}
	protein := in.WeightKg * 2
	fat := in.WeightKg * 1
	carbs := math.Round((target - protein*4 - fat*9) / 4)
	return CalculatorResult{
		BMR:      e.BMR,
		TDEE:     e.TDEE,
		Target:   target,
		ProteinG: roundTo(protein, 1),
		FatG:     roundTo(fat, 1),
		CarbsG:   carbs,
	}, nil
}
