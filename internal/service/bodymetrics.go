package service

import (
	"math"
	"time"

	"github.com/saadjs/nutri-cli/internal/model"
)

// BMI returns weight / (height in metres)^2 rounded to one decimal, 0 when height is 0.
func BMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	m := heightCm / 100
	return roundTo(weightKg/(m*m), 1)
}

// Age is the calendar-year difference between now and the date of birth.
func Age(dob string, now time.Time) (int, bool) {
	t, err := ParseTimestamp(dob)
	if err != nil {
		return 0, false
	}
	return now.Year() - t.Year(), true
}

type FoldStats struct {
	Sum  float64 `json:"sum"`
	Mean float64 `json:"mean"`
}

func FoldSummary(f model.Folds) FoldStats {
	sum := f.Tricipital + f.Bicipital + f.Subscapular + f.Suprailiac + f.Abdominal + f.Quadriceps
	return FoldStats{Sum: sum, Mean: roundTo(sum/6, 2)}
}

const (
	CompositionLow        = "Bajo en grasa"
	CompositionHealthy    = "Saludable"
	CompositionOverweight = "Sobrepeso"
	CompositionObese      = "Obesidad"
)

type compositionRange struct {
	low, healthy, overweight float64
}

// brackets are 15-39, 40-59 and 60+.
var compositionTable = map[string][3]compositionRange{
	"F": {{16, 28, 39}, {18, 30, 40}, {20, 32, 42}},
	"M": {{8, 20, 25}, {11, 22, 28}, {13, 25, 30}},
}

// BodyComposition classifies the mean skin fold. It returns "" when age < 15 or avg <= 0.
func BodyComposition(gender string, age int, avgFold float64) string {
	if age < 15 || avgFold <= 0 {
		return ""
	}
	ranges, ok := compositionTable[gender]
	if !ok {
		ranges = compositionTable["F"]
	}
	var r compositionRange
	switch {
	case age <= 39:
		r = ranges[0]
	case age <= 59:
		r = ranges[1]
	default:
		r = ranges[2]
	}
	switch {
	case avgFold < r.low:
		return CompositionLow
	case avgFold <= r.healthy:
		return CompositionHealthy
	case avgFold <= r.overweight:
		return CompositionOverweight
	default:
		return CompositionObese
	}
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
