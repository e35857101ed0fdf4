package service

import "strings"

const (
	kgPerLb = 0.45359237
	cmPerIn = 2.54
)

func ToKg(value float64, unit string) (float64, error) {
	if value < 0 {
		return 0, invalidf("weight must be >= 0")
	}
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "kg":
		return value, nil
	case "lb", "lbs":
		return value * kgPerLb, nil
	default:
		return 0, invalidf("invalid weight unit %q (use kg or lb)", unit)
	}
}

func WeightFromKg(weightKg float64, unit string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "kg":
		return weightKg, nil
	case "lb", "lbs":
		return weightKg / kgPerLb, nil
	default:
		return 0, invalidf("invalid weight unit %q (use kg or lb)", unit)
	}
}

func ToCm(value float64, unit string) (float64, error) {
	if value < 0 {
		return 0, invalidf("height must be >= 0")
	}
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "cm":
		return value, nil
	case "in":
		return value * cmPerIn, nil
	default:
		return 0, invalidf("invalid height unit %q (use cm or in)", unit)
	}
}
