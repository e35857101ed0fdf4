package service_test

import (
	"math"
	"testing"

	"github.com/saadjs/nutri-cli/internal/service"
)

func TestToKgConvertsPounds(t *testing.T) {
	t.Parallel()
	out, err := service.ToKg(180, "lb")
	if err != nil {
		t.Fatalf("convert pounds: %v", err)
	}
	if math.Abs(out-81.6466) > 0.001 {
		t.Fatalf("expected ~81.65 kg, got %.4f", out)
	}
	back, err := service.WeightFromKg(out, "lbs")
	if err != nil {
		t.Fatalf("convert back: %v", err)
	}
	if math.Abs(back-180) > 1e-9 {
		t.Fatalf("expected 180 lb, got %.6f", back)
	}
}

func TestToCmConvertsInches(t *testing.T) {
	t.Parallel()
	out, err := service.ToCm(65, "in")
	if err != nil {
		t.Fatalf("convert inches: %v", err)
	}
	if math.Abs(out-165.1) > 1e-9 {
		t.Fatalf("expected 165.1 cm, got %.4f", out)
	}
}

func TestUnitConversionRejectsBadInput(t *testing.T) {
	t.Parallel()
	if _, err := service.ToKg(-1, "kg"); err == nil {
		t.Fatalf("expected negative weight to fail")
	}
	if _, err := service.ToKg(70, "stone"); err == nil {
		t.Fatalf("expected unknown weight unit to fail")
	}
	if _, err := service.ToCm(170, "ft"); err == nil {
		t.Fatalf("expected unknown height unit to fail")
	}
}
