package nutrition

import (
	"testing"
)

func TestDecodeAppliesDefaults(t *testing.T) {
	body := []byte(`{"food_name":"apple","confidence":92.5,"calories_kcal":52,"macros":{"protein_g":0.3,"fat_g":0.2,"carbs_g":14}}`)

	result, err := Decode(body)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if result.FoodName != "apple" {
		t.Fatalf("expected food name apple, got %q", result.FoodName)
	}
	if result.Serving != "100g" {
		t.Fatalf("expected default serving 100g, got %q", result.Serving)
	}
	if result.Sources == nil || len(result.Sources) != 0 {
		t.Fatalf("expected empty sources, got %#v", result.Sources)
	}
	if result.Micros.VitaminCMg != nil {
		t.Fatalf("expected absent vitamin C, got %v", *result.Micros.VitaminCMg)
	}
	if result.Micros.SodiumMg != nil || result.Micros.FiberG != nil {
		t.Fatal("expected all micros absent")
	}
}

func TestDecodeMissingCaloriesDefaultsToZero(t *testing.T) {
	result, err := Decode([]byte(`{"food_name":"salad"}`))
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if result.CaloriesKcal != 0 {
		t.Fatalf("expected zero calories, got %v", result.CaloriesKcal)
	}
}

func TestDecodeMeasuredZeroMicroIsNotAbsent(t *testing.T) {
	result, err := Decode([]byte(`{"micros":{"vitamin_c_mg":0}}`))
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if result.Micros.VitaminCMg == nil {
		t.Fatal("expected measured zero to be present")
	}
	if *result.Micros.VitaminCMg != 0 {
		t.Fatalf("expected zero, got %v", *result.Micros.VitaminCMg)
	}
}

func TestDecodeNullMicroIsAbsent(t *testing.T) {
	result, err := Decode([]byte(`{"micros":{"vitamin_c_mg":null,"calcium_mg":12.5}}`))
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if result.Micros.VitaminCMg != nil {
		t.Fatal("expected explicit null to decode as absent")
	}
	if result.Micros.CalciumMg == nil || *result.Micros.CalciumMg != 12.5 {
		t.Fatalf("expected calcium 12.5, got %v", result.Micros.CalciumMg)
	}
}

func TestDecodeRejectsNonObjectBodies(t *testing.T) {
	for _, body := range []string{"", "null", "[1,2]", `"text"`, "not json", `{"food_name":`} {
		if _, err := Decode([]byte(body)); err == nil {
			t.Fatalf("expected error for body %q", body)
		}
	}
}

func TestMacrosDerivedValues(t *testing.T) {
	m := Macros{ProteinG: 10, FatG: 5, CarbsG: 20}
	if got := m.TotalGrams(); got != 35 {
		t.Fatalf("expected 35 total grams, got %v", got)
	}
	// 10*4 + 20*4 + 5*9
	if got := m.Calories(); got != 165 {
		t.Fatalf("expected 165 kcal, got %v", got)
	}
}
