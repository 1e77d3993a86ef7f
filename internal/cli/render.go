package cli

import (
	"fmt"
	"strings"

	"github.com/example/foodlens/internal/nutrition"
)

// renderResult formats an analysis result for the terminal.
func renderResult(r *nutrition.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Food:       %s (%.1f%% confidence)\n", r.FoodName, r.Confidence)
	fmt.Fprintf(&b, "Serving:    %s\n", r.Serving)
	fmt.Fprintf(&b, "Calories:   %.0f kcal (%.0f kcal from macros)\n", r.CaloriesKcal, r.Macros.Calories())
	fmt.Fprintf(&b, "Protein:    %.1f g\n", r.Macros.ProteinG)
	fmt.Fprintf(&b, "Fat:        %.1f g\n", r.Macros.FatG)
	fmt.Fprintf(&b, "Carbs:      %.1f g\n", r.Macros.CarbsG)

	micros := microLines(r.Micros)
	if len(micros) > 0 {
		b.WriteString("Micros:\n")
		for _, line := range micros {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	if len(r.Sources) > 0 {
		fmt.Fprintf(&b, "Sources:    %s\n", strings.Join(r.Sources, ", "))
	}
	return b.String()
}

// microLines renders only the micronutrients the service actually measured.
func microLines(m nutrition.Micros) []string {
	var lines []string
	add := func(name, unit string, value *float64) {
		if value != nil {
			lines = append(lines, fmt.Sprintf("%-12s %.1f %s", name, *value, unit))
		}
	}

	add("Vitamin C", "mg", m.VitaminCMg)
	add("Calcium", "mg", m.CalciumMg)
	add("Iron", "mg", m.IronMg)
	add("Vitamin D", "mcg", m.VitaminDMcg)
	add("Vitamin B12", "mcg", m.VitaminB12Mcg)
	add("Magnesium", "mg", m.MagnesiumMg)
	add("Potassium", "mg", m.PotassiumMg)
	add("Sodium", "mg", m.SodiumMg)
	add("Fiber", "g", m.FiberG)
	add("Sugar", "g", m.SugarG)
	return lines
}
