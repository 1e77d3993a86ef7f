package server

// foodFacts holds nutrition per 100g. Nil micronutrients mean the value is
// not in the table, not that it is zero.
type foodFacts struct {
	CaloriesKcal float64
	ProteinG     float64
	FatG         float64
	CarbsG       float64
	FiberG       *float64
	SugarG       *float64
	SodiumMg     *float64
}

func ptr(v float64) *float64 { return &v }

// nutritionTable is the static lookup used by the development backend.
var nutritionTable = map[string]foodFacts{
	"apple":      {CaloriesKcal: 52, ProteinG: 0.3, FatG: 0.2, CarbsG: 14, FiberG: ptr(2.4), SugarG: ptr(10.4), SodiumMg: ptr(1)},
	"banana":     {CaloriesKcal: 89, ProteinG: 1.1, FatG: 0.3, CarbsG: 23, FiberG: ptr(2.6), SugarG: ptr(12.2), SodiumMg: ptr(1)},
	"pizza":      {CaloriesKcal: 266, ProteinG: 11, FatG: 10, CarbsG: 33, SodiumMg: ptr(598)},
	"salad":      {CaloriesKcal: 15, ProteinG: 1.2, FatG: 0.2, CarbsG: 2.9, FiberG: ptr(1.3)},
	"burger":     {CaloriesKcal: 295, ProteinG: 17, FatG: 14, CarbsG: 24, SodiumMg: ptr(414)},
	"sushi":      {CaloriesKcal: 130, ProteinG: 3.5, FatG: 0.4, CarbsG: 28},
	"pasta":      {CaloriesKcal: 131, ProteinG: 5, FatG: 1.1, CarbsG: 25, FiberG: ptr(1.8)},
	"rice":       {CaloriesKcal: 130, ProteinG: 2.7, FatG: 0.3, CarbsG: 28},
	"fried_rice": {CaloriesKcal: 163, ProteinG: 4.3, FatG: 3.2, CarbsG: 29, SodiumMg: ptr(396)},
	"steak":      {CaloriesKcal: 271, ProteinG: 25, FatG: 19, CarbsG: 0},
	"ice_cream":  {CaloriesKcal: 207, ProteinG: 3.5, FatG: 11, CarbsG: 24, SugarG: ptr(21.2)},
	"pancakes":   {CaloriesKcal: 227, ProteinG: 6.4, FatG: 9.7, CarbsG: 28, SugarG: ptr(5.6)},
}

// defaultFacts is returned when a predicted label has no table entry,
// mirroring the service's fallback nutrition values.
var defaultFacts = foodFacts{CaloriesKcal: 200, ProteinG: 10, FatG: 8, CarbsG: 25}

// analysisSources names where the nutrition data comes from.
var analysisSources = []string{"USDA FoodData Central", "TensorFlow Food-101"}

// lookupFacts returns the facts for a label along with the data source tag.
func lookupFacts(label string) (foodFacts, string) {
	if facts, ok := nutritionTable[label]; ok {
		return facts, "usda"
	}
	return defaultFacts, "fallback"
}
