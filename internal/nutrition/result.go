package nutrition

// Calories contributed by one gram of each macronutrient.
const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// Macros is the macronutrient breakdown of an analyzed serving, in grams.
type Macros struct {
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbsG   float64 `json:"carbs_g"`
}

// TotalGrams returns the combined macronutrient mass.
func (m Macros) TotalGrams() float64 {
	return m.ProteinG + m.FatG + m.CarbsG
}

// Calories estimates the energy content from the macro breakdown alone.
// The estimate is informational; the service-reported calorie count is
// authoritative and is never replaced by it.
func (m Macros) Calories() float64 {
	return m.ProteinG*kcalPerGramProtein + m.CarbsG*kcalPerGramCarbs + m.FatG*kcalPerGramFat
}

// Micros holds the optional micronutrient values. A nil field means the
// service did not measure that nutrient, which is distinct from a measured
// zero.
type Micros struct {
	VitaminCMg    *float64 `json:"vitamin_c_mg"`
	CalciumMg     *float64 `json:"calcium_mg"`
	IronMg        *float64 `json:"iron_mg"`
	VitaminDMcg   *float64 `json:"vitamin_d_mcg"`
	VitaminB12Mcg *float64 `json:"vitamin_b12_mcg"`
	MagnesiumMg   *float64 `json:"magnesium_mg"`
	PotassiumMg   *float64 `json:"potassium_mg"`
	SodiumMg      *float64 `json:"sodium_mg"`
	FiberG        *float64 `json:"fiber_g"`
	SugarG        *float64 `json:"sugar_g"`
}

// AnalysisResult is the decoded nutritional breakdown for one analyzed photo.
// It is immutable once constructed.
type AnalysisResult struct {
	FoodName     string   `json:"food_name"`
	Confidence   float64  `json:"confidence"`
	Serving      string   `json:"serving"`
	CaloriesKcal float64  `json:"calories_kcal"`
	Macros       Macros   `json:"macros"`
	Micros       Micros   `json:"micros"`
	Sources      []string `json:"sources"`
	ImageURL     string   `json:"image_url,omitempty"`
}
