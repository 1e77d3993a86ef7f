package server

import "time"

// FoodAnalysis is one persisted analysis result. Nutrition values are per
// 100g. Nullable columns distinguish "not measured" from zero.
type FoodAnalysis struct {
	ID           string   `gorm:"primaryKey;size:36"`
	FoodName     string   `gorm:"column:food_name;size:255"`
	Confidence   float64  `gorm:"column:confidence"`
	CaloriesKcal float64  `gorm:"column:calories_kcal"`
	ProteinG     float64  `gorm:"column:protein_g"`
	FatG         float64  `gorm:"column:fat_g"`
	CarbsG       float64  `gorm:"column:carbs_g"`
	FiberG       *float64 `gorm:"column:fiber_g"`
	SugarG       *float64 `gorm:"column:sugar_g"`
	SodiumMg     *float64 `gorm:"column:sodium_mg"`
	ServingSize  string   `gorm:"column:serving_size;size:100"`

	ModelUsed      string  `gorm:"column:model_used;size:100"`
	DataSource     string  `gorm:"column:data_source;size:100"`
	SHA1Hash       string  `gorm:"column:sha1_hash;index;size:40"`
	ProcessingTime float64 `gorm:"column:processing_time"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (FoodAnalysis) TableName() string {
	return "food_analyses"
}

// Feedback types accepted from users.
const (
	FeedbackPerfect      = "perfect"
	FeedbackClose        = "close"
	FeedbackWrong        = "wrong"
	FeedbackCorrection   = "correction"
	FeedbackConfirmation = "confirmation"
)

// Feedback records a user's judgement of an analysis, used to improve the
// classifier offline.
type Feedback struct {
	ID            string    `gorm:"primaryKey;size:36"`
	AnalysisID    string    `gorm:"column:analysis_id;index;size:36"`
	FeedbackType  string    `gorm:"column:feedback_type;size:20"`
	PredictedFood string    `gorm:"column:predicted_food;size:255"`
	CorrectFood   string    `gorm:"column:correct_food;size:255"`
	UserID        string    `gorm:"column:user_id;size:64"`
	Notes         string    `gorm:"column:notes;type:text"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (Feedback) TableName() string {
	return "analysis_feedback"
}

// ValidFeedbackType reports whether t is one of the accepted feedback types.
func ValidFeedbackType(t string) bool {
	switch t {
	case FeedbackPerfect, FeedbackClose, FeedbackWrong, FeedbackCorrection, FeedbackConfirmation:
		return true
	default:
		return false
	}
}
