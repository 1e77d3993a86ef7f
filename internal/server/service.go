package server

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/foodlens/internal/logging"
	"github.com/example/foodlens/internal/nutrition"
)

// Store defines the persistence operations needed by the analysis service.
type Store interface {
	SaveAnalysis(ctx context.Context, analysis *FoodAnalysis) error
	FindByID(ctx context.Context, id string) (*FoodAnalysis, error)
	FindRecent(ctx context.Context, limit int) ([]*FoodAnalysis, error)
	SaveFeedback(ctx context.Context, feedback *Feedback) error
	AggregateStats(ctx context.Context) (*StatsAggregation, error)
}

// AnalysisService runs the analyze flow: classify, look up nutrition,
// persist, and cache.
type AnalysisService struct {
	store      Store
	cache      Cache
	classifier Classifier
	logger     *zap.Logger
	cacheTTL   time.Duration
}

// NewAnalysisService wires the service together.
func NewAnalysisService(store Store, cache Cache, classifier Classifier, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{
		store:      store,
		cache:      cache,
		classifier: classifier,
		logger:     logger.Named("analysis_service"),
		cacheTTL:   5 * time.Minute,
	}
}

// Analyze produces the nutritional breakdown for one uploaded image.
// Identical images are served from the cache without reclassifying.
func (s *AnalysisService) Analyze(ctx context.Context, image []byte) (*nutrition.AnalysisResult, error) {
	requestID := uuid.NewString()
	opLogger := logging.WithOperation(s.logger, "service.analyze", requestID)

	hash := sha1.Sum(image)
	hashHex := hex.EncodeToString(hash[:])
	cacheKey := fmt.Sprintf("analysis:%s", hashHex)

	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var result nutrition.AnalysisResult
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			opLogger.Info("serving cached analysis", zap.String("hash", hashHex))
			return &result, nil
		}
		opLogger.Warn("failed to decode cached analysis", zap.String("hash", hashHex))
	} else if !errors.Is(err, ErrCacheMiss) {
		opLogger.Warn("cache read failed", zap.Error(err))
	}

	started := time.Now()
	label, confidence, err := s.classifier.Classify(ctx, image)
	if err != nil {
		wrapped := logging.NewOperationError("service.classify", requestID, err)
		opLogger.Error("classification failed", zap.Error(wrapped))
		return nil, wrapped
	}

	facts, dataSource := lookupFacts(label)
	record := &FoodAnalysis{
		ID:             uuid.NewString(),
		FoodName:       label,
		Confidence:     confidence,
		CaloriesKcal:   facts.CaloriesKcal,
		ProteinG:       facts.ProteinG,
		FatG:           facts.FatG,
		CarbsG:         facts.CarbsG,
		FiberG:         facts.FiberG,
		SugarG:         facts.SugarG,
		SodiumMg:       facts.SodiumMg,
		ServingSize:    nutrition.DefaultServing,
		ModelUsed:      "static_v1",
		DataSource:     dataSource,
		SHA1Hash:       hashHex,
		ProcessingTime: time.Since(started).Seconds(),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.SaveAnalysis(ctx, record); err != nil {
		opLogger.Error("failed to persist analysis", zap.Error(err))
		return nil, err
	}

	result := resultFromRecord(record)

	if serialized, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, cacheKey, string(serialized), s.cacheTTL); err != nil {
			opLogger.Warn("failed to cache analysis", zap.Error(err))
		}
	}

	opLogger.Info("analysis completed",
		zap.String("food", label),
		zap.Float64("confidence", confidence),
		zap.String("data_source", dataSource))
	return result, nil
}

// Recent returns the newest persisted analyses.
func (s *AnalysisService) Recent(ctx context.Context, limit int) ([]*FoodAnalysis, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.FindRecent(ctx, limit)
}

// StatsSummary aggregates analysis insights for the stats endpoint.
type StatsSummary struct {
	TotalAnalyses     int64   `json:"total_analyses"`
	AverageConfidence float64 `json:"average_confidence"`
	AverageCalories   float64 `json:"average_calories_kcal"`
}

// Stats computes the system-wide summary.
func (s *AnalysisService) Stats(ctx context.Context) (*StatsSummary, error) {
	agg, err := s.store.AggregateStats(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsSummary{
		TotalAnalyses:     agg.TotalCount,
		AverageConfidence: agg.AverageConfidence,
		AverageCalories:   agg.AverageCalories,
	}, nil
}

// ErrAnalysisNotFound reports feedback against an unknown analysis.
var ErrAnalysisNotFound = errors.New("analysis not found")

// FeedbackRequest is the payload accepted by RecordFeedback.
type FeedbackRequest struct {
	AnalysisID   string `json:"analysis_id"`
	FeedbackType string `json:"feedback_type"`
	CorrectFood  string `json:"correct_food"`
	Notes        string `json:"notes"`
}

// RecordFeedback validates and stores one feedback entry.
func (s *AnalysisService) RecordFeedback(ctx context.Context, userID string, req FeedbackRequest) (*Feedback, error) {
	if !ValidFeedbackType(req.FeedbackType) {
		return nil, fmt.Errorf("invalid feedback type %q", req.FeedbackType)
	}

	analysis, err := s.store.FindByID(ctx, req.AnalysisID)
	if err != nil {
		return nil, ErrAnalysisNotFound
	}

	feedback := &Feedback{
		ID:            uuid.NewString(),
		AnalysisID:    analysis.ID,
		FeedbackType:  req.FeedbackType,
		PredictedFood: analysis.FoodName,
		CorrectFood:   req.CorrectFood,
		UserID:        userID,
		Notes:         req.Notes,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.SaveFeedback(ctx, feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

// resultFromRecord maps a persisted record onto the wire schema.
func resultFromRecord(record *FoodAnalysis) *nutrition.AnalysisResult {
	return &nutrition.AnalysisResult{
		FoodName:     record.FoodName,
		Confidence:   record.Confidence,
		Serving:      record.ServingSize,
		CaloriesKcal: record.CaloriesKcal,
		Macros: nutrition.Macros{
			ProteinG: record.ProteinG,
			FatG:     record.FatG,
			CarbsG:   record.CarbsG,
		},
		Micros: nutrition.Micros{
			FiberG:   record.FiberG,
			SugarG:   record.SugarG,
			SodiumMg: record.SodiumMg,
		},
		Sources: analysisSources,
	}
}
