package server

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/foodlens/internal/logging"
)

// StatsAggregation holds the raw aggregates computed by the database.
type StatsAggregation struct {
	TotalCount        int64
	AverageConfidence float64
	AverageCalories   float64
}

// Repository provides persistence for analyses and feedback.
type Repository struct {
	db             *gorm.DB
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewRepository creates a repository over the given database handle.
func NewRepository(db *gorm.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:             db,
		logger:         logger.Named("repository"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// AutoMigrate ensures the schema is available.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&FoodAnalysis{}, &Feedback{})
}

// SaveAnalysis persists one analysis record.
func (r *Repository) SaveAnalysis(ctx context.Context, analysis *FoodAnalysis) error {
	return r.executeWithRetry(ctx, "repository.save_analysis", analysis.ID, func() error {
		return r.db.WithContext(ctx).Create(analysis).Error
	})
}

// FindByID retrieves one analysis.
func (r *Repository) FindByID(ctx context.Context, id string) (*FoodAnalysis, error) {
	var analysis FoodAnalysis
	if err := r.db.WithContext(ctx).First(&analysis, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &analysis, nil
}

// FindRecent returns the newest analyses, most recent first.
func (r *Repository) FindRecent(ctx context.Context, limit int) ([]*FoodAnalysis, error) {
	var analyses []*FoodAnalysis
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&analyses).Error
	if err != nil {
		return nil, err
	}
	return analyses, nil
}

// SaveFeedback persists one feedback entry.
func (r *Repository) SaveFeedback(ctx context.Context, feedback *Feedback) error {
	return r.executeWithRetry(ctx, "repository.save_feedback", feedback.ID, func() error {
		return r.db.WithContext(ctx).Create(feedback).Error
	})
}

// AggregateStats computes the system-wide analysis aggregates.
func (r *Repository) AggregateStats(ctx context.Context) (*StatsAggregation, error) {
	var agg StatsAggregation
	err := r.db.WithContext(ctx).
		Model(&FoodAnalysis{}).
		Select("COUNT(*) AS total_count, COALESCE(AVG(confidence), 0) AS average_confidence, COALESCE(AVG(calories_kcal), 0) AS average_calories").
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// executeWithRetry runs fn, retrying transient failures with exponential
// backoff.
func (r *Repository) executeWithRetry(ctx context.Context, operation, requestID string, fn func() error) error {
	if r.retryAttempts <= 1 {
		return logging.NewOperationError(operation, requestID, fn())
	}

	backoff := r.initialBackoff
	opLogger := logging.WithOperation(r.logger, operation, requestID)
	var err error
	for attempt := 0; attempt < r.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= r.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("database operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !isTransientError(err) || attempt == r.retryAttempts-1 {
			opLogger.Error("database operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, requestID, err)
		}

		opLogger.Warn("transient database error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}
