package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/foodlens/internal/auth"
)

// MaxUploadSize caps the accepted image payload.
const MaxUploadSize = 10 << 20

// RegisterRoutes wires the HTTP handlers to the Gin router. authMiddleware
// guards the management routes; pass nil to leave them open.
func RegisterRoutes(router *gin.Engine, svc *AnalysisService, authMiddleware gin.HandlerFunc) {
	router.GET("/api/v1/health/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Reachability target for the client's explicit connectivity check.
	router.GET("/admin/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/api/v1/analyze/", func(c *gin.Context) {
		if c.Request.ContentLength > MaxUploadSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return
		}

		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
			return
		}

		if !looksLikeImage(file.Header.Get("Content-Type"), data) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File must be an image"})
			return
		}

		result, err := svc.Analyze(c.Request.Context(), data)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, result)
	})

	router.GET("/api/v1/recent/", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		analyses, err := svc.Recent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recent analyses"})
			return
		}

		entries := make([]gin.H, 0, len(analyses))
		for _, a := range analyses {
			entries = append(entries, gin.H{
				"id":            a.ID,
				"food_name":     a.FoodName,
				"confidence":    a.Confidence,
				"calories_kcal": a.CaloriesKcal,
				"serving":       a.ServingSize,
				"created_at":    a.CreatedAt.Format(time.RFC3339),
			})
		}
		c.JSON(http.StatusOK, gin.H{"analyses": entries})
	})

	managed := router.Group("/")
	if authMiddleware != nil {
		managed.Use(authMiddleware)
	}

	managed.GET("/api/v1/stats/", func(c *gin.Context) {
		summary, err := svc.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
			return
		}
		c.JSON(http.StatusOK, summary)
	})

	managed.POST("/api/v1/feedback/", func(c *gin.Context) {
		var req FeedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feedback payload"})
			return
		}

		userID, _ := auth.GetUserID(c.Request.Context())
		feedback, err := svc.RecordFeedback(c.Request.Context(), userID, req)
		if err != nil {
			if errors.Is(err, ErrAnalysisNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": feedback.ID, "status": "recorded"})
	})
}

// looksLikeImage accepts a declared image content type, or sniffs the payload
// when the part carried none.
func looksLikeImage(declared string, data []byte) bool {
	if strings.HasPrefix(declared, "image/") {
		return true
	}
	return strings.HasPrefix(http.DetectContentType(data), "image/")
}
