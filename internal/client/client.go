// Package client uploads food photos to the analysis backend and decodes the
// nutritional breakdown it returns.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/foodlens/internal/logging"
	"github.com/example/foodlens/internal/nutrition"
)

const (
	// DefaultUploadTimeout bounds each individual upload attempt.
	DefaultUploadTimeout = 60 * time.Second

	analyzePath = "/api/v1/analyze/"
	recentPath  = "/api/v1/recent/"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// HostResolver locates the backend. Satisfied by *discovery.Resolver.
type HostResolver interface {
	Resolve(ctx context.Context) (string, error)
	BaseURL(host string) string
}

// Prober is the pre-flight reachability gate. Satisfied by *discovery.Prober.
type Prober interface {
	Probe(ctx context.Context) bool
}

// Client performs uploads against the resolved backend.
type Client struct {
	resolver HostResolver
	prober   Prober
	http     *http.Client
	timeout  time.Duration
	logger   *zap.Logger
}

// New constructs an upload client. The HTTP client carries no global timeout;
// each attempt is bounded by its own context deadline instead, so the
// single-retry logic can tell one attempt's timeout from the next.
func New(resolver HostResolver, prober Prober, logger *zap.Logger) *Client {
	return &Client{
		resolver: resolver,
		prober:   prober,
		http:     &http.Client{},
		timeout:  DefaultUploadTimeout,
		logger:   logger.Named("client"),
	}
}

// Analyze uploads one image and returns its nutritional breakdown. Failures
// are always a *Error with one of the four kinds; no partial results are ever
// returned.
func (c *Client) Analyze(ctx context.Context, imageBytes []byte, filename string) (*nutrition.AnalysisResult, error) {
	requestID := uuid.NewString()
	opLogger := logging.WithOperation(c.logger, "client.analyze", requestID)

	host, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, &Error{
			Kind:    KindUnreachable,
			Message: "could not find the analysis service on the network",
			Err:     err,
		}
	}

	if !c.prober.Probe(ctx) {
		opLogger.Warn("pre-flight check failed", zap.String("host", host))
		return nil, &Error{
			Kind:    KindUnreachable,
			Message: fmt.Sprintf("the analysis service at %s is not responding", host),
		}
	}

	url := c.resolver.BaseURL(host) + analyzePath

	status, body, err := c.attempt(ctx, url, imageBytes, filename)
	if err != nil && c.shouldRetry(ctx, err) {
		// The consumed multipart body cannot be resent; the retry builds a
		// request from scratch.
		opLogger.Warn("upload attempt timed out, retrying once", zap.Error(err))
		status, body, err = c.attempt(ctx, url, imageBytes, filename)
	}
	if err != nil {
		if isTimeout(err) && ctx.Err() == nil {
			opLogger.Error("upload timed out on both attempts", zap.Error(err))
			return nil, &Error{
				Kind:    KindTimeout,
				Message: "the upload timed out, even after retrying",
				Err:     err,
			}
		}
		opLogger.Error("upload transport failure", zap.Error(err))
		return nil, &Error{
			Kind:    KindUnreachable,
			Message: fmt.Sprintf("could not reach the analysis service at %s", host),
			Err:     err,
		}
	}

	if status != http.StatusOK {
		message := serviceMessage(body, status)
		opLogger.Warn("service rejected upload", zap.Int("status", status), zap.String("message", message))
		return nil, &Error{Kind: KindServiceError, StatusCode: status, Message: message}
	}

	result, err := nutrition.Decode(body)
	if err != nil {
		opLogger.Error("failed to decode analysis response", zap.Error(err))
		return nil, &Error{
			Kind:    KindInvalidResponse,
			Message: "the analysis service returned an unreadable result",
			Err:     err,
		}
	}

	opLogger.Info("analysis completed",
		zap.String("food", result.FoodName),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}

// attempt builds and sends one complete multipart request. Every call
// constructs a fresh body; nothing is shared between attempts.
func (c *Client) attempt(ctx context.Context, url string, imageBytes []byte, filename string) (int, []byte, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(imageBytes); err != nil {
		return 0, nil, fmt.Errorf("failed to write image part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, buf)
	if err != nil {
		return 0, nil, err
	}
	// The multipart writer owns the boundary, so it alone decides the
	// content type.
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// shouldRetry allows exactly one retry, and only for an attempt-level
// timeout. A caller that cancelled or ran out its own deadline is done.
func (c *Client) shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return isTimeout(err)
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// serviceMessage pulls the backend's own error message out of a non-success
// body, falling back to a generic one.
func serviceMessage(body []byte, status int) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fmt.Sprintf("analysis failed with status %d", status)
}
