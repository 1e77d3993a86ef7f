package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const recentTimeout = 10 * time.Second

// RecentAnalysis is one entry of the backend's analysis history.
type RecentAnalysis struct {
	ID           string    `json:"id"`
	FoodName     string    `json:"food_name"`
	Confidence   float64   `json:"confidence"`
	CaloriesKcal float64   `json:"calories_kcal"`
	Serving      string    `json:"serving"`
	CreatedAt    time.Time `json:"created_at"`
}

// Recent fetches the backend's most recent analyses.
func (c *Client) Recent(ctx context.Context) ([]RecentAnalysis, error) {
	host, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, &Error{
			Kind:    KindUnreachable,
			Message: "could not find the analysis service on the network",
			Err:     err,
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, recentTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.resolver.BaseURL(host)+recentPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{
			Kind:    KindUnreachable,
			Message: fmt.Sprintf("could not reach the analysis service at %s", host),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Message: "the analysis service returned an unreadable history", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Kind:       KindServiceError,
			StatusCode: resp.StatusCode,
			Message:    serviceMessage(body, resp.StatusCode),
		}
	}

	var payload struct {
		Analyses []RecentAnalysis `json:"analyses"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Message: "the analysis service returned an unreadable history", Err: err}
	}
	return payload.Analyses, nil
}
