package nutrition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultServing is assumed when the service omits the serving size.
const DefaultServing = "100g"

// ErrNotObject reports a response body that is not a JSON object.
var ErrNotObject = errors.New("response body is not a JSON object")

// Decode parses a service response body into an AnalysisResult. Missing
// fields take defaults (numerics zero, serving DefaultServing, sources empty,
// micronutrients absent); only a body that is not a well-formed JSON object
// is an error.
func Decode(body []byte) (*AnalysisResult, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	var result AnalysisResult
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, fmt.Errorf("malformed analysis response: %w", err)
	}

	if result.Serving == "" {
		result.Serving = DefaultServing
	}
	if result.Sources == nil {
		result.Sources = []string{}
	}
	return &result, nil
}
