package assistant

import (
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Classification is the closed set of provider failure categories. Each maps
// to a fixed user-facing notice; only ClassModelNotFound continues the
// model-fallback loop.
type Classification string

const (
	ClassModelNotFound      Classification = "model_not_found"
	ClassQuotaExceeded      Classification = "quota_exceeded"
	ClassInvalidCredentials Classification = "invalid_credentials"
	ClassServiceUnavailable Classification = "service_unavailable"
	ClassSafetyBlocked      Classification = "safety_blocked"
	ClassUnknown            Classification = "unknown"
)

// ContinuesFallback reports whether the fallback loop should advance to the
// next model after a failure of this classification.
func (c Classification) ContinuesFallback() bool {
	return c == ClassModelNotFound
}

// Classify maps a provider error onto exactly one Classification using
// status-code and message-substring heuristics. All of the string matching
// lives here so the loop logic stays a pure function of the enum.
func Classify(err error) Classification {
	if err == nil {
		return ClassUnknown
	}
	status := statusCode(err)
	msg := strings.ToLower(err.Error())

	switch {
	case status == 404,
		strings.Contains(msg, "404"),
		strings.Contains(msg, "not found"),
		strings.Contains(msg, "does not exist"):
		return ClassModelNotFound
	case status == 429,
		strings.Contains(msg, "429"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "rate limit"):
		return ClassQuotaExceeded
	case status == 401, status == 403,
		strings.Contains(msg, "401"),
		strings.Contains(msg, "403"),
		strings.Contains(msg, "api key"),
		strings.Contains(msg, "invalid authentication"):
		return ClassInvalidCredentials
	case status == 500, status == 502, status == 503,
		strings.Contains(msg, "500"),
		strings.Contains(msg, "503"),
		strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "overloaded"):
		return ClassServiceUnavailable
	case strings.Contains(msg, "safety"),
		strings.Contains(msg, "content_filter"),
		strings.Contains(msg, "content management policy"):
		return ClassSafetyBlocked
	default:
		return ClassUnknown
	}
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
