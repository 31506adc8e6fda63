package chatbridge

import "strings"

// TranslateError maps a technical failure to a message safe to show an end
// user. Matching is substring-based on the error text, coarsest category
// last.
func TranslateError(err error) string {
	if err == nil {
		return ""
	}
	text := strings.ToLower(err.Error())

	switch {
	case strings.Contains(text, "connection") || strings.Contains(text, "timeout"):
		return "Unable to connect to the service. Please check your internet connection and try again."
	case strings.Contains(text, "auth") || strings.Contains(text, "unauthorized") || strings.Contains(text, "forbidden"):
		return "Authentication failed. Please log in again."
	case strings.Contains(text, "rate limit") || strings.Contains(text, "too many requests"):
		return "Too many requests. Please wait a moment and try again."
	case strings.Contains(text, "bedrock") || strings.Contains(text, "model"):
		return "The AI service is temporarily unavailable. Please try again in a moment."
	case strings.Contains(text, "token") && strings.Contains(text, "limit"):
		return "Your message is too long. Please try a shorter message."
	case strings.Contains(text, "supabase") || strings.Contains(text, "database"):
		return "Unable to access your data. Please try again."
	case strings.Contains(text, "validation") || strings.Contains(text, "invalid"):
		return "Invalid input. Please check your message and try again."
	default:
		return "An unexpected error occurred. Please try again."
	}
}

// SuggestedActions returns remediation hints matching the error category.
func SuggestedActions(err error) []string {
	if err == nil {
		return nil
	}
	text := strings.ToLower(err.Error())

	switch {
	case strings.Contains(text, "connection") || strings.Contains(text, "timeout"):
		return []string{
			"Check your internet connection",
			"Try again in a moment",
			"Contact support if the problem persists",
		}
	case strings.Contains(text, "auth"):
		return []string{
			"Log in again",
			"Check your credentials",
			"Contact support if you continue to have issues",
		}
	case strings.Contains(text, "rate limit"):
		return []string{
			"Wait a moment before trying again",
			"Reduce the frequency of your requests",
		}
	case strings.Contains(text, "token") && strings.Contains(text, "limit"):
		return []string{
			"Try a shorter message",
			"Break your request into smaller parts",
		}
	default:
		return []string{
			"Try again",
			"Contact support if the problem persists",
		}
	}
}

// ErrorDetail is the structured error body returned by the HTTP surface.
type ErrorDetail struct {
	Code             string   `json:"code"`
	Message          string   `json:"message"`
	UserMessage      string   `json:"userMessage"`
	SuggestedActions []string `json:"suggestedActions"`
	Retryable        bool     `json:"retryable"`
}

// ErrorResponse wraps an ErrorDetail under the conventional "error" key.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// NewErrorResponse builds a standardized error response.
func NewErrorResponse(err error, code string, retryable bool) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{
		Code:             code,
		Message:          err.Error(),
		UserMessage:      TranslateError(err),
		SuggestedActions: SuggestedActions(err),
		Retryable:        retryable,
	}}
}
