package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/smithy-go"
	"google.golang.org/genai"
)

// StatusResourceExhausted is the API status used for both throttling and quota exhaustion.
const StatusResourceExhausted = "RESOURCE_EXHAUSTED"

const statusUnauthenticated = "UNAUTHENTICATED"

// Kind is the category a failure falls into.
type Kind string

const (
	KindQuotaExceeded     Kind = "quota_exceeded"
	KindRateLimited       Kind = "rate_limited"
	KindInvalidCredential Kind = "invalid_credential"
	KindSafetyBlock       Kind = "safety_block"
	KindGeneric           Kind = "generic"
)

// Classification is the outcome of inspecting a failed AI call.
type Classification struct {
	Kind      Kind
	Message   string
	Retryable bool
}

// Failure is the structured view of an error extracted by parseFailure.
// It is one of StructuredAPIError, PlainMessage or Unknown.
type Failure interface {
	isFailure()
}

// StructuredAPIError is an error record carrying an API status.
type StructuredAPIError struct {
	Code    int
	Status  string
	Message string
}

// PlainMessage is an error with nothing but text.
type PlainMessage struct {
	Text string
}

// Unknown is a failure with no usable information.
type Unknown struct{}

func (StructuredAPIError) isFailure() {}
func (PlainMessage) isFailure()       {}
func (Unknown) isFailure()            {}

type extractor func(err error) (Failure, bool)

// extractors are tried in order; the first match wins.
var extractors = []extractor{
	fromGenAIError,
	fromSmithyError,
	fromNestedErrorJSON,
	fromEmbeddedMessageJSON,
	fromPlainText,
}

func parseFailure(err error) Failure {
	if err == nil {
		return Unknown{}
	}
	for _, extract := range extractors {
		if f, ok := extract(err); ok {
			return f
		}
	}
	return Unknown{}
}

func fromGenAIError(err error) (Failure, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var ptr *genai.APIError
		if !errors.As(err, &ptr) || ptr == nil {
			return nil, false
		}
		apiErr = *ptr
	}
	return structured(apiErr.Code, apiErr.Status, apiErr.Message)
}

// Bedrock throttling codes are reported like Gemini's RESOURCE_EXHAUSTED.
var smithyStatus = map[string]string{
	"ThrottlingException":           StatusResourceExhausted,
	"TooManyRequestsException":      StatusResourceExhausted,
	"ServiceQuotaExceededException": StatusResourceExhausted,
	"UnrecognizedClientException":   statusUnauthenticated,
	"InvalidSignatureException":     statusUnauthenticated,
	"ExpiredTokenException":         statusUnauthenticated,
}

func fromSmithyError(err error) (Failure, bool) {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return nil, false
	}
	status, ok := smithyStatus[apiErr.ErrorCode()]
	if !ok {
		status = apiErr.ErrorCode()
	}
	msg := apiErr.ErrorMessage()
	if apiErr.ErrorCode() == "ServiceQuotaExceededException" && !containsFold(msg, "quota") {
		msg = "service quota exceeded: " + msg
	}
	return structured(0, status, msg)
}

type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func fromNestedErrorJSON(err error) (Failure, bool) {
	var env errorEnvelope
	if !decodeEmbeddedJSON(err.Error(), &env) || env.Error == nil {
		return nil, false
	}
	return structured(env.Error.Code, env.Error.Status, env.Error.Message)
}

func fromEmbeddedMessageJSON(err error) (Failure, bool) {
	var outer struct {
		Message string `json:"message"`
	}
	if !decodeEmbeddedJSON(err.Error(), &outer) || outer.Message == "" {
		return nil, false
	}
	var env errorEnvelope
	if !decodeEmbeddedJSON(outer.Message, &env) || env.Error == nil {
		return nil, false
	}
	return structured(env.Error.Code, env.Error.Status, env.Error.Message)
}

func fromPlainText(err error) (Failure, bool) {
	text := strings.TrimSpace(err.Error())
	if text == "" {
		return Unknown{}, true
	}
	return PlainMessage{Text: text}, true
}

// structured builds a StructuredAPIError, or a PlainMessage when the record
// has no status to go on. A bare HTTP 429 counts as RESOURCE_EXHAUSTED.
func structured(code int, status, message string) (Failure, bool) {
	if status == "" && code == http.StatusTooManyRequests {
		status = StatusResourceExhausted
	}
	if status == "" {
		if message == "" {
			return nil, false
		}
		return PlainMessage{Text: message}, true
	}
	return StructuredAPIError{Code: code, Status: status, Message: message}, true
}

// decodeEmbeddedJSON decodes the JSON object in text, allowing a non-JSON
// prefix such as "googleapi: " before it.
func decodeEmbeddedJSON(text string, v interface{}) bool {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return false
	}
	return json.Unmarshal([]byte(text[start:end+1]), v) == nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

// Classify inspects a failed AI call and returns its category, whether it is
// worth retrying, and a message suitable for the user. A mention of "quota"
// always makes the failure non-retryable.
func Classify(err error) Classification {
	switch f := parseFailure(err).(type) {
	case StructuredAPIError:
		return classifyStructured(f)
	case PlainMessage:
		return classifyText(f.Text)
	default:
		return Classification{
			Kind:    KindGeneric,
			Message: "An unknown error occurred while contacting the AI service.",
		}
	}
}

func classifyStructured(f StructuredAPIError) Classification {
	switch {
	case f.Status == StatusResourceExhausted && containsFold(f.Message, "quota"):
		return quotaExceeded()
	case f.Status == StatusResourceExhausted:
		return rateLimited()
	case containsFold(f.Message, "api key not valid"), f.Status == statusUnauthenticated:
		return invalidCredential()
	default:
		msg := f.Message
		if msg == "" {
			msg = f.Status
		}
		return Classification{
			Kind:    KindGeneric,
			Message: fmt.Sprintf("AI service error (%s): %s", f.Status, msg),
		}
	}
}

func classifyText(text string) Classification {
	switch {
	case containsFold(text, "quota"):
		return quotaExceeded()
	case containsFold(text, "resource_exhausted"), strings.Contains(text, "429"):
		return rateLimited()
	case containsFold(text, "api key not valid"):
		return invalidCredential()
	case containsFold(text, "safety"):
		return Classification{
			Kind:    KindSafetyBlock,
			Message: "Blocked by safety filters: the AI service refused to answer this request. Rephrase the input and try again.",
		}
	default:
		return Classification{
			Kind:    KindGeneric,
			Message: "AI service error: " + text,
		}
	}
}

func quotaExceeded() Classification {
	return Classification{
		Kind:    KindQuotaExceeded,
		Message: "Quota Exceeded: your AI service plan has used up its quota. Check your plan and billing details, or wait for the quota to reset.",
	}
}

func rateLimited() Classification {
	return Classification{
		Kind:      KindRateLimited,
		Message:   "The AI service rate limit was hit. Requests are being throttled; wait a moment and try again.",
		Retryable: true,
	}
}

func invalidCredential() Classification {
	return Classification{
		Kind:    KindInvalidCredential,
		Message: "Invalid API key: the AI service rejected the configured credential. Check ai.api_key in your configuration.",
	}
}
