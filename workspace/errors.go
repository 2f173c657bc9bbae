package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/hairizuan-noorazman/testpilot/appmodule"
	"github.com/hairizuan-noorazman/testpilot/csvio"
	"github.com/hairizuan-noorazman/testpilot/issuetracker"
	"github.com/hairizuan-noorazman/testpilot/llm"
	"github.com/hairizuan-noorazman/testpilot/qagen"
	"github.com/hairizuan-noorazman/testpilot/testcase"
)

// AIError marks a failure of a request to the AI service.
type AIError struct {
	Op  string
	Err error
}

func (e *AIError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *AIError) Unwrap() error {
	return e.Err
}

// Describe turns any workspace error into the single message shown to the
// user. AI service failures are described by the error classifier.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var missing *csvio.MissingColumnsError
	var aiErr *AIError
	switch {
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "Timed out waiting for the AI service."
	case errors.Is(err, qagen.ErrMissingAppContext):
		return "Add an app URL or app description first (testpilot setup set)."
	case errors.Is(err, qagen.ErrMalformedResponse):
		return "The AI response could not be understood. Try again; if it keeps happening, simplify the module description."
	case errors.Is(err, qagen.ErrSuspiciousContent), errors.Is(err, qagen.ErrNameTooLong), errors.Is(err, qagen.ErrTextTooLong):
		return "Input rejected: " + rootMessage(err)
	case errors.As(err, &missing):
		return missing.Error() + "."
	case errors.Is(err, csvio.ErrNoHeader):
		return "The CSV file is empty or has no header row."
	case errors.Is(err, ErrNoSuggestions):
		return "No module suggestions for the current setup. Run: testpilot modules discover"
	case errors.Is(err, ErrNoModules):
		return "There are no modules yet. Discover or add modules first."
	case errors.Is(err, ErrNoExportStorage):
		return "Export storage is not configured (export.storage)."
	case errors.Is(err, ErrNoTracker):
		return "No issue tracker is configured (tracker.provider)."
	case errors.Is(err, issuetracker.ErrUnauthorized):
		return "The issue tracker rejected the configured credentials (tracker.credentials)."
	case errors.As(err, &aiErr):
		return llm.Classify(innermost(aiErr.Err)).Message
	case errors.Is(err, appmodule.ErrModuleNotFound),
		errors.Is(err, testcase.ErrTestCaseNotFound),
		errors.Is(err, testcase.ErrInvalidStatus),
		errors.Is(err, ErrSuggestionNotFound):
		return rootMessage(err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

// innermost returns the error at the bottom of err's wrap chain, so context
// added on the way up, such as a module name, is never classified.
func innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// rootMessage returns the error text with a capitalised first letter.
func rootMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	if c := msg[0]; c >= 'a' && c <= 'z' {
		msg = string(c-'a'+'A') + msg[1:]
	}
	return msg
}
