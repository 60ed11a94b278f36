package engine

import (
	"errors"
	"fmt"
)

// Code classifies engine failures.
type Code string

const (
	CodeSourceTooLarge         Code = "SourceTooLarge"
	CodeAdapterUnavailable     Code = "AdapterUnavailable"
	CodeDetectorBudgetExceeded Code = "DetectorBudgetExceeded"
	CodeStaleFixTarget         Code = "StaleFixTarget"
	CodeEngineDisposed         Code = "EngineDisposed"
)

// EngineError is the error type returned by Engine operations.
type EngineError struct {
	Code    Code
	Op      string
	Message string
	Cause   error
}

func (e *EngineError) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg = e.Message
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *EngineError) Unwrap() error { return e.Cause }

// Is matches any EngineError with the same code, so the sentinels below work
// with errors.Is regardless of Op or Cause.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	return ok && t.Code == e.Code
}

var (
	ErrSourceTooLarge     = &EngineError{Code: CodeSourceTooLarge, Message: "source exceeds max code length"}
	ErrAdapterUnavailable = &EngineError{Code: CodeAdapterUnavailable, Message: "ai adapter unavailable"}
	ErrBudgetExceeded     = &EngineError{Code: CodeDetectorBudgetExceeded, Message: "detector skipped"}
	ErrStaleFixTarget     = &EngineError{Code: CodeStaleFixTarget, Message: "fix target no longer matches source"}
	ErrEngineDisposed     = &EngineError{Code: CodeEngineDisposed, Message: "engine is closed"}
	// ErrNoEditor is returned by editor-driven operations on an engine built
	// without an editor.
	ErrNoEditor = errors.New("no editor attached")
)

// CodeOf returns the code of the first EngineError in err's chain.
func CodeOf(err error) (Code, bool) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code, true
	}
	return "", false
}

func disposed(op string) error {
	return &EngineError{Code: CodeEngineDisposed, Op: op, Message: "engine is closed"}
}

func tooLarge(op string, size, limit int) error {
	return &EngineError{
		Code:    CodeSourceTooLarge,
		Op:      op,
		Message: fmt.Sprintf("source is %d bytes, limit is %d", size, limit),
	}
}
