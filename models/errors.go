package models

import (
	"errors"
	"fmt"
)

// Error codes used across the pipeline stages.
const (
	ErrCodePortBind       = "PORT_BIND_FAILED"
	ErrCodeControlMissing = "CONTROL_NOT_FOUND"
	ErrCodeBrowserCrash   = "BROWSER_CRASH"
	ErrCodeCapture        = "CAPTURE_FAILED"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeLedger         = "LEDGER_FAILURE"

	// LLM-related error codes for the extract stage.
	ErrCodeLLMFailure     = "LLM_FAILURE"
	ErrCodeLLMAuthFailure = "LLM_AUTH_FAILURE"
	ErrCodeLLMRateLimited = "LLM_RATE_LIMITED"
	ErrCodeDecodeFailure  = "DECODE_FAILURE"
)

// PipelineError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type PipelineError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(code, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: err}
}

// ErrorCode extracts the pipeline error code from err, or "" if err is not
// a PipelineError anywhere in its chain.
func ErrorCode(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
