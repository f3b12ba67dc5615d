package parser

import "fmt"

// ErrorCode identifies a class of parser-boundary failure
type ErrorCode string

const (
	CodeUnavailable     ErrorCode = "PARSER_UNAVAILABLE"
	CodeTimeout         ErrorCode = "PARSER_TIMEOUT"
	CodeNotPDF          ErrorCode = "NOT_PDF"
	CodeDownloadFailed  ErrorCode = "DOWNLOAD_FAILED"
	CodeNoTextExtracted ErrorCode = "NO_TEXT_EXTRACTED"
	CodeBadResponse     ErrorCode = "BAD_RESPONSE"
)

// ParserError is a structured error for failures at the extraction
// capability boundary, where retryability decides whether a forced re-parse
// is worth scheduling.
type ParserError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

func (e *ParserError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ParserError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether retrying this failure could help
func (e *ParserError) IsRetryable() bool {
	return e.Retryable
}

func newError(code ErrorCode, message string, retryable bool, cause error) *ParserError {
	return &ParserError{Code: code, Message: message, Retryable: retryable, Cause: cause}
}
